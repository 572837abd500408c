package main

import (
	"context"
	"os"
	"os/signal"
	"sync"

	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/robmorgan/timeline/config"
	"github.com/robmorgan/timeline/logger"
	"github.com/robmorgan/timeline/rhythm"
)

func main() {
	// The only argument is an optional config file; TIMELINE_CONFIG works too.
	path := os.Getenv("TIMELINE_CONFIG")
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	Run(context.Background(), path)
}

// Run starts the console
func Run(ctx context.Context, configPath string) {
	ctx, cancel := context.WithCancel(ctx)

	// initialize the logger
	logger := logger.GetProjectLogger()

	wg := sync.WaitGroup{}

	// initialize the session config
	logger.Info("Initializing config...")
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("error loading config. err='%v'", err)
	}

	// build the tempo map
	logger.Info("Initializing tempo map...")
	tm, err := cfg.TempoMap()
	if err != nil {
		logger.Fatalf("error building tempo map. err='%v'", err)
	}
	for _, mk := range tm.Markers() {
		entry := logger.WithFields(logrus.Fields{"kind": mk.Kind, "at": mk.Position})
		if mk.Kind == rhythm.MeterMarker {
			entry.WithField("meter", mk.Meter).Info("Marker")
		} else {
			entry.WithField("tempo", mk.Tempo).Info("Marker")
		}
	}

	manager := rhythm.NewManager(tm, cfg.Logger)
	unsubscribe := manager.Subscribe(func(tm *rhythm.TempoMap) {
		logger.WithFields(logrus.Fields{
			"generation": tm.Generation(),
			"tempos":     len(tm.Tempos()),
			"meters":     len(tm.Meters()),
		}).Info("Tempo map changed")
	})
	defer unsubscribe()

	// follow the map in real time
	logger.Info("Starting metronome...")
	metronome := rhythm.NewMetronome(clock.RealClock{}, manager, cfg.SampleRate)
	wg.Add(1)
	go func() {
		err := metronome.Run(ctx, &wg, func(snap rhythm.MetronomeSnapshot) {
			logger.WithFields(logrus.Fields{
				"bbt":    snap.BBT,
				"sample": snap.Sample,
				"tempo":  snap.Tempo,
				"meter":  snap.Meter,
			}).Info("Bar")
		})
		if err != nil && ctx.Err() == nil {
			logger.WithError(err).Error("Metronome stopped")
		}
	}()

	// handle CTRL+C interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)

	<-quit
	logger.Println("shutting down timeline")
	cancel()
	wg.Wait()
}
