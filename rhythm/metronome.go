package rhythm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/robmorgan/timeline/logger"
	"github.com/robmorgan/timeline/timebase"
)

// DefaultPollInterval caps how long Run sleeps, so a newly committed map is
// picked up before the next bar line it would have missed.
const DefaultPollInterval = 250 * time.Millisecond

// Metronome plays the published tempo map against a clock, the way the
// audio engine walks it once per block. Its origin is the wall clock
// instant at which the session start (1|1|0) sounds.
// Originally based on https://github.com/Deep-Symmetry/electro/blob/main/src/main/java/org/deepsymmetry/electro/Metronome.java
type Metronome struct {
	mu         sync.Mutex
	clock      clock.Clock
	source     *Manager
	startTime  time.Time
	sampleRate int

	PollInterval time.Duration
}

// MetronomeSnapshot is the state of the timeline at one instant.
type MetronomeSnapshot struct {
	Instant    time.Time
	Generation uint64
	Position   timebase.Superclock
	Sample     int64
	Beats      timebase.Beats
	BBT        BBT
	Tempo      Tempo
	Meter      Meter
}

// NewMetronome creates a metronome whose origin is now.
func NewMetronome(c clock.Clock, source *Manager, sampleRate int) *Metronome {
	return &Metronome{
		clock:        c,
		source:       source,
		startTime:    c.Now(),
		sampleRate:   sampleRate,
		PollInterval: DefaultPollInterval,
	}
}

// StartTime returns the instant the session start sounds.
func (m *Metronome) StartTime() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startTime
}

// Restart moves the origin to now.
func (m *Metronome) Restart() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startTime = m.clock.Now()
}

// Locate moves the origin so that bbt sounds now.
func (m *Metronome) Locate(bbt BBT) error {
	sc, err := m.source.Current().SuperclockAt(bbt)
	if err != nil {
		return err
	}
	d, err := sc.Duration()
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.startTime = m.clock.Now().Add(-d)
	return nil
}

// Snapshot returns the timeline state at the current instant.
func (m *Metronome) Snapshot() (MetronomeSnapshot, error) {
	return m.SnapshotAt(m.clock.Now())
}

// SnapshotAt returns the timeline state at instant, which must not precede the origin.
func (m *Metronome) SnapshotAt(instant time.Time) (MetronomeSnapshot, error) {
	sc, err := timebase.FromDuration(instant.Sub(m.StartTime()))
	if err != nil {
		return MetronomeSnapshot{}, err
	}

	tm := m.source.Current()
	snap := MetronomeSnapshot{Instant: instant, Generation: tm.Generation(), Position: sc}
	if snap.Sample, err = sc.ToSamples(m.sampleRate); err != nil {
		return MetronomeSnapshot{}, err
	}
	if snap.Beats, err = tm.BeatsAt(sc); err != nil {
		return MetronomeSnapshot{}, err
	}
	if snap.BBT, err = tm.BBTAtBeats(snap.Beats); err != nil {
		return MetronomeSnapshot{}, err
	}
	if snap.Tempo, err = tm.TempoAt(sc); err != nil {
		return MetronomeSnapshot{}, err
	}
	if snap.Meter, err = tm.MeterAtBeats(snap.Beats); err != nil {
		return MetronomeSnapshot{}, err
	}
	return snap, nil
}

// TimeOfBar determines the instant at which a bar will start.
func (m *Metronome) TimeOfBar(bar uint32) (time.Time, error) {
	sc, err := m.source.Current().SuperclockAt(BBT{Bars: bar, Beats: 1})
	if err != nil {
		return time.Time{}, err
	}
	return m.timeOf(sc)
}

// TimeOfBeats determines the instant at which a quarter note position will sound.
func (m *Metronome) TimeOfBeats(b timebase.Beats) (time.Time, error) {
	sc, err := m.source.Current().SuperclockAtBeats(b)
	if err != nil {
		return time.Time{}, err
	}
	return m.timeOf(sc)
}

func (m *Metronome) timeOf(sc timebase.Superclock) (time.Time, error) {
	d, err := sc.Duration()
	if err != nil {
		return time.Time{}, err
	}
	return m.StartTime().Add(d), nil
}

// Run calls onBar once for every bar line crossed until ctx is cancelled.
func (m *Metronome) Run(ctx context.Context, wg *sync.WaitGroup, onBar func(MetronomeSnapshot)) error {
	defer wg.Done()

	log := logger.GetProjectLogger()
	log.Printf("Metronome started at %v", m.clock.Now())

	var lastBar uint32
	t := m.clock.NewTimer(0)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Metronome shutdown")
			return ctx.Err()
		case <-t.C():
			snap, err := m.Snapshot()
			if err != nil {
				log.WithError(err).Error("Metronome could not read the tempo map")
				return err
			}
			if snap.BBT.Bars != lastBar {
				lastBar = snap.BBT.Bars
				onBar(snap)
			}
			t.Reset(m.untilNextBar(snap))
		}
	}
}

func (m *Metronome) untilNextBar(snap MetronomeSnapshot) time.Duration {
	wait := m.PollInterval
	next, err := m.TimeOfBar(snap.BBT.Bars + 1)
	if err != nil {
		logger.GetProjectLogger().WithFields(logrus.Fields{"bar": snap.BBT.Bars + 1}).WithError(err).Debug("No next bar line")
		return wait
	}
	if d := next.Sub(snap.Instant); d < wait {
		wait = d
	}
	if wait < 0 {
		wait = 0
	}
	return wait
}

// IsDownBeat checks whether the snapshot falls in the first beat of its bar.
func (s MetronomeSnapshot) IsDownBeat() bool {
	return s.BBT.Beats == 1
}

// BeatPhase returns how far through the current beat the snapshot is, from 0 to 1.
func (s MetronomeSnapshot) BeatPhase() float64 {
	return float64(s.BBT.Ticks) / timebase.TicksPerBeat
}

// Marker returns the snapshot's position as "bar.beat".
func (s MetronomeSnapshot) Marker() string {
	return fmt.Sprintf("%d.%d", s.BBT.Bars, s.BBT.Beats)
}
