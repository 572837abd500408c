package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/robmorgan/timeline/logger"
	"github.com/robmorgan/timeline/rhythm"
)

// TimelineConfig represents options that configure the session and the
// tempo map it starts with.
type TimelineConfig struct {
	// Project logger
	Logger *logrus.Logger `yaml:"-"`

	LogLevel   string `yaml:"log_level"`
	SampleRate int    `yaml:"sample_rate"`

	// The tempo and meter markers of the initial map. Each list needs an entry on bar 1.
	Tempos []TempoMarker `yaml:"tempos"`
	Meters []MeterMarker `yaml:"meters"`
}

// TempoMarker is a tempo change as written in the config file.
type TempoMarker struct {
	Bar  uint32 `yaml:"bar"`
	Beat uint32 `yaml:"beat"`
	Tick uint32 `yaml:"tick"`

	BPM      float64 `yaml:"bpm"`
	EndBPM   float64 `yaml:"end_bpm"`
	NoteType int     `yaml:"note_type"`
}

// MeterMarker is a meter change as written in the config file.
type MeterMarker struct {
	Bar       uint32 `yaml:"bar"`
	Divisions int    `yaml:"divisions"`
	NoteValue int    `yaml:"note_value"`
}

// NewTimelineConfig creates a config with reasonable defaults for real usage:
// 48kHz, 120 bpm in quarter notes and 4/4.
func NewTimelineConfig() TimelineConfig {
	return TimelineConfig{
		Logger:     logger.GetProjectLogger(),
		LogLevel:   "info",
		SampleRate: 48000,
		Tempos:     []TempoMarker{{Bar: 1, Beat: 1, BPM: 120, NoteType: 4}},
		Meters:     []MeterMarker{{Bar: 1, Divisions: 4, NoteValue: 4}},
	}
}

// Load reads a YAML config file over the defaults, then applies the
// TIMELINE_SAMPLE_RATE and TIMELINE_LOG_LEVEL environment overrides. An
// empty path skips the file.
func Load(path string) (TimelineConfig, error) {
	cfg := NewTimelineConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return TimelineConfig{}, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return TimelineConfig{}, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	cfg.SampleRate = envInt("TIMELINE_SAMPLE_RATE", cfg.SampleRate)
	cfg.LogLevel = envStr("TIMELINE_LOG_LEVEL", cfg.LogLevel)

	if cfg.SampleRate <= 0 {
		return TimelineConfig{}, fmt.Errorf("sample rate must be positive, got %d", cfg.SampleRate)
	}
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		return TimelineConfig{}, err
	}
	return cfg, nil
}

// Markers converts the configured tempos and meters into a marker list for rhythm.FromMarkers.
func (c TimelineConfig) Markers() ([]rhythm.Marker, error) {
	out := make([]rhythm.Marker, 0, len(c.Tempos)+len(c.Meters))

	for _, m := range c.Meters {
		meter, err := rhythm.NewMeter(m.Divisions, m.NoteValue)
		if err != nil {
			return nil, fmt.Errorf("meter at bar %d: %w", m.Bar, err)
		}
		out = append(out, rhythm.Marker{
			Kind:     rhythm.MeterMarker,
			Position: rhythm.BBT{Bars: m.Bar, Beats: 1},
			Meter:    meter,
		})
	}

	for _, t := range c.Tempos {
		end := t.EndBPM
		if end == 0 {
			end = t.BPM
		}
		noteType := t.NoteType
		if noteType == 0 {
			noteType = 4
		}
		tempo, err := rhythm.NewRampedTempo(t.BPM, end, noteType)
		if err != nil {
			return nil, fmt.Errorf("tempo at bar %d: %w", t.Bar, err)
		}
		beat := t.Beat
		if beat == 0 {
			beat = 1
		}
		out = append(out, rhythm.Marker{
			Kind:     rhythm.TempoMarker,
			Position: rhythm.BBT{Bars: t.Bar, Beats: beat, Ticks: t.Tick},
			Tempo:    tempo,
		})
	}

	return out, nil
}

// TempoMap builds the configured initial tempo map.
func (c TimelineConfig) TempoMap() (*rhythm.TempoMap, error) {
	markers, err := c.Markers()
	if err != nil {
		return nil, err
	}
	return rhythm.FromMarkers(markers)
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
