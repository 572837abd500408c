package rhythm

import "github.com/robmorgan/timeline/timebase"

// Snapshot is the read-only view of a published tempo map used by the
// realtime engine. Every method is allocation free and safe to call from
// any goroutine.
type Snapshot interface {
	// Generation identifies the committed version being read.
	Generation() uint64

	// TempoAt gets the tempo sounding at a position, interpolated inside a ramp.
	TempoAt(sc timebase.Superclock) (Tempo, error)

	// MeterAt gets the meter in effect at a position.
	MeterAt(sc timebase.Superclock) (Meter, error)

	// SuperclockAt gets the audio time of a musical position.
	SuperclockAt(bbt BBT) (timebase.Superclock, error)

	// SuperclockAtBeats gets the audio time of a quarter note position.
	SuperclockAtBeats(b timebase.Beats) (timebase.Superclock, error)

	// BBTAt gets the musical position of an audio time.
	BBTAt(sc timebase.Superclock) (BBT, error)

	// BeatsAt gets the quarter note position of an audio time.
	BeatsAt(sc timebase.Superclock) (timebase.Beats, error)

	// SampleAt gets the sample position of a musical position.
	SampleAt(bbt BBT, rate int) (int64, error)

	// BBTAtSample gets the musical position of a sample.
	BBTAtSample(sample int64, rate int) (BBT, error)
}

var _ Snapshot = (*TempoMap)(nil)
