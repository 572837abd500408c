package rhythm

import (
	"math"

	"github.com/robmorgan/timeline/timebase"
)

// anchor is a marker position cached in all three time domains. The BBT
// value is authoritative; the map derives the others on recompute.
type anchor struct {
	sclock timebase.Superclock
	beats  timebase.Beats
	bbt    BBT
}

// Superclock is the anchor in audio time.
func (a anchor) Superclock() timebase.Superclock { return a.sclock }

// Beats is the anchor in quarter notes from the session start.
func (a anchor) Beats() timebase.Beats { return a.beats }

// BBT is the anchor in bars, beats and ticks.
func (a anchor) BBT() BBT { return a.bbt }

// SampleAt returns the anchor as a sample position at rate.
func (a anchor) SampleAt(rate int) (int64, error) { return a.sclock.ToSamples(rate) }

// Initial reports whether this is a session start marker.
func (a anchor) Initial() bool { return a.bbt == Start }

// TempoPoint is a tempo change anchored on the timeline.
type TempoPoint struct {
	Tempo
	anchor

	// omega is the ramp slope in quarters per superclock per superclock.
	omega float64
}

// Omega is the ramp slope of the segment starting here. It is zero for a
// constant segment, including a ramped tempo with no following marker.
func (tp TempoPoint) Omega() float64 { return tp.omega }

// TempoAtRampFraction interpolates the tempo f (0..1) of the way through the
// segment's duration.
func (tp TempoPoint) TempoAtRampFraction(f float64) Tempo {
	if tp.omega == 0 || f <= 0 {
		return tp.Tempo.constant()
	}
	if f >= 1 {
		return tp.Tempo.withNotesPerMinute(tp.endNotesPerMinute)
	}
	return tp.Tempo.withNotesPerMinute(tp.notesPerMinute + (tp.endNotesPerMinute-tp.notesPerMinute)*f)
}

// tempoAt returns the instantaneous tempo sc into the map; sc must lie in this point's segment.
func (tp TempoPoint) tempoAt(sc timebase.Superclock) Tempo {
	elapsed := float64(sc - tp.sclock)
	if tp.omega == 0 || elapsed <= 0 {
		return tp.Tempo.constant()
	}
	t0, _ := tp.quartersPerSuperclock()
	return tp.Tempo.withNotesPerMinute(notesPerMinuteOf(t0+tp.omega*elapsed, tp.noteType))
}

// tempoAtBeats is tempoAt for a quarter note position.
func (tp TempoPoint) tempoAtBeats(b timebase.Beats) Tempo {
	dq := (b - tp.beats).Float()
	if tp.omega == 0 || dq <= 0 {
		return tp.Tempo.constant()
	}
	t0, _ := tp.quartersPerSuperclock()
	return tp.Tempo.withNotesPerMinute(notesPerMinuteOf(rampRateAtQuarters(t0, tp.omega, dq), tp.noteType))
}

// superclockAtBeats converts a quarter note position inside this segment to superclocks.
func (tp TempoPoint) superclockAtBeats(b timebase.Beats) (timebase.Superclock, error) {
	dq := b - tp.beats
	if tp.omega == 0 {
		d, err := timebase.FromBeats(dq, tp.superclocksPerQuarter)
		if err != nil {
			return 0, err
		}
		return tp.sclock.Add(d)
	}

	t0, _ := tp.quartersPerSuperclock()
	t, err := rampSuperclocks(t0, tp.omega, dq.Float())
	if err != nil {
		return 0, err
	}
	if t > math.MaxInt64/2 {
		return 0, ErrOverflow
	}
	return tp.sclock.Add(timebase.Superclock(math.Round(t)))
}

// beatsAtSuperclock converts an audio position inside this segment to quarter notes.
func (tp TempoPoint) beatsAtSuperclock(sc timebase.Superclock) (timebase.Beats, error) {
	dsc, err := sc.Sub(tp.sclock)
	if err != nil {
		return 0, err
	}
	if tp.omega == 0 {
		d, err := dsc.ToBeats(tp.superclocksPerQuarter)
		if err != nil {
			return 0, err
		}
		return tp.beats + d, nil
	}

	t0, _ := tp.quartersPerSuperclock()
	return tp.beats + timebase.BeatsFromFloat(rampQuarters(t0, tp.omega, float64(dsc))), nil
}

func notesPerMinuteOf(quartersPerSuperclock float64, noteType int) float64 {
	quartersPerMinute := quartersPerSuperclock * float64(timebase.SuperclockTicksPerSecond) * 60
	return quartersPerMinute * float64(noteType) / 4
}

// MeterPoint is a meter change anchored on a bar line.
type MeterPoint struct {
	Meter
	anchor
}
