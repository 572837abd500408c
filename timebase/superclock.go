// Package timebase holds the integer time units shared by the tempo map: the
// superclock, a sub-sample audio time, and Beats, a fixed-point quarter note
// count.
package timebase

import (
	"fmt"
	"time"
)

// SuperclockTicksPerSecond is divisible by every common sample rate
// (22050, 32000, 44100, 48000, 88200, 96000, 176400, 192000), so whole
// samples convert to superclocks without rounding.
const SuperclockTicksPerSecond int64 = 282240000

// Superclock is a point or span of audio time measured in superclock ticks.
type Superclock int64

// FromSamples converts a sample position at the given rate into superclocks.
func FromSamples(sample int64, rate int) (Superclock, error) {
	if rate <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidRate, rate)
	}
	if sample < 0 {
		return 0, fmt.Errorf("%w: sample %d", ErrInvalidRange, sample)
	}
	sc, err := MulDiv(sample, SuperclockTicksPerSecond, int64(rate))
	if err != nil {
		return 0, err
	}
	return Superclock(sc), nil
}

// ToSamples converts sc to the nearest sample at the given rate.
func (sc Superclock) ToSamples(rate int) (int64, error) {
	if rate <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidRate, rate)
	}
	if sc < 0 {
		return 0, fmt.Errorf("%w: superclock %d", ErrInvalidRange, sc)
	}
	return MulDiv(int64(sc), int64(rate), SuperclockTicksPerSecond)
}

// FromDuration converts a wall clock duration into superclocks.
func FromDuration(d time.Duration) (Superclock, error) {
	if d < 0 {
		return 0, fmt.Errorf("%w: duration %v", ErrInvalidRange, d)
	}
	sc, err := MulDiv(int64(d), SuperclockTicksPerSecond, int64(time.Second))
	if err != nil {
		return 0, err
	}
	return Superclock(sc), nil
}

// Duration converts sc to the nearest nanosecond.
func (sc Superclock) Duration() (time.Duration, error) {
	ns, err := MulDiv(int64(sc), int64(time.Second), SuperclockTicksPerSecond)
	if err != nil {
		return 0, err
	}
	return time.Duration(ns), nil
}

// FromBeats converts a quarter note span into superclocks under a constant
// tempo of superclocksPerQuarter.
func FromBeats(b Beats, superclocksPerQuarter int64) (Superclock, error) {
	if b < 0 {
		return 0, fmt.Errorf("%w: beats %v", ErrInvalidRange, b)
	}
	if superclocksPerQuarter <= 0 {
		return 0, fmt.Errorf("%w: %d superclocks per quarter", ErrInvalidRate, superclocksPerQuarter)
	}
	sc, err := MulDiv(int64(b), superclocksPerQuarter, BeatResolution)
	if err != nil {
		return 0, err
	}
	return Superclock(sc), nil
}

// ToBeats is the inverse of FromBeats.
func (sc Superclock) ToBeats(superclocksPerQuarter int64) (Beats, error) {
	if sc < 0 {
		return 0, fmt.Errorf("%w: superclock %d", ErrInvalidRange, sc)
	}
	if superclocksPerQuarter <= 0 {
		return 0, fmt.Errorf("%w: %d superclocks per quarter", ErrInvalidRate, superclocksPerQuarter)
	}
	b, err := MulDiv(int64(sc), BeatResolution, superclocksPerQuarter)
	if err != nil {
		return 0, err
	}
	return Beats(b), nil
}

// Add returns sc+other, failing on overflow.
func (sc Superclock) Add(other Superclock) (Superclock, error) {
	sum, err := addChecked(int64(sc), int64(other))
	if err != nil {
		return 0, err
	}
	return Superclock(sum), nil
}

// Sub returns sc-other. A negative result is rejected.
func (sc Superclock) Sub(other Superclock) (Superclock, error) {
	if other > sc {
		return 0, fmt.Errorf("%w: %d - %d", ErrInvalidRange, sc, other)
	}
	return sc - other, nil
}

// Scale returns sc*num/den rounded to the nearest tick.
func (sc Superclock) Scale(num, den int64) (Superclock, error) {
	v, err := MulDiv(int64(sc), num, den)
	if err != nil {
		return 0, err
	}
	return Superclock(v), nil
}

// Compare returns -1, 0 or +1.
func (sc Superclock) Compare(other Superclock) int {
	switch {
	case sc < other:
		return -1
	case sc > other:
		return 1
	}
	return 0
}

// Seconds is for display only.
func (sc Superclock) Seconds() float64 {
	return float64(sc) / float64(SuperclockTicksPerSecond)
}

func (sc Superclock) String() string {
	return fmt.Sprintf("%dsc", int64(sc))
}
