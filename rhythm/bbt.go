package rhythm

import (
	"fmt"
	"math"

	"github.com/robmorgan/timeline/timebase"
)

// BBT is a musical position: 1-based bar and beat, plus ticks into the beat.
// The beat is one division of the meter in effect.
type BBT struct {
	Bars  uint32
	Beats uint32
	Ticks uint32
}

// Start is the first position of every session.
var Start = BBT{Bars: 1, Beats: 1}

func NewBBT(bars, beats, ticks uint32) (BBT, error) {
	b := BBT{Bars: bars, Beats: beats, Ticks: ticks}
	if !b.IsValid() {
		return BBT{}, fmt.Errorf("%w: %v", ErrInvalidBBT, b)
	}
	return b, nil
}

// IsValid checks the meter independent bounds. Whether Beats fits the bar
// depends on the meter in effect and is checked by the tempo map.
func (b BBT) IsValid() bool {
	return b.Bars >= 1 && b.Beats >= 1 && b.Ticks < timebase.TicksPerBeat
}

// Compare orders positions lexicographically by bars, beats then ticks.
func (b BBT) Compare(o BBT) int {
	switch {
	case b.Bars != o.Bars:
		return cmpUint32(b.Bars, o.Bars)
	case b.Beats != o.Beats:
		return cmpUint32(b.Beats, o.Beats)
	}
	return cmpUint32(b.Ticks, o.Ticks)
}

func (b BBT) Less(o BBT) bool { return b.Compare(o) < 0 }

// Bar returns the downbeat of b's bar.
func (b BBT) Bar() BBT { return BBT{Bars: b.Bars, Beats: 1} }

// OnBar reports whether b is a downbeat.
func (b BBT) OnBar() bool { return b.Beats == 1 && b.Ticks == 0 }

func (b BBT) String() string {
	return fmt.Sprintf("%03d|%02d|%04d", b.Bars, b.Beats, b.Ticks)
}

func cmpUint32(a, b uint32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// BBTOffset is a zero-based musical distance. Negative fields subtract.
type BBTOffset struct {
	Bars  int64
	Beats int64
	Ticks int64
}

// Add moves b by off under a single meter, carrying ticks into beats and
// beats into bars.
func (b BBT) Add(off BBTOffset, m Meter) (BBT, error) {
	if !m.valid() {
		return BBT{}, fmt.Errorf("%w: %v", ErrInvalidMeter, m)
	}
	if !b.IsValid() || int(b.Beats) > m.divisionsPerBar {
		return BBT{}, fmt.Errorf("%w: %v in %v", ErrInvalidBBT, b, m)
	}

	divisions := int64(m.divisionsPerBar)
	ticks := ((int64(b.Bars-1)*divisions)+int64(b.Beats-1))*timebase.TicksPerBeat + int64(b.Ticks)
	ticks += (off.Bars*divisions+off.Beats)*timebase.TicksPerBeat + off.Ticks
	if ticks < 0 {
		return BBT{}, fmt.Errorf("%w: %v + %+v", ErrInvalidRange, b, off)
	}

	perBar := divisions * timebase.TicksPerBeat
	bars := ticks/perBar + 1
	if bars > math.MaxUint32 {
		return BBT{}, fmt.Errorf("%w: %v + %+v", ErrInvalidRange, b, off)
	}
	rem := ticks % perBar
	return BBT{
		Bars:  uint32(bars),
		Beats: uint32(rem/timebase.TicksPerBeat) + 1,
		Ticks: uint32(rem % timebase.TicksPerBeat),
	}, nil
}

// Subtract moves b back by off under a single meter.
func (b BBT) Subtract(off BBTOffset, m Meter) (BBT, error) {
	return b.Add(BBTOffset{Bars: -off.Bars, Beats: -off.Beats, Ticks: -off.Ticks}, m)
}
