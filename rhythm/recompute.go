package rhythm

import (
	"fmt"
	"math"
	"sort"

	"golang.org/x/exp/slices"

	"github.com/robmorgan/timeline/timebase"
)

// recompute derives every marker's beat and superclock anchor, and every
// ramp slope, from the BBT anchors. It never modifies its arguments.
func recompute(tempos []TempoPoint, meters []MeterPoint) ([]TempoPoint, []MeterPoint, error) {
	ts := slices.Clone(tempos)
	ms := slices.Clone(meters)
	slices.SortStableFunc(ts, func(a, b TempoPoint) bool { return a.bbt.Less(b.bbt) })
	slices.SortStableFunc(ms, func(a, b MeterPoint) bool { return a.bbt.Less(b.bbt) })

	if len(ts) == 0 || len(ms) == 0 || ts[0].bbt != Start || ms[0].bbt != Start {
		return nil, nil, ErrMissingInitial
	}

	for i := range ms {
		if !ms[i].Meter.valid() {
			return nil, nil, fmt.Errorf("%w: at %v", ErrInvalidMeter, ms[i].bbt)
		}
	}

	// meters: bar lines to quarter notes
	ms[0].beats = 0
	for i := 1; i < len(ms); i++ {
		prev := ms[i-1]
		if ms[i].bbt == prev.bbt {
			return nil, nil, fmt.Errorf("%w: meter at %v", ErrDuplicateAnchor, ms[i].bbt)
		}
		if !ms[i].bbt.OnBar() {
			return nil, nil, fmt.Errorf("%w: %v", ErrMeterNotOnBar, ms[i].bbt)
		}
		ms[i].beats = prev.beats + timebase.Beats(ms[i].bbt.Bars-prev.bbt.Bars)*prev.QuartersPerBar()
	}

	// tempos: BBT to quarter notes through the meters
	for i := range ts {
		if !ts[i].Tempo.valid() {
			return nil, nil, fmt.Errorf("%w: at %v", ErrInvalidTempo, ts[i].bbt)
		}
		if i > 0 && ts[i].bbt == ts[i-1].bbt {
			return nil, nil, fmt.Errorf("%w: tempo at %v", ErrDuplicateAnchor, ts[i].bbt)
		}
		b, err := beatsAtBBT(ms, ts[i].bbt)
		if err != nil {
			return nil, nil, err
		}
		ts[i].beats = b
	}

	// tempos: quarter notes to superclocks, segment by segment
	ts[0].sclock = 0
	for i := range ts {
		ts[i].omega = 0
		if i == len(ts)-1 {
			break
		}

		dq := ts[i+1].beats - ts[i].beats
		var span timebase.Superclock
		if ts[i].Ramped() {
			t0, t1 := ts[i].quartersPerSuperclock()
			ts[i].omega = rampOmega(t0, t1, dq.Float())
			d := rampDuration(t0, t1, dq.Float())
			if d > math.MaxInt64/2 {
				return nil, nil, fmt.Errorf("%w: ramp at %v", ErrOverflow, ts[i].bbt)
			}
			span = timebase.Superclock(math.Round(d))
		} else {
			var err error
			span, err = timebase.FromBeats(dq, ts[i].superclocksPerQuarter)
			if err != nil {
				return nil, nil, err
			}
		}

		next, err := ts[i].sclock.Add(span)
		if err != nil {
			return nil, nil, err
		}
		ts[i+1].sclock = next
	}

	// meters: quarter notes to superclocks through the tempos
	for i := range ms {
		tp := ts[tempoIndexAtBeats(ts, ms[i].beats)]
		sc, err := tp.superclockAtBeats(ms[i].beats)
		if err != nil {
			return nil, nil, err
		}
		ms[i].sclock = sc
	}

	return ts, ms, nil
}

func tempoIndexAtSuperclock(ts []TempoPoint, sc timebase.Superclock) int {
	return sort.Search(len(ts), func(i int) bool { return ts[i].sclock > sc }) - 1
}

func tempoIndexAtBeats(ts []TempoPoint, b timebase.Beats) int {
	return sort.Search(len(ts), func(i int) bool { return ts[i].beats > b }) - 1
}

func meterIndexAtSuperclock(ms []MeterPoint, sc timebase.Superclock) int {
	return sort.Search(len(ms), func(i int) bool { return ms[i].sclock > sc }) - 1
}

func meterIndexAtBeats(ms []MeterPoint, b timebase.Beats) int {
	return sort.Search(len(ms), func(i int) bool { return ms[i].beats > b }) - 1
}

func meterIndexAtBBT(ms []MeterPoint, bbt BBT) int {
	return sort.Search(len(ms), func(i int) bool { return bbt.Less(ms[i].bbt) }) - 1
}

func meterIndexAtBar(ms []MeterPoint, bar uint32) int {
	return sort.Search(len(ms), func(i int) bool { return ms[i].bbt.Bars > bar }) - 1
}

// beatsAtBBT only needs meters whose beat anchors are already known.
func beatsAtBBT(ms []MeterPoint, bbt BBT) (timebase.Beats, error) {
	if !bbt.IsValid() {
		return 0, fmt.Errorf("%w: %v", ErrInvalidBBT, bbt)
	}
	mp := ms[meterIndexAtBBT(ms, bbt)]
	if int(bbt.Beats) > mp.divisionsPerBar {
		return 0, fmt.Errorf("%w: %v has only %d beats per bar", ErrInvalidBBT, bbt, mp.divisionsPerBar)
	}
	return mp.beats +
		timebase.Beats(bbt.Bars-mp.bbt.Bars)*mp.QuartersPerBar() +
		timebase.Beats(bbt.Beats-1)*mp.BeatsPerDivision() +
		timebase.Beats(bbt.Ticks)*mp.BeatsPerTick(), nil
}

// bbtAtBeats rounds down to the enclosing BBT tick.
func bbtAtBeats(ms []MeterPoint, b timebase.Beats) (BBT, error) {
	if b < 0 {
		return BBT{}, fmt.Errorf("%w: beats %v", ErrInvalidRange, b)
	}
	mp := ms[meterIndexAtBeats(ms, b)]
	d := b - mp.beats
	perBar := mp.QuartersPerBar()
	bars := int64(mp.bbt.Bars) + int64(d/perBar)
	if bars > math.MaxUint32 {
		return BBT{}, fmt.Errorf("%w: beats %v", ErrInvalidRange, b)
	}
	rem := d % perBar
	perDivision := mp.BeatsPerDivision()
	return BBT{
		Bars:  uint32(bars),
		Beats: uint32(rem/perDivision) + 1,
		Ticks: uint32((rem % perDivision) / mp.BeatsPerTick()),
	}, nil
}
