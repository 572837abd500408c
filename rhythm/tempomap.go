package rhythm

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/robmorgan/timeline/timebase"
)

// TempoMap is an immutable timeline of tempo and meter markers. Every
// marker takes effect from its anchor (inclusive) up to the next marker of
// the same kind. Queries never allocate, so a published map can be read
// from the audio thread while an editor prepares the next version.
type TempoMap struct {
	tempos     []TempoPoint
	meters     []MeterPoint
	generation uint64
}

// NewTempoMap returns a map holding only the initial tempo and meter.
func NewTempoMap(t Tempo, m Meter) (*TempoMap, error) {
	return build(
		[]TempoPoint{{Tempo: t, anchor: anchor{bbt: Start}}},
		[]MeterPoint{{Meter: m, anchor: anchor{bbt: Start}}},
	)
}

func build(tempos []TempoPoint, meters []MeterPoint) (*TempoMap, error) {
	ts, ms, err := recompute(tempos, meters)
	if err != nil {
		return nil, err
	}
	return &TempoMap{tempos: ts, meters: ms}, nil
}

// Generation counts the commits that led to this map.
func (tm *TempoMap) Generation() uint64 { return tm.generation }

// Tempos returns a copy of the tempo markers in anchor order.
func (tm *TempoMap) Tempos() []TempoPoint { return slices.Clone(tm.tempos) }

// Meters returns a copy of the meter markers in anchor order.
func (tm *TempoMap) Meters() []MeterPoint { return slices.Clone(tm.meters) }

// Equal reports whether both maps hold identical markers, ignoring generation.
func (tm *TempoMap) Equal(other *TempoMap) bool {
	return slices.Equal(tm.tempos, other.tempos) && slices.Equal(tm.meters, other.meters)
}

func (tm *TempoMap) withGeneration(g uint64) *TempoMap {
	return &TempoMap{tempos: tm.tempos, meters: tm.meters, generation: g}
}

// TempoPointAt returns the tempo marker governing sc.
func (tm *TempoMap) TempoPointAt(sc timebase.Superclock) (TempoPoint, error) {
	if sc < 0 {
		return TempoPoint{}, ErrInvalidRange
	}
	return tm.tempos[tempoIndexAtSuperclock(tm.tempos, sc)], nil
}

func (tm *TempoMap) TempoPointAtBeats(b timebase.Beats) (TempoPoint, error) {
	if b < 0 {
		return TempoPoint{}, ErrInvalidRange
	}
	return tm.tempos[tempoIndexAtBeats(tm.tempos, b)], nil
}

func (tm *TempoMap) TempoPointAtBBT(bbt BBT) (TempoPoint, error) {
	b, err := tm.BeatsAtBBT(bbt)
	if err != nil {
		return TempoPoint{}, err
	}
	return tm.TempoPointAtBeats(b)
}

// TempoAt returns the tempo sounding at sc. Inside a ramp the result is the
// interpolated instantaneous rate.
func (tm *TempoMap) TempoAt(sc timebase.Superclock) (Tempo, error) {
	tp, err := tm.TempoPointAt(sc)
	if err != nil {
		return Tempo{}, err
	}
	return tp.tempoAt(sc), nil
}

func (tm *TempoMap) TempoAtBeats(b timebase.Beats) (Tempo, error) {
	tp, err := tm.TempoPointAtBeats(b)
	if err != nil {
		return Tempo{}, err
	}
	return tp.tempoAtBeats(b), nil
}

func (tm *TempoMap) TempoAtBBT(bbt BBT) (Tempo, error) {
	b, err := tm.BeatsAtBBT(bbt)
	if err != nil {
		return Tempo{}, err
	}
	return tm.TempoAtBeats(b)
}

// MeterPointAt returns the meter marker governing sc.
func (tm *TempoMap) MeterPointAt(sc timebase.Superclock) (MeterPoint, error) {
	if sc < 0 {
		return MeterPoint{}, ErrInvalidRange
	}
	return tm.meters[meterIndexAtSuperclock(tm.meters, sc)], nil
}

func (tm *TempoMap) MeterPointAtBeats(b timebase.Beats) (MeterPoint, error) {
	if b < 0 {
		return MeterPoint{}, ErrInvalidRange
	}
	return tm.meters[meterIndexAtBeats(tm.meters, b)], nil
}

func (tm *TempoMap) MeterPointAtBBT(bbt BBT) (MeterPoint, error) {
	if !bbt.IsValid() {
		return MeterPoint{}, fmt.Errorf("%w: %v", ErrInvalidBBT, bbt)
	}
	return tm.meters[meterIndexAtBBT(tm.meters, bbt)], nil
}

func (tm *TempoMap) MeterAt(sc timebase.Superclock) (Meter, error) {
	mp, err := tm.MeterPointAt(sc)
	return mp.Meter, err
}

func (tm *TempoMap) MeterAtBeats(b timebase.Beats) (Meter, error) {
	mp, err := tm.MeterPointAtBeats(b)
	return mp.Meter, err
}

func (tm *TempoMap) MeterAtBBT(bbt BBT) (Meter, error) {
	mp, err := tm.MeterPointAtBBT(bbt)
	return mp.Meter, err
}

// BeatsAtBBT converts a BBT position to quarter notes from the session start.
func (tm *TempoMap) BeatsAtBBT(bbt BBT) (timebase.Beats, error) {
	return beatsAtBBT(tm.meters, bbt)
}

// BBTAtBeats converts quarter notes to BBT, rounding down to a whole tick.
func (tm *TempoMap) BBTAtBeats(b timebase.Beats) (BBT, error) {
	return bbtAtBeats(tm.meters, b)
}

// SuperclockAtBeats converts quarter notes to audio time.
func (tm *TempoMap) SuperclockAtBeats(b timebase.Beats) (timebase.Superclock, error) {
	tp, err := tm.TempoPointAtBeats(b)
	if err != nil {
		return 0, err
	}
	return tp.superclockAtBeats(b)
}

// SuperclockAt converts a BBT position to audio time.
func (tm *TempoMap) SuperclockAt(bbt BBT) (timebase.Superclock, error) {
	b, err := tm.BeatsAtBBT(bbt)
	if err != nil {
		return 0, err
	}
	return tm.SuperclockAtBeats(b)
}

// BeatsAt converts audio time to quarter notes, rounded to the nearest unit.
func (tm *TempoMap) BeatsAt(sc timebase.Superclock) (timebase.Beats, error) {
	tp, err := tm.TempoPointAt(sc)
	if err != nil {
		return 0, err
	}
	return tp.beatsAtSuperclock(sc)
}

// BBTAt converts audio time to the BBT tick containing it.
func (tm *TempoMap) BBTAt(sc timebase.Superclock) (BBT, error) {
	b, err := tm.BeatsAt(sc)
	if err != nil {
		return BBT{}, err
	}
	return tm.BBTAtBeats(b)
}

// SampleAt converts a BBT position to the nearest sample at rate.
func (tm *TempoMap) SampleAt(bbt BBT, rate int) (int64, error) {
	sc, err := tm.SuperclockAt(bbt)
	if err != nil {
		return 0, err
	}
	return sc.ToSamples(rate)
}

// BBTAtSample converts a sample position at rate to BBT.
func (tm *TempoMap) BBTAtSample(sample int64, rate int) (BBT, error) {
	sc, err := timebase.FromSamples(sample, rate)
	if err != nil {
		return BBT{}, err
	}
	return tm.BBTAt(sc)
}

// BBTWalk moves at by off, interpreting beats with whichever meter governs
// each bar the walk passes through.
func (tm *TempoMap) BBTWalk(at BBT, off BBTOffset) (BBT, error) {
	if _, err := tm.BeatsAtBBT(at); err != nil {
		return BBT{}, err
	}

	bar := int64(at.Bars) + off.Bars
	ticks := int64(at.Ticks) + off.Ticks
	beat := int64(at.Beats-1) + off.Beats + floorDiv(ticks, timebase.TicksPerBeat)
	ticks = floorMod(ticks, timebase.TicksPerBeat)

	for {
		if bar < 1 {
			return BBT{}, fmt.Errorf("%w: %v + %+v", ErrInvalidRange, at, off)
		}
		if bar > int64(^uint32(0)) {
			return BBT{}, fmt.Errorf("%w: %v + %+v", ErrInvalidRange, at, off)
		}
		divisions := int64(tm.meters[meterIndexAtBar(tm.meters, uint32(bar))].divisionsPerBar)
		switch {
		case beat < 0:
			bar--
			if bar < 1 {
				return BBT{}, fmt.Errorf("%w: %v + %+v", ErrInvalidRange, at, off)
			}
			beat += int64(tm.meters[meterIndexAtBar(tm.meters, uint32(bar))].divisionsPerBar)
		case beat >= divisions:
			beat -= divisions
			bar++
		default:
			return BBT{Bars: uint32(bar), Beats: uint32(beat) + 1, Ticks: uint32(ticks)}, nil
		}
	}
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func floorMod(a, b int64) int64 {
	return a - floorDiv(a, b)*b
}

// Copy returns the markers anchored in [start, end) as a detached cut buffer.
// With withPos the buffer remembers start for PasteBack.
func (tm *TempoMap) Copy(start, end timebase.Beats, withPos bool) (*CutBuffer, error) {
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: [%v, %v)", ErrInvalidRange, start, end)
	}

	buf := &CutBuffer{duration: end - start}
	if withPos {
		buf.position = start
		buf.hasPosition = true
	}
	buf.startTempo = tm.tempos[tempoIndexAtBeats(tm.tempos, start)].Tempo
	buf.startMeter = tm.meters[meterIndexAtBeats(tm.meters, start)].Meter

	for _, tp := range tm.tempos {
		if tp.beats >= start && tp.beats < end {
			buf.tempos = append(buf.tempos, CutTempo{Offset: tp.beats - start, Tempo: tp.Tempo})
		}
	}
	for _, mp := range tm.meters {
		if mp.beats >= start && mp.beats < end {
			buf.meters = append(buf.meters, CutMeter{Offset: mp.beats - start, Meter: mp.Meter})
		}
	}
	return buf, nil
}
