package rhythm

import (
	"fmt"
	"math"
	"sort"

	"golang.org/x/exp/slices"

	"github.com/robmorgan/timeline/timebase"
)

// The helpers below never touch the receiver: each returns a freshly
// recomputed map, so a failed edit leaves the previous map intact.

func (tm *TempoMap) withTempo(t Tempo, at BBT) (*TempoMap, error) {
	if !t.valid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTempo, t)
	}
	if !at.IsValid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBBT, at)
	}

	ts := slices.Clone(tm.tempos)
	i := sort.Search(len(ts), func(i int) bool { return !ts[i].bbt.Less(at) })
	if i < len(ts) && ts[i].bbt == at {
		ts[i].Tempo = t
	} else {
		ts = slices.Insert(ts, i, TempoPoint{Tempo: t, anchor: anchor{bbt: at}})
	}
	return build(ts, tm.meters)
}

func (tm *TempoMap) withMeter(m Meter, at BBT) (*TempoMap, error) {
	if !m.valid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMeter, m)
	}
	if !at.IsValid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBBT, at)
	}
	if !at.OnBar() {
		return nil, fmt.Errorf("%w: %v", ErrMeterNotOnBar, at)
	}

	ms := slices.Clone(tm.meters)
	i := sort.Search(len(ms), func(i int) bool { return !ms[i].bbt.Less(at) })
	if i < len(ms) && ms[i].bbt == at {
		ms[i].Meter = m
	} else {
		ms = slices.Insert(ms, i, MeterPoint{Meter: m, anchor: anchor{bbt: at}})
	}
	return build(tm.tempos, ms)
}

func (tm *TempoMap) withoutTempo(at BBT) (*TempoMap, error) {
	if at == Start {
		return nil, ErrCannotRemoveInitial
	}
	i := slices.IndexFunc(tm.tempos, func(tp TempoPoint) bool { return tp.bbt == at })
	if i < 0 {
		return nil, fmt.Errorf("%w: tempo at %v", ErrMarkerNotFound, at)
	}
	return build(slices.Delete(slices.Clone(tm.tempos), i, i+1), tm.meters)
}

func (tm *TempoMap) withoutMeter(at BBT) (*TempoMap, error) {
	if at == Start {
		return nil, ErrCannotRemoveInitial
	}
	i := slices.IndexFunc(tm.meters, func(mp MeterPoint) bool { return mp.bbt == at })
	if i < 0 {
		return nil, fmt.Errorf("%w: meter at %v", ErrMarkerNotFound, at)
	}
	return rebuild(tm.tempos, slices.Delete(slices.Clone(tm.meters), i, i+1), tm.meters[i].beats, nil)
}

// withoutRange drops every marker anchored in [start, end) except the initial ones.
func (tm *TempoMap) withoutRange(start, end timebase.Beats) (*TempoMap, error) {
	inRange := func(a anchor) bool { return !a.Initial() && a.beats >= start && a.beats < end }

	ts := make([]TempoPoint, 0, len(tm.tempos))
	for _, tp := range tm.tempos {
		if !inRange(tp.anchor) {
			ts = append(ts, tp)
		}
	}
	from := unchangedMeters
	ms := make([]MeterPoint, 0, len(tm.meters))
	for _, mp := range tm.meters {
		if !inRange(mp.anchor) {
			ms = append(ms, mp)
		} else if mp.beats < from {
			from = mp.beats
		}
	}
	return rebuild(ts, ms, from, nil)
}

// unchangedMeters tells rebuild that no tempo needs re-anchoring.
const unchangedMeters = timebase.Beats(math.MaxInt64)

// rebuild builds a map over a changed meter list. Tempos other than the
// initial one at or after from keep their quarter note position instead of
// their BBT, which may not exist under the new meters; meters keep their
// bar. The extra markers are then placed along with the moved tempos.
func rebuild(tempos []TempoPoint, meters []MeterPoint, from timebase.Beats, extra []floating) (*TempoMap, error) {
	var (
		ts    []TempoPoint
		moved []floating
	)
	for _, tp := range tempos {
		if tp.Initial() || tp.beats < from {
			ts = append(ts, tp)
		} else {
			moved = append(moved, floating{beats: tp.beats, kind: TempoMarker, tempo: tp.Tempo})
		}
	}

	base, err := build(ts, meters)
	if err != nil {
		return nil, err
	}
	return base.place(append(moved, extra...))
}

// floating is a marker positioned in quarter notes rather than BBT, as
// happens when markers are pasted or shifted by a ripple edit.
type floating struct {
	beats timebase.Beats
	kind  MarkerKind
	tempo Tempo
	meter Meter
}

// place anchors floating markers one at a time in quarter note order. Each
// position is converted to BBT against the map built so far, so a pasted
// meter shapes the bars of everything after it. Positions round down to a
// tick of the meter they land in, and meters that do not land on a bar
// line move forward to the next one. At equal positions a later item
// replaces an earlier one of the same kind.
func (tm *TempoMap) place(items []floating) (*TempoMap, error) {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b floating) bool {
		if a.beats != b.beats {
			return a.beats < b.beats
		}
		return a.kind == MeterMarker && b.kind != MeterMarker
	})

	cur := tm
	for _, it := range sorted {
		bbt, err := cur.BBTAtBeats(it.beats)
		if err != nil {
			return nil, err
		}

		switch it.kind {
		case MeterMarker:
			if !bbt.OnBar() {
				bbt = BBT{Bars: bbt.Bars + 1, Beats: 1}
			}
			cur, err = cur.withMeter(it.meter, bbt)
		default:
			cur, err = cur.withTempo(it.tempo, bbt)
		}
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}

// split separates markers into those that keep their BBT anchor and those
// that float to a new quarter note position given by shift.
func (tm *TempoMap) split(keep func(anchor) bool, shift func(timebase.Beats) (timebase.Beats, bool)) (*TempoMap, []floating, error) {
	var (
		ts    []TempoPoint
		ms    []MeterPoint
		moved []floating
	)
	for _, tp := range tm.tempos {
		if keep(tp.anchor) {
			ts = append(ts, tp)
		} else if b, ok := shift(tp.beats); ok {
			moved = append(moved, floating{beats: b, kind: TempoMarker, tempo: tp.Tempo})
		}
	}
	for _, mp := range tm.meters {
		if keep(mp.anchor) {
			ms = append(ms, mp)
		} else if b, ok := shift(mp.beats); ok {
			moved = append(moved, floating{beats: b, kind: MeterMarker, meter: mp.Meter})
		}
	}

	base, err := build(ts, ms)
	if err != nil {
		return nil, nil, err
	}
	return base, moved, nil
}

// withoutTime removes [start, end) and pulls later markers back by its length.
func (tm *TempoMap) withoutTime(start, end timebase.Beats) (*TempoMap, error) {
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: [%v, %v)", ErrInvalidRange, start, end)
	}
	length := end - start
	base, float, err := tm.split(
		func(a anchor) bool { return a.Initial() || a.beats < start },
		func(b timebase.Beats) (timebase.Beats, bool) { return b - length, b >= end },
	)
	if err != nil {
		return nil, err
	}
	return base.place(float)
}

// withTime opens a gap of length at position at, pushing later markers back.
func (tm *TempoMap) withTime(at, length timebase.Beats) (*TempoMap, error) {
	if at < 0 || length <= 0 {
		return nil, fmt.Errorf("%w: %v at %v", ErrInvalidRange, length, at)
	}
	base, float, err := tm.split(
		func(a anchor) bool { return a.Initial() || a.beats < at },
		func(b timebase.Beats) (timebase.Beats, bool) { return b + length, true },
	)
	if err != nil {
		return nil, err
	}
	return base.place(float)
}

// withPaste places the buffer's markers at at. Existing tempos from the
// first pasted meter on keep their quarter note position, so pasting back a
// cut restores them.
func (tm *TempoMap) withPaste(buf *CutBuffer, at timebase.Beats) (*TempoMap, error) {
	if at < 0 {
		return nil, fmt.Errorf("%w: paste at %v", ErrInvalidRange, at)
	}
	from := unchangedMeters
	items := make([]floating, 0, len(buf.tempos)+len(buf.meters))
	for _, ct := range buf.tempos {
		items = append(items, floating{beats: at + ct.Offset, kind: TempoMarker, tempo: ct.Tempo})
	}
	for _, cm := range buf.meters {
		items = append(items, floating{beats: at + cm.Offset, kind: MeterMarker, meter: cm.Meter})
		if at+cm.Offset < from {
			from = at + cm.Offset
		}
	}
	return rebuild(tm.tempos, tm.meters, from, items)
}
