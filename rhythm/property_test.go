package rhythm

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"

	"github.com/robmorgan/timeline/timebase"
)

const propertyRate = 48000

// slowest tempo in newRichMap: one BBT tick of a quarter note at 90 bpm
const samplesPerTickAt90 = 17

func richMapProperties(t *testing.T) *gopter.Properties {
	t.Helper()
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	return gopter.NewProperties(parameters)
}

// clampBBT folds a generated position into one that exists under tm's meters.
func clampBBT(tm *TempoMap, bar, beat, tick int) BBT {
	m, _ := tm.MeterAtBBT(BBT{Bars: uint32(bar), Beats: 1})
	return BBT{
		Bars:  uint32(bar),
		Beats: uint32((beat-1)%m.DivisionsPerBar() + 1),
		Ticks: uint32(tick),
	}
}

func TestBBTRoundTripProperty(t *testing.T) {
	t.Parallel()

	tm := newRichMap(t)
	properties := richMapProperties(t)

	properties.Property("bbt survives a trip through superclock", prop.ForAll(
		func(bar, beat, tick int) bool {
			pos := clampBBT(tm, bar, beat, tick)
			sc, err := tm.SuperclockAt(pos)
			if err != nil {
				return false
			}
			back, err := tm.BBTAt(sc)
			return err == nil && back == pos
		},
		gen.IntRange(1, 40),
		gen.IntRange(1, 12),
		gen.IntRange(0, timebase.TicksPerBeat-1),
	))

	properties.Property("beats survive a trip through superclock", prop.ForAll(
		func(units int64) bool {
			b := timebase.Beats(units)
			sc, err := tm.SuperclockAtBeats(b)
			if err != nil {
				return false
			}
			back, err := tm.BeatsAt(sc)
			return err == nil && back == b
		},
		gen.Int64Range(0, int64(timebase.QuarterNotes(150))),
	))

	properties.Property("a sample maps back to itself within one tick", prop.ForAll(
		func(sample int64) bool {
			pos, err := tm.BBTAtSample(sample, propertyRate)
			if err != nil {
				return false
			}
			back, err := tm.SampleAt(pos, propertyRate)
			return err == nil && back <= sample && sample-back <= samplesPerTickAt90
		},
		gen.Int64Range(0, 120*propertyRate),
	))

	properties.TestingRun(t)
}

func TestMonotonicProperty(t *testing.T) {
	t.Parallel()

	tm := newRichMap(t)
	properties := richMapProperties(t)

	properties.Property("later samples are never earlier in musical time", prop.ForAll(
		func(sample, delta int64) bool {
			sc1, err1 := timebase.FromSamples(sample, propertyRate)
			sc2, err2 := timebase.FromSamples(sample+delta, propertyRate)
			if err1 != nil || err2 != nil {
				return false
			}

			b1, err1 := tm.BeatsAt(sc1)
			b2, err2 := tm.BeatsAt(sc2)
			if err1 != nil || err2 != nil || b1 >= b2 {
				return false
			}

			bbt1, err1 := tm.BBTAtBeats(b1)
			bbt2, err2 := tm.BBTAtBeats(b2)
			if err1 != nil || err2 != nil || bbt2.Less(bbt1) {
				return false
			}
			return delta < samplesPerTickAt90 || bbt1.Less(bbt2)
		},
		gen.Int64Range(0, 120*propertyRate),
		gen.Int64Range(1, 10*propertyRate),
	))

	properties.Property("later positions sound later", prop.ForAll(
		func(bar, beat, tick, ticks int) bool {
			from := clampBBT(tm, bar, beat, tick)
			to, err := tm.BBTWalk(from, BBTOffset{Ticks: int64(ticks)})
			if err != nil {
				return false
			}
			sc1, err1 := tm.SuperclockAt(from)
			sc2, err2 := tm.SuperclockAt(to)
			return err1 == nil && err2 == nil && sc1 < sc2
		},
		gen.IntRange(1, 40),
		gen.IntRange(1, 12),
		gen.IntRange(0, timebase.TicksPerBeat-1),
		gen.IntRange(1, 4*timebase.TicksPerBeat),
	))

	properties.TestingRun(t)
}

func TestRampInversionProperty(t *testing.T) {
	t.Parallel()

	meter := mustMeter(t, 4, 4)
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	properties.Property("any ramp inverts exactly", prop.ForAll(
		func(from, to, bars int, units int64) bool {
			ramp, err := NewRampedTempo(float64(from), float64(to), 4)
			if err != nil {
				return false
			}
			after, err := NewTempo(float64(to), 4)
			if err != nil {
				return false
			}
			tm, err := FromMarkers([]Marker{
				{Kind: MeterMarker, Position: Start, Meter: meter},
				{Kind: TempoMarker, Position: Start, Tempo: ramp},
				{Kind: TempoMarker, Position: BBT{Bars: uint32(bars) + 1, Beats: 1}, Tempo: after},
			})
			if err != nil {
				return false
			}

			b := timebase.Beats(units % int64(timebase.QuarterNotes(int64(4*bars))))
			sc, err := tm.SuperclockAtBeats(b)
			if err != nil {
				return false
			}
			back, err := tm.BeatsAt(sc)
			return err == nil && back == b
		},
		gen.IntRange(20, 300),
		gen.IntRange(20, 300),
		gen.IntRange(1, 32),
		gen.Int64Range(0, 1<<40),
	))

	properties.TestingRun(t)
}

func TestRampEndsAtMarker(t *testing.T) {
	t.Parallel()

	tm := newRichMap(t)
	tempos := tm.Tempos()
	require.Len(t, tempos, 4)

	// just before the marker that ends the 90>160 ramp the rate is nearly 160
	tempo, err := tm.TempoAt(tempos[2].Superclock() - 1)
	require.NoError(t, err)
	require.InDelta(t, 160.0, tempo.NotesPerMinute(), 1e-3)
}
