package timebase

import (
	"fmt"
	"math"
)

const (
	// TicksPerBeat is the BBT tick resolution of one meter division.
	TicksPerBeat = 1920

	// MaxNoteValue is the shortest note value a meter or tempo may use.
	MaxNoteValue = 128

	// BeatResolution is the number of Beats units in a quarter note. One BBT
	// tick of any legal note value is a whole number of units.
	BeatResolution int64 = TicksPerBeat * MaxNoteValue / 4
)

// Beats is a musical position or span in fixed-point quarter notes.
type Beats int64

// QuarterNotes returns n whole quarter notes.
func QuarterNotes(n int64) Beats {
	return Beats(n * BeatResolution)
}

// BeatsFromFloat rounds a fractional quarter note count to the nearest unit.
func BeatsFromFloat(quarters float64) Beats {
	return Beats(math.Round(quarters * float64(BeatResolution)))
}

// Quarters returns the whole quarter notes in b.
func (b Beats) Quarters() int64 {
	return int64(b) / BeatResolution
}

// Remainder returns the units past the last whole quarter note.
func (b Beats) Remainder() int64 {
	return int64(b) % BeatResolution
}

// Float returns b in quarter notes.
func (b Beats) Float() float64 {
	return float64(b) / float64(BeatResolution)
}

func (b Beats) String() string {
	return fmt.Sprintf("%d:%d", b.Quarters(), b.Remainder())
}
