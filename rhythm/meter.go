package rhythm

import (
	"fmt"

	"github.com/robmorgan/timeline/timebase"
)

// MaxDivisionsPerBar bounds the meter numerator.
const MaxDivisionsPerBar = 1024

// Meter is a time signature: DivisionsPerBar notes of NoteValue make one bar.
type Meter struct {
	divisionsPerBar int
	noteValue       int
}

func NewMeter(divisionsPerBar, noteValue int) (Meter, error) {
	if divisionsPerBar < 1 || divisionsPerBar > MaxDivisionsPerBar {
		return Meter{}, fmt.Errorf("%w: %d divisions per bar", ErrInvalidMeter, divisionsPerBar)
	}
	if !validNoteValue(noteValue) {
		return Meter{}, fmt.Errorf("%w: note value %d", ErrInvalidMeter, noteValue)
	}
	return Meter{divisionsPerBar: divisionsPerBar, noteValue: noteValue}, nil
}

func (m Meter) DivisionsPerBar() int { return m.divisionsPerBar }

func (m Meter) NoteValue() int { return m.noteValue }

// BeatsPerDivision is the quarter note length of one meter division.
func (m Meter) BeatsPerDivision() timebase.Beats {
	return timebase.Beats(timebase.BeatResolution * 4 / int64(m.noteValue))
}

// BeatsPerTick is the quarter note length of one BBT tick under this meter.
func (m Meter) BeatsPerTick() timebase.Beats {
	return m.BeatsPerDivision() / timebase.TicksPerBeat
}

func (m Meter) QuartersPerBar() timebase.Beats {
	return timebase.Beats(m.divisionsPerBar) * m.BeatsPerDivision()
}

func (m Meter) valid() bool {
	return m.divisionsPerBar >= 1 && m.divisionsPerBar <= MaxDivisionsPerBar && validNoteValue(m.noteValue)
}

func (m Meter) String() string {
	return fmt.Sprintf("%d/%d", m.divisionsPerBar, m.noteValue)
}
