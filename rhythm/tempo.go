package rhythm

import (
	"fmt"
	"math"

	"github.com/robmorgan/timeline/timebase"
)

const (
	// MinNotesPerMinute keeps the superclocks-per-quarter of the slowest tempo inside int64.
	MinNotesPerMinute = 0.01

	// MaxNotesPerMinute keeps at least one superclock per quarter note.
	MaxNotesPerMinute = 1e6
)

// Tempo is a rate in notes of NoteType per minute. When the end rate
// differs from the start rate the tempo ramps linearly (in time) towards it
// over the span up to the next tempo marker.
type Tempo struct {
	notesPerMinute    float64
	endNotesPerMinute float64
	noteType          int

	superclocksPerQuarter    int64
	endSuperclocksPerQuarter int64
}

// NewTempo returns a constant tempo.
func NewTempo(notesPerMinute float64, noteType int) (Tempo, error) {
	return NewRampedTempo(notesPerMinute, notesPerMinute, noteType)
}

// NewRampedTempo returns a tempo that ramps from notesPerMinute to endNotesPerMinute.
func NewRampedTempo(notesPerMinute, endNotesPerMinute float64, noteType int) (Tempo, error) {
	if !validRate(notesPerMinute) || !validRate(endNotesPerMinute) {
		return Tempo{}, fmt.Errorf("%w: %v -> %v", ErrInvalidTempo, notesPerMinute, endNotesPerMinute)
	}
	if !validNoteValue(noteType) {
		return Tempo{}, fmt.Errorf("%w: %d", ErrInvalidNoteType, noteType)
	}

	return Tempo{
		notesPerMinute:           notesPerMinute,
		endNotesPerMinute:        endNotesPerMinute,
		noteType:                 noteType,
		superclocksPerQuarter:    superclocksPerQuarter(notesPerMinute, noteType),
		endSuperclocksPerQuarter: superclocksPerQuarter(endNotesPerMinute, noteType),
	}, nil
}

func validRate(npm float64) bool {
	return !math.IsNaN(npm) && npm >= MinNotesPerMinute && npm <= MaxNotesPerMinute
}

func validNoteValue(v int) bool {
	return v >= 1 && v <= timebase.MaxNoteValue && v&(v-1) == 0
}

func superclocksPerQuarter(npm float64, noteType int) int64 {
	quartersPerMinute := npm * 4 / float64(noteType)
	return int64(math.Round(float64(timebase.SuperclockTicksPerSecond) * 60 / quartersPerMinute))
}

// NotesPerMinute is the rate at the start of the tempo.
func (t Tempo) NotesPerMinute() float64 { return t.notesPerMinute }

// EndNotesPerMinute is the rate a ramp arrives at. It equals NotesPerMinute for a constant tempo.
func (t Tempo) EndNotesPerMinute() float64 { return t.endNotesPerMinute }

// NoteType is the note value counted by the rate (4 is a quarter note).
func (t Tempo) NoteType() int { return t.noteType }

// Ramped reports whether the tempo changes over its segment.
func (t Tempo) Ramped() bool { return t.notesPerMinute != t.endNotesPerMinute }

func (t Tempo) QuarterNotesPerMinute() float64 {
	return t.notesPerMinute * 4 / float64(t.noteType)
}

func (t Tempo) EndQuarterNotesPerMinute() float64 {
	return t.endNotesPerMinute * 4 / float64(t.noteType)
}

// SuperclocksPerQuarter is the exact integer length of a quarter note at the start rate.
func (t Tempo) SuperclocksPerQuarter() int64 { return t.superclocksPerQuarter }

func (t Tempo) EndSuperclocksPerQuarter() int64 { return t.endSuperclocksPerQuarter }

func (t Tempo) valid() bool {
	return t.superclocksPerQuarter > 0 && t.endSuperclocksPerQuarter > 0 && validNoteValue(t.noteType)
}

// quartersPerSuperclock returns the start and end rates in the units the ramp math uses.
func (t Tempo) quartersPerSuperclock() (float64, float64) {
	return 1 / float64(t.superclocksPerQuarter), 1 / float64(t.endSuperclocksPerQuarter)
}

// withNotesPerMinute returns a constant tempo of the same note type.
func (t Tempo) withNotesPerMinute(npm float64) Tempo {
	return Tempo{
		notesPerMinute:           npm,
		endNotesPerMinute:        npm,
		noteType:                 t.noteType,
		superclocksPerQuarter:    superclocksPerQuarter(npm, t.noteType),
		endSuperclocksPerQuarter: superclocksPerQuarter(npm, t.noteType),
	}
}

// constant drops the ramp, keeping the start rate.
func (t Tempo) constant() Tempo {
	t.endNotesPerMinute = t.notesPerMinute
	t.endSuperclocksPerQuarter = t.superclocksPerQuarter
	return t
}

func (t Tempo) String() string {
	if t.Ramped() {
		return fmt.Sprintf("%.2f>%.2f bpm (1/%d)", t.notesPerMinute, t.endNotesPerMinute, t.noteType)
	}
	return fmt.Sprintf("%.2f bpm (1/%d)", t.notesPerMinute, t.noteType)
}
