package rhythm

import (
	"fmt"
	"io"

	"github.com/robmorgan/timeline/timebase"
)

// CutTempo is a tempo marker held by a cut buffer, positioned relative to the start of the cut.
type CutTempo struct {
	Offset timebase.Beats
	Tempo  Tempo
}

// CutMeter is a meter marker held by a cut buffer.
type CutMeter struct {
	Offset timebase.Beats
	Meter  Meter
}

// CutBuffer is a detached range of markers produced by Copy or Cut. It
// holds values only, so it stays valid after the map it came from is gone.
type CutBuffer struct {
	tempos   []CutTempo
	meters   []CutMeter
	duration timebase.Beats

	position    timebase.Beats
	hasPosition bool

	startTempo Tempo
	startMeter Meter
}

// Duration is the length of the range that was cut.
func (cb *CutBuffer) Duration() timebase.Beats { return cb.duration }

// Position returns the absolute start of the cut when it was recorded.
func (cb *CutBuffer) Position() (timebase.Beats, bool) { return cb.position, cb.hasPosition }

// Empty reports whether the range held no markers.
func (cb *CutBuffer) Empty() bool { return len(cb.tempos) == 0 && len(cb.meters) == 0 }

// Tempos returns the tempo markers in offset order.
func (cb *CutBuffer) Tempos() []CutTempo { return append([]CutTempo(nil), cb.tempos...) }

// Meters returns the meter markers in offset order.
func (cb *CutBuffer) Meters() []CutMeter { return append([]CutMeter(nil), cb.meters...) }

// StartTempo is the tempo that was in effect at the start of the range.
func (cb *CutBuffer) StartTempo() Tempo { return cb.startTempo }

// StartMeter is the meter that was in effect at the start of the range.
func (cb *CutBuffer) StartMeter() Meter { return cb.startMeter }

// Dump writes a human readable listing of the buffer.
func (cb *CutBuffer) Dump(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "cut buffer: duration %v", cb.duration); err != nil {
		return err
	}
	if cb.hasPosition {
		if _, err := fmt.Fprintf(w, " from %v", cb.position); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, ", starts in %v at %v\n", cb.startMeter, cb.startTempo); err != nil {
		return err
	}
	for _, ct := range cb.tempos {
		if _, err := fmt.Fprintf(w, "  tempo +%v %v\n", ct.Offset, ct.Tempo); err != nil {
			return err
		}
	}
	for _, cm := range cb.meters {
		if _, err := fmt.Fprintf(w, "  meter +%v %v\n", cm.Offset, cm.Meter); err != nil {
			return err
		}
	}
	return nil
}
