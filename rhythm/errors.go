package rhythm

import (
	"errors"

	"github.com/robmorgan/timeline/timebase"
)

var (
	ErrInvalidTempo    = errors.New("tempo must be a positive, finite rate")
	ErrInvalidNoteType = errors.New("note type must be a power of two between 1 and 128")
	ErrInvalidMeter    = errors.New("invalid meter")
	ErrInvalidBBT      = errors.New("invalid bbt position")
	ErrMeterNotOnBar   = errors.New("meter changes must start on a bar line")

	ErrCannotRemoveInitial = errors.New("the initial tempo and meter cannot be removed or moved")
	ErrMarkerNotFound      = errors.New("no marker at that position")
	ErrDuplicateAnchor     = errors.New("two markers share an anchor")
	ErrMissingInitial      = errors.New("a tempo map needs a tempo and a meter at 1|1|0")

	ErrNotWritable      = errors.New("working copy has already been committed or aborted")
	ErrStaleWorkingCopy = errors.New("the tempo map changed since this working copy was taken")
	ErrNoPosition       = errors.New("cut buffer has no recorded position")

	// ErrNonConvergent is a fatal numeric failure while inverting a tempo ramp.
	ErrNonConvergent = errors.New("tempo ramp inversion did not converge")

	ErrInvalidRange = timebase.ErrInvalidRange
	ErrOverflow     = timebase.ErrOverflow
)

// isFatal reports errors that mean the map's numeric invariants broke, as
// opposed to a rejected edit.
func isFatal(err error) bool {
	return errors.Is(err, ErrNonConvergent) || errors.Is(err, ErrOverflow)
}
