package timebase

import "errors"

var (
	// ErrInvalidRange is returned when a conversion would produce, or was handed, a negative time.
	ErrInvalidRange = errors.New("time value out of range")

	// ErrOverflow is returned when a result does not fit the representable range. Callers treat it as fatal.
	ErrOverflow = errors.New("time arithmetic overflow")

	// ErrInvalidRate is returned for a zero or negative sample rate or divisor.
	ErrInvalidRate = errors.New("invalid rate")
)
