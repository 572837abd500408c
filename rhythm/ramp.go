package rhythm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats/scalar"
)

// A ramped segment changes tempo linearly in time: with T0 the start rate in
// quarters per superclock and omega the slope, the position t superclocks
// into the segment is q(t) = T0*t + omega*t*t/2.

const (
	// RampInversionTolerance is the absolute and relative error, in quarter
	// notes, accepted when solving q(t) for t.
	RampInversionTolerance = 1e-9

	// RampInversionMaxIterations bounds the Newton refinement.
	RampInversionMaxIterations = 8
)

// rampOmega returns the slope that takes t0 to t1 over dq quarter notes.
func rampOmega(t0, t1, dq float64) float64 {
	if dq <= 0 || t0 == t1 {
		return 0
	}
	return (t1 - t0) / rampDuration(t0, t1, dq)
}

// rampDuration is the length in superclocks of a ramp from t0 to t1 covering dq quarters.
func rampDuration(t0, t1, dq float64) float64 {
	return 2 * dq / (t0 + t1)
}

func rampQuarters(t0, omega, t float64) float64 {
	return t0*t + omega*t*t/2
}

// rampRateAtQuarters is the instantaneous rate after dq quarters.
func rampRateAtQuarters(t0, omega, dq float64) float64 {
	return math.Sqrt(t0*t0 + 2*omega*dq)
}

// rampSuperclocks solves q(t) = q. The closed form avoids cancellation for
// small omega; Newton steps absorb its rounding.
func rampSuperclocks(t0, omega, q float64) (float64, error) {
	if q == 0 {
		return 0, nil
	}
	disc := t0*t0 + 2*omega*q
	if disc < 0 {
		return 0, fmt.Errorf("%w: %g quarters past the end of a decelerating ramp", ErrNonConvergent, q)
	}

	t := 2 * q / (t0 + math.Sqrt(disc))
	for i := 0; i < RampInversionMaxIterations; i++ {
		got := rampQuarters(t0, omega, t)
		if scalar.EqualWithinAbsOrRel(got, q, RampInversionTolerance, RampInversionTolerance) {
			return t, nil
		}
		rate := t0 + omega*t
		if rate <= 0 {
			break
		}
		t -= (got - q) / rate
	}
	return 0, fmt.Errorf("%w: %g quarters", ErrNonConvergent, q)
}
