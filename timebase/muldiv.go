package timebase

import (
	"math"
	"math/bits"
)

// MulDiv returns a*b/c rounded half away from zero. The product is held in
// 128 bits so the only error is the final rounding.
func MulDiv(a, b, c int64) (int64, error) {
	if c == 0 {
		return 0, ErrInvalidRate
	}
	if a == 0 || b == 0 {
		return 0, nil
	}

	negative := (a < 0) != (b < 0) != (c < 0)
	hi, lo := bits.Mul64(magnitude(a), magnitude(b))
	uc := magnitude(c)
	if hi >= uc {
		return 0, ErrOverflow
	}

	q, r := bits.Div64(hi, lo, uc)
	if r >= uc-r {
		q++
	}

	if negative {
		if q > uint64(math.MaxInt64)+1 {
			return 0, ErrOverflow
		}
		return int64(-q), nil
	}
	if q > math.MaxInt64 {
		return 0, ErrOverflow
	}
	return int64(q), nil
}

func magnitude(v int64) uint64 {
	if v < 0 {
		return uint64(^v) + 1
	}
	return uint64(v)
}

func addChecked(a, b int64) (int64, error) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, ErrOverflow
	}
	return sum, nil
}
