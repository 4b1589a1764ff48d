package systems

import (
	"math"

	"github.com/pthm-cable/efield/components"
)

// Fast math for the field hot path. Everything stays in float32 so the inner
// loop never round-trips through float64.

// invSqrtMagic is the classic Quake III seed constant.
const invSqrtMagic = 0x5F3759DF

// FastInvSqrt approximates 1/sqrt(x) for x > 0 with one Newton-Raphson step.
// Relative error stays under 0.2%. FastInvSqrt(0) returns +Inf and negative
// or NaN input returns NaN; the field evaluator never passes either.
//
// This is the only place in the module that reinterprets float bits.
func FastInvSqrt(x float32) float32 {
	if !(x > 0) {
		if x == 0 {
			return float32(math.Inf(1))
		}
		return float32(math.NaN())
	}
	i := math.Float32bits(x)
	i = invSqrtMagic - (i >> 1)
	y := math.Float32frombits(i)
	return y * (1.5 - 0.5*x*y*y)
}

// FastNorm returns the approximate Euclidean length of v as r²·(1/sqrt(r²)).
// The zero vector has length 0.
func FastNorm(v components.Vec3) float32 {
	r2 := v.LenSq()
	if r2 == 0 {
		return 0
	}
	return r2 * FastInvSqrt(r2)
}

// clampFloat clamps a float32 value between min and max.
func clampFloat(v, minVal, maxVal float32) float32 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

func isFinite32(v float32) bool {
	return !math.IsNaN(float64(v)) && !math.IsInf(float64(v), 0)
}
