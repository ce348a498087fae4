package animation

import (
	"math"
	"strings"
)

// Curve transforms linear progress t in [0, 1] into eased progress.
//
// Standard curves: [LinearCurve], [Ease], [EaseIn], [EaseOut], [EaseInOut].
// Use [CubicBezier] to create custom curves matching CSS cubic-bezier().
type Curve func(t float64) float64

// LinearCurve returns linear progress (no easing).
func LinearCurve(t float64) float64 {
	return t
}

// Ease is a standard cubic bezier curve for general-purpose easing.
// Equivalent to CSS ease.
var Ease = CubicBezier(0.25, 0.1, 0.25, 1.0)

// EaseIn starts slowly and accelerates. Equivalent to CSS ease-in.
var EaseIn = CubicBezier(0.4, 0.0, 1.0, 1.0)

// EaseOut starts quickly and decelerates. Equivalent to CSS ease-out.
var EaseOut = CubicBezier(0.0, 0.0, 0.2, 1.0)

// EaseInOut starts and ends slowly. Equivalent to CSS ease-in-out.
var EaseInOut = CubicBezier(0.4, 0.0, 0.2, 1.0)

// CurveByName returns the named curve ("linear", "ease", "easeIn",
// "easeOut", "easeInOut"), case-insensitively.
func CurveByName(name string) (Curve, bool) {
	switch strings.ToLower(name) {
	case "", "linear":
		return LinearCurve, true
	case "ease":
		return Ease, true
	case "easein", "ease-in":
		return EaseIn, true
	case "easeout", "ease-out":
		return EaseOut, true
	case "easeinout", "ease-in-out":
		return EaseInOut, true
	}
	return nil, false
}

// CubicBezier returns a cubic-bezier easing function matching CSS cubic-bezier().
// The parameters define the two control points (x1,y1) and (x2,y2) of the curve.
func CubicBezier(x1, y1, x2, y2 float64) Curve {
	return func(t float64) float64 {
		if t <= 0 {
			return 0
		}
		if t >= 1 {
			return 1
		}
		return sampleCurve(y1, y2, solveCurveX(x1, x2, t))
	}
}

// solveCurveX finds the curve parameter whose x coordinate is t.
func solveCurveX(x1, x2, t float64) float64 {
	u := t
	// Newton-Raphson converges quickly for most values.
	for range 8 {
		x := sampleCurve(x1, x2, u) - t
		if math.Abs(x) < 1e-7 {
			return clampUnit(u)
		}
		dx := sampleCurveDerivative(x1, x2, u)
		if math.Abs(dx) < 1e-7 {
			break
		}
		u -= x / dx
	}

	// Bisection keeps the solution stable in [0,1].
	lo, hi := 0.0, 1.0
	u = clampUnit(u)
	for range 12 {
		x := sampleCurve(x1, x2, u) - t
		if math.Abs(x) < 1e-7 {
			break
		}
		if x > 0 {
			hi = u
		} else {
			lo = u
		}
		u = (lo + hi) * 0.5
	}
	return u
}

func sampleCurve(a, b, t float64) float64 {
	inv := 1 - t
	return 3*inv*inv*t*a + 3*inv*t*t*b + t*t*t
}

func sampleCurveDerivative(a, b, t float64) float64 {
	inv := 1 - t
	return 3*inv*inv*a + 6*inv*t*(b-a) + 3*t*t*(1-b)
}

func clampUnit(value float64) float64 {
	return math.Max(0, math.Min(1, value))
}
