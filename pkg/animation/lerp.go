package animation

import (
	"slices"

	"github.com/go-drift/stage/pkg/graphics"
)

// LerpFloat64 linearly interpolates between two float64 values.
func LerpFloat64(a, b float64, t float64) float64 {
	return a + (b-a)*t
}

// Lerp interpolates between two property values.
//
// Numbers interpolate linearly, numeric lists element-wise (when their
// lengths match) and colours (color.Color or colour strings) in RGB space.
// Colour strings are written back as strings. Anything else is discrete:
// a is held until t reaches 1.
func Lerp(a, b any, t float64) any {
	if fa, ok := graphics.Float(a); ok {
		if fb, ok := graphics.Float(b); ok {
			return LerpFloat64(fa, fb, t)
		}
	}
	if la, ok := graphics.Floats(a); ok {
		if lb, ok := graphics.Floats(b); ok && len(la) == len(lb) {
			out := make([]float64, len(la))
			for i := range la {
				out[i] = LerpFloat64(la[i], lb[i], t)
			}
			return out
		}
	}
	if ca, ok := graphics.ParseColor(a); ok {
		if cb, ok := graphics.ParseColor(b); ok {
			c := graphics.LerpColor(ca, cb, t)
			if _, isString := b.(string); isString {
				return graphics.ColorString(c)
			}
			return c
		}
	}
	if t >= 1 {
		return b
	}
	return a
}

// snapshot copies a value so later in-place edits of the target cannot
// change a recorded keyframe.
func snapshot(v any) any {
	if list, ok := v.([]float64); ok {
		return slices.Clone(list)
	}
	return v
}
