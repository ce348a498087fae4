package graphics

import "fmt"

// Shape kinds understood by BuildPath.
const (
	KindRect     = "rect"
	KindCircle   = "circle"
	KindEllipse  = "ellipse"
	KindLine     = "line"
	KindPolygon  = "polygon"
	KindPolyline = "polyline"
)

// kappa places cubic control points for a quarter-circle arc.
const kappa = 0.5522847498

// BuildPath builds the outline of a shape from its geometry properties.
//
//	rect:     x, y, width, height
//	circle:   cx, cy, r
//	ellipse:  cx, cy, rx, ry
//	line:     x1, y1, x2, y2
//	polygon:  points (flat [x0 y0 x1 y1 ...])
//	polyline: points
func BuildPath(kind string, shape map[string]any) (*Path, error) {
	num := func(key string) float64 {
		v, _ := Float(shape[key])
		return v
	}
	p := &Path{}
	switch kind {
	case KindRect:
		x, y, w, h := num("x"), num("y"), num("width"), num("height")
		p.MoveTo(x, y)
		p.LineTo(x+w, y)
		p.LineTo(x+w, y+h)
		p.LineTo(x, y+h)
		p.Close()
	case KindCircle:
		r := num("r")
		ellipse(p, num("cx"), num("cy"), r, r)
	case KindEllipse:
		ellipse(p, num("cx"), num("cy"), num("rx"), num("ry"))
	case KindLine:
		p.MoveTo(num("x1"), num("y1"))
		p.LineTo(num("x2"), num("y2"))
	case KindPolygon, KindPolyline:
		pts, ok := Floats(shape["points"])
		if !ok || len(pts) < 4 || len(pts)%2 != 0 {
			return nil, fmt.Errorf("%s: points must hold at least two x,y pairs", kind)
		}
		p.MoveTo(pts[0], pts[1])
		for i := 2; i < len(pts); i += 2 {
			p.LineTo(pts[i], pts[i+1])
		}
		if kind == KindPolygon {
			p.Close()
		}
	default:
		return nil, fmt.Errorf("unknown shape kind %q", kind)
	}
	return p, nil
}

func ellipse(p *Path, cx, cy, rx, ry float64) {
	ox, oy := rx*kappa, ry*kappa
	p.MoveTo(cx+rx, cy)
	p.CubicTo(cx+rx, cy+oy, cx+ox, cy+ry, cx, cy+ry)
	p.CubicTo(cx-ox, cy+ry, cx-rx, cy+oy, cx-rx, cy)
	p.CubicTo(cx-rx, cy-oy, cx-ox, cy-ry, cx, cy-ry)
	p.CubicTo(cx+ox, cy-ry, cx+rx, cy-oy, cx+rx, cy)
	p.Close()
}

// Float converts a numeric property value to float64.
func Float(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// Floats converts a numeric list property value to []float64.
func Floats(v any) ([]float64, bool) {
	switch list := v.(type) {
	case []float64:
		return list, true
	case []int:
		out := make([]float64, len(list))
		for i, n := range list {
			out[i] = float64(n)
		}
		return out, true
	case []any:
		out := make([]float64, len(list))
		for i, item := range list {
			f, ok := Float(item)
			if !ok {
				return nil, false
			}
			out[i] = f
		}
		return out, true
	}
	return nil, false
}
