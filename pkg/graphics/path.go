package graphics

import (
	"fmt"
	"math"
)

// PathOp represents a path drawing operation type.
type PathOp int

const (
	PathOpMoveTo  PathOp = iota // Start new subpath at point (x, y)
	PathOpLineTo                // Draw line to point (x, y)
	PathOpCubicTo               // Draw cubic curve to (x3, y3) via controls (x1, y1), (x2, y2)
	PathOpClose                 // Close subpath with line to start point
)

// String returns a human-readable representation of the path operation.
func (o PathOp) String() string {
	switch o {
	case PathOpMoveTo:
		return "move_to"
	case PathOpLineTo:
		return "line_to"
	case PathOpCubicTo:
		return "cubic_to"
	case PathOpClose:
		return "close"
	default:
		return fmt.Sprintf("PathOp(%d)", int(o))
	}
}

// PathCommand represents a single path operation with its coordinate arguments.
type PathCommand struct {
	Op  PathOp
	Pts []Offset // MoveTo/LineTo=[p], CubicTo=[c1, c2, p]
}

// Path is a vector outline built from move, line, cubic and close commands.
type Path struct {
	Commands []PathCommand
}

// MoveTo starts a new subpath at the given point.
func (p *Path) MoveTo(x, y float64) {
	p.Commands = append(p.Commands, PathCommand{Op: PathOpMoveTo, Pts: []Offset{{x, y}}})
}

// LineTo adds a line segment from the current point to (x, y).
func (p *Path) LineTo(x, y float64) {
	p.Commands = append(p.Commands, PathCommand{Op: PathOpLineTo, Pts: []Offset{{x, y}}})
}

// CubicTo adds a cubic bezier curve from the current point to (x3, y3)
// with control points (x1, y1) and (x2, y2).
func (p *Path) CubicTo(x1, y1, x2, y2, x3, y3 float64) {
	p.Commands = append(p.Commands, PathCommand{Op: PathOpCubicTo, Pts: []Offset{{x1, y1}, {x2, y2}, {x3, y3}}})
}

// Close closes the current subpath by drawing a line to the starting point.
func (p *Path) Close() {
	p.Commands = append(p.Commands, PathCommand{Op: PathOpClose})
}

// IsEmpty returns true if the path has no commands.
func (p *Path) IsEmpty() bool {
	return p == nil || len(p.Commands) == 0
}

// Transform returns a copy of p with every point mapped through m.
func (p *Path) Transform(m Matrix) *Path {
	out := &Path{Commands: make([]PathCommand, len(p.Commands))}
	for i, cmd := range p.Commands {
		pts := make([]Offset, len(cmd.Pts))
		for j, pt := range cmd.Pts {
			pts[j] = m.Apply(pt)
		}
		out.Commands[i] = PathCommand{Op: cmd.Op, Pts: pts}
	}
	return out
}

// curveSteps is the number of line segments a cubic is flattened into.
const curveSteps = 16

// Polygons flattens the path into closed polygons, one per subpath.
func (p *Path) Polygons() [][]Offset {
	var polys [][]Offset
	var cur []Offset
	flush := func() {
		if len(cur) > 1 {
			polys = append(polys, cur)
		}
		cur = nil
	}
	for _, cmd := range p.Commands {
		switch cmd.Op {
		case PathOpMoveTo:
			flush()
			cur = []Offset{cmd.Pts[0]}
		case PathOpLineTo:
			cur = append(cur, cmd.Pts[0])
		case PathOpCubicTo:
			if len(cur) == 0 {
				cur = []Offset{cmd.Pts[0]}
			}
			p0 := cur[len(cur)-1]
			for i := 1; i <= curveSteps; i++ {
				cur = append(cur, cubicPoint(p0, cmd.Pts[0], cmd.Pts[1], cmd.Pts[2], float64(i)/curveSteps))
			}
		case PathOpClose:
			flush()
		}
	}
	flush()
	return polys
}

func cubicPoint(p0, p1, p2, p3 Offset, t float64) Offset {
	u := 1 - t
	a, b, c, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
	return Offset{
		X: a*p0.X + b*p1.X + c*p2.X + d*p3.X,
		Y: a*p0.Y + b*p1.Y + c*p2.Y + d*p3.Y,
	}
}

// Bounds returns the bounding rectangle of the flattened path.
func (p *Path) Bounds() Rect {
	r := Rect{Left: math.Inf(1), Top: math.Inf(1), Right: math.Inf(-1), Bottom: math.Inf(-1)}
	n := 0
	for _, poly := range p.Polygons() {
		for _, pt := range poly {
			r.Left = math.Min(r.Left, pt.X)
			r.Top = math.Min(r.Top, pt.Y)
			r.Right = math.Max(r.Right, pt.X)
			r.Bottom = math.Max(r.Bottom, pt.Y)
			n++
		}
	}
	if n == 0 {
		return Rect{}
	}
	return r
}

// Contains reports whether pt is inside the filled path using the
// even-odd rule.
func (p *Path) Contains(pt Offset) bool {
	inside := false
	for _, poly := range p.Polygons() {
		j := len(poly) - 1
		for i := range poly {
			a, b := poly[i], poly[j]
			if (a.Y > pt.Y) != (b.Y > pt.Y) &&
				pt.X < (b.X-a.X)*(pt.Y-a.Y)/(b.Y-a.Y)+a.X {
				inside = !inside
			}
			j = i
		}
	}
	return inside
}
