package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"

	"github.com/go-drift/stage/pkg/graphics"
	"github.com/go-drift/stage/pkg/scene"
)

// Style keys read when painting an element.
const (
	StyleFill      = "fill"
	StyleStroke    = "stroke"
	StyleLineWidth = "lineWidth"
	StyleOpacity   = "opacity"
)

// paint holds an element's resolved paint attributes.
type paint struct {
	fill      color.RGBA
	hasFill   bool
	stroke    color.RGBA
	hasStroke bool
	lineWidth float64
}

func paintOf(el *scene.Element) paint {
	opacity := 1.0
	if v, ok := graphics.Float(el.Style[StyleOpacity]); ok {
		opacity = math.Max(0, math.Min(1, v))
	}
	var p paint
	p.fill, p.hasFill = graphics.ParseColor(el.Style[StyleFill])
	p.stroke, p.hasStroke = graphics.ParseColor(el.Style[StyleStroke])
	p.hasFill = p.hasFill && p.fill.A > 0
	p.hasStroke = p.hasStroke && p.stroke.A > 0
	p.lineWidth = 1
	if v, ok := graphics.Float(el.Style[StyleLineWidth]); ok {
		p.lineWidth = v
	}
	p.fill = fade(p.fill, opacity)
	p.stroke = fade(p.stroke, opacity)
	return p
}

func fade(c color.RGBA, alpha float64) color.RGBA {
	if alpha >= 1 {
		return c
	}
	return color.RGBA{
		R: uint8(float64(c.R) * alpha),
		G: uint8(float64(c.G) * alpha),
		B: uint8(float64(c.B) * alpha),
		A: uint8(float64(c.A) * alpha),
	}
}

// rasterizer fills paths into an RGBA buffer.
type rasterizer struct {
	z vector.Rasterizer
}

// drawElement paints el into dst, mapping its global outline through
// extra first. It reports whether anything was painted.
func (r *rasterizer) drawElement(dst *image.RGBA, el *scene.Element, extra graphics.Matrix) bool {
	path, err := el.GlobalPath()
	if err != nil || path.IsEmpty() {
		return false
	}
	if extra != graphics.Identity {
		path = path.Transform(extra)
	}
	p := paintOf(el)
	painted := false
	if p.hasFill {
		r.fill(dst, path.Polygons(), p.fill)
		painted = true
	}
	if p.hasStroke && p.lineWidth > 0 {
		r.fill(dst, strokePolygons(path, p.lineWidth), p.stroke)
		painted = true
	}
	return painted
}

func (r *rasterizer) fill(dst *image.RGBA, polys [][]graphics.Offset, c color.RGBA) {
	if len(polys) == 0 {
		return
	}
	b := dst.Bounds()
	r.z.Reset(b.Dx(), b.Dy())
	r.z.DrawOp = draw.Over
	for _, poly := range polys {
		r.z.MoveTo(float32(poly[0].X-float64(b.Min.X)), float32(poly[0].Y-float64(b.Min.Y)))
		for _, pt := range poly[1:] {
			r.z.LineTo(float32(pt.X-float64(b.Min.X)), float32(pt.Y-float64(b.Min.Y)))
		}
		r.z.ClosePath()
	}
	r.z.Draw(dst, b, image.NewUniform(c), image.Point{})
}

// strokePolygons outlines every segment of path as a quad of the given
// width. Joins are left open, which is invisible at the widths scenes use.
func strokePolygons(path *graphics.Path, width float64) [][]graphics.Offset {
	half := width / 2
	var quads [][]graphics.Offset
	segment := func(a, b graphics.Offset) {
		dx, dy := b.X-a.X, b.Y-a.Y
		l := math.Hypot(dx, dy)
		if l == 0 {
			return
		}
		nx, ny := -dy/l*half, dx/l*half
		quads = append(quads, []graphics.Offset{
			{X: a.X + nx, Y: a.Y + ny},
			{X: b.X + nx, Y: b.Y + ny},
			{X: b.X - nx, Y: b.Y - ny},
			{X: a.X - nx, Y: a.Y - ny},
		})
	}
	closed := false
	for _, cmd := range path.Commands {
		if cmd.Op == graphics.PathOpClose {
			closed = true
		}
	}
	for _, poly := range path.Polygons() {
		for i := 1; i < len(poly); i++ {
			segment(poly[i-1], poly[i])
		}
		if closed && len(poly) > 2 {
			segment(poly[len(poly)-1], poly[0])
		}
	}
	return quads
}

// fillImage paints the whole of dst with c, replacing its contents.
func fillImage(dst *image.RGBA, c color.RGBA) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

// fadeImage scales every pixel of img by alpha, keeping premultiplication.
func fadeImage(img *image.RGBA, alpha float64) {
	for i := range img.Pix {
		img.Pix[i] = uint8(float64(img.Pix[i]) * alpha)
	}
}

// elementBounds returns the integer bounds of el's global outline.
func elementBounds(el *scene.Element) (image.Rectangle, error) {
	path, err := el.GlobalPath()
	if err != nil {
		return image.Rectangle{}, err
	}
	b := path.Bounds()
	if lw, ok := graphics.Float(el.Style[StyleLineWidth]); ok && el.Style[StyleStroke] != nil {
		b.Left -= lw / 2
		b.Top -= lw / 2
		b.Right += lw / 2
		b.Bottom += lw / 2
	}
	return image.Rect(
		int(math.Floor(b.Left)), int(math.Floor(b.Top)),
		int(math.Ceil(b.Right)), int(math.Ceil(b.Bottom)),
	), nil
}
