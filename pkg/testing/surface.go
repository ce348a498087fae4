package testing

import (
	"image"
	"image/draw"

	"github.com/go-drift/stage/pkg/render"
)

// Canvas is an in-memory pixel surface. Sessions bound to it probe to the
// raster backend.
type Canvas struct {
	img    *image.RGBA
	cursor string
}

var _ render.Canvas = (*Canvas)(nil)

// NewCanvas creates a transparent w x h canvas.
func NewCanvas(w, h int) *Canvas {
	return &Canvas{img: image.NewRGBA(image.Rect(0, 0, w, h))}
}

// Size implements render.Surface.
func (c *Canvas) Size() (int, int) {
	b := c.img.Bounds()
	return b.Dx(), b.Dy()
}

// Image implements render.Canvas.
func (c *Canvas) Image() draw.Image { return c.img }

// RGBA returns the pixel buffer.
func (c *Canvas) RGBA() *image.RGBA { return c.img }

// SetSize replaces the buffer with a blank one of the new size. Call
// Session.Resize afterwards.
func (c *Canvas) SetSize(w, h int) {
	c.img = image.NewRGBA(image.Rect(0, 0, w, h))
}

// SetCursor records the cursor requested by the session.
func (c *Canvas) SetCursor(style string) { c.cursor = style }

// Cursor returns the last cursor requested.
func (c *Canvas) Cursor() string { return c.cursor }

// MarkupSurface is a surface without pixels. Sessions bound to it probe to
// the vector backend, which pushes every frame's SVG here.
type MarkupSurface struct {
	Width, Height int
	Markup        string
	Frames        int
}

var _ render.MarkupSink = (*MarkupSurface)(nil)

// Size implements render.Surface.
func (s *MarkupSurface) Size() (int, int) { return s.Width, s.Height }

// SetMarkup implements render.MarkupSink.
func (s *MarkupSurface) SetMarkup(svg string) {
	s.Markup = svg
	s.Frames++
}
