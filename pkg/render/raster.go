package render

import (
	"fmt"
	"image"
	"image/draw"
	"maps"
	"slices"

	"github.com/go-drift/stage/pkg/errors"
	"github.com/go-drift/stage/pkg/graphics"
	"github.com/go-drift/stage/pkg/scene"
)

func init() {
	Register(BackendRaster, NewRaster)
}

type rasterLayer struct {
	cfg LayerConfig
	img *image.RGBA
}

// Raster paints into the pixel buffer of a Canvas. Each zlevel gets its
// own offscreen layer; layers and the hover layer are composited onto the
// canvas in zlevel order after every refresh.
type Raster struct {
	canvas Canvas
	store  *scene.Store
	width  int
	height int

	layers map[int]*rasterLayer
	hover  *image.RGBA
	r      rasterizer
}

// NewRaster is the Factory of the "raster" backend.
func NewRaster(surface Surface, store *scene.Store) (Painter, error) {
	canvas, ok := surface.(Canvas)
	if !ok {
		return nil, fmt.Errorf("%w: surface %T has no pixel buffer", errors.ErrBackendUnavailable, surface)
	}
	if canvas.Image() == nil {
		return nil, fmt.Errorf("%w: canvas has no image", errors.ErrBackendUnavailable)
	}
	p := &Raster{canvas: canvas, store: store, layers: make(map[int]*rasterLayer)}
	p.width, p.height = canvas.Size()
	p.hover = image.NewRGBA(image.Rect(0, 0, p.width, p.height))
	return p, nil
}

func (p *Raster) Type() string { return BackendRaster }

func (p *Raster) Width() int { return p.width }

func (p *Raster) Height() int { return p.height }

func (p *Raster) Root() any { return p.canvas }

func (p *Raster) layer(zlevel int) *rasterLayer {
	l, ok := p.layers[zlevel]
	if !ok {
		l = &rasterLayer{}
		p.layers[zlevel] = l
	}
	if l.img == nil || l.img.Bounds().Dx() != p.width || l.img.Bounds().Dy() != p.height {
		l.img = image.NewRGBA(image.Rect(0, 0, p.width, p.height))
	}
	return l
}

// ConfigureLayer sets cfg for zlevel. It takes effect on the next refresh.
func (p *Raster) ConfigureLayer(zlevel int, cfg LayerConfig) {
	p.layer(zlevel).cfg = cfg
}

// Layer returns the offscreen buffer of zlevel, nil when the level has
// never been used.
func (p *Raster) Layer(zlevel int) *image.RGBA {
	if l, ok := p.layers[zlevel]; ok {
		return l.img
	}
	return nil
}

// Refresh redraws every layer from the store.
func (p *Raster) Refresh() {
	if p.store == nil {
		return
	}
	byLevel := make(map[int][]*scene.Element)
	for _, el := range p.store.Drawables() {
		byLevel[el.ZLevel] = append(byLevel[el.ZLevel], el)
	}
	for zlevel := range byLevel {
		p.layer(zlevel)
	}
	for zlevel, l := range p.layers {
		p.clearLayer(l)
		for _, el := range byLevel[zlevel] {
			p.r.drawElement(l.img, el, graphics.Identity)
		}
	}
	p.store.Walk(func(el *scene.Element) bool {
		el.ClearDirty()
		return true
	})
	p.paintHover()
	p.composite()
}

// RefreshHover redraws the hover layer and recomposites.
func (p *Raster) RefreshHover() {
	if p.store == nil {
		return
	}
	p.paintHover()
	p.composite()
}

// Resize reallocates the layers at the canvas's current size and redraws.
func (p *Raster) Resize() {
	w, h := p.canvas.Size()
	if w == p.width && h == p.height {
		return
	}
	p.width, p.height = w, h
	for _, l := range p.layers {
		l.img = nil
	}
	p.hover = image.NewRGBA(image.Rect(0, 0, w, h))
	for zlevel := range p.layers {
		p.layer(zlevel)
	}
	p.Refresh()
}

func (p *Raster) clearLayer(l *rasterLayer) {
	if l.cfg.MotionBlur {
		fadeImage(l.img, l.cfg.lastFrameAlpha())
		return
	}
	c, _ := graphics.ParseColor(l.cfg.ClearColor)
	fillImage(l.img, c)
}

func (p *Raster) paintHover() {
	fillImage(p.hover, graphics.Transparent)
	for _, el := range p.store.Hovers() {
		if !el.Invisible {
			p.r.drawElement(p.hover, el, graphics.Identity)
		}
	}
}

// compose draws every layer and then the hover layer over dst.
func (p *Raster) compose(dst draw.Image) {
	for _, zlevel := range slices.Sorted(maps.Keys(p.layers)) {
		l := p.layers[zlevel]
		draw.Draw(dst, dst.Bounds(), l.img, image.Point{}, draw.Over)
	}
	draw.Draw(dst, dst.Bounds(), p.hover, image.Point{}, draw.Over)
}

func (p *Raster) composite() {
	dst := p.canvas.Image()
	draw.Draw(dst, dst.Bounds(), image.Transparent, image.Point{}, draw.Src)
	p.compose(dst)
}

// Snapshot returns a copy of the current frame over bg.
func (p *Raster) Snapshot(bg string) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, p.width, p.height))
	if c, ok := graphics.ParseColor(bg); ok {
		fillImage(img, c)
	}
	p.compose(img)
	return img
}

func (p *Raster) ToDataURL(format, bg string) (string, error) {
	return encodeDataURL(p.Snapshot(bg), format)
}

func (p *Raster) PathToImage(el *scene.Element, w, h int) (image.Image, error) {
	return pathToImage(&p.r, el, w, h)
}

// Clear erases every layer and the canvas.
func (p *Raster) Clear() {
	for _, l := range p.layers {
		if l.img != nil {
			fillImage(l.img, graphics.Transparent)
		}
	}
	if p.hover != nil {
		fillImage(p.hover, graphics.Transparent)
	}
	if p.canvas != nil {
		dst := p.canvas.Image()
		draw.Draw(dst, dst.Bounds(), image.Transparent, image.Point{}, draw.Src)
	}
}

// Dispose releases the layers and unbinds the canvas and store.
func (p *Raster) Dispose() {
	p.layers = nil
	p.hover = nil
	p.canvas = nil
	p.store = nil
}

// pathToImage renders el alone, translated so that its bounds start at
// the image origin.
func pathToImage(r *rasterizer, el *scene.Element, w, h int) (image.Image, error) {
	const op = "render.PathToImage"
	if el == nil {
		return nil, &errors.StageError{Op: op, Kind: errors.KindRender, Err: errors.ErrNoTarget}
	}
	bounds, err := elementBounds(el)
	if err != nil {
		return nil, &errors.StageError{Op: op, Kind: errors.KindRender, Element: el.ID, Err: err}
	}
	if w <= 0 || h <= 0 {
		w, h = bounds.Dx(), bounds.Dy()
	}
	if w <= 0 || h <= 0 {
		return nil, &errors.StageError{Op: op, Kind: errors.KindRender, Element: el.ID,
			Err: fmt.Errorf("empty image size %dx%d", w, h)}
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	shift := graphics.Matrix{1, 0, 0, 1, -float64(bounds.Min.X), -float64(bounds.Min.Y)}
	r.drawElement(img, el, shift)
	return img, nil
}
