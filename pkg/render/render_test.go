package render

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/stage/pkg/errors"
	"github.com/go-drift/stage/pkg/input"
	"github.com/go-drift/stage/pkg/scene"
)

type memCanvas struct {
	img *image.RGBA
}

func newCanvas(w, h int) *memCanvas {
	return &memCanvas{img: image.NewRGBA(image.Rect(0, 0, w, h))}
}

func (c *memCanvas) Size() (int, int) {
	b := c.img.Bounds()
	return b.Dx(), b.Dy()
}

func (c *memCanvas) Image() draw.Image { return c.img }

type plainSurface struct {
	w, h   int
	markup string
}

func (s *plainSurface) Size() (int, int) { return s.w, s.h }

func (s *plainSurface) SetMarkup(svg string) { s.markup = svg }

var red = color.RGBA{R: 0xff, A: 0xff}

func redBox(x, y float64) *scene.Element {
	el := scene.NewElement("rect", scene.Props{"x": x, "y": y, "width": 10.0, "height": 10.0})
	el.Style["fill"] = "#ff0000"
	return el
}

func storeWith(els ...*scene.Element) *scene.Store {
	s := scene.NewStore()
	for _, el := range els {
		s.AddRoot(el)
	}
	return s
}

func TestNew_ProbesSurface(t *testing.T) {
	p, err := New("", newCanvas(20, 20), scene.NewStore())
	require.NoError(t, err)
	assert.Equal(t, BackendRaster, p.Type())

	surface := &plainSurface{w: 20, h: 20}
	p, err = New("", surface, scene.NewStore())
	require.NoError(t, err)
	assert.Equal(t, BackendVector, p.Type())
	assert.IsType(t, &VectorRoot{}, p.Root())
	assert.NotSame(t, surface, p.Root())
}

func TestNew_Failures(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		surface Surface
	}{
		{"unknown backend", "webgl", newCanvas(10, 10)},
		{"raster without pixels", BackendRaster, &plainSurface{w: 10, h: 10}},
		{"zero size", "", &plainSurface{}},
		{"nil surface", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.backend, tt.surface, scene.NewStore())
			assert.Nil(t, p)
			require.Error(t, err)
			assert.Equal(t, errors.KindInit, errors.KindOf(err))
			assert.ErrorIs(t, err, errors.ErrBackendUnavailable)
		})
	}
}

func TestRegister(t *testing.T) {
	Register("test-backend", NewVector)
	assert.Contains(t, Backends(), "test-backend")
	assert.Contains(t, Backends(), BackendRaster)
	assert.Contains(t, Backends(), BackendVector)

	p, err := New("test-backend", &plainSurface{w: 5, h: 5}, scene.NewStore())
	require.NoError(t, err)
	assert.Equal(t, 5, p.Width())
}

func TestRaster_RefreshPaintsAndClearsDirty(t *testing.T) {
	canvas := newCanvas(40, 40)
	el := redBox(10, 10)
	store := storeWith(el)
	p, err := NewRaster(canvas, store)
	require.NoError(t, err)
	require.True(t, el.Dirty())

	p.Refresh()

	assert.Equal(t, red, canvas.img.RGBAAt(15, 15))
	assert.Equal(t, color.RGBA{}, canvas.img.RGBAAt(2, 2))
	assert.False(t, el.Dirty())

	p.Clear()
	assert.Equal(t, color.RGBA{}, canvas.img.RGBAAt(15, 15))
}

func TestRaster_LayerClearColorAndOrder(t *testing.T) {
	canvas := newCanvas(20, 20)
	top := redBox(0, 0)
	top.ZLevel = 1
	store := storeWith(top)
	p, err := NewRaster(canvas, store)
	require.NoError(t, err)

	p.ConfigureLayer(0, LayerConfig{ClearColor: "#0000ff"})
	p.Refresh()

	assert.Equal(t, color.RGBA{B: 0xff, A: 0xff}, canvas.img.RGBAAt(15, 15))
	assert.Equal(t, red, canvas.img.RGBAAt(5, 5))
}

func TestRaster_MotionBlurKeepsTrail(t *testing.T) {
	canvas := newCanvas(40, 20)
	el := redBox(0, 0)
	p, err := NewRaster(canvas, storeWith(el))
	require.NoError(t, err)
	p.ConfigureLayer(0, LayerConfig{MotionBlur: true, LastFrameAlpha: 0.5})

	p.Refresh()
	el.Position = scene.Vector{20, 0}
	p.Refresh()

	trail := canvas.img.RGBAAt(5, 5)
	assert.Equal(t, uint8(0x7f), trail.A)
	assert.Equal(t, red, canvas.img.RGBAAt(25, 5))
}

func TestRaster_HoverLayer(t *testing.T) {
	canvas := newCanvas(20, 20)
	store := scene.NewStore()
	p, err := NewRaster(canvas, store)
	require.NoError(t, err)

	hover := redBox(0, 0)
	store.AddHover(hover)
	p.RefreshHover()
	assert.Equal(t, red, canvas.img.RGBAAt(5, 5))

	store.ClearHover()
	p.RefreshHover()
	assert.Equal(t, color.RGBA{}, canvas.img.RGBAAt(5, 5))
}

func TestRaster_Resize(t *testing.T) {
	canvas := newCanvas(10, 10)
	p, err := NewRaster(canvas, storeWith(redBox(0, 0)))
	require.NoError(t, err)
	canvas.img = image.NewRGBA(image.Rect(0, 0, 30, 20))

	p.Resize()

	assert.Equal(t, 30, p.Width())
	assert.Equal(t, 20, p.Height())
	assert.Equal(t, red, canvas.img.RGBAAt(5, 5))
}

func TestRaster_ToDataURL(t *testing.T) {
	p, err := NewRaster(newCanvas(16, 8), storeWith(redBox(0, 0)))
	require.NoError(t, err)
	p.Refresh()

	url, err := p.ToDataURL(FormatPNG, "white")
	require.NoError(t, err)
	format, data, err := DecodeDataURL(url)
	require.NoError(t, err)
	assert.Equal(t, FormatPNG, format)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 16, 8), img.Bounds())
	r, g, b, a := img.At(14, 1).RGBA()
	assert.Equal(t, [4]uint32{0xffff, 0xffff, 0xffff, 0xffff}, [4]uint32{r, g, b, a})

	for _, f := range []string{FormatJPEG, FormatBMP} {
		url, err := p.ToDataURL(f, "")
		require.NoError(t, err, f)
		assert.True(t, strings.HasPrefix(url, "data:"+f+";base64,"), f)
	}

	_, err = p.ToDataURL("image/gif", "")
	assert.Equal(t, errors.KindExport, errors.KindOf(err))
	assert.ErrorIs(t, err, errors.ErrUnsupportedFormat)
}

func TestPathToImage(t *testing.T) {
	p, err := NewRaster(newCanvas(10, 10), scene.NewStore())
	require.NoError(t, err)

	el := redBox(100, 100)
	img, err := p.PathToImage(el, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 10, 10), img.Bounds())
	assert.Equal(t, red, img.(*image.RGBA).RGBAAt(5, 5))

	img, err = p.PathToImage(el, 4, 4)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 4), img.Bounds())

	_, err = p.PathToImage(nil, 0, 0)
	assert.ErrorIs(t, err, errors.ErrNoTarget)

	bad := scene.NewElement("star", nil)
	_, err = p.PathToImage(bad, 0, 0)
	assert.Equal(t, errors.KindRender, errors.KindOf(err))
}

func TestVector_Markup(t *testing.T) {
	surface := &plainSurface{w: 50, h: 40}
	el := redBox(1, 2)
	el.ID = "box"
	el.Position = scene.Vector{5, 0}
	store := storeWith(el)
	p, err := NewVector(surface, store)
	require.NoError(t, err)
	p.ConfigureLayer(0, LayerConfig{ClearColor: "#00ff00"})

	p.Refresh()

	markup := p.Root().(*VectorRoot).Markup()
	assert.Equal(t, markup, surface.markup)
	assert.True(t, strings.HasPrefix(markup, `<svg xmlns="http://www.w3.org/2000/svg" width="50" height="40"`))
	assert.Contains(t, markup, `<rect width="50" height="40" fill="#00ff00"/>`)
	assert.Contains(t, markup, `<path id="box" d="M1,2 L11,2 L11,12 L1,12 Z" transform="matrix(1 0 0 1 5 0)" fill="#ff0000"/>`)
	assert.False(t, el.Dirty())

	url, err := p.ToDataURL(FormatSVG, "")
	require.NoError(t, err)
	format, data, err := DecodeDataURL(url)
	require.NoError(t, err)
	assert.Equal(t, FormatSVG, format)
	assert.Equal(t, markup, string(data))

	url, err = p.ToDataURL(FormatPNG, "")
	require.NoError(t, err)
	_, data, err = DecodeDataURL(url)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	r, _, _, _ := img.At(10, 5).RGBA()
	assert.Equal(t, uint32(0xffff), r)

	p.Clear()
	assert.NotContains(t, p.Root().(*VectorRoot).Markup(), "<path")
}

func TestVectorRoot_IsInputSource(t *testing.T) {
	p, err := NewVector(&plainSurface{w: 10, h: 10}, scene.NewStore())
	require.NoError(t, err)
	root := p.Root().(*VectorRoot)

	var got []input.PointerPhase
	cancel := root.Subscribe(func(ev input.PointerEvent) { got = append(got, ev.Phase) })
	root.Dispatch(input.PointerEvent{Phase: input.PointerPhaseDown})
	cancel()
	root.Dispatch(input.PointerEvent{Phase: input.PointerPhaseUp})

	assert.Equal(t, []input.PointerPhase{input.PointerPhaseDown}, got)
}

func TestVector_Resize(t *testing.T) {
	surface := &plainSurface{w: 10, h: 10}
	p, err := NewVector(surface, scene.NewStore())
	require.NoError(t, err)
	surface.w = 30

	p.Resize()

	assert.Equal(t, 30, p.Width())
	assert.Contains(t, surface.markup, `width="30"`)
}
