// Package render draws the contents of a scene store onto a surface.
//
// A [Painter] is one backend instance bound to a surface and a store.
// Two backends are built in: "raster", which fills paths into the pixel
// buffer of a [Canvas], and "vector", which emits SVG markup into a proxy
// [VectorRoot] for surfaces that expose no pixels. Further backends are
// added with [Register].
package render

import (
	"fmt"
	"image"
	"image/draw"
	"slices"
	"sync"

	"github.com/go-drift/stage/pkg/errors"
	"github.com/go-drift/stage/pkg/scene"
)

// Surface is anything a session can be bound to.
type Surface interface {
	// Size returns the surface size in pixels.
	Size() (width, height int)
}

// Canvas is a surface with a pixel buffer the raster backend can draw into.
type Canvas interface {
	Surface
	Image() draw.Image
}

// LayerConfig configures one zlevel layer.
type LayerConfig struct {
	// ClearColor fills the layer before each frame ("" is transparent).
	ClearColor string `yaml:"clearColor"`
	// MotionBlur keeps a faded copy of the previous frame instead of
	// clearing, leaving trails behind moving elements.
	MotionBlur bool `yaml:"motionBlur"`
	// LastFrameAlpha is how much of the previous frame survives when
	// MotionBlur is on. Zero means DefaultLastFrameAlpha.
	LastFrameAlpha float64 `yaml:"lastFrameAlpha"`
}

// DefaultLastFrameAlpha is the trail strength used when a motion-blurred
// layer does not set LastFrameAlpha.
const DefaultLastFrameAlpha = 0.7

func (c LayerConfig) lastFrameAlpha() float64 {
	if c.LastFrameAlpha <= 0 {
		return DefaultLastFrameAlpha
	}
	return min(c.LastFrameAlpha, 1)
}

// Painter is a rendering backend bound to one surface and one store.
type Painter interface {
	// Type returns the backend name.
	Type() string
	// Refresh redraws every layer and the hover layer.
	Refresh()
	// RefreshHover redraws only the hover layer.
	RefreshHover()
	// Resize picks up the surface's current size and redraws.
	Resize()
	// ConfigureLayer sets the configuration of the zlevel layer.
	ConfigureLayer(zlevel int, cfg LayerConfig)
	Width() int
	Height() int
	// ToDataURL encodes the current frame as a data URL. bg, when not
	// empty, is painted under the frame.
	ToDataURL(format, bg string) (string, error)
	// PathToImage renders a single element into a w x h image. A zero
	// size uses the element's bounds.
	PathToImage(el *scene.Element, w, h int) (image.Image, error)
	// Root returns the surface input should be read from. It is the bound
	// surface for the raster backend and a proxy for the vector backend.
	Root() any
	// Clear erases the painted output.
	Clear()
	Dispose()
}

// Factory builds a Painter for a surface.
type Factory func(surface Surface, store *scene.Store) (Painter, error)

// Built-in backend names.
const (
	BackendRaster = "raster"
	BackendVector = "vector"
)

var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
)

// Register makes a backend available under name, replacing any previous
// registration.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = f
}

// Backends returns the registered backend names, sorted.
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Probe picks a backend for surface: raster when it exposes a pixel
// buffer, vector otherwise.
func Probe(surface Surface) string {
	if _, ok := surface.(Canvas); ok {
		return BackendRaster
	}
	return BackendVector
}

// New builds the named backend for surface. An empty name probes the
// surface. Failures are KindInit errors wrapping ErrBackendUnavailable.
func New(name string, surface Surface, store *scene.Store) (Painter, error) {
	const op = "render.New"
	if surface == nil {
		return nil, initError(op, name, fmt.Errorf("%w: nil surface", errors.ErrBackendUnavailable))
	}
	if name == "" {
		name = Probe(surface)
	}
	registryMu.RLock()
	f, ok := factories[name]
	registryMu.RUnlock()
	if !ok {
		return nil, initError(op, name, fmt.Errorf("%w: unknown backend", errors.ErrBackendUnavailable))
	}
	if w, h := surface.Size(); w <= 0 || h <= 0 {
		return nil, initError(op, name, fmt.Errorf("%w: surface size %dx%d", errors.ErrBackendUnavailable, w, h))
	}
	p, err := f(surface, store)
	if err != nil {
		return nil, initError(op, name, err)
	}
	return p, nil
}

func initError(op, backend string, err error) error {
	return &errors.StageError{Op: op, Kind: errors.KindInit, Err: fmt.Errorf("backend %q: %w", backend, err)}
}
