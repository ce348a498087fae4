package testing

import (
	"errors"
	"testing"
	"time"

	"github.com/go-drift/stage/pkg/frame"
	"github.com/go-drift/stage/pkg/render"
	"github.com/go-drift/stage/pkg/scene"
	"github.com/go-drift/stage/pkg/stage"
)

const (
	// DefaultTestWidth is the default width of the test canvas.
	DefaultTestWidth = 800
	// DefaultTestHeight is the default height of the test canvas.
	DefaultTestHeight = 600
	// FrameDuration is how far PumpFrames and PumpAndSettle advance the
	// clock per frame.
	FrameDuration = 16 * time.Millisecond
)

// ErrSettleTimeout is returned when PumpAndSettle exceeds its timeout.
var ErrSettleTimeout = errors.New("PumpAndSettle timed out: session did not settle")

// Option configures a Tester.
type Option func(*config)

type config struct {
	surface render.Surface
	layers  map[int]render.LayerConfig
}

// WithSurface binds the session to surface instead of a fresh 800x600
// Canvas. A MarkupSurface makes the session use the vector backend.
func WithSurface(surface render.Surface) Option {
	return func(c *config) { c.surface = surface }
}

// WithLayer configures a layer before the first frame.
func WithLayer(zlevel int, cfg render.LayerConfig) Option {
	return func(c *config) {
		if c.layers == nil {
			c.layers = make(map[int]render.LayerConfig)
		}
		c.layers[zlevel] = cfg
	}
}

// Tester drives one session without a real display. It owns a fake clock,
// a manual frame loop and a private registry, and records the calls the
// session makes on its painter.
type Tester struct {
	clock    *FakeClock
	loop     *frame.Loop
	registry *stage.Registry
	surface  render.Surface
	session  *stage.Session
	painter  *RecordingPainter
}

// NewTester creates a session for t. The session is disposed in
// t.Cleanup unless the test disposes it first.
func NewTester(t testing.TB, opts ...Option) *Tester {
	t.Helper()
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.surface == nil {
		cfg.surface = NewCanvas(DefaultTestWidth, DefaultTestHeight)
	}

	clk := NewFakeClock()
	tester := &Tester{
		clock:    clk,
		loop:     frame.NewLoop(clk),
		registry: stage.NewRegistry(),
		surface:  cfg.surface,
	}
	s, err := stage.Init(cfg.surface, stage.Options{
		Backend:   BackendRecording,
		Scheduler: tester.loop,
		Registry:  tester.registry,
		Layers:    cfg.layers,
	})
	if err != nil {
		t.Fatalf("stage.Init: %v", err)
	}
	tester.session = s
	tester.painter = s.Painter().(*RecordingPainter)
	t.Cleanup(tester.Cleanup)
	return tester
}

// Cleanup disposes the session if it is still live.
func (t *Tester) Cleanup() {
	if !t.session.Disposed() {
		t.session.Dispose()
	}
}

// Session returns the session under test.
func (t *Tester) Session() *stage.Session {
	return t.session
}

// Clock returns the fake clock for advancing time in tests.
func (t *Tester) Clock() *FakeClock {
	return t.clock
}

// Loop returns the frame loop the session ticks on.
func (t *Tester) Loop() *frame.Loop {
	return t.loop
}

// Registry returns the tester's private registry.
func (t *Tester) Registry() *stage.Registry {
	return t.registry
}

// Canvas returns the pixel surface, or nil when the tester was built on
// another kind of surface.
func (t *Tester) Canvas() *Canvas {
	c, _ := t.surface.(*Canvas)
	return c
}

// Painter returns the recording painter of the session.
func (t *Tester) Painter() *RecordingPainter {
	return t.painter
}

// Refreshes returns the number of full redraws so far.
func (t *Tester) Refreshes() int {
	return t.painter.Refreshes
}

// HoverRefreshes returns the number of hover-only redraws so far.
func (t *Tester) HoverRefreshes() int {
	return t.painter.HoverRefreshes
}

// Pump delivers one tick at the current clock time.
func (t *Tester) Pump() {
	t.loop.Tick()
}

// PumpFrames advances the clock by FrameDuration and ticks, n times.
func (t *Tester) PumpFrames(n int) {
	for range n {
		t.clock.Advance(FrameDuration)
		t.loop.Tick()
	}
}

// PumpAndSettle runs frames until no animator is left and no redraw is
// owed, or the timeout is reached. Each frame advances the fake clock by
// FrameDuration.
func (t *Tester) PumpAndSettle(timeout time.Duration) error {
	var elapsed time.Duration
	for elapsed < timeout {
		t.loop.Tick()
		if !t.needsWork() {
			return nil
		}
		t.clock.Advance(FrameDuration)
		elapsed += FrameDuration
	}
	return ErrSettleTimeout
}

func (t *Tester) needsWork() bool {
	return t.session.Animating() || t.session.NeedsRefresh()
}

// Dispatch queues fn for the next tick.
func (t *Tester) Dispatch(fn func()) {
	t.loop.Dispatch(fn)
}

// Find evaluates a finder against the session's scene.
func (t *Tester) Find(finder Finder) FinderResult {
	return FinderResult{
		elements: finder.Evaluate(t.session.Roots()),
		finder:   finder,
	}
}

// Add inserts elements into the session and pumps one frame.
func (t *Tester) Add(els ...*scene.Element) {
	t.session.Add(els...)
	t.Pump()
}
