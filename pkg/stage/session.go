package stage

import (
	"fmt"
	"image"

	"github.com/go-drift/stage/pkg/animation"
	"github.com/go-drift/stage/pkg/errors"
	"github.com/go-drift/stage/pkg/frame"
	"github.com/go-drift/stage/pkg/input"
	"github.com/go-drift/stage/pkg/render"
	"github.com/go-drift/stage/pkg/scene"
)

// Options configures a new session.
type Options struct {
	// Backend selects the painter: "" probes the surface, otherwise any
	// name registered with render.Register.
	Backend string
	// Scheduler is the frame loop the session ticks on. Nil uses
	// frame.Default, or a fresh loop on Clock when Clock is set.
	Scheduler *frame.Loop
	// Clock drives animation time when Scheduler is nil.
	Clock frame.Clock
	// Registry the session is registered in. Nil uses DefaultRegistry.
	Registry *Registry
	// Layers are applied to the painter right after it is built.
	Layers map[int]render.LayerConfig
}

// Session coordinates one surface: it owns a scene store, a painter, an
// input dispatcher and an animation engine, and redraws at most once per
// frame after the scene changes.
//
// A session is driven from a single goroutine, the one ticking its frame
// loop. Every method except ID, Surface and Disposed panics with a
// KindDisposed error once the session has been disposed.
type Session struct {
	id       string
	surface  render.Surface
	registry *Registry

	store   *scene.Store
	painter render.Painter
	handler *input.Dispatcher
	engine  *animation.Engine

	needsRefresh      bool
	needsRefreshHover bool
	disposed          bool
}

var _ scene.Owner = (*Session)(nil)

// Init builds a session bound to surface and registers it. When the
// painter cannot be built the error is returned and nothing is
// registered.
func Init(surface render.Surface, opts Options) (*Session, error) {
	registry := opts.Registry
	if registry == nil {
		registry = DefaultRegistry
	}
	loop := opts.Scheduler
	if loop == nil && opts.Clock != nil {
		loop = frame.NewLoop(opts.Clock)
	}

	s := &Session{surface: surface, registry: registry}
	s.store = scene.NewStore()
	painter, err := render.New(opts.Backend, surface, s.store)
	if err != nil {
		return nil, err
	}
	s.painter = painter
	for zlevel, cfg := range opts.Layers {
		painter.ConfigureLayer(zlevel, cfg)
	}
	s.handler = input.NewDispatcher(painter.Root(), s.store)
	s.engine = animation.NewEngine(loop, s.onFrame)
	s.engine.Start()
	s.store.SetHook(ownershipHook{s})
	s.id = registry.Register(s)

	w, h := surface.Size()
	errors.Logger().Debug("session created", "id", s.id, "backend", painter.Type(), "width", w, "height", h)
	return s, nil
}

// onFrame runs once per tick after the animators have been stepped.
func (s *Session) onFrame() {
	if s.disposed {
		return
	}
	switch {
	case s.needsRefresh:
		s.Refresh()
	case s.needsRefreshHover:
		s.RefreshHover()
	}
}

func (s *Session) live(op string) {
	if s.disposed {
		errors.Disposed(op)
	}
}

// ID returns the session id. It never changes and stays valid after
// disposal.
func (s *Session) ID() string {
	return s.id
}

// Surface returns the surface the session was created on.
func (s *Session) Surface() render.Surface {
	return s.surface
}

// Disposed reports whether Dispose has run.
func (s *Session) Disposed() bool {
	return s.disposed
}

// Backend returns the painter's backend name.
func (s *Session) Backend() string {
	s.live("stage.Session.Backend")
	return s.painter.Type()
}

// Painter returns the session's painter.
func (s *Session) Painter() render.Painter {
	s.live("stage.Session.Painter")
	return s.painter
}

// Loop returns the frame loop the session ticks on.
func (s *Session) Loop() *frame.Loop {
	s.live("stage.Session.Loop")
	return s.engine.Loop()
}

// Add inserts elements as roots of the scene and schedules a refresh. An
// element owned by another session is moved out of it first, and a group
// child of this session is promoted to a root. Elements whose ids clash
// with elements already in the scene are skipped and reported.
func (s *Session) Add(els ...*scene.Element) {
	s.live("stage.Session.Add")
	for _, el := range els {
		if el == nil {
			continue
		}
		if id, ok := s.store.Conflict(el); ok {
			errors.Duplicate("stage.Session.Add", id)
			continue
		}
		if other, ok := el.Owner().(*Session); ok && other != s && !other.disposed {
			other.Remove(scene.ByHandle(el))
		}
		s.store.AddRoot(el)
	}
	s.RefreshNextFrame()
}

// Remove takes elements out of the scene and schedules a refresh. Refs
// that match nothing in this session are reported as not found.
func (s *Session) Remove(refs ...scene.Ref) {
	const op = "stage.Session.Remove"
	s.live(op)
	for _, ref := range refs {
		el := s.resolve(ref)
		if el == nil {
			errors.NotFound(op, errors.ErrNoTarget, ref.ID(), "")
			continue
		}
		s.store.DelRoot(el)
	}
	s.RefreshNextFrame()
}

// resolve returns the element ref names if it belongs to this session.
func (s *Session) resolve(ref scene.Ref) *scene.Element {
	el := s.store.Resolve(ref)
	if el == nil || el.Owner() != scene.Owner(s) {
		return nil
	}
	return el
}

// Element looks an element of this session up by id.
func (s *Session) Element(id string) (*scene.Element, bool) {
	s.live("stage.Session.Element")
	return s.store.Get(id)
}

// Len returns the number of elements in the scene, group children
// included.
func (s *Session) Len() int {
	s.live("stage.Session.Len")
	return s.store.Len()
}

// Roots returns the root elements in draw order.
func (s *Session) Roots() []*scene.Element {
	s.live("stage.Session.Roots")
	return s.store.Roots()
}

// ConfigureLayer configures the zlevel layer and schedules a refresh.
func (s *Session) ConfigureLayer(zlevel int, cfg render.LayerConfig) {
	s.live("stage.Session.ConfigureLayer")
	s.painter.ConfigureLayer(zlevel, cfg)
	s.RefreshNextFrame()
}

// Render is Refresh.
func (s *Session) Render() {
	s.Refresh()
}

// Refresh draws now. The dirty flags are cleared only once the draw has
// returned.
func (s *Session) Refresh() {
	s.live("stage.Session.Refresh")
	s.painter.Refresh()
	s.needsRefresh = false
	s.needsRefreshHover = false
}

// RefreshNextFrame marks the session dirty; the next tick draws.
func (s *Session) RefreshNextFrame() {
	s.live("stage.Session.RefreshNextFrame")
	s.needsRefresh = true
}

// NeedsRefresh reports whether a draw is owed.
func (s *Session) NeedsRefresh() bool {
	s.live("stage.Session.NeedsRefresh")
	return s.needsRefresh
}

// Flush performs the draw a tick would perform, without stepping
// animations. It does nothing when the session is clean.
func (s *Session) Flush() {
	s.live("stage.Session.Flush")
	s.onFrame()
}

// Resize makes the painter pick up the surface's new size. It leaves the
// dirty flag alone; the painter redraws itself.
func (s *Session) Resize() {
	s.live("stage.Session.Resize")
	s.painter.Resize()
}

// Width returns the painted width.
func (s *Session) Width() int {
	s.live("stage.Session.Width")
	return s.painter.Width()
}

// Height returns the painted height.
func (s *Session) Height() int {
	s.live("stage.Session.Height")
	return s.painter.Height()
}

// AddHover puts el on the hover layer and schedules a hover refresh.
func (s *Session) AddHover(el *scene.Element) {
	s.live("stage.Session.AddHover")
	s.store.AddHover(el)
	s.needsRefreshHover = true
}

// RemoveHover takes el off the hover layer.
func (s *Session) RemoveHover(el *scene.Element) {
	s.live("stage.Session.RemoveHover")
	s.store.RemoveHover(el)
	s.needsRefreshHover = true
}

// ClearHover empties the hover layer.
func (s *Session) ClearHover() {
	s.live("stage.Session.ClearHover")
	s.store.ClearHover()
	s.needsRefreshHover = true
}

// Hovers returns the hover layer's elements.
func (s *Session) Hovers() []*scene.Element {
	s.live("stage.Session.Hovers")
	return s.store.Hovers()
}

// RefreshHover redraws only the hover layer.
func (s *Session) RefreshHover() {
	s.live("stage.Session.RefreshHover")
	s.painter.RefreshHover()
	s.needsRefreshHover = false
}

// RefreshHoverNextFrame schedules a hover-only redraw for the next tick.
func (s *Session) RefreshHoverNextFrame() {
	s.live("stage.Session.RefreshHoverNextFrame")
	s.needsRefreshHover = true
}

// Animate creates an animator for a property of an element and binds it to
// the element: every step marks the element dirty, and the animator leaves
// the element's collection when it completes or is stopped.
//
// path is a dot-separated property path walked from the element ("shape",
// "shape.x", "position", "style.fill"); empty animates the element itself.
// Geometry paths (first segment "shape") also invalidate the cached
// outline. When the element or the path cannot be resolved the failure is
// reported as not found and Animate returns nil.
//
//	s.Animate(scene.ByID("box"), "position", false).
//	    When(time.Second, map[string]any{"0": 200.0}).
//	    Start()
func (s *Session) Animate(ref scene.Ref, path string, loop bool) *animation.Animator {
	const op = "stage.Session.Animate"
	s.live(op)

	el := s.resolve(ref)
	if el == nil {
		errors.NotFound(op, errors.ErrNoTarget, ref.ID(), path)
		return nil
	}
	segs, err := scene.ParsePath(path)
	if err != nil {
		errors.NotFound(op, fmt.Errorf("%w: %v", errors.ErrPathUnresolved, err), el.ID, path)
		return nil
	}

	var target animation.Target = el
	if len(segs) > 0 {
		res := scene.Resolve(el, segs)
		t, ok := res.Target()
		if !ok {
			reason := fmt.Errorf("%w: %q is not animatable", errors.ErrPathUnresolved, res.Key)
			if !res.OK() {
				reason = fmt.Errorf("%w: missing segment %d (%q)", errors.ErrPathUnresolved, res.Failed, res.Key)
			}
			errors.NotFound(op, reason, el.ID, path)
			return nil
		}
		target = t
	}

	shape := segs.IsShape()
	a := s.engine.Animate(target, loop)
	forget := func() { el.RemoveAnimator(a) }
	a.During(func(animation.Target, float64) {
		if shape {
			el.MarkShapeDirty()
		} else {
			el.MarkDirty()
		}
	}).Done(forget).OnStop(forget)
	el.AddAnimator(a)
	return a
}

// StopAnimation cancels every animator of the element. Done callbacks do
// not run.
func (s *Session) StopAnimation(ref scene.Ref) {
	const op = "stage.Session.StopAnimation"
	s.live(op)
	el := s.resolve(ref)
	if el == nil {
		errors.NotFound(op, errors.ErrNoTarget, ref.ID(), "")
		return
	}
	el.StopAnimation()
}

// Animating reports whether any animator of the session is still pending
// or running.
func (s *Session) Animating() bool {
	s.live("stage.Session.Animating")
	return s.engine.Len() > 0
}

// ClearAnimation cancels every animator of the session.
func (s *Session) ClearAnimation() {
	s.live("stage.Session.ClearAnimation")
	s.engine.Clear()
}

// On registers handler for the named event.
func (s *Session) On(name string, handler input.Handler, ctx any) input.Subscription {
	s.live("stage.Session.On")
	return s.handler.On(name, handler, ctx)
}

// Off removes subscriptions for the named event, or all of them when none
// are given.
func (s *Session) Off(name string, subs ...input.Subscription) {
	s.live("stage.Session.Off")
	s.handler.Off(name, subs...)
}

// Trigger delivers a synthetic event.
func (s *Session) Trigger(name string, payload any) {
	s.live("stage.Session.Trigger")
	s.handler.Trigger(name, payload)
}

// HandlePointer feeds a raw pointer sample to the dispatcher, for hosts
// whose surface is not an input.Source.
func (s *Session) HandlePointer(ev input.PointerEvent) {
	s.live("stage.Session.HandlePointer")
	s.handler.HandlePointer(ev)
}

// SetCursorStyle sets the pointer cursor of the surface.
func (s *Session) SetCursorStyle(style string) {
	s.live("stage.Session.SetCursorStyle")
	s.handler.SetCursor(style)
}

// ToDataURL encodes the current frame. format is image/png (default),
// image/jpeg, image/bmp, or image/svg+xml on the vector backend.
func (s *Session) ToDataURL(format, bg string) (string, error) {
	s.live("stage.Session.ToDataURL")
	return s.painter.ToDataURL(format, bg)
}

// PathToImage renders el alone into a w x h image; zero sizes use its
// bounds.
func (s *Session) PathToImage(el *scene.Element, w, h int) (image.Image, error) {
	s.live("stage.Session.PathToImage")
	return s.painter.PathToImage(el, w, h)
}

// Clear removes every element, stopping their animations, and erases the
// painted output.
func (s *Session) Clear() {
	s.live("stage.Session.Clear")
	s.store.DelAll()
	s.painter.Clear()
}

// Dispose tears the session down: the engine stops ticking, the scene is
// cleared, then the store, painter and dispatcher are disposed and the
// session leaves its registry. Disposing twice panics.
func (s *Session) Dispose() {
	s.live("stage.Session.Dispose")
	s.engine.Stop()
	s.Clear()
	s.engine.Clear()
	s.store.Dispose()
	s.painter.Dispose()
	s.handler.Dispose()

	s.store = nil
	s.painter = nil
	s.handler = nil
	s.engine = nil
	s.disposed = true

	s.registry.Detach(s.id)
	errors.Logger().Debug("session disposed", "id", s.id)
}

// ownershipHook binds elements to the session while they are in its store.
type ownershipHook struct {
	s *Session
}

func (h ownershipHook) OnInsert(el *scene.Element, insert func()) {
	el.SetOwner(h.s)
	insert()
}

func (h ownershipHook) OnRemove(el *scene.Element, remove func()) {
	el.StopAnimation()
	remove()
	el.SetOwner(nil)
}
