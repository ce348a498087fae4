// Package input turns raw pointer samples into named session events and
// keeps the per-session table of event handlers.
package input

import (
	"slices"

	"github.com/go-drift/stage/pkg/errors"
	"github.com/go-drift/stage/pkg/scene"
)

// Event is what handlers receive.
type Event struct {
	// Type is the event name ("click", "mousemove", or any custom name).
	Type string
	// X and Y are surface coordinates for pointer events.
	X, Y float64
	// Target is the element under the pointer, nil over empty space.
	Target *scene.Element
	// Context is the value passed to On when the handler was registered.
	Context any
	// Payload is the value passed to Trigger.
	Payload any
	// WheelDelta is set for mousewheel events.
	WheelDelta float64

	stopped bool
}

// StopPropagation prevents handlers registered after the current one from
// seeing the event.
func (e *Event) StopPropagation() {
	e.stopped = true
}

// Handler handles one event.
type Handler func(*Event)

// Subscription identifies one registered handler.
type Subscription uint64

type subscriber struct {
	id      Subscription
	handler Handler
	ctx     any
}

// Dispatcher is the per-session event hub. It hit-tests pointer samples
// against the scene store and fans events out to registered handlers.
//
// Like the rest of a session, it is not safe for concurrent use.
type Dispatcher struct {
	root     any
	store    *scene.Store
	handlers map[string][]subscriber
	nextID   Subscription

	hovered *scene.Element
	pressed *scene.Element
	cursor  string

	cancel   func()
	disposed bool
}

// NewDispatcher binds a dispatcher to root, the surface a painter draws
// into. If root is a Source the dispatcher subscribes to it.
func NewDispatcher(root any, store *scene.Store) *Dispatcher {
	d := &Dispatcher{
		root:     root,
		store:    store,
		handlers: make(map[string][]subscriber),
		cursor:   "default",
	}
	if src, ok := root.(Source); ok {
		d.cancel = src.Subscribe(d.HandlePointer)
	}
	return d
}

// Root returns the surface the dispatcher is bound to.
func (d *Dispatcher) Root() any {
	return d.root
}

// On registers handler for events named name. ctx is passed back to the
// handler in Event.Context.
func (d *Dispatcher) On(name string, handler Handler, ctx any) Subscription {
	if d.disposed || handler == nil {
		return 0
	}
	d.nextID++
	d.handlers[name] = append(d.handlers[name], subscriber{id: d.nextID, handler: handler, ctx: ctx})
	return d.nextID
}

// Off removes the given subscriptions for name. Without subscriptions it
// removes every handler for name.
func (d *Dispatcher) Off(name string, subs ...Subscription) {
	if len(subs) == 0 {
		delete(d.handlers, name)
		return
	}
	list := slices.DeleteFunc(d.handlers[name], func(s subscriber) bool {
		return slices.Contains(subs, s.id)
	})
	if len(list) == 0 {
		delete(d.handlers, name)
		return
	}
	d.handlers[name] = list
}

// Trigger delivers a synthetic event to the handlers of name.
func (d *Dispatcher) Trigger(name string, payload any) {
	d.dispatch(&Event{Type: name, Payload: payload})
}

// Has reports whether name has at least one handler.
func (d *Dispatcher) Has(name string) bool {
	return len(d.handlers[name]) > 0
}

// HandlePointer hit-tests ev against the store and triggers the derived
// events. A move over a new element emits mouseout for the previous one
// and mouseover for the new one before mousemove. A click is an up over the
// element that received the matching down.
func (d *Dispatcher) HandlePointer(ev PointerEvent) {
	if d.disposed {
		return
	}
	defer errors.Recover("input.Dispatcher.HandlePointer")

	if ev.Phase == PointerPhaseLeave {
		d.setHovered(nil, ev)
		d.pressed = nil
		d.emit(EventGlobalOut, nil, ev)
		return
	}

	target := d.HitTest(ev.X, ev.Y)
	switch ev.Phase {
	case PointerPhaseMove:
		d.setHovered(target, ev)
		d.emit(EventMouseMove, target, ev)
	case PointerPhaseDown:
		d.setHovered(target, ev)
		d.pressed = target
		d.emit(EventMouseDown, target, ev)
	case PointerPhaseUp:
		d.emit(EventMouseUp, target, ev)
		if d.pressed == target {
			d.emit(EventClick, target, ev)
		}
		d.pressed = nil
	case PointerPhaseCancel:
		d.pressed = nil
	case PointerPhaseWheel:
		d.emit(EventWheel, target, ev)
	}
}

// HitTest returns the topmost visible, non-silent element containing the
// point, or nil.
func (d *Dispatcher) HitTest(x, y float64) *scene.Element {
	if d.store == nil {
		return nil
	}
	drawables := d.store.Drawables()
	for i := len(drawables) - 1; i >= 0; i-- {
		el := drawables[i]
		if el.Silent {
			continue
		}
		if el.Contains(x, y) {
			return el
		}
	}
	return nil
}

// Hovered returns the element currently under the pointer.
func (d *Dispatcher) Hovered() *scene.Element {
	return d.hovered
}

// SetCursor records style and forwards it to the root when it can show
// cursors.
func (d *Dispatcher) SetCursor(style string) {
	if style == "" {
		style = "default"
	}
	d.cursor = style
	if cs, ok := d.root.(CursorSetter); ok {
		cs.SetCursor(style)
	}
}

// Cursor returns the last cursor style set.
func (d *Dispatcher) Cursor() string {
	return d.cursor
}

// Dispose unsubscribes from the root and drops every handler. Later calls
// are no-ops.
func (d *Dispatcher) Dispose() {
	if d.disposed {
		return
	}
	d.disposed = true
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.handlers = make(map[string][]subscriber)
	d.root = nil
	d.store = nil
	d.hovered = nil
	d.pressed = nil
}

func (d *Dispatcher) setHovered(target *scene.Element, ev PointerEvent) {
	if target == d.hovered {
		return
	}
	prev := d.hovered
	d.hovered = target
	if prev != nil {
		d.emit(EventMouseOut, prev, ev)
	}
	if target != nil {
		d.emit(EventMouseOver, target, ev)
	}
}

func (d *Dispatcher) emit(name string, target *scene.Element, ev PointerEvent) {
	d.dispatch(&Event{
		Type:       name,
		X:          ev.X,
		Y:          ev.Y,
		Target:     target,
		WheelDelta: ev.WheelDelta,
	})
}

func (d *Dispatcher) dispatch(ev *Event) {
	if d.disposed {
		return
	}
	for _, s := range slices.Clone(d.handlers[ev.Type]) {
		ev.Context = s.ctx
		s.handler(ev)
		if ev.stopped {
			return
		}
	}
}
