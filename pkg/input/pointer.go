package input

// PointerPhase describes where a pointer event is in its lifecycle.
type PointerPhase int

const (
	PointerPhaseDown PointerPhase = iota
	PointerPhaseMove
	PointerPhaseUp
	PointerPhaseCancel
	PointerPhaseWheel
	// PointerPhaseLeave is sent when the pointer leaves the surface.
	PointerPhaseLeave
)

func (p PointerPhase) String() string {
	switch p {
	case PointerPhaseDown:
		return "down"
	case PointerPhaseMove:
		return "move"
	case PointerPhaseUp:
		return "up"
	case PointerPhaseCancel:
		return "cancel"
	case PointerPhaseWheel:
		return "wheel"
	case PointerPhaseLeave:
		return "leave"
	default:
		return "unknown"
	}
}

// PointerEvent is a raw pointer sample in surface coordinates.
type PointerEvent struct {
	Phase  PointerPhase
	X, Y   float64
	Button int
	// WheelDelta is the scroll amount for PointerPhaseWheel.
	WheelDelta float64
}

// Event names triggered by the dispatcher.
const (
	EventClick     = "click"
	EventMouseDown = "mousedown"
	EventMouseUp   = "mouseup"
	EventMouseMove = "mousemove"
	EventWheel     = "mousewheel"
	EventMouseOver = "mouseover"
	EventMouseOut  = "mouseout"
	EventGlobalOut = "globalout"
)

// Source is a surface that delivers raw pointer events. The dispatcher
// subscribes to its root when the root implements Source.
type Source interface {
	// Subscribe registers fn and returns a function that removes it.
	Subscribe(fn func(PointerEvent)) (cancel func())
}

// CursorSetter is a surface that can change its pointer cursor.
type CursorSetter interface {
	SetCursor(style string)
}
