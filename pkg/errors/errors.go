// Package errors provides structured error handling for stage sessions.
//
// Conditions that should not halt the caller (an element id with no match,
// an animation path that does not resolve) are reported to the global
// [ErrorHandler] and the operation returns an empty result. Lifecycle misuse
// (using a session after Dispose) panics with a [*StageError] of kind
// [KindDisposed].
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// Sentinel errors wrapped by [StageError.Err].
var (
	// ErrNoTarget means an element reference did not resolve.
	ErrNoTarget = stderrors.New("no such element")
	// ErrPathUnresolved means a property path stopped at a missing segment.
	ErrPathUnresolved = stderrors.New("property path did not resolve")
	// ErrDisposed means a session was used after Dispose.
	ErrDisposed = stderrors.New("session is disposed")
	// ErrBackendUnavailable means no rasterization backend accepts the surface.
	ErrBackendUnavailable = stderrors.New("rasterization backend not available")
	// ErrUnsupportedFormat means an export format is not supported by the backend.
	ErrUnsupportedFormat = stderrors.New("unsupported image format")
	// ErrDuplicateID means an inserted element shares its id with another
	// element of the same store.
	ErrDuplicateID = stderrors.New("duplicate element id")
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindNotFound indicates an element or property lookup that found nothing.
	KindNotFound
	// KindDisposed indicates use of a disposed session.
	KindDisposed
	// KindInit indicates a session construction failure.
	KindInit
	// KindRender indicates a rasterizer failure.
	KindRender
	// KindExport indicates an image export failure.
	KindExport
	// KindPanic indicates a recovered panic.
	KindPanic
	// KindDuplicate indicates an insertion rejected for an id clash.
	KindDuplicate
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not-found"
	case KindDisposed:
		return "disposed"
	case KindInit:
		return "init"
	case KindRender:
		return "render"
	case KindExport:
		return "export"
	case KindPanic:
		return "panic"
	case KindDuplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

// StageError represents a structured error raised by a session or one of
// its collaborators.
type StageError struct {
	// Op is the operation that failed (e.g., "stage.Session.Animate").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Err is the underlying error.
	Err error
	// Element is the id of the element involved, if any.
	Element string
	// Path is the property path involved, if any.
	Path string
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *StageError) Error() string {
	switch {
	case e.Element != "" && e.Path != "":
		return fmt.Sprintf("%s [%s] element=%s path=%s: %v", e.Op, e.Kind, e.Element, e.Path, e.Err)
	case e.Element != "":
		return fmt.Sprintf("%s [%s] element=%s: %v", e.Op, e.Kind, e.Element, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "animation.Engine.Step").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// ErrorHandler receives errors reported by sessions.
type ErrorHandler interface {
	// HandleError is called when an error is reported.
	HandleError(err *StageError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool { return stderrors.As(err, target) }

// New returns an error that formats as the given text.
func New(text string) error { return stderrors.New(text) }

// KindOf returns the kind of the first StageError in err's chain.
func KindOf(err error) ErrorKind {
	var se *StageError
	if stderrors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}
