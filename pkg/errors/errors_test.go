package errors

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestStageErrorString(t *testing.T) {
	err := &StageError{
		Op:   "test.operation",
		Kind: KindRender,
		Err:  ErrUnsupportedFormat,
	}
	got := err.Error()
	want := "test.operation [render]: unsupported image format"
	if got != want {
		t.Errorf("StageError.Error() = %q, want %q", got, want)
	}
}

func TestStageErrorWithElementAndPath(t *testing.T) {
	err := &StageError{
		Op:      "stage.Session.Animate",
		Kind:    KindNotFound,
		Err:     ErrPathUnresolved,
		Element: "el-1",
		Path:    "shape.x",
	}
	got := err.Error()
	for _, want := range []string{"element=el-1", "path=shape.x", "[not-found]"} {
		if !strings.Contains(got, want) {
			t.Errorf("error string %q should contain %q", got, want)
		}
	}
	if !Is(err, ErrPathUnresolved) {
		t.Error("expected StageError to unwrap to ErrPathUnresolved")
	}
}

func TestErrorKindString(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want string
	}{
		{KindUnknown, "unknown"},
		{KindNotFound, "not-found"},
		{KindDisposed, "disposed"},
		{KindInit, "init"},
		{KindRender, "render"},
		{KindExport, "export"},
		{KindPanic, "panic"},
		{KindDuplicate, "duplicate"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("ErrorKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestKindOf(t *testing.T) {
	wrapped := &StageError{Op: "x", Kind: KindInit, Err: ErrBackendUnavailable}
	if got := KindOf(wrapped); got != KindInit {
		t.Errorf("KindOf = %v, want %v", got, KindInit)
	}
	if got := KindOf(ErrNoTarget); got != KindUnknown {
		t.Errorf("KindOf(plain) = %v, want %v", got, KindUnknown)
	}
}

func TestPanicErrorString(t *testing.T) {
	err := &PanicError{
		Op:        "animation.Engine.Step",
		Value:     "test panic",
		Timestamp: time.Now(),
	}
	want := "panic in animation.Engine.Step: test panic"
	if got := err.Error(); got != want {
		t.Errorf("PanicError.Error() = %q, want %q", got, want)
	}
	if got := (&PanicError{Value: "bare"}).Error(); got != "panic: bare" {
		t.Errorf("PanicError.Error() = %q, want %q", got, "panic: bare")
	}
}

func TestReport(t *testing.T) {
	var captured *StageError
	prev := SetHandler(&testHandler{onError: func(err *StageError) { captured = err }})
	defer SetHandler(prev)

	NotFound("test.op", ErrNoTarget, "missing", "")

	if captured == nil {
		t.Fatal("expected error to be captured")
	}
	if captured.Op != "test.op" || captured.Kind != KindNotFound {
		t.Errorf("captured = %+v", captured)
	}
	if captured.Timestamp.IsZero() {
		t.Error("expected Timestamp to be set")
	}
}

func TestRecover(t *testing.T) {
	var captured *PanicError
	prev := SetHandler(&testHandler{onPanic: func(err *PanicError) { captured = err }})
	defer SetHandler(prev)

	func() {
		defer Recover("test.recover")
		panic("intentional test panic")
	}()

	if captured == nil {
		t.Fatal("expected panic to be recovered and captured")
	}
	if captured.Op != "test.recover" {
		t.Errorf("Op = %q, want %q", captured.Op, "test.recover")
	}
}

func TestDisposedPanics(t *testing.T) {
	defer func() {
		r := recover()
		se, ok := r.(*StageError)
		if !ok {
			t.Fatalf("recovered %T, want *StageError", r)
		}
		if se.Kind != KindDisposed || !Is(se, ErrDisposed) {
			t.Errorf("recovered %+v", se)
		}
	}()
	Disposed("stage.Session.Add")
}

func TestSetHandlerNil(t *testing.T) {
	prev := SetHandler(nil)
	defer SetHandler(prev)
	if _, ok := getHandler().(*LogHandler); !ok {
		t.Errorf("SetHandler(nil) should set LogHandler, got %T", getHandler())
	}
}

func TestLogHandlerLevels(t *testing.T) {
	var buf bytes.Buffer
	h := &LogHandler{Logger: NewLogger(&buf, slog.LevelDebug)}

	h.HandleError(&StageError{Op: "a", Kind: KindNotFound, Err: ErrNoTarget, Element: "e1"})
	h.HandleError(&StageError{Op: "b", Kind: KindRender, Err: ErrUnsupportedFormat})
	h.HandlePanic(&PanicError{Op: "c", Value: "boom"})

	out := buf.String()
	for _, want := range []string{"WARN", "ERROR", "element=e1", "op=b", "value=boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q should contain %q", out, want)
		}
	}
}

func TestCaptureStack(t *testing.T) {
	stack := CaptureStack()
	if !strings.Contains(stack, "testing") && !strings.Contains(stack, "runtime") {
		t.Errorf("stack trace should contain testing or runtime frames, got: %s", stack)
	}
}

type testHandler struct {
	onError func(*StageError)
	onPanic func(*PanicError)
}

func (h *testHandler) HandleError(err *StageError) {
	if h.onError != nil {
		h.onError(err)
	}
}

func (h *testHandler) HandlePanic(err *PanicError) {
	if h.onPanic != nil {
		h.onPanic(err)
	}
}
