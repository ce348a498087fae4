package errors

import (
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/muesli/termenv"
)

var (
	loggerMu sync.RWMutex
	logger   = NewLogger(os.Stderr, slog.LevelInfo)
)

// NewLogger returns a text slog.Logger writing to w at the given level.
// Level names are coloured when w is a terminal that supports it.
func NewLogger(w io.Writer, level slog.Leveler) *slog.Logger {
	out := termenv.NewOutput(w)
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 || a.Key != slog.LevelKey {
				return a
			}
			lvl, ok := a.Value.Any().(slog.Level)
			if !ok {
				return a
			}
			return slog.String(a.Key, levelStyle(out, lvl))
		},
	}))
}

func levelStyle(out *termenv.Output, lvl slog.Level) string {
	s := out.String(lvl.String())
	switch {
	case lvl >= slog.LevelError:
		s = s.Foreground(termenv.ANSIRed).Bold()
	case lvl >= slog.LevelWarn:
		s = s.Foreground(termenv.ANSIYellow)
	case lvl >= slog.LevelInfo:
		s = s.Foreground(termenv.ANSIGreen)
	default:
		s = s.Faint()
	}
	return s.String()
}

// Logger returns the package logger used by sessions and LogHandler.
func Logger() *slog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

// SetLogger replaces the package logger and returns the previous one.
// Pass nil to restore a stderr logger at info level.
func SetLogger(l *slog.Logger) *slog.Logger {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	prev := logger
	if l == nil {
		l = NewLogger(os.Stderr, slog.LevelInfo)
	}
	logger = l
	return prev
}

// LogHandler is an ErrorHandler that logs through slog.
type LogHandler struct {
	// Verbose enables detailed output including stack traces.
	Verbose bool
	// Logger overrides the package logger when set.
	Logger *slog.Logger
}

func (h *LogHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return Logger()
}

// HandleError logs a StageError. Not-found conditions are warnings,
// everything else is an error.
func (h *LogHandler) HandleError(err *StageError) {
	if err == nil {
		return
	}
	attrs := []any{slog.String("op", err.Op), slog.String("kind", err.Kind.String())}
	if err.Element != "" {
		attrs = append(attrs, slog.String("element", err.Element))
	}
	if err.Path != "" {
		attrs = append(attrs, slog.String("path", err.Path))
	}
	if h.Verbose && err.StackTrace != "" {
		attrs = append(attrs, slog.String("stack", err.StackTrace))
	}
	msg := "stage error"
	if err.Err != nil {
		msg = err.Err.Error()
	}
	if err.Kind == KindNotFound {
		h.logger().Warn(msg, attrs...)
		return
	}
	h.logger().Error(msg, attrs...)
}

// HandlePanic logs a PanicError.
func (h *LogHandler) HandlePanic(err *PanicError) {
	if err == nil {
		return
	}
	attrs := []any{slog.Any("value", err.Value)}
	if err.Op != "" {
		attrs = append(attrs, slog.String("op", err.Op))
	}
	if h.Verbose && err.StackTrace != "" {
		attrs = append(attrs, slog.String("stack", err.StackTrace))
	}
	h.logger().Error("recovered panic", attrs...)
}
