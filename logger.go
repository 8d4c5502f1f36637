package shaderplay

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/wgpu/hal"
)

// SubsystemKey is the attribute key that tags log records with the
// component that produced them. [LevelHandler] uses it to apply
// per-subsystem minimum levels.
const SubsystemKey = "subsystem"

// SubsystemGPU tags records emitted by the wgpu HAL backends.
const SubsystemGPU = "wgpu"

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine
// (the shader watcher logs from its own goroutine).
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	l := newNopLogger()
	loggerPtr.Store(l)
}

// SetLogger configures the logger for shaderplay and all its sub-packages.
// By default, shaderplay produces no log output.
//
// The logger is also handed to the wgpu HAL, tagged with
// SubsystemKey=SubsystemGPU so that a [LevelHandler] can keep backend
// chatter at a higher level than the application's own records.
//
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by shaderplay:
//   - [slog.LevelDebug]: per-frame diagnostics (skipped frames, ignored fs events)
//   - [slog.LevelInfo]: lifecycle events (adapter selected, shader reloaded)
//   - [slog.LevelWarn]: non-fatal issues (shader compile errors, unreadable files)
//   - [slog.LevelError]: unrecoverable device errors
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	hal.SetLogger(l.With(SubsystemKey, SubsystemGPU))
}

// Logger returns the current logger used by shaderplay.
// Sub-packages call this to share the same logger configuration.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// LevelHandler wraps a slog.Handler and applies a minimum level per
// subsystem. Records from a logger carrying SubsystemKey=name are checked
// against levels[name]; all other records are checked against the base
// level.
type LevelHandler struct {
	inner  slog.Handler
	levels map[string]slog.Level
	min    slog.Leveler
}

// NewLevelHandler returns a handler filtering at base, with per-subsystem
// overrides taken from levels. The wrapped handler should accept every
// level the overrides can let through.
func NewLevelHandler(inner slog.Handler, base slog.Leveler, levels map[string]slog.Level) *LevelHandler {
	return &LevelHandler{inner: inner, levels: levels, min: base}
}

// Enabled reports whether a record at level passes the active floor and
// the wrapped handler.
func (h *LevelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if level < h.min.Level() {
		return false
	}
	return h.inner.Enabled(ctx, level)
}

// Handle forwards the record to the wrapped handler.
func (h *LevelHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.inner.Handle(ctx, r)
}

// WithAttrs switches to the subsystem floor when attrs carry SubsystemKey.
func (h *LevelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.inner = h.inner.WithAttrs(attrs)
	for _, a := range attrs {
		if a.Key != SubsystemKey {
			continue
		}
		if lvl, ok := h.levels[a.Value.String()]; ok {
			next.min = lvl
		}
	}
	return &next
}

// WithGroup forwards to the wrapped handler.
func (h *LevelHandler) WithGroup(name string) slog.Handler {
	next := *h
	next.inner = h.inner.WithGroup(name)
	return &next
}

// NewLogger builds the text logger used by the executable. Application
// records below level are dropped; GPU backend records are filtered at
// gpuLevel instead.
func NewLogger(w io.Writer, level, gpuLevel slog.Level) *slog.Logger {
	text := slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(NewLevelHandler(text, level, map[string]slog.Level{
		SubsystemGPU: gpuLevel,
	}))
}
