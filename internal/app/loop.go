// Package app drives the preview: it feeds window events and reloaded
// shader sources to the renderer, one of each per iteration.
package app

import (
	"context"

	"github.com/gogpu/shaderplay"
)

// Window is the event source the loop polls.
type Window interface {
	// PollEvent returns the next pending event without blocking.
	PollEvent() (Event, bool)
	// RequestRedraw schedules a RedrawRequested event.
	RequestRedraw()
}

// Renderer is the GPU side of the loop.
type Renderer interface {
	ReloadFragmentShader(src string)
	Resize(width, height uint32)
	MoveCursor(x, y float64)
	Render() error
	// Err returns a non-nil error once the renderer cannot continue.
	Err() error
}

// State is the frame state of the loop.
type State int

const (
	// Idle means no frame is pending.
	Idle State = iota
	// FrameRequested means a redraw was requested and not yet delivered.
	FrameRequested
	// Rendering means a frame is being drawn.
	Rendering
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case FrameRequested:
		return "FrameRequested"
	case Rendering:
		return "Rendering"
	default:
		return "Unknown"
	}
}

// Loop owns no resources. It must run on the goroutine that owns the
// window and the renderer.
type Loop struct {
	window   Window
	renderer Renderer
	sources  <-chan string

	state  State
	closed bool
}

// New returns a loop over window and renderer. sources may be nil when
// hot reload is disabled.
func New(window Window, renderer Renderer, sources <-chan string) *Loop {
	return &Loop{window: window, renderer: renderer, sources: sources}
}

// State returns the current frame state.
func (l *Loop) State() State { return l.state }

// Closed reports whether a CloseRequested event was processed.
func (l *Loop) Closed() bool { return l.closed }

// Step runs one iteration: at most one shader source, then at most one
// window event. When no event is pending and no frame is outstanding a
// redraw is requested. It reports whether the loop should continue.
func (l *Loop) Step() bool {
	select {
	case src, ok := <-l.sources:
		if !ok {
			l.sources = nil
			break
		}
		l.renderer.ReloadFragmentShader(src)
	default:
	}

	ev, ok := l.window.PollEvent()
	if !ok {
		if l.state == Idle {
			l.state = FrameRequested
			l.window.RequestRedraw()
		}
		return !l.closed
	}
	l.dispatch(ev)
	return !l.closed
}

func (l *Loop) dispatch(ev Event) {
	switch e := ev.(type) {
	case CloseRequested:
		l.closed = true
	case Resized:
		l.renderer.Resize(e.Width, e.Height)
	case ScaleFactorChanged:
		l.renderer.Resize(e.Width, e.Height)
	case CursorMoved:
		l.renderer.MoveCursor(e.X, e.Y)
	case RedrawRequested:
		l.state = Rendering
		if err := l.renderer.Render(); err != nil {
			shaderplay.Logger().Debug("frame skipped", "error", err)
		}
		l.state = Idle
	default:
		shaderplay.Logger().Debug("unhandled window event", "event", ev)
	}
}

// Run steps until the window is closed, ctx is done or the renderer
// fails. Closing the window and cancelling ctx both return nil.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if !l.Step() {
			return nil
		}
		if err := l.renderer.Err(); err != nil {
			return err
		}
	}
}
