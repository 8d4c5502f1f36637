// Package window opens the preview window with GLFW and translates its
// callbacks into loop events.
package window

import (
	"errors"
	"fmt"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/shaderplay/internal/app"
)

// ErrUnsupportedPlatform is returned by NativeHandles on platforms where
// no surface can be created from a GLFW window.
var ErrUnsupportedPlatform = errors.New("window: native handles not supported on this platform")

// Window is a GLFW window without a client API; the GPU surface is
// created from its native handles. All methods must be called from the
// main OS thread.
type Window struct {
	win    *glfw.Window
	events queue
}

var (
	_ app.Window                = (*Window)(nil)
	_ gpucontext.WindowProvider = (*Window)(nil)
)

// New initializes GLFW and opens a resizable window.
func New(title string, width, height int) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("init glfw: %w", err)
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create window: %w", err)
	}

	w := &Window{win: win}
	win.SetCloseCallback(func(*glfw.Window) {
		w.events.push(app.CloseRequested{})
	})
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.events.push(app.Resized{Width: clampSize(width), Height: clampSize(height)})
	})
	win.SetContentScaleCallback(func(gw *glfw.Window, x, _ float32) {
		fw, fh := gw.GetFramebufferSize()
		w.events.push(app.ScaleFactorChanged{
			Scale:  float64(x),
			Width:  clampSize(fw),
			Height: clampSize(fh),
		})
	})
	win.SetCursorPosCallback(func(gw *glfw.Window, x, y float64) {
		fw, _ := gw.GetFramebufferSize()
		ww, _ := gw.GetSize()
		s := cursorScale(fw, ww)
		w.events.push(app.CursorMoved{X: x * s, Y: y * s})
	})
	return w, nil
}

func clampSize(v int) uint32 {
	if v < 0 {
		return 0
	}
	return uint32(v)
}

// PollEvent returns the next pending event, pumping the GLFW event queue
// when nothing is buffered. It never blocks.
func (w *Window) PollEvent() (app.Event, bool) {
	if w.events.len() == 0 {
		glfw.PollEvents()
	}
	return w.events.pop()
}

// RequestRedraw queues a RedrawRequested event.
func (w *Window) RequestRedraw() { w.events.requestRedraw() }

// FramebufferSize returns the drawable size in pixels.
func (w *Window) FramebufferSize() (width, height uint32) {
	fw, fh := w.win.GetFramebufferSize()
	return clampSize(fw), clampSize(fh)
}

// Size returns the window size in screen coordinates.
func (w *Window) Size() (width, height int) { return w.win.GetSize() }

// ScaleFactor returns the horizontal content scale.
func (w *Window) ScaleFactor() float64 {
	x, _ := w.win.GetContentScale()
	return float64(x)
}

// Destroy closes the window and terminates GLFW.
func (w *Window) Destroy() {
	w.win.Destroy()
	glfw.Terminate()
}
