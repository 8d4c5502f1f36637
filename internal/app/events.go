package app

// Event is a window event consumed by the loop.
type Event interface{}

// CloseRequested asks the loop to stop.
type CloseRequested struct{}

// Resized reports a new framebuffer size in physical pixels.
type Resized struct {
	Width, Height uint32
}

// ScaleFactorChanged reports a content scale change and the framebuffer
// size that results from it.
type ScaleFactorChanged struct {
	Scale         float64
	Width, Height uint32
}

// CursorMoved reports the cursor position in window pixels, origin top
// left. Positions outside the window are reported as is.
type CursorMoved struct {
	X, Y float64
}

// RedrawRequested is delivered once after each Window.RequestRedraw.
type RedrawRequested struct{}
