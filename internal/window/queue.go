package window

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/shaderplay/internal/app"
)

// queue buffers events produced by window callbacks until the loop
// polls them. At most one RedrawRequested is pending at a time.
type queue struct {
	events        []app.Event
	redrawPending bool
}

func (q *queue) push(ev app.Event) {
	q.events = append(q.events, ev)
}

func (q *queue) requestRedraw() {
	if q.redrawPending {
		return
	}
	q.redrawPending = true
	q.events = append(q.events, app.RedrawRequested{})
}

func (q *queue) pop() (app.Event, bool) {
	if len(q.events) == 0 {
		return nil, false
	}
	ev := q.events[0]
	q.events[0] = nil
	q.events = q.events[1:]
	if _, ok := ev.(app.RedrawRequested); ok {
		q.redrawPending = false
	}
	return ev, true
}

func (q *queue) len() int { return len(q.events) }

// cursorScale converts cursor positions from screen coordinates to
// framebuffer pixels. The two differ on platforms where the window size
// is reported in points.
func cursorScale(fbWidth, winWidth int) float64 {
	if winWidth <= 0 || fbWidth <= 0 {
		return 1
	}
	return float64(fbWidth) / float64(winWidth)
}

// Describe formats the size and scale of a window for logs.
func Describe(wp gpucontext.WindowProvider) string {
	w, h := wp.Size()
	return fmt.Sprintf("%dx%d@%.2fx", w, h, wp.ScaleFactor())
}
