//go:build !(linux && !wayland) && !windows

package window

// NativeHandles is not implemented here: Metal needs a CAMetalLayer and
// Wayland needs a wl_surface, neither of which GLFW 3.3 exposes in a form
// the HAL accepts.
func (w *Window) NativeHandles() (display, window uintptr, err error) {
	return 0, 0, ErrUnsupportedPlatform
}
