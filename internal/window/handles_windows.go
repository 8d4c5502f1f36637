//go:build windows

package window

import "unsafe"

// NativeHandles returns the HWND of the window. The module handle is
// resolved by the backend.
func (w *Window) NativeHandles() (display, window uintptr, err error) {
	return 0, uintptr(unsafe.Pointer(w.win.GetWin32Window())), nil
}
