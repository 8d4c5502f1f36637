// Package surface configures the window swapchain and hands out frames.
package surface

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/shaderplay"
	"github.com/gogpu/wgpu/hal"
)

var (
	// ErrZeroSize is returned by CurrentFrame while the window has no
	// drawable area (minimized).
	ErrZeroSize = errors.New("surface: zero-sized window")

	// ErrNotConfigured is returned by CurrentFrame after the last
	// Configure call failed.
	ErrNotConfigured = errors.New("surface: not configured")

	// ErrNoFormat is returned when the adapter reports no usable format
	// or alpha mode for the surface.
	ErrNoFormat = errors.New("surface: adapter reports no surface format")
)

// Config is the active swapchain configuration.
type Config struct {
	Width       uint32
	Height      uint32
	Format      gputypes.TextureFormat
	AlphaMode   gputypes.CompositeAlphaMode
	PresentMode gputypes.PresentMode
	Usage       gputypes.TextureUsage
}

// Manager owns the configuration of one surface. Configure and
// CurrentFrame are called from the render thread only.
type Manager struct {
	device  hal.Device
	queue   hal.Queue
	surface hal.Surface

	cfg        Config
	configured bool
}

// Frame is one acquired swapchain image and a view onto it.
type Frame struct {
	texture hal.SurfaceTexture
	View    hal.TextureView
}

// New picks the first format and alpha mode the adapter reports, FIFO
// presentation and render-attachment usage, then configures the surface
// at width x height.
func New(device hal.Device, queue hal.Queue, surface hal.Surface, caps *hal.SurfaceCapabilities, width, height uint32) (*Manager, error) {
	if caps == nil || len(caps.Formats) == 0 || len(caps.AlphaModes) == 0 {
		return nil, ErrNoFormat
	}
	m := &Manager{
		device:  device,
		queue:   queue,
		surface: surface,
		cfg: Config{
			Format:      caps.Formats[0],
			AlphaMode:   caps.AlphaModes[0],
			PresentMode: gputypes.PresentModeFifo,
			Usage:       gputypes.TextureUsageRenderAttachment,
		},
	}
	if err := m.Configure(width, height); err != nil {
		return nil, err
	}
	return m, nil
}

// Configure resizes the swapchain. The new size takes effect before the
// call returns. A zero dimension is recorded but leaves the surface
// unconfigured until a non-zero size arrives.
func (m *Manager) Configure(width, height uint32) error {
	m.cfg.Width, m.cfg.Height = width, height
	if width == 0 || height == 0 {
		if m.configured {
			m.surface.Unconfigure(m.device)
			m.configured = false
		}
		return nil
	}

	err := m.surface.Configure(m.device, &hal.SurfaceConfiguration{
		Width:       width,
		Height:      height,
		Format:      m.cfg.Format,
		Usage:       m.cfg.Usage,
		PresentMode: m.cfg.PresentMode,
		AlphaMode:   m.cfg.AlphaMode,
	})
	if err != nil {
		m.configured = false
		return fmt.Errorf("configure surface %dx%d: %w", width, height, err)
	}
	m.configured = true
	return nil
}

// Config returns the current configuration.
func (m *Manager) Config() Config { return m.cfg }

// Format returns the swapchain texture format.
func (m *Manager) Format() gputypes.TextureFormat { return m.cfg.Format }

// CurrentFrame acquires the next image to draw into. Errors are not
// fatal: the caller skips the frame. An outdated or lost swapchain is
// reconfigured at the current size before the error is returned, so the
// next call can succeed.
func (m *Manager) CurrentFrame() (*Frame, error) {
	if !m.configured {
		if m.cfg.Width == 0 || m.cfg.Height == 0 {
			return nil, ErrZeroSize
		}
		return nil, ErrNotConfigured
	}

	acquired, err := m.surface.AcquireTexture(nil)
	if err != nil {
		if errors.Is(err, hal.ErrSurfaceOutdated) || errors.Is(err, hal.ErrSurfaceLost) {
			if rerr := m.Configure(m.cfg.Width, m.cfg.Height); rerr != nil {
				return nil, errors.Join(err, rerr)
			}
		}
		return nil, fmt.Errorf("acquire surface texture: %w", err)
	}
	if acquired.Suboptimal {
		shaderplay.Logger().Debug("surface: suboptimal swapchain image",
			"width", m.cfg.Width, "height", m.cfg.Height)
	}

	view, err := m.device.CreateTextureView(acquired.Texture, &hal.TextureViewDescriptor{
		Label:         "frame_view",
		Format:        m.cfg.Format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		m.surface.DiscardTexture(acquired.Texture)
		return nil, fmt.Errorf("create frame view: %w", err)
	}
	return &Frame{texture: acquired.Texture, View: view}, nil
}

// Present queues the frame for display and releases its view.
func (m *Manager) Present(f *Frame) error {
	defer m.device.DestroyTextureView(f.View)
	if err := m.queue.Present(m.surface, f.texture, nil); err != nil {
		return fmt.Errorf("present: %w", err)
	}
	return nil
}

// Discard drops a frame that will not be presented.
func (m *Manager) Discard(f *Frame) {
	m.device.DestroyTextureView(f.View)
	m.surface.DiscardTexture(f.texture)
}

// Destroy unconfigures and releases the surface.
func (m *Manager) Destroy() {
	if m.configured {
		m.surface.Unconfigure(m.device)
		m.configured = false
	}
	m.surface.Destroy()
}
