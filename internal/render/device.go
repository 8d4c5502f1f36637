// Package render owns every graphics object of the preview: the device,
// the configured surface, the quad, the uniforms and the active pipeline.
package render

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/shaderplay"
	"github.com/gogpu/wgpu/hal"
)

// ErrNoAdapter is returned by Open when none of the requested backends
// produced a device able to present to the window.
var ErrNoAdapter = errors.New("render: no usable GPU adapter")

// Target is a window that a surface can be created for.
type Target interface {
	// NativeHandles returns the platform display and window handles.
	NativeHandles() (display, window uintptr, err error)
}

// Device is an open logical device together with the window surface it
// presents to.
type Device struct {
	Backend gputypes.Backend
	Info    gpucontext.AdapterInfo

	Device  hal.Device
	Queue   hal.Queue
	Surface hal.Surface
	Caps    *hal.SurfaceCapabilities

	adapter  hal.Adapter
	instance hal.Instance
}

// Open tries each backend in order and returns the first one that yields
// a device compatible with target's surface. Discrete and integrated
// GPUs are preferred over other adapters of the same backend.
func Open(target Target, backends []gputypes.Backend) (*Device, error) {
	display, window, err := target.NativeHandles()
	if err != nil {
		return nil, err
	}

	var errs []error
	for _, variant := range backends {
		d, err := openBackend(variant, display, window)
		if err != nil {
			shaderplay.Logger().Debug("backend unavailable", "backend", variant.String(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", variant, err))
			continue
		}
		shaderplay.Logger().Info("GPU device opened",
			"backend", variant.String(), "adapter", d.Info.Name, "type", d.Info.Type.String())
		return d, nil
	}
	if len(errs) == 0 {
		return nil, ErrNoAdapter
	}
	return nil, fmt.Errorf("%w: %w", ErrNoAdapter, errors.Join(errs...))
}

func openBackend(variant gputypes.Backend, display, window uintptr) (*Device, error) {
	backend, ok := hal.GetBackend(variant)
	if !ok {
		return nil, hal.ErrBackendNotFound
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}

	surface, err := instance.CreateSurface(display, window)
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("create surface: %w", err)
	}

	adapters := instance.EnumerateAdapters(surface)
	if len(adapters) == 0 {
		surface.Destroy()
		instance.Destroy()
		return nil, errors.New("no adapters for surface")
	}
	selected := selectAdapter(adapters)

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		surface.Destroy()
		instance.Destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}

	caps := selected.Adapter.SurfaceCapabilities(surface)
	if caps == nil {
		openDev.Device.Destroy()
		surface.Destroy()
		instance.Destroy()
		return nil, errors.New("adapter cannot present to surface")
	}

	return &Device{
		Backend:  variant,
		Info:     adapterInfo(selected.Info),
		Device:   openDev.Device,
		Queue:    openDev.Queue,
		Surface:  surface,
		Caps:     caps,
		adapter:  selected.Adapter,
		instance: instance,
	}, nil
}

func selectAdapter(adapters []hal.ExposedAdapter) *hal.ExposedAdapter {
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			return &adapters[i]
		}
	}
	return &adapters[0]
}

func adapterInfo(info gputypes.AdapterInfo) gpucontext.AdapterInfo {
	t := gpucontext.AdapterTypeUnknown
	switch info.DeviceType {
	case gputypes.DeviceTypeDiscreteGPU:
		t = gpucontext.AdapterTypeDiscrete
	case gputypes.DeviceTypeIntegratedGPU:
		t = gpucontext.AdapterTypeIntegrated
	case gputypes.DeviceTypeCPU:
		t = gpucontext.AdapterTypeSoftware
	}
	return gpucontext.AdapterInfo{Name: info.Name, Type: t}
}

// Release destroys the device, the adapter and the instance. The surface
// is owned by the surface manager and must be destroyed before Release.
func (d *Device) Release() {
	if d.Device != nil {
		d.Device.Destroy()
		d.Device = nil
	}
	if d.adapter != nil {
		d.adapter.Destroy()
		d.adapter = nil
	}
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
}
