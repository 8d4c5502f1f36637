package render

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/shaderplay"
	"github.com/gogpu/shaderplay/internal/mesh"
	"github.com/gogpu/shaderplay/internal/pipeline"
	"github.com/gogpu/shaderplay/internal/surface"
	"github.com/gogpu/wgpu/hal"
)

// ErrorHandler receives every pipeline build failure. It is called
// synchronously on the render goroutine.
type ErrorHandler func(err error)

// Option configures a [GPU].
type Option func(*GPU)

// WithErrorHandler replaces the handler that logs build failures.
func WithErrorHandler(h ErrorHandler) Option {
	return func(g *GPU) {
		if h != nil {
			g.onError = h
		}
	}
}

// WithClearColor sets the color the frame is cleared to before the quad
// is drawn. It shows through wherever the shader outputs alpha below one.
func WithClearColor(c gputypes.Color) Option {
	return func(g *GPU) { g.clearColor = c }
}

// submission is a command buffer the GPU may still be reading.
type submission struct {
	index   uint64
	encoder hal.CommandEncoder
	cmd     hal.CommandBuffer
}

// GPU is the single owner of the device objects. All methods must be
// called from the goroutine that created it.
type GPU struct {
	dev *Device

	surface  *surface.Manager
	quad     *mesh.Quad
	uniforms *mesh.Uniforms
	builder  *pipeline.Builder
	active   *pipeline.Pipeline

	clearColor gputypes.Color
	onError    ErrorHandler
	inFlight   []submission
	fatal      error
}

// New configures the surface at width x height, uploads the quad and the
// uniforms and builds the first pipeline from fragmentSource. A shader
// that does not compile at startup is returned as an error.
//
// New takes ownership of dev: Destroy releases it, and so does New itself
// when it fails.
func New(dev *Device, width, height uint32, fragmentSource string, opts ...Option) (*GPU, error) {
	g := &GPU{
		dev:        dev,
		clearColor: gputypes.Color{R: 0, G: 0, B: 0, A: 1},
		onError:    logBuildError,
	}
	for _, opt := range opts {
		opt(g)
	}

	var err error
	g.surface, err = surface.New(dev.Device, dev.Queue, dev.Surface, dev.Caps, width, height)
	if err != nil {
		dev.Surface.Destroy()
		dev.Release()
		return nil, fmt.Errorf("configure surface: %w", err)
	}
	g.quad, err = mesh.NewQuad(dev.Device, dev.Queue)
	if err != nil {
		g.destroyResources()
		dev.Release()
		return nil, fmt.Errorf("create quad: %w", err)
	}
	g.uniforms, err = mesh.NewUniforms(dev.Device, dev.Queue, width, height)
	if err != nil {
		g.destroyResources()
		dev.Release()
		return nil, fmt.Errorf("create uniforms: %w", err)
	}
	g.builder, err = pipeline.NewBuilder(dev.Device, g.surface.Format(), g.uniforms)
	if err != nil {
		g.destroyResources()
		dev.Release()
		return nil, fmt.Errorf("create pipeline builder: %w", err)
	}
	g.active, err = g.builder.Build(fragmentSource)
	if err != nil {
		g.destroyResources()
		dev.Release()
		return nil, fmt.Errorf("build initial pipeline: %w", err)
	}
	return g, nil
}

func logBuildError(err error) {
	if pipeline.IsValidation(err) {
		shaderplay.Logger().Error("shader rejected, keeping previous pipeline", "error", err)
		return
	}
	shaderplay.Logger().Error("pipeline build failed", "error", err)
}

// ReloadFragmentShader builds a pipeline from src and makes it active.
// On failure the error goes to the ErrorHandler and the previous
// pipeline keeps drawing; a failure that is not a validation error also
// marks the GPU as failed (see Err).
func (g *GPU) ReloadFragmentShader(src string) {
	p, err := g.builder.Build(src)
	if err != nil {
		g.onError(err)
		if !pipeline.IsValidation(err) {
			g.fatal = err
		}
		return
	}

	// The old pipeline may still be referenced by in-flight frames.
	if err := g.dev.Device.WaitIdle(); err != nil {
		shaderplay.Logger().Warn("wait for GPU before pipeline swap", "error", err)
	}
	g.reclaim(true)
	old := g.active
	g.active = p
	old.Destroy()
	shaderplay.Logger().Info("shader reloaded")
}

// Resize reconfigures the surface and uploads the new dimensions.
func (g *GPU) Resize(width, height uint32) {
	if err := g.surface.Configure(width, height); err != nil {
		shaderplay.Logger().Warn("surface reconfigure failed", "error", err)
	}
	g.uniforms.SetDimensions(width, height)
}

// MoveCursor uploads the cursor position in window pixels.
func (g *GPU) MoveCursor(x, y float64) {
	g.uniforms.SetCursor(x, y)
}

// Render draws one frame with the active pipeline and presents it.
// Errors are per-frame: the caller skips the frame and carries on. A lost
// device is additionally recorded in Err.
func (g *GPU) Render() error {
	g.reclaim(false)

	frame, err := g.surface.CurrentFrame()
	if err != nil {
		return err
	}

	encoder, cmd, err := g.encode(frame)
	if err != nil {
		g.surface.Discard(frame)
		return err
	}

	index, err := g.dev.Queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		g.dev.Device.FreeCommandBuffer(cmd)
		encoder.Destroy()
		g.surface.Discard(frame)
		if errors.Is(err, hal.ErrDeviceLost) {
			g.fatal = err
		}
		return fmt.Errorf("submit: %w", err)
	}
	g.inFlight = append(g.inFlight, submission{index: index, encoder: encoder, cmd: cmd})

	if err := g.surface.Present(frame); err != nil {
		if errors.Is(err, hal.ErrDeviceLost) {
			g.fatal = err
		}
		return err
	}
	return nil
}

func (g *GPU) encode(frame *surface.Frame) (hal.CommandEncoder, hal.CommandBuffer, error) {
	encoder, err := g.dev.Device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "frame_encoder",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("frame"); err != nil {
		encoder.Destroy()
		return nil, nil, fmt.Errorf("begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "quad_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       frame.View,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: g.clearColor,
		}},
	})
	g.active.Record(rp)
	rp.SetVertexBuffer(0, g.quad.VertexBuffer(), 0)
	rp.SetIndexBuffer(g.quad.IndexBuffer(), g.quad.IndexFormat(), 0)
	rp.DrawIndexed(g.quad.IndexCount(), 1, 0, 0, 0)
	rp.End()

	cmd, err := encoder.EndEncoding()
	if err != nil {
		encoder.Destroy()
		return nil, nil, fmt.Errorf("end encoding: %w", err)
	}
	return encoder, cmd, nil
}

// reclaim frees command buffers of completed submissions, or all of them
// when all is set and the device is known to be idle.
func (g *GPU) reclaim(all bool) {
	if len(g.inFlight) == 0 {
		return
	}
	done := g.dev.Queue.PollCompleted()
	kept := g.inFlight[:0]
	for _, s := range g.inFlight {
		if all || s.index <= done {
			g.dev.Device.FreeCommandBuffer(s.cmd)
			s.encoder.Destroy()
			continue
		}
		kept = append(kept, s)
	}
	clear(g.inFlight[len(kept):])
	g.inFlight = kept
}

// Err returns the unrecoverable error that stopped the GPU, if any.
func (g *GPU) Err() error { return g.fatal }

// Info describes the adapter in use.
func (g *GPU) Info() gpucontext.AdapterInfo { return g.dev.Info }

// SurfaceConfig returns the current swapchain configuration.
func (g *GPU) SurfaceConfig() surface.Config { return g.surface.Config() }

// Uniforms returns the live uniform values.
func (g *GPU) Uniforms() *mesh.Uniforms { return g.uniforms }

// Destroy waits for the GPU and releases everything in reverse creation
// order, including the device.
func (g *GPU) Destroy() {
	if err := g.dev.Device.WaitIdle(); err != nil {
		shaderplay.Logger().Warn("wait for GPU on shutdown", "error", err)
	}
	g.reclaim(true)
	g.destroyResources()
	g.dev.Release()
}

func (g *GPU) destroyResources() {
	if g.active != nil {
		g.active.Destroy()
		g.active = nil
	}
	if g.builder != nil {
		g.builder.Destroy()
		g.builder = nil
	}
	if g.uniforms != nil {
		g.uniforms.Destroy()
		g.uniforms = nil
	}
	if g.quad != nil {
		g.quad.Destroy()
		g.quad = nil
	}
	if g.surface != nil {
		g.surface.Destroy()
		g.surface = nil
	}
}
