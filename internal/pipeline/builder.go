// Package pipeline builds the render pipeline that wraps a user fragment
// shader around the fixed full-screen quad vertex stage.
package pipeline

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/shaderplay/internal/mesh"
	"github.com/gogpu/wgpu/hal"
)

//go:embed shaders/vertex.wgsl
var vertexShaderSource string

// Entry point names required of the two stages.
const (
	VertexEntryPoint   = "vs_main"
	FragmentEntryPoint = "fs_main"
)

// UniformSource supplies the buffers bound in group 0, in binding order.
type UniformSource interface {
	Buffers() []hal.Buffer
	Size() uint64
}

// Builder creates pipelines for one device and one surface format. The
// vertex stage and the bind group layout are created once and shared by
// every pipeline the builder returns.
type Builder struct {
	device   hal.Device
	format   gputypes.TextureFormat
	uniforms UniformSource

	vertex      hal.ShaderModule
	groupLayout hal.BindGroupLayout
}

// NewBuilder compiles the fixed vertex stage and the uniform layout.
func NewBuilder(device hal.Device, format gputypes.TextureFormat, uniforms UniformSource) (*Builder, error) {
	b := &Builder{device: device, format: format, uniforms: uniforms}

	vs, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "quad_vertex",
		Source: hal.ShaderSource{WGSL: vertexShaderSource},
	})
	if err != nil {
		return nil, fmt.Errorf("create vertex shader: %w", err)
	}
	b.vertex = vs

	entries := make([]gputypes.BindGroupLayoutEntry, len(uniforms.Buffers()))
	for i := range entries {
		entries[i] = gputypes.BindGroupLayoutEntry{
			Binding:    uint32(i),
			Visibility: gputypes.ShaderStagesVertexFragment,
			Buffer: &gputypes.BufferBindingLayout{
				Type:           gputypes.BufferBindingTypeUniform,
				MinBindingSize: uniforms.Size(),
			},
		}
	}
	layout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   "uniforms_layout",
		Entries: entries,
	})
	if err != nil {
		b.Destroy()
		return nil, fmt.Errorf("create uniforms bind group layout: %w", err)
	}
	b.groupLayout = layout
	return b, nil
}

// Format returns the color target format pipelines are built for.
func (b *Builder) Format() gputypes.TextureFormat { return b.format }

// Build creates a pipeline drawing the quad with fragmentSource. The
// source is checked before any device object is allocated; a shader that
// does not compile yields a *CompileError.
//
// Build never touches previously built pipelines. On failure everything
// allocated by this call is released.
func (b *Builder) Build(fragmentSource string) (*Pipeline, error) {
	if err := CheckFragment(fragmentSource); err != nil {
		return nil, err
	}

	p := &Pipeline{device: b.device}

	fs, err := b.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "user_fragment",
		Source: hal.ShaderSource{WGSL: fragmentSource},
	})
	if err != nil {
		if errors.Is(err, hal.ErrDeviceLost) {
			return nil, fmt.Errorf("create fragment shader: %w", err)
		}
		return nil, &CompileError{Stage: "fragment", Err: err}
	}
	p.fragment = fs

	pipeLayout, err := b.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "quad_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{b.groupLayout},
	})
	if err != nil {
		p.Destroy()
		return nil, classify("create pipeline layout", err)
	}
	p.layout = pipeLayout

	alphaBlend := gputypes.BlendStateAlpha()
	pipeline, err := b.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "quad_pipeline",
		Layout: pipeLayout,
		Vertex: hal.VertexState{
			Module:     b.vertex,
			EntryPoint: VertexEntryPoint,
			Buffers:    mesh.VertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     fs,
			EntryPoint: FragmentEntryPoint,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    b.format,
					Blend:     &alphaBlend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  gputypes.PrimitiveTopologyTriangleList,
			FrontFace: gputypes.FrontFaceCCW,
			CullMode:  gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		p.Destroy()
		return nil, classify("create render pipeline", err)
	}
	p.pipeline = pipeline

	bufs := b.uniforms.Buffers()
	entries := make([]gputypes.BindGroupEntry, len(bufs))
	for i, buf := range bufs {
		entries[i] = gputypes.BindGroupEntry{
			Binding: uint32(i),
			Resource: gputypes.BufferBinding{
				Buffer: buf.NativeHandle(),
				Offset: 0,
				Size:   b.uniforms.Size(),
			},
		}
	}
	group, err := b.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   "uniforms",
		Layout:  b.groupLayout,
		Entries: entries,
	})
	if err != nil {
		p.Destroy()
		return nil, classify("create uniforms bind group", err)
	}
	p.bindGroup = group
	return p, nil
}

// Destroy releases the shared vertex stage and layout. Pipelines built
// earlier must be destroyed first.
func (b *Builder) Destroy() {
	if b.groupLayout != nil {
		b.device.DestroyBindGroupLayout(b.groupLayout)
		b.groupLayout = nil
	}
	if b.vertex != nil {
		b.device.DestroyShaderModule(b.vertex)
		b.vertex = nil
	}
}

// CheckFragment parses and lowers src and verifies that it declares a
// fragment entry point named fs_main.
func CheckFragment(src string) error {
	ast, err := naga.Parse(src)
	if err != nil {
		return &CompileError{Stage: "fragment", Err: err}
	}
	module, err := naga.LowerWithSource(ast, src)
	if err != nil {
		return &CompileError{Stage: "fragment", Err: err}
	}
	for _, ep := range module.EntryPoints {
		if ep.Name == FragmentEntryPoint && ep.Stage == ir.StageFragment {
			return nil
		}
	}
	return &CompileError{
		Stage: "fragment",
		Err:   fmt.Errorf("missing @fragment entry point %q", FragmentEntryPoint),
	}
}

// Pipeline is one immutable build result. The render loop replaces it
// wholesale when the shader changes.
type Pipeline struct {
	device hal.Device

	fragment  hal.ShaderModule
	layout    hal.PipelineLayout
	pipeline  hal.RenderPipeline
	bindGroup hal.BindGroup
}

// Record binds the pipeline and its uniforms on rp.
func (p *Pipeline) Record(rp hal.RenderPassEncoder) {
	rp.SetPipeline(p.pipeline)
	rp.SetBindGroup(0, p.bindGroup, nil)
}

// Destroy releases the pipeline objects in reverse creation order. Safe
// to call more than once.
func (p *Pipeline) Destroy() {
	if p.bindGroup != nil {
		p.device.DestroyBindGroup(p.bindGroup)
		p.bindGroup = nil
	}
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.layout != nil {
		p.device.DestroyPipelineLayout(p.layout)
		p.layout = nil
	}
	if p.fragment != nil {
		p.device.DestroyShaderModule(p.fragment)
		p.fragment = nil
	}
}
