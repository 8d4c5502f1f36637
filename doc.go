// Package shaderplay is a live-reloading WGSL shader playground.
//
// # Overview
//
// shaderplay opens a single window and fills it with one full-screen quad.
// The color of every pixel comes from a user-editable WGSL fragment shader
// (./main.wgsl by default). Saving the file swaps the shader in the running
// window; a shader that fails to compile is reported and the previous one
// keeps drawing.
//
// # Quick Start
//
//	$ shaderplay -init      # writes a starter main.wgsl
//	$ $EDITOR main.wgsl     # every save reloads the window
//
// # Shader Interface
//
// The fragment shader must declare an entry point named fs_main. The fixed
// vertex stage passes the clip-space position of the quad, and two uniforms
// are bound in group 0:
//
//	@group(0) @binding(0) var<uniform> mouse: vec2<f32>;  // cursor, pixels
//	@group(0) @binding(1) var<uniform> resolution: vec2<u32>; // framebuffer size
//
//	@fragment
//	fn fs_main(@builtin(position) pos: vec4<f32>) -> @location(0) vec4<f32> {
//	    let uv = pos.xy / vec2<f32>(resolution);
//	    return vec4<f32>(uv, 0.5, 1.0);
//	}
//
// Output is alpha blended over a black clear color.
//
// # Architecture
//
// The package holds configuration and logging. The work is done by:
//   - internal/mesh: quad geometry and uniform buffers
//   - internal/pipeline: render pipeline construction around the user shader
//   - internal/surface: swapchain configuration and frame acquisition
//   - internal/watch: file change notification
//   - internal/render: the GPU state aggregate
//   - internal/app: the render loop and event dispatch
//   - internal/window: the GLFW host window
package shaderplay

// Version information
const (
	// Version is the current version of the tool
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
