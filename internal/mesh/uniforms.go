package mesh

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/shaderplay"
	"github.com/gogpu/wgpu/hal"
)

// Uniform binding slots in group 0.
const (
	BindingCursor     = 0
	BindingDimensions = 1
)

// uniformSize is the byte size of both slots: two 32-bit scalars.
const uniformSize = 8

// Uniforms holds the two live values exposed to the shader and their
// device buffers. Every setter uploads immediately, so the next frame
// always sees the latest value.
type Uniforms struct {
	device hal.Device
	queue  hal.Queue

	cursor     [2]float32
	dimensions [2]uint32

	cursorBuf     hal.Buffer
	dimensionsBuf hal.Buffer
}

// NewUniforms creates the cursor slot at (0, 0) and the dimension slot at
// (width, height).
func NewUniforms(device hal.Device, queue hal.Queue, width, height uint32) (*Uniforms, error) {
	u := &Uniforms{
		device:     device,
		queue:      queue,
		dimensions: [2]uint32{width, height},
	}

	usage := gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst
	cb, err := createInitBuffer(device, queue, "MOUSE_POS", usage, encodeCursor(u.cursor))
	if err != nil {
		return nil, err
	}
	u.cursorBuf = cb

	db, err := createInitBuffer(device, queue, "WINDOW_DIMENSION", usage, encodeDimensions(u.dimensions))
	if err != nil {
		u.Destroy()
		return nil, err
	}
	u.dimensionsBuf = db
	return u, nil
}

// SetCursor stores the cursor position in physical pixels. Values are
// narrowed to float32 and not clamped; positions outside the window are
// passed through.
func (u *Uniforms) SetCursor(x, y float64) {
	u.cursor = [2]float32{float32(x), float32(y)}
	u.upload(u.cursorBuf, "cursor", encodeCursor(u.cursor))
}

// SetDimensions stores the framebuffer size.
func (u *Uniforms) SetDimensions(width, height uint32) {
	u.dimensions = [2]uint32{width, height}
	u.upload(u.dimensionsBuf, "dimensions", encodeDimensions(u.dimensions))
}

// Cursor returns the last cursor position written.
func (u *Uniforms) Cursor() (x, y float32) { return u.cursor[0], u.cursor[1] }

// Dimensions returns the last framebuffer size written.
func (u *Uniforms) Dimensions() (width, height uint32) { return u.dimensions[0], u.dimensions[1] }

// Buffers returns the device buffers in binding order.
func (u *Uniforms) Buffers() []hal.Buffer {
	return []hal.Buffer{BindingCursor: u.cursorBuf, BindingDimensions: u.dimensionsBuf}
}

// Size is the byte size of each uniform slot.
func (u *Uniforms) Size() uint64 { return uniformSize }

// Destroy releases both buffers. Safe to call more than once.
func (u *Uniforms) Destroy() {
	if u.dimensionsBuf != nil {
		u.device.DestroyBuffer(u.dimensionsBuf)
		u.dimensionsBuf = nil
	}
	if u.cursorBuf != nil {
		u.device.DestroyBuffer(u.cursorBuf)
		u.cursorBuf = nil
	}
}

// upload writes data into buf. The layout is fixed so the only possible
// failure is a lost device, which the next frame reports.
func (u *Uniforms) upload(buf hal.Buffer, name string, data []byte) {
	if err := u.queue.WriteBuffer(buf, 0, data); err != nil {
		shaderplay.Logger().Warn("mesh: uniform upload failed", "uniform", name, "error", err)
	}
}

func encodeCursor(v [2]float32) []byte {
	buf := make([]byte, uniformSize)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(v[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(v[1]))
	return buf
}

func encodeDimensions(v [2]uint32) []byte {
	buf := make([]byte, uniformSize)
	binary.LittleEndian.PutUint32(buf[0:4], v[0])
	binary.LittleEndian.PutUint32(buf[4:8], v[1])
	return buf
}
