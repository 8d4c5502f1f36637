// Package mesh holds the static quad geometry and the uniform buffers fed
// to the playground shader.
package mesh

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// QuadVertices are the clip-space corners of the full-screen quad as
// (x, y) pairs: top-left, bottom-left, bottom-right, top-right.
var QuadVertices = [4][2]float32{
	{-1, 1},
	{-1, -1},
	{1, -1},
	{1, 1},
}

// QuadIndices split the quad into two counter-clockwise triangles.
var QuadIndices = [6]uint32{0, 1, 2, 0, 2, 3}

// vertexStride is the size of one vec2<f32> position.
const vertexStride = 8

// Quad owns the device copies of the quad geometry. It is created once
// and never modified.
type Quad struct {
	device   hal.Device
	vertices hal.Buffer
	indices  hal.Buffer
}

// NewQuad uploads QuadVertices and QuadIndices.
func NewQuad(device hal.Device, queue hal.Queue) (*Quad, error) {
	q := &Quad{device: device}

	vb, err := createInitBuffer(device, queue, "quad_vertices",
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst, encodeVertices())
	if err != nil {
		return nil, err
	}
	q.vertices = vb

	ib, err := createInitBuffer(device, queue, "quad_indices",
		gputypes.BufferUsageIndex|gputypes.BufferUsageCopyDst, encodeIndices())
	if err != nil {
		q.Destroy()
		return nil, err
	}
	q.indices = ib
	return q, nil
}

// VertexBuffer returns the position buffer bound at slot 0.
func (q *Quad) VertexBuffer() hal.Buffer { return q.vertices }

// IndexBuffer returns the uint32 index buffer.
func (q *Quad) IndexBuffer() hal.Buffer { return q.indices }

// IndexCount is the number of indices drawn per frame.
func (q *Quad) IndexCount() uint32 { return uint32(len(QuadIndices)) }

// IndexFormat is the format of IndexBuffer.
func (q *Quad) IndexFormat() gputypes.IndexFormat { return gputypes.IndexFormatUint32 }

// Destroy releases both buffers. Safe to call more than once.
func (q *Quad) Destroy() {
	if q.indices != nil {
		q.device.DestroyBuffer(q.indices)
		q.indices = nil
	}
	if q.vertices != nil {
		q.device.DestroyBuffer(q.vertices)
		q.vertices = nil
	}
}

// VertexLayout describes the single vec2<f32> position attribute at
// shader location 0.
func VertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: vertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
			},
		},
	}
}

func encodeVertices() []byte {
	buf := make([]byte, len(QuadVertices)*vertexStride)
	for i, v := range QuadVertices {
		off := i * vertexStride
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(v[0]))
		binary.LittleEndian.PutUint32(buf[off+4:off+8], math.Float32bits(v[1]))
	}
	return buf
}

func encodeIndices() []byte {
	buf := make([]byte, len(QuadIndices)*4)
	for i, idx := range QuadIndices {
		binary.LittleEndian.PutUint32(buf[i*4:], idx)
	}
	return buf
}

// createInitBuffer creates a buffer sized to data and fills it through the
// queue.
func createInitBuffer(device hal.Device, queue hal.Queue, label string, usage gputypes.BufferUsage, data []byte) (hal.Buffer, error) {
	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	if err := queue.WriteBuffer(buf, 0, data); err != nil {
		device.DestroyBuffer(buf)
		return nil, fmt.Errorf("upload %s: %w", label, err)
	}
	return buf, nil
}
