// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package raygpu

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/raygpu/internal/logging"
	"github.com/gogpu/raygpu/pipeline"
	"github.com/gogpu/raygpu/refcount"
)

// ErrBufferCreation is returned when the backend fails to create a buffer.
var ErrBufferCreation = errors.New("raygpu: buffer creation failed")

// PassEncoder records draw commands. hal.RenderPassEncoder satisfies it.
type PassEncoder interface {
	SetPipeline(pipeline hal.RenderPipeline)
	SetBindGroup(index uint32, group hal.BindGroup, offsets []uint32)
	SetVertexBuffer(slot uint32, buffer hal.Buffer, offset uint64)
	SetIndexBuffer(buffer hal.Buffer, format gputypes.IndexFormat, offset uint64)
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32)
}

// ComputeEncoder records dispatches. hal.ComputePassEncoder satisfies it.
type ComputeEncoder interface {
	SetPipeline(pipeline hal.ComputePipeline)
	SetBindGroup(index uint32, group hal.BindGroup, offsets []uint32)
	Dispatch(x, y, z uint32)
}

// Draw records a draw of count vertices, instances times, with the bound
// program and vertex array.
//
// It resolves the pipeline for prim, rebuilds the bind group if one of
// its resources changed, and binds the vertex buffer of every slot that
// an enabled attribute reads. Quads are drawn as indexed triangle lists
// through a shared index buffer; count is rounded down to whole quads.
func (c *Context) Draw(enc PassEncoder, prim pipeline.Primitive, count, instances uint32) error {
	native, err := c.Pipeline(prim)
	if err != nil {
		return err
	}
	group, err := c.program.group.Resolve()
	if err != nil {
		return err
	}

	var indices hal.Buffer
	quads := count / 4
	if prim == pipeline.Quads {
		if quads == 0 {
			return nil
		}
		if indices, err = c.quads.ensure(c.device, c.queue, quads); err != nil {
			return err
		}
	}

	enc.SetPipeline(native)
	enc.SetBindGroup(0, group, nil)
	if c.vertices != nil {
		for _, slot := range c.vertices.ActiveSlots() {
			s, _ := c.vertices.Slot(int(slot))
			enc.SetVertexBuffer(slot, s.Buffer, 0)
		}
	}
	if prim == pipeline.Quads {
		enc.SetIndexBuffer(indices, gputypes.IndexFormatUint32, 0)
		enc.DrawIndexed(quads*6, instances, 0, 0, 0)
		return nil
	}
	enc.Draw(count, instances, 0, 0)
	return nil
}

// Dispatch records a dispatch of x*y*z workgroups of p.
func (c *Context) Dispatch(enc ComputeEncoder, p *ComputeProgram, x, y, z uint32) error {
	if p == nil {
		return ErrNoProgram
	}
	if p.destroyed {
		return ErrDestroyed
	}
	group, err := p.group.Resolve()
	if err != nil {
		return err
	}
	enc.SetPipeline(p.pipeline)
	enc.SetBindGroup(0, group, nil)
	enc.Dispatch(x, y, z)
	return nil
}

// DispatchInvocations dispatches enough workgroups of p to cover a grid
// of width*height*depth invocations.
func (c *Context) DispatchInvocations(enc ComputeEncoder, p *ComputeProgram, width, height, depth uint32) error {
	if p == nil {
		return ErrNoProgram
	}
	wg := p.workgroup
	return c.Dispatch(enc, p,
		ceilDiv(width, wg[0]),
		ceilDiv(height, wg[1]),
		ceilDiv(depth, wg[2]))
}

func ceilDiv(n, d uint32) uint32 {
	if d == 0 {
		d = 1
	}
	return (n + d - 1) / d
}

// NewBuffer creates a buffer holding data. Usage gains CopyDst so the
// buffer can be updated with WriteBuffer. The returned reference owns the
// buffer; releasing the last reference destroys it.
func (c *Context) NewBuffer(label string, usage gputypes.BufferUsage, data []byte) (*refcount.Ref[hal.Buffer], error) {
	size := uint64(len(data))
	if size == 0 {
		return nil, fmt.Errorf("%w: %s: empty data", ErrBufferCreation, label)
	}
	buf, err := c.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBufferCreation, label, err)
	}
	c.queue.WriteBuffer(buf, 0, data)
	device := c.device
	return refcount.New(buf, func(b hal.Buffer) { device.DestroyBuffer(b) }), nil
}

// WriteBuffer uploads data into buf at offset.
func (c *Context) WriteBuffer(buf *refcount.Ref[hal.Buffer], offset uint64, data []byte) {
	c.queue.WriteBuffer(buf.Value(), offset, data)
}

// quadIndices is the shared index buffer that turns quads into triangle
// pairs: quad q reads vertices 4q+{0,1,2} and 4q+{0,2,3}.
//
// The buffer only grows. Outgrown buffers are kept until destroy since a
// pass recorded earlier may still read them.
type quadIndices struct {
	buffer  hal.Buffer
	quads   uint32
	retired []hal.Buffer
}

func (q *quadIndices) ensure(device hal.Device, queue hal.Queue, quads uint32) (hal.Buffer, error) {
	if quads <= q.quads {
		return q.buffer, nil
	}
	n := max(q.quads*2, 64)
	for n < quads {
		n *= 2
	}

	data := quadIndexData(n)
	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "raygpu_quad_indices",
		Size:  uint64(len(data)),
		Usage: gputypes.BufferUsageIndex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: quad indices: %w", ErrBufferCreation, err)
	}
	queue.WriteBuffer(buf, 0, data)

	if q.buffer != nil {
		q.retired = append(q.retired, q.buffer)
	}
	q.buffer, q.quads = buf, n
	logging.Logger().Debug("raygpu: quad index buffer grown", "quads", n)
	return buf, nil
}

func quadIndexData(quads uint32) []byte {
	pattern := [6]uint32{0, 1, 2, 0, 2, 3}
	data := make([]byte, 0, quads*6*4)
	for q := range quads {
		for _, i := range pattern {
			data = binary.LittleEndian.AppendUint32(data, q*4+i)
		}
	}
	return data
}

func (q *quadIndices) destroy(device hal.Device) {
	for _, b := range q.retired {
		device.DestroyBuffer(b)
	}
	if q.buffer != nil {
		device.DestroyBuffer(q.buffer)
	}
	*q = quadIndices{}
}
