// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package raygpu

import (
	"fmt"
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

const quadWGSL = `
struct Frame {
    mvp: mat4x4f,
}

@group(0) @binding(0) var<uniform> frame: Frame;
@group(0) @binding(1) var atlas: texture_2d<f32>;
@group(0) @binding(2) var atlasSampler: sampler;

struct VertexOut {
    @builtin(position) clip: vec4f,
    @location(0) uv: vec2f,
    @location(1) tint: vec4f,
}

@vertex
fn vs_main(@location(0) position: vec2f, @location(1) uv: vec2f, @location(2) tint: vec4f) -> VertexOut {
    var out: VertexOut;
    out.clip = frame.mvp * vec4f(position, 0.0, 1.0);
    out.uv = uv;
    out.tint = tint;
    return out;
}

@fragment
fn fs_main(in: VertexOut) -> @location(0) vec4f {
    return textureSample(atlas, atlasSampler, in.uv) * in.tint;
}
`

const fillWGSL = `
@group(0) @binding(0) var<storage, read_write> data: array<u32>;

@compute @workgroup_size(64)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {
    data[id.x] = id.x;
}
`

// createNoopDevice creates a noop device and queue for testing.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		openDev.Device.Destroy()
		instance.Destroy()
	})
	return openDev.Device, openDev.Queue
}

// countingDevice counts native object lifetimes on top of a noop device.
type countingDevice struct {
	hal.Device
	pipelines, bindGroups, buffers         int
	buffersGone, pipelineLayoutsGone       int
	modulesGone, computeGone, groupLayouts int
	groupsGone                             []int
}

// countedGroup tags a native bind group with its creation order, since
// noop resources are zero-sized and may share an address.
type countedGroup struct {
	hal.BindGroup
	id int
}

func (d *countingDevice) CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	d.pipelines++
	return d.Device.CreateRenderPipeline(desc)
}

func (d *countingDevice) CreateBindGroup(desc *hal.BindGroupDescriptor) (hal.BindGroup, error) {
	d.bindGroups++
	bg, err := d.Device.CreateBindGroup(desc)
	if err != nil {
		return nil, err
	}
	return &countedGroup{BindGroup: bg, id: d.bindGroups}, nil
}

func (d *countingDevice) DestroyBindGroup(bg hal.BindGroup) {
	if cg, ok := bg.(*countedGroup); ok {
		d.groupsGone = append(d.groupsGone, cg.id)
		bg = cg.BindGroup
	}
	d.Device.DestroyBindGroup(bg)
}

func (d *countingDevice) CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error) {
	d.buffers++
	return d.Device.CreateBuffer(desc)
}

func (d *countingDevice) DestroyBuffer(b hal.Buffer) {
	d.buffersGone++
	d.Device.DestroyBuffer(b)
}

func (d *countingDevice) DestroyPipelineLayout(l hal.PipelineLayout) {
	d.pipelineLayoutsGone++
	d.Device.DestroyPipelineLayout(l)
}

func (d *countingDevice) DestroyShaderModule(m hal.ShaderModule) {
	d.modulesGone++
	d.Device.DestroyShaderModule(m)
}

func (d *countingDevice) DestroyComputePipeline(p hal.ComputePipeline) {
	d.computeGone++
	d.Device.DestroyComputePipeline(p)
}

func (d *countingDevice) DestroyBindGroupLayout(l hal.BindGroupLayout) {
	d.groupLayouts++
	d.Device.DestroyBindGroupLayout(l)
}

func newTestContext(t *testing.T, opts ...Option) (*Context, *countingDevice) {
	t.Helper()
	device, queue := createNoopDevice(t)
	dev := &countingDevice{Device: device}
	ctx, err := NewContext(dev, queue, opts...)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	t.Cleanup(ctx.Destroy)
	return ctx, dev
}

// recordingPass records the draw commands issued to it.
type recordingPass struct {
	ops           []string
	groups        []int
	vertexBuffers map[uint32]hal.Buffer
	indexBuffer   hal.Buffer
}

func newRecordingPass() *recordingPass {
	return &recordingPass{vertexBuffers: make(map[uint32]hal.Buffer)}
}

func (p *recordingPass) SetPipeline(hal.RenderPipeline) { p.ops = append(p.ops, "SetPipeline") }

func (p *recordingPass) SetBindGroup(index uint32, group hal.BindGroup, _ []uint32) {
	p.ops = append(p.ops, fmt.Sprintf("SetBindGroup(%d)", index))
	if cg, ok := group.(*countedGroup); ok {
		p.groups = append(p.groups, cg.id)
	}
}

func (p *recordingPass) SetVertexBuffer(slot uint32, buffer hal.Buffer, _ uint64) {
	p.ops = append(p.ops, fmt.Sprintf("SetVertexBuffer(%d)", slot))
	p.vertexBuffers[slot] = buffer
}

func (p *recordingPass) SetIndexBuffer(buffer hal.Buffer, _ gputypes.IndexFormat, _ uint64) {
	p.ops = append(p.ops, "SetIndexBuffer")
	p.indexBuffer = buffer
}

func (p *recordingPass) Draw(vertexCount, instanceCount, _, _ uint32) {
	p.ops = append(p.ops, fmt.Sprintf("Draw(%d, %d)", vertexCount, instanceCount))
}

func (p *recordingPass) DrawIndexed(indexCount, instanceCount, _ uint32, _ int32, _ uint32) {
	p.ops = append(p.ops, fmt.Sprintf("DrawIndexed(%d, %d)", indexCount, instanceCount))
}

// recordingCompute records the dispatches issued to it.
type recordingCompute struct {
	ops []string
}

func (p *recordingCompute) SetPipeline(hal.ComputePipeline) { p.ops = append(p.ops, "SetPipeline") }

func (p *recordingCompute) SetBindGroup(index uint32, _ hal.BindGroup, _ []uint32) {
	p.ops = append(p.ops, fmt.Sprintf("SetBindGroup(%d)", index))
}

func (p *recordingCompute) Dispatch(x, y, z uint32) {
	p.ops = append(p.ops, fmt.Sprintf("Dispatch(%d, %d, %d)", x, y, z))
}

func newCheckerImage(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := range size {
		for x := range size {
			if (x+y)%2 == 0 {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}
	return img
}
