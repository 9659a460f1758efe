// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipeline

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/raygpu/vertex"
)

// createNoopDevice creates a noop device for testing.
// Returns the device and a cleanup function.
func createNoopDevice(t *testing.T) (hal.Device, func()) {
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
	return openDev.Device, func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
}

// fakePipeline gives every created pipeline a distinct identity.
type fakePipeline struct {
	hal.RenderPipeline
	id int
}

// countingDevice records render pipeline construction and destruction.
type countingDevice struct {
	hal.Device
	created   int
	destroyed map[int]int
	fail      error
	last      *hal.RenderPipelineDescriptor
}

func newCountingDevice(t *testing.T) *countingDevice {
	t.Helper()
	dev, cleanup := createNoopDevice(t)
	t.Cleanup(cleanup)
	return &countingDevice{Device: dev, destroyed: map[int]int{}}
}

func (d *countingDevice) CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	if d.fail != nil {
		return nil, d.fail
	}
	d.created++
	d.last = desc
	return &fakePipeline{id: d.created}, nil
}

func (d *countingDevice) DestroyRenderPipeline(p hal.RenderPipeline) {
	d.destroyed[p.(*fakePipeline).id]++
}

func testStages() Stages {
	return Stages{
		VertexModule:       struct{ hal.ShaderModule }{},
		VertexEntryPoint:   "vs_main",
		FragmentModule:     struct{ hal.ShaderModule }{},
		FragmentEntryPoint: "fs_main",
	}
}

func testState() State {
	return State{
		Attributes: []vertex.Attribute{
			{Format: gputypes.VertexFormatFloat32x3, ShaderLocation: 0, BufferSlot: 0, StepMode: gputypes.VertexStepModeVertex, Enabled: true},
			{Format: gputypes.VertexFormatFloat32x2, Offset: 12, ShaderLocation: 1, BufferSlot: 0, StepMode: gputypes.VertexStepModeVertex, Enabled: true},
			{Format: gputypes.VertexFormatUnorm8x4, ShaderLocation: 2, BufferSlot: 1, StepMode: gputypes.VertexStepModeVertex, Enabled: true},
		},
		Primitive:        TriangleList,
		Settings:         DefaultRenderSettings(),
		ColorAttachments: Attachments(gputypes.TextureFormatBGRA8Unorm),
	}
}
