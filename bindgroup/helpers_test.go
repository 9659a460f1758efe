// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bindgroup

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/raygpu/refcount"
)

// createNoopDevice creates a noop device for testing.
func createNoopDevice(t *testing.T) hal.Device {
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
	return openDev.Device
}

type fakeBindGroup struct {
	hal.BindGroup
	id int
}

// recordingDevice records bind group traffic on top of a noop device.
type recordingDevice struct {
	hal.Device
	layouts   []*hal.BindGroupLayoutDescriptor
	groups    []*hal.BindGroupDescriptor
	destroyed []int
	fail      error
}

func newRecordingDevice(t *testing.T) *recordingDevice {
	t.Helper()
	return &recordingDevice{Device: createNoopDevice(t)}
}

func (d *recordingDevice) CreateBindGroupLayout(desc *hal.BindGroupLayoutDescriptor) (hal.BindGroupLayout, error) {
	if d.fail != nil {
		return nil, d.fail
	}
	d.layouts = append(d.layouts, desc)
	return d.Device.CreateBindGroupLayout(desc)
}

func (d *recordingDevice) CreateBindGroup(desc *hal.BindGroupDescriptor) (hal.BindGroup, error) {
	if d.fail != nil {
		return nil, d.fail
	}
	d.groups = append(d.groups, desc)
	return &fakeBindGroup{id: len(d.groups)}, nil
}

func (d *recordingDevice) DestroyBindGroup(bg hal.BindGroup) {
	d.destroyed = append(d.destroyed, bg.(*fakeBindGroup).id)
}

type fakeBuffer struct {
	hal.Buffer
	h uintptr
}

func (b *fakeBuffer) NativeHandle() uintptr { return b.h }

type fakeView struct {
	hal.TextureView
	h uintptr
}

func (v *fakeView) NativeHandle() uintptr { return v.h }

type fakeSampler struct {
	hal.Sampler
	h uintptr
}

func (s *fakeSampler) NativeHandle() uintptr { return s.h }

func newBuffer(h uintptr) *refcount.Ref[hal.Buffer] {
	return refcount.New[hal.Buffer](&fakeBuffer{h: h}, nil)
}

func newView(h uintptr) *refcount.Ref[hal.TextureView] {
	return refcount.New[hal.TextureView](&fakeView{h: h}, nil)
}

func newSampler(h uintptr) *refcount.Ref[hal.Sampler] {
	return refcount.New[hal.Sampler](&fakeSampler{h: h}, nil)
}

// texturedDescs describes a uniform block, a texture and its sampler.
func texturedDescs() []ResourceDescriptor {
	return []ResourceDescriptor{
		{Kind: UniformBuffer, Location: 0, MinBindingSize: 64},
		{Kind: Texture2D, Location: 1},
		{Kind: Sampler, Location: 2},
	}
}
