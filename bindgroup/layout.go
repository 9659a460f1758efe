// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bindgroup

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Bind group errors.
var (
	// ErrLayoutCreation is returned when the backend rejects a layout.
	ErrLayoutCreation = errors.New("bindgroup: backend rejected bind group layout")

	// ErrBindGroupCreation is returned when the backend rejects a bind group.
	ErrBindGroupCreation = errors.New("bindgroup: backend rejected bind group")
)

// Layout is an immutable bind group layout together with the entries it
// was built from.
type Layout struct {
	device  hal.Device
	label   string
	entries []gputypes.BindGroupLayoutEntry
	native  hal.BindGroupLayout
}

// LoadLayout builds a bind group layout for descs.
//
// With compute set every entry is visible to the compute stage only.
// Otherwise buffers are visible to vertex and fragment stages, and
// textures, samplers and storage textures to the fragment stage.
func LoadLayout(device hal.Device, label string, descs []ResourceDescriptor, compute bool) (*Layout, error) {
	entries := make([]gputypes.BindGroupLayoutEntry, len(descs))
	for i, d := range descs {
		entries[i] = LayoutEntry(d, compute)
	}
	native, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   label,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLayoutCreation, label, err)
	}
	return &Layout{device: device, label: label, entries: entries, native: native}, nil
}

// LayoutEntry maps one reflected resource to a layout entry.
func LayoutEntry(d ResourceDescriptor, compute bool) gputypes.BindGroupLayoutEntry {
	e := gputypes.BindGroupLayoutEntry{
		Binding:    d.Location,
		Visibility: visibility(d.Kind, compute),
	}
	switch d.Kind {
	case UniformBuffer:
		e.Buffer = &gputypes.BufferBindingLayout{
			Type:           gputypes.BufferBindingTypeUniform,
			MinBindingSize: d.MinBindingSize,
		}
	case StorageBuffer:
		typ := gputypes.BufferBindingTypeStorage
		if d.Access == ReadOnly {
			typ = gputypes.BufferBindingTypeReadOnlyStorage
		}
		e.Buffer = &gputypes.BufferBindingLayout{Type: typ, MinBindingSize: d.MinBindingSize}
	case Texture2D, Texture2DArray, Texture3D:
		e.Texture = &gputypes.TextureBindingLayout{
			SampleType:    sampleType(d.SampleType),
			ViewDimension: viewDimension(d.Kind),
		}
	case Sampler:
		e.Sampler = &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering}
	case StorageTexture2D, StorageTexture2DArray, StorageTexture3D:
		e.StorageTexture = &gputypes.StorageTextureBindingLayout{
			Access:        storageAccess(d.Access),
			Format:        d.StorageFormat,
			ViewDimension: viewDimension(d.Kind),
		}
	default:
		panic(fmt.Sprintf("bindgroup: unknown resource kind %d", d.Kind))
	}
	return e
}

func visibility(k Kind, compute bool) gputypes.ShaderStage {
	switch {
	case compute:
		return gputypes.ShaderStageCompute
	case k.IsBuffer():
		return gputypes.ShaderStageVertex | gputypes.ShaderStageFragment
	default:
		return gputypes.ShaderStageFragment
	}
}

func viewDimension(k Kind) gputypes.TextureViewDimension {
	switch k {
	case Texture2D, StorageTexture2D:
		return gputypes.TextureViewDimension2D
	case Texture2DArray, StorageTexture2DArray:
		return gputypes.TextureViewDimension2DArray
	case Texture3D, StorageTexture3D:
		return gputypes.TextureViewDimension3D
	}
	panic(fmt.Sprintf("bindgroup: %v has no view dimension", k))
}

func sampleType(s SampleType) gputypes.TextureSampleType {
	switch s {
	case SampleFloat:
		return gputypes.TextureSampleTypeFloat
	case SampleUint:
		return gputypes.TextureSampleTypeUint
	case SampleSint:
		return gputypes.TextureSampleTypeSint
	}
	panic(fmt.Sprintf("bindgroup: unknown sample type %d", s))
}

func storageAccess(a Access) gputypes.StorageTextureAccess {
	switch a {
	case ReadOnly:
		return gputypes.StorageTextureAccessReadOnly
	case ReadWrite:
		return gputypes.StorageTextureAccessReadWrite
	case WriteOnly:
		return gputypes.StorageTextureAccessWriteOnly
	}
	panic(fmt.Sprintf("bindgroup: unknown access %d", a))
}

// Entries returns the layout entries. The slice must not be modified.
func (l *Layout) Entries() []gputypes.BindGroupLayoutEntry { return l.entries }

// Native returns the backend layout handle.
func (l *Layout) Native() hal.BindGroupLayout { return l.native }

// Label returns the debug label.
func (l *Layout) Label() string { return l.label }

// Destroy releases the backend layout.
func (l *Layout) Destroy() {
	if l.native != nil {
		l.device.DestroyBindGroupLayout(l.native)
		l.native = nil
	}
}
