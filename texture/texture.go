// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package texture creates textures, views and samplers in the reference
// counted form that bind groups consume.
package texture

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/raygpu/refcount"
)

// Texture errors.
var (
	// ErrInvalidSize is returned for textures with a zero dimension.
	ErrInvalidSize = errors.New("texture: invalid texture size")

	// ErrTextureCreation is returned when the backend rejects a texture or
	// its view.
	ErrTextureCreation = errors.New("texture: backend rejected texture")

	// ErrSamplerCreation is returned when the backend rejects a sampler.
	ErrSamplerCreation = errors.New("texture: backend rejected sampler")
)

// Descriptor describes a 2D texture to create.
type Descriptor struct {
	// Label is an optional debug name.
	Label string

	// Width and Height are the texture dimensions in pixels.
	Width, Height uint32

	// Format is the texel format. Zero means RGBA8Unorm.
	Format gputypes.TextureFormat

	// Usage is the allowed usage. Zero means sampled and copy destination.
	Usage gputypes.TextureUsage
}

// Texture is a 2D texture with its default view.
//
// The texture lives as long as its view: every bind group that binds the
// view keeps the texture alive, and the native texture is destroyed when
// the last reference to the view is released.
type Texture struct {
	desc   Descriptor
	native hal.Texture
	view   *refcount.Ref[hal.TextureView]
}

// New creates a texture and its default view.
func New(device hal.Device, desc Descriptor) (*Texture, error) {
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, desc.Width, desc.Height)
	}
	if desc.Format == gputypes.TextureFormatUndefined {
		desc.Format = gputypes.TextureFormatRGBA8Unorm
	}
	if desc.Usage == 0 {
		desc.Usage = gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst
	}

	native, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         desc.Label,
		Size:          hal.Extent3D{Width: desc.Width, Height: desc.Height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        desc.Format,
		Usage:         desc.Usage,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTextureCreation, desc.Label, err)
	}

	view, err := device.CreateTextureView(native, &hal.TextureViewDescriptor{
		Label:         desc.Label + "_view",
		Format:        desc.Format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		device.DestroyTexture(native)
		return nil, fmt.Errorf("%w: %s view: %w", ErrTextureCreation, desc.Label, err)
	}

	return &Texture{
		desc:   desc,
		native: native,
		view: refcount.New(view, func(v hal.TextureView) {
			device.DestroyTextureView(v)
			device.DestroyTexture(native)
		}),
	}, nil
}

// View returns the reference counted default view.
func (t *Texture) View() *refcount.Ref[hal.TextureView] { return t.view }

// Native returns the backend texture.
func (t *Texture) Native() hal.Texture { return t.native }

// Width returns the texture width in pixels.
func (t *Texture) Width() uint32 { return t.desc.Width }

// Height returns the texture height in pixels.
func (t *Texture) Height() uint32 { return t.desc.Height }

// Format returns the texel format.
func (t *Texture) Format() gputypes.TextureFormat { return t.desc.Format }

// Label returns the debug label.
func (t *Texture) Label() string { return t.desc.Label }

// Destroy drops the creator's reference. The native objects are destroyed
// once no bind group holds the view any more.
func (t *Texture) Destroy() {
	if t.view != nil {
		t.view.Release()
		t.view = nil
	}
}
