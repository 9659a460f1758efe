// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package texture

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gogpu/raygpu/internal/logging"
	"github.com/gogpu/raygpu/refcount"
)

// SamplerKey describes a sampler. It is comparable and identifies cached
// samplers.
type SamplerKey struct {
	AddressMode gputypes.AddressMode
	MagFilter   gputypes.FilterMode
	MinFilter   gputypes.FilterMode
	MipFilter   gputypes.FilterMode
}

// LinearClamp is a bilinear sampler clamped to the edges.
func LinearClamp() SamplerKey {
	return SamplerKey{
		AddressMode: gputypes.AddressModeClampToEdge,
		MagFilter:   gputypes.FilterModeLinear,
		MinFilter:   gputypes.FilterModeLinear,
		MipFilter:   gputypes.FilterModeLinear,
	}
}

// NearestRepeat is a point sampler that wraps.
func NearestRepeat() SamplerKey {
	return SamplerKey{
		AddressMode: gputypes.AddressModeRepeat,
		MagFilter:   gputypes.FilterModeNearest,
		MinFilter:   gputypes.FilterModeNearest,
		MipFilter:   gputypes.FilterModeNearest,
	}
}

// NewSampler creates a reference counted sampler. The native sampler is
// destroyed when the last reference is released.
func NewSampler(device hal.Device, key SamplerKey, label string) (*refcount.Ref[hal.Sampler], error) {
	s, err := device.CreateSampler(&hal.SamplerDescriptor{
		Label:        label,
		AddressModeU: key.AddressMode,
		AddressModeV: key.AddressMode,
		AddressModeW: key.AddressMode,
		MagFilter:    key.MagFilter,
		MinFilter:    key.MinFilter,
		MipmapFilter: key.MipFilter,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSamplerCreation, label, err)
	}
	return refcount.New(s, func(s hal.Sampler) { device.DestroySampler(s) }), nil
}

// DefaultSamplerCacheSize is the capacity used for sizes <= 0.
const DefaultSamplerCacheSize = 16

// SamplerCache shares samplers between bind groups.
//
// The cache holds one reference per sampler. Evicting a sampler drops that
// reference; bind groups still using it keep it alive.
type SamplerCache struct {
	device  hal.Device
	entries *lru.Cache[SamplerKey, *refcount.Ref[hal.Sampler]]
}

// NewSamplerCache creates a cache holding at most size samplers.
func NewSamplerCache(device hal.Device, size int) (*SamplerCache, error) {
	if size <= 0 {
		size = DefaultSamplerCacheSize
	}
	entries, err := lru.NewWithEvict(size, func(key SamplerKey, s *refcount.Ref[hal.Sampler]) {
		logging.Logger().Debug("texture: sampler evicted", "key", key)
		s.Release()
	})
	if err != nil {
		return nil, err
	}
	return &SamplerCache{device: device, entries: entries}, nil
}

// Get returns the sampler for key, creating it on a miss. The returned
// reference belongs to the cache; retain it to keep it past eviction.
func (c *SamplerCache) Get(key SamplerKey) (*refcount.Ref[hal.Sampler], error) {
	if s, ok := c.entries.Get(key); ok {
		return s, nil
	}
	s, err := NewSampler(c.device, key, "raygpu_sampler")
	if err != nil {
		return nil, err
	}
	c.entries.Add(key, s)
	return s, nil
}

// Len returns the number of cached samplers.
func (c *SamplerCache) Len() int { return c.entries.Len() }

// Purge drops every cached sampler.
func (c *SamplerCache) Purge() { c.entries.Purge() }
