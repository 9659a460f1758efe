// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipeline

import (
	"errors"
	"fmt"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/raygpu/cache"
	"github.com/gogpu/raygpu/internal/logging"
	"github.com/gogpu/raygpu/refcount"
)

// Pipeline cache errors.
var (
	// ErrPipelineCreation is returned when the backend rejects a pipeline.
	ErrPipelineCreation = errors.New("pipeline: backend rejected pipeline")

	// ErrLayoutCreation is returned when the backend rejects a pipeline layout.
	ErrLayoutCreation = errors.New("pipeline: backend rejected pipeline layout")

	// ErrQuadsTopology is returned when a Quads state reaches pipeline
	// creation. Draws expand quads to triangle lists first.
	ErrQuadsTopology = errors.New("pipeline: quads have no native topology")

	// ErrNilDevice is returned when creating a cache without a device.
	ErrNilDevice = errors.New("pipeline: device is nil")
)

type refRenderPipeline = refcount.Ref[hal.RenderPipeline]

// Stats reports cache activity.
type Stats struct {
	Len    int
	Hits   uint64
	Misses uint64
}

// Cache maps pipeline states to native render pipelines for one shader.
//
// Exactly one native pipeline exists per distinct State; lookups compare
// full structure, so hash collisions never return a wrong pipeline.
// Entries are never evicted. Destroy releases every pipeline once.
//
// Cache is not safe for concurrent use.
type Cache struct {
	device  hal.Device
	label   string
	entries *cache.HashMap[State, *refRenderPipeline]
	// overflow holds pipelines built while the table refused to grow.
	overflow []*refRenderPipeline
	onCreate func(*State)

	hits   uint64
	misses uint64
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithLabel sets the debug label given to created pipelines.
func WithLabel(label string) CacheOption {
	return func(c *Cache) { c.label = label }
}

// WithCreateHook registers fn to run after each pipeline construction.
func WithCreateHook(fn func(*State)) CacheOption {
	return func(c *Cache) { c.onCreate = fn }
}

// WithMapOptions passes options to the underlying hash map.
func WithMapOptions(opts ...cache.Option) CacheOption {
	return func(c *Cache) {
		c.entries = newEntries(opts...)
	}
}

// StateKeys are the hash map operations for State keys.
func StateKeys() cache.KeyOps[State] {
	return cache.KeyOps[State]{
		Hash:  func(s State) uint64 { return cache.Uint64Hasher(s.Hash()) },
		Equal: func(a, b State) bool { return a.Equal(&b) },
		Copy:  func(s State) State { return s.Clone() },
	}
}

func newEntries(opts ...cache.Option) *cache.HashMap[State, *refRenderPipeline] {
	return cache.NewOwned(StateKeys(), cache.ValueOps[*refRenderPipeline]{
		Copy:    func(r *refRenderPipeline) *refRenderPipeline { return r.Retain() },
		Destroy: func(r *refRenderPipeline) { r.Release() },
	}, opts...)
}

// NewCache creates an empty pipeline cache on device.
func NewCache(device hal.Device, opts ...CacheOption) (*Cache, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	c := &Cache{device: device, label: "raygpu_pipeline"}
	for _, opt := range opts {
		opt(c)
	}
	if c.entries == nil {
		c.entries = newEntries()
	}
	return c, nil
}

// GetOrCreate returns the pipeline for s, building it on first use.
//
// A hit has no side effects. The returned handle is borrowed: the cache
// owns it until Destroy. On a miss the state is validated, the pipeline is
// built from stages and layout, and a deep copy of s is stored as the key.
// If the backend rejects the pipeline nothing is cached and the error
// wraps ErrPipelineCreation.
func (c *Cache) GetOrCreate(s *State, stages Stages, layout hal.PipelineLayout) (hal.RenderPipeline, error) {
	if ref, ok := c.entries.Get(*s); ok {
		c.hits++
		return (*ref).Value(), nil
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	desc, err := RenderDescriptor(c.label, s, stages, layout)
	if err != nil {
		return nil, err
	}
	native, err := c.device.CreateRenderPipeline(desc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrPipelineCreation, c.label, err)
	}
	c.misses++

	ref := refcount.New(native, func(p hal.RenderPipeline) { c.device.DestroyRenderPipeline(p) })
	if c.entries.Put(*s, ref) {
		ref.Release() // the cache holds the remaining reference
	} else {
		c.overflow = append(c.overflow, ref)
	}

	logging.Logger().Debug("pipeline: created",
		"label", c.label,
		"primitive", s.Primitive,
		"attributes", len(s.Attributes),
		"colorAttachments", s.ColorAttachments.Count,
		"depthTest", s.Settings.DepthTest,
		"cached", c.entries.Len())
	if c.onCreate != nil {
		c.onCreate(s)
	}
	return native, nil
}

// Len returns the number of cached pipelines.
func (c *Cache) Len() int { return c.entries.Len() + len(c.overflow) }

// Stats returns hit and miss counts.
func (c *Cache) Stats() Stats {
	return Stats{Len: c.Len(), Hits: c.hits, Misses: c.misses}
}

// Destroy releases every cached pipeline. The cache is empty afterwards
// and may be reused.
func (c *Cache) Destroy() {
	c.entries.Clear()
	for _, ref := range c.overflow {
		ref.Release()
	}
	c.overflow = nil
}

// NewLayout creates a pipeline layout over the given bind group layouts.
func NewLayout(device hal.Device, label string, groups ...hal.BindGroupLayout) (hal.PipelineLayout, error) {
	layout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            label,
		BindGroupLayouts: groups,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLayoutCreation, label, err)
	}
	return layout, nil
}

// CreateCompute builds a compute pipeline. Compute pipelines have no
// state key: a compute program owns exactly one.
func CreateCompute(device hal.Device, label string, layout hal.PipelineLayout, module hal.ShaderModule, entryPoint string) (hal.ComputePipeline, error) {
	p, err := device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  label,
		Layout: layout,
		Compute: hal.ComputeState{
			Module:     module,
			EntryPoint: entryPoint,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrPipelineCreation, label, err)
	}
	return p, nil
}
