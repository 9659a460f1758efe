// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package raygpu

import (
	"errors"
	"image"
	"strconv"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/raygpu/internal/logging"
	"github.com/gogpu/raygpu/pipeline"
	"github.com/gogpu/raygpu/texture"
	"github.com/gogpu/raygpu/vertex"
)

var (
	// ErrNilDevice is returned when a Context is created without a device
	// or queue.
	ErrNilDevice = errors.New("raygpu: nil device or queue")

	// ErrNoProgram is returned by draws and pipeline lookups made with no
	// program bound.
	ErrNoProgram = errors.New("raygpu: no program bound")

	// ErrDestroyed is returned by a program or context used after Destroy.
	ErrDestroyed = errors.New("raygpu: use after destroy")
)

// Context is the per-device drawing state: the bound program and vertex
// array, the current render settings and color attachments, and every
// program loaded through it.
//
// A Context does not own its device. It is not safe for concurrent use.
type Context struct {
	device hal.Device
	queue  hal.Queue
	opts   contextOptions

	settings    pipeline.RenderSettings
	attachments pipeline.ColorAttachments
	program     *Program
	vertices    *vertex.Array

	programs []*Program
	computes []*ComputeProgram
	samplers *texture.SamplerCache
	quads    quadIndices
	nextID   int
}

// NewContext creates a Context on device and queue.
func NewContext(device hal.Device, queue hal.Queue, opts ...Option) (*Context, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger != nil {
		logging.SetLogger(o.logger)
	}

	samplers, err := texture.NewSamplerCache(device, o.samplers)
	if err != nil {
		return nil, err
	}
	c := &Context{
		device:      device,
		queue:       queue,
		opts:        o,
		settings:    o.settings,
		attachments: o.attachments,
		samplers:    samplers,
	}
	logging.Logger().Info("raygpu: context created",
		"colorAttachments", o.attachments.Count,
		"bindGroupRelease", o.release)
	return c, nil
}

// Device returns the HAL device.
func (c *Context) Device() hal.Device { return c.device }

// Queue returns the HAL queue.
func (c *Context) Queue() hal.Queue { return c.queue }

// BindProgram makes p the program used by Pipeline and Draw. A nil p
// unbinds.
func (c *Context) BindProgram(p *Program) { c.program = p }

// Program returns the bound program, or nil.
func (c *Context) Program() *Program { return c.program }

// BindVertexArray makes va the source of vertex attributes and buffers
// for Pipeline and Draw. A nil va draws without vertex buffers.
func (c *Context) BindVertexArray(va *vertex.Array) { c.vertices = va }

// VertexArray returns the bound vertex array, or nil.
func (c *Context) VertexArray() *vertex.Array { return c.vertices }

// SetRenderSettings replaces the fixed-function state of later draws.
func (c *Context) SetRenderSettings(s pipeline.RenderSettings) { c.settings = s }

// RenderSettings returns the current fixed-function state.
func (c *Context) RenderSettings() pipeline.RenderSettings { return c.settings }

// SetColorAttachments replaces the render target formats of later draws.
func (c *Context) SetColorAttachments(formats ...gputypes.TextureFormat) {
	c.attachments = pipeline.Attachments(formats...)
}

// ColorAttachments returns the current render target formats.
func (c *Context) ColorAttachments() pipeline.ColorAttachments { return c.attachments }

// State returns the pipeline key a draw of prim would use now. Quads are
// keyed as triangle lists since they are drawn as indexed triangles. The
// attribute slice is borrowed from the bound vertex array.
func (c *Context) State(prim pipeline.Primitive) pipeline.State {
	if prim == pipeline.Quads {
		prim = pipeline.TriangleList
	}
	s := pipeline.State{
		Primitive:        prim,
		Settings:         c.settings,
		ColorAttachments: c.attachments,
	}
	if c.vertices != nil {
		s.Attributes = c.vertices.Attributes()
	}
	return s
}

// Pipeline returns the render pipeline for drawing prim with the bound
// program, vertex array and settings, building it on first use. The
// handle is owned by the program.
func (c *Context) Pipeline(prim pipeline.Primitive) (hal.RenderPipeline, error) {
	p := c.program
	if p == nil {
		return nil, ErrNoProgram
	}
	if p.destroyed {
		return nil, ErrDestroyed
	}
	s := c.State(prim)
	return p.pipelines.GetOrCreate(&s, p.stages, p.pipelineLayout)
}

// Samplers returns the shared sampler cache.
func (c *Context) Samplers() *texture.SamplerCache { return c.samplers }

// NewTexture creates an empty texture. The caller owns it.
func (c *Context) NewTexture(desc texture.Descriptor) (*texture.Texture, error) {
	return texture.New(c.device, desc)
}

// LoadTexture uploads img into a new texture. The caller owns it.
func (c *Context) LoadTexture(img image.Image, opts texture.Options) (*texture.Texture, error) {
	return texture.FromImage(c.device, c.queue, img, opts)
}

// EndFrame releases the bind groups that Set calls replaced during the
// frame. With bindgroup.ReleaseDeferred, call it after the queue submit
// that consumed the recorded passes. With ReleaseImmediate it does
// nothing.
func (c *Context) EndFrame() {
	for _, p := range c.programs {
		p.group.ReleaseStale()
	}
	for _, p := range c.computes {
		p.group.ReleaseStale()
	}
}

func (c *Context) label(kind string) string {
	c.nextID++
	return "raygpu_" + kind + "_" + strconv.Itoa(c.nextID)
}

// Destroy releases every program and compute program loaded through the
// Context, then the shared quad index buffer and the cached samplers.
// Resources the caller created (buffers, textures, vertex arrays) are
// not touched.
func (c *Context) Destroy() {
	c.program = nil
	c.vertices = nil
	for _, p := range c.programs {
		p.Destroy()
	}
	c.programs = nil
	for _, p := range c.computes {
		p.Destroy()
	}
	c.computes = nil
	c.quads.destroy(c.device)
	c.samplers.Purge()
	logging.Logger().Debug("raygpu: context destroyed")
}
