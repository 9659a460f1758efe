// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package raygpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/raygpu/bindgroup"
	"github.com/gogpu/raygpu/internal/logging"
	"github.com/gogpu/raygpu/pipeline"
	"github.com/gogpu/raygpu/refcount"
	"github.com/gogpu/raygpu/shader"
	"github.com/gogpu/raygpu/texture"
)

// bindings is the resource side of a program: its reflected bind group
// layout, the pipeline layout over it, and the one bind group the program
// draws with. Resources are addressed by their shader names.
type bindings struct {
	device         hal.Device
	label          string
	module         *shader.Module
	layout         *bindgroup.Layout
	pipelineLayout hal.PipelineLayout
	group          *bindgroup.Group
	destroyed      bool
}

func (c *Context) loadBindings(kind string, refl *shader.Reflection, sources []shader.Source) (*bindings, error) {
	label := c.label(kind)
	opts := append([]shader.Option{shader.WithLabel(label)}, c.opts.shaderOpts...)
	module, err := shader.Load(c.device, refl, sources, opts...)
	if err != nil {
		return nil, err
	}
	b := &bindings{device: c.device, label: label, module: module}

	refl = module.Reflection()
	descs, err := refl.Bindings()
	if err != nil {
		b.destroy()
		return nil, err
	}
	b.layout, err = bindgroup.LoadLayout(c.device, label, descs, refl.IsCompute())
	if err != nil {
		b.destroy()
		return nil, err
	}
	b.pipelineLayout, err = pipeline.NewLayout(c.device, label, b.layout.Native())
	if err != nil {
		b.destroy()
		return nil, err
	}

	entries := make([]bindgroup.Entry, len(descs))
	for i, d := range descs {
		entries[i].Binding = d.Location
	}
	b.group = bindgroup.Load(b.layout, entries, bindgroup.WithReleasePolicy(c.opts.release))
	return b, nil
}

// Reflection returns what the program's shaders declare.
func (b *bindings) Reflection() *shader.Reflection { return b.module.Reflection() }

// BindGroup returns the program's bind group.
func (b *bindings) BindGroup() *bindgroup.Group { return b.group }

// Label returns the debug label of the program's native objects.
func (b *bindings) Label() string { return b.label }

func (b *bindings) location(name string) (uint32, bool) {
	loc, ok := b.module.Reflection().BindingLocation(name)
	if !ok {
		logging.Logger().Warn("raygpu: unknown resource name", "program", b.label, "name", name)
	}
	return loc, ok
}

// SetUniformBuffer binds size bytes of buf at offset to the uniform named
// name. It reports false for an unknown name.
func (b *bindings) SetUniformBuffer(name string, buf *refcount.Ref[hal.Buffer], offset, size uint64) bool {
	loc, ok := b.location(name)
	return ok && b.group.SetUniformBuffer(loc, buf, offset, size)
}

// SetStorageBuffer binds size bytes of buf at offset to the storage
// buffer named name.
func (b *bindings) SetStorageBuffer(name string, buf *refcount.Ref[hal.Buffer], offset, size uint64) bool {
	loc, ok := b.location(name)
	return ok && b.group.SetStorageBuffer(loc, buf, offset, size)
}

// SetTexture binds the view of tex to the texture named name.
func (b *bindings) SetTexture(name string, tex *texture.Texture) bool {
	loc, ok := b.location(name)
	return ok && b.group.SetTexture(loc, tex)
}

// SetTextureView binds view to the texture named name.
func (b *bindings) SetTextureView(name string, view *refcount.Ref[hal.TextureView]) bool {
	loc, ok := b.location(name)
	return ok && b.group.SetTextureView(loc, view)
}

// SetSampler binds s to the sampler named name.
func (b *bindings) SetSampler(name string, s *refcount.Ref[hal.Sampler]) bool {
	loc, ok := b.location(name)
	return ok && b.group.SetSampler(loc, s)
}

func (b *bindings) destroy() {
	if b.destroyed {
		return
	}
	b.destroyed = true
	if b.group != nil {
		b.group.Destroy()
	}
	if b.pipelineLayout != nil {
		b.device.DestroyPipelineLayout(b.pipelineLayout)
		b.pipelineLayout = nil
	}
	if b.layout != nil {
		b.layout.Destroy()
	}
	b.module.Destroy()
}

// Program is a render program: vertex and fragment shaders, their
// resources, and the cache of every pipeline built for them.
type Program struct {
	*bindings
	pipelines *pipeline.Cache
	stages    pipeline.Stages
}

// LoadProgram loads a render program from sources. If refl is nil the
// WGSL sources are reflected. A vertex stage is required; the fragment
// stage may be omitted for depth-only drawing.
//
// The program belongs to c and is destroyed with it.
func (c *Context) LoadProgram(refl *shader.Reflection, sources ...shader.Source) (*Program, error) {
	b, err := c.loadBindings("program", refl, sources)
	if err != nil {
		return nil, err
	}
	vs, ok := b.module.Stage(gputypes.ShaderStageVertex)
	if !ok {
		b.destroy()
		return nil, fmt.Errorf("%w: %v", shader.ErrMissingStage, gputypes.ShaderStageVertex)
	}
	stages := pipeline.Stages{VertexModule: vs.Module, VertexEntryPoint: vs.EntryPoint}
	if fs, ok := b.module.Stage(gputypes.ShaderStageFragment); ok {
		stages.FragmentModule = fs.Module
		stages.FragmentEntryPoint = fs.EntryPoint
	}

	pipelines, err := pipeline.NewCache(c.device, pipeline.WithLabel(b.label))
	if err != nil {
		b.destroy()
		return nil, err
	}
	p := &Program{bindings: b, pipelines: pipelines, stages: stages}
	c.programs = append(c.programs, p)

	logging.Logger().Debug("raygpu: program loaded",
		"label", b.label,
		"resources", len(b.layout.Entries()),
		"inputs", b.Reflection().Attributes.Len())
	return p, nil
}

// Pipelines returns the program's pipeline cache.
func (p *Program) Pipelines() *pipeline.Cache { return p.pipelines }

// Stages returns the shader modules and entry points of the program.
func (p *Program) Stages() pipeline.Stages { return p.stages }

// Destroy releases the program's pipelines, bind group, layouts and
// shader modules, in that order. It is safe to call more than once.
func (p *Program) Destroy() {
	if p.destroyed {
		return
	}
	p.pipelines.Destroy()
	p.bindings.destroy()
}

// ComputeProgram is a compute shader with its resources and its single
// pipeline.
type ComputeProgram struct {
	*bindings
	pipeline  hal.ComputePipeline
	workgroup [3]uint32
}

// LoadComputeProgram loads a compute program from sources. If refl is nil
// the WGSL sources are reflected.
//
// The program belongs to c and is destroyed with it.
func (c *Context) LoadComputeProgram(refl *shader.Reflection, sources ...shader.Source) (*ComputeProgram, error) {
	b, err := c.loadBindings("compute", refl, sources)
	if err != nil {
		return nil, err
	}
	cs, ok := b.module.Stage(gputypes.ShaderStageCompute)
	if !ok {
		b.destroy()
		return nil, fmt.Errorf("%w: %v", shader.ErrMissingStage, gputypes.ShaderStageCompute)
	}
	native, err := pipeline.CreateCompute(c.device, b.label, b.pipelineLayout, cs.Module, cs.EntryPoint)
	if err != nil {
		b.destroy()
		return nil, err
	}
	p := &ComputeProgram{bindings: b, pipeline: native, workgroup: b.Reflection().WorkgroupSize}
	c.computes = append(c.computes, p)

	logging.Logger().Debug("raygpu: compute program loaded",
		"label", b.label,
		"workgroup", p.workgroup)
	return p, nil
}

// Pipeline returns the native compute pipeline.
func (p *ComputeProgram) Pipeline() hal.ComputePipeline { return p.pipeline }

// WorkgroupSize returns the declared workgroup size.
func (p *ComputeProgram) WorkgroupSize() [3]uint32 { return p.workgroup }

// Destroy releases the pipeline, bind group, layouts and shader module.
// It is safe to call more than once.
func (p *ComputeProgram) Destroy() {
	if p.destroyed {
		return
	}
	if p.pipeline != nil {
		p.device.DestroyComputePipeline(p.pipeline)
		p.pipeline = nil
	}
	p.bindings.destroy()
}
