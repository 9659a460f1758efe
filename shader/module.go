// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/raygpu/internal/logging"
)

// Module errors.
var (
	// ErrModuleCreation is returned when the backend rejects a module.
	ErrModuleCreation = errors.New("shader: backend rejected shader module")

	// ErrMissingStage is returned when no source provides a stage the
	// reflection declares.
	ErrMissingStage = errors.New("shader: no source for stage")
)

// Option configures Load.
type Option func(*loadConfig)

type loadConfig struct {
	spirv bool
	label string
}

// WithSPIRV compiles WGSL sources to SPIR-V before handing them to the
// backend, for backends that only consume SPIR-V.
func WithSPIRV() Option {
	return func(c *loadConfig) { c.spirv = true }
}

// WithLabel sets the debug label of created modules.
func WithLabel(label string) Option {
	return func(c *loadConfig) { c.label = label }
}

// StageModule is the native module and entry point serving one stage.
type StageModule struct {
	Module     hal.ShaderModule
	EntryPoint string
}

// Module is a loaded shader program: native modules per stage plus the
// reflection that describes them.
type Module struct {
	device     hal.Device
	reflection *Reflection
	stages     map[gputypes.ShaderStage]StageModule
	natives    []hal.ShaderModule
}

var allStages = []gputypes.ShaderStage{
	gputypes.ShaderStageVertex,
	gputypes.ShaderStageFragment,
	gputypes.ShaderStageCompute,
}

// Load creates native modules for sources.
//
// If refl is nil it is built by reflecting and merging every WGSL source.
// Each stage with an entry point in refl must be provided by a source.
func Load(device hal.Device, refl *Reflection, sources []Source, opts ...Option) (*Module, error) {
	cfg := loadConfig{label: "raygpu_shader"}
	for _, opt := range opts {
		opt(&cfg)
	}

	if refl == nil {
		refl = NewReflection()
		for _, src := range sources {
			if src.Language != WGSL {
				continue
			}
			r, err := ReflectWGSL(src.Code)
			if err != nil {
				return nil, err
			}
			refl.Merge(r)
		}
	}

	m := &Module{
		device:     device,
		reflection: refl,
		stages:     make(map[gputypes.ShaderStage]StageModule),
	}
	for _, src := range sources {
		native, err := m.create(src, cfg)
		if err != nil {
			m.Destroy()
			return nil, err
		}
		provides := src.Stages
		if provides == 0 {
			provides = refl.Stages()
		}
		for _, stage := range allStages {
			if provides&stage == 0 {
				continue
			}
			ep := src.EntryPoint
			if ep == "" {
				ep = refl.EntryPoint(stage)
			}
			if ep == "" {
				ep = "main"
			}
			m.stages[stage] = StageModule{Module: native, EntryPoint: ep}
		}
	}

	for stage := range refl.EntryPoints {
		if _, ok := m.stages[stage]; !ok {
			m.Destroy()
			return nil, fmt.Errorf("%w: %v", ErrMissingStage, stage)
		}
	}
	logging.Logger().Debug("shader: module loaded", "label", cfg.label,
		"sources", len(sources), "stages", len(m.stages))
	return m, nil
}

func (m *Module) create(src Source, cfg loadConfig) (hal.ShaderModule, error) {
	var source hal.ShaderSource
	switch {
	case src.Language == WGSL && !cfg.spirv:
		if src.Code == "" {
			return nil, fmt.Errorf("%w: no WGSL code", ErrEmptySource)
		}
		source.WGSL = src.Code
	default:
		words, err := Compile(src)
		if err != nil {
			return nil, err
		}
		source.SPIRV = words
	}
	native, err := m.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  cfg.label,
		Source: source,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrModuleCreation, cfg.label, err)
	}
	m.natives = append(m.natives, native)
	return native, nil
}

// Stage returns the module serving stage.
func (m *Module) Stage(stage gputypes.ShaderStage) (StageModule, bool) {
	s, ok := m.stages[stage]
	return s, ok
}

// Reflection returns the reflection the module was loaded with.
func (m *Module) Reflection() *Reflection { return m.reflection }

// Destroy releases every native module.
func (m *Module) Destroy() {
	for _, native := range m.natives {
		m.device.DestroyShaderModule(native)
	}
	m.natives = nil
	clear(m.stages)
}
