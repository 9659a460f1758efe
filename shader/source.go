// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package shader loads shader sources into native modules and carries the
// reflection data that drives bind group layouts and vertex inputs.
//
// WGSL is compiled to SPIR-V with naga when a backend needs words. GLSL
// needs an external compiler and is rejected. SPIR-V words pass through.
package shader

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// Language identifies the source language of a shader.
type Language uint8

// Source languages.
const (
	WGSL Language = iota
	GLSL
	SPIRV
)

// String returns the language name.
func (l Language) String() string {
	switch l {
	case WGSL:
		return "WGSL"
	case GLSL:
		return "GLSL"
	case SPIRV:
		return "SPIR-V"
	}
	return fmt.Sprintf("Language(%d)", uint8(l))
}

// Source is one shader source. A WGSL source usually provides every stage;
// GLSL and SPIR-V sources provide one stage each.
type Source struct {
	Language Language

	// Stages lists the stages this source provides. Zero means every stage
	// the reflection declares.
	Stages gputypes.ShaderStage

	// Code is the text of WGSL and GLSL sources.
	Code string

	// Words is the SPIR-V binary.
	Words []uint32

	// EntryPoint overrides the reflected entry point name.
	EntryPoint string
}

// FromWGSL returns a WGSL source providing every stage it declares.
func FromWGSL(code string) Source {
	return Source{Language: WGSL, Code: code}
}

// FromSPIRV returns a SPIR-V source for the given stage.
func FromSPIRV(stage gputypes.ShaderStage, words []uint32, entryPoint string) Source {
	return Source{Language: SPIRV, Stages: stage, Words: words, EntryPoint: entryPoint}
}
