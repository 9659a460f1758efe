// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gogpu/naga"

	"github.com/gogpu/raygpu/cache"
)

// Compilation errors.
var (
	// ErrGLSLUnsupported is returned for GLSL sources. GLSL must be compiled
	// to SPIR-V by an external tool first.
	ErrGLSLUnsupported = errors.New("shader: GLSL sources require an external compiler")

	// ErrCompile is returned when naga rejects a WGSL source.
	ErrCompile = errors.New("shader: compilation failed")

	// ErrEmptySource is returned for a source with no code or words.
	ErrEmptySource = errors.New("shader: empty source")
)

// compiled memoizes WGSL compilation across every context in the process.
var compiled = cache.NewSharded[string, []uint32](32, cache.StringHasher)

// Compile returns the SPIR-V words for src. WGSL results are cached by
// source text; the returned slice is shared and must not be modified.
func Compile(src Source) ([]uint32, error) {
	switch src.Language {
	case SPIRV:
		if len(src.Words) == 0 {
			return nil, fmt.Errorf("%w: no SPIR-V words", ErrEmptySource)
		}
		return src.Words, nil
	case GLSL:
		return nil, ErrGLSLUnsupported
	case WGSL:
		if src.Code == "" {
			return nil, fmt.Errorf("%w: no WGSL code", ErrEmptySource)
		}
		return compiled.GetOrLoad(src.Code, func() ([]uint32, error) {
			return compileWGSL(src.Code)
		})
	}
	panic(fmt.Sprintf("shader: unknown language %d", src.Language))
}

func compileWGSL(code string) ([]uint32, error) {
	spirv, err := naga.Compile(code)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompile, err)
	}
	if len(spirv)%4 != 0 {
		return nil, fmt.Errorf("%w: SPIR-V length %d is not a multiple of 4", ErrCompile, len(spirv))
	}
	words := make([]uint32, len(spirv)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirv[i*4:])
	}
	return words, nil
}

// CompileStats reports the activity of the process-wide compile cache.
func CompileStats() cache.Stats { return compiled.Stats() }

// ResetCompileCache drops every cached compilation.
func ResetCompileCache() {
	compiled.Clear()
	compiled.ResetStats()
}
