// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package vertex

import (
	"cmp"
	"slices"

	"github.com/gogpu/gputypes"
)

// Attribute is one vertex attribute together with the buffer slot it
// reads from.
type Attribute struct {
	// Format is the attribute data format.
	Format gputypes.VertexFormat

	// Offset is the byte offset from the start of the vertex.
	Offset uint64

	// ShaderLocation is the @location the shader reads the attribute at.
	ShaderLocation uint32

	// BufferSlot indexes the vertex buffer slot the attribute lives in.
	BufferSlot uint32

	// StepMode is the input rate (per vertex or per instance).
	StepMode gputypes.VertexStepMode

	// Enabled reports whether draws bind the attribute's buffer.
	Enabled bool
}

// Sort orders attrs ascending by ShaderLocation.
func Sort(attrs []Attribute) {
	slices.SortFunc(attrs, func(a, b Attribute) int {
		return cmp.Compare(a.ShaderLocation, b.ShaderLocation)
	})
}

// IsSorted reports whether attrs is strictly ascending by ShaderLocation,
// which also rules out duplicate locations.
func IsSorted(attrs []Attribute) bool {
	for i := 1; i < len(attrs); i++ {
		if attrs[i-1].ShaderLocation >= attrs[i].ShaderLocation {
			return false
		}
	}
	return true
}

// Enabled returns the enabled subset of attrs, preserving order.
func Enabled(attrs []Attribute) []Attribute {
	out := make([]Attribute, 0, len(attrs))
	for _, a := range attrs {
		if a.Enabled {
			out = append(out, a)
		}
	}
	return out
}
