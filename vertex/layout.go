// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package vertex

import "github.com/gogpu/gputypes"

// DeriveLayouts converts attrs into one layout per vertex buffer slot.
//
// bufferCount is the number of slots; a negative value infers it as the
// highest BufferSlot plus one. Attributes whose slot is out of range are
// dropped. Strides are the sum of the format sizes of each slot's
// attributes, and each layout takes the step mode of the last attribute
// placed in it. All layouts share a single attribute backing array.
//
// The result is never nil, even when there are no attributes or buffers.
func DeriveLayouts(attrs []Attribute, bufferCount int) []gputypes.VertexBufferLayout {
	if bufferCount < 0 {
		bufferCount = 0
		for _, a := range attrs {
			bufferCount = max(bufferCount, int(a.BufferSlot)+1)
		}
	}
	layouts := make([]gputypes.VertexBufferLayout, bufferCount)
	if bufferCount == 0 || len(attrs) == 0 {
		return layouts
	}

	// Count attributes per slot.
	counts := make([]int, bufferCount)
	total := 0
	for _, a := range attrs {
		if int(a.BufferSlot) < bufferCount {
			counts[a.BufferSlot]++
			total++
		}
	}

	// Prefix sum into regions of a shared pool.
	pool := make([]gputypes.VertexAttribute, total)
	starts := make([]int, bufferCount)
	next := 0
	for i, c := range counts {
		starts[i] = next
		next += c
	}

	// Place attributes in input order.
	fill := make([]int, bufferCount)
	for _, a := range attrs {
		slot := int(a.BufferSlot)
		if slot >= bufferCount {
			continue
		}
		pool[starts[slot]+fill[slot]] = gputypes.VertexAttribute{
			Format:         a.Format,
			Offset:         a.Offset,
			ShaderLocation: a.ShaderLocation,
		}
		fill[slot]++
		layouts[slot].ArrayStride += FormatSize(a.Format)
		layouts[slot].StepMode = a.StepMode
	}
	for i := range layouts {
		layouts[i].Attributes = pool[starts[i] : starts[i]+counts[i] : starts[i]+counts[i]]
	}
	return layouts
}
