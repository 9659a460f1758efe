// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipeline

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"hash/fnv"
	"math/bits"

	"github.com/gogpu/raygpu/vertex"
)

// ErrUnsortedAttributes is returned for a State whose attributes are not
// strictly ascending by shader location.
var ErrUnsortedAttributes = errors.New("pipeline: vertex attributes not sorted by shader location")

// State is the key of the render pipeline cache: everything that decides
// which native pipeline a draw needs, apart from the shader itself.
//
// Attributes must be strictly ascending by ShaderLocation. Equal and Hash
// rely on that order and do not sort.
type State struct {
	// Attributes are the vertex attributes, including disabled ones.
	Attributes []vertex.Attribute

	// Primitive is the primitive type of the draw.
	Primitive Primitive

	// Settings is the fixed-function state.
	Settings RenderSettings

	// ColorAttachments are the render target formats.
	ColorAttachments ColorAttachments
}

// Validate checks the attribute ordering precondition.
func (s *State) Validate() error {
	if !vertex.IsSorted(s.Attributes) {
		return fmt.Errorf("%w (%d attributes)", ErrUnsortedAttributes, len(s.Attributes))
	}
	return nil
}

// Equal reports whether s and o select the same pipeline. Attributes are
// compared element by element in order.
func (s *State) Equal(o *State) bool {
	if len(s.Attributes) != len(o.Attributes) {
		return false
	}
	for i := range s.Attributes {
		a, b := &s.Attributes[i], &o.Attributes[i]
		if a.BufferSlot != b.BufferSlot ||
			a.Enabled != b.Enabled ||
			a.StepMode != b.StepMode ||
			a.Format != b.Format ||
			a.Offset != b.Offset ||
			a.ShaderLocation != b.ShaderLocation {
			return false
		}
	}
	return s.Primitive == o.Primitive &&
		s.Settings == o.Settings &&
		s.ColorAttachments.Equal(o.ColorAttachments)
}

// Hash returns a hash consistent with Equal.
//
// Terms are combined with rotations so that swapping two fields does not
// cancel out. Every color attachment is folded in together with the
// attachment count, so states that differ only in a later attachment
// still hash apart.
func (s *State) Hash() uint64 {
	var attrs uint64
	for i := range s.Attributes {
		a := &s.Attributes[i]
		term := uint64(a.ShaderLocation)<<48 ^ a.Offset<<16 ^ uint64(a.Format)
		var flags uint64
		if a.Enabled {
			flags = 1
		}
		flags |= uint64(a.StepMode)<<1 | uint64(a.BufferSlot)<<8
		attrs = bits.RotateLeft64(attrs, 7) ^ term ^ bits.RotateLeft64(flags, 29)
	}

	prim := uint64(s.Primitive)
	h := attrs
	h ^= bits.RotateLeft64(hashSettings(&s.Settings), 17)
	h ^= bits.RotateLeft64(prim, 31)
	for i := range s.ColorAttachments.Count {
		h = bits.RotateLeft64(h, 5) ^ bits.RotateLeft64(prim, 3) ^ uint64(s.ColorAttachments.Formats[i])
	}
	return bits.RotateLeft64(h, 11) ^ uint64(s.ColorAttachments.Count)
}

// Clone returns a deep copy of s. The attribute slice is allocated to
// exactly its length.
func (s *State) Clone() State {
	c := *s
	if s.Attributes != nil {
		c.Attributes = make([]vertex.Attribute, len(s.Attributes))
		copy(c.Attributes, s.Attributes)
	}
	return c
}

// hashSettings computes an FNV-1a hash of every RenderSettings field.
func hashSettings(r *RenderSettings) uint64 {
	h := fnv.New64a()
	hashWriteBool(h, r.DepthTest)
	hashWriteUint32(h, uint32(r.DepthCompare))
	hashWriteBool(h, r.FaceCull)
	hashWriteUint32(h, uint32(r.FrontFace))
	hashWriteUint32(h, r.SampleCount)
	hashWriteUint32(h, r.LineWidth)
	hashWriteBlend(h, r.Blend.Color)
	hashWriteBlend(h, r.Blend.Alpha)
	return h.Sum64()
}

func hashWriteBlend(h hash.Hash64, c BlendComponent) {
	hashWriteUint32(h, uint32(c.SrcFactor))
	hashWriteUint32(h, uint32(c.DstFactor))
	hashWriteUint32(h, uint32(c.Operation))
}

// hashWriteUint32 writes a uint32 to the hash.
func hashWriteUint32(h hash.Hash64, v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, _ = h.Write(buf[:])
}

// hashWriteBool writes a bool to the hash.
func hashWriteBool(h hash.Hash64, v bool) {
	if v {
		_, _ = h.Write([]byte{1})
	} else {
		_, _ = h.Write([]byte{0})
	}
}
