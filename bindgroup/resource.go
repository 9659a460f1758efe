// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package bindgroup builds bind group layouts from reflected shader
// resources and keeps bind groups in sync with the resources bound to
// them.
//
// A Group is patched in place by Set calls, which mark it dirty. The native
// bind group is rebuilt lazily by Resolve, which a draw calls right before
// recording.
package bindgroup

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// Kind is the type of resource bound at a location.
type Kind uint8

// Resource kinds.
const (
	UniformBuffer Kind = iota + 1
	StorageBuffer
	Texture2D
	Texture2DArray
	Texture3D
	Sampler
	StorageTexture2D
	StorageTexture2DArray
	StorageTexture3D
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case UniformBuffer:
		return "UniformBuffer"
	case StorageBuffer:
		return "StorageBuffer"
	case Texture2D:
		return "Texture2D"
	case Texture2DArray:
		return "Texture2DArray"
	case Texture3D:
		return "Texture3D"
	case Sampler:
		return "Sampler"
	case StorageTexture2D:
		return "StorageTexture2D"
	case StorageTexture2DArray:
		return "StorageTexture2DArray"
	case StorageTexture3D:
		return "StorageTexture3D"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// IsBuffer reports whether k binds a buffer.
func (k Kind) IsBuffer() bool { return k == UniformBuffer || k == StorageBuffer }

// Access is how a shader accesses a storage resource.
type Access uint8

// Access modes.
const (
	ReadOnly Access = iota
	ReadWrite
	WriteOnly
)

// SampleType is the scalar type a sampled texture returns.
type SampleType uint8

// Sample types.
const (
	SampleFloat SampleType = iota
	SampleUint
	SampleSint
)

// ResourceDescriptor is the reflected description of one binding in
// group 0.
type ResourceDescriptor struct {
	// Kind is the resource type.
	Kind Kind

	// MinBindingSize is the minimum buffer size. Zero for non-buffers.
	MinBindingSize uint64

	// Location is the binding index within the group.
	Location uint32

	// Access applies to storage buffers and storage textures.
	Access Access

	// SampleType applies to sampled textures.
	SampleType SampleType

	// StorageFormat applies to storage textures.
	StorageFormat gputypes.TextureFormat

	// Visibility records the stages that declare the resource.
	Visibility gputypes.ShaderStage
}
