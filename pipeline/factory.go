// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipeline

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/raygpu/vertex"
)

// DepthFormat is the depth attachment format of every depth-tested
// pipeline.
const DepthFormat = gputypes.TextureFormatDepth32Float

// Stages names the shader modules and entry points of a render pipeline.
type Stages struct {
	VertexModule     hal.ShaderModule
	VertexEntryPoint string

	// FragmentModule may be nil for a depth-only pipeline.
	FragmentModule     hal.ShaderModule
	FragmentEntryPoint string
}

// RenderDescriptor builds the native render pipeline descriptor for s.
//
// Only enabled attributes contribute to the vertex buffer layouts. The
// blend state of s is replicated to every color attachment. A depth-tested
// state gets a Depth32Float attachment with depth writes on and a stencil
// test that always passes and never writes.
func RenderDescriptor(label string, s *State, stages Stages, layout hal.PipelineLayout) (*hal.RenderPipelineDescriptor, error) {
	topology, err := s.Primitive.Topology()
	if err != nil {
		return nil, err
	}

	desc := &hal.RenderPipelineDescriptor{
		Label:  label,
		Layout: layout,
		Vertex: hal.VertexState{
			Module:     stages.VertexModule,
			EntryPoint: stages.VertexEntryPoint,
			Buffers:    vertexBuffers(s.Attributes),
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  topology,
			FrontFace: s.Settings.FrontFace,
			CullMode:  cullMode(s.Settings.FaceCull),
		},
		Multisample: gputypes.MultisampleState{
			Count: max(s.Settings.SampleCount, 1),
			Mask:  0xFFFFFFFF,
		},
	}

	if stages.FragmentModule != nil {
		targets := make([]gputypes.ColorTargetState, s.ColorAttachments.Count)
		for i, format := range s.ColorAttachments.Slice() {
			targets[i] = gputypes.ColorTargetState{
				Format:    format,
				Blend:     s.Settings.Blend.native(),
				WriteMask: gputypes.ColorWriteMaskAll,
			}
		}
		desc.Fragment = &hal.FragmentState{
			Module:     stages.FragmentModule,
			EntryPoint: stages.FragmentEntryPoint,
			Targets:    targets,
		}
	}

	if s.Settings.DepthTest {
		desc.DepthStencil = depthState(s.Settings.DepthCompare)
	}
	return desc, nil
}

// vertexBuffers derives the layouts of the enabled attributes. Slots left
// without attributes are marked unused.
func vertexBuffers(attrs []vertex.Attribute) []gputypes.VertexBufferLayout {
	layouts := vertex.DeriveLayouts(vertex.Enabled(attrs), -1)
	for i := range layouts {
		if len(layouts[i].Attributes) == 0 {
			layouts[i].ArrayStride = 0
			layouts[i].StepMode = gputypes.VertexStepModeVertexBufferNotUsed
		}
	}
	return layouts
}

func cullMode(faceCull bool) gputypes.CullMode {
	if faceCull {
		return gputypes.CullModeBack
	}
	return gputypes.CullModeNone
}

func depthState(compare gputypes.CompareFunction) *hal.DepthStencilState {
	face := hal.StencilFaceState{
		Compare:     gputypes.CompareFunctionAlways,
		FailOp:      hal.StencilOperationKeep,
		DepthFailOp: hal.StencilOperationKeep,
		PassOp:      hal.StencilOperationKeep,
	}
	return &hal.DepthStencilState{
		Format:            DepthFormat,
		DepthWriteEnabled: true,
		DepthCompare:      compare,
		StencilFront:      face,
		StencilBack:       face,
		StencilReadMask:   0x00,
		StencilWriteMask:  0x00,
	}
}
