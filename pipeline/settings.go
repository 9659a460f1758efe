// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipeline

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// Primitive is the primitive type a draw assembles.
type Primitive uint8

const (
	// PointList draws each vertex as a point.
	PointList Primitive = iota
	// LineList draws each pair of vertices as a line.
	LineList
	// TriangleList draws each triple of vertices as a triangle.
	TriangleList
	// TriangleStrip draws a connected strip of triangles.
	TriangleStrip
	// Quads draws each four vertices as two triangles. Draws expand quads
	// before they reach pipeline creation.
	Quads
)

// String returns the primitive name.
func (p Primitive) String() string {
	switch p {
	case PointList:
		return "PointList"
	case LineList:
		return "LineList"
	case TriangleList:
		return "TriangleList"
	case TriangleStrip:
		return "TriangleStrip"
	case Quads:
		return "Quads"
	}
	return fmt.Sprintf("Primitive(%d)", uint8(p))
}

// Topology maps p to a native primitive topology. Quads have no native
// topology and return ErrQuadsTopology.
func (p Primitive) Topology() (gputypes.PrimitiveTopology, error) {
	switch p {
	case PointList:
		return gputypes.PrimitiveTopologyPointList, nil
	case LineList:
		return gputypes.PrimitiveTopologyLineList, nil
	case TriangleList:
		return gputypes.PrimitiveTopologyTriangleList, nil
	case TriangleStrip:
		return gputypes.PrimitiveTopologyTriangleStrip, nil
	case Quads:
		return 0, ErrQuadsTopology
	}
	panic(fmt.Sprintf("pipeline: unknown primitive %d", uint8(p)))
}

// BlendComponent describes a blend component (color or alpha).
type BlendComponent struct {
	// SrcFactor is the source blend factor.
	SrcFactor gputypes.BlendFactor

	// DstFactor is the destination blend factor.
	DstFactor gputypes.BlendFactor

	// Operation is the blend operation.
	Operation gputypes.BlendOperation
}

// BlendState describes the color blending configuration. One blend state
// applies to every color attachment.
type BlendState struct {
	// Color is the color blending configuration.
	Color BlendComponent

	// Alpha is the alpha blending configuration.
	Alpha BlendComponent
}

// BlendAlpha is straight alpha blending: src*a + dst*(1-a).
func BlendAlpha() BlendState {
	c := BlendComponent{
		SrcFactor: gputypes.BlendFactorSrcAlpha,
		DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
		Operation: gputypes.BlendOperationAdd,
	}
	return BlendState{
		Color: c,
		Alpha: BlendComponent{
			SrcFactor: gputypes.BlendFactorOne,
			DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
			Operation: gputypes.BlendOperationAdd,
		},
	}
}

// BlendReplace writes the source unchanged.
func BlendReplace() BlendState {
	c := BlendComponent{
		SrcFactor: gputypes.BlendFactorOne,
		DstFactor: gputypes.BlendFactorZero,
		Operation: gputypes.BlendOperationAdd,
	}
	return BlendState{Color: c, Alpha: c}
}

func (b BlendState) native() *gputypes.BlendState {
	return &gputypes.BlendState{
		Color: gputypes.BlendComponent{
			SrcFactor: b.Color.SrcFactor,
			DstFactor: b.Color.DstFactor,
			Operation: b.Color.Operation,
		},
		Alpha: gputypes.BlendComponent{
			SrcFactor: b.Alpha.SrcFactor,
			DstFactor: b.Alpha.DstFactor,
			Operation: b.Alpha.Operation,
		},
	}
}

// RenderSettings is the fixed-function state of a render pipeline.
type RenderSettings struct {
	// DepthTest enables a Depth32Float depth attachment.
	DepthTest bool

	// DepthCompare is the depth comparison function.
	DepthCompare gputypes.CompareFunction

	// FaceCull culls back faces.
	FaceCull bool

	// FrontFace defines which winding is front-facing.
	FrontFace gputypes.FrontFace

	// SampleCount is the number of samples per pixel (1 for non-MSAA).
	SampleCount uint32

	// LineWidth is the rasterized line width. It is part of the key but
	// backends without wide lines ignore it.
	LineWidth uint32

	// Blend applies to every color attachment.
	Blend BlendState
}

// DefaultRenderSettings returns depth test off, no culling, CCW front
// faces, one sample and alpha blending.
func DefaultRenderSettings() RenderSettings {
	return RenderSettings{
		DepthCompare: gputypes.CompareFunctionLessEqual,
		FrontFace:    gputypes.FrontFaceCCW,
		SampleCount:  1,
		LineWidth:    1,
		Blend:        BlendAlpha(),
	}
}
