// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package vertex

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// FormatSize returns the byte size of one element of format f.
//
// Every vertex format a shader can declare is mapped; an unknown value is
// a programming error and panics.
func FormatSize(f gputypes.VertexFormat) uint64 {
	switch f {
	case gputypes.VertexFormatUint8x2, gputypes.VertexFormatSint8x2,
		gputypes.VertexFormatUnorm8x2, gputypes.VertexFormatSnorm8x2:
		return 2
	case gputypes.VertexFormatUint8x4, gputypes.VertexFormatSint8x4,
		gputypes.VertexFormatUnorm8x4, gputypes.VertexFormatSnorm8x4,
		gputypes.VertexFormatUint16x2, gputypes.VertexFormatSint16x2,
		gputypes.VertexFormatUnorm16x2, gputypes.VertexFormatSnorm16x2,
		gputypes.VertexFormatFloat16x2,
		gputypes.VertexFormatFloat32, gputypes.VertexFormatUint32, gputypes.VertexFormatSint32:
		return 4
	case gputypes.VertexFormatUint16x4, gputypes.VertexFormatSint16x4,
		gputypes.VertexFormatUnorm16x4, gputypes.VertexFormatSnorm16x4,
		gputypes.VertexFormatFloat16x4,
		gputypes.VertexFormatFloat32x2, gputypes.VertexFormatUint32x2, gputypes.VertexFormatSint32x2:
		return 8
	case gputypes.VertexFormatFloat32x3, gputypes.VertexFormatUint32x3, gputypes.VertexFormatSint32x3:
		return 12
	case gputypes.VertexFormatFloat32x4, gputypes.VertexFormatUint32x4, gputypes.VertexFormatSint32x4:
		return 16
	}
	panic(fmt.Sprintf("vertex: unknown vertex format %d", f))
}

// Components returns the number of scalar components in format f.
func Components(f gputypes.VertexFormat) int {
	switch f {
	case gputypes.VertexFormatFloat32, gputypes.VertexFormatUint32, gputypes.VertexFormatSint32:
		return 1
	case gputypes.VertexFormatFloat32x3, gputypes.VertexFormatUint32x3, gputypes.VertexFormatSint32x3:
		return 3
	case gputypes.VertexFormatUint8x4, gputypes.VertexFormatSint8x4,
		gputypes.VertexFormatUnorm8x4, gputypes.VertexFormatSnorm8x4,
		gputypes.VertexFormatUint16x4, gputypes.VertexFormatSint16x4,
		gputypes.VertexFormatUnorm16x4, gputypes.VertexFormatSnorm16x4,
		gputypes.VertexFormatFloat16x4,
		gputypes.VertexFormatFloat32x4, gputypes.VertexFormatUint32x4, gputypes.VertexFormatSint32x4:
		return 4
	}
	return 2
}
