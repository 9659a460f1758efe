// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipeline

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// MaxColorAttachments is the number of color targets a render pipeline
// can write.
const MaxColorAttachments = 8

// ColorAttachments is the set of color target formats a pipeline renders
// to. Slots at or past Count are ignored by Equal and Hash.
type ColorAttachments struct {
	Formats [MaxColorAttachments]gputypes.TextureFormat
	Count   uint32
}

// Attachments builds a ColorAttachments from formats. It panics when more
// than MaxColorAttachments formats are given.
func Attachments(formats ...gputypes.TextureFormat) ColorAttachments {
	if len(formats) > MaxColorAttachments {
		panic(fmt.Sprintf("pipeline: %d color attachments exceeds %d", len(formats), MaxColorAttachments))
	}
	var c ColorAttachments
	copy(c.Formats[:], formats)
	c.Count = uint32(len(formats))
	return c
}

// Equal compares the count and the format of each used slot.
func (c ColorAttachments) Equal(o ColorAttachments) bool {
	if c.Count != o.Count {
		return false
	}
	for i := range c.Count {
		if c.Formats[i] != o.Formats[i] {
			return false
		}
	}
	return true
}

// Slice returns the used formats.
func (c ColorAttachments) Slice() []gputypes.TextureFormat {
	return c.Formats[:c.Count]
}
