// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package vertex

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/raygpu/internal/logging"
)

// ErrStepModeConflict is returned when one buffer would be read with two
// different step modes. The array is left unchanged.
var ErrStepModeConflict = errors.New("vertex: buffer used with conflicting step modes")

// Slot is a vertex buffer binding point.
type Slot struct {
	Buffer   hal.Buffer
	StepMode gputypes.VertexStepMode
}

// Array maps shader locations to vertex buffer slots.
//
// Attributes are kept sorted by shader location after every call. Slots
// are reused whenever possible so that rebinding the same buffers frame to
// frame yields the same slot assignment, and therefore the same pipeline
// key. No two slots ever hold the same buffer and step mode.
//
// An Array does not own its buffers.
type Array struct {
	attrs []Attribute
	slots []Slot
}

// NewArray returns an empty vertex array.
func NewArray() *Array {
	return &Array{}
}

// Add binds the attribute at location to buffer.
//
// If location already has an attribute, its format, offset and step mode
// are updated and its slot is re-resolved: the current slot is kept when
// the buffer is unchanged, otherwise a slot already holding the same
// buffer and step mode is used, otherwise the old slot is rebound if no
// other attribute reads it, otherwise a new slot is appended. A new
// attribute takes a matching slot or a fresh one, and is enabled.
func (a *Array) Add(buffer hal.Buffer, location uint32, format gputypes.VertexFormat, offset uint64, step gputypes.VertexStepMode) error {
	idx := a.find(location)
	if err := a.checkStepMode(buffer, step, idx, location); err != nil {
		return err
	}

	if idx >= 0 {
		attr := &a.attrs[idx]
		attr.Format = format
		attr.Offset = offset
		attr.StepMode = step
		attr.BufferSlot = a.resolveSlot(buffer, step, idx, int(attr.BufferSlot))
		return nil
	}

	a.attrs = append(a.attrs, Attribute{
		Format:         format,
		Offset:         offset,
		ShaderLocation: location,
		BufferSlot:     a.resolveSlot(buffer, step, -1, -1),
		StepMode:       step,
		Enabled:        true,
	})
	Sort(a.attrs)
	return nil
}

// Remove drops the attribute at location. Its slot stays allocated so that
// the slot indices of other attributes do not move.
func (a *Array) Remove(location uint32) bool {
	idx := a.find(location)
	if idx < 0 {
		logging.Logger().Warn("vertex: remove of unknown attribute", "location", location)
		return false
	}
	a.attrs = append(a.attrs[:idx], a.attrs[idx+1:]...)
	return true
}

// Enable marks the attribute at location as enabled.
func (a *Array) Enable(location uint32) bool { return a.setEnabled(location, true) }

// Disable marks the attribute at location as disabled. The attribute keeps
// its slot and still takes part in pipeline keys.
func (a *Array) Disable(location uint32) bool { return a.setEnabled(location, false) }

func (a *Array) setEnabled(location uint32, enabled bool) bool {
	idx := a.find(location)
	if idx < 0 {
		logging.Logger().Warn("vertex: attribute not found", "location", location, "enable", enabled)
		return false
	}
	a.attrs[idx].Enabled = enabled
	return true
}

// Attributes returns the sorted attributes. The slice is borrowed and is
// invalidated by the next mutating call.
func (a *Array) Attributes() []Attribute { return a.attrs }

// Len returns the number of attributes.
func (a *Array) Len() int { return len(a.attrs) }

// Slots returns the buffer slots. The slice is borrowed.
func (a *Array) Slots() []Slot { return a.slots }

// Slot returns slot i.
func (a *Array) Slot(i int) (Slot, bool) {
	if i < 0 || i >= len(a.slots) {
		return Slot{}, false
	}
	return a.slots[i], true
}

// ActiveSlots returns, in ascending order, the slots read by at least one
// enabled attribute. These are the buffers a draw must bind.
func (a *Array) ActiveSlots() []uint32 {
	active := make([]bool, len(a.slots))
	for _, attr := range a.attrs {
		if attr.Enabled {
			active[attr.BufferSlot] = true
		}
	}
	var out []uint32
	for i, ok := range active {
		if ok {
			out = append(out, uint32(i))
		}
	}
	return out
}

// Clone returns a deep copy of the array.
func (a *Array) Clone() *Array {
	return &Array{
		attrs: append([]Attribute(nil), a.attrs...),
		slots: append([]Slot(nil), a.slots...),
	}
}

func (a *Array) find(location uint32) int {
	for i, attr := range a.attrs {
		if attr.ShaderLocation == location {
			return i
		}
	}
	return -1
}

// checkStepMode rejects binding buffer with step when another attribute
// (other than the one at index self) already reads buffer with a
// different step mode.
func (a *Array) checkStepMode(buffer hal.Buffer, step gputypes.VertexStepMode, self int, location uint32) error {
	for i, attr := range a.attrs {
		if i == self {
			continue
		}
		s := a.slots[attr.BufferSlot]
		if s.Buffer == buffer && s.StepMode != step {
			return fmt.Errorf("%w: location %d reads it per %v, location %d wants %v",
				ErrStepModeConflict, attr.ShaderLocation, s.StepMode, location, step)
		}
	}
	return nil
}

func (a *Array) resolveSlot(buffer hal.Buffer, step gputypes.VertexStepMode, self, old int) uint32 {
	if old >= 0 && a.slots[old].Buffer == buffer {
		if j := a.findSlot(buffer, step); j >= 0 {
			return uint32(j)
		}
		a.slots[old].StepMode = step
		return uint32(old)
	}
	if j := a.findSlot(buffer, step); j >= 0 {
		return uint32(j)
	}
	if old >= 0 && !a.slotShared(old, self) {
		a.slots[old] = Slot{Buffer: buffer, StepMode: step}
		return uint32(old)
	}
	a.slots = append(a.slots, Slot{Buffer: buffer, StepMode: step})
	return uint32(len(a.slots) - 1)
}

func (a *Array) findSlot(buffer hal.Buffer, step gputypes.VertexStepMode) int {
	for i, s := range a.slots {
		if s.Buffer == buffer && s.StepMode == step {
			return i
		}
	}
	return -1
}

// slotShared reports whether any attribute other than self reads slot.
func (a *Array) slotShared(slot, self int) bool {
	for i, attr := range a.attrs {
		if i != self && int(attr.BufferSlot) == slot {
			return true
		}
	}
	return false
}
