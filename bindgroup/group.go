// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bindgroup

import (
	"fmt"
	"math/bits"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/raygpu/cache"
	"github.com/gogpu/raygpu/internal/logging"
	"github.com/gogpu/raygpu/refcount"
)

// ReleasePolicy controls what happens to a native bind group that was made
// stale by a Set call.
type ReleasePolicy uint8

const (
	// ReleaseImmediate destroys the stale group inside the Set call.
	ReleaseImmediate ReleasePolicy = iota

	// ReleaseDeferred keeps stale groups alive until ReleaseStale or
	// Destroy, for backends that may still read them from recorded but
	// unsubmitted commands.
	ReleaseDeferred
)

// TextureSource is anything that can provide a sampled view.
type TextureSource interface {
	View() *refcount.Ref[hal.TextureView]
}

// Entry is one resource bound in a group. Exactly one of Buffer,
// TextureView and Sampler is set once the entry is filled.
type Entry struct {
	Binding     uint32
	Buffer      *refcount.Ref[hal.Buffer]
	Offset      uint64
	Size        uint64
	TextureView *refcount.Ref[hal.TextureView]
	Sampler     *refcount.Ref[hal.Sampler]
}

// BufferEntry returns an entry binding size bytes of buf at offset.
func BufferEntry(binding uint32, buf *refcount.Ref[hal.Buffer], offset, size uint64) Entry {
	return Entry{Binding: binding, Buffer: buf, Offset: offset, Size: size}
}

// TextureEntry returns an entry binding a texture view.
func TextureEntry(binding uint32, view *refcount.Ref[hal.TextureView]) Entry {
	return Entry{Binding: binding, TextureView: view}
}

// SamplerEntry returns an entry binding a sampler.
func SamplerEntry(binding uint32, s *refcount.Ref[hal.Sampler]) Entry {
	return Entry{Binding: binding, Sampler: s}
}

// term is the entry's contribution to the group hash. It depends only on
// the binding index and the identity of what is bound there.
func (e *Entry) term() uint64 {
	var id uint64
	switch {
	case e.Buffer != nil:
		id = e.Buffer.ID() ^ bits.RotateLeft64(e.Offset, 21) ^ bits.RotateLeft64(e.Size, 42)
	case e.TextureView != nil:
		id = e.TextureView.ID()
	case e.Sampler != nil:
		id = e.Sampler.ID()
	default:
		return 0
	}
	return bits.RotateLeft64(id*0x9e3779b97f4a7c15, int(e.Binding%64)) ^ uint64(e.Binding)<<56
}

func (e *Entry) retain() {
	switch {
	case e.Buffer != nil:
		e.Buffer.Retain()
	case e.TextureView != nil:
		e.TextureView.Retain()
	case e.Sampler != nil:
		e.Sampler.Retain()
	}
}

func (e *Entry) release() {
	switch {
	case e.Buffer != nil:
		e.Buffer.Release()
	case e.TextureView != nil:
		e.TextureView.Release()
	case e.Sampler != nil:
		e.Sampler.Release()
	}
}

// native converts a filled entry to the backend form.
func (e *Entry) native() (gputypes.BindGroupEntry, bool) {
	out := gputypes.BindGroupEntry{Binding: e.Binding}
	switch {
	case e.Buffer != nil:
		out.Resource = gputypes.BufferBinding{
			Buffer: e.Buffer.Value().NativeHandle(), Offset: e.Offset, Size: e.Size,
		}
	case e.TextureView != nil:
		out.Resource = gputypes.TextureViewBinding{TextureView: e.TextureView.Value().NativeHandle()}
	case e.Sampler != nil:
		out.Resource = gputypes.SamplerBinding{Sampler: e.Sampler.Value().NativeHandle()}
	default:
		return out, false
	}
	return out, true
}

// Option configures a Group.
type Option func(*Group)

// WithLabel sets the debug label of native groups.
func WithLabel(label string) Option {
	return func(g *Group) { g.label = label }
}

// WithReleasePolicy selects how stale native groups are released.
func WithReleasePolicy(p ReleasePolicy) Option {
	return func(g *Group) { g.policy = p }
}

// Group tracks the resources bound to one bind group and rebuilds the
// native group on demand.
//
// Every Set call marks the group dirty, even when the same resource is set
// again. Resolve rebuilds the native group only while dirty. Hash is the
// XOR of per-binding terms and is updated incrementally.
//
// A Group holds one reference on every resource it binds.
type Group struct {
	device  hal.Device
	layout  *Layout
	label   string
	policy  ReleasePolicy
	entries []Entry
	index   *cache.HashMap[uint32, int]

	hash   uint64
	dirty  bool
	native hal.BindGroup
	stale  []hal.BindGroup
	builds int
}

// Load creates a group for layout with the given initial entries. Each
// resource in entries is retained. The group starts dirty.
func Load(layout *Layout, entries []Entry, opts ...Option) *Group {
	g := &Group{
		device:  layout.device,
		layout:  layout,
		label:   layout.label,
		entries: make([]Entry, len(entries)),
		dirty:   true,
	}
	for _, opt := range opts {
		opt(g)
	}
	copy(g.entries, entries)
	g.index = cache.NewPOD[uint32, int](cache.ComparableKeys(cache.IntegerHasher[uint32]()),
		cache.WithCapacity(len(entries)))
	for i := range g.entries {
		g.index.Put(g.entries[i].Binding, i)
		g.entries[i].retain()
		g.hash ^= g.entries[i].term()
	}
	return g
}

// SetUniformBuffer binds size bytes of buf at offset to binding.
func (g *Group) SetUniformBuffer(binding uint32, buf *refcount.Ref[hal.Buffer], offset, size uint64) bool {
	return g.set(BufferEntry(binding, buf, offset, size))
}

// SetStorageBuffer binds size bytes of buf at offset to binding.
func (g *Group) SetStorageBuffer(binding uint32, buf *refcount.Ref[hal.Buffer], offset, size uint64) bool {
	return g.set(BufferEntry(binding, buf, offset, size))
}

// SetTextureView binds view to binding.
func (g *Group) SetTextureView(binding uint32, view *refcount.Ref[hal.TextureView]) bool {
	return g.set(TextureEntry(binding, view))
}

// SetTexture binds the sampled view of tex to binding.
func (g *Group) SetTexture(binding uint32, tex TextureSource) bool {
	return g.set(TextureEntry(binding, tex.View()))
}

// SetSampler binds s to binding.
func (g *Group) SetSampler(binding uint32, s *refcount.Ref[hal.Sampler]) bool {
	return g.set(SamplerEntry(binding, s))
}

// set replaces the entry with the same binding. Unknown bindings are
// reported and ignored.
func (g *Group) set(e Entry) bool {
	idx, ok := g.index.Get(e.Binding)
	if !ok {
		logging.Logger().Warn("bindgroup: set of unknown binding",
			"group", g.label, "binding", e.Binding)
		return false
	}

	old := &g.entries[*idx]
	e.retain()
	old.release()
	g.hash ^= old.term() ^ e.term()
	*old = e

	g.dirty = true
	g.dropNative()
	return true
}

func (g *Group) dropNative() {
	if g.native == nil {
		return
	}
	if g.policy == ReleaseDeferred {
		g.stale = append(g.stale, g.native)
	} else {
		g.device.DestroyBindGroup(g.native)
	}
	g.native = nil
}

// Resolve returns the native group, rebuilding it first if the group is
// dirty. Entries that were never filled are left out of the descriptor.
// Groups replaced under ReleaseDeferred stay alive until ReleaseStale.
func (g *Group) Resolve() (hal.BindGroup, error) {
	if !g.dirty && g.native != nil {
		return g.native, nil
	}

	entries := make([]gputypes.BindGroupEntry, 0, len(g.entries))
	for i := range g.entries {
		if e, ok := g.entries[i].native(); ok {
			entries = append(entries, e)
		}
	}
	native, err := g.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   g.label,
		Layout:  g.layout.native,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBindGroupCreation, g.label, err)
	}
	g.native = native
	g.dirty = false
	g.builds++
	logging.Logger().Debug("bindgroup: rebuilt", "group", g.label, "entries", len(entries), "hash", g.hash)
	return native, nil
}

// ReleaseStale destroys the native groups replaced since the last call.
// Call it once the commands that used them have been submitted.
func (g *Group) ReleaseStale() {
	for i, bg := range g.stale {
		g.device.DestroyBindGroup(bg)
		g.stale[i] = nil
	}
	g.stale = g.stale[:0]
}

// Stale returns the number of replaced native groups still alive.
func (g *Group) Stale() int { return len(g.stale) }

// Dirty reports whether the next Resolve rebuilds the native group.
func (g *Group) Dirty() bool { return g.dirty }

// Hash returns the XOR hash of the bound resources.
func (g *Group) Hash() uint64 { return g.hash }

// Builds returns the number of native groups built so far.
func (g *Group) Builds() int { return g.builds }

// Entries returns the bound entries. The slice is borrowed.
func (g *Group) Entries() []Entry { return g.entries }

// Layout returns the layout the group was loaded with.
func (g *Group) Layout() *Layout { return g.layout }

// Destroy releases the native group and every bound resource. The layout
// is not destroyed.
func (g *Group) Destroy() {
	g.ReleaseStale()
	if g.native != nil {
		g.device.DestroyBindGroup(g.native)
		g.native = nil
	}
	for i := range g.entries {
		g.entries[i].release()
		g.entries[i] = Entry{Binding: g.entries[i].Binding}
	}
	g.hash = 0
	g.dirty = true
}
