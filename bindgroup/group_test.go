// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bindgroup

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/raygpu/refcount"
)

func loadTextured(t *testing.T, dev *recordingDevice, opts ...Option) (*Group, *refcount.Ref[hal.TextureView]) {
	t.Helper()
	l, err := LoadLayout(dev, "textured", texturedDescs(), false)
	if err != nil {
		t.Fatalf("LoadLayout: %v", err)
	}
	t.Cleanup(l.Destroy)
	view := newView(0x20)
	g := Load(l, []Entry{
		BufferEntry(0, newBuffer(0x10), 0, 64),
		TextureEntry(1, view),
		SamplerEntry(2, newSampler(0x30)),
	}, opts...)
	return g, view
}

func TestGroupDirtyCycle(t *testing.T) {
	dev := newRecordingDevice(t)
	g, view := loadTextured(t, dev)

	if !g.Dirty() {
		t.Fatal("new group is not dirty")
	}
	first, err := g.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if g.Dirty() || g.Builds() != 1 {
		t.Fatalf("after Resolve: dirty=%v builds=%d", g.Dirty(), g.Builds())
	}

	again, _ := g.Resolve()
	if again != first || g.Builds() != 1 {
		t.Errorf("clean Resolve rebuilt: builds=%d", g.Builds())
	}

	// Setting the same texture still counts as a change.
	h := g.Hash()
	if !g.SetTextureView(1, view) {
		t.Fatal("SetTextureView(1) = false")
	}
	if !g.Dirty() {
		t.Error("set of same texture did not mark dirty")
	}
	if g.Hash() != h {
		t.Error("hash changed for identical resource")
	}
	if _, err := g.Resolve(); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if g.Builds() != 2 {
		t.Errorf("Builds() = %d, want 2", g.Builds())
	}

	// Same through a texture source.
	if !g.SetTexture(1, textureSource{view: view}) {
		t.Fatal("SetTexture(1) = false")
	}
	if !g.Dirty() {
		t.Error("SetTexture of same texture did not mark dirty")
	}
	if g.Hash() != h {
		t.Error("hash changed for identical texture source")
	}
	if _, err := g.Resolve(); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if g.Builds() != 3 {
		t.Errorf("Builds() = %d, want 3", g.Builds())
	}
}

func TestGroupDescriptor(t *testing.T) {
	dev := newRecordingDevice(t)
	g, _ := loadTextured(t, dev, WithLabel("sprites"))
	if _, err := g.Resolve(); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	desc := dev.groups[0]
	if desc.Label != "sprites" || desc.Layout != g.Layout().Native() {
		t.Errorf("descriptor label %q layout %v", desc.Label, desc.Layout)
	}
	want := []gputypes.BindGroupEntry{
		{Binding: 0, Resource: gputypes.BufferBinding{Buffer: 0x10, Offset: 0, Size: 64}},
		{Binding: 1, Resource: gputypes.TextureViewBinding{TextureView: 0x20}},
		{Binding: 2, Resource: gputypes.SamplerBinding{Sampler: 0x30}},
	}
	if diff := cmp.Diff(want, desc.Entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestGroupSkipsUnfilledEntries(t *testing.T) {
	dev := newRecordingDevice(t)
	l, err := LoadLayout(dev, "partial", texturedDescs(), false)
	if err != nil {
		t.Fatalf("LoadLayout: %v", err)
	}
	defer l.Destroy()

	g := Load(l, []Entry{{Binding: 0}, {Binding: 1}, {Binding: 2}})
	g.SetSampler(2, newSampler(7))
	if _, err := g.Resolve(); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if n := len(dev.groups[0].Entries); n != 1 {
		t.Errorf("descriptor has %d entries, want 1", n)
	}
}

func TestGroupUnknownBinding(t *testing.T) {
	dev := newRecordingDevice(t)
	g, _ := loadTextured(t, dev)
	if _, err := g.Resolve(); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	h := g.Hash()

	v := newView(0x99)
	if g.SetTextureView(7, v) {
		t.Error("SetTextureView(7) = true for unknown binding")
	}
	if g.Dirty() || g.Hash() != h {
		t.Error("unknown binding changed the group")
	}
	if v.Count() != 1 {
		t.Errorf("unknown binding retained the view: count %d", v.Count())
	}
}

func TestGroupSparseBindings(t *testing.T) {
	dev := newRecordingDevice(t)
	l, err := LoadLayout(dev, "sparse", []ResourceDescriptor{
		{Kind: UniformBuffer, Location: 0, MinBindingSize: 16},
		{Kind: Texture2D, Location: 5},
		{Kind: Sampler, Location: 9},
	}, false)
	if err != nil {
		t.Fatalf("LoadLayout: %v", err)
	}
	defer l.Destroy()
	g := Load(l, []Entry{{Binding: 0}, {Binding: 5}, {Binding: 9}})
	defer g.Destroy()

	s := newSampler(0x31)
	v := newView(0x21)
	if !g.SetSampler(9, s) || !g.SetTextureView(5, v) {
		t.Fatal("set of declared sparse binding = false")
	}
	if g.SetSampler(2, newSampler(0x32)) {
		t.Error("SetSampler(2) = true for undeclared binding")
	}
	entries := g.Entries()
	if entries[2].Sampler != s || entries[1].TextureView != v || entries[0].Buffer != nil {
		t.Errorf("entries = %+v", entries)
	}
}

func TestGroupHash(t *testing.T) {
	dev := newRecordingDevice(t)
	l, err := LoadLayout(dev, "hash", texturedDescs(), false)
	if err != nil {
		t.Fatalf("LoadLayout: %v", err)
	}
	defer l.Destroy()

	buf, tex, smp := newBuffer(1), newView(2), newSampler(3)
	a := Load(l, []Entry{BufferEntry(0, buf, 0, 64), TextureEntry(1, tex), SamplerEntry(2, smp)})
	b := Load(l, []Entry{SamplerEntry(2, smp), TextureEntry(1, tex), BufferEntry(0, buf, 0, 64)})
	if a.Hash() != b.Hash() {
		t.Error("hash depends on entry order")
	}

	h := a.Hash()
	other := newView(4)
	a.SetTextureView(1, other)
	if a.Hash() == h {
		t.Error("hash did not change for a different texture")
	}
	a.SetTextureView(1, tex)
	if a.Hash() != h {
		t.Error("hash not restored after rebinding original texture")
	}

	// The same resource under another binding hashes differently.
	c := Load(l, []Entry{{Binding: 0}, TextureEntry(2, tex)})
	d := Load(l, []Entry{{Binding: 0}, TextureEntry(1, tex)})
	if c.Hash() == d.Hash() {
		t.Error("hash ignores binding index")
	}
}

func TestGroupSetTexture(t *testing.T) {
	dev := newRecordingDevice(t)
	g, _ := loadTextured(t, dev)
	src := textureSource{view: newView(0x44)}
	if !g.SetTexture(1, src) {
		t.Fatal("SetTexture = false")
	}
	if g.Entries()[1].TextureView != src.view {
		t.Error("SetTexture did not bind the source view")
	}
}

type textureSource struct {
	view *refcount.Ref[hal.TextureView]
}

func (s textureSource) View() *refcount.Ref[hal.TextureView] { return s.view }

func TestGroupReferenceCounts(t *testing.T) {
	dev := newRecordingDevice(t)
	l, err := LoadLayout(dev, "refs", texturedDescs(), false)
	if err != nil {
		t.Fatalf("LoadLayout: %v", err)
	}
	defer l.Destroy()

	released := 0
	old := refcount.New[hal.Buffer](&fakeBuffer{h: 1}, func(hal.Buffer) { released++ })
	g := Load(l, []Entry{BufferEntry(0, old, 0, 16)})
	if old.Count() != 2 {
		t.Fatalf("Load did not retain: count %d", old.Count())
	}
	old.Release() // creator drops its reference

	next := newBuffer(2)
	g.SetUniformBuffer(0, next, 0, 16)
	if released != 1 {
		t.Errorf("replaced buffer released %d times, want 1", released)
	}
	if next.Count() != 2 {
		t.Errorf("new buffer count = %d, want 2", next.Count())
	}

	g.Destroy()
	if next.Count() != 1 {
		t.Errorf("Destroy left count %d, want 1", next.Count())
	}
}

func TestGroupReleasePolicy(t *testing.T) {
	tests := []struct {
		name         string
		policy       ReleasePolicy
		afterSet     []int
		afterResolve []int
		stale        int
	}{
		{"immediate", ReleaseImmediate, []int{1}, []int{1}, 0},
		{"deferred", ReleaseDeferred, nil, nil, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newRecordingDevice(t)
			g, _ := loadTextured(t, dev, WithReleasePolicy(tt.policy))
			if _, err := g.Resolve(); err != nil {
				t.Fatalf("Resolve: %v", err)
			}

			g.SetSampler(2, newSampler(5))
			if diff := cmp.Diff(tt.afterSet, dev.destroyed); diff != "" {
				t.Errorf("destroyed after set (-want +got):\n%s", diff)
			}
			if _, err := g.Resolve(); err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if diff := cmp.Diff(tt.afterResolve, dev.destroyed); diff != "" {
				t.Errorf("destroyed after resolve (-want +got):\n%s", diff)
			}
			if g.Stale() != tt.stale {
				t.Errorf("Stale() = %d, want %d", g.Stale(), tt.stale)
			}

			g.ReleaseStale()
			if diff := cmp.Diff([]int{1}, dev.destroyed); diff != "" {
				t.Errorf("destroyed after ReleaseStale (-want +got):\n%s", diff)
			}

			g.Destroy()
			if len(dev.destroyed) != 2 {
				t.Errorf("destroyed after Destroy = %v, want 2 groups", dev.destroyed)
			}
		})
	}
}

func TestGroupDeferredDestroyFlushesStale(t *testing.T) {
	dev := newRecordingDevice(t)
	g, _ := loadTextured(t, dev, WithReleasePolicy(ReleaseDeferred))
	for i := range 3 {
		if _, err := g.Resolve(); err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		g.SetUniformBuffer(0, newBuffer(uintptr(0x100+i)), 0, 64)
	}
	if len(dev.destroyed) != 0 || g.Stale() != 3 {
		t.Fatalf("before Destroy: destroyed=%v stale=%d", dev.destroyed, g.Stale())
	}
	g.Destroy()
	if diff := cmp.Diff([]int{1, 2, 3}, dev.destroyed); diff != "" {
		t.Errorf("destroyed (-want +got):\n%s", diff)
	}
}

func TestGroupResolveError(t *testing.T) {
	dev := newRecordingDevice(t)
	g, _ := loadTextured(t, dev)
	dev.fail = errors.New("device lost")

	if _, err := g.Resolve(); !errors.Is(err, ErrBindGroupCreation) || !errors.Is(err, dev.fail) {
		t.Errorf("err = %v, want ErrBindGroupCreation wrapping backend error", err)
	}
	if !g.Dirty() {
		t.Error("failed Resolve cleared dirty flag")
	}

	dev.fail = nil
	if _, err := g.Resolve(); err != nil {
		t.Errorf("retry Resolve: %v", err)
	}
}
