// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipeline

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/raygpu/cache"
)

func TestNewCacheNilDevice(t *testing.T) {
	if _, err := NewCache(nil); !errors.Is(err, ErrNilDevice) {
		t.Errorf("NewCache(nil) error = %v", err)
	}
}

func TestCacheDeterminism(t *testing.T) {
	dev := newCountingDevice(t)
	c, err := NewCache(dev)
	if err != nil {
		t.Fatal(err)
	}

	a := testState()
	b := testState()
	p1, err := c.GetOrCreate(&a, testStages(), nil)
	if err != nil {
		t.Fatalf("first GetOrCreate: %v", err)
	}
	p2, err := c.GetOrCreate(&b, testStages(), nil)
	if err != nil {
		t.Fatalf("second GetOrCreate: %v", err)
	}
	if p1 != p2 {
		t.Error("structurally equal states returned different pipelines")
	}
	if dev.created != 1 {
		t.Errorf("pipelines created = %d, want 1", dev.created)
	}
	if s := c.Stats(); s.Hits != 1 || s.Misses != 1 || s.Len != 1 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestCacheKeyIsCopied(t *testing.T) {
	dev := newCountingDevice(t)
	c, _ := NewCache(dev)

	s := testState()
	if _, err := c.GetOrCreate(&s, testStages(), nil); err != nil {
		t.Fatal(err)
	}
	// Mutating the caller's attributes must not alter the stored key.
	s.Attributes[0].Offset = 64
	fresh := testState()
	if _, err := c.GetOrCreate(&fresh, testStages(), nil); err != nil {
		t.Fatal(err)
	}
	if dev.created != 1 {
		t.Errorf("stored key aliased caller memory: created = %d", dev.created)
	}
}

func TestCacheDiscrimination(t *testing.T) {
	dev := newCountingDevice(t)
	c, _ := NewCache(dev)

	base := testState()
	culled := testState()
	culled.Settings.FaceCull = true
	disabled := testState()
	disabled.Attributes[2].Enabled = false

	seen := map[any]bool{}
	for i, s := range []*State{&base, &culled, &disabled} {
		p, err := c.GetOrCreate(s, testStages(), nil)
		if err != nil {
			t.Fatalf("state %d: %v", i, err)
		}
		seen[p] = true
	}
	if dev.created != 3 || len(seen) != 3 || c.Len() != 3 {
		t.Errorf("created=%d distinct=%d len=%d, want 3/3/3", dev.created, len(seen), c.Len())
	}
}

func TestCacheAttachmentCountScenario(t *testing.T) {
	dev := newCountingDevice(t)
	c, _ := NewCache(dev)

	one := testState()
	two := testState()
	two.ColorAttachments = Attachments(gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatRGBA8Unorm)

	if one.Equal(&two) {
		t.Fatal("states compare equal")
	}
	p1, _ := c.GetOrCreate(&one, testStages(), nil)
	p2, _ := c.GetOrCreate(&two, testStages(), nil)
	if p1 == p2 || c.Len() != 2 {
		t.Errorf("expected two cache entries, got len=%d same=%v", c.Len(), p1 == p2)
	}
}

func TestCacheCollidingHashes(t *testing.T) {
	dev := newCountingDevice(t)
	c, _ := NewCache(dev)
	// Force every state into one bucket.
	keys := StateKeys()
	keys.Hash = func(State) uint64 { return 42 }
	c.entries = cache.NewOwned(keys, cache.ValueOps[*refRenderPipeline]{
		Copy:    func(r *refRenderPipeline) *refRenderPipeline { return r.Retain() },
		Destroy: func(r *refRenderPipeline) { r.Release() },
	})

	states := []State{testState(), testState(), testState()}
	states[1].Primitive = PointList
	states[2].Primitive = LineList

	handles := map[any]bool{}
	for i := range states {
		p, err := c.GetOrCreate(&states[i], testStages(), nil)
		if err != nil {
			t.Fatal(err)
		}
		handles[p] = true
	}
	again, _ := c.GetOrCreate(&states[1], testStages(), nil)
	if len(handles) != 3 || dev.created != 3 {
		t.Errorf("collisions merged entries: distinct=%d created=%d", len(handles), dev.created)
	}
	if again.(*fakePipeline).id != 2 {
		t.Errorf("lookup under collision returned pipeline %d, want 2", again.(*fakePipeline).id)
	}
}

func TestCacheCreationFailure(t *testing.T) {
	dev := newCountingDevice(t)
	dev.fail = errors.New("invalid format combination")
	c, _ := NewCache(dev)

	s := testState()
	p, err := c.GetOrCreate(&s, testStages(), nil)
	if !errors.Is(err, ErrPipelineCreation) || p != nil {
		t.Fatalf("GetOrCreate = %v, %v; want nil, ErrPipelineCreation", p, err)
	}
	if c.Len() != 0 {
		t.Errorf("failed pipeline was cached: Len() = %d", c.Len())
	}

	dev.fail = nil
	if _, err := c.GetOrCreate(&s, testStages(), nil); err != nil {
		t.Errorf("retry after failure: %v", err)
	}
}

func TestCacheRejectsInvalidStates(t *testing.T) {
	dev := newCountingDevice(t)
	c, _ := NewCache(dev)

	quads := testState()
	quads.Primitive = Quads
	if _, err := c.GetOrCreate(&quads, testStages(), nil); !errors.Is(err, ErrQuadsTopology) {
		t.Errorf("quads: err = %v", err)
	}

	unsorted := testState()
	unsorted.Attributes[0], unsorted.Attributes[2] = unsorted.Attributes[2], unsorted.Attributes[0]
	if _, err := c.GetOrCreate(&unsorted, testStages(), nil); !errors.Is(err, ErrUnsortedAttributes) {
		t.Errorf("unsorted: err = %v", err)
	}
	if dev.created != 0 {
		t.Errorf("created = %d, want 0", dev.created)
	}
}

func TestCacheDestroyReleasesOnce(t *testing.T) {
	dev := newCountingDevice(t)
	c, _ := NewCache(dev)

	for _, prim := range []Primitive{PointList, LineList, TriangleList} {
		s := testState()
		s.Primitive = prim
		if _, err := c.GetOrCreate(&s, testStages(), nil); err != nil {
			t.Fatal(err)
		}
	}
	if len(dev.destroyed) != 0 {
		t.Fatalf("pipelines destroyed before Destroy: %v", dev.destroyed)
	}
	c.Destroy()
	if len(dev.destroyed) != 3 {
		t.Errorf("destroyed %d pipelines, want 3", len(dev.destroyed))
	}
	for id, n := range dev.destroyed {
		if n != 1 {
			t.Errorf("pipeline %d destroyed %d times", id, n)
		}
	}
	if c.Len() != 0 {
		t.Errorf("Len() after Destroy = %d", c.Len())
	}
}

func TestCacheOverflowStillOwned(t *testing.T) {
	dev := newCountingDevice(t)
	c, _ := NewCache(dev, WithMapOptions(cache.WithMaxCapacity(8)))

	for i := range 8 {
		s := testState()
		s.Settings.LineWidth = uint32(i + 1)
		if _, err := c.GetOrCreate(&s, testStages(), nil); err != nil {
			t.Fatal(err)
		}
	}
	if c.Len() != 8 {
		t.Errorf("Len() = %d, want 8 (6 cached + 2 overflow)", c.Len())
	}
	c.Destroy()
	if len(dev.destroyed) != 8 {
		t.Errorf("destroyed %d pipelines, want 8", len(dev.destroyed))
	}
}

func TestCacheCreateHook(t *testing.T) {
	dev := newCountingDevice(t)
	var built []Primitive
	c, _ := NewCache(dev, WithLabel("hooked"), WithCreateHook(func(s *State) {
		built = append(built, s.Primitive)
	}))
	s := testState()
	c.GetOrCreate(&s, testStages(), nil)
	c.GetOrCreate(&s, testStages(), nil)
	if len(built) != 1 || built[0] != TriangleList {
		t.Errorf("hook calls = %v", built)
	}
	if dev.last.Label != "hooked" {
		t.Errorf("pipeline label = %q", dev.last.Label)
	}
}

func TestNewLayout(t *testing.T) {
	dev, cleanup := createNoopDevice(t)
	defer cleanup()

	layout, err := NewLayout(dev, "compute_layout")
	if err != nil {
		t.Fatalf("NewLayout() = %v", err)
	}
	defer dev.DestroyPipelineLayout(layout)
	if layout == nil {
		t.Fatal("nil layout")
	}
}
