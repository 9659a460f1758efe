// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package texture

import "testing"

func TestNewSamplerReleases(t *testing.T) {
	dev, _ := newCountingDevice(t)
	s, err := NewSampler(dev, LinearClamp(), "linear")
	if err != nil {
		t.Fatalf("NewSampler: %v", err)
	}
	if dev.samplers != 1 {
		t.Fatalf("created %d samplers", dev.samplers)
	}
	s.Release()
	if dev.samplersGone != 1 {
		t.Errorf("sampler not destroyed on release")
	}
}

func TestSamplerCacheShares(t *testing.T) {
	dev, _ := newCountingDevice(t)
	c, err := NewSamplerCache(dev, 0)
	if err != nil {
		t.Fatalf("NewSamplerCache: %v", err)
	}

	a, _ := c.Get(LinearClamp())
	b, _ := c.Get(LinearClamp())
	if a != b || dev.samplers != 1 {
		t.Errorf("same key created %d samplers", dev.samplers)
	}
	if _, err := c.Get(NearestRepeat()); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}

	c.Purge()
	if dev.samplersGone != 2 {
		t.Errorf("Purge destroyed %d samplers, want 2", dev.samplersGone)
	}
}

func TestSamplerCacheEvictionKeepsBoundSamplers(t *testing.T) {
	dev, _ := newCountingDevice(t)
	c, err := NewSamplerCache(dev, 1)
	if err != nil {
		t.Fatalf("NewSamplerCache: %v", err)
	}

	linear, _ := c.Get(LinearClamp())
	linear.Retain() // held by a bind group

	if _, err := c.Get(NearestRepeat()); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if dev.samplersGone != 0 {
		t.Fatal("evicted sampler destroyed while still bound")
	}
	linear.Release()
	if dev.samplersGone != 1 {
		t.Errorf("sampler not destroyed after last release")
	}
}
