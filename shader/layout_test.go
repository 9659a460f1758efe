// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import "testing"

func TestResolveLayout(t *testing.T) {
	structs := map[string]typeLayout{"Light": {32, 16}}
	tests := []struct {
		typ   string
		size  uint64
		align uint64
	}{
		{"f32", 4, 4},
		{"f16", 2, 2},
		{"vec2f", 8, 8},
		{"vec3<f32>", 12, 16},
		{"vec4h", 8, 8},
		{"mat4x4f", 64, 16},
		{"mat3x3<f32>", 48, 16},
		{"mat2x2f", 16, 8},
		{"atomic<u32>", 4, 4},
		{"array<vec3f, 4>", 64, 16},
		{"array<f32>", 4, 4},
		{"array<Light, 2>", 64, 16},
		{"Light", 32, 16},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			l, ok := resolveLayout(tt.typ, structs)
			if !ok {
				t.Fatalf("resolveLayout(%q) failed", tt.typ)
			}
			if l.size != tt.size || l.align != tt.align {
				t.Errorf("resolveLayout(%q) = %d/%d, want %d/%d", tt.typ, l.size, l.align, tt.size, tt.align)
			}
		})
	}

	if _, ok := resolveLayout("Unknown", structs); ok {
		t.Error("unknown type resolved")
	}
}

func TestStructLayoutsNested(t *testing.T) {
	structs := parseStructs(`
struct Outer { inner: Inner, scale: f32, }
struct Inner { a: vec3f, b: f32, }
`)
	layouts := structLayouts(structs)
	if l := layouts["Inner"]; l.size != 16 || l.align != 16 {
		t.Errorf("Inner = %+v, want 16/16", l)
	}
	if l := layouts["Outer"]; l.size != 32 || l.align != 16 {
		t.Errorf("Outer = %+v, want 32/16", l)
	}
}
