// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"strconv"
	"strings"
)

// typeLayout is the host-shareable size and alignment of a WGSL type.
type typeLayout struct {
	size  uint64
	align uint64
}

func roundUp(align, v uint64) uint64 {
	if align == 0 {
		return v
	}
	return (v + align - 1) &^ (align - 1)
}

// normalizeType expands predeclared aliases such as vec3f and mat4x4f to
// their generic spelling.
func normalizeType(typ string) string {
	typ = strings.Join(strings.Fields(typ), "")
	if strings.ContainsRune(typ, '<') {
		return typ
	}
	if !strings.HasPrefix(typ, "vec") && !strings.HasPrefix(typ, "mat") {
		return typ
	}
	suffix := map[byte]string{'f': "f32", 'h': "f16", 'i': "i32", 'u': "u32"}
	if s, ok := suffix[typ[len(typ)-1]]; ok {
		return typ[:len(typ)-1] + "<" + s + ">"
	}
	return typ
}

func scalarLayout(s string) (typeLayout, bool) {
	switch s {
	case "f32", "i32", "u32", "bool":
		return typeLayout{4, 4}, true
	case "f16":
		return typeLayout{2, 2}, true
	}
	return typeLayout{}, false
}

// vectorLayout returns the layout of vecN<T>.
func vectorLayout(n uint64, scalar typeLayout) typeLayout {
	size := n * scalar.size
	align := size
	if n == 3 {
		align = 4 * scalar.size
	}
	return typeLayout{size, align}
}

// resolveLayout resolves typ against builtin types and the known structs.
// A runtime-sized array resolves to one element.
func resolveLayout(typ string, structs map[string]typeLayout) (typeLayout, bool) {
	typ = normalizeType(typ)
	if l, ok := scalarLayout(typ); ok {
		return l, true
	}
	if l, ok := structs[typ]; ok {
		return l, true
	}

	base, params := splitParams(typ)
	switch {
	case base == "atomic":
		return scalarLayout(params)
	case len(base) == 4 && strings.HasPrefix(base, "vec"):
		s, ok := scalarLayout(params)
		n, err := strconv.ParseUint(base[3:], 10, 8)
		if !ok || err != nil {
			return typeLayout{}, false
		}
		return vectorLayout(n, s), true
	case len(base) == 6 && strings.HasPrefix(base, "mat") && base[4] == 'x':
		s, ok := scalarLayout(params)
		cols, err1 := strconv.ParseUint(base[3:4], 10, 8)
		rows, err2 := strconv.ParseUint(base[5:], 10, 8)
		if !ok || err1 != nil || err2 != nil {
			return typeLayout{}, false
		}
		col := vectorLayout(rows, s)
		return typeLayout{cols * roundUp(col.align, col.size), col.align}, true
	case base == "array":
		parts := splitTopLevel(params)
		elem, ok := resolveLayout(strings.TrimSpace(parts[0]), structs)
		if !ok {
			return typeLayout{}, false
		}
		stride := roundUp(elem.align, elem.size)
		if len(parts) == 1 {
			return typeLayout{stride, elem.align}, true
		}
		n, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 64)
		if err != nil {
			return typeLayout{}, false
		}
		return typeLayout{n * stride, elem.align}, true
	}
	return typeLayout{}, false
}

// structLayouts computes layouts for every struct, resolving structs that
// reference other structs over repeated passes.
func structLayouts(structs map[string][]wgslMember) map[string]typeLayout {
	out := make(map[string]typeLayout, len(structs))
	for progress := true; progress; {
		progress = false
		for name, members := range structs {
			if _, done := out[name]; done {
				continue
			}
			if l, ok := structLayout(members, out); ok {
				out[name] = l
				progress = true
			}
		}
	}
	return out
}

func structLayout(members []wgslMember, known map[string]typeLayout) (typeLayout, bool) {
	var offset uint64
	align := uint64(1)
	for _, m := range members {
		if m.builtin {
			continue
		}
		l, ok := resolveLayout(m.typ, known)
		if !ok {
			return typeLayout{}, false
		}
		offset = roundUp(l.align, offset) + l.size
		align = max(align, l.align)
	}
	return typeLayout{roundUp(align, offset), align}, true
}
