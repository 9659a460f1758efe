// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/raygpu/bindgroup"
	"github.com/gogpu/raygpu/internal/logging"
)

// ErrReflect is returned when WGSL reflection meets a declaration it
// cannot describe.
var ErrReflect = errors.New("shader: WGSL reflection failed")

var (
	structRe    = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)
	locationRe  = regexp.MustCompile(`@location\(\s*(\d+)\s*\)`)
	builtinRe   = regexp.MustCompile(`@builtin\(\s*\w+\s*\)`)
	attributeRe = regexp.MustCompile(`@\w+(?:\([^)]*\))?`)
	memberRe    = regexp.MustCompile(`^\s*(\w+)\s*:\s*(.+?)\s*$`)

	bindingRe = regexp.MustCompile(
		`@group\(\s*(\d+)\s*\)\s*@binding\(\s*(\d+)\s*\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)

	entryRes = map[gputypes.ShaderStage]*regexp.Regexp{
		gputypes.ShaderStageVertex:   regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`),
		gputypes.ShaderStageFragment: regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`),
		gputypes.ShaderStageCompute:  regexp.MustCompile(`(?s)@compute\b.*?\bfn\s+(\w+)`),
	}

	workgroupRe = regexp.MustCompile(`@workgroup_size\(\s*(\d+)\s*(?:,\s*(\d+)\s*(?:,\s*(\d+)\s*)?)?,?\s*\)`)
)

type wgslMember struct {
	name     string
	typ      string
	location int
	builtin  bool
}

// ReflectWGSL extracts group 0 resources, vertex inputs, entry points and
// the workgroup size from WGSL source.
//
// Resources are visible to every stage the source declares. Declarations
// in other groups are skipped with a warning.
func ReflectWGSL(code string) (*Reflection, error) {
	src := stripComments(code)
	r := NewReflection()

	var stages gputypes.ShaderStage
	for stage, re := range entryRes {
		if m := re.FindStringSubmatch(src); m != nil {
			r.EntryPoints[stage] = m[1]
			stages |= stage
		}
	}
	if m := workgroupRe.FindStringSubmatch(src); m != nil {
		for i := range 3 {
			if m[i+1] == "" {
				continue
			}
			n, err := strconv.ParseUint(m[i+1], 10, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: workgroup size %q: %w", ErrReflect, m[i+1], err)
			}
			r.WorkgroupSize[i] = uint32(n)
		}
	}

	structs := parseStructs(src)
	layouts := structLayouts(structs)

	for _, m := range bindingRe.FindAllStringSubmatch(src, -1) {
		group, _ := strconv.ParseUint(m[1], 10, 32)
		binding, _ := strconv.ParseUint(m[2], 10, 32)
		space, name, typ := strings.TrimSpace(m[3]), m[4], strings.TrimSpace(m[5])
		if group != 0 {
			logging.Logger().Warn("shader: resource outside group 0 ignored",
				"name", name, "group", group)
			continue
		}
		d, err := classify(space, typ, layouts)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrReflect, name, err)
		}
		d.Location = uint32(binding)
		d.Visibility = stages
		r.AddResource(name, d)
	}

	if ep, ok := r.EntryPoints[gputypes.ShaderStageVertex]; ok {
		if err := reflectVertexInputs(r, src, ep, structs); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// classify maps one resource declaration to a descriptor.
func classify(space, typ string, layouts map[string]typeLayout) (bindgroup.ResourceDescriptor, error) {
	var d bindgroup.ResourceDescriptor
	if space != "" {
		kind, access, _ := strings.Cut(space, ",")
		switch strings.TrimSpace(kind) {
		case "uniform":
			d.Kind = bindgroup.UniformBuffer
		case "storage":
			d.Kind = bindgroup.StorageBuffer
			d.Access = bindgroup.ReadOnly
			if strings.TrimSpace(access) == "read_write" {
				d.Access = bindgroup.ReadWrite
			}
		default:
			return d, fmt.Errorf("unsupported address space %q", space)
		}
		if l, ok := resolveLayout(typ, layouts); ok {
			d.MinBindingSize = l.size
		}
		return d, nil
	}

	base, params := splitParams(typ)
	switch base {
	case "sampler", "sampler_comparison":
		d.Kind = bindgroup.Sampler
	case "texture_2d", "texture_depth_2d", "texture_multisampled_2d":
		d.Kind = bindgroup.Texture2D
	case "texture_2d_array", "texture_depth_2d_array":
		d.Kind = bindgroup.Texture2DArray
	case "texture_3d":
		d.Kind = bindgroup.Texture3D
	case "texture_storage_2d":
		d.Kind = bindgroup.StorageTexture2D
	case "texture_storage_2d_array":
		d.Kind = bindgroup.StorageTexture2DArray
	case "texture_storage_3d":
		d.Kind = bindgroup.StorageTexture3D
	default:
		return d, fmt.Errorf("unsupported resource type %q", typ)
	}

	switch d.Kind {
	case bindgroup.Texture2D, bindgroup.Texture2DArray, bindgroup.Texture3D:
		switch params {
		case "", "f32":
			d.SampleType = bindgroup.SampleFloat
		case "u32":
			d.SampleType = bindgroup.SampleUint
		case "i32":
			d.SampleType = bindgroup.SampleSint
		default:
			return d, fmt.Errorf("unsupported sample type %q", params)
		}
	case bindgroup.StorageTexture2D, bindgroup.StorageTexture2DArray, bindgroup.StorageTexture3D:
		format, access, _ := strings.Cut(params, ",")
		f, ok := texelFormats[strings.TrimSpace(format)]
		if !ok {
			return d, fmt.Errorf("unsupported texel format %q", format)
		}
		d.StorageFormat = f
		switch strings.TrimSpace(access) {
		case "read":
			d.Access = bindgroup.ReadOnly
		case "read_write":
			d.Access = bindgroup.ReadWrite
		case "write":
			d.Access = bindgroup.WriteOnly
		default:
			return d, fmt.Errorf("unsupported access %q", access)
		}
	}
	return d, nil
}

var texelFormats = map[string]gputypes.TextureFormat{
	"rgba8unorm":  gputypes.TextureFormatRGBA8Unorm,
	"rgba8snorm":  gputypes.TextureFormatRGBA8Snorm,
	"rgba8uint":   gputypes.TextureFormatRGBA8Uint,
	"rgba8sint":   gputypes.TextureFormatRGBA8Sint,
	"bgra8unorm":  gputypes.TextureFormatBGRA8Unorm,
	"rgba16float": gputypes.TextureFormatRGBA16Float,
	"r32float":    gputypes.TextureFormatR32Float,
	"r32uint":     gputypes.TextureFormatR32Uint,
	"r32sint":     gputypes.TextureFormatR32Sint,
	"rgba32float": gputypes.TextureFormatRGBA32Float,
}

var vertexFormats = map[string]gputypes.VertexFormat{
	"f32":       gputypes.VertexFormatFloat32,
	"vec2<f32>": gputypes.VertexFormatFloat32x2,
	"vec3<f32>": gputypes.VertexFormatFloat32x3,
	"vec4<f32>": gputypes.VertexFormatFloat32x4,
	"u32":       gputypes.VertexFormatUint32,
	"vec2<u32>": gputypes.VertexFormatUint32x2,
	"vec3<u32>": gputypes.VertexFormatUint32x3,
	"vec4<u32>": gputypes.VertexFormatUint32x4,
	"i32":       gputypes.VertexFormatSint32,
	"vec2<i32>": gputypes.VertexFormatSint32x2,
	"vec3<i32>": gputypes.VertexFormatSint32x3,
	"vec4<i32>": gputypes.VertexFormatSint32x4,
	"vec2<f16>": gputypes.VertexFormatFloat16x2,
	"vec4<f16>": gputypes.VertexFormatFloat16x4,
}

// reflectVertexInputs records the @location parameters of the vertex entry
// point, looking through struct-typed parameters.
func reflectVertexInputs(r *Reflection, src, entry string, structs map[string][]wgslMember) error {
	params, ok := fnParams(src, entry)
	if !ok {
		return fmt.Errorf("%w: cannot find parameters of %s", ErrReflect, entry)
	}
	for _, p := range splitTopLevel(params) {
		m, ok := parseMember(p)
		if !ok || m.builtin {
			continue
		}
		if m.location >= 0 {
			if err := addInput(r, m); err != nil {
				return err
			}
			continue
		}
		for _, field := range structs[m.typ] {
			if field.location < 0 || field.builtin {
				continue
			}
			if err := addInput(r, field); err != nil {
				return err
			}
		}
	}
	return nil
}

func addInput(r *Reflection, m wgslMember) error {
	f, ok := vertexFormats[normalizeType(m.typ)]
	if !ok {
		return fmt.Errorf("%w: vertex input %s has unsupported type %q", ErrReflect, m.name, m.typ)
	}
	r.AddAttribute(m.name, AttributeInfo{Format: f, Location: uint32(m.location)})
	return nil
}

// fnParams returns the text between the parentheses of function name.
func fnParams(src, name string) (string, bool) {
	re := regexp.MustCompile(`\bfn\s+` + regexp.QuoteMeta(name) + `\s*\(`)
	loc := re.FindStringIndex(src)
	if loc == nil {
		return "", false
	}
	depth := 1
	for i := loc[1]; i < len(src); i++ {
		switch src[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return src[loc[1]:i], true
			}
		}
	}
	return "", false
}

func parseStructs(src string) map[string][]wgslMember {
	out := make(map[string][]wgslMember)
	for _, m := range structRe.FindAllStringSubmatch(src, -1) {
		var members []wgslMember
		for _, part := range splitTopLevel(m[2]) {
			if member, ok := parseMember(part); ok {
				members = append(members, member)
			}
		}
		out[m[1]] = members
	}
	return out
}

// parseMember parses "@attr(...) name: type" as used by struct members
// and function parameters.
func parseMember(s string) (wgslMember, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return wgslMember{}, false
	}
	m := wgslMember{location: -1, builtin: builtinRe.MatchString(s)}
	if loc := locationRe.FindStringSubmatch(s); loc != nil {
		n, err := strconv.Atoi(loc[1])
		if err != nil {
			return wgslMember{}, false
		}
		m.location = n
	}
	decl := memberRe.FindStringSubmatch(attributeRe.ReplaceAllString(s, ""))
	if decl == nil {
		return wgslMember{}, false
	}
	m.name, m.typ = decl[1], decl[2]
	return m, true
}

// splitTopLevel splits s at commas outside of <> and ().
func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '(':
			depth++
		case '>', ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

// splitParams splits "base<params>" into its parts.
func splitParams(typ string) (base, params string) {
	base, rest, ok := strings.Cut(typ, "<")
	if !ok {
		return strings.TrimSpace(typ), ""
	}
	return strings.TrimSpace(base), strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(rest), ">"))
}

// stripComments removes line comments and nested block comments.
func stripComments(src string) string {
	var sb strings.Builder
	sb.Grow(len(src))
	depth := 0
	for i := 0; i < len(src); i++ {
		switch {
		case i+1 < len(src) && src[i] == '/' && src[i+1] == '*':
			depth++
			i++
		case i+1 < len(src) && src[i] == '*' && src[i+1] == '/' && depth > 0:
			depth--
			i++
		case depth > 0:
		case i+1 < len(src) && src[i] == '/' && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
			if i < len(src) {
				sb.WriteByte('\n')
			}
		default:
			sb.WriteByte(src[i])
		}
	}
	return sb.String()
}
