// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/raygpu/bindgroup"
	"github.com/gogpu/raygpu/cache"
)

// MaxNameLength bounds resource and attribute names. Longer names are
// truncated before lookup and storage.
const MaxNameLength = 64

// ErrDuplicateLocation is returned when two resources share a binding
// location after merging stages.
var ErrDuplicateLocation = errors.New("shader: duplicate binding location")

// AttributeInfo is a reflected vertex input.
type AttributeInfo struct {
	Format   gputypes.VertexFormat
	Location uint32
}

// Reflection describes the resources and inputs of a shader program.
type Reflection struct {
	// Resources maps resource names to descriptors.
	Resources *cache.HashMap[string, bindgroup.ResourceDescriptor]

	// Attributes maps vertex input names to their format and location.
	Attributes *cache.HashMap[string, AttributeInfo]

	// EntryPoints maps a single stage to its entry point name.
	EntryPoints map[gputypes.ShaderStage]string

	// WorkgroupSize is the compute workgroup size, [1 1 1] when absent.
	WorkgroupSize [3]uint32
}

// NewReflection returns empty reflection data.
func NewReflection() *Reflection {
	return &Reflection{
		Resources:     cache.NewPOD[string, bindgroup.ResourceDescriptor](cache.ComparableKeys(cache.StringHasher)),
		Attributes:    cache.NewPOD[string, AttributeInfo](cache.ComparableKeys(cache.StringHasher)),
		EntryPoints:   make(map[gputypes.ShaderStage]string),
		WorkgroupSize: [3]uint32{1, 1, 1},
	}
}

func truncateName(name string) string {
	if len(name) > MaxNameLength {
		return name[:MaxNameLength]
	}
	return name
}

// AddResource records a resource. A resource already known under the same
// name is merged: visibilities are combined and the larger minimum
// binding size wins.
func (r *Reflection) AddResource(name string, d bindgroup.ResourceDescriptor) {
	name = truncateName(name)
	if cur, ok := r.Resources.Get(name); ok {
		cur.Visibility |= d.Visibility
		cur.MinBindingSize = max(cur.MinBindingSize, d.MinBindingSize)
		return
	}
	r.Resources.Put(name, d)
}

// Resource returns the descriptor recorded for name.
func (r *Reflection) Resource(name string) (bindgroup.ResourceDescriptor, bool) {
	d, ok := r.Resources.Get(truncateName(name))
	if !ok {
		return bindgroup.ResourceDescriptor{}, false
	}
	return *d, true
}

// AddAttribute records a vertex input.
func (r *Reflection) AddAttribute(name string, a AttributeInfo) {
	r.Attributes.Put(truncateName(name), a)
}

// Attribute returns the vertex input recorded for name.
func (r *Reflection) Attribute(name string) (AttributeInfo, bool) {
	a, ok := r.Attributes.Get(truncateName(name))
	if !ok {
		return AttributeInfo{}, false
	}
	return *a, true
}

// EntryPoint returns the entry point for stage, or "" if none.
func (r *Reflection) EntryPoint(stage gputypes.ShaderStage) string {
	return r.EntryPoints[stage]
}

// Stages returns the set of stages that have an entry point.
func (r *Reflection) Stages() gputypes.ShaderStage {
	var s gputypes.ShaderStage
	for stage := range r.EntryPoints {
		s |= stage
	}
	return s
}

// IsCompute reports whether the program has a compute entry point.
func (r *Reflection) IsCompute() bool {
	_, ok := r.EntryPoints[gputypes.ShaderStageCompute]
	return ok
}

// Merge folds other into r, typically the reflection of another stage.
func (r *Reflection) Merge(other *Reflection) {
	for name, d := range other.Resources.All() {
		r.AddResource(name, *d)
	}
	for name, a := range other.Attributes.All() {
		r.Attributes.Put(name, *a)
	}
	for stage, ep := range other.EntryPoints {
		r.EntryPoints[stage] = ep
	}
	if other.IsCompute() {
		r.WorkgroupSize = other.WorkgroupSize
	}
}

// Bindings returns every resource ordered by location. Two resources with
// the same location are an error.
func (r *Reflection) Bindings() ([]bindgroup.ResourceDescriptor, error) {
	type named struct {
		name string
		desc bindgroup.ResourceDescriptor
	}
	all := make([]named, 0, r.Resources.Len())
	for name, d := range r.Resources.All() {
		all = append(all, named{name, *d})
	}
	slices.SortFunc(all, func(a, b named) int {
		if c := cmp.Compare(a.desc.Location, b.desc.Location); c != 0 {
			return c
		}
		return cmp.Compare(a.name, b.name)
	})

	out := make([]bindgroup.ResourceDescriptor, len(all))
	for i, n := range all {
		if i > 0 && all[i-1].desc.Location == n.desc.Location {
			return nil, fmt.Errorf("%w: %q and %q at %d",
				ErrDuplicateLocation, all[i-1].name, n.name, n.desc.Location)
		}
		out[i] = n.desc
	}
	return out, nil
}

// BindingLocation returns the location of the named resource.
func (r *Reflection) BindingLocation(name string) (uint32, bool) {
	d, ok := r.Resource(name)
	return d.Location, ok
}

// VertexInputs returns the vertex inputs ordered by location.
func (r *Reflection) VertexInputs() []AttributeInfo {
	out := make([]AttributeInfo, 0, r.Attributes.Len())
	for _, a := range r.Attributes.All() {
		out = append(out, *a)
	}
	slices.SortFunc(out, func(a, b AttributeInfo) int {
		return cmp.Compare(a.Location, b.Location)
	})
	return out
}
