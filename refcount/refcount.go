// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package refcount wraps native GPU handles in single-threaded reference
// counts.
//
// A Ref starts with one reference owned by its creator. Every component
// that stores the handle calls Retain and later Release; the release
// function runs once, when the last reference is dropped. Counts are not
// atomic: a Ref belongs to the goroutine that drives its graphics context.
package refcount

import (
	"fmt"
	"sync/atomic"
)

var nextID atomic.Uint64

// Ref is a reference-counted handle.
type Ref[T any] struct {
	value   T
	count   int
	id      uint64
	release func(T)
}

// New wraps v with a count of one. release may be nil.
func New[T any](v T, release func(T)) *Ref[T] {
	return &Ref[T]{value: v, count: 1, id: nextID.Add(1), release: release}
}

// Retain adds a reference and returns r for chaining.
func (r *Ref[T]) Retain() *Ref[T] {
	if r.count <= 0 {
		panic(fmt.Sprintf("refcount: retain of released handle %d", r.id))
	}
	r.count++
	return r
}

// Release drops a reference. The release function runs when the count
// reaches zero. It reports whether the handle was released.
func (r *Ref[T]) Release() bool {
	if r.count <= 0 {
		panic(fmt.Sprintf("refcount: release of released handle %d", r.id))
	}
	r.count--
	if r.count > 0 {
		return false
	}
	if r.release != nil {
		r.release(r.value)
	}
	var zero T
	r.value = zero
	return true
}

// Value returns the wrapped handle. It is the zero value after the last
// Release.
func (r *Ref[T]) Value() T { return r.value }

// Count returns the number of live references.
func (r *Ref[T]) Count() int { return r.count }

// ID returns a process-unique identifier for the handle, stable for its
// lifetime. Bind groups hash resources by ID.
func (r *Ref[T]) ID() uint64 { return r.id }
