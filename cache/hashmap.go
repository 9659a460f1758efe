// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cache

import (
	"iter"

	"github.com/gogpu/raygpu/internal/logging"
)

const (
	// minCapacity is the table size allocated by the first Put.
	minCapacity = 8

	// Load factor is loadNum/loadDen. The table grows before an insertion
	// would push it past this ratio.
	loadNum = 3
	loadDen = 4
)

// KeyOps describes how a HashMap treats its keys.
//
// Hash and Equal are required. Copy is applied when an owning map stores a
// key and by Clone; Destroy is called when an owning map drops a key. Nil
// Copy means plain assignment, nil Destroy means nothing to release.
type KeyOps[K any] struct {
	Hash    Hasher[K]
	Equal   func(a, b K) bool
	Copy    func(K) K
	Destroy func(K)
}

// ValueOps describes how an owning HashMap treats its values.
type ValueOps[V any] struct {
	Copy    func(V) V
	Destroy func(V)
}

// ComparableKeys returns KeyOps for a comparable key type using ==.
func ComparableKeys[K comparable](hash Hasher[K]) KeyOps[K] {
	return KeyOps[K]{Hash: hash, Equal: Equal[K]}
}

// Option configures a HashMap.
type Option func(*mapConfig)

type mapConfig struct {
	maxCapacity int
	capacity    int
}

// WithMaxCapacity caps the table size. A Put that would need to grow past
// the cap is dropped and reported, the way an allocation failure would be.
func WithMaxCapacity(n int) Option {
	return func(c *mapConfig) { c.maxCapacity = n }
}

// WithCapacity preallocates room for n entries without growth.
func WithCapacity(n int) Option {
	return func(c *mapConfig) { c.capacity = n }
}

// HashMap is an open-addressing hash table with linear probing.
//
// Capacity is always zero or a power of two; a zero-capacity map allocates
// on the first Put. Erase shifts the remainder of the probe run back into
// place, so the table never holds tombstones.
//
// Two flavours exist. A POD map (NewPOD) stores keys and values by
// assignment and overwrites values in place. An owning map (NewOwned)
// copies keys and values on insert with the configured Copy functions and
// destroys the old value before an overwrite.
//
// HashMap is not safe for concurrent use.
type HashMap[K, V any] struct {
	keys   []K
	values []V
	used   []bool
	n      int

	kops   KeyOps[K]
	vops   ValueOps[V]
	owning bool
	maxCap int
}

// NewPOD creates a map with plain value semantics.
func NewPOD[K, V any](kops KeyOps[K], opts ...Option) *HashMap[K, V] {
	return newMap[K, V](kops, ValueOps[V]{}, false, opts)
}

// NewOwned creates a map that owns its keys and values.
func NewOwned[K, V any](kops KeyOps[K], vops ValueOps[V], opts ...Option) *HashMap[K, V] {
	return newMap(kops, vops, true, opts)
}

func newMap[K, V any](kops KeyOps[K], vops ValueOps[V], owning bool, opts []Option) *HashMap[K, V] {
	if kops.Hash == nil || kops.Equal == nil {
		panic("cache: KeyOps requires Hash and Equal")
	}
	var cfg mapConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	m := &HashMap[K, V]{kops: kops, vops: vops, owning: owning, maxCap: cfg.maxCapacity}
	if cfg.capacity > 0 {
		c := minCapacity
		for c*loadNum < cfg.capacity*loadDen {
			c <<= 1
		}
		m.grow(c)
	}
	return m
}

// Len returns the number of entries.
func (m *HashMap[K, V]) Len() int { return m.n }

// Cap returns the current table size.
func (m *HashMap[K, V]) Cap() int { return len(m.used) }

// Put inserts key or overwrites its value. It reports whether the entry
// was stored; false means the table needed to grow beyond its maximum
// capacity and the map is unchanged.
func (m *HashMap[K, V]) Put(key K, value V) bool {
	if i, ok := m.find(key); ok {
		if m.owning {
			if m.vops.Destroy != nil {
				m.vops.Destroy(m.values[i])
			}
			m.values[i] = m.copyValue(value)
		} else {
			m.values[i] = value
		}
		return true
	}

	if (m.n+1)*loadDen > len(m.used)*loadNum {
		newCap := max(minCapacity, len(m.used)*2)
		if !m.grow(newCap) {
			logging.Logger().Warn("cache: hash map growth refused, entry dropped",
				"len", m.n, "capacity", len(m.used), "max", m.maxCap)
			return false
		}
	}

	if m.owning {
		key = m.copyKey(key)
		value = m.copyValue(value)
	}
	m.insert(key, value)
	return true
}

// Get returns a pointer to the value stored for key. The pointer is valid
// until the next Put, Erase, Clear or Move.
func (m *HashMap[K, V]) Get(key K) (*V, bool) {
	i, ok := m.find(key)
	if !ok {
		return nil, false
	}
	return &m.values[i], true
}

// Erase removes key and reports whether it was present.
func (m *HashMap[K, V]) Erase(key K) bool {
	i, ok := m.find(key)
	if !ok {
		return false
	}
	if m.owning {
		m.destroyEntry(i)
	}
	m.clearSlot(i)
	m.n--

	// Re-insert the rest of the probe run so lookups that passed through
	// the freed slot still terminate at their entry.
	mask := len(m.used) - 1
	for j := (i + 1) & mask; m.used[j]; j = (j + 1) & mask {
		k, v := m.keys[j], m.values[j]
		m.clearSlot(j)
		m.n--
		m.insert(k, v)
	}
	return true
}

// All iterates over every entry in table order.
func (m *HashMap[K, V]) All() iter.Seq2[K, *V] {
	return func(yield func(K, *V) bool) {
		for i, used := range m.used {
			if used && !yield(m.keys[i], &m.values[i]) {
				return
			}
		}
	}
}

// ForEach calls fn for every entry in table order until fn returns false.
func (m *HashMap[K, V]) ForEach(fn func(key K, value *V) bool) {
	for k, v := range m.All() {
		if !fn(k, v) {
			return
		}
	}
}

// Clear removes every entry but keeps the allocated table. An owning map
// destroys its keys and values.
func (m *HashMap[K, V]) Clear() {
	for i, used := range m.used {
		if !used {
			continue
		}
		if m.owning {
			m.destroyEntry(i)
		}
		m.clearSlot(i)
	}
	m.n = 0
}

// Clone returns a deep copy. Keys and values are duplicated with the
// configured Copy functions.
func (m *HashMap[K, V]) Clone() *HashMap[K, V] {
	c := &HashMap[K, V]{kops: m.kops, vops: m.vops, owning: m.owning, maxCap: m.maxCap, n: m.n}
	if len(m.used) == 0 {
		return c
	}
	c.keys = make([]K, len(m.keys))
	c.values = make([]V, len(m.values))
	c.used = make([]bool, len(m.used))
	copy(c.used, m.used)
	for i, used := range m.used {
		if used {
			c.keys[i] = m.copyKey(m.keys[i])
			c.values[i] = m.copyValue(m.values[i])
		}
	}
	return c
}

// Move transfers the table to a new map and leaves m empty with zero
// capacity. Nothing is copied or destroyed.
func (m *HashMap[K, V]) Move() *HashMap[K, V] {
	moved := *m
	m.keys, m.values, m.used, m.n = nil, nil, nil, 0
	return &moved
}

func (m *HashMap[K, V]) find(key K) (int, bool) {
	if len(m.used) == 0 {
		return 0, false
	}
	mask := len(m.used) - 1
	for i := int(m.kops.Hash(key) & uint64(mask)); m.used[i]; i = (i + 1) & mask {
		if m.kops.Equal(m.keys[i], key) {
			return i, true
		}
	}
	return 0, false
}

// insert places an entry that is known to be absent. The table must have
// a free slot.
func (m *HashMap[K, V]) insert(key K, value V) {
	mask := len(m.used) - 1
	i := int(m.kops.Hash(key) & uint64(mask))
	for m.used[i] {
		i = (i + 1) & mask
	}
	m.keys[i] = key
	m.values[i] = value
	m.used[i] = true
	m.n++
}

func (m *HashMap[K, V]) grow(newCap int) bool {
	if m.maxCap > 0 && newCap > m.maxCap {
		return false
	}
	oldKeys, oldValues, oldUsed := m.keys, m.values, m.used
	m.keys = make([]K, newCap)
	m.values = make([]V, newCap)
	m.used = make([]bool, newCap)
	m.n = 0
	for i, used := range oldUsed {
		if used {
			m.insert(oldKeys[i], oldValues[i])
		}
	}
	return true
}

func (m *HashMap[K, V]) clearSlot(i int) {
	var zk K
	var zv V
	m.keys[i] = zk
	m.values[i] = zv
	m.used[i] = false
}

func (m *HashMap[K, V]) destroyEntry(i int) {
	if m.kops.Destroy != nil {
		m.kops.Destroy(m.keys[i])
	}
	if m.vops.Destroy != nil {
		m.vops.Destroy(m.values[i])
	}
}

func (m *HashMap[K, V]) copyKey(k K) K {
	if m.kops.Copy != nil {
		return m.kops.Copy(k)
	}
	return k
}

func (m *HashMap[K, V]) copyValue(v V) V {
	if m.vops.Copy != nil {
		return m.vops.Copy(v)
	}
	return v
}
