// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cache

import (
	"hash/fnv"

	"golang.org/x/exp/constraints"
)

// Hasher computes a 64-bit hash for a key.
type Hasher[K any] func(K) uint64

// StringHasher computes the FNV-1a hash of a string key.
func StringHasher(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s)) // fnv.Write never returns an error
	return h.Sum64()
}

// Uint64Hasher mixes a uint64 key with the splitmix64 finalizer.
//
// Keys that are already well distributed (such as pipeline state hashes)
// still benefit from the mix because the map uses the low bits to pick a
// bucket.
func Uint64Hasher(u uint64) uint64 {
	u ^= u >> 30
	u *= 0xbf58476d1ce4e5b9
	u ^= u >> 27
	u *= 0x94d049bb133111eb
	u ^= u >> 31
	return u
}

// IntegerHasher returns a Hasher for any integer key type.
func IntegerHasher[T constraints.Integer]() Hasher[T] {
	return func(v T) uint64 {
		return Uint64Hasher(uint64(v))
	}
}

// Equal is the equality used for comparable keys.
func Equal[K comparable](a, b K) bool { return a == b }
