// Package murmur implements the 32-bit MurmurHash2 function used to place
// keys into hash table buckets. It is stable across runs and platforms and is
// not suitable for anything security related.
package murmur

import (
	"unsafe"

	"github.com/joshuapare/memkit/internal/buf"
)

// Seed is the fixed seed shared by every table in the module.
const Seed uint32 = 0x9747b28c

const (
	mix   uint32 = 0x5bd1e995
	shift        = 24
)

// Sum32 hashes data with the given seed.
func Sum32(data []byte, seed uint32) uint32 {
	h := seed ^ uint32(len(data))

	for len(data) >= 4 {
		k := buf.U32LE(data)
		k *= mix
		k ^= k >> shift
		k *= mix

		h *= mix
		h ^= k
		data = data[4:]
	}

	switch len(data) {
	case 3:
		h ^= uint32(data[2]) << 16
		fallthrough
	case 2:
		h ^= uint32(data[1]) << 8
		fallthrough
	case 1:
		h ^= uint32(data[0])
		h *= mix
	}

	// Final avalanche.
	h ^= h >> 13
	h *= mix
	h ^= h >> 15
	return h
}

// String hashes s with Seed without copying it.
func String(s string) uint32 {
	if len(s) == 0 {
		return Sum32(nil, Seed)
	}
	return Sum32(unsafe.Slice(unsafe.StringData(s), len(s)), Seed)
}

// Uint64 hashes the little-endian bytes of k with Seed.
func Uint64(k uint64) uint32 {
	var b [8]byte
	buf.PutU64LE(b[:], k)
	return Sum32(b[:], Seed)
}
