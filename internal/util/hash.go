package util

import (
	"fmt"
	"math"
)

const (
	fnvOffset64 = 1469598103934665603
	fnvPrime64  = 1099511628211
)

// Fnv64a hashes a cache key with 64-bit FNV-1a.
//
// Supported: string, []byte-like fixed arrays ([16]/[32]/[64]byte), every
// integer width, uintptr, bool, float32/64 and fmt.Stringer. Any other key
// type panics; convert such keys to a string first.
func Fnv64a[K comparable](k K) uint64 {
	switch v := any(k).(type) {
	case string:
		return fnvString(v)
	case [16]byte:
		return fnvBytes(v[:])
	case [32]byte:
		return fnvBytes(v[:])
	case [64]byte:
		return fnvBytes(v[:])
	case int:
		return fnvUint64(uint64(v))
	case int8:
		return fnvUint64(uint64(uint8(v)))
	case int16:
		return fnvUint64(uint64(uint16(v)))
	case int32:
		return fnvUint64(uint64(uint32(v)))
	case int64:
		return fnvUint64(uint64(v))
	case uint:
		return fnvUint64(uint64(v))
	case uint8:
		return fnvUint64(uint64(v))
	case uint16:
		return fnvUint64(uint64(v))
	case uint32:
		return fnvUint64(uint64(v))
	case uint64:
		return fnvUint64(v)
	case uintptr:
		return fnvUint64(uint64(v))
	case bool:
		if v {
			return fnvUint64(1)
		}
		return fnvUint64(0)
	case float32:
		return fnvUint64(uint64(math.Float32bits(v)))
	case float64:
		return fnvUint64(math.Float64bits(v))
	case fmt.Stringer:
		return fnvString(v.String())
	default:
		panic(fmt.Sprintf("util.Fnv64a: unsupported key type %T; use a string key", k))
	}
}

// fnvString hashes s without converting it to a []byte.
func fnvString(s string) uint64 {
	h := uint64(fnvOffset64)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= fnvPrime64
	}
	return h
}

func fnvBytes(b []byte) uint64 {
	h := uint64(fnvOffset64)
	for _, c := range b {
		h ^= uint64(c)
		h *= fnvPrime64
	}
	return h
}

// fnvUint64 hashes the 8 little-endian bytes of u.
func fnvUint64(u uint64) uint64 {
	h := uint64(fnvOffset64)
	for i := 0; i < 8; i++ {
		h ^= uint64(byte(u))
		h *= fnvPrime64
		u >>= 8
	}
	return h
}
