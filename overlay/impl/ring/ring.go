package ring

import (
	"crypto/sha1"
	"encoding/binary"
)

// MaxBitLength is the largest supported ring exponent. With m = 32 the
// keyspace has 2^32 positions, which already exceeds what a single-process
// overlay can populate.
const MaxBitLength = 32

// Size returns the number of positions on a ring with the given bit length,
// i.e. 2^m.
func Size(m int) uint64 {
	return uint64(1) << uint(m)
}

// mask returns Size(m) - 1. Since the ring size is always a power of two,
// modular reduction is a bitwise AND with this mask.
func mask(m int) uint64 {
	return Size(m) - 1
}

// Hash maps an arbitrary name onto the ring [0, 2^m). It takes the SHA-1
// digest of the name and keeps the top m bits as a big-endian integer, so
// two rings with different bit lengths still agree on the relative order of
// hashed names.
func Hash(name string, m int) uint64 {
	digest := sha1.Sum([]byte(name))
	v := binary.BigEndian.Uint64(digest[:8])
	return v >> uint(64-m)
}

// Distance returns the clockwise distance from a to b on the ring,
// (b - a) mod 2^m.
func Distance(a, b uint64, m int) uint64 {
	return (b - a) & mask(m)
}

// InOpen reports whether x lies strictly between a and b walking clockwise,
// with both endpoints excluded. When a == b the interval wraps the whole
// ring minus the endpoint itself.
func InOpen(x, a, b uint64) bool {
	if a == b {
		return x != a
	}
	if a < b {
		return a < x && x < b
	}
	// The interval crosses the zero point of the ring, e.g. a = 13, b = 2
	// on a ring of size 16 covers {14, 15} as well as {0, 1}.
	return x > a || x < b
}

// InHalfOpen reports whether x lies in the clockwise interval (a, b], the
// membership test used for successor responsibility. When a == b the node is
// its own successor and the interval covers the entire ring.
func InHalfOpen(x, a, b uint64) bool {
	if a == b {
		return true
	}
	if a < b {
		return a < x && x <= b
	}
	return x > a || x <= b
}
