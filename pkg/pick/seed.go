package pick

import (
	"fmt"
	"hash/fnv"
	"math"
	"strings"
)

// DeriveSeed hashes a composite key into a non-negative seed. The parts are
// formatted with %v and joined with '.', then hashed with 64-bit FNV-1a and
// masked to 63 bits. The derivation is a pure function of the key: equal
// keys always produce equal seeds, regardless of traversal order.
func DeriveSeed(parts ...any) int64 {
	var b strings.Builder
	for i, part := range parts {
		if i > 0 {
			b.WriteByte('.')
		}
		fmt.Fprintf(&b, "%v", part)
	}
	h := fnv.New64a()
	h.Write([]byte(b.String()))
	return int64(h.Sum64() & math.MaxInt64)
}

// ChildSeed derives the seed of the ordinal-th child spawned under name by a
// parent with seed parent.
func ChildSeed(parent int64, name string, ordinal int) int64 {
	return DeriveSeed(parent, name, ordinal)
}
