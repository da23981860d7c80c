package types

import (
	"crypto/sha1"
	"encoding/binary"
)

// DefaultIDBits is the width, in bits, of the ring's id space when a
// node is constructed without an explicit override. ID is backed by a
// uint64, so 64 is the widest a ring can be; full 160-bit SHA-1
// identifiers (as go-chord and go-libp2p-kad-dht use) don't fit a
// machine word, and spec §4.1's arithmetic only ever needs modular
// comparison, not the full digest.
const DefaultIDBits = 64

// ID is a ring coordinate, an integer modulo 2^bits. Values are always
// produced and compared relative to a single Ring's bit width; mixing
// IDs minted under different widths is a caller bug.
type ID uint64

// Ring fixes the id space width used by HashAddr and Between for a
// single node or test run. A node and everything it talks to must
// agree on the same Ring.
type Ring struct {
	Bits uint
}

// NewRing builds a ring with the given bit width, masking ids to
// [0, 2^bits). bits must be in (0, 64]; any other value, zero
// included, is replaced by DefaultIDBits.
func NewRing(bits uint) Ring {
	if bits == 0 || bits > 64 {
		bits = DefaultIDBits
	}
	return Ring{Bits: bits}
}

func (r Ring) mask() uint64 {
	if r.Bits >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << r.Bits) - 1
}

// HashAddr maps a network address into this ring's id space by hashing
// it with SHA-1 and truncating to the configured bit width.
func (r Ring) HashAddr(addr string) ID {
	sum := sha1.Sum([]byte(addr))
	v := binary.BigEndian.Uint64(sum[:8])
	return ID(v & r.mask())
}

// Between reports whether x lies strictly on the open clockwise arc
// from a to b. It is the sole arbiter of "is this pointer a better
// predecessor/successor" decisions in the protocol continuations.
func Between(a, x, b ID) bool {
	if a == b {
		return x != a
	}
	if a < b {
		return a < x && x < b
	}
	return x > a || x < b
}
