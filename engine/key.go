package engine

import (
	"bytes"
	"fmt"
)

// Token is the position of a key in the routing order. Shard boundaries and
// range scans are both expressed in token space, so routing and ordered
// iteration agree by construction.
type Token uint64

// Key is a decorated partition key: the routing token plus the encoded key
// bytes. Keys are totally ordered by token first, key bytes second.
//
// A Key with only a token (no bytes) acts as a token bound: it sorts before
// every real key that shares the token, which is what range edges need.
type Key struct {
	token Token
	key   []byte
	min   bool
}

// NewKey creates a decorated key from a token and its encoded key bytes.
func NewKey(token Token, key []byte) Key {
	return Key{token: token, key: key}
}

// TokenBound creates a token-only position that sorts before every key owning
// the given token. Used as a range edge.
func TokenBound(token Token) Key {
	return Key{token: token}
}

// MinKey returns the minimum sentinel: a position sorting before every valid
// key. Range edges equal to it are treated as unbounded.
func MinKey() Key {
	return Key{min: true}
}

// Token returns the routing token.
func (k Key) Token() Token { return k.token }

// Bytes returns the encoded key bytes. Nil for token bounds and the minimum
// sentinel.
func (k Key) Bytes() []byte { return k.key }

// IsMinimum reports whether k is the minimum sentinel.
func (k Key) IsMinimum() bool { return k.min }

// Compare returns -1, 0 or 1 ordering k against o. The minimum sentinel sorts
// before everything else; otherwise tokens order first and key bytes break
// ties.
func (k Key) Compare(o Key) int {
	switch {
	case k.min && o.min:
		return 0
	case k.min:
		return -1
	case o.min:
		return 1
	}
	switch {
	case k.token < o.token:
		return -1
	case k.token > o.token:
		return 1
	}
	return bytes.Compare(k.key, o.key)
}

// Equal reports whether k and o occupy the same position.
func (k Key) Equal(o Key) bool { return k.Compare(o) == 0 }

func (k Key) String() string {
	if k.min {
		return "min"
	}
	if k.key == nil {
		return fmt.Sprintf("token(%d)", k.token)
	}
	return fmt.Sprintf("key(%d:%s)", k.token, k.key)
}

// KeyRange is a span of the key order with independently open or closed
// edges. A nil edge, or one equal to the minimum sentinel, is unbounded on
// that side.
type KeyRange struct {
	Start        *Key
	End          *Key
	IncludeStart bool
	IncludeEnd   bool
}
