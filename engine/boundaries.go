package engine

import (
	"math"
	"sort"
)

// Boundaries is the token-space split of the keyspace into shards, computed
// once when the memtable is created and immutable afterwards. Fixing the
// boundaries for the memtable lifetime guarantees the same shard is picked
// for a given key even if the surrounding topology changes concurrently.
//
// The split points are sorted, which makes shard assignment monotone in the
// key order: cross-shard range scans concatenated in shard-index order come
// out globally sorted.
type Boundaries struct {
	tokens []Token
}

// NewBoundaries creates boundaries from explicit split points. The split
// computation itself belongs to the surrounding engine; the memtable only
// requires that the points are deterministic for its lifetime. Split points
// are sorted defensively.
func NewBoundaries(splitPoints []Token) Boundaries {
	tokens := make([]Token, len(splitPoints))
	copy(tokens, splitPoints)
	sort.Slice(tokens, func(i, j int) bool { return tokens[i] < tokens[j] })
	return Boundaries{tokens: tokens}
}

// Split evenly divides the full token space into shardCount contiguous
// ranges. shardCount must be positive.
func Split(shardCount int) Boundaries {
	if shardCount <= 1 {
		return Boundaries{}
	}
	step := math.MaxUint64 / uint64(shardCount)
	tokens := make([]Token, shardCount-1)
	for i := range tokens {
		tokens[i] = Token(step * uint64(i+1))
	}
	return Boundaries{tokens: tokens}
}

// ShardCount returns the number of shards the boundaries describe.
func (b Boundaries) ShardCount() int { return len(b.tokens) + 1 }

// IndexFor returns the shard owning the given position. Pure and total:
// repeated calls with equal positions always agree, and k1 <= k2 implies
// IndexFor(k1) <= IndexFor(k2).
func (b Boundaries) IndexFor(k Key) int {
	if k.IsMinimum() {
		return 0
	}
	token := k.Token()
	return sort.Search(len(b.tokens), func(i int) bool { return token < b.tokens[i] })
}

// SplitPoints returns a copy of the boundary tokens.
func (b Boundaries) SplitPoints() []Token {
	tokens := make([]Token, len(b.tokens))
	copy(tokens, b.tokens)
	return tokens
}
