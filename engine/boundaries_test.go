package engine

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundariesRouting(t *testing.T) {
	b := NewBoundaries([]Token{25, 50, 75})
	require.Equal(t, 4, b.ShardCount())

	t.Run("QuartileAssignment", func(t *testing.T) {
		assert.Equal(t, 0, b.IndexFor(keyAt(5)))
		assert.Equal(t, 1, b.IndexFor(keyAt(35)))
		assert.Equal(t, 2, b.IndexFor(keyAt(65)))
		assert.Equal(t, 3, b.IndexFor(keyAt(95)))
	})

	t.Run("SplitPointBelongsToUpperShard", func(t *testing.T) {
		assert.Equal(t, 0, b.IndexFor(keyAt(24)))
		assert.Equal(t, 1, b.IndexFor(keyAt(25)))
	})

	t.Run("MinimumMapsToFirstShard", func(t *testing.T) {
		assert.Equal(t, 0, b.IndexFor(MinKey()))
	})

	t.Run("StableAcrossCalls", func(t *testing.T) {
		key := keyAt(42)
		want := b.IndexFor(key)
		for i := 0; i < 100; i++ {
			assert.Equal(t, want, b.IndexFor(key))
		}
	})
}

func TestBoundariesMonotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	b := Split(8)

	keys := make([]Key, 200)
	for i := range keys {
		keys[i] = keyAt(Token(rng.Uint64()))
	}
	for i, k1 := range keys {
		for _, k2 := range keys[i+1:] {
			s1, s2 := b.IndexFor(k1), b.IndexFor(k2)
			if k1.Compare(k2) <= 0 {
				assert.LessOrEqual(t, s1, s2)
			} else {
				assert.GreaterOrEqual(t, s1, s2)
			}
		}
	}
}

func TestSplit(t *testing.T) {
	t.Run("SingleShard", func(t *testing.T) {
		b := Split(1)
		assert.Equal(t, 1, b.ShardCount())
		assert.Equal(t, 0, b.IndexFor(keyAt(Token(math.MaxUint64))))
	})

	t.Run("EvenShards", func(t *testing.T) {
		b := Split(4)
		assert.Equal(t, 4, b.ShardCount())
		assert.Equal(t, 0, b.IndexFor(keyAt(0)))
		assert.Equal(t, 3, b.IndexFor(keyAt(Token(math.MaxUint64))))
	})
}

func TestNewBoundariesSortsSplitPoints(t *testing.T) {
	b := NewBoundaries([]Token{75, 25, 50})
	assert.Equal(t, []Token{25, 50, 75}, b.SplitPoints())
	assert.Equal(t, 1, b.IndexFor(keyAt(30)))
}
