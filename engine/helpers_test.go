package engine

import (
	"fmt"
	"log/slog"

	"github.com/hupe1980/memtable/internal/allocator"
)

func testKey(token Token, key string) Key {
	return NewKey(token, []byte(key))
}

func testShard() *Shard {
	return NewShard(NewRowPartition, allocator.New(), slog.New(slog.DiscardHandler))
}

// quartileMemtable builds a 4-shard memtable whose boundaries split a toy
// 0-99 token space into quartiles.
func quartileMemtable(serialize bool) *Memtable {
	boundaries := NewBoundaries([]Token{25, 50, 75})
	return NewMemtable(Config{
		Boundaries:      &boundaries,
		SerializeWrites: serialize,
	})
}

// cellUpdate is a single-cell update carrying one live write.
func cellUpdate(key Key, clustering, column string, value []byte, ts int64) *RowUpdate {
	return NewRowUpdate(key).Set(clustering, column, value, ts)
}

func keyAt(token Token) Key {
	return testKey(token, fmt.Sprintf("key-%03d", token))
}
