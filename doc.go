// Package memtable provides the sharded in-memory write buffer of a
// log-structured-merge storage engine.
//
// A memtable absorbs newly written rows before they are flushed to immutable
// on-disk tables. The keyspace is split into independent ordered maps
// ("shards") at construction time; every write routes deterministically to
// one shard, range reads lazily merge the shards they span, and aggregate
// statistics (live size, operation count, minimum timestamp, minimum
// deletion time) are maintained lock-free under concurrent mutation.
//
// # Quick Start
//
//	mt := memtable.New(memtable.WithShardCount(8))
//	defer mt.Close()
//
//	key := memtable.NewKey(memtable.Token(42), []byte("k1"))
//	update := memtable.NewRowUpdate(key).
//		Set("c1", "name", []byte("a"), 100)
//	mt.Write(update, memtable.NoopTransaction, nil)
//
//	rows, ok := mt.RowIterator(key, memtable.Slice{}, nil, false)
//
// # Write Strategies
//
// Two interchangeable strategies sit behind the same interface, chosen at
// construction:
//
//	memtable.New()                                    // concurrent (default)
//	memtable.New(memtable.WithSerializedWrites(true)) // one lock per shard
//
// The concurrent strategy relies on the partition store's own insert/lookup
// safety and maximizes throughput; the serialized strategy totally orders
// writes within a shard. Strategy choice never affects readers or the
// correctness of the aggregates.
//
// # Flushing
//
// Once the surrounding engine decides to flush, it freezes the memtable,
// asks for a flush set and retires the memtable afterwards:
//
//	mt.Freeze()
//	set, _ := mt.FlushSet(nil, nil)
//	for key, partition := range set.Partitions() {
//		// hand off to the flush writer
//	}
//	mt.Close()
//
// Persistence, compaction and the write-ahead log are external collaborators
// and out of scope for this package.
package memtable
