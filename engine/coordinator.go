// Package engine implements the sharded memtable core: deterministic shard
// routing, per-shard concurrent partition stores with lock-free aggregate
// counters, lazy cross-shard range iteration and the two-pass flush
// snapshot.
//
// The package depends on external collaborators only at their interfaces:
// the mergeable Partition, the Update payload, the memtable-lifetime
// Allocator and the opaque write fence. A reference row-based partition
// implementation is provided for embedders that do not bring their own.
package engine

import "sync"

// writeStrategy decides how a routed write reaches its shard. Both
// strategies implement the identical Shard contract; strategy choice affects
// ordering and locking, never the correctness of the aggregates. Readers
// never take a strategy lock.
type writeStrategy interface {
	apply(index int, shard *Shard, key Key, update Update, tx UpdateTransaction, fence OpGroup) int64
}

// concurrentWrites delegates straight to the shard, relying on the partition
// store's own insert/lookup safety and the lock-free aggregate updates for
// maximum throughput. Two writers to the same key are merged in some order,
// each atomically with respect to the counters.
type concurrentWrites struct{}

func (concurrentWrites) apply(_ int, shard *Shard, key Key, update Update, tx UpdateTransaction, fence OpGroup) int64 {
	return shard.Apply(key, update, tx, fence)
}

// serializedWrites holds one exclusive lock per shard for the duration of a
// single merge call, totally ordering writes to the same shard. Useful when
// the partition merge itself is not safely concurrent for a workload; costs
// cross-key parallelism within the shard.
type serializedWrites struct {
	locks []sync.Mutex
}

func newSerializedWrites(shardCount int) *serializedWrites {
	return &serializedWrites{locks: make([]sync.Mutex, shardCount)}
}

func (w *serializedWrites) apply(index int, shard *Shard, key Key, update Update, tx UpdateTransaction, fence OpGroup) int64 {
	w.locks[index].Lock()
	defer w.locks[index].Unlock()
	return shard.Apply(key, update, tx, fence)
}
