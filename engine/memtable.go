package engine

import (
	"log/slog"
	"math"
	"runtime"
	"sync/atomic"

	"github.com/hupe1980/memtable/internal/allocator"
)

// Config carries the construction-time parameters of a memtable core. All of
// them are immutable for the memtable's lifetime.
type Config struct {
	// ShardCount is the number of shards. Defaults to the available
	// parallelism when non-positive. Ignored when Boundaries is set.
	ShardCount int

	// Boundaries fixes the token-space split. When nil, the token space is
	// divided evenly into ShardCount ranges.
	Boundaries *Boundaries

	// SerializeWrites selects the serialized write strategy: one exclusive
	// lock per shard instead of fully concurrent merges.
	SerializeWrites bool

	// Factory creates empty partitions on first write to a key. Defaults to
	// the reference row partition.
	Factory PartitionFactory

	// Allocator provides memtable-lifetime memory. Defaults to a fresh
	// arena.
	Allocator Allocator

	// Logger receives error logs. Defaults to a discarding logger.
	Logger *slog.Logger
}

// Memtable is the sharded in-memory write buffer core. Writes route
// deterministically to one shard; reads merge shard views lazily. It owns
// the shard boundaries and the shard array; both are fixed at construction.
type Memtable struct {
	boundaries Boundaries
	shards     []*Shard
	strategy   writeStrategy
	alloc      Allocator
	logger     *slog.Logger
	frozen     atomic.Bool
}

// NewMemtable creates a memtable core from cfg.
func NewMemtable(cfg Config) *Memtable {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	alloc := cfg.Allocator
	if alloc == nil {
		alloc = allocator.New()
	}
	factory := cfg.Factory
	if factory == nil {
		factory = NewRowPartition
	}

	var boundaries Boundaries
	if cfg.Boundaries != nil {
		boundaries = *cfg.Boundaries
	} else {
		shardCount := cfg.ShardCount
		if shardCount <= 0 {
			shardCount = runtime.GOMAXPROCS(0)
		}
		boundaries = Split(shardCount)
	}

	shards := make([]*Shard, boundaries.ShardCount())
	for i := range shards {
		shards[i] = NewShard(factory, alloc, logger)
	}

	var strategy writeStrategy = concurrentWrites{}
	if cfg.SerializeWrites {
		strategy = newSerializedWrites(len(shards))
	}

	return &Memtable{
		boundaries: boundaries,
		shards:     shards,
		strategy:   strategy,
		alloc:      alloc,
		logger:     logger,
	}
}

// Boundaries returns the memtable's immutable token-space split.
func (m *Memtable) Boundaries() Boundaries { return m.boundaries }

// ShardCount returns the number of shards.
func (m *Memtable) ShardCount() int { return len(m.shards) }

// Allocator returns the memtable-lifetime allocator.
func (m *Memtable) Allocator() Allocator { return m.alloc }

// Apply routes an update to its owning shard and merges it through the
// configured write strategy, returning the write's accounting value.
// Fails with ErrFrozen once the memtable has been frozen for flushing.
func (m *Memtable) Apply(update Update, tx UpdateTransaction, fence OpGroup) (int64, error) {
	if m.frozen.Load() {
		return 0, ErrFrozen
	}
	key := update.PartitionKey()
	index := m.boundaries.IndexFor(key)
	return m.strategy.apply(index, m.shards[index], key, update, tx, fence), nil
}

// Get returns the partition buffered for key, if any. The returned reference
// is shared with the store: it may keep accumulating concurrent writes.
func (m *Memtable) Get(key Key) (Partition, bool) {
	return m.shards[m.boundaries.IndexFor(key)].Get(key)
}

// Freeze marks the memtable read-only for the flush handoff. Idempotent.
func (m *Memtable) Freeze() { m.frozen.Store(true) }

// IsFrozen reports whether the memtable stopped accepting writes.
func (m *Memtable) IsFrozen() bool { return m.frozen.Load() }

// The memtable-level aggregates below are element-wise combinations over the
// shards, recomputed on every call and never cached. Shards are read without
// any cross-shard coordination, so a concurrent writer can make the total
// inconsistent across shards; that is acceptable for metrics and size
// heuristics, not for flush bookkeeping.

// LiveDataSize returns the approximate bytes of buffered live data.
func (m *Memtable) LiveDataSize() int64 {
	var total int64
	for _, shard := range m.shards {
		total += shard.LiveDataSize()
	}
	return total
}

// OperationCount returns the number of operations applied so far.
func (m *Memtable) OperationCount() int64 {
	var total int64
	for _, shard := range m.shards {
		total += shard.CurrentOperations()
	}
	return total
}

// PartitionCount returns the number of distinct partitions buffered.
func (m *Memtable) PartitionCount() int64 {
	var total int64
	for _, shard := range m.shards {
		total += int64(shard.Size())
	}
	return total
}

// MinTimestamp returns the smallest write timestamp buffered, or
// math.MaxInt64 when empty.
func (m *Memtable) MinTimestamp() int64 {
	min := int64(math.MaxInt64)
	for _, shard := range m.shards {
		if ts := shard.MinTimestamp(); ts < min {
			min = ts
		}
	}
	return min
}

// MinLocalDeletionTime returns the smallest local deletion time buffered, or
// math.MaxInt64 when empty.
func (m *Memtable) MinLocalDeletionTime() int64 {
	min := int64(math.MaxInt64)
	for _, shard := range m.shards {
		if dt := shard.MinLocalDeletionTime(); dt < min {
			min = dt
		}
	}
	return min
}

// IsEmpty reports whether no shard holds any partition.
func (m *Memtable) IsEmpty() bool {
	for _, shard := range m.shards {
		if !shard.IsEmpty() {
			return false
		}
	}
	return true
}
