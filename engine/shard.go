package engine

import (
	"iter"
	"log/slog"
	"math"
	"sync/atomic"
)

const (
	// partitionEntryOverhead is the fixed bookkeeping footprint charged once
	// per partition: skip-list node, entry header and map linkage.
	partitionEntryOverhead = 104

	// tokenOverhead is the heap footprint of a cloned key's token.
	tokenOverhead = 16

	// initialPartitionSize is the live-size contribution of a fresh, empty
	// partition entry.
	initialPartitionSize = 8
)

// Shard is one independent slice of the memtable: an ordered partition store
// plus aggregate counters. All aggregate updates are lock-free; reads never
// block on writers.
type Shard struct {
	// Minimums only ever decrease, via CAS retry loops.
	minTimestamp         atomic.Int64
	minLocalDeletionTime atomic.Int64

	liveDataSize      atomic.Int64
	currentOperations atomic.Int64

	partitions *Store

	factory PartitionFactory
	alloc   Allocator
	logger  *slog.Logger
}

// NewShard creates an empty shard backed by the given allocator and
// partition factory.
func NewShard(factory PartitionFactory, alloc Allocator, logger *slog.Logger) *Shard {
	s := &Shard{
		partitions: NewStore(),
		factory:    factory,
		alloc:      alloc,
		logger:     logger,
	}
	s.minTimestamp.Store(math.MaxInt64)
	s.minLocalDeletionTime.Store(math.MaxInt64)
	return s
}

// Apply merges an update into the shard and returns the write's accounting
// value.
//
// A first write to an absent key races through LoadOrStore: the loser
// discards its speculative empty partition and only the winner charges the
// per-partition overhead, so it is counted exactly once.
func (s *Shard) Apply(key Key, update Update, tx UpdateTransaction, fence OpGroup) int64 {
	partition, ok := s.partitions.Get(key)

	var initialSize int64
	if !ok {
		cloned := NewKey(key.Token(), s.alloc.Clone(key.Bytes(), fence))
		empty := s.factory(cloned, s.alloc)
		var loaded bool
		partition, loaded = s.partitions.LoadOrStore(cloned, empty)
		if !loaded {
			// Overhead is charged after the fact; this saves allocating and
			// freeing on a lost race, but means live size can overshoot a
			// configured limit.
			s.alloc.Reserve(tokenOverhead+partitionEntryOverhead, fence)
			initialSize = initialPartitionSize
		}
	}

	sizeDelta, accounting := partition.Apply(update, tx, fence)
	storeMin(&s.minTimestamp, update.MinTimestamp())
	storeMin(&s.minLocalDeletionTime, update.MinLocalDeletionTime())
	s.liveDataSize.Add(initialSize + sizeDelta)
	s.currentOperations.Add(update.OperationCount())
	return accounting
}

// storeMin lowers cur to candidate if candidate is smaller. The CAS retry
// loop never blocks and always converges because the value only decreases.
func storeMin(cur *atomic.Int64, candidate int64) {
	for {
		v := cur.Load()
		if candidate >= v || cur.CompareAndSwap(v, candidate) {
			return
		}
	}
}

// SubRange returns the shard's partitions within the requested bound in key
// order. Minimum-sentinel bounds are unbounded on their side. An inverted
// range is logged and surfaced as *ErrInvalidRange, never silently
// corrected.
func (s *Shard) SubRange(left *Key, includeLeft bool, right *Key, includeRight bool) (iter.Seq2[Key, Partition], error) {
	seq, err := s.partitions.AscendRange(left, includeLeft, right, includeRight)
	if err != nil {
		s.logger.Error("invalid range requested",
			slog.String("left", boundString(left)),
			slog.String("right", boundString(right)))
		return nil, err
	}
	return seq, nil
}

// Get returns the partition stored under key, if present. The reference is
// shared with the store and may keep accumulating writes.
func (s *Shard) Get(key Key) (Partition, bool) {
	return s.partitions.Get(key)
}

// Ascend returns the shard's full contents in key order.
func (s *Shard) Ascend() iter.Seq2[Key, Partition] {
	return s.partitions.Ascend()
}

// IsEmpty reports whether the shard holds no partitions.
func (s *Shard) IsEmpty() bool { return s.partitions.IsEmpty() }

// Size returns the number of partitions in the shard.
func (s *Shard) Size() int { return s.partitions.Len() }

// MinTimestamp returns the smallest write timestamp applied to the shard, or
// math.MaxInt64 if nothing was written.
func (s *Shard) MinTimestamp() int64 { return s.minTimestamp.Load() }

// MinLocalDeletionTime returns the smallest local deletion time applied to
// the shard, or math.MaxInt64 if nothing was written.
func (s *Shard) MinLocalDeletionTime() int64 { return s.minLocalDeletionTime.Load() }

// LiveDataSize returns the approximate bytes of buffered live data.
func (s *Shard) LiveDataSize() int64 { return s.liveDataSize.Load() }

// CurrentOperations returns the number of operations applied to the shard.
func (s *Shard) CurrentOperations() int64 { return s.currentOperations.Load() }
