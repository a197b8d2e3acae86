package memtable

import (
	"iter"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/memtable/engine"
	"github.com/hupe1980/memtable/internal/allocator"
)

// Re-exported engine types so embedders rarely need to import the engine
// package directly.
type (
	// Token is the position of a key in the routing order.
	Token = engine.Token
	// Key is a decorated partition key: routing token plus key bytes.
	Key = engine.Key
	// KeyRange is a span of the key order with open or closed edges.
	KeyRange = engine.KeyRange
	// Boundaries is the immutable token-space split into shards.
	Boundaries = engine.Boundaries
	// Update is one incoming mergeable write.
	Update = engine.Update
	// RowUpdate is the reference Update implementation.
	RowUpdate = engine.RowUpdate
	// Partition is the accumulated mergeable state for one key.
	Partition = engine.Partition
	// Row is one clustering's cells within a partition.
	Row = engine.Row
	// Cell is one column value written at a timestamp.
	Cell = engine.Cell
	// Slice bounds the clustering range of a row iterator.
	Slice = engine.Slice
	// ColumnFilter selects the columns a read returns.
	ColumnFilter = engine.ColumnFilter
	// RowIterator is a lazy view over the rows of one partition.
	RowIterator = engine.RowIterator
	// PartitionRows pairs a partition key with its row iterator.
	PartitionRows = engine.PartitionRows
	// UpdateTransaction is the secondary-index hook passed through writes.
	UpdateTransaction = engine.UpdateTransaction
	// OpGroup is the opaque write fence token.
	OpGroup = engine.OpGroup
	// ReadListener receives read signals; the memtable ignores it.
	ReadListener = engine.ReadListener
	// FlushablePartitionSet is the snapshot view consumed by the flush
	// pipeline.
	FlushablePartitionSet = engine.FlushablePartitionSet
)

// Constructors re-exported alongside their types.
var (
	NewKey         = engine.NewKey
	TokenBound     = engine.TokenBound
	MinKey         = engine.MinKey
	NewRowUpdate   = engine.NewRowUpdate
	NewBoundaries  = engine.NewBoundaries
	EvenBoundaries = engine.Split
)

// Memtable is the sharded in-memory write buffer of an LSM storage engine.
// It absorbs concurrent writes with minimal contention, serves point and
// range reads over a consistent sorted view, and produces ordered snapshots
// for flushing.
//
// Construct with New; a Memtable is immutable in shard count, boundaries and
// write strategy for its whole lifetime. Close releases the backing arena
// once the memtable has been flushed and retired.
type Memtable struct {
	core    *engine.Memtable
	metrics MetricsCollector
	logger  *Logger

	ownsAllocator bool
	closeOnce     sync.Once
	closed        atomic.Bool
}

// New creates an empty memtable.
func New(optFns ...Option) *Memtable {
	o := applyOptions(optFns)

	alloc := o.allocator
	ownsAllocator := false
	if alloc == nil {
		alloc = allocator.New()
		ownsAllocator = true
	}

	core := engine.NewMemtable(engine.Config{
		ShardCount:      o.shardCount,
		Boundaries:      o.boundaries,
		SerializeWrites: o.serializeWrites,
		Factory:         o.factory,
		Allocator:       alloc,
		Logger:          o.logger.Logger,
	})

	return &Memtable{
		core:          core,
		metrics:       o.metricsCollector,
		logger:        o.logger,
		ownsAllocator: ownsAllocator,
	}
}

// Write routes an update to its owning shard and merges it, returning the
// write's accounting value. The transaction hook and write fence are passed
// through opaquely; use NoopTransaction and nil when neither applies.
//
// Fails with ErrFrozen once the memtable is frozen for flushing.
func (m *Memtable) Write(update Update, tx UpdateTransaction, fence OpGroup) (int64, error) {
	if m.closed.Load() {
		return 0, ErrClosed
	}
	start := time.Now()
	accounting, err := m.core.Apply(update, tx, fence)
	m.metrics.RecordWrite(time.Since(start), err)
	return accounting, err
}

// Get returns the partition buffered for key, if any. The reference is
// shared with the store and may keep accumulating concurrent writes.
func (m *Memtable) Get(key Key) (Partition, bool) {
	start := time.Now()
	p, ok := m.core.Get(key)
	m.metrics.RecordRead(time.Since(start), ok)
	return p, ok
}

// RowIterator returns an ordered view over the rows buffered for key,
// restricted to the clustering slice and column filter, optionally
// reversed. The second return is false when no partition is buffered for
// the key.
func (m *Memtable) RowIterator(key Key, slice Slice, filter ColumnFilter, reversed bool) (RowIterator, bool) {
	p, ok := m.Get(key)
	if !ok {
		return nil, false
	}
	return p.RowIterator(slice, filter, reversed), true
}

// PartitionRangeIterator returns one row-iterator per partition within the
// key range, in global key order. The sequence is lazy, forward-only and
// non-restartable; it is a live view, not a snapshot.
//
// The read listener is ignored: it only accepts sstable signals.
func (m *Memtable) PartitionRangeIterator(filter ColumnFilter, keyRange KeyRange, _ ReadListener) (iter.Seq[PartitionRows], error) {
	start := time.Now()
	partitions, err := m.core.RangeIterator(keyRange)
	m.metrics.RecordRangeScan(time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return func(yield func(PartitionRows) bool) {
		for key, partition := range partitions {
			rows := PartitionRows{
				Key:  key,
				Rows: partition.RowIterator(Slice{}, filter, false),
			}
			if !yield(rows) {
				return
			}
		}
	}, nil
}

// FlushSet builds the ordered flushable view of [from, to) with precomputed
// totals for the flush writer. Call it only after Freeze; otherwise the
// totals are an estimate, not a bound.
func (m *Memtable) FlushSet(from, to *Key) (FlushablePartitionSet, error) {
	start := time.Now()
	set, err := m.core.FlushSet(from, to)
	if err != nil {
		m.metrics.RecordFlushSnapshot(0, time.Since(start), err)
		return nil, err
	}
	m.metrics.RecordFlushSnapshot(set.PartitionCount(), time.Since(start), nil)
	return set, nil
}

// Freeze marks the memtable read-only for the flush handoff. Idempotent.
func (m *Memtable) Freeze() { m.core.Freeze() }

// IsFrozen reports whether the memtable stopped accepting writes.
func (m *Memtable) IsFrozen() bool { return m.core.IsFrozen() }

// Close releases the memtable's arena if it owns one. Call exactly once,
// after the flush pipeline has fully consumed the memtable; buffered
// partitions must not be touched afterwards.
func (m *Memtable) Close() {
	m.closeOnce.Do(func() {
		m.closed.Store(true)
		m.core.Freeze()
		if m.ownsAllocator {
			m.core.Allocator().Close()
		}
	})
}

// ShardCount returns the number of shards.
func (m *Memtable) ShardCount() int { return m.core.ShardCount() }

// ShardBoundaries returns the memtable's immutable token-space split.
func (m *Memtable) ShardBoundaries() Boundaries { return m.core.Boundaries() }

// LiveDataSize returns the approximate bytes of buffered live data, summed
// over shards without cross-shard coordination. Good enough for metrics and
// flush-threshold heuristics, not for correctness-critical bookkeeping.
func (m *Memtable) LiveDataSize() int64 { return m.core.LiveDataSize() }

// OperationCount returns the number of operations applied so far.
func (m *Memtable) OperationCount() int64 { return m.core.OperationCount() }

// PartitionCount returns the number of distinct partitions buffered.
func (m *Memtable) PartitionCount() int64 { return m.core.PartitionCount() }

// MinTimestamp returns the smallest write timestamp buffered, or
// math.MaxInt64 when the memtable is empty.
func (m *Memtable) MinTimestamp() int64 { return m.core.MinTimestamp() }

// MinLocalDeletionTime returns the smallest local deletion time buffered, or
// math.MaxInt64 when the memtable is empty.
func (m *Memtable) MinLocalDeletionTime() int64 { return m.core.MinLocalDeletionTime() }

// IsEmpty reports whether nothing has been buffered.
func (m *Memtable) IsEmpty() bool { return m.core.IsEmpty() }

// NoopTransaction is the UpdateTransaction used when no secondary index
// needs updating.
var NoopTransaction = engine.NoopTransaction
