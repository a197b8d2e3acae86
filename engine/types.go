package engine

import "iter"

// OpGroup is the write fence: an external op-ordering token establishing the
// barrier between in-flight writes and the flush handoff. The memtable core
// only threads it through to the allocator and the partition merge; it never
// inspects it.
type OpGroup = any

// Update is one incoming write: a mergeable payload for a single partition
// key plus the encoding stats the shard aggregates track. The payload itself
// is opaque to the core and consumed by Partition.Apply.
type Update interface {
	// PartitionKey returns the key the update targets.
	PartitionKey() Key

	// MinTimestamp returns the smallest write timestamp in the update.
	MinTimestamp() int64

	// MinLocalDeletionTime returns the smallest local deletion time in the
	// update.
	MinLocalDeletionTime() int64

	// OperationCount returns the number of operations (rows, cells, markers)
	// the update carries.
	OperationCount() int64
}

// Partition is the accumulated, mergeable state buffered for one key. The
// core depends only on this contract, never on the row-merge algorithm
// behind it.
//
// Apply must be safe to call concurrently with readers of the same
// partition; under the concurrent write strategy it may also race with other
// Apply calls for the same key, so implementations serialize internally.
type Partition interface {
	// PartitionKey returns the key the partition accumulates state for.
	PartitionKey() Key

	// Apply merges an update into the partition and returns the net live
	// data size delta in bytes together with the per-operation accounting
	// value handed back to the write caller.
	Apply(update Update, tx UpdateTransaction, fence OpGroup) (sizeDelta, accounting int64)

	// RowIterator returns an ordered view over the partition's rows,
	// restricted by the clustering slice and column filter, optionally
	// reversed.
	RowIterator(slice Slice, filter ColumnFilter, reversed bool) RowIterator
}

// PartitionFactory creates the empty partition inserted on first write to a
// key. The allocator is scoped to the memtable lifetime.
type PartitionFactory func(key Key, alloc Allocator) Partition

// UpdateTransaction is the secondary-index hook driven while a partition
// merges an update. The core passes it through untouched.
type UpdateTransaction interface {
	Start()
	OnInserted(row Row)
	OnUpdated(existing, merged Row)
	Commit()
}

// NoopTransaction is the UpdateTransaction used when no index needs
// updating.
var NoopTransaction UpdateTransaction = noopTransaction{}

type noopTransaction struct{}

func (noopTransaction) Start()             {}
func (noopTransaction) OnInserted(Row)     {}
func (noopTransaction) OnUpdated(Row, Row) {}
func (noopTransaction) Commit()            {}

// Allocator provides memory scoped to one memtable. Nothing is freed per
// entry; Close releases the whole arena exactly once when the memtable is
// retired after flush.
type Allocator interface {
	// Clone copies b into memtable-lifetime memory.
	Clone(b []byte, fence OpGroup) []byte

	// Reserve charges accounting-only overhead (no buffer is returned).
	Reserve(n int64, fence OpGroup)

	// Allocated returns the total bytes charged so far.
	Allocated() int64

	// Close releases the arena. Must not race with Clone or Reserve.
	Close()
}

// ColumnFilter selects the columns a read returns. A nil filter selects all
// columns.
type ColumnFilter func(column string) bool

// Slice bounds the clustering range a row iterator covers. Empty edges are
// unbounded.
type Slice struct {
	Start string
	End   string
}

// RowIterator is a lazy forward view over the rows of one partition.
type RowIterator = iter.Seq[Row]

// PartitionRows pairs a partition key with the row iterator over its
// contents, as yielded by a range scan.
type PartitionRows struct {
	Key  Key
	Rows RowIterator
}

// ReadListener receives read signals. The memtable ignores it: it only
// accepts sstable signals.
type ReadListener interface {
	OnRead(key Key)
}
