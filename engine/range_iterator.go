package engine

import (
	"iter"
	"log/slog"
)

// PartitionIterator returns a lazy, forward-only view over every partition
// whose key falls within the requested bound, in global key order.
//
// The bound's shard span is resolved through the boundaries: an unbounded or
// minimum edge maps to the first (respectively last) shard. A single-shard
// span returns that shard's bounded view directly; otherwise the left
// shard's view up to its own edge, every interior shard's full contents and
// the right shard's view from its own edge are concatenated in shard-index
// order. Inner views are only touched when the consumer advances into them,
// so memory and lock-hold time are bounded by the active shard.
//
// The view is live: writes to shards not yet visited are visible, writes to
// shards already passed are not. Callers needing a frozen view must stop
// writes first, which is exactly what the flush handoff does.
func (m *Memtable) PartitionIterator(left *Key, includeLeft bool, right *Key, includeRight bool) (iter.Seq2[Key, Partition], error) {
	left = normalizeBound(left)
	right = normalizeBound(right)
	if left != nil && right != nil && left.Compare(*right) > 0 {
		m.logger.Error("invalid range requested",
			slog.String("left", boundString(left)),
			slog.String("right", boundString(right)))
		return nil, &ErrInvalidRange{Left: left, Right: right}
	}

	leftShard := 0
	if left != nil {
		leftShard = m.boundaries.IndexFor(*left)
	}
	rightShard := m.boundaries.ShardCount() - 1
	if right != nil {
		rightShard = m.boundaries.IndexFor(*right)
	}

	if leftShard == rightShard {
		return m.shards[leftShard].SubRange(left, includeLeft, right, includeRight)
	}

	return func(yield func(Key, Partition) bool) {
		head, _ := m.shards[leftShard].SubRange(left, includeLeft, nil, true)
		for key, partition := range head {
			if !yield(key, partition) {
				return
			}
		}
		for i := leftShard + 1; i < rightShard; i++ {
			for key, partition := range m.shards[i].Ascend() {
				if !yield(key, partition) {
					return
				}
			}
		}
		tail, _ := m.shards[rightShard].SubRange(nil, true, right, includeRight)
		for key, partition := range tail {
			if !yield(key, partition) {
				return
			}
		}
	}, nil
}

// RangeIterator resolves a KeyRange to a partition iterator.
func (m *Memtable) RangeIterator(r KeyRange) (iter.Seq2[Key, Partition], error) {
	return m.PartitionIterator(r.Start, r.IncludeStart, r.End, r.IncludeEnd)
}
