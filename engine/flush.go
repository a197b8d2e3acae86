package engine

import "iter"

// FlushablePartitionSet is the ordered snapshot view handed to the flush
// pipeline: every partition in [from, to) plus totals precomputed so the
// flush writer can size headers and preallocate before consuming a single
// partition.
type FlushablePartitionSet interface {
	// From returns the snapshot's inclusive lower bound, nil if unbounded.
	From() *Key

	// To returns the snapshot's exclusive upper bound, nil if unbounded.
	To() *Key

	// PartitionCount returns the number of partitions in the snapshot.
	PartitionCount() int64

	// PartitionKeysSize returns the summed encoded length of all partition
	// keys in the snapshot.
	PartitionKeysSize() int64

	// Partitions returns a fresh ordered iterator over the snapshot's
	// partitions.
	Partitions() iter.Seq2[Key, Partition]
}

type flushSet struct {
	memtable *Memtable
	from, to *Key
	count    int64
	keysSize int64
}

// FlushSet builds the flushable view of [from, to). It runs two passes over
// the same bound: the first counts partitions and sums key bytes, the second
// is re-derived lazily when the flush writer consumes Partitions. Counting
// up front is deliberately preferred over materializing the partition set.
//
// The two passes only agree when no writes land in between, which the flush
// handoff guarantees by freezing the memtable first. If writes can still
// occur, the totals are a preallocation hint, not a hard bound.
func (m *Memtable) FlushSet(from, to *Key) (FlushablePartitionSet, error) {
	seq, err := m.PartitionIterator(from, true, to, false)
	if err != nil {
		return nil, err
	}

	var count, keysSize int64
	for key := range seq {
		keysSize += int64(len(key.Bytes()))
		count++
	}

	return &flushSet{
		memtable: m,
		from:     from,
		to:       to,
		count:    count,
		keysSize: keysSize,
	}, nil
}

func (f *flushSet) From() *Key { return f.from }

func (f *flushSet) To() *Key { return f.to }

func (f *flushSet) PartitionCount() int64 { return f.count }

func (f *flushSet) PartitionKeysSize() int64 { return f.keysSize }

func (f *flushSet) Partitions() iter.Seq2[Key, Partition] {
	// The bound was validated by the counting pass; a fresh iterator over
	// the same bound cannot fail.
	seq, _ := f.memtable.PartitionIterator(f.from, true, f.to, false)
	return seq
}
