package engine

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/btree"
)

const (
	// NoDeletionTime marks a live cell.
	NoDeletionTime = int64(1<<63 - 1)

	// cellOverhead approximates the fixed heap cost of one cell beyond its
	// column name and value: timestamp, deletion time and slice headers.
	cellOverhead = 40

	// rowOverhead approximates the fixed heap cost of one clustering row.
	rowOverhead = 48

	rowTreeDegree = 16
)

// Cell is one column value written at a timestamp. A nil Value together with
// a LocalDeletionTime below NoDeletionTime is a tombstone.
type Cell struct {
	Column            string
	Value             []byte
	Timestamp         int64
	LocalDeletionTime int64
}

// live reports whether the cell carries data rather than a tombstone.
func (c Cell) live() bool { return c.LocalDeletionTime == NoDeletionTime }

// Row is the accumulated cells of one clustering within a partition, sorted
// by column name.
type Row struct {
	Clustering string
	Cells      []Cell
}

type rowItem struct {
	clustering string
	cells      map[string]Cell
}

func (r *rowItem) Less(than btree.Item) bool {
	return r.clustering < than.(*rowItem).clustering
}

// snapshot copies the row's cells, restricted to the column filter, in
// column order.
func (r *rowItem) snapshot(filter ColumnFilter) Row {
	cells := make([]Cell, 0, len(r.cells))
	for _, cell := range r.cells {
		if filter == nil || filter(cell.Column) {
			cells = append(cells, cell)
		}
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i].Column < cells[j].Column })
	return Row{Clustering: r.clustering, Cells: cells}
}

// RowPartition is the reference Partition implementation: clustering-ordered
// rows in a B-tree with last-writer-wins cell merge. Merges are serialized
// internally so the partition is safe under the concurrent write strategy,
// and readers observe a copied row snapshot, never the live tree.
type RowPartition struct {
	key   Key
	alloc Allocator

	mu   sync.RWMutex
	rows *btree.BTree
}

// NewRowPartition creates an empty partition for key. It is the default
// PartitionFactory. Partitions it creates accept only *RowUpdate updates;
// embedders with their own Update implementation must pair it with their
// own PartitionFactory.
func NewRowPartition(key Key, alloc Allocator) Partition {
	return &RowPartition{
		key:   key,
		alloc: alloc,
		rows:  btree.New(rowTreeDegree),
	}
}

// PartitionKey implements Partition.
func (p *RowPartition) PartitionKey() Key { return p.key }

// Apply merges a *RowUpdate into the partition. Cells win by higher
// timestamp; ties prefer the incoming cell. Cell values are cloned into the
// memtable's allocator so the update's buffers can be reused by the caller.
//
// Returns the net live-size delta and the number of cells that won the
// merge.
func (p *RowPartition) Apply(update Update, tx UpdateTransaction, fence OpGroup) (int64, int64) {
	ru, ok := update.(*RowUpdate)
	if !ok {
		panic(fmt.Sprintf("engine: RowPartition requires *RowUpdate, got %T", update))
	}
	if tx == nil {
		tx = NoopTransaction
	}
	tx.Start()

	var sizeDelta, applied int64

	p.mu.Lock()
	for _, row := range ru.rows {
		item, ok := p.rows.Get(&rowItem{clustering: row.Clustering}).(*rowItem)
		if !ok {
			item = &rowItem{
				clustering: row.Clustering,
				cells:      make(map[string]Cell, len(row.Cells)),
			}
			p.rows.ReplaceOrInsert(item)
			sizeDelta += rowOverhead + int64(len(row.Clustering))
			delta, n := p.mergeCells(item, row.Cells, fence)
			sizeDelta += delta
			applied += n
			tx.OnInserted(item.snapshot(nil))
			continue
		}
		existing := item.snapshot(nil)
		delta, n := p.mergeCells(item, row.Cells, fence)
		sizeDelta += delta
		applied += n
		if n > 0 {
			tx.OnUpdated(existing, item.snapshot(nil))
		}
	}
	p.mu.Unlock()

	tx.Commit()
	return sizeDelta, applied
}

func (p *RowPartition) mergeCells(item *rowItem, cells []Cell, fence OpGroup) (sizeDelta, applied int64) {
	for _, cell := range cells {
		current, ok := item.cells[cell.Column]
		if ok && current.Timestamp > cell.Timestamp {
			continue
		}
		cell.Value = p.alloc.Clone(cell.Value, fence)
		if ok {
			sizeDelta += int64(len(cell.Value)) - int64(len(current.Value))
		} else {
			sizeDelta += cellOverhead + int64(len(cell.Column)) + int64(len(cell.Value))
		}
		item.cells[cell.Column] = cell
		applied++
	}
	return sizeDelta, applied
}

// RowIterator returns the partition's rows within the clustering slice in
// clustering order, optionally reversed. Rows are copied under the read
// lock, so the returned view is a point-in-time snapshot and stays valid
// while writers keep merging.
func (p *RowPartition) RowIterator(slice Slice, filter ColumnFilter, reversed bool) RowIterator {
	p.mu.RLock()
	rows := make([]Row, 0, p.rows.Len())
	visit := func(i btree.Item) bool {
		item := i.(*rowItem)
		if slice.Start != "" && item.clustering < slice.Start {
			// Below the slice: skip while ascending, done while descending.
			return !reversed
		}
		if slice.End != "" && item.clustering > slice.End {
			// Above the slice: done while ascending, skip while descending.
			return reversed
		}
		rows = append(rows, item.snapshot(filter))
		return true
	}
	if reversed {
		p.rows.Descend(visit)
	} else {
		p.rows.Ascend(visit)
	}
	p.mu.RUnlock()

	return func(yield func(Row) bool) {
		for _, row := range rows {
			if !yield(row) {
				return
			}
		}
	}
}

// Len returns the number of clustering rows in the partition.
func (p *RowPartition) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.rows.Len()
}
