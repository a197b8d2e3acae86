package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/memtable/internal/allocator"
)

func collectRows(seq RowIterator) []Row {
	var rows []Row
	for row := range seq {
		rows = append(rows, row)
	}
	return rows
}

type opaqueUpdate struct{ key Key }

func (u opaqueUpdate) PartitionKey() Key           { return u.key }
func (u opaqueUpdate) MinTimestamp() int64         { return 0 }
func (u opaqueUpdate) MinLocalDeletionTime() int64 { return NoDeletionTime }
func (u opaqueUpdate) OperationCount() int64       { return 0 }

func TestRowPartitionRejectsForeignUpdate(t *testing.T) {
	key := keyAt(1)
	p := NewRowPartition(key, allocator.New())

	assert.PanicsWithValue(t,
		"engine: RowPartition requires *RowUpdate, got engine.opaqueUpdate",
		func() { p.Apply(opaqueUpdate{key: key}, nil, nil) },
	)
}

func TestRowPartitionApply(t *testing.T) {
	key := keyAt(1)
	p := NewRowPartition(key, allocator.New())

	update := NewRowUpdate(key).
		Set("c1", "name", []byte("a"), 100).
		Set("c1", "age", []byte("30"), 100).
		Set("c2", "name", []byte("b"), 100)

	sizeDelta, applied := p.Apply(update, nil, nil)
	assert.Positive(t, sizeDelta)
	assert.Equal(t, int64(3), applied)

	rows := collectRows(p.RowIterator(Slice{}, nil, false))
	require.Len(t, rows, 2)
	assert.Equal(t, "c1", rows[0].Clustering)
	assert.Equal(t, "c2", rows[1].Clustering)
	// Cells come out in column order.
	assert.Equal(t, "age", rows[0].Cells[0].Column)
	assert.Equal(t, "name", rows[0].Cells[1].Column)
}

func TestRowPartitionLastWriterWins(t *testing.T) {
	key := keyAt(1)
	p := NewRowPartition(key, allocator.New())

	p.Apply(NewRowUpdate(key).Set("c1", "name", []byte("old"), 100), nil, nil)
	p.Apply(NewRowUpdate(key).Set("c1", "name", []byte("new"), 200), nil, nil)
	// A stale write must not clobber the newer value.
	_, applied := p.Apply(NewRowUpdate(key).Set("c1", "name", []byte("stale"), 150), nil, nil)
	assert.Zero(t, applied)

	rows := collectRows(p.RowIterator(Slice{}, nil, false))
	require.Len(t, rows, 1)
	require.Len(t, rows[0].Cells, 1)
	assert.Equal(t, []byte("new"), rows[0].Cells[0].Value)
	assert.Equal(t, int64(200), rows[0].Cells[0].Timestamp)
}

func TestRowPartitionTombstone(t *testing.T) {
	key := keyAt(1)
	p := NewRowPartition(key, allocator.New())

	p.Apply(NewRowUpdate(key).Set("c1", "name", []byte("a"), 100), nil, nil)
	p.Apply(NewRowUpdate(key).Delete("c1", "name", 200, 5000), nil, nil)

	rows := collectRows(p.RowIterator(Slice{}, nil, false))
	require.Len(t, rows, 1)
	require.Len(t, rows[0].Cells, 1)
	cell := rows[0].Cells[0]
	assert.Nil(t, cell.Value)
	assert.Equal(t, int64(5000), cell.LocalDeletionTime)
}

func TestRowPartitionRowIterator(t *testing.T) {
	key := keyAt(1)
	p := NewRowPartition(key, allocator.New())
	update := NewRowUpdate(key)
	for _, clustering := range []string{"a", "b", "c", "d"} {
		update.Set(clustering, "name", []byte(clustering), 100).
			Set(clustering, "size", []byte("1"), 100)
	}
	p.Apply(update, nil, nil)

	t.Run("Slice", func(t *testing.T) {
		rows := collectRows(p.RowIterator(Slice{Start: "b", End: "c"}, nil, false))
		require.Len(t, rows, 2)
		assert.Equal(t, "b", rows[0].Clustering)
		assert.Equal(t, "c", rows[1].Clustering)
	})

	t.Run("Reversed", func(t *testing.T) {
		rows := collectRows(p.RowIterator(Slice{}, nil, true))
		require.Len(t, rows, 4)
		assert.Equal(t, "d", rows[0].Clustering)
		assert.Equal(t, "a", rows[3].Clustering)
	})

	t.Run("ReversedSlice", func(t *testing.T) {
		rows := collectRows(p.RowIterator(Slice{Start: "b", End: "c"}, nil, true))
		require.Len(t, rows, 2)
		assert.Equal(t, "c", rows[0].Clustering)
		assert.Equal(t, "b", rows[1].Clustering)
	})

	t.Run("ColumnFilter", func(t *testing.T) {
		filter := ColumnFilter(func(column string) bool { return column == "name" })
		rows := collectRows(p.RowIterator(Slice{}, filter, false))
		require.Len(t, rows, 4)
		for _, row := range rows {
			require.Len(t, row.Cells, 1)
			assert.Equal(t, "name", row.Cells[0].Column)
		}
	})
}

func TestRowPartitionIteratorIsSnapshot(t *testing.T) {
	key := keyAt(1)
	p := NewRowPartition(key, allocator.New())
	p.Apply(NewRowUpdate(key).Set("c1", "name", []byte("a"), 100), nil, nil)

	rows := p.RowIterator(Slice{}, nil, false)
	p.Apply(NewRowUpdate(key).Set("c2", "name", []byte("b"), 100), nil, nil)

	// The view was taken before the second write.
	assert.Len(t, collectRows(rows), 1)
}

func TestRowPartitionUpdateTransaction(t *testing.T) {
	key := keyAt(1)
	p := NewRowPartition(key, allocator.New())

	tx := &recordingTransaction{}
	p.Apply(NewRowUpdate(key).Set("c1", "name", []byte("a"), 100), tx, nil)
	assert.Equal(t, 1, tx.inserted)
	assert.Equal(t, 0, tx.updated)
	assert.True(t, tx.committed)

	p.Apply(NewRowUpdate(key).Set("c1", "name", []byte("b"), 200), tx, nil)
	assert.Equal(t, 1, tx.updated)
}

type recordingTransaction struct {
	inserted  int
	updated   int
	committed bool
}

func (r *recordingTransaction) Start()             { r.committed = false }
func (r *recordingTransaction) OnInserted(Row)     { r.inserted++ }
func (r *recordingTransaction) OnUpdated(Row, Row) { r.updated++ }
func (r *recordingTransaction) Commit()            { r.committed = true }

func TestRowUpdateStats(t *testing.T) {
	key := keyAt(1)
	update := NewRowUpdate(key).
		Set("c1", "a", []byte("v"), 300).
		Set("c1", "b", []byte("v"), 100).
		Delete("c2", "a", 200, 9000)

	assert.True(t, update.PartitionKey().Equal(key))
	assert.Equal(t, int64(100), update.MinTimestamp())
	assert.Equal(t, int64(9000), update.MinLocalDeletionTime())
	assert.Equal(t, int64(3), update.OperationCount())
	assert.Len(t, update.Rows(), 2)
}
