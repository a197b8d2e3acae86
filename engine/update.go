package engine

// RowUpdate is the reference Update implementation paired with
// RowPartition: a batch of cells for one partition key, grouped by
// clustering, plus the encoding stats the shard aggregates consume.
//
// Build one with NewRowUpdate and the Set/Delete chain; the zero value is
// not usable.
type RowUpdate struct {
	key                  Key
	rows                 []Row
	index                map[string]int
	minTimestamp         int64
	minLocalDeletionTime int64
	operations           int64
}

// NewRowUpdate creates an empty update for key.
func NewRowUpdate(key Key) *RowUpdate {
	return &RowUpdate{
		key:                  key,
		index:                make(map[string]int),
		minTimestamp:         NoDeletionTime,
		minLocalDeletionTime: NoDeletionTime,
	}
}

// Set adds a live cell write.
func (u *RowUpdate) Set(clustering, column string, value []byte, timestamp int64) *RowUpdate {
	return u.add(clustering, Cell{
		Column:            column,
		Value:             value,
		Timestamp:         timestamp,
		LocalDeletionTime: NoDeletionTime,
	})
}

// Delete adds a cell tombstone. localDeletionTime is the local clock at
// deletion, used for purge decisions downstream.
func (u *RowUpdate) Delete(clustering, column string, timestamp, localDeletionTime int64) *RowUpdate {
	return u.add(clustering, Cell{
		Column:            column,
		Timestamp:         timestamp,
		LocalDeletionTime: localDeletionTime,
	})
}

func (u *RowUpdate) add(clustering string, cell Cell) *RowUpdate {
	i, ok := u.index[clustering]
	if !ok {
		i = len(u.rows)
		u.index[clustering] = i
		u.rows = append(u.rows, Row{Clustering: clustering})
	}
	u.rows[i].Cells = append(u.rows[i].Cells, cell)

	if cell.Timestamp < u.minTimestamp {
		u.minTimestamp = cell.Timestamp
	}
	if cell.LocalDeletionTime < u.minLocalDeletionTime {
		u.minLocalDeletionTime = cell.LocalDeletionTime
	}
	u.operations++
	return u
}

// PartitionKey implements Update.
func (u *RowUpdate) PartitionKey() Key { return u.key }

// MinTimestamp implements Update.
func (u *RowUpdate) MinTimestamp() int64 { return u.minTimestamp }

// MinLocalDeletionTime implements Update.
func (u *RowUpdate) MinLocalDeletionTime() int64 { return u.minLocalDeletionTime }

// OperationCount implements Update.
func (u *RowUpdate) OperationCount() int64 { return u.operations }

// Rows returns the update's rows in insertion order.
func (u *RowUpdate) Rows() []Row { return u.rows }
