package engine

import (
	"iter"
	"sync"

	"github.com/huandu/skiplist"
)

// keyOrder adapts the Key total order to the skip list. The token doubles as
// the score so most comparisons resolve without touching key bytes.
type keyOrder struct{}

func (keyOrder) Compare(lhs, rhs interface{}) int {
	return lhs.(Key).Compare(rhs.(Key))
}

func (keyOrder) CalcScore(key interface{}) float64 {
	return float64(key.(Key).Token())
}

// Store is the ordered partition map of one shard: a skip list guarded by a
// read-write lock. Entries are created lazily on first write and never
// removed while the memtable is writable, so readers can hold partition
// references without lifetime concerns.
//
// The lock substitutes for a lock-free skip list: lookups and range views
// take the read side only, and the write side is held just long enough for a
// single insert.
type Store struct {
	mu   sync.RWMutex
	list *skiplist.SkipList
}

// NewStore creates an empty partition store.
func NewStore() *Store {
	return &Store{list: skiplist.New(keyOrder{})}
}

// Get returns the partition stored under key, if present.
func (s *Store) Get(key Key) (Partition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	el := s.list.Get(key)
	if el == nil {
		return nil, false
	}
	return el.Value.(Partition), true
}

// LoadOrStore inserts empty under key if the key is absent. It returns the
// partition now present and whether it was already there; a racing writer's
// speculative value simply loses and is discarded by the caller.
func (s *Store) LoadOrStore(key Key, empty Partition) (Partition, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if el := s.list.Get(key); el != nil {
		return el.Value.(Partition), true
	}
	s.list.Set(key, empty)
	return empty, false
}

// Len returns the number of partitions in the store.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list.Len()
}

// IsEmpty reports whether the store holds no partitions.
func (s *Store) IsEmpty() bool {
	return s.Len() == 0
}

// Ascend returns a lazy view over the whole store in key order.
func (s *Store) Ascend() iter.Seq2[Key, Partition] {
	seq, _ := s.AscendRange(nil, true, nil, true)
	return seq
}

// AscendRange returns a lazy, forward-only view over the partitions whose
// keys fall within the requested bound, honoring open and closed edges. A
// nil or minimum bound is unbounded on that side.
//
// The view holds the store's read lock only while it is being consumed, so
// concurrent inserts are visible to views not yet started and invisible to
// views already finished.
//
// Returns *ErrInvalidRange when left sorts strictly after right.
func (s *Store) AscendRange(left *Key, includeLeft bool, right *Key, includeRight bool) (iter.Seq2[Key, Partition], error) {
	left = normalizeBound(left)
	right = normalizeBound(right)
	if left != nil && right != nil && left.Compare(*right) > 0 {
		return nil, &ErrInvalidRange{Left: left, Right: right}
	}

	return func(yield func(Key, Partition) bool) {
		s.mu.RLock()
		defer s.mu.RUnlock()

		var el *skiplist.Element
		if left == nil {
			el = s.list.Front()
		} else {
			el = s.list.Find(*left)
			if el != nil && !includeLeft && el.Key().(Key).Equal(*left) {
				el = el.Next()
			}
		}
		for ; el != nil; el = el.Next() {
			key := el.Key().(Key)
			if right != nil {
				c := key.Compare(*right)
				if c > 0 || (c == 0 && !includeRight) {
					return
				}
			}
			if !yield(key, el.Value.(Partition)) {
				return
			}
		}
	}, nil
}

// normalizeBound maps the minimum sentinel to an unbounded edge.
func normalizeBound(k *Key) *Key {
	if k != nil && k.IsMinimum() {
		return nil
	}
	return k
}
