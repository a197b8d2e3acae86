// Package allocator provides the bulk memory arena backing one memtable.
//
// Memory is taken in large chunks and handed out through a lock-free bump
// pointer; nothing is freed per entry. The whole arena is released exactly
// once, when the memtable is retired after a successful flush. An optional
// hard limit tracks usage against a budget without ever blocking a writer:
// crossing it only raises the OverLimit signal for the owner to act on.
package allocator

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// DefaultChunkSize is the default size of one arena chunk.
const DefaultChunkSize = 1 << 20

// Option configures an Arena.
type Option func(*Arena)

// WithChunkSize sets the chunk size in bytes.
func WithChunkSize(n int) Option {
	return func(a *Arena) {
		if n > 0 {
			a.chunkSize = n
		}
	}
}

// WithLimit sets a soft memory budget in bytes. Allocations beyond the
// budget still succeed; OverLimit reports the crossing so the owner can
// schedule a flush.
func WithLimit(bytes int64) Option {
	return func(a *Arena) {
		if bytes > 0 {
			a.limit = semaphore.NewWeighted(bytes)
		}
	}
}

type chunk struct {
	data   []byte
	offset atomic.Int64
}

// Arena is a chunked bump allocator. Clone and Reserve are safe for
// concurrent use; Close must not race with either.
type Arena struct {
	chunkSize int

	mu      sync.Mutex
	chunks  []*chunk
	current atomic.Pointer[chunk]

	allocated atomic.Int64
	acquired  atomic.Int64
	limit     *semaphore.Weighted
	overLimit atomic.Bool
}

// New creates an empty arena.
func New(optFns ...Option) *Arena {
	a := &Arena{chunkSize: DefaultChunkSize}
	for _, fn := range optFns {
		fn(a)
	}
	return a
}

// Clone copies b into arena memory. The fence is accepted for interface
// symmetry; arena accounting is tied to the memtable lifetime, not to op
// ordering.
func (a *Arena) Clone(b []byte, _ any) []byte {
	if len(b) == 0 {
		return nil
	}
	buf := a.alloc(len(b))
	copy(buf, b)
	a.charge(int64(len(b)))
	return buf
}

// Reserve charges accounting-only overhead against the arena.
func (a *Arena) Reserve(n int64, _ any) {
	if n > 0 {
		a.charge(n)
	}
}

// Allocated returns the total bytes charged so far.
func (a *Arena) Allocated() int64 {
	return a.allocated.Load()
}

// OverLimit reports whether the configured budget has been crossed.
func (a *Arena) OverLimit() bool {
	return a.overLimit.Load()
}

// Close releases the arena's memory and budget. Call exactly once, after all
// writers have stopped.
func (a *Arena) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.limit != nil {
		a.limit.Release(a.acquired.Swap(0))
	}
	a.chunks = nil
	a.current.Store(nil)
}

func (a *Arena) charge(n int64) {
	a.allocated.Add(n)
	if a.limit == nil {
		return
	}
	if a.limit.TryAcquire(n) {
		a.acquired.Add(n)
		return
	}
	a.overLimit.Store(true)
}

func (a *Arena) alloc(n int) []byte {
	if n > a.chunkSize {
		// Oversized request gets a dedicated chunk.
		a.mu.Lock()
		defer a.mu.Unlock()
		c := &chunk{data: make([]byte, n)}
		c.offset.Store(int64(n))
		a.chunks = append(a.chunks, c)
		return c.data
	}
	for {
		c := a.current.Load()
		if c != nil {
			end := c.offset.Add(int64(n))
			if end <= int64(len(c.data)) {
				return c.data[end-int64(n) : end : end]
			}
		}
		a.grow(c)
	}
}

func (a *Arena) grow(prev *chunk) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current.Load() != prev {
		// Another writer already grew the arena.
		return
	}
	c := &chunk{data: make([]byte, a.chunkSize)}
	a.chunks = append(a.chunks, c)
	a.current.Store(c)
}
