package memtable

import (
	"errors"
	"fmt"

	"github.com/hupe1980/memtable/engine"
)

var (
	// ErrFrozen is returned when a write reaches a memtable already frozen
	// for flushing.
	ErrFrozen = engine.ErrFrozen

	// ErrClosed is returned when an operation reaches a closed memtable.
	ErrClosed = errors.New("memtable is closed")
)

// ErrInvalidRange indicates a sub-range request whose left bound sorts after
// its right bound. Alias of the engine type so callers can errors.As against
// either package.
type ErrInvalidRange = engine.ErrInvalidRange

// ErrInvalidShardCount indicates unparsable or non-positive shard-count
// configuration. It is surfaced at configuration-resolution time, before any
// shard is constructed.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidShardCount struct {
	Value string
	cause error
}

func (e *ErrInvalidShardCount) Error() string {
	return fmt.Sprintf("invalid shard count: %q", e.Value)
}

func (e *ErrInvalidShardCount) Unwrap() error { return e.cause }
