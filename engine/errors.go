package engine

import (
	"errors"
	"fmt"
)

// ErrFrozen is returned when a write reaches a memtable that has been frozen
// for flushing.
var ErrFrozen = errors.New("memtable is frozen")

// ErrInvalidRange indicates that a requested sub-range's left bound sorts
// after its right bound. It is logged with both bound values and propagated;
// the store is left unmodified and the request is never retried internally.
type ErrInvalidRange struct {
	Left  *Key
	Right *Key
}

func (e *ErrInvalidRange) Error() string {
	return fmt.Sprintf("invalid range requested %s - %s", boundString(e.Left), boundString(e.Right))
}

func boundString(k *Key) string {
	if k == nil {
		return "unbounded"
	}
	return k.String()
}
