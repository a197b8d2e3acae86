package allocator

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArenaClone(t *testing.T) {
	a := New()

	src := []byte("hello")
	cloned := a.Clone(src, nil)
	assert.Equal(t, src, cloned)

	// The clone is independent of the source buffer.
	src[0] = 'x'
	assert.Equal(t, []byte("hello"), cloned)

	assert.Equal(t, int64(5), a.Allocated())
	assert.Nil(t, a.Clone(nil, nil))
}

func TestArenaReserve(t *testing.T) {
	a := New()
	a.Reserve(120, nil)
	a.Reserve(0, nil)
	assert.Equal(t, int64(120), a.Allocated())
}

func TestArenaOversizedAllocation(t *testing.T) {
	a := New(WithChunkSize(16))
	big := make([]byte, 64)
	for i := range big {
		big[i] = byte(i)
	}
	assert.Equal(t, big, a.Clone(big, nil))
	assert.Equal(t, int64(64), a.Allocated())
}

func TestArenaConcurrentClone(t *testing.T) {
	a := New(WithChunkSize(256))

	const writers = 16
	const perWriter = 200
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			payload := []byte{byte(w), byte(w), byte(w), byte(w)}
			for i := 0; i < perWriter; i++ {
				cloned := a.Clone(payload, nil)
				assert.Equal(t, payload, cloned)
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, int64(writers*perWriter*4), a.Allocated())
}

func TestArenaLimit(t *testing.T) {
	a := New(WithLimit(8))
	require.False(t, a.OverLimit())

	a.Reserve(6, nil)
	assert.False(t, a.OverLimit())

	// Crossing the budget only raises the signal; the charge still lands.
	a.Reserve(6, nil)
	assert.True(t, a.OverLimit())
	assert.Equal(t, int64(12), a.Allocated())
}

func TestArenaClose(t *testing.T) {
	a := New(WithLimit(64))
	a.Clone([]byte("data"), nil)
	a.Close()

	// Accounting survives for post-mortem metrics; memory is gone.
	assert.Equal(t, int64(4), a.Allocated())
}
