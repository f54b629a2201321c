package ringbuf

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRing_Basic(t *testing.T) {
	assert := assert.New(t)

	r := New(5)
	assert.Equal(8, r.Cap())
	assert.Equal(0, r.Len())

	_, ok := r.Get()
	assert.False(ok)

	for i := 0; i < 8; i++ {
		assert.True(r.Put(byte(i)))
	}
	assert.Equal(8, r.Len())
	assert.Equal(0, r.Free())

	assert.False(r.Put(0xff))
	assert.True(r.Overflowed())
	assert.False(r.Overflowed())
	assert.Equal(uint64(1), r.OverflowCount())

	c, ok := r.Peek()
	assert.True(ok)
	assert.Equal(byte(0), c)

	for i := 0; i < 8; i++ {
		c, ok := r.Get()
		assert.True(ok)
		assert.Equal(byte(i), c)
	}
	assert.Equal(0, r.Len())
}

func TestRing_DefaultSizeAndFlush(t *testing.T) {
	require := require.New(t)

	r := New(0)
	require.Equal(DefaultSize, r.Cap())

	for i := 0; i < 100; i++ {
		r.Put('x')
	}
	r.Flush()
	require.Equal(0, r.Len())

	// wrap around the end of the backing array
	for round := 0; round < 3; round++ {
		for i := 0; i < DefaultSize-1; i++ {
			require.True(r.Put(byte(i)))
		}
		for i := 0; i < DefaultSize-1; i++ {
			c, ok := r.Get()
			require.True(ok)
			require.Equal(byte(i), c)
		}
	}
}

func TestRing_Concurrent(t *testing.T) {
	require := require.New(t)

	const total = 100000
	r := New(64)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			for !r.Put(byte(i)) {
			}
		}
	}()

	for i := 0; i < total; i++ {
		var c byte
		var ok bool
		for {
			if c, ok = r.Get(); ok {
				break
			}
		}
		require.Equal(byte(i), c)
	}
	wg.Wait()
}
