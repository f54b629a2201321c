// Package ringbuf implements a lock-free single-producer/single-consumer byte ring.
//
// The producer side (Put) is meant to be called from the byte reception path of a transport
// and the consumer side (Get, Peek, Flush) from the main loop. Neither side blocks.
// When the ring is full Put drops the byte and counts the overflow.
package ringbuf

import "sync/atomic"

// DefaultSize is the capacity used when New is called with a non-positive size.
const DefaultSize = 2048

// Ring is a fixed-capacity byte ring buffer.
type Ring struct {
	buf  []byte
	mask uint32

	head atomic.Uint32 // next write position, owned by the producer
	tail atomic.Uint32 // next read position, owned by the consumer

	overflow      atomic.Bool
	overflowCount atomic.Uint64
}

// New creates a ring holding at least size bytes. The capacity is rounded up to a power of two.
func New(size int) *Ring {
	if size <= 0 {
		size = DefaultSize
	}

	capacity := uint32(1)
	for int(capacity) < size {
		capacity <<= 1
	}

	return &Ring{
		buf:  make([]byte, capacity),
		mask: capacity - 1,
	}
}

// Cap returns the capacity of the ring.
func (r *Ring) Cap() int {
	return len(r.buf)
}

// Len returns the number of buffered bytes.
func (r *Ring) Len() int {
	return int(r.head.Load() - r.tail.Load())
}

// Free returns the number of bytes that can be put before the ring is full.
func (r *Ring) Free() int {
	return r.Cap() - r.Len()
}

// Put appends c. It returns false and records an overflow when the ring is full.
func (r *Ring) Put(c byte) bool {
	head := r.head.Load()
	if head-r.tail.Load() == uint32(len(r.buf)) {
		r.overflow.Store(true)
		r.overflowCount.Add(1)

		return false
	}

	r.buf[head&r.mask] = c
	r.head.Store(head + 1)

	return true
}

// Get removes and returns the oldest byte.
func (r *Ring) Get() (byte, bool) {
	tail := r.tail.Load()
	if tail == r.head.Load() {
		return 0, false
	}

	c := r.buf[tail&r.mask]
	r.tail.Store(tail + 1)

	return c, true
}

// Peek returns the oldest byte without removing it.
func (r *Ring) Peek() (byte, bool) {
	tail := r.tail.Load()
	if tail == r.head.Load() {
		return 0, false
	}

	return r.buf[tail&r.mask], true
}

// Flush discards all buffered bytes. It must be called from the consumer side, or from the
// producer side while no consumer reads the ring.
func (r *Ring) Flush() {
	r.tail.Store(r.head.Load())
}

// Overflowed reports whether a byte was dropped since the last call and clears the flag.
func (r *Ring) Overflowed() bool {
	return r.overflow.Swap(false)
}

// OverflowCount returns the total number of dropped bytes.
func (r *Ring) OverflowCount() uint64 {
	return r.overflowCount.Load()
}
