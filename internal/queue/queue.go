// Package queue provides a lock-free multi-producer queue used to hand work to the main loop.
package queue

// Queue is a FIFO queue of T.
type Queue[T any] interface {
	// Enqueue adds an item to the tail of the queue.
	Enqueue(item T)
	// Dequeue removes and returns the item at the head of the queue.
	// ok is false when the queue is empty.
	Dequeue() (item T, ok bool)
	// Drain dequeues items and passes them to fn until the queue is empty. It returns the number
	// of items processed. Items enqueued by fn are processed in the same call.
	Drain(fn func(T)) int
	// IsEmpty returns true if the queue is empty, false otherwise.
	IsEmpty() bool
	// Length returns the number of items in the queue.
	Length() int
}
