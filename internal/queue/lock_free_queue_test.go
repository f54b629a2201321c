package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type task struct {
	name string
}

func TestLockFreeQueue(t *testing.T) {
	assert := assert.New(t)
	t.Run("Empty Queue", func(t *testing.T) {
		q := NewLockFreeQueue[*task]()

		assert.True(q.IsEmpty())
		assert.Equal(0, q.Length())
		item, ok := q.Dequeue()
		assert.False(ok)
		assert.Nil(item)
	})

	t.Run("Enqueue and Dequeue", func(t *testing.T) {
		q := NewLockFreeQueue[*task]()

		t1 := &task{"t1"}
		t2 := &task{"t2"}
		q.Enqueue(t1)
		q.Enqueue(t2)
		assert.Equal(2, q.Length())

		item, ok := q.Dequeue()
		assert.True(ok)
		assert.Same(t1, item)

		item, ok = q.Dequeue()
		assert.True(ok)
		assert.Same(t2, item)

		_, ok = q.Dequeue()
		assert.False(ok)
		assert.True(q.IsEmpty())
	})

	t.Run("Drain runs re-enqueued work", func(t *testing.T) {
		q := NewLockFreeQueue[func()]()

		var trace []int
		q.Enqueue(func() {
			trace = append(trace, 1)
			q.Enqueue(func() { trace = append(trace, 3) })
		})
		q.Enqueue(func() { trace = append(trace, 2) })

		n := q.Drain(func(fn func()) { fn() })
		assert.Equal(3, n)
		assert.Equal([]int{1, 2, 3}, trace)
		assert.True(q.IsEmpty())
	})

	t.Run("Concurrency", func(t *testing.T) {
		q := NewLockFreeQueue[int]()

		var wg sync.WaitGroup
		for i := 0; i < 1000; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				q.Enqueue(i)
			}(i)
		}
		wg.Wait()

		assert.Equal(1000, q.Length())

		seen := make([]bool, 1000)
		var mu sync.Mutex
		wg.Add(1000)
		for i := 0; i < 1000; i++ {
			go func() {
				defer wg.Done()
				if v, ok := q.Dequeue(); ok {
					mu.Lock()
					seen[v] = true
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.True(q.IsEmpty())
		for i := range seen {
			assert.True(seen[i])
		}
	})
}

func BenchmarkLockFreeQueue_100(b *testing.B) {
	q := NewLockFreeQueue[int]()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for j := 0; j < 100; j++ {
			q.Enqueue(j)
		}
		q.Drain(func(int) {})
	}
}
