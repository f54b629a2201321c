package hook

// Chain is a notification chain: handlers observe an event and usually forward it.
type Chain[A any] struct {
	pipe *Pipe[A, struct{}]
}

// NewChain creates a notification chain. terminal may be nil.
func NewChain[A any](terminal func(A)) *Chain[A] {
	return &Chain[A]{
		pipe: NewPipe(func(a A) struct{} {
			if terminal != nil {
				terminal(a)
			}

			return struct{}{}
		}),
	}
}

// Install adds h at the head of the chain. h calls next to notify the rest of the chain.
func (c *Chain[A]) Install(h func(arg A, next func(A))) *Entry[A, struct{}] {
	return c.pipe.Install(func(arg A, next func(A) struct{}) struct{} {
		h(arg, func(a A) { next(a) })
		return struct{}{}
	})
}

// Observe adds a handler that always forwards to the rest of the chain after running fn.
func (c *Chain[A]) Observe(fn func(A)) *Entry[A, struct{}] {
	return c.Install(func(arg A, next func(A)) {
		fn(arg)
		next(arg)
	})
}

// Remove detaches e. It reports whether e was installed in this chain.
func (c *Chain[A]) Remove(e *Entry[A, struct{}]) bool {
	return c.pipe.Remove(e)
}

// Len returns the number of installed handlers.
func (c *Chain[A]) Len() int {
	return c.pipe.Len()
}

// Fire notifies the chain.
func (c *Chain[A]) Fire(arg A) {
	c.pipe.Call(arg)
}
