// Package hook provides ordered middleware chains for firmware events.
//
// A Pipe is an ordered list of handlers for one event type. Every handler receives the event and
// a next function giving access to the rest of the chain; it decides whether, when, and with what
// argument to call it. The most recently installed handler runs first and the terminal function
// set at construction runs last.
//
// Install returns an *Entry token. Removing a token only ever removes that handler, wherever it
// sits in the chain, so a component can detach itself without disturbing handlers installed by
// others after it.
//
// Chains are owned by the cooperative main loop and are not safe for concurrent mutation.
package hook

// Handler processes arg and may call next to run the remainder of the chain.
type Handler[A, R any] func(arg A, next func(A) R) R

// Entry identifies one installed handler.
type Entry[A, R any] struct {
	handler Handler[A, R]
	pipe    *Pipe[A, R]
}

// Remove detaches the entry from its chain. It reports whether the entry was installed.
// Calling Remove on a nil or already removed entry is a no-op.
func (e *Entry[A, R]) Remove() bool {
	if e == nil || e.pipe == nil {
		return false
	}

	return e.pipe.Remove(e)
}

// Installed reports whether the entry is currently part of a chain.
func (e *Entry[A, R]) Installed() bool {
	return e != nil && e.pipe != nil
}

// Pipe is a chain of handlers producing a result of type R.
type Pipe[A, R any] struct {
	entries  []*Entry[A, R]
	terminal func(A) R
}

// NewPipe creates a chain that ends in terminal. A nil terminal returns the zero value of R.
func NewPipe[A, R any](terminal func(A) R) *Pipe[A, R] {
	if terminal == nil {
		terminal = func(A) R {
			var zero R
			return zero
		}
	}

	return &Pipe[A, R]{terminal: terminal}
}

// Install adds h at the head of the chain.
func (p *Pipe[A, R]) Install(h Handler[A, R]) *Entry[A, R] {
	e := &Entry[A, R]{handler: h, pipe: p}
	p.entries = append(p.entries, e)

	return e
}

// Remove detaches e. It reports whether e was found in this chain.
func (p *Pipe[A, R]) Remove(e *Entry[A, R]) bool {
	for i, cur := range p.entries {
		if cur == e {
			// running calls hold a snapshot of the old slice
			entries := make([]*Entry[A, R], 0, len(p.entries)-1)
			entries = append(entries, p.entries[:i]...)
			p.entries = append(entries, p.entries[i+1:]...)
			e.pipe = nil

			return true
		}
	}

	return false
}

// Len returns the number of installed handlers.
func (p *Pipe[A, R]) Len() int {
	return len(p.entries)
}

// Call runs the chain with arg.
//
// The handler list is captured when Call starts; handlers installed or removed while the chain
// runs take effect on the next call.
func (p *Pipe[A, R]) Call(arg A) R {
	entries := p.entries

	var call func(idx int, a A) R
	call = func(idx int, a A) R {
		if idx < 0 {
			return p.terminal(a)
		}

		return entries[idx].handler(a, func(next A) R { return call(idx-1, next) })
	}

	return call(len(entries)-1, arg)
}
