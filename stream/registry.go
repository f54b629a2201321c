package stream

import (
	"io"
	"sync/atomic"

	"github.com/arloliu/go-fsstream/hook"
	"github.com/arloliu/go-fsstream/logger"
)

// File is the handle of a file being streamed, as seen by the rest of the controller.
type File = io.ReadSeekCloser

type transportRef struct {
	t Transport
}

// Registry owns the active endpoint and one saved transport endpoint.
//
// Redirect replaces the active endpoint while keeping the physical transport attached for output
// and realtime commands. Restore puts the saved endpoint back. Only the transport endpoint is ever
// saved; nested sources chain through SetReader instead.
//
// Forward, Drop and SetInterceptor may be called from the reception path. Every other method
// belongs to the main loop.
type Registry struct {
	transport atomic.Pointer[transportRef]
	realtime  atomic.Pointer[RealtimeHandler]

	active     Endpoint
	saved      Endpoint
	redirected bool
	// handler installed on the transport before the redirection
	savedHandler RealtimeHandler

	file    File
	changed *hook.Chain[Kind]

	logger logger.Logger
}

// RegistryOption configures a Registry.
type RegistryOption interface {
	apply(*Registry)
}

type registryOptFunc func(*Registry)

func (f registryOptFunc) apply(r *Registry) { f(r) }

// WithRegistryLogger sets the logger of the registry.
func WithRegistryLogger(l logger.Logger) RegistryOption {
	return registryOptFunc(func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	})
}

// NewRegistry creates a registry with t as the active transport. A nil t attaches a null transport.
func NewRegistry(t Transport, opts ...RegistryOption) *Registry {
	r := &Registry{
		changed: hook.NewChain[Kind](nil),
		logger:  logger.Component("stream"),
	}
	for _, opt := range opts {
		opt.apply(r)
	}

	if t == nil {
		t = NewNullTransport()
	}
	r.transport.Store(&transportRef{t: t})
	r.active = EndpointOf(t)
	t.SetRealtimeHandler(r.Forward)

	return r
}

// OnChanged returns the chain notified whenever the active endpoint kind changes.
func (r *Registry) OnChanged() *hook.Chain[Kind] { return r.changed }

// SetRealtimePath sets the function that executes realtime command bytes. It returns true for
// bytes it recognised as realtime commands.
func (r *Registry) SetRealtimePath(h RealtimeHandler) {
	if h == nil {
		r.realtime.Store(nil)
		return
	}
	r.realtime.Store(&h)
}

// Forward passes c to the realtime path and reports whether it was consumed.
func (r *Registry) Forward(c byte) bool {
	if h := r.realtime.Load(); h != nil {
		return (*h)(c)
	}

	return false
}

// Drop forwards c to the realtime path and consumes it either way.
func (r *Registry) Drop(c byte) bool {
	r.Forward(c)
	return true
}

// Transport returns the physical transport.
func (r *Registry) Transport() Transport {
	return r.transport.Load().t
}

// SetInterceptor installs h as the realtime handler of the physical transport and returns the
// previous one.
func (r *Registry) SetInterceptor(h RealtimeHandler) RealtimeHandler {
	return r.Transport().SetRealtimeHandler(h)
}

// Redirect makes ep the active endpoint. The current endpoint is saved unless a redirection is
// already in place, and the transport input is dropped except for realtime commands.
func (r *Registry) Redirect(ep Endpoint) {
	if ep.Reader == nil {
		ep.Reader = Null
	}

	if !r.redirected {
		r.saved = r.active
		r.redirected = true
		r.savedHandler = r.SetInterceptor(r.Drop)
	} else {
		r.SetInterceptor(r.Drop)
	}
	r.active = ep

	r.logger.Debug("stream redirected", "kind", ep.Kind, "saved", r.saved.Kind)
	r.changed.Fire(ep.Kind)
}

// Restore reinstates the saved endpoint and its realtime handler. When flush is set unread
// transport input is discarded. It reports false when nothing was redirected.
func (r *Registry) Restore(flush bool) bool {
	if !r.redirected {
		return false
	}

	r.active = r.saved
	r.saved = Endpoint{}
	r.redirected = false
	r.file = nil

	handler := r.savedHandler
	r.savedHandler = nil
	if handler == nil {
		handler = r.Forward
	}
	r.SetInterceptor(handler)

	if flush {
		r.Transport().ResetReadBuffer()
	}

	r.logger.Debug("stream restored", "kind", r.active.Kind, "flush", flush)
	r.changed.Fire(r.active.Kind)

	return true
}

// Connect replaces the physical transport, e.g. when a client connects or disconnects.
// An active redirection is kept: t becomes the endpoint that Restore returns to.
func (r *Registry) Connect(t Transport) {
	if t == nil {
		t = NewNullTransport()
	}

	old := r.Transport()
	if r.redirected {
		handler := r.savedHandler
		if handler == nil {
			handler = r.Forward
		}
		old.SetRealtimeHandler(handler)

		r.transport.Store(&transportRef{t: t})
		r.saved = EndpointOf(t)
		r.savedHandler = t.SetRealtimeHandler(r.Drop)
	} else {
		old.SetRealtimeHandler(nil)

		r.transport.Store(&transportRef{t: t})
		r.active = EndpointOf(t)
		t.SetRealtimeHandler(r.Forward)
	}

	r.logger.Info("transport connected", "kind", t.Kind(), "previous", old.Kind(), "redirected", r.redirected)
	r.changed.Fire(t.Kind())
}

// Redirected reports whether the active endpoint replaces the transport.
func (r *Registry) Redirected() bool { return r.redirected }

// Active returns the active endpoint.
func (r *Registry) Active() Endpoint { return r.active }

// Saved returns the endpoint Restore will return to.
func (r *Registry) Saved() Endpoint { return r.saved }

// Kind returns the kind of the active endpoint.
func (r *Registry) Kind() Kind { return r.active.Kind }

// Reader returns the reader of the active endpoint.
func (r *Registry) Reader() Reader { return r.active.Reader }

// SetReader replaces the reader of the active endpoint and returns the previous one.
func (r *Registry) SetReader(rd Reader) Reader {
	if rd == nil {
		rd = Null
	}
	prev := r.active.Reader
	r.active.Reader = rd

	return prev
}

// ReadChar reads one byte from the active endpoint.
func (r *Registry) ReadChar() int {
	if r.active.Reader == nil {
		return NoData
	}

	return r.active.Reader.ReadChar()
}

// SetSuspend replaces the suspend function of the active endpoint.
func (r *Registry) SetSuspend(fn SuspendFunc) {
	r.active.Suspend = fn
}

// CanSuspend reports whether the active endpoint supports tool change suspension.
func (r *Registry) CanSuspend() bool {
	return r.active.Suspend != nil
}

// Suspend suspends or resumes character delivery of the active endpoint.
func (r *Registry) Suspend(suspend bool) bool {
	if r.active.Suspend == nil {
		return false
	}

	return r.active.Suspend(suspend)
}

// WebUIConnected reports whether the physical transport has a WebUI client attached.
func (r *Registry) WebUIConnected() bool {
	if s, ok := r.Transport().(WebUISession); ok {
		return s.WebUIConnected()
	}

	return false
}

// AttachFile publishes f as the file currently being streamed.
func (r *Registry) AttachFile(f File) { r.file = f }

// DetachFile clears the published file if it is f.
func (r *Registry) DetachFile(f File) bool {
	if r.file != nil && r.file == f {
		r.file = nil
		return true
	}

	return false
}

// File returns the file currently being streamed, or nil.
func (r *Registry) File() File { return r.file }

// Write writes to the physical transport.
func (r *Registry) Write(p []byte) (int, error) {
	return r.Transport().Write(p)
}

// WriteString writes s to the physical transport.
func (r *Registry) WriteString(s string) (int, error) {
	return r.Transport().WriteString(s)
}

// WriteByte writes c to the physical transport.
func (r *Registry) WriteByte(c byte) error {
	return r.Transport().WriteByte(c)
}
