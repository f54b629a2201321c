// Package stream holds the character stream endpoints of the controller and the registry that
// decides which one the line parser reads from.
//
// A Transport is a physical or network connection. Its reception path runs concurrently with the
// main loop and hands every received byte to the installed RealtimeHandler first; bytes the handler
// does not consume are buffered for ReadChar. Everything else in this package is driven by the
// main loop.
package stream

import "io"

// NoData is returned by ReadChar when no byte is available.
const NoData = -1

// Reader is a non-blocking byte source. ReadChar returns a byte value or NoData.
//
// Readers are compared by identity, so implementations are expected to be pointer types.
type Reader interface {
	ReadChar() int
}

// ReaderFunc adapts a function to Reader. ReaderFunc values are not comparable and must not
// be used where reader identity matters.
type ReaderFunc func() int

// ReadChar calls f.
func (f ReaderFunc) ReadChar() int { return f() }

// RealtimeHandler is called from the reception path for every received byte.
// It returns true when the byte was consumed and must not be buffered.
type RealtimeHandler func(c byte) bool

// Transport is a physical or network character stream.
type Transport interface {
	Reader
	io.Writer
	io.StringWriter
	io.ByteWriter

	// Kind returns the kind of the transport.
	Kind() Kind
	// SetRealtimeHandler installs h and returns the previously installed handler.
	// It is safe to call concurrently with the reception path.
	SetRealtimeHandler(h RealtimeHandler) RealtimeHandler
	// ResetReadBuffer discards all buffered input.
	ResetReadBuffer()
	// CancelReadBuffer discards all buffered input and inserts a CAN byte so the line parser
	// drops any partially assembled line.
	CancelReadBuffer()
}

// Suspender is implemented by transports that can hold back input during a tool change.
type Suspender interface {
	// Suspendable reports whether suspension is available on this instance.
	Suspendable() bool
	// SuspendRead holds back (true) or releases (false) buffered input.
	SuspendRead(suspend bool) bool
}

// WebUISession is implemented by transports that can tell whether a WebUI client is connected.
type WebUISession interface {
	WebUIConnected() bool
}

// SuspendFunc suspends (true) or resumes (false) character delivery during a tool change.
type SuspendFunc func(suspend bool) bool

// Endpoint is the active character source of the controller.
type Endpoint struct {
	Kind    Kind
	Reader  Reader
	Suspend SuspendFunc
}

// EndpointOf returns the endpoint reading directly from t.
func EndpointOf(t Transport) Endpoint {
	ep := Endpoint{Kind: t.Kind(), Reader: t}
	if s, ok := t.(Suspender); ok && s.Suspendable() {
		ep.Suspend = s.SuspendRead
	}

	return ep
}

// NullReader never returns data.
type NullReader struct{}

// ReadChar implements Reader.
func (*NullReader) ReadChar() int { return NoData }

// Null is the shared no-data reader.
var Null Reader = &NullReader{}
