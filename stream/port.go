package stream

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/arloliu/go-fsstream/internal/ringbuf"
)

// Port is a Transport over an io.Writer for output and Receive/Run for input.
type Port struct {
	kind Kind
	w    io.Writer
	wmu  sync.Mutex

	rx      *ringbuf.Ring
	handler atomic.Pointer[RealtimeHandler]

	suspendable bool
	suspended   atomic.Bool
	webUI       atomic.Bool
}

var _ Transport = (*Port)(nil)

// PortOption configures a Port.
type PortOption interface {
	apply(*Port)
}

type portOptFunc func(*Port)

func (f portOptFunc) apply(p *Port) { f(p) }

// WithRxBufferSize sets the receive buffer capacity.
func WithRxBufferSize(size int) PortOption {
	return portOptFunc(func(p *Port) { p.rx = ringbuf.New(size) })
}

// WithSuspend makes the port implement tool change input suspension.
func WithSuspend() PortOption {
	return portOptFunc(func(p *Port) { p.suspendable = true })
}

// NewPort creates a port of the given kind writing output to w.
func NewPort(kind Kind, w io.Writer, opts ...PortOption) *Port {
	if w == nil {
		w = io.Discard
	}

	p := &Port{kind: kind, w: w}
	for _, opt := range opts {
		opt.apply(p)
	}
	if p.rx == nil {
		p.rx = ringbuf.New(ringbuf.DefaultSize)
	}

	return p
}

// Kind implements Transport.
func (p *Port) Kind() Kind { return p.kind }

// Receive is the reception entry point. The realtime handler sees c first; unconsumed bytes are
// buffered. It reports false when the byte was dropped because the buffer is full.
func (p *Port) Receive(c byte) bool {
	if c == CmdToolAck && p.suspended.Load() {
		p.suspended.Store(false)
	}

	if h := p.handler.Load(); h != nil && (*h)(c) {
		return true
	}

	return p.rx.Put(c)
}

// Run feeds every byte read from r into Receive until r is exhausted or ctx is done.
func (p *Port) Run(ctx context.Context, r io.Reader) error {
	buf := make([]byte, 256)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := r.Read(buf)
		for _, c := range buf[:n] {
			p.Receive(c)
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}

			return err
		}
	}
}

// ReadChar implements Reader.
func (p *Port) ReadChar() int {
	if p.suspended.Load() {
		return NoData
	}

	c, ok := p.rx.Get()
	if !ok {
		return NoData
	}

	return int(c)
}

// Write implements io.Writer.
func (p *Port) Write(b []byte) (int, error) {
	p.wmu.Lock()
	defer p.wmu.Unlock()

	return p.w.Write(b)
}

// WriteString implements io.StringWriter.
func (p *Port) WriteString(s string) (int, error) {
	return p.Write([]byte(s))
}

// WriteByte implements io.ByteWriter.
func (p *Port) WriteByte(c byte) error {
	_, err := p.Write([]byte{c})
	return err
}

// SetRealtimeHandler implements Transport.
func (p *Port) SetRealtimeHandler(h RealtimeHandler) RealtimeHandler {
	var prev *RealtimeHandler
	if h == nil {
		prev = p.handler.Swap(nil)
	} else {
		prev = p.handler.Swap(&h)
	}
	if prev == nil {
		return nil
	}

	return *prev
}

// ResetReadBuffer implements Transport.
func (p *Port) ResetReadBuffer() {
	p.rx.Flush()
}

// CancelReadBuffer implements Transport.
func (p *Port) CancelReadBuffer() {
	p.rx.Flush()
	p.rx.Put(ASCIICAN)
}

// Overflowed reports whether input was dropped since the last call.
func (p *Port) Overflowed() bool {
	return p.rx.Overflowed()
}

// SetWebUIConnected records whether a WebUI client is attached to this port.
func (p *Port) SetWebUIConnected(connected bool) {
	p.webUI.Store(connected)
}

// WebUIConnected implements WebUISession.
func (p *Port) WebUIConnected() bool {
	return p.webUI.Load()
}

// Suspendable reports whether the port was created WithSuspend.
func (p *Port) Suspendable() bool {
	return p.suspendable
}

// SuspendRead holds back buffered input while suspended. A tool change acknowledge byte
// releases it. It reports false when the port does not support suspension.
func (p *Port) SuspendRead(suspend bool) bool {
	if !p.suspendable {
		return false
	}
	p.suspended.Store(suspend)

	return true
}
