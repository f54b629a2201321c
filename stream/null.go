package stream

import "sync/atomic"

// NullTransport is a transport without a connection. Output is discarded and no input arrives.
type NullTransport struct {
	handler atomic.Pointer[RealtimeHandler]
}

var _ Transport = (*NullTransport)(nil)

// NewNullTransport creates a null transport.
func NewNullTransport() *NullTransport { return &NullTransport{} }

func (*NullTransport) Kind() Kind { return KindNull }
func (*NullTransport) ReadChar() int { return NoData }
func (*NullTransport) Write(p []byte) (int, error) { return len(p), nil }
func (*NullTransport) WriteString(s string) (int, error) { return len(s), nil }
func (*NullTransport) WriteByte(byte) error { return nil }
func (*NullTransport) ResetReadBuffer() {}
func (*NullTransport) CancelReadBuffer() {}

func (n *NullTransport) SetRealtimeHandler(h RealtimeHandler) RealtimeHandler {
	var prev *RealtimeHandler
	if h == nil {
		prev = n.handler.Swap(nil)
	} else {
		prev = n.handler.Swap(&h)
	}
	if prev == nil {
		return nil
	}

	return *prev
}
