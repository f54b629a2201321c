package machine

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-fsstream/logger"
	"github.com/arloliu/go-fsstream/stream"
)

func newTestMachine(t *testing.T, opts ...Option) (*Machine, *stream.Port, *bytes.Buffer) {
	t.Helper()

	out := &bytes.Buffer{}
	port := stream.NewPort(stream.KindSerial, out, stream.WithSuspend())
	reg := stream.NewRegistry(port, stream.WithRegistryLogger(logger.Discard()))

	opts = append([]Option{WithLogger(logger.Discard()), WithBanner("")}, opts...)
	m, err := New(reg, opts...)
	require.NoError(t, err)

	return m, port, out
}

func send(p *stream.Port, s string) {
	for i := 0; i < len(s); i++ {
		p.Receive(s[i])
	}
}

func pollN(m *Machine, n int) {
	for i := 0; i < n; i++ {
		m.Poll()
	}
}

func takeOutput(out *bytes.Buffer) string {
	s := out.String()
	out.Reset()

	return s
}
