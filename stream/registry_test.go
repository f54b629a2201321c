package stream

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-fsstream/logger"
)

type stringReader struct {
	data string
	pos  int
}

func (s *stringReader) ReadChar() int {
	if s.pos >= len(s.data) {
		return NoData
	}
	c := s.data[s.pos]
	s.pos++

	return int(c)
}

func newTestRegistry(t *testing.T) (*Registry, *Port, *[]byte) {
	t.Helper()

	port := NewPort(KindSerial, nil, WithSuspend())
	reg := NewRegistry(port, WithRegistryLogger(logger.Discard()))

	var realtime []byte
	reg.SetRealtimePath(func(c byte) bool {
		if c == CmdStatusReport || c == CmdFeedHold || c == CmdCycleStart {
			realtime = append(realtime, c)
			return true
		}
		return false
	})

	return reg, port, &realtime
}

func TestRegistry_RedirectRestore(t *testing.T) {
	require := require.New(t)
	reg, port, realtime := newTestRegistry(t)

	var kinds []Kind
	reg.OnChanged().Observe(func(k Kind) { kinds = append(kinds, k) })

	require.Equal(KindSerial, reg.Kind())
	require.Same(port, reg.Reader())
	require.True(reg.CanSuspend())

	port.Receive('G')
	port.Receive('?')
	require.Equal([]byte{'?'}, *realtime)

	file := &stringReader{data: "M2\n"}
	reg.Redirect(Endpoint{Kind: KindFile, Reader: file})
	require.True(reg.Redirected())
	require.Equal(KindFile, reg.Kind())
	require.Equal(KindSerial, reg.Saved().Kind)
	require.False(reg.CanSuspend())

	// transport input is dropped except realtime commands
	port.Receive('X')
	port.Receive('!')
	require.Equal([]byte{'?', '!'}, *realtime)
	require.Equal(int('M'), reg.ReadChar())

	// a second redirect keeps the original saved endpoint
	reg.Redirect(Endpoint{Kind: KindFile, Reader: &stringReader{}})
	require.Equal(KindSerial, reg.Saved().Kind)

	require.True(reg.Restore(true))
	require.False(reg.Restore(true))
	require.False(reg.Redirected())
	require.Same(port, reg.Reader())
	require.Equal(NoData, reg.ReadChar(), "flush discards the buffered G")

	port.Receive('Y')
	require.Equal(int('Y'), reg.ReadChar())

	require.Equal([]Kind{KindFile, KindFile, KindSerial}, kinds)
}

func TestRegistry_RestoreWithoutFlush(t *testing.T) {
	require := require.New(t)
	reg, port, _ := newTestRegistry(t)

	port.Receive('A')
	reg.Redirect(Endpoint{Kind: KindFile})
	require.Equal(NoData, reg.ReadChar())
	reg.Restore(false)
	require.Equal(int('A'), reg.ReadChar())
}

func TestRegistry_SetReader(t *testing.T) {
	require := require.New(t)
	reg, port, _ := newTestRegistry(t)

	macro := &stringReader{data: "G4"}
	prev := reg.SetReader(macro)
	require.Same(port, prev)
	require.Same(macro, reg.Reader())
	require.Equal(int('G'), reg.ReadChar())

	require.Same(macro, reg.SetReader(nil))
	require.Equal(NoData, reg.ReadChar())
}

func TestRegistry_Connect(t *testing.T) {
	require := require.New(t)
	reg, port, realtime := newTestRegistry(t)

	var kinds []Kind
	reg.OnChanged().Observe(func(k Kind) { kinds = append(kinds, k) })

	telnet := NewPort(KindTelnet, nil)
	reg.Connect(telnet)
	require.Same(telnet, reg.Transport())
	require.Equal(KindTelnet, reg.Kind())

	// the old transport no longer reaches the realtime path
	port.Receive('?')
	require.Empty(*realtime)
	telnet.Receive('?')
	require.Equal([]byte{'?'}, *realtime)

	reg.Redirect(Endpoint{Kind: KindFile})
	ws := NewPort(KindWebSocket, nil)
	reg.Connect(ws)
	require.Equal(KindFile, reg.Kind())
	require.Equal(KindWebSocket, reg.Saved().Kind)

	ws.Receive('G')
	ws.Receive('~')
	require.Equal([]byte{'?', '~'}, *realtime)

	reg.Restore(false)
	require.Same(ws, reg.Reader())
	ws.Receive('G')
	require.Equal(int('G'), reg.ReadChar())

	reg.Connect(nil)
	require.Equal(KindNull, reg.Kind())
	require.Equal([]Kind{KindTelnet, KindFile, KindWebSocket, KindWebSocket, KindNull}, kinds)
}

func TestRegistry_FileAndWrite(t *testing.T) {
	require := require.New(t)

	var out strings.Builder
	port := NewPort(KindSerial, &out)
	reg := NewRegistry(port, WithRegistryLogger(logger.Discard()))

	f := nopFile{strings.NewReader("x")}
	reg.AttachFile(f)
	require.Equal(f, reg.File())
	require.False(reg.DetachFile(nopFile{strings.NewReader("y")}))
	require.True(reg.DetachFile(f))
	require.Nil(reg.File())

	_, err := reg.WriteString("ok")
	require.NoError(err)
	require.NoError(reg.WriteByte('\n'))
	require.Equal("ok\n", out.String())

	require.False(reg.Forward('?'))
	require.True(reg.Drop('?'))
	require.False(reg.WebUIConnected())
}

type nopFile struct {
	*strings.Reader
}

func (nopFile) Close() error { return nil }
