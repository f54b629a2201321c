package media

import (
	"bytes"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-fsstream/logger"
	"github.com/arloliu/go-fsstream/machine"
	"github.com/arloliu/go-fsstream/stream"
	"github.com/arloliu/go-fsstream/vfs"
)

var errNoCard = errors.New("no card")

// brokenCard never mounts.
type brokenCard struct{}

func (brokenCard) Mount() (afero.Fs, error) { return nil, errNoCard }

func (brokenCard) Unmount() error { return nil }

type rig struct {
	m      *machine.Machine
	port   *stream.Port
	out    *bytes.Buffer
	fs     *vfs.FS
	driver *Driver
}

func newRig(t *testing.T, card Card, opts ...Option) *rig {
	t.Helper()

	r := &rig{out: &bytes.Buffer{}}
	r.port = stream.NewPort(stream.KindSerial, r.out)
	reg := stream.NewRegistry(r.port, stream.WithRegistryLogger(logger.Discard()))

	m, err := machine.New(reg, machine.WithLogger(logger.Discard()), machine.WithBanner(""))
	require.NoError(t, err)
	r.m = m

	r.fs, err = vfs.New(vfs.WithLogger(logger.Discard()))
	require.NoError(t, err)

	opts = append([]Option{WithLogger(logger.Discard())}, opts...)
	r.driver, err = New(m, r.fs, card, opts...)
	require.NoError(t, err)

	return r
}

func (r *rig) send(s string) {
	for i := 0; i < len(s); i++ {
		r.port.Receive(s[i])
	}
}

func (r *rig) poll(n int) {
	for i := 0; i < n; i++ {
		r.m.Poll()
	}
}

func (r *rig) output() string {
	s := r.out.String()
	r.out.Reset()

	return s
}

// exec runs a command line and returns what it wrote.
func (r *rig) exec(line string) string {
	r.send(line + "\n")
	r.poll(1)

	return r.output()
}
