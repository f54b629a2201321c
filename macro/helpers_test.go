package macro

import (
	"bytes"
	"path"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-fsstream/logger"
	"github.com/arloliu/go-fsstream/machine"
	"github.com/arloliu/go-fsstream/stream"
	"github.com/arloliu/go-fsstream/vfs"
)

type rig struct {
	m     *machine.Machine
	reg   *stream.Registry
	port  *stream.Port
	out   *bytes.Buffer
	fs    *vfs.FS
	mem   afero.Fs
	stack *Stack
	// lines passed to the interpreter
	lines []string
}

func newRig(t *testing.T, files map[string]string, opts ...Option) *rig {
	t.Helper()

	r := &rig{out: &bytes.Buffer{}, mem: afero.NewMemMapFs()}
	r.port = stream.NewPort(stream.KindSerial, r.out, stream.WithSuspend())
	r.reg = stream.NewRegistry(r.port, stream.WithRegistryLogger(logger.Discard()))

	basic := &machine.BasicInterpreter{}
	interp := machine.InterpreterFunc(func(m *machine.Machine, line string) machine.Status {
		r.lines = append(r.lines, line)
		return basic.Execute(m, line)
	})

	m, err := machine.New(r.reg,
		machine.WithLogger(logger.Discard()),
		machine.WithBanner(""),
		machine.WithInterpreter(interp),
	)
	require.NoError(t, err)
	r.m = m

	for name, content := range files {
		require.NoError(t, r.mem.MkdirAll(path.Dir(name), 0o755))
		require.NoError(t, afero.WriteFile(r.mem, name, []byte(content), 0o644))
	}

	r.fs, err = vfs.New(vfs.WithLogger(logger.Discard()))
	require.NoError(t, err)
	require.NoError(t, r.fs.Mount("/", r.mem, vfs.Mode{Name: "mem"}))

	opts = append([]Option{WithLogger(logger.Discard())}, opts...)
	r.stack, err = New(m, r.fs, opts...)
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
