package fsstream

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
	m      *machine.Machine
	reg    *stream.Registry
	port   *stream.Port
	out    *bytes.Buffer
	fs     *vfs.FS
	mem    afero.Fs
	player *Player
}

type rigConfig struct {
	unmounted bool
	readOnly  bool
	webui     bool
	opts      []Option
}

func newRig(t *testing.T, files map[string]string, cfg rigConfig) *rig {
	t.Helper()

	r := &rig{out: &bytes.Buffer{}, mem: afero.NewMemMapFs()}
	r.port = stream.NewPort(stream.KindSerial, r.out, stream.WithSuspend())
	r.port.SetWebUIConnected(cfg.webui)
	r.reg = stream.NewRegistry(r.port, stream.WithRegistryLogger(logger.Discard()))

	m, err := machine.New(r.reg, machine.WithLogger(logger.Discard()), machine.WithBanner(""))
	require.NoError(t, err)
	r.m = m

	for name, content := range files {
		require.NoError(t, r.mem.MkdirAll(path.Dir(name), 0o755))
		require.NoError(t, afero.WriteFile(r.mem, name, []byte(content), 0o644))
	}

	r.fs, err = vfs.New(vfs.WithLogger(logger.Discard()))
	require.NoError(t, err)
	if !cfg.unmounted {
		require.NoError(t, r.fs.Mount("/", r.mem, vfs.Mode{Name: "mem", ReadOnly: cfg.readOnly}))
	}

	opts := append([]Option{WithLogger(logger.Discard())}, cfg.opts...)
	r.player, err = New(m, r.fs, opts...)
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

// jobHooks returns the number of handlers on the chains a job installs into.
func (r *rig) jobHooks() []int {
	h := r.m.Hooks()

	return []int{
		h.ProgramCompleted.Len(),
		h.CycleStart.Len(),
		h.StreamChanged.Len(),
		h.StatusMessage.Len(),
	}
}

func (r *rig) output() string {
	s := r.out.String()
	r.out.Reset()

	return s
}
