package media

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-fsstream/machine"
	"github.com/arloliu/go-fsstream/vfs"
)

func TestDriver_MountCommands(t *testing.T) {
	require := require.New(t)
	card := NewMemCard()
	require.NoError(afero.WriteFile(card.Fs(), "/job.nc", []byte("G0 X1\n"), 0o644))
	r := newRig(t, card)

	require.Equal("error:65\r\n", r.exec("$FU"))

	require.Equal("ok\r\n", r.exec("$FM"))
	require.True(r.driver.Mounted())
	require.True(r.fs.Mounted("/"))
	_, err := r.fs.Stat("/job.nc")
	require.NoError(err)

	// mounting twice is harmless
	require.Equal("ok\r\n", r.exec("$FM"))

	require.Equal("ok\r\n", r.exec("$FU"))
	require.False(r.driver.Mounted())
	require.False(r.fs.Mounted("/"))

	// contents survive remounting
	require.Equal("ok\r\n", r.exec("$FM"))
	_, err = r.fs.Stat("/job.nc")
	require.NoError(err)
}

func TestDriver_MountFailed(t *testing.T) {
	r := newRig(t, brokenCard{})

	require.Equal(t, "error:60\r\n", r.exec("$FM"))
	require.False(t, r.driver.Mounted())

	err := r.driver.Mount()
	require.ErrorIs(t, err, ErrMountFailed)
	require.ErrorIs(t, err, errNoCard)
}

func TestDriver_Report(t *testing.T) {
	require := require.New(t)
	r := newRig(t, NewMemCard())

	r.send("?")
	r.poll(1)
	require.NotContains(r.output(), "|SD:")

	require.NoError(r.driver.Mount())
	r.send("?")
	r.poll(1)
	require.Contains(r.output(), "|SD:1")

	// reported once per change
	r.send("?")
	r.poll(1)
	require.NotContains(r.output(), "|SD:")

	r.send("\x87")
	r.poll(1)
	require.Contains(r.output(), "|SD:1")

	require.NoError(r.driver.Unmount())
	r.send("?")
	r.poll(1)
	require.Contains(r.output(), "|SD:0")
}

func TestDriver_Detect(t *testing.T) {
	require := require.New(t)
	r := newRig(t, NewMemCard(), WithDetectable(true))

	r.driver.Detect(true)
	require.False(r.driver.Mounted(), "mounting happens in the main loop")
	r.poll(1)
	require.True(r.driver.Mounted())

	r.send("?")
	r.poll(1)
	require.Contains(r.output(), "|SD:3")

	r.driver.Detect(false)
	r.poll(1)
	require.False(r.driver.Mounted())

	r.send("?")
	r.poll(1)
	require.Contains(r.output(), "|SD:2")
}

func TestDriver_AutoMount(t *testing.T) {
	r := newRig(t, NewMemCard(), WithAutoMount(true))
	r.poll(1)
	require.True(t, r.driver.Mounted())
	require.Empty(t, r.output())

	r = newRig(t, brokenCard{}, WithAutoMount(true))
	r.poll(1)
	require.False(t, r.driver.Mounted())
	require.Equal(t, "[MSG:Info: SD card automount failed]\r\n", r.output())
}

func TestDriver_Format(t *testing.T) {
	require := require.New(t)
	card := NewMemCard()
	require.NoError(card.Fs().MkdirAll("/jobs", 0o755))
	require.NoError(afero.WriteFile(card.Fs(), "/jobs/a.nc", []byte("G0\n"), 0o644))
	require.NoError(afero.WriteFile(card.Fs(), "/b.nc", []byte("G0\n"), 0o644))
	r := newRig(t, card)

	require.Equal("error:65\r\n", r.exec("$FF"))

	require.NoError(r.driver.Mount())
	require.Equal("ok\r\n", r.exec("$FF"))

	entries, err := r.fs.ReadDir("/")
	require.NoError(err)
	require.Empty(entries)

	require.Equal(machine.StatusSystemGClock, r.driver.cmdFormat(machine.StateCycle, ""))
}

func TestDriver_FormatReadOnly(t *testing.T) {
	r := newRig(t, NewMemCard(), WithReadOnly(true))
	require.NoError(t, r.driver.Mount())

	require.Equal(t, "error:66\r\n", r.exec("$FF"))
}

func TestDriver_MountPath(t *testing.T) {
	r := newRig(t, NewMemCard(), WithMountPath("/sd"), WithName("fatfs"))
	require.NoError(t, r.driver.Mount())

	mode, ok := r.fs.ModeOf("/sd/x.nc")
	require.True(t, ok)
	require.Equal(t, "fatfs", mode.Name)
	require.Equal(t, "/sd", r.driver.MountPath())
}

func TestDirCard(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	require.NoError(os.WriteFile(filepath.Join(dir, "part.nc"), []byte("G0 X1\n"), 0o644))

	r := newRig(t, NewDirCard(dir))
	require.Equal("ok\r\n", r.exec("$FM"))

	f, err := r.fs.Open("/part.nc")
	require.NoError(err)
	defer f.Close()
	data, err := afero.ReadAll(f)
	require.NoError(err)
	require.Equal("G0 X1\n", string(data))

	missing := NewDirCard(filepath.Join(dir, "missing"))
	_, err = missing.Mount()
	require.Error(err)
}

func TestDriver_BuildInfo(t *testing.T) {
	r := newRig(t, NewMemCard())

	out := r.exec("$I")
	assert.Contains(t, out, "SD")
	assert.Contains(t, out, "[PLUGIN:"+PluginName+"]")
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want machine.Status
	}{
		{nil, machine.StatusOK},
		{ErrNotMounted, machine.StatusFsNotMounted},
		{vfs.ErrNotMounted, machine.StatusFsNotMounted},
		{ErrBusy, machine.StatusSystemGClock},
		{fmt.Errorf("wrap: %w", vfs.ErrReadOnly), machine.StatusFsReadOnly},
		{ErrFormatFailed, machine.StatusFsFormatError},
		{ErrMountFailed, machine.StatusFsMountError},
		{errors.New("other"), machine.StatusFsMountError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusOf(tt.err), "%v", tt.err)
	}
}

func TestNew_Errors(t *testing.T) {
	_, err := New(nil, nil, nil)
	require.Error(t, err)

	_, err = New(nil, nil, NewMemCard(), WithMountPath("sd"))
	require.Error(t, err)

	_, err = New(nil, nil, NewMemCard(), WithName(""))
	require.Error(t, err)
}
