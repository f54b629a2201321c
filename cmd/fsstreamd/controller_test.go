package main

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-fsstream/config"
	"github.com/arloliu/go-fsstream/logger"
	"github.com/arloliu/go-fsstream/stream"
)

func TestController_Default(t *testing.T) {
	require := require.New(t)

	out := &bytes.Buffer{}
	port := stream.NewPort(stream.KindSerial, out)
	ctl, err := newController(config.Default(), port, logger.Discard())
	require.NoError(err)
	require.NotNil(ctl.media)

	ctl.m.Poll()
	require.True(ctl.media.Mounted())
	require.True(ctl.fs.Mounted("/"))

	for _, c := range []byte("$I\n") {
		port.Receive(c)
	}
	ctl.m.Poll()
	s := out.String()
	require.Contains(s, "[PLUGIN:FS stream v1.00]")
	require.Contains(s, "[PLUGIN:FS macro plugin v0.02]")
	require.Contains(s, "[PLUGIN:SDCARD v1.24]")
	require.Contains(s, "YM")
}

func TestController_Mounts(t *testing.T) {
	cfg, err := config.Parse([]byte("storage:\n  mounts:\n    - path: /littlefs\n      memory: true\n"))
	require.NoError(t, err)

	ctl, err := newController(cfg, stream.NewPort(stream.KindSerial, io.Discard), logger.Discard())
	require.NoError(t, err)
	require.True(t, ctl.fs.Mounted("/littlefs"))
	require.Nil(t, ctl.media)
}

func TestInterruptReader(t *testing.T) {
	cancelled := false
	r := &interruptReader{r: strings.NewReader("G0\x03X1"), cancel: func() { cancelled = true }}

	buf := make([]byte, 16)
	n, err := r.Read(buf)
	require.ErrorIs(t, err, io.EOF)
	require.Equal(t, "G0", string(buf[:n]))
	require.True(t, cancelled)
}
