package macro

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-fsstream/machine"
)

func TestBindings_ToolChangeScript(t *testing.T) {
	require := require.New(t)

	r := newRig(t, map[string]string{"/tc.macro": "G0 X5\n"})

	r.send("T3 M6\n")
	r.poll(3)
	require.Equal("ok\r\n", r.output())
	require.Equal([]string{"T3 M6", "G0 X5"}, r.lines)
	require.Equal(3, r.m.Tool())
	require.False(r.m.State().Is(machine.StateToolChange))
	require.Zero(r.stack.Depth())
}

func TestBindings_ToolChangeSameTool(t *testing.T) {
	require := require.New(t)

	r := newRig(t, map[string]string{"/tc.macro": "G0 X5\n"})

	r.send("T0 M6\n")
	r.poll(2)
	require.Equal("ok\r\n", r.output())
	require.Equal([]string{"T0 M6"}, r.lines)
}

func TestBindings_ToolChangeForceToolZero(t *testing.T) {
	require := require.New(t)

	r := newRig(t, map[string]string{"/tc.macro": "G0 X5\n"}, WithForceToolZero(true))

	r.send("T0 M6\n")
	r.poll(3)
	require.Equal("ok\r\n", r.output())
	require.Equal([]string{"T0 M6", "G0 X5"}, r.lines)
}

func TestBindings_ToolChangeWithoutScript(t *testing.T) {
	require := require.New(t)

	r := newRig(t, nil)

	r.send("T2 M6\n")
	r.poll(1)
	require.Equal("[MSG:Tool change pending]\r\nok\r\n", r.output())
	require.True(r.m.State().Is(machine.StateToolChange))
}

func TestBindings_ToolChangeDisabled(t *testing.T) {
	r := newRig(t, map[string]string{"/tc.macro": "G0 X5\n"}, WithToolChangeScript(""))

	r.send("T2 M6\n")
	r.poll(1)
	require.True(t, r.m.State().Is(machine.StateToolChange))
	require.Zero(t, r.stack.Depth())
}

func TestBindings_ToolSelectScript(t *testing.T) {
	require := require.New(t)

	r := newRig(t, map[string]string{"/ts.macro": "G0 X7\n"})

	r.send("T4\n")
	r.poll(3)
	require.Equal("ok\r\n", r.output())
	require.Equal([]string{"T4", "G0 X7"}, r.lines)
	require.Equal(4, r.m.NextTool())
}

func TestBindings_PalletShuttleScript(t *testing.T) {
	require := require.New(t)

	r := newRig(t, map[string]string{"/ps.macro": "G0 X8\n"})

	r.send("M60\n")
	r.poll(3)
	require.Equal("ok\r\n", r.output())
	require.Equal([]string{"M60", "G0 X8"}, r.lines)
}
