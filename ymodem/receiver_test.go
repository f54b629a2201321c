package ymodem

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-fsstream/machine"
)

func TestReceiver_Transfer(t *testing.T) {
	require := require.New(t)
	r := newRig(t, false)

	content := []byte("G0 X1\nG1 Y2\n")
	r.start(t, "test.nc", len(content))

	r.send(dataPacket(1, content))
	r.poll(1)
	require.Equal("\x06", r.output())

	r.send([]byte{EOT})
	r.poll(1)
	require.Equal("\x06C", r.output())
	require.False(r.rx.Active())

	// end of batch
	r.send(headerPacket("", 0))
	r.poll(2)
	require.Equal("\x06", r.output())

	require.Len(r.results, 2)
	require.Equal(Result{Name: "test.nc", Size: 12, Received: 12}, r.results[0])
	require.Equal(Result{}, r.results[1])

	got, err := afero.ReadFile(r.mem, "/test.nc")
	require.NoError(err)
	require.Equal(content, got)

	metrics := r.rx.Metrics()
	require.Equal(uint64(2), metrics.TransfersStarted.Load())
	require.Equal(uint64(1), metrics.TransfersCompleted.Load())
	require.Equal(uint64(0), metrics.TransfersFailed.Load())
	require.Equal(uint64(3), metrics.PacketsReceived.Load())
	require.Equal(uint64(12), metrics.BytesWritten.Load())

	// the transport input reaches the controller again
	r.send([]byte("?"))
	r.poll(1)
	require.Contains(r.output(), "<Idle")
}

func TestReceiver_LargePackets(t *testing.T) {
	require := require.New(t)
	r := newRig(t, false)

	content := bytes.Repeat([]byte("G1 X10 Y20\n"), 150)
	r.start(t, "big.nc", len(content))

	r.send(dataPacket(1, content[:packetSize1K]))
	r.poll(1)
	r.send(dataPacket(2, content[packetSize1K:]))
	r.poll(1)
	r.send([]byte{EOT})
	r.poll(1)
	require.Equal("\x06\x06\x06C", r.output())

	got, err := afero.ReadFile(r.mem, "/big.nc")
	require.NoError(err)
	require.Equal(content, got)
}

func TestReceiver_UnknownSize(t *testing.T) {
	require := require.New(t)
	r := newRig(t, false)

	r.start(t, "nosize.nc", 0)
	r.send(dataPacket(1, []byte("G0 X1\n")))
	r.poll(1)
	r.send([]byte{EOT})
	r.poll(1)
	require.Equal("\x06\x06C", r.output())

	got, err := afero.ReadFile(r.mem, "/nosize.nc")
	require.NoError(err)
	require.Len(got, packetSize)
	require.Equal([]byte("G0 X1\n"), got[:6])
	require.Equal(byte(0x1A), got[packetSize-1])
}

func TestReceiver_RepeatedPacket(t *testing.T) {
	require := require.New(t)
	r := newRig(t, false)

	content := bytes.Repeat([]byte("G1 X1\n"), 30)
	r.start(t, "rep.nc", len(content))

	// the header is acknowledged again without reopening the file
	r.send(headerPacket("rep.nc", len(content)))
	r.poll(1)
	require.Equal("\x06", r.output())

	first := dataPacket(1, content[:packetSize])
	r.send(first)
	r.poll(1)
	r.send(first)
	r.poll(1)
	r.send(dataPacket(2, content[packetSize:]))
	r.poll(1)
	require.Equal("\x06\x06\x06", r.output())

	r.send([]byte{EOT})
	r.poll(1)
	require.Len(r.results, 1)
	require.NoError(r.results[0].Err)
	require.Equal(int64(len(content)), r.results[0].Received)
	require.Equal(uint64(2), r.rx.Metrics().PacketsRepeated.Load())

	got, err := afero.ReadFile(r.mem, "/rep.nc")
	require.NoError(err)
	require.Equal(content, got)
}

func TestReceiver_CorruptedPacket(t *testing.T) {
	require := require.New(t)
	r := newRig(t, false)

	bad := headerPacket("crc.nc", 6)
	bad[len(bad)-1] ^= 0xFF
	r.send(bad)
	r.poll(2)
	require.Empty(r.output())
	require.Equal(uint64(1), r.rx.Metrics().Purges.Load())

	// input is ignored until the timeout asks for a retransmission
	r.send([]byte{SOH, 0})
	r.poll(1)
	require.Empty(r.output())

	r.clock.advance(DefaultTimeout)
	r.poll(1)
	require.Equal("\x15", r.output())
	require.Equal(uint64(1), r.rx.Metrics().Timeouts.Load())

	r.send(headerPacket("crc.nc", 6))
	r.poll(1)
	require.Equal("\x06C", r.output())

	r.send(dataPacket(1, []byte("G0 X1\n")))
	r.poll(1)
	r.send([]byte{EOT})
	r.poll(1)
	require.Equal("\x06\x06C", r.output())
	require.Len(r.results, 1)
	require.NoError(r.results[0].Err)
}

func TestReceiver_WrongSequence(t *testing.T) {
	require := require.New(t)
	r := newRig(t, false)

	r.start(t, "seq.nc", 6)
	r.send(dataPacket(3, []byte("G0 X1\n")))
	r.poll(1)
	require.Empty(r.output())
	require.Equal(uint64(1), r.rx.Metrics().Purges.Load())
	require.True(r.rx.Active())
}

func TestReceiver_TooManyErrors(t *testing.T) {
	require := require.New(t)
	r := newRig(t, false, WithMaxErrors(2), WithTimeout(500*time.Millisecond))

	r.send([]byte{SOH})
	r.poll(2)
	require.True(r.rx.Active())

	for i := 0; i < 3; i++ {
		r.clock.advance(500 * time.Millisecond)
		r.poll(1)
	}

	require.Equal("\x15\x15", r.output())
	require.False(r.rx.Active())
	require.Len(r.results, 1)
	require.ErrorIs(r.results[0].Err, ErrTooManyErrors)

	metrics := r.rx.Metrics()
	require.Equal(uint64(3), metrics.Timeouts.Load())
	require.Equal(uint64(1), metrics.TransfersFailed.Load())
}

func TestReceiver_SenderCancel(t *testing.T) {
	require := require.New(t)
	r := newRig(t, false)

	r.start(t, "cancel.nc", 100)
	r.send([]byte{CAN, CAN})
	r.poll(1)

	require.Empty(r.output())
	require.False(r.rx.Active())
	require.Len(r.results, 1)
	require.ErrorIs(r.results[0].Err, ErrCancelled)
	require.Zero(r.resets, "cancel bytes must not reach the reset command")
}

func TestReceiver_StaleBytesDiscarded(t *testing.T) {
	require := require.New(t)
	r := newRig(t, false)

	r.start(t, "cancel.nc", 100)
	// bytes behind the cancel stay in the receive buffer when the transfer ends
	r.send([]byte{CAN, CAN, 'x', 'y', 'z'})
	r.poll(1)
	require.False(r.rx.Active())

	content := []byte("G0 X1\n")
	r.start(t, "next.nc", len(content))
	r.send(dataPacket(1, content))
	r.poll(1)
	require.Equal("\x06", r.output())

	r.send([]byte{EOT})
	r.poll(1)
	require.Equal("\x06C", r.output())

	require.Len(r.results, 2)
	require.Equal(Result{Name: "next.nc", Size: 6, Received: 6}, r.results[1])

	got, err := afero.ReadFile(r.mem, "/next.nc")
	require.NoError(err)
	require.Equal(content, got)
}

func TestReceiver_CreateFailed(t *testing.T) {
	require := require.New(t)
	r := newRig(t, true)

	r.send(headerPacket("ro.nc", 10))
	r.poll(2)

	require.Equal("\x18\x18", r.output())
	require.False(r.rx.Active())
	require.Len(r.results, 1)
	require.ErrorIs(r.results[0].Err, ErrCreateFailed)
	require.Equal("ro.nc", r.results[0].Name)
}

func TestReceiver_Reset(t *testing.T) {
	require := require.New(t)
	r := newRig(t, false)

	r.start(t, "reset.nc", 1000)
	r.m.SetExecFlag(machine.ExecReset)
	r.poll(1)

	require.Equal("\x18\x18", r.output())
	require.False(r.rx.Active())
	require.Equal(1, r.resets)
	require.Len(r.results, 1)
	require.ErrorIs(r.results[0].Err, ErrReset)

	// a new transfer can start afterwards
	r.start(t, "again.nc", 1)
}

func TestReceiver_ResetBeforeStart(t *testing.T) {
	require := require.New(t)
	r := newRig(t, false)

	r.send([]byte{SOH})
	r.m.SetExecFlag(machine.ExecReset)
	r.poll(2)

	require.False(r.rx.Active())
	require.Empty(r.results)
	require.Zero(r.rx.Metrics().TransfersStarted.Load())
}

func TestReceiver_BuildInfo(t *testing.T) {
	r := newRig(t, false)

	r.send([]byte("$I\n"))
	r.poll(1)
	assert.Contains(t, r.output(), "YM")
}

func TestReceiver_Options(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"timeout too short", WithTimeout(time.Millisecond)},
		{"timeout too long", WithTimeout(time.Minute)},
		{"no errors allowed", WithMaxErrors(0)},
		{"too many errors allowed", WithMaxErrors(100)},
		{"buffer too small", WithBufferSize(128)},
		{"buffer too large", WithBufferSize(1 << 20)},
		{"nil clock", WithClock(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(nil, nil, tt.opt)
			require.Error(t, err)
		})
	}
}

func TestReceiver_CorruptedDataPacket(t *testing.T) {
	require := require.New(t)
	r := newRig(t, false)

	content := bytes.Repeat([]byte("G1 X2\n"), 40)
	r.start(t, "resend.nc", len(content))

	r.send(dataPacket(1, content[:packetSize]))
	r.poll(1)
	require.Equal("\x06", r.output())

	bad := dataPacket(2, content[packetSize:])
	bad[10] ^= 0x55
	r.send(bad)
	r.poll(1)
	require.Empty(r.output())

	r.clock.advance(DefaultTimeout)
	r.poll(1)
	require.Equal("\x15", r.output())

	r.send(dataPacket(2, content[packetSize:]))
	r.poll(1)
	r.send([]byte{EOT})
	r.poll(1)
	require.Equal("\x06\x06C", r.output())

	got, err := afero.ReadFile(r.mem, "/resend.nc")
	require.NoError(err)
	require.Equal(content, got)
	require.Equal(uint64(len(content)), r.rx.Metrics().BytesWritten.Load())
}
