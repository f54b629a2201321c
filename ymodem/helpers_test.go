package ymodem

import (
	"bytes"
	"strconv"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-fsstream/logger"
	"github.com/arloliu/go-fsstream/machine"
	"github.com/arloliu/go-fsstream/stream"
	"github.com/arloliu/go-fsstream/vfs"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

type rig struct {
	m       *machine.Machine
	port    *stream.Port
	out     *bytes.Buffer
	mem     afero.Fs
	clock   *fakeClock
	rx      *Receiver
	results []Result
	resets  int
}

func newRig(t *testing.T, readOnly bool, opts ...Option) *rig {
	t.Helper()

	r := &rig{
		out:   &bytes.Buffer{},
		mem:   afero.NewMemMapFs(),
		clock: &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	r.port = stream.NewPort(stream.KindSerial, r.out)
	reg := stream.NewRegistry(r.port, stream.WithRegistryLogger(logger.Discard()))

	m, err := machine.New(reg, machine.WithLogger(logger.Discard()), machine.WithBanner(""))
	require.NoError(t, err)
	r.m = m
	m.Hooks().Reset.Observe(func(machine.State) { r.resets++ })

	fsys, err := vfs.New(vfs.WithLogger(logger.Discard()))
	require.NoError(t, err)
	require.NoError(t, fsys.Mount("/", r.mem, vfs.Mode{Name: "mem", ReadOnly: readOnly}))

	opts = append([]Option{
		WithLogger(logger.Discard()),
		WithClock(r.clock.Now),
		WithOnComplete(func(res Result) { r.results = append(r.results, res) }),
	}, opts...)
	r.rx, err = New(m, fsys, opts...)
	require.NoError(t, err)

	return r
}

func (r *rig) send(b []byte) {
	for _, c := range b {
		r.port.Receive(c)
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

// start sends the header packet and runs the main loop until it is acknowledged.
func (r *rig) start(t *testing.T, name string, size int) {
	t.Helper()

	r.send(headerPacket(name, size))
	r.poll(2)
	require.Equal(t, "\x06C", r.output())
	require.True(t, r.rx.Active())
}

// packet frames data as a packet with sequence number seq, padding the payload with pad.
func packet(seq byte, data []byte, pad byte) []byte {
	size := packetSize
	lead := SOH
	if len(data) > packetSize {
		size = packetSize1K
		lead = STX
	}

	payload := bytes.Repeat([]byte{pad}, size)
	copy(payload, data)
	crc := checksum(payload)

	b := make([]byte, 0, size+5)
	b = append(b, lead, seq, ^seq)
	b = append(b, payload...)

	return append(b, byte(crc>>8), byte(crc))
}

func headerPacket(name string, size int) []byte {
	if name == "" {
		return packet(0, nil, 0)
	}

	return packet(0, []byte(name+"\x00"+strconv.Itoa(size)+" 0 0"), 0)
}

func dataPacket(seq byte, data []byte) []byte {
	return packet(seq, data, 0x1A)
}
