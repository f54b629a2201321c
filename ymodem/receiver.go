// Package ymodem receives files over the input transport with the YMODEM protocol.
//
// A transfer starts when a packet header byte (SOH or STX) reaches the realtime command path
// of an idle controller. From then on every transport byte is buffered for the receiver, which
// runs its state machine from the main loop until the transfer ends. The receiver never sends
// the initial 'C'; the sender is expected to start on its own.
package ymodem

import (
	"sync/atomic"
	"time"

	"github.com/arloliu/go-fsstream/hook"
	"github.com/arloliu/go-fsstream/internal/ringbuf"
	"github.com/arloliu/go-fsstream/logger"
	"github.com/arloliu/go-fsstream/machine"
	"github.com/arloliu/go-fsstream/stream"
	"github.com/arloliu/go-fsstream/vfs"
)

// Protocol bytes.
const (
	SOH byte = stream.ASCIISOH
	STX byte = stream.ASCIISTX
	EOT byte = stream.ASCIIEOT
	ACK byte = stream.ASCIIACK
	NAK byte = stream.ASCIINAK
	CAN byte = stream.ASCIICAN
	CRC byte = 'C'
)

const (
	packetSize    = 128
	packetSize1K  = 1024
	receiverIdle  = 0
	receiverStart = 1
	receiverBusy  = 2
)

// Result describes a finished transfer.
type Result struct {
	// Name is the file name from the header packet, empty for an empty batch.
	Name string
	// Size is the declared file length, 0 when unknown.
	Size int64
	// Received is the number of bytes written to the file.
	Received int64
	Duration time.Duration
	// Err is nil when the file was received completely or the batch was empty.
	Err error
}

type action uint8

const (
	actionNone action = iota
	actionACK
	actionACKFile
	actionNoFile
	actionCAN
	actionPurge
)

// Receiver is the upload receiver of a machine.
type Receiver struct {
	m   *machine.Machine
	reg *stream.Registry
	fs  *vfs.FS
	cfg *config

	metrics Metrics

	// set on the reception path, read by the main loop
	state atomic.Uint32
	rx    *ringbuf.Ring
	prev  stream.RealtimeHandler

	loop *hook.Entry[machine.State, struct{}]

	process   func(c byte) action
	deadline  time.Time
	started   time.Time
	errors    int
	err       error
	file      vfs.File
	header    Header
	received  int64
	written   int64
	packetNum uint8
	seq       uint8
	accepted  bool
	repeated  bool
	packetLen int
	idx       int
	crc       uint16
	crcLow    bool
	payload   [packetSize1K]byte

	logger logger.Logger
}

// New creates an upload receiver writing files to fsys and installs its event handlers.
func New(m *machine.Machine, fsys *vfs.FS, opts ...Option) (*Receiver, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	r := &Receiver{
		m:      m,
		reg:    m.Registry(),
		fs:     fsys,
		cfg:    cfg,
		rx:     ringbuf.New(cfg.bufferSize),
		logger: cfg.logger,
	}

	hooks := m.Hooks()
	hooks.UnknownRealtime.Install(r.trapHeader)
	hooks.Reset.Install(r.onReset)
	hooks.ReportOptions.Observe(func(rep *machine.OptionsReport) {
		rep.NewOpts = append(rep.NewOpts, "YM")
	})

	return r, nil
}

// Metrics returns the receiver counters.
func (r *Receiver) Metrics() *Metrics { return &r.metrics }

// Active reports whether a transfer is in progress.
func (r *Receiver) Active() bool {
	return r.state.Load() != receiverIdle
}

// Overflows returns the number of bytes lost because the receive buffer was full.
func (r *Receiver) Overflows() uint64 {
	return r.rx.OverflowCount()
}

// trapHeader runs on the reception path. The first SOH or STX seen while idle diverts the
// transport input to the receive buffer.
func (r *Receiver) trapHeader(c byte, next func(byte) bool) bool {
	if (c != SOH && c != STX) || !r.state.CompareAndSwap(receiverIdle, receiverStart) {
		return next(c)
	}

	// the main loop does not read the ring while idle
	r.rx.Flush()
	r.rx.Put(c)
	r.prev = r.reg.SetInterceptor(r.put)
	r.m.AddTask(r.begin)

	return true
}

// put runs on the reception path while a transfer is active.
func (r *Receiver) put(c byte) bool {
	r.rx.Put(c)
	return true
}

func (r *Receiver) begin() {
	if r.state.Load() != receiverStart {
		return
	}

	now := r.cfg.clock()
	r.process = r.awaitHeader
	r.deadline = now.Add(r.cfg.timeout)
	r.started = now
	r.errors = 0
	r.err = nil
	r.header = Header{}
	r.received, r.written = 0, 0
	r.packetNum = 0
	r.accepted = false

	r.loop = r.m.Hooks().ExecuteRealtime.Observe(r.run)
	r.state.Store(receiverBusy)
	r.metrics.incTransfersStarted()
	r.logger.Debug("transfer started")
}

// run is the protocol loop, called on every main loop iteration while a transfer is active.
func (r *Receiver) run(machine.State) {
	now := r.cfg.clock()
	if !now.Before(r.deadline) {
		r.deadline = now.Add(r.cfg.timeout)
		r.errors++
		r.metrics.incTimeouts()
		if r.errors > r.cfg.maxErrors {
			r.end(false, ErrTooManyErrors)
			return
		}
		r.process = r.awaitHeader
		r.write(NAK)
	}

	for r.state.Load() == receiverBusy {
		c, ok := r.rx.Get()
		if !ok {
			return
		}
		r.deadline = now.Add(r.cfg.timeout)

		switch r.process(c) {
		case actionACK:
			r.errors = 0
			r.write(ACK)

		case actionACKFile:
			r.errors = 0
			r.write(ACK, CRC)

		case actionNoFile:
			r.write(ACK)
			r.end(false, nil)

		case actionCAN:
			r.write(CAN, CAN)
			r.end(false, r.err)

		case actionPurge:
			r.errors++
			r.metrics.incPurges()
			r.process = r.purge
			r.rx.Flush()
			if r.errors > r.cfg.maxErrors {
				r.end(false, ErrTooManyErrors)
			}
		}
	}
}

// end restores the transport input and reports the result.
func (r *Receiver) end(ack bool, err error) {
	r.release()
	r.loop.Remove()
	r.loop = nil

	if r.file != nil {
		if cerr := r.file.Close(); cerr != nil && err == nil {
			err = cerr
		}
		r.file = nil
	}

	if ack {
		r.write(ACK, CRC)
	}

	res := Result{
		Name:     r.header.Name,
		Size:     r.header.Size,
		Received: r.written,
		Duration: r.cfg.clock().Sub(r.started),
		Err:      err,
	}
	r.state.Store(receiverIdle)

	if err != nil {
		r.metrics.incTransfersFailed()
		r.logger.Warn("transfer failed", "name", res.Name, "received", res.Received, "error", err)
	} else if res.Name != "" {
		r.metrics.incTransfersCompleted()
		r.logger.Info("file received", "name", res.Name, "size", res.Received, "duration", res.Duration)
	}

	if r.cfg.onComplete != nil {
		r.cfg.onComplete(res)
	}
}

func (r *Receiver) onReset(state machine.State, next func(machine.State)) {
	switch r.state.Load() {
	case receiverBusy:
		r.write(CAN, CAN)
		r.end(false, ErrReset)
	case receiverStart:
		r.release()
		r.state.Store(receiverIdle)
	}

	next(state)
}

// release hands the transport input back to the handler it had before the transfer.
func (r *Receiver) release() {
	prev := r.prev
	if prev == nil {
		prev = r.reg.Forward
	}
	r.reg.SetInterceptor(prev)
	r.prev = nil
}

func (r *Receiver) write(b ...byte) {
	if _, err := r.reg.Write(b); err != nil {
		r.logger.Warn("write failed", "error", err)
	}
}
