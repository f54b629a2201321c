// Package fsstream streams G-code jobs from the mounted file system into the controller input.
//
// A Player redirects the input stream to a file while the physical transport stays attached for
// responses and realtime commands. Per-line statuses are trapped so that only the first error of
// a job reaches the sender, a program end may rewind the job for another run, and a transport
// change while a job is active either continues the job or terminates it safely.
package fsstream

import (
	"bufio"
	"fmt"
	"io"
	"path"
	"sync/atomic"

	"github.com/arloliu/go-fsstream/hook"
	"github.com/arloliu/go-fsstream/logger"
	"github.com/arloliu/go-fsstream/machine"
	"github.com/arloliu/go-fsstream/stream"
	"github.com/arloliu/go-fsstream/vfs"
)

// Phase is the lifecycle phase of a job.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseStreaming
	PhaseSuspended
	PhaseAwaitResume
	PhaseTerminating
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseStreaming:
		return "streaming"
	case PhaseSuspended:
		return "suspended"
	case PhaseAwaitResume:
		return "await-resume"
	case PhaseTerminating:
		return "terminating"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

// Job describes the job being streamed.
type Job struct {
	// Name is the display name, the leaf of Path truncated for status reports.
	Name string
	Path string
	Size int64
	// Pos is the number of bytes consumed.
	Pos int64
	// Line is the number of the last line read, starting at 1.
	Line  uint32
	Phase Phase
}

// Player streams one job at a time from a file system into a machine.
type Player struct {
	m   *machine.Machine
	reg *stream.Registry
	fs  *vfs.FS
	cfg *config

	metrics Metrics

	mounted  bool
	readOnly bool

	file      vfs.File
	rd        *bufio.Reader
	path      string
	name      string
	size      int64
	pos       int64
	line      uint32
	eol       uint8
	lineStart bool

	phase  Phase
	rewind bool
	// job was started from a WebUI session
	webui bool

	reader     *jobReader
	await      *awaitReader
	toolChange *toolChangeReader

	completed  *hook.Entry[machine.ProgramEnd, struct{}]
	cycleStart *hook.Entry[machine.State, struct{}]
	changed    *hook.Entry[stream.Kind, struct{}]
	trap       *hook.Entry[machine.Status, machine.Status]

	terminating atomic.Bool

	logger logger.Logger
}

// New creates a player for m reading jobs from fsys and registers its commands.
func New(m *machine.Machine, fsys *vfs.FS, opts ...Option) (*Player, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	p := &Player{
		m:      m,
		reg:    m.Registry(),
		fs:     fsys,
		cfg:    cfg,
		logger: cfg.logger,
	}
	p.reader = &jobReader{p: p}
	p.await = &awaitReader{p: p}
	p.toolChange = &toolChangeReader{p: p}

	if err := m.RegisterCommands(p.commands()...); err != nil {
		return nil, err
	}

	if mode, ok := fsys.ModeOf("/"); ok && fsys.Mounted("/") {
		p.mounted = true
		p.readOnly = mode.ReadOnly
	}
	fsys.OnMount().Observe(p.onMount)
	fsys.OnUnmount().Observe(p.onUnmount)

	hooks := m.Hooks()
	hooks.RealtimeReport.Observe(p.onRealtimeReport)
	hooks.Reset.Install(p.onReset)
	hooks.ReportOptions.Observe(p.onReportOptions)

	return p, nil
}

// Metrics returns the player counters.
func (p *Player) Metrics() *Metrics { return &p.metrics }

// Phase returns the lifecycle phase of the current job.
func (p *Player) Phase() Phase { return p.phase }

// Busy reports whether a file is the active input stream.
func (p *Player) Busy() bool {
	return p.reg.Kind() == stream.KindFile
}

// Job returns the current job. ok is false when no job is active.
func (p *Player) Job() (Job, bool) {
	if p.phase == PhaseIdle {
		return Job{}, false
	}

	return Job{
		Name:  p.name,
		Path:  p.path,
		Size:  p.size,
		Pos:   p.pos,
		Line:  p.line,
		Phase: p.phase,
	}, true
}

// Start opens name and redirects the machine input to it.
//
// The controller must be idle or in check mode. On success "ok" is reported for the request
// before the redirection is installed, and statuses of lines read from the file are trapped
// until the job ends.
func (p *Player) Start(name string) error {
	if !p.mounted {
		return ErrNotMounted
	}
	if !startable(p.m.State()) || p.phase != PhaseIdle {
		return ErrBusy
	}

	abs := p.fs.Abs(name)
	if fi, err := p.fs.Stat(abs); err == nil && fi.IsDir() {
		return fmt.Errorf("%w: %q is a directory", ErrOpenFailed, abs)
	}

	f, err := p.fs.Open(abs)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOpenFailed, err)
	}
	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: %w", ErrOpenFailed, err)
	}

	p.file = f
	p.rd = bufio.NewReader(f)
	p.path = abs
	p.name = displayName(abs)
	p.size = fi.Size()
	p.resetPosition()

	p.m.ReportStatus(machine.StatusOK)

	p.webui = p.reg.WebUIConnected()
	ep := stream.Endpoint{Kind: stream.KindFile, Reader: p.reader}
	if p.reg.CanSuspend() {
		ep.Suspend = p.suspend
	}
	p.reg.Redirect(ep)
	p.reg.AttachFile(f)

	hooks := p.m.Hooks()
	p.completed = hooks.ProgramCompleted.Install(p.onProgramCompleted)
	p.trap = hooks.StatusMessage.Install(p.trapStatus)
	p.changed = hooks.StreamChanged.Install(p.onStreamChanged)

	p.phase = PhaseStreaming
	p.metrics.incJobsStarted()
	p.logger.Info("job started", "path", abs, "size", p.size, "webui", p.webui)

	return nil
}

// End closes the job file and restores the transport as input stream. Unread transport input
// is discarded when flush is set. Calling End without an active job is a no-op.
func (p *Player) End(flush bool) {
	p.closeFile()

	if p.phase == PhaseIdle {
		return
	}

	p.completed.Remove()
	p.cycleStart.Remove()
	p.changed.Remove()
	p.trap.Remove()
	p.completed, p.cycleStart, p.changed, p.trap = nil, nil, nil, nil

	p.reg.Restore(flush)

	p.logger.Info("job ended", "path", p.path, "line", p.line, "flush", flush)

	p.phase = PhaseIdle
	p.webui = false
	p.rewind = false
	p.terminating.Store(false)
}

func (p *Player) closeFile() {
	if p.file == nil {
		return
	}

	p.reg.DetachFile(p.file)
	if err := p.file.Close(); err != nil {
		p.logger.Warn("close failed", "path", p.path, "error", err)
	}
	p.file = nil
	p.rd = nil
}

func (p *Player) resetPosition() {
	p.pos = 0
	p.line = 0
	p.eol = 0
	p.lineStart = true
}

// readChar returns the next byte of the job. At end of file the file is closed and a final
// newline is returned when the last line was not terminated.
func (p *Player) readChar() int {
	if p.terminating.Load() {
		return stream.NoData
	}

	state := p.m.State()
	if p.file == nil {
		if (state == machine.StateIdle || state.Is(machine.StateCheckMode)) && p.completed.Installed() {
			p.m.CompleteProgram(machine.ProgramFlowCompletedM30)
			p.m.Feedback(machine.MsgProgramEnd)
		}

		return stream.NoData
	}

	if !readable(state) {
		return stream.NoData
	}

	c, err := p.rd.ReadByte()
	if err != nil {
		if err != io.EOF {
			p.logger.Warn("read failed", "path", p.path, "error", err)
		}
		p.closeFile()
		if !p.lineStart {
			p.lineStart = true
			return '\n'
		}

		return stream.NoData
	}

	p.pos++
	p.metrics.incBytesRead()
	if stream.IsEOL(c) {
		if p.eol < 255 {
			p.eol++
		}
		p.lineStart = true
	} else {
		if p.lineStart {
			p.line++
			p.lineStart = false
			p.metrics.incLinesRead()
		}
		p.eol = 0
	}

	return int(c)
}

func (p *Player) onMount(e vfs.MountEvent) {
	if e.Path == "/" {
		p.mounted = true
		p.readOnly = e.Mode.ReadOnly
	}
}

func (p *Player) onUnmount(e vfs.MountEvent) {
	if e.Path == "/" {
		p.mounted = false
		p.readOnly = false
	}
}

func startable(state machine.State) bool {
	return state == machine.StateIdle || state == machine.StateCheckMode
}

func readable(state machine.State) bool {
	return state == machine.StateIdle ||
		state.Is(machine.StateCycle|machine.StateHold|machine.StateCheckMode|machine.StateToolChange)
}

func displayName(abs string) string {
	name := path.Base(abs)
	if len(name) > maxDisplayName {
		name = name[:maxDisplayName]
	}

	return name
}

// jobReader reads the job file.
type jobReader struct {
	p *Player
}

func (r *jobReader) ReadChar() int { return r.p.readChar() }
