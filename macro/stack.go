// Package macro runs G-code macros and tool change scripts stored in the file system.
//
// G65 P<id> [L<n>] pushes the file P<id>.macro on a bounded call stack and reads the machine
// input from it until the file ends, M99 returns, or a line fails. Scripts bound to tool select,
// tool change and pallet shuttle events are pushed the same way.
package macro

import (
	"bufio"
	"fmt"
	"io"
	"path"

	"github.com/arloliu/go-fsstream/hook"
	"github.com/arloliu/go-fsstream/logger"
	"github.com/arloliu/go-fsstream/machine"
	"github.com/arloliu/go-fsstream/stream"
	"github.com/arloliu/go-fsstream/vfs"
)

// PluginName is reported by the build info command.
const PluginName = "FS macro plugin v0.02"

// Frame describes one entry of the call stack.
type Frame struct {
	// ID is the macro id, 0 for scripts.
	ID int
	// Path is the absolute path of the macro file.
	Path string
	// Repeats is the number of runs left, including the current one.
	Repeats int
}

type frame struct {
	Frame
	file vfs.File
	rd   *bufio.Reader
}

// Stack is the macro call stack of a machine.
type Stack struct {
	m   *machine.Machine
	reg *stream.Registry
	fs  *vfs.FS
	cfg *config

	frames []frame
	reader *stackReader
	// reader active before the first frame was pushed
	prev      stream.Reader
	lastError machine.Status
	eolOK     bool

	trap     *hook.Entry[machine.Status, machine.Status]
	returned *hook.Entry[machine.State, struct{}]

	logger logger.Logger
}

// New creates a macro stack for m serving files from fsys and installs its event handlers.
func New(m *machine.Machine, fsys *vfs.FS, opts ...Option) (*Stack, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	s := &Stack{
		m:      m,
		reg:    m.Registry(),
		fs:     fsys,
		cfg:    cfg,
		frames: make([]frame, 0, cfg.depth),
		logger: cfg.logger,
	}
	s.reader = &stackReader{s: s}

	hooks := m.Hooks()
	hooks.MacroExecute.Install(s.onMacroExecute)
	hooks.ToolChange.Install(s.onToolChange)
	hooks.ToolSelect.Install(s.onToolSelect)
	hooks.PalletShuttle.Install(s.onPalletShuttle)
	hooks.Reset.Install(s.onReset)
	hooks.ReportOptions.Observe(func(r *machine.OptionsReport) {
		r.Plugins = append(r.Plugins, PluginName)
	})

	return s, nil
}

// Depth returns the number of frames on the stack.
func (s *Stack) Depth() int { return len(s.frames) }

// Frames returns a copy of the stack, outermost frame first.
func (s *Stack) Frames() []Frame {
	frames := make([]Frame, len(s.frames))
	for i := range s.frames {
		frames[i] = s.frames[i].Frame
	}

	return frames
}

// Push opens name and makes it the input of the machine until it ends. The file is run repeats
// times. In check mode only the existence of the file is verified and nothing is pushed.
func (s *Stack) Push(name string, id int, repeats int) error {
	if repeats < 1 {
		repeats = 1
	}

	abs := s.fs.Abs(name)
	if s.m.State().Is(machine.StateCheckMode) {
		if fi, err := s.fs.Stat(abs); err != nil || fi.IsDir() {
			return fmt.Errorf("%w: %q", ErrOpenFailed, abs)
		}

		return nil
	}

	if len(s.frames) >= s.cfg.depth {
		return ErrStackOverflow
	}

	f, err := s.fs.Open(abs)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOpenFailed, err)
	}

	s.frames = append(s.frames, frame{
		Frame: Frame{ID: id, Path: abs, Repeats: repeats},
		file:  f,
		rd:    bufio.NewReader(f),
	})
	s.eolOK = false

	if len(s.frames) == 1 {
		s.prev = s.reg.SetReader(s.reader)
		s.lastError = machine.StatusOK

		hooks := s.m.Hooks()
		s.trap = hooks.StatusMessage.Install(s.trapStatus)
		s.returned = hooks.MacroReturn.Install(s.onMacroReturn)
	} else if s.reg.Reader() != stream.Reader(s.reader) {
		s.reg.SetReader(s.reader)
	}

	s.logger.Debug("macro pushed", "path", abs, "id", id, "repeats", repeats, "depth", len(s.frames))

	return nil
}

// Pop ends a run of the top frame. Unless failed is set, a frame with runs left is rewound
// instead of removed. When the last frame is removed the previous input is restored.
func (s *Stack) Pop(failed bool) {
	if len(s.frames) == 0 {
		return
	}

	top := &s.frames[len(s.frames)-1]
	if !failed {
		top.Repeats--
		if top.Repeats > 0 {
			_, err := top.file.Seek(0, io.SeekStart)
			if err == nil {
				top.rd.Reset(top.file)
				s.eolOK = false

				return
			}
			s.logger.Warn("macro rewind failed", "path", top.Path, "error", err)
		}
	}

	id := top.ID
	if err := top.file.Close(); err != nil {
		s.logger.Warn("macro close failed", "path", top.Path, "error", err)
	}
	s.logger.Debug("macro closed", "path", top.Path, "failed", failed)
	s.frames[len(s.frames)-1] = frame{}
	s.frames = s.frames[:len(s.frames)-1]

	s.m.Hooks().MacroClosed.Fire(id)

	if len(s.frames) == 0 {
		s.detach()
	}
}

// Unwind pops every frame as failed.
func (s *Stack) Unwind() {
	for len(s.frames) > 0 {
		s.Pop(true)
	}
}

func (s *Stack) detach() {
	if s.reg.Reader() == stream.Reader(s.reader) {
		s.reg.SetReader(s.prev)
	}
	s.prev = nil

	s.trap.Remove()
	s.returned.Remove()
	s.trap, s.returned = nil, nil
}

func (s *Stack) trapStatus(status machine.Status, next func(machine.Status) machine.Status) machine.Status {
	s.lastError = status

	if s.reg.Reader() != stream.Reader(s.reader) {
		return next(status)
	}
	if status == machine.StatusOK {
		return status
	}

	top := s.frames[len(s.frames)-1]
	s.m.Feedback(machine.Warning(fmt.Sprintf("error %d in macro %s", uint8(status), path.Base(top.Path))))
	s.logger.Warn("macro failed", "path", top.Path, "status", status, "depth", len(s.frames))

	s.reg.SetReader(s.prev)
	status = next(status)
	s.Unwind()

	return status
}

// endOfFile is called when the top frame is exhausted. The status of the line that started
// the outermost frame is reported once the stack is empty.
func (s *Stack) endOfFile() {
	s.Pop(false)
	if len(s.frames) == 0 {
		s.m.ReportStatus(s.lastError)
	}
}

func (s *Stack) onMacroReturn(state machine.State, next func(machine.State)) {
	if s.reg.Reader() == stream.Reader(s.reader) {
		s.Pop(false)
	}
	next(state)
}

func (s *Stack) onReset(state machine.State, next func(machine.State)) {
	if len(s.frames) > 0 {
		s.logger.Info("reset during macro, unwinding", "depth", len(s.frames))
		s.Unwind()
	}
	next(state)
}

// stackReader reads the top frame. Consecutive line terminators are collapsed and a final
// newline is supplied for an unterminated last line.
type stackReader struct {
	s *Stack
}

func (r *stackReader) ReadChar() int {
	s := r.s
	if len(s.frames) == 0 {
		return stream.NoData
	}

	rd := s.frames[len(s.frames)-1].rd
	for {
		c, err := rd.ReadByte()
		if err != nil {
			break
		}
		if stream.IsEOL(c) {
			if s.eolOK {
				continue
			}
			s.eolOK = true
		} else {
			s.eolOK = false
		}

		return int(c)
	}

	if s.eolOK {
		s.endOfFile()
		return stream.NoData
	}
	s.eolOK = true

	return int(stream.ASCIILF)
}
