// Package machine is the controller side of the streaming engine: the state, the realtime
// command path, the main loop step, line assembly, command dispatch and the event hooks the
// file streaming components plug into.
//
// All methods belong to the main loop except EnqueueRealtime, AddTask and SetExecFlag, which may
// be called from the reception path of a transport.
package machine

import (
	"strconv"
	"sync/atomic"

	"github.com/arloliu/go-fsstream/internal/queue"
	"github.com/arloliu/go-fsstream/logger"
	"github.com/arloliu/go-fsstream/stream"
)

// Machine is a simulated motion controller. It executes lines through an Interpreter, keeps the
// controller state and reports status and messages over the stream registry.
type Machine struct {
	reg    *stream.Registry
	hooks  Hooks
	interp Interpreter

	state      atomic.Uint32
	exec       atomic.Uint32
	fullReport atomic.Bool
	toolAck    atomic.Bool
	tasks      queue.Queue[func()]

	commands map[string]Command

	line          []byte
	lineOverflow  bool
	maxLineLength int

	lastError Status
	keepInput bool
	tool      int
	nextTool  int
	banner    string

	logger logger.Logger
}

// New creates a controller reading from and reporting to reg.
// The registry realtime path is connected to EnqueueRealtime.
func New(reg *stream.Registry, opts ...Option) (*Machine, error) {
	m := &Machine{
		reg:           reg,
		tasks:         queue.NewLockFreeQueue[func()](),
		commands:      make(map[string]Command),
		maxLineLength: DefaultMaxLineLength,
		banner:        DefaultBanner,
		logger:        logger.Component("machine"),
	}
	m.interp = &BasicInterpreter{}

	for _, opt := range opts {
		if err := opt.apply(m); err != nil {
			return nil, err
		}
	}

	m.line = make([]byte, 0, m.maxLineLength)
	m.initHooks()
	m.registerBuiltins()
	reg.SetRealtimePath(m.EnqueueRealtime)

	return m, nil
}

// Hooks returns the event chains.
func (m *Machine) Hooks() *Hooks { return &m.hooks }

// Registry returns the stream registry.
func (m *Machine) Registry() *stream.Registry { return m.reg }

// Logger returns the logger of the machine.
func (m *Machine) Logger() logger.Logger { return m.logger }

// State returns the controller state.
func (m *Machine) State() State {
	return State(m.state.Load())
}

// SetState sets the controller state.
func (m *Machine) SetState(s State) {
	prev := State(m.state.Swap(uint32(s)))
	if prev != s {
		m.logger.Debug("state changed", "from", prev, "to", s)
	}
}

// Tool returns the tool in the spindle.
func (m *Machine) Tool() int { return m.tool }

// NextTool returns the selected tool.
func (m *Machine) NextTool() int { return m.nextTool }

// LastError returns the status of the last executed line.
func (m *Machine) LastError() Status { return m.lastError }

// AddTask schedules fn to run from the main loop during the next ExecuteRealtime.
func (m *Machine) AddTask(fn func()) {
	if fn != nil {
		m.tasks.Enqueue(fn)
	}
}

// KeepInput makes the next stop keep buffered transport input.
func (m *Machine) KeepInput() {
	m.keepInput = true
}

// ReportStatus reports the result of a line through the status message chain.
func (m *Machine) ReportStatus(s Status) Status {
	return m.hooks.StatusMessage.Call(s)
}

// Feedback sends msg through the feedback chain.
func (m *Machine) Feedback(msg Message) {
	m.hooks.Feedback.Fire(msg)
}

// Write writes s to the physical transport.
func (m *Machine) Write(s string) {
	if _, err := m.reg.WriteString(s); err != nil {
		m.logger.Warn("write failed", "error", err)
	}
}

// CompleteProgram signals the end of a program.
func (m *Machine) CompleteProgram(flow ProgramFlow) {
	m.hooks.ProgramCompleted.Fire(ProgramEnd{Flow: flow, CheckMode: m.State().Is(StateCheckMode)})
}

// Poll runs one main loop step: realtime processing, then input is read until one line has
// been executed or no more input is available. It returns false when a reset aborted the step.
func (m *Machine) Poll() bool {
	if !m.ExecuteRealtime() {
		return false
	}

	for {
		c := m.reg.ReadChar()
		if c == stream.NoData {
			// no more input: the simulated planner is drained
			if m.State() == StateCycle {
				m.SetState(StateIdle)
			}

			return true
		}

		if m.feed(byte(c)) {
			return true
		}
	}
}

// feed adds c to the line buffer and executes the line on a line terminator.
// It reports whether a line was executed.
func (m *Machine) feed(c byte) bool {
	switch {
	case stream.IsEOL(c):
		if len(m.line) == 0 && !m.lineOverflow {
			return false
		}

		line := string(m.line)
		overflow := m.lineOverflow
		m.line = m.line[:0]
		m.lineOverflow = false

		if overflow {
			m.lastError = StatusOverflow
			m.ReportStatus(StatusOverflow)
		} else {
			m.ExecuteLine(line)
		}

		return true

	case c == stream.ASCIICAN:
		m.line = m.line[:0]
		m.lineOverflow = false

	case c < ' ' && c != stream.ASCIITab, c == stream.ASCIIDEL:
		// ignore other control characters

	case len(m.line) >= m.maxLineLength:
		m.lineOverflow = true

	default:
		m.line = append(m.line, c)
	}

	return false
}

// ExecuteLine executes a complete line and reports its status.
func (m *Machine) ExecuteLine(line string) Status {
	var status Status
	switch {
	case len(line) > 0 && line[0] == '$':
		status = m.ExecuteCommand(line)
	case m.State().Is(StateAlarm | StateEStop | StateSleep):
		status = StatusSystemGClock
	default:
		status = m.interp.Execute(m, line)
	}

	if status == StatusUnhandled {
		status = StatusInvalidStatement
	}
	m.lastError = status

	return m.ReportStatus(status)
}

func (m *Machine) writeStatus(s Status) Status {
	if s == StatusOK {
		m.Write("ok" + stream.EOL)
	} else {
		m.Write("error:" + strconv.Itoa(int(s)) + stream.EOL)
	}

	return s
}

func (m *Machine) writeMessage(msg Message) {
	m.Write(msg.Format() + stream.EOL)
}
