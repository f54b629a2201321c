package machine

import (
	"github.com/arloliu/go-fsstream/stream"
)

// ExecFlag is a pending realtime request set from the reception path and consumed by the
// main loop.
type ExecFlag uint32

const (
	ExecStatusReport ExecFlag = 1 << iota
	ExecCycleStart
	ExecFeedHold
	ExecReset
	ExecStop
	ExecMotionCancel
	ExecSafetyDoor
)

// SetExecFlag requests f to be processed by the next ExecuteRealtime.
func (m *Machine) SetExecFlag(f ExecFlag) {
	m.exec.Or(uint32(f))
}

// EnqueueRealtime is the realtime command path. It reports whether c was consumed as a realtime
// command. Bytes that are neither realtime commands nor line input are offered to the
// UnknownRealtime pipe.
func (m *Machine) EnqueueRealtime(c byte) bool {
	switch c {
	case stream.CmdStatusReport:
		m.SetExecFlag(ExecStatusReport)
	case stream.CmdStatusReportAll:
		m.fullReport.Store(true)
		m.SetExecFlag(ExecStatusReport)
	case stream.CmdCycleStart:
		m.SetExecFlag(ExecCycleStart)
	case stream.CmdFeedHold:
		m.SetExecFlag(ExecFeedHold)
	case stream.CmdReset:
		m.SetExecFlag(ExecReset)
	case stream.CmdStop:
		m.SetExecFlag(ExecStop)
	case stream.CmdSafetyDoor:
		m.SetExecFlag(ExecSafetyDoor)
	case stream.CmdJogCancel:
		if m.State().Is(StateJog) {
			m.SetExecFlag(ExecMotionCancel)
		}
	case stream.CmdToolAck:
		m.toolAck.Store(true)
	default:
		if (c < ' ' && c != stream.ASCIICR && c != stream.ASCIILF && c != stream.ASCIITab) || (c > stream.ASCIIDEL && c <= 0xBF) {
			return m.hooks.UnknownRealtime.Call(c)
		}

		return false
	}

	return true
}

// ExecuteRealtime processes pending realtime requests, notifies the ExecuteRealtime chain and
// runs queued tasks. It returns false when a soft reset was executed.
func (m *Machine) ExecuteRealtime() bool {
	flags := ExecFlag(m.exec.Swap(0))

	if flags&ExecReset != 0 {
		m.softReset()
		return false
	}

	if flags&ExecStop != 0 {
		m.stop()
	}

	if flags&ExecMotionCancel != 0 && m.State().Is(StateCycle|StateJog) {
		m.SetState(StateIdle)
	}

	if flags&ExecSafetyDoor != 0 && !m.State().Is(StateAlarm|StateEStop) {
		m.SetState(StateSafetyDoor)
	}

	if flags&ExecFeedHold != 0 && m.State().Is(StateCycle|StateJog) {
		m.SetState(StateHold)
	}

	if flags&ExecCycleStart != 0 {
		m.cycleStart()
	}

	if flags&ExecStatusReport != 0 {
		m.reportRealtime(m.fullReport.Swap(false))
	}

	m.hooks.ExecuteRealtime.Fire(m.State())
	m.tasks.Drain(func(fn func()) { fn() })

	return true
}

// ToolAcknowledged reports whether a tool change acknowledge was received since the last call.
func (m *Machine) ToolAcknowledged() bool {
	return m.toolAck.Swap(false)
}

func (m *Machine) cycleStart() {
	state := m.State()
	switch {
	case state.Is(StateToolChange):
		m.tool = m.nextTool
		m.SetState(StateIdle)
		m.reg.Suspend(false)
		m.logger.Info("tool change completed", "tool", m.tool)
	case state.Is(StateHold):
		m.SetState(StateCycle)
	case state.Is(StateSafetyDoor):
		m.SetState(StateIdle)
	}

	m.hooks.CycleStart.Fire(m.State())
}

func (m *Machine) stop() {
	if m.State().Is(StateCycle | StateHold | StateJog | StateToolChange) {
		m.SetState(StateIdle)
	}

	if !m.keepInput {
		m.reg.Transport().CancelReadBuffer()
	}
	m.keepInput = false
}

func (m *Machine) softReset() {
	state := m.State()
	m.logger.Info("soft reset", "state", state)

	m.hooks.Reset.Fire(state)

	m.line = m.line[:0]
	m.lineOverflow = false
	m.keepInput = false
	m.nextTool = m.tool
	m.lastError = StatusOK
	if state.Is(StateCheckMode | StateCycle | StateHold | StateJog | StateToolChange | StateSafetyDoor) {
		m.SetState(StateIdle)
	}
	m.reg.Transport().ResetReadBuffer()

	if m.banner != "" {
		m.Write(m.banner + stream.EOL)
	}
}

func (m *Machine) reportRealtime(full bool) {
	r := &Report{Full: full}
	r.WriteString("<")
	r.WriteString(m.State().reportName())
	r.WriteString("|MPos:0.000,0.000,0.000|FS:0,0")

	m.hooks.RealtimeReport.Fire(r)

	r.WriteString(">")
	m.Write(r.String() + stream.EOL)
}
