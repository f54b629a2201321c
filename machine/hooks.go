package machine

import (
	"strings"

	"github.com/arloliu/go-fsstream/hook"
	"github.com/arloliu/go-fsstream/stream"
)

// ProgramFlow tells how a program ended.
type ProgramFlow uint8

const (
	ProgramFlowRunning ProgramFlow = iota
	ProgramFlowPaused
	ProgramFlowOptionalStop
	ProgramFlowCompletedM2
	ProgramFlowCompletedM30
	ProgramFlowCompletedM60
)

// String returns a string representation of the program flow.
func (f ProgramFlow) String() string {
	switch f {
	case ProgramFlowRunning:
		return "running"
	case ProgramFlowPaused:
		return "paused"
	case ProgramFlowOptionalStop:
		return "optional_stop"
	case ProgramFlowCompletedM2:
		return "m2"
	case ProgramFlowCompletedM30:
		return "m30"
	case ProgramFlowCompletedM60:
		return "m60"
	default:
		return "unknown"
	}
}

// ProgramEnd is passed to the program completed chain.
type ProgramEnd struct {
	Flow      ProgramFlow
	CheckMode bool
}

// MacroCall is a G65 macro call.
type MacroCall struct {
	ID      int
	Repeats int
}

// ToolSelect is a T word.
type ToolSelect struct {
	Tool int
}

// ToolChange is an M6 request.
type ToolChange struct {
	Current int
	Next    int
}

// Report is a realtime status report under construction. Hooks append fields with WriteString.
type Report struct {
	// Full is set when every field must be included, not only fields that changed.
	Full bool

	sb strings.Builder
}

// WriteString appends s to the report.
func (r *Report) WriteString(s string) {
	r.sb.WriteString(s)
}

// String returns the report text.
func (r *Report) String() string {
	return r.sb.String()
}

// OptionsReport collects the build option report.
type OptionsReport struct {
	// NewOpts are the short capability tags listed in the NEWOPT line.
	NewOpts []string
	// Plugins are the plugin descriptions, one PLUGIN line each.
	Plugins []string
}

// Hooks holds the event chains of a controller.
//
// Pipes return a result; a handler that does not act on an event forwards it to the rest of the
// chain. Chains are notifications. UnknownRealtime runs on the reception path and must be set up
// before any transport starts receiving.
type Hooks struct {
	ProgramCompleted *hook.Chain[ProgramEnd]
	CycleStart       *hook.Chain[State]
	StreamChanged    *hook.Chain[stream.Kind]
	StatusMessage    *hook.Pipe[Status, Status]
	Feedback         *hook.Chain[Message]
	RealtimeReport   *hook.Chain[*Report]
	Reset            *hook.Chain[State]
	ExecuteRealtime  *hook.Chain[State]
	UnknownRealtime  *hook.Pipe[byte, bool]
	MacroExecute     *hook.Pipe[MacroCall, Status]
	MacroReturn      *hook.Chain[State]
	MacroClosed      *hook.Chain[int]
	ToolSelect       *hook.Pipe[ToolSelect, Status]
	ToolChange       *hook.Pipe[ToolChange, Status]
	PalletShuttle    *hook.Pipe[State, Status]
	ReportOptions    *hook.Chain[*OptionsReport]
}

func unhandled[A any](A) Status { return StatusUnhandled }

// dropUnknown consumes realtime bytes no handler recognised.
func dropUnknown(byte) bool { return true }

func (m *Machine) initHooks() {
	m.hooks = Hooks{
		ProgramCompleted: hook.NewChain[ProgramEnd](nil),
		CycleStart:       hook.NewChain[State](nil),
		StreamChanged:    m.reg.OnChanged(),
		StatusMessage:    hook.NewPipe(m.writeStatus),
		Feedback:         hook.NewChain(m.writeMessage),
		RealtimeReport:   hook.NewChain[*Report](nil),
		Reset:            hook.NewChain[State](nil),
		ExecuteRealtime:  hook.NewChain[State](nil),
		UnknownRealtime:  hook.NewPipe(dropUnknown),
		MacroExecute:     hook.NewPipe(unhandled[MacroCall]),
		MacroReturn:      hook.NewChain[State](nil),
		MacroClosed:      hook.NewChain[int](nil),
		ToolSelect:       hook.NewPipe(unhandled[ToolSelect]),
		ToolChange:       hook.NewPipe(unhandled[ToolChange]),
		PalletShuttle:    hook.NewPipe(unhandled[State]),
		ReportOptions:    hook.NewChain[*OptionsReport](nil),
	}
}
