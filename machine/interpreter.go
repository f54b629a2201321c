package machine

import (
	"math"
	"strconv"
	"strings"
)

// Interpreter executes a non-command line.
type Interpreter interface {
	Execute(m *Machine, line string) Status
}

// InterpreterFunc adapts a function to Interpreter.
type InterpreterFunc func(m *Machine, line string) Status

// Execute calls f.
func (f InterpreterFunc) Execute(m *Machine, line string) Status { return f(m, line) }

// Word is a letter and its value.
type Word struct {
	Letter byte
	Value  float64
}

// ParseWords splits a line into words. Whitespace and comments are skipped and letters are
// folded to upper case.
func ParseWords(line string) ([]Word, Status) {
	var words []Word

	for i := 0; i < len(line); {
		c := line[i]
		switch {
		case c == ' ' || c == '\t':
			i++
			continue
		case c == '(':
			end := strings.IndexByte(line[i:], ')')
			if end < 0 {
				return nil, StatusInvalidStatement
			}
			i += end + 1
			continue
		case c == ';':
			return words, StatusOK
		}

		letter := c &^ 0x20
		if letter < 'A' || letter > 'Z' {
			return nil, StatusExpectedCommandLetter
		}
		i++

		start := i
		for i < len(line) && (line[i] == '-' || line[i] == '+' || line[i] == '.' || (line[i] >= '0' && line[i] <= '9')) {
			i++
		}
		value, err := strconv.ParseFloat(line[start:i], 64)
		if err != nil {
			return nil, StatusBadNumberFormat
		}
		words = append(words, Word{Letter: letter, Value: value})
	}

	return words, StatusOK
}

// BasicInterpreter understands the program flow, tool and macro words of G-code and accepts
// motion words without planning any motion.
//
// Supported: G0-G3 (motion), G4, G17-G19, G20, G21, G54-G59, G65 P<id> [L<repeats>], G80,
// G90, G91, G94, M0, M1, M2, M3-M5, M6, M7-M9, M30, M60, M99, T, F, S, N and axis words.
type BasicInterpreter struct{}

var _ Interpreter = (*BasicInterpreter)(nil)

type block struct {
	motion     bool
	macroCall  bool
	tool       int
	hasTool    bool
	toolChange bool
	flow       ProgramFlow
	pallet     bool
	macroRet   bool
	pword      float64
	hasP       bool
	lword      float64
	hasL       bool
}

// Execute implements Interpreter.
func (b *BasicInterpreter) Execute(m *Machine, line string) Status {
	words, status := ParseWords(line)
	if status != StatusOK {
		return status
	}

	var blk block
	for _, w := range words {
		if status := blk.add(w); status != StatusOK {
			return status
		}
	}

	return blk.run(m)
}

func intValue(v float64) (int, bool) {
	if v != math.Trunc(v) {
		return 0, false
	}

	return int(v), true
}

func (blk *block) add(w Word) Status {
	switch w.Letter {
	case 'G':
		if w.Value == 65 {
			blk.macroCall = true
			return StatusOK
		}
		code, ok := intValue(w.Value)
		if !ok {
			return StatusGcodeUnsupportedCommand
		}
		switch {
		case code >= 0 && code <= 3:
			blk.motion = true
		case code == 4, code >= 17 && code <= 21, code >= 54 && code <= 59,
			code == 80, code == 90, code == 91, code == 94:
		default:
			return StatusGcodeUnsupportedCommand
		}

	case 'M':
		code, ok := intValue(w.Value)
		if !ok {
			return StatusGcodeUnsupportedCommand
		}
		switch code {
		case 0:
			blk.flow = ProgramFlowPaused
		case 1:
			blk.flow = ProgramFlowOptionalStop
		case 2:
			blk.flow = ProgramFlowCompletedM2
		case 30:
			blk.flow = ProgramFlowCompletedM30
		case 6:
			blk.toolChange = true
		case 60:
			blk.pallet = true
		case 99:
			blk.macroRet = true
		case 3, 4, 5, 7, 8, 9:
		default:
			return StatusGcodeUnsupportedCommand
		}

	case 'T':
		tool, ok := intValue(w.Value)
		if !ok {
			return StatusGcodeCommandValueNotInteger
		}
		if tool < 0 {
			return StatusNegativeValue
		}
		if blk.hasTool {
			return StatusGcodeWordRepeated
		}
		blk.tool, blk.hasTool = tool, true

	case 'P':
		if blk.hasP {
			return StatusGcodeWordRepeated
		}
		blk.pword, blk.hasP = w.Value, true

	case 'L':
		if blk.hasL {
			return StatusGcodeWordRepeated
		}
		blk.lword, blk.hasL = w.Value, true
	}

	return StatusOK
}

func (blk *block) run(m *Machine) Status {
	checkMode := m.State().Is(StateCheckMode)

	if blk.hasTool {
		m.nextTool = blk.tool
		if status := m.hooks.ToolSelect.Call(ToolSelect{Tool: blk.tool}); status != StatusOK && status != StatusUnhandled {
			return status
		}
	}

	if blk.toolChange && !checkMode {
		if status := m.changeTool(); status != StatusOK {
			return status
		}
	}

	if blk.macroCall {
		if !blk.hasP {
			return StatusGcodeValueWordMissing
		}
		id, ok := intValue(blk.pword)
		if !ok || id < 0 {
			return StatusGcodeCommandValueNotInteger
		}
		repeats := 1
		if blk.hasL {
			if repeats, ok = intValue(blk.lword); !ok || repeats < 1 {
				return StatusGcodeCommandValueNotInteger
			}
		}
		status := m.hooks.MacroExecute.Call(MacroCall{ID: id, Repeats: repeats})
		if status == StatusUnhandled {
			return StatusGcodeUnsupportedCommand
		}

		return status
	}

	if blk.macroRet {
		m.hooks.MacroReturn.Fire(m.State())
	}

	if blk.motion && !checkMode && m.State() == StateIdle {
		m.SetState(StateCycle)
	}

	switch blk.flow {
	case ProgramFlowPaused, ProgramFlowOptionalStop:
		if !checkMode {
			m.SetState(StateHold)
		}
	case ProgramFlowCompletedM2, ProgramFlowCompletedM30:
		m.CompleteProgram(blk.flow)
		m.Feedback(MsgProgramEnd)
	}

	if blk.pallet {
		if status := m.hooks.PalletShuttle.Call(m.State()); status != StatusOK && status != StatusUnhandled {
			return status
		}
	}

	return StatusOK
}

// changeTool runs the tool change pipe and falls back to a manual tool change that suspends
// input until cycle start.
func (m *Machine) changeTool() Status {
	status := m.hooks.ToolChange.Call(ToolChange{Current: m.tool, Next: m.nextTool})
	switch status {
	case StatusOK:
		m.tool = m.nextTool
		return StatusOK
	case StatusUnhandled:
	default:
		return status
	}

	if m.nextTool == m.tool {
		return StatusOK
	}

	m.SetState(StateToolChange)
	m.toolAck.Store(false)
	m.reg.Suspend(true)
	m.Feedback(MsgToolChangePending)
	m.logger.Info("manual tool change", "current", m.tool, "next", m.nextTool)

	return StatusOK
}
