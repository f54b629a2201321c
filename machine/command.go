package machine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/arloliu/go-fsstream/stream"
)

// CommandFunc executes a $ command. args is the text after '=', or empty when there was none.
type CommandFunc func(state State, args string) Status

// Command is a $ command.
type Command struct {
	// Name is the command name without the leading '$', matched case-insensitively.
	Name string
	Run  CommandFunc
	// NoArgs rejects invocations with an argument.
	NoArgs bool
	Help   string
}

// RegisterCommands adds commands to the $ command dispatcher.
func (m *Machine) RegisterCommands(cmds ...Command) error {
	for _, cmd := range cmds {
		name := strings.ToUpper(cmd.Name)
		if name == "" || cmd.Run == nil {
			return fmt.Errorf("machine: invalid command %q", cmd.Name)
		}
		if _, ok := m.commands[name]; ok {
			return fmt.Errorf("machine: command $%s already registered", name)
		}
		cmd.Name = name
		m.commands[name] = cmd
	}

	return nil
}

// ExecuteCommand runs a $ command line.
func (m *Machine) ExecuteCommand(line string) Status {
	line = strings.TrimPrefix(line, "$")

	name, args, hasArgs := strings.Cut(line, "=")
	name = strings.ToUpper(strings.TrimSpace(name))
	args = strings.TrimSpace(args)

	cmd, ok := m.commands[name]
	if !ok {
		return StatusInvalidStatement
	}
	if cmd.NoArgs && hasArgs {
		return StatusInvalidStatement
	}

	return cmd.Run(m.State(), args)
}

func (m *Machine) registerBuiltins() {
	_ = m.RegisterCommands(
		Command{Name: "C", Run: m.cmdCheckMode, NoArgs: true, Help: "toggle check mode"},
		Command{Name: "X", Run: m.cmdUnlock, NoArgs: true, Help: "clear alarm"},
		Command{Name: "I", Run: m.cmdBuildInfo, NoArgs: true, Help: "build info"},
		Command{Name: "HELP", Run: m.cmdHelp, Help: "list commands"},
	)
}

func (m *Machine) cmdCheckMode(state State, _ string) Status {
	switch {
	case state == StateIdle:
		m.SetState(StateCheckMode)
		m.Feedback(MsgCheckModeEnabled)
	case state.Is(StateCheckMode):
		// leaving check mode resets the controller
		m.SetExecFlag(ExecReset)
		m.Feedback(MsgCheckModeDisabled)
	default:
		return StatusIdleError
	}

	return StatusOK
}

func (m *Machine) cmdUnlock(state State, _ string) Status {
	if state.Is(StateAlarm) {
		m.SetState(StateIdle)
	}

	return StatusOK
}

func (m *Machine) cmdBuildInfo(State, string) Status {
	r := &OptionsReport{}
	m.hooks.ReportOptions.Fire(r)

	m.Write("[VER:1.1f.fsstream:]" + stream.EOL)
	if len(r.NewOpts) > 0 {
		m.Write("[NEWOPT:" + strings.Join(r.NewOpts, ",") + "]" + stream.EOL)
	}
	for _, p := range r.Plugins {
		m.Write("[PLUGIN:" + p + "]" + stream.EOL)
	}

	return StatusOK
}

func (m *Machine) cmdHelp(State, string) Status {
	names := make([]string, 0, len(m.commands))
	for name := range m.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		m.Write("$" + name + " - " + m.commands[name].Help + stream.EOL)
	}

	return StatusOK
}
