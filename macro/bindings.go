package macro

import (
	"errors"
	"fmt"
	"path"

	"github.com/arloliu/go-fsstream/machine"
)

// Resolve returns the path of the first file called name in the search paths. Absolute names
// are used as given.
func (s *Stack) Resolve(name string) (string, error) {
	if path.IsAbs(name) {
		if fi, err := s.fs.Stat(name); err == nil && !fi.IsDir() {
			return name, nil
		}

		return "", fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	for _, dir := range s.cfg.searchPaths {
		p := path.Join(dir, name)
		if fi, err := s.fs.Stat(p); err == nil && !fi.IsDir() {
			return p, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrNotFound, name)
}

// FileName returns the file name of macro id.
func FileName(id int) string {
	return fmt.Sprintf("P%d.macro", id)
}

// Execute runs macro id repeats times. It is the G65 handler.
func (s *Stack) Execute(id int, repeats int) machine.Status {
	state := s.m.State()
	if state != machine.StateIdle && !state.Is(machine.StateCycle|machine.StateCheckMode) {
		return machine.StatusSystemGClock
	}

	name, err := s.Resolve(FileName(id))
	if err != nil {
		return machine.StatusUnhandled
	}

	return s.statusOf(s.Push(name, id, repeats))
}

func (s *Stack) onMacroExecute(call machine.MacroCall, next func(machine.MacroCall) machine.Status) machine.Status {
	if call.ID < MinID {
		return next(call)
	}

	status := s.Execute(call.ID, call.Repeats)
	if status == machine.StatusUnhandled {
		return next(call)
	}

	return status
}

func (s *Stack) onToolChange(tc machine.ToolChange, next func(machine.ToolChange) machine.Status) machine.Status {
	if s.cfg.toolChange == "" || (tc.Next == tc.Current && !(s.cfg.forceToolZero && tc.Next == 0)) {
		return next(tc)
	}

	status := s.runScript(s.cfg.toolChange)
	if status == machine.StatusUnhandled {
		return next(tc)
	}

	return status
}

func (s *Stack) onToolSelect(ts machine.ToolSelect, next func(machine.ToolSelect) machine.Status) machine.Status {
	if s.cfg.toolSelect == "" {
		return next(ts)
	}

	status := s.runScript(s.cfg.toolSelect)
	if status == machine.StatusUnhandled {
		return next(ts)
	}

	return status
}

func (s *Stack) onPalletShuttle(state machine.State, next func(machine.State) machine.Status) machine.Status {
	if s.cfg.palletShuttle == "" {
		return next(state)
	}

	status := s.runScript(s.cfg.palletShuttle)
	if status == machine.StatusUnhandled {
		return next(state)
	}

	return status
}

// runScript pushes a script frame. It returns StatusUnhandled when the script does not exist.
func (s *Stack) runScript(name string) machine.Status {
	p, err := s.Resolve(name)
	if err != nil {
		return machine.StatusUnhandled
	}

	return s.statusOf(s.Push(p, 0, 1))
}

func (s *Stack) statusOf(err error) machine.Status {
	switch {
	case err == nil:
		return machine.StatusOK
	case errors.Is(err, ErrStackOverflow):
		return machine.StatusMacroStackOverflow
	default:
		s.logger.Warn("macro push failed", "error", err)
		return machine.StatusFileOpenFailed
	}
}
