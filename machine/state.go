package machine

import "strings"

// State is the controller state. Idle is the zero value; every other state is a single bit.
type State uint16

const (
	StateIdle       State = 0
	StateAlarm      State = 1 << 0
	StateCheckMode  State = 1 << 1
	StateHoming     State = 1 << 2
	StateCycle      State = 1 << 3
	StateHold       State = 1 << 4
	StateJog        State = 1 << 5
	StateSafetyDoor State = 1 << 6
	StateSleep      State = 1 << 7
	StateEStop      State = 1 << 8
	StateToolChange State = 1 << 9
)

var stateNames = []struct {
	state State
	name  string
}{
	{StateAlarm, "alarm"},
	{StateCheckMode, "check_mode"},
	{StateHoming, "homing"},
	{StateCycle, "cycle"},
	{StateHold, "hold"},
	{StateJog, "jog"},
	{StateSafetyDoor, "safety_door"},
	{StateSleep, "sleep"},
	{StateEStop, "estop"},
	{StateToolChange, "tool_change"},
}

// String returns a string representation of the state.
func (s State) String() string {
	if s == StateIdle {
		return "idle"
	}

	var names []string
	for _, n := range stateNames {
		if s&n.state != 0 {
			names = append(names, n.name)
		}
	}
	if len(names) == 0 {
		return "unknown"
	}

	return strings.Join(names, "|")
}

// Is reports whether s is idle when mask is StateIdle, or has any bit of mask set otherwise.
func (s State) Is(mask State) bool {
	if mask == StateIdle {
		return s == StateIdle
	}

	return s&mask != 0
}

// reportName is the state label used in realtime status reports.
func (s State) reportName() string {
	switch {
	case s == StateIdle:
		return "Idle"
	case s.Is(StateAlarm):
		return "Alarm"
	case s.Is(StateEStop):
		return "Alarm"
	case s.Is(StateCheckMode):
		return "Check"
	case s.Is(StateHoming):
		return "Home"
	case s.Is(StateHold):
		return "Hold:0"
	case s.Is(StateJog):
		return "Jog"
	case s.Is(StateSafetyDoor):
		return "Door:0"
	case s.Is(StateSleep):
		return "Sleep"
	case s.Is(StateToolChange):
		return "Tool"
	case s.Is(StateCycle):
		return "Run"
	default:
		return "Unknown"
	}
}
