package machine

import (
	"fmt"

	"github.com/arloliu/go-fsstream/logger"
)

// Line buffer limits.
const (
	DefaultMaxLineLength = 256
	MinMaxLineLength     = 80
	MaxMaxLineLength     = 1024
)

// DefaultBanner is written after a soft reset.
const DefaultBanner = "GrblHAL 1.1f ['$' or '$HELP' for help]"

// Option configures a Machine.
type Option interface {
	apply(*Machine) error
}

type optFunc func(*Machine) error

func (f optFunc) apply(m *Machine) error {
	return f(m)
}

// WithInterpreter sets the interpreter executing non-command lines.
func WithInterpreter(i Interpreter) Option {
	return optFunc(func(m *Machine) error {
		if i == nil {
			return fmt.Errorf("machine: nil interpreter")
		}
		m.interp = i

		return nil
	})
}

// WithMaxLineLength sets the line buffer size.
func WithMaxLineLength(n int) Option {
	return optFunc(func(m *Machine) error {
		if n < MinMaxLineLength || n > MaxMaxLineLength {
			return fmt.Errorf("machine: max line length %d out of range [%d, %d]", n, MinMaxLineLength, MaxMaxLineLength)
		}
		m.maxLineLength = n

		return nil
	})
}

// WithBanner sets the text written after a soft reset. An empty banner disables it.
func WithBanner(banner string) Option {
	return optFunc(func(m *Machine) error {
		m.banner = banner
		return nil
	})
}

// WithTool sets the tool in the spindle at start-up.
func WithTool(tool int) Option {
	return optFunc(func(m *Machine) error {
		if tool < 0 {
			return fmt.Errorf("machine: negative tool number %d", tool)
		}
		m.tool = tool
		m.nextTool = tool

		return nil
	})
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(m *Machine) error {
		if l != nil {
			m.logger = l
		}

		return nil
	})
}
