package macro

import (
	"fmt"

	"github.com/arloliu/go-fsstream/logger"
)

const (
	DefaultStackDepth = 5
	MinStackDepth     = 1
	MaxStackDepth     = 16

	// MinID is the lowest macro id served from the file system. Lower ids are left to other
	// handlers.
	MinID = 100

	DefaultToolChangeScript    = "tc.macro"
	DefaultToolSelectScript    = "ts.macro"
	DefaultPalletShuttleScript = "ps.macro"
)

// DefaultSearchPaths are the directories searched for macro files, in order.
var DefaultSearchPaths = []string{"/littlefs", "/"}

type config struct {
	depth         int
	searchPaths   []string
	toolChange    string
	toolSelect    string
	palletShuttle string
	forceToolZero bool
	logger        logger.Logger
}

func defaultConfig() *config {
	return &config{
		depth:         DefaultStackDepth,
		searchPaths:   DefaultSearchPaths,
		toolChange:    DefaultToolChangeScript,
		toolSelect:    DefaultToolSelectScript,
		palletShuttle: DefaultPalletShuttleScript,
		logger:        logger.Component("macro"),
	}
}

// Option configures a Stack.
type Option interface {
	apply(*config) error
}

type optFunc func(*config) error

func (f optFunc) apply(cfg *config) error {
	return f(cfg)
}

// WithStackDepth sets the maximum number of nested macro frames.
func WithStackDepth(depth int) Option {
	return optFunc(func(cfg *config) error {
		if depth < MinStackDepth || depth > MaxStackDepth {
			return fmt.Errorf("macro: stack depth %d out of range [%d, %d]", depth, MinStackDepth, MaxStackDepth)
		}
		cfg.depth = depth

		return nil
	})
}

// WithSearchPaths sets the directories searched for macro and script files.
func WithSearchPaths(paths ...string) Option {
	return optFunc(func(cfg *config) error {
		if len(paths) == 0 {
			return fmt.Errorf("macro: empty search path list")
		}
		cfg.searchPaths = paths

		return nil
	})
}

// WithToolChangeScript sets the script run on M6. An empty name disables the binding.
func WithToolChangeScript(name string) Option {
	return optFunc(func(cfg *config) error {
		cfg.toolChange = name
		return nil
	})
}

// WithToolSelectScript sets the script run on a T word. An empty name disables the binding.
func WithToolSelectScript(name string) Option {
	return optFunc(func(cfg *config) error {
		cfg.toolSelect = name
		return nil
	})
}

// WithPalletShuttleScript sets the script run on M60. An empty name disables the binding.
func WithPalletShuttleScript(name string) Option {
	return optFunc(func(cfg *config) error {
		cfg.palletShuttle = name
		return nil
	})
}

// WithForceToolZero runs the tool change script for T0 even when tool 0 is already loaded.
func WithForceToolZero(enabled bool) Option {
	return optFunc(func(cfg *config) error {
		cfg.forceToolZero = enabled
		return nil
	})
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(cfg *config) error {
		if l != nil {
			cfg.logger = l
		}

		return nil
	})
}
