package fsstream

import (
	"fmt"
	"strings"

	"github.com/arloliu/go-fsstream/logger"
)

// Listing and naming limits.
const (
	DefaultMaxNameLength = 40
	MinMaxNameLength     = 8
	MaxMaxNameLength     = 255

	DefaultScanDepth = 10
	MinScanDepth     = 1
	MaxScanDepth     = 32

	// MaxPathLength bounds the paths visited by a listing.
	MaxPathLength = 128

	// maxDisplayName bounds the job name shown in status reports.
	maxDisplayName = 49

	maxFileTypeLength = 7
)

// DefaultFileTypes are the extensions a filtered listing shows.
var DefaultFileTypes = []string{"nc", "ncc", "ngc", "cnc", "gcode", "txt", "text", "tap", "macro"}

type config struct {
	rewindOnM2       bool
	webUIRewindGuard bool
	fileTypes        []string
	maxNameLength    int
	scanDepth        int
	logger           logger.Logger
}

func defaultConfig() *config {
	return &config{
		rewindOnM2:       true,
		webUIRewindGuard: true,
		fileTypes:        DefaultFileTypes,
		maxNameLength:    DefaultMaxNameLength,
		scanDepth:        DefaultScanDepth,
		logger:           logger.Component("fsstream"),
	}
}

// Option configures a Player.
type Option interface {
	apply(*config) error
}

type optFunc func(*config) error

func (f optFunc) apply(cfg *config) error {
	return f(cfg)
}

// WithRewindOnM2 makes an M2 program end arm rewind mode. Enabled by default.
func WithRewindOnM2(enabled bool) Option {
	return optFunc(func(cfg *config) error {
		cfg.rewindOnM2 = enabled
		return nil
	})
}

// WithWebUIRewindGuard disables rewind mode while a WebUI client is connected to the transport.
// Enabled by default.
func WithWebUIRewindGuard(enabled bool) Option {
	return optFunc(func(cfg *config) error {
		cfg.webUIRewindGuard = enabled
		return nil
	})
}

// WithFileTypes sets the extensions shown by a filtered listing.
func WithFileTypes(types ...string) Option {
	return optFunc(func(cfg *config) error {
		if len(types) == 0 {
			return fmt.Errorf("fsstream: empty file type list")
		}

		list := make([]string, 0, len(types))
		for _, t := range types {
			t = strings.ToLower(strings.TrimPrefix(t, "."))
			if t == "" || len(t) > maxFileTypeLength {
				return fmt.Errorf("fsstream: invalid file type %q", t)
			}
			list = append(list, t)
		}
		cfg.fileTypes = list

		return nil
	})
}

// WithMaxNameLength sets the longest file name that is not flagged unusable.
func WithMaxNameLength(n int) Option {
	return optFunc(func(cfg *config) error {
		if n < MinMaxNameLength || n > MaxMaxNameLength {
			return fmt.Errorf("fsstream: max name length %d out of range [%d, %d]", n, MinMaxNameLength, MaxMaxNameLength)
		}
		cfg.maxNameLength = n

		return nil
	})
}

// WithScanDepth sets how many directory levels a listing descends, counting the start directory.
func WithScanDepth(depth int) Option {
	return optFunc(func(cfg *config) error {
		if depth < MinScanDepth || depth > MaxScanDepth {
			return fmt.Errorf("fsstream: scan depth %d out of range [%d, %d]", depth, MinScanDepth, MaxScanDepth)
		}
		cfg.scanDepth = depth

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
