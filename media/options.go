package media

import (
	"fmt"
	"path"

	"github.com/arloliu/go-fsstream/logger"
)

const (
	// DefaultMountPath is where the card is mounted.
	DefaultMountPath = "/"
	// DefaultName is the mount label of the card.
	DefaultName = "sdcard"
)

type config struct {
	mountPath  string
	name       string
	readOnly   bool
	autoMount  bool
	detectable bool
	logger     logger.Logger
}

func defaultConfig() *config {
	return &config{
		mountPath: DefaultMountPath,
		name:      DefaultName,
		logger:    logger.Component("media"),
	}
}

// Option configures a Driver.
type Option interface {
	apply(*config) error
}

type optFunc func(*config) error

func (f optFunc) apply(cfg *config) error {
	return f(cfg)
}

// WithMountPath sets the absolute path the card is mounted at.
func WithMountPath(p string) Option {
	return optFunc(func(cfg *config) error {
		if p == "" || p[0] != '/' || path.Clean(p) != p {
			return fmt.Errorf("media: invalid mount path %q", p)
		}
		cfg.mountPath = p

		return nil
	})
}

// WithName sets the mount label of the card.
func WithName(name string) Option {
	return optFunc(func(cfg *config) error {
		if name == "" {
			return fmt.Errorf("media: empty name")
		}
		cfg.name = name

		return nil
	})
}

// WithReadOnly mounts the card read-only.
func WithReadOnly(readOnly bool) Option {
	return optFunc(func(cfg *config) error {
		cfg.readOnly = readOnly
		return nil
	})
}

// WithAutoMount mounts the card on the first main loop iteration.
func WithAutoMount(enable bool) Option {
	return optFunc(func(cfg *config) error {
		cfg.autoMount = enable
		return nil
	})
}

// WithDetectable tells the driver that card insertion is signalled through Detect.
func WithDetectable(detectable bool) Option {
	return optFunc(func(cfg *config) error {
		cfg.detectable = detectable
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
