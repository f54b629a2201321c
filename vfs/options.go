package vfs

import "github.com/arloliu/go-fsstream/logger"

// Option configures an FS.
type Option interface {
	apply(*FS) error
}

type optFunc func(*FS) error

func (f optFunc) apply(v *FS) error {
	return f(v)
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(v *FS) error {
		if l != nil {
			v.logger = l
		}

		return nil
	})
}

// Mode describes how a backing store is mounted.
type Mode struct {
	// Name is a short label of the backing store, e.g. "fatfs" or "littlefs".
	Name string
	// ReadOnly rejects every write, create, delete and format request on the mount.
	ReadOnly bool
}

// MountEvent is passed to the mount and unmount observer chains.
type MountEvent struct {
	Path string
	Mode Mode
}
