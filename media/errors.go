package media

import (
	"errors"

	"github.com/arloliu/go-fsstream/machine"
	"github.com/arloliu/go-fsstream/vfs"
)

var (
	// ErrMountFailed indicates that the card could not be mounted or unmounted.
	ErrMountFailed = errors.New("media: mount failed")

	// ErrNotMounted indicates that no card is mounted.
	ErrNotMounted = errors.New("media: not mounted")

	// ErrFormatFailed indicates that erasing the card failed.
	ErrFormatFailed = errors.New("media: format failed")

	// ErrBusy indicates that the controller state does not allow the request.
	ErrBusy = errors.New("media: busy")
)

// StatusOf maps an error returned by the driver to the status reported to the sender.
func StatusOf(err error) machine.Status {
	switch {
	case err == nil:
		return machine.StatusOK
	case errors.Is(err, ErrNotMounted), errors.Is(err, vfs.ErrNotMounted):
		return machine.StatusFsNotMounted
	case errors.Is(err, ErrBusy):
		return machine.StatusSystemGClock
	case errors.Is(err, vfs.ErrReadOnly):
		return machine.StatusFsReadOnly
	case errors.Is(err, ErrFormatFailed):
		return machine.StatusFsFormatError
	default:
		return machine.StatusFsMountError
	}
}
