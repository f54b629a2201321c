package fsstream

import (
	"errors"

	"github.com/arloliu/go-fsstream/machine"
	"github.com/arloliu/go-fsstream/vfs"
)

var (
	// ErrNotMounted indicates that no file system is mounted at the root.
	ErrNotMounted = errors.New("fsstream: file system not mounted")

	// ErrBusy indicates that the controller is not idle or in check mode.
	ErrBusy = errors.New("fsstream: system busy")

	// ErrOpenFailed indicates that the file could not be opened for streaming.
	ErrOpenFailed = errors.New("fsstream: file open failed")

	// ErrReadOnly indicates a modification request on a read-only file system.
	ErrReadOnly = errors.New("fsstream: file system is read only")

	// ErrDeleteFailed indicates that a file could not be deleted.
	ErrDeleteFailed = errors.New("fsstream: file delete failed")

	// ErrListFailed indicates that a directory could not be listed.
	ErrListFailed = errors.New("fsstream: directory listing failed")
)

// StatusOf maps an error returned by this package to the status reported to the sender.
func StatusOf(err error) machine.Status {
	switch {
	case err == nil:
		return machine.StatusOK
	case errors.Is(err, ErrNotMounted), errors.Is(err, vfs.ErrNotMounted):
		return machine.StatusFsNotMounted
	case errors.Is(err, ErrBusy):
		return machine.StatusSystemGClock
	case errors.Is(err, ErrReadOnly), errors.Is(err, vfs.ErrReadOnly):
		return machine.StatusFsReadOnly
	case errors.Is(err, vfs.ErrDirNotFound):
		return machine.StatusFsDirNotFound
	case errors.Is(err, ErrListFailed):
		return machine.StatusFsFailedOpenDir
	case errors.Is(err, ErrOpenFailed):
		return machine.StatusFileOpenFailed
	default:
		return machine.StatusFileReadError
	}
}
