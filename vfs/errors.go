package vfs

import "errors"

var (
	// ErrNotMounted indicates that no backing store is mounted at or above the requested path.
	ErrNotMounted = errors.New("vfs: not mounted")

	// ErrAlreadyMounted indicates that a backing store is already mounted at the requested path.
	ErrAlreadyMounted = errors.New("vfs: already mounted")

	// ErrInvalidMountPath indicates that the mount path is not an absolute, clean path.
	ErrInvalidMountPath = errors.New("vfs: invalid mount path")

	// ErrReadOnly indicates a write operation on a read-only mount.
	ErrReadOnly = errors.New("vfs: read-only file system")
)

var (
	// ErrDirNotFound indicates that a directory does not exist or is not a directory.
	ErrDirNotFound = errors.New("vfs: directory not found")

	// ErrIsDir indicates that a file operation was attempted on a directory.
	ErrIsDir = errors.New("vfs: is a directory")
)
