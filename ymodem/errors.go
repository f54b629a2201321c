package ymodem

import "errors"

var (
	// ErrCancelled indicates that the sender cancelled the transfer.
	ErrCancelled = errors.New("ymodem: transfer cancelled by sender")

	// ErrTooManyErrors indicates that the error limit was exceeded.
	ErrTooManyErrors = errors.New("ymodem: too many errors")

	// ErrCreateFailed indicates that the destination file could not be created.
	ErrCreateFailed = errors.New("ymodem: file create failed")

	// ErrWriteFailed indicates that a payload could not be written.
	ErrWriteFailed = errors.New("ymodem: file write failed")

	// ErrReset indicates that the transfer was aborted by a soft reset.
	ErrReset = errors.New("ymodem: transfer aborted by reset")

	// ErrInvalidHeader indicates a file header packet without a name terminator.
	ErrInvalidHeader = errors.New("ymodem: invalid file header")
)
