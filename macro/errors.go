package macro

import "errors"

var (
	// ErrStackOverflow indicates that the macro stack is full.
	ErrStackOverflow = errors.New("macro: stack overflow")

	// ErrOpenFailed indicates that a macro file could not be opened.
	ErrOpenFailed = errors.New("macro: file open failed")

	// ErrNotFound indicates that no macro file exists in the search paths.
	ErrNotFound = errors.New("macro: file not found")
)
