package errors

// Package errors provides sentinel errors for document discovery and processing.
// They are wrapped into classified filesystem errors so callers can match on
// either the sentinel or the category.

import "errors"

var (
	// ErrPathNotFound indicates a path given to a run does not exist.
	ErrPathNotFound = errors.New("document path not found")

	// ErrDirWalkFailed indicates filesystem traversal of a directory failed.
	ErrDirWalkFailed = errors.New("document directory walk failed")

	// ErrFileReadFailed indicates reading a markdown document failed.
	ErrFileReadFailed = errors.New("document read failed")

	// ErrFileWriteFailed indicates writing a rewritten document back failed.
	ErrFileWriteFailed = errors.New("document write failed")

	// ErrInvalidRelativePath indicates calculating a path relative to the walk root failed.
	ErrInvalidRelativePath = errors.New("invalid relative path calculation")

	// ErrInvalidPattern indicates an include or exclude glob did not compile.
	ErrInvalidPattern = errors.New("invalid file pattern")
)
