package vfs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a path has no corresponding record.
	ErrNotFound = errors.New("path not found")

	// ErrInvalidPath is returned for empty paths or paths containing
	// forbidden characters.
	ErrInvalidPath = errors.New("invalid path")

	// ErrDepthExceeded is returned when a path nests deeper than the
	// configured maximum. It wraps ErrInvalidPath so callers can treat
	// it as part of the invalid-path taxonomy.
	ErrDepthExceeded = fmt.Errorf("%w: depth exceeded", ErrInvalidPath)
)
