package ignore

import "errors"

var (
	// ErrInvalidPath is returned for empty, absolute or dot-only paths.
	ErrInvalidPath = errors.New("invalid path")
	// ErrInvalidPattern marks a pattern line that was dropped.
	ErrInvalidPattern = errors.New("invalid pattern")
)
