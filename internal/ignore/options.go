package ignore

import "github.com/bethropolis/promptpack/internal/utils"

// Option functions for configuration
type Option func(*Engine)

// WithIgnoreCase toggles case-insensitive matching (enabled by default)
func WithIgnoreCase(ignoreCase bool) Option {
	return func(e *Engine) {
		e.ignoreCase = ignoreCase
	}
}

// WithAllowRelativePaths disables the strict check that rejects "/abs",
// "./x" and "../x" style paths
func WithAllowRelativePaths(allow bool) Option {
	return func(e *Engine) {
		e.strictPathCheck = !allow
	}
}

// WithWindowsPaths enables backslash to slash conversion and drive-letter
// validation. It defaults to the host platform.
func WithWindowsPaths(enabled bool) Option {
	return func(e *Engine) {
		e.windowsPaths = enabled
	}
}

func WithLogger(logger utils.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}
