// Package ignore provides gitignore-style path exclusion
//
// Patterns are compiled into a pair of regular expressions (a strict one and
// an ancestor-check one) and evaluated in insertion order, so later rules and
// negations ("!pattern") override earlier ones. The Engine memoises results
// per path and short-circuits descendants of ignored directories.
//
// Paths given to the Engine must be relative, slash-separated (backslashes are
// accepted on Windows) and directories should carry a trailing slash.
package ignore

// DefaultPatterns are always excluded when scanning a directory.
var DefaultPatterns = []string{".git", "node_modules/**"}

// NewDefault creates an Engine preloaded with DefaultPatterns
func NewDefault(opts ...Option) *Engine {
	return New(opts...).Add(DefaultPatterns...)
}

// IsPathValid reports whether path would be accepted by a strict Engine
func IsPathValid(path string) bool {
	_, err := New().checkPath(path)
	return err == nil
}

// Ignores is a convenience function that treats a nil engine or an invalid
// path as "not ignored"
func Ignores(engine *Engine, path string) bool {
	if engine == nil {
		return false
	}
	ignored, err := engine.Ignores(path)
	return err == nil && ignored
}
