package ignore

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// reNotRelative matches "/abs", "./x", "../x", "." and "..".
	reNotRelative = regexp.MustCompile(`^\.*/|^\.+$`)
	// reWindowsAbsolute matches drive-rooted paths such as "C:/x".
	reWindowsAbsolute = regexp.MustCompile(`(?i)^[a-z]:/`)
	// reVerbatim matches paths that must not have their backslashes rewritten.
	reVerbatim = regexp.MustCompile(`^\\\\\?\\|["<>|\x00-\x1f]`)
)

// convert rewrites Windows separators to "/"
func (e *Engine) convert(path string) string {
	if !e.windowsPaths || reVerbatim.MatchString(path) {
		return path
	}
	return strings.ReplaceAll(path, `\`, "/")
}

func (e *Engine) isNotRelative(path string) bool {
	if reNotRelative.MatchString(path) {
		return true
	}
	return e.windowsPaths && reWindowsAbsolute.MatchString(path)
}

// checkPath converts and validates a caller-supplied path
func (e *Engine) checkPath(original string) (string, error) {
	path := e.convert(original)
	if path == "" {
		return "", fmt.Errorf("%w: path must not be empty", ErrInvalidPath)
	}
	if e.strictPathCheck && e.isNotRelative(path) {
		return "", fmt.Errorf("%w: path should be relative to the root, got %q", ErrInvalidPath, original)
	}
	return path, nil
}

// splitPath splits a slash path into its non-empty segments
func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	segments := parts[:0]
	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}
