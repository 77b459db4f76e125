package ignore

import (
	"regexp"
	"runtime"

	"github.com/bethropolis/promptpack/internal/utils"
)

var reSplitLines = regexp.MustCompile(`\r?\n`)

// New creates an empty Engine
func New(opts ...Option) *Engine {
	// Initialize with default configuration
	e := &Engine{
		ignoreCase:      true,
		strictPathCheck: true,
		windowsPaths:    runtime.GOOS == "windows",
		logger:          &utils.NoopLogger{},
	}

	// Apply functional options
	for _, opt := range opts {
		opt(e)
	}

	e.rules = newRuleSet(e.ignoreCase)
	e.resetCache()
	return e
}

// Add appends patterns. Every argument may hold several newline-separated
// lines; blank lines, comments and malformed patterns are dropped.
func (e *Engine) Add(patterns ...string) *Engine {
	for _, block := range patterns {
		e.addLines("", block)
	}
	e.resetCache()
	return e
}

// AddSource appends the lines of an ignore file, remembering source and
// line number on each compiled pattern
func (e *Engine) AddSource(source, content string) *Engine {
	e.addLines(source, content)
	e.resetCache()
	return e
}

// AddEngine appends every rule of other after the existing ones
func (e *Engine) AddEngine(other *Engine) *Engine {
	if other != nil {
		e.rules.merge(other.rules)
	}
	e.resetCache()
	return e
}

// Rules returns the compiled rules in evaluation order
func (e *Engine) Rules() []*Pattern {
	out := make([]*Pattern, len(e.rules.rules))
	copy(out, e.rules.rules)
	return out
}

func (e *Engine) addLines(source, content string) {
	for i, line := range reSplitLines.Split(content, -1) {
		if line == "" {
			continue
		}
		lineNo := 0
		if source != "" {
			lineNo = i + 1
		}
		if err := e.rules.add(line, source, lineNo); err != nil {
			e.logger.Debug("ignore.Add: dropped pattern: %v", err)
		}
	}
}

// resetCache drops every memoised result; rules only ever grow, so there is
// no partial invalidation
func (e *Engine) resetCache() {
	e.ignoreCache = make(map[string]Result)
	e.testCache = make(map[string]Result)
}
