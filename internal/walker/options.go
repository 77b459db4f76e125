package walker

import (
	"strings"

	"github.com/bethropolis/promptpack/internal/ignore"
	"github.com/bethropolis/promptpack/internal/utils"
)

// IgnoreFiles are read from the scan root, in this order, when present.
var IgnoreFiles = []string{".gitignore", "repo_ignore"}

// ScanOptions configures Scan
type ScanOptions struct {
	Logger          utils.Logger
	CustomRules     []string
	NestedGitignore bool
	IgnoreHidden    bool
	ExtensionMap    map[string]struct{}
	EngineOptions   []ignore.Option
	ProgressFn      ProgressCallback
}

// ProgressCallback receives a snapshot after every directory is read
type ProgressCallback func(stats ProgressStats)

// ProgressStats holds running counters of a scan
type ProgressStats struct {
	TotalFiles  int64  // Files seen
	Included    int64  // Files that passed every filter
	TotalDirs   int64  // Directories seen
	SkippedDirs int64  // Directories pruned
	CurrentDir  string // Directory just read (relative)
}

func defaultOptions() ScanOptions {
	return ScanOptions{
		Logger: utils.NoopLogger{},
	}
}

// Option is a functional option for configuring a Scan
type Option func(*ScanOptions)

// WithLogger sets a custom logger for the walker
func WithLogger(logger utils.Logger) Option {
	return func(opts *ScanOptions) {
		opts.Logger = utils.OrNoop(logger)
	}
}

// WithCustomRules appends extra ignore patterns after the ignore files
func WithCustomRules(patterns []string) Option {
	return func(opts *ScanOptions) {
		for _, p := range patterns {
			if p = strings.TrimSpace(p); p != "" {
				opts.CustomRules = append(opts.CustomRules, p)
			}
		}
	}
}

// WithNestedGitignore also honors .gitignore files found below the root
func WithNestedGitignore(enabled bool) Option {
	return func(opts *ScanOptions) {
		opts.NestedGitignore = enabled
	}
}

// WithHiddenIgnore skips every file or directory whose name starts with "."
func WithHiddenIgnore(enabled bool) Option {
	return func(opts *ScanOptions) {
		opts.IgnoreHidden = enabled
	}
}

// WithExtensions restricts files to these extensions (with or without the dot,
// case-insensitive). An empty list disables the filter.
func WithExtensions(extensions []string) Option {
	return func(opts *ScanOptions) {
		extMap := make(map[string]struct{}, len(extensions))
		for _, ext := range extensions {
			ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
			if ext != "" {
				extMap[ext] = struct{}{}
			}
		}
		if len(extMap) == 0 {
			extMap = nil
		}
		opts.ExtensionMap = extMap
	}
}

// WithEngineOptions passes options to the ignore engine built for the scan
func WithEngineOptions(options ...ignore.Option) Option {
	return func(opts *ScanOptions) {
		opts.EngineOptions = append(opts.EngineOptions, options...)
	}
}

// WithProgress adds a progress callback function
func WithProgress(fn ProgressCallback) Option {
	return func(o *ScanOptions) {
		o.ProgressFn = fn
	}
}
