// Package setup turns the resolved configuration into walker options and a
// prompt assembler
package setup

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/bethropolis/promptpack/internal/config"
	"github.com/bethropolis/promptpack/internal/filelock"
	"github.com/bethropolis/promptpack/internal/ignore"
	"github.com/bethropolis/promptpack/internal/utils"
	"github.com/bethropolis/promptpack/internal/walker"
)

// InfoLogger wraps the Info method for status updates
type InfoLogger func(format string, args ...interface{})

// ConfigureWalker returns the scan options described by cfg. Progress lines
// go to progressOut when cfg.ShowProgress is set.
func ConfigureWalker(cfg *config.Config, log utils.Logger, infoLog InfoLogger, progressOut io.Writer) []walker.Option {
	log = utils.OrNoop(log)

	opts := []walker.Option{
		walker.WithLogger(log),
		walker.WithHiddenIgnore(cfg.IgnoreHidden),
		walker.WithNestedGitignore(cfg.NestedGitignore),
		walker.WithEngineOptions(EngineOptions(cfg)...),
	}

	if len(cfg.CustomIgnore) > 0 {
		infoLog("Using custom ignore patterns: %v", cfg.CustomIgnore)
	}
	if rules := IgnoreRules(cfg); len(rules) > 0 {
		opts = append(opts, walker.WithCustomRules(rules))
	}
	if cfg.CaseSensitive {
		log.Debug("Ignore patterns are case-sensitive")
	}

	if exts := cleanExtensions(cfg.Extensions); len(exts) > 0 {
		opts = append(opts, walker.WithExtensions(exts))
		infoLog("Filtering enabled. Only including extensions: .%s", strings.Join(exts, ", ."))
	} else {
		log.Debug("No extension filtering (including all file types).")
	}

	if cfg.IgnoreHidden {
		infoLog("Ignoring hidden files/directories (starting with '.').")
	}
	if cfg.NestedGitignore {
		log.Debug("Nested .gitignore files enabled")
	}

	if cfg.ShowProgress && progressOut != nil {
		log.Debug("Progress display enabled")
		opts = append(opts, walker.WithProgress(func(stats walker.ProgressStats) {
			dir := stats.CurrentDir
			if len(dir) > 40 {
				dir = "..." + dir[len(dir)-37:]
			}
			// carriage return overwrites the previous line
			fmt.Fprintf(progressOut, "\rScanning: %-40s | Files: %d/%d | Dirs: %d",
				dir, stats.Included, stats.TotalFiles, stats.TotalDirs)
		}))
	}

	return opts
}

// EngineOptions are the ignore engine settings described by cfg
func EngineOptions(cfg *config.Config) []ignore.Option {
	return []ignore.Option{ignore.WithIgnoreCase(!cfg.CaseSensitive)}
}

// IgnoreRules are the custom patterns followed by the rules that exclude
// the output file
func IgnoreRules(cfg *config.Config) []string {
	return append(append([]string(nil), cfg.CustomIgnore...), outputRules(cfg)...)
}

// outputRules keeps the output file and its lock out of the scan when they
// live below the root
func outputRules(cfg *config.Config) []string {
	if cfg.OutputFile == "" {
		return nil
	}
	root, err := filepath.Abs(cfg.RootDir)
	if err != nil {
		return nil
	}
	out, err := filepath.Abs(cfg.OutputFile)
	if err != nil {
		return nil
	}
	rel, err := filepath.Rel(root, out)
	if err != nil {
		return nil
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return nil
	}
	rule := "/" + escapePattern(rel)
	return []string{rule, rule + filelock.LockSuffix}
}

// escapePattern quotes the glob characters of a literal file name
func escapePattern(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch r {
		case '*', '?', '[', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func cleanExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		clean := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(ext), ".")))
		if clean != "" {
			out = append(out, clean)
		}
	}
	return out
}
