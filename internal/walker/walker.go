package walker

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/denormal/go-gitignore"
)

// statFile sizes included files; tests replace it
var statFile = os.Stat

// Scan walks root and returns every file that survives the ignore rules.
// Directories are tested with a trailing "/", so "build/" patterns prune
// whole subtrees. A subdirectory that cannot be read is logged, recorded in
// Result.Skipped and omitted; only a bad root or a cancelled context fail
// the scan.
func Scan(ctx context.Context, root string, opts ...Option) (*Result, error) {
	startTime := time.Now()

	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	log := options.Logger

	if root == "" {
		return nil, fmt.Errorf("walker: %w: empty root", ErrNotDirectory)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("walker: failed to get absolute path for '%s': %w", root, err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("walker: %w: %w", ErrNotDirectory, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("walker: %w: %s", ErrNotDirectory, absRoot)
	}

	engine := LoadEngine(absRoot, options.CustomRules, log, options.EngineOptions...)

	var nested gitignore.GitIgnore
	if options.NestedGitignore {
		nested, err = gitignore.NewRepository(absRoot)
		if err != nil {
			log.Warn("Could not load nested .gitignore files from '%s': %v", absRoot, err)
			nested = nil
		}
	}

	tracker := NewSkippedTracker(64)
	entries := make([]FileEntry, 0, 128)
	var stats ProgressStats

	log.Debug("walker.Scan started. Root: %s", absRoot)

	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		isDir := d != nil && d.IsDir()

		relativePath, relErr := filepath.Rel(absRoot, path)
		if relErr != nil {
			log.Error("Path calculation failed for %q: %v", path, relErr)
			tracker.Track(path, ReasonSkippedPathError, isDir)
			return nil
		}
		relativePath = filepath.ToSlash(relativePath)

		if err != nil {
			if relativePath == "." {
				return err
			}
			reason := ReasonSkippedWalkError
			if os.IsPermission(err) {
				reason = ReasonSkippedPermError
			}
			log.Warn("Could not read %s: %v", path, err)
			tracker.Track(relativePath, reason, isDir)
			if isDir {
				stats.SkippedDirs++
				return filepath.SkipDir
			}
			return nil
		}

		if relativePath == "." {
			return nil
		}

		if skip, reason := shouldSkip(relativePath, d.Name(), isDir, options, engine, nested); skip {
			log.Debug("Skipping %q: %s", relativePath, reason)
			tracker.Track(relativePath, reason, isDir)
			if isDir {
				stats.SkippedDirs++
				return filepath.SkipDir
			}
			return nil
		}

		if isDir {
			stats.TotalDirs++
			if options.ProgressFn != nil {
				stats.CurrentDir = relativePath
				options.ProgressFn(stats)
			}
			return nil
		}

		stats.TotalFiles++
		if !d.Type().IsRegular() {
			tracker.Track(relativePath, ReasonSkippedNotRegular, false)
			return nil
		}

		if options.ExtensionMap != nil {
			ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(relativePath), "."))
			if _, allowed := options.ExtensionMap[ext]; !allowed {
				tracker.Track(relativePath, ReasonFilteredExtension, false)
				return nil
			}
		}

		entry := FileEntry{Path: path}
		if fi, statErr := statFile(path); statErr != nil {
			log.Warn("Could not get stats for file %s: %v", path, statErr)
		} else {
			size := fi.Size()
			entry.Size = &size
		}
		entries = append(entries, entry)
		stats.Included++
		return nil
	})

	res := &Result{Entries: entries, Skipped: tracker.Items()}

	log.Debug("walker.Scan: %d files included, %d skipped in %s",
		len(res.Entries), len(res.Skipped), time.Since(startTime).Round(time.Millisecond))

	if walkErr != nil {
		return res, fmt.Errorf("walker: scan of %s interrupted: %w", absRoot, walkErr)
	}
	return res, nil
}

// shouldSkip applies the hidden rule, the ignore engine and the nested
// .gitignore repository, in that order
func shouldSkip(relativePath, name string, isDir bool, options ScanOptions, engine ignoreTester, nested gitignore.GitIgnore) (bool, SkippedReason) {
	if options.IgnoreHidden && strings.HasPrefix(name, ".") {
		return true, ReasonIgnoredHidden
	}

	testPath := relativePath
	if isDir {
		testPath += "/"
	}
	ignored, err := engine.Ignores(testPath)
	if err != nil {
		return true, ReasonSkippedPathError
	}
	if ignored {
		return true, ReasonIgnoredRule
	}

	if nested != nil {
		if m := nested.Relative(relativePath, isDir); m != nil && m.Ignore() {
			return true, ReasonIgnoredNested
		}
	}
	return false, ""
}

// ignoreTester is the part of *ignore.Engine the walker needs
type ignoreTester interface {
	Ignores(path string) (bool, error)
}
