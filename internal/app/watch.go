package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/bethropolis/promptpack/internal/filelock"
	"github.com/bethropolis/promptpack/internal/ignore"
	"github.com/bethropolis/promptpack/internal/regen"
	"github.com/bethropolis/promptpack/internal/setup"
	"github.com/bethropolis/promptpack/internal/walker"
)

// RunWatch generates once, then regenerates after every burst of file
// changes until ctx is done or the configured timeout passes. Only the
// result of the latest change is written; a build superseded by a newer
// change is cancelled.
func (a *App) RunWatch(ctx context.Context) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	root, err := filepath.Abs(a.cfg.RootDir)
	if err != nil {
		return fmt.Errorf("app: resolve %s: %w", a.cfg.RootDir, err)
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return fmt.Errorf("app: %w: %s", walker.ErrNotDirectory, root)
	}

	g, err := a.newGenerator()
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("app: create watcher: %w", err)
	}
	defer watcher.Close()

	engine := walker.LoadEngine(root, setup.IgnoreRules(a.cfg), a.log, setup.EngineOptions(a.cfg)...)
	filter := newWatchFilter(root, a.cfg.OutputFile, a.cfg.IgnoreHidden, engine)
	if err := filter.addRecursive(watcher, root); err != nil {
		return fmt.Errorf("app: watch %s: %w", root, err)
	}

	var previous string
	sched := regen.New(a.cfg.Debounce, func(gen uint64, result any, err error) {
		if err != nil {
			a.log.Error("Regeneration #%d failed: %v", gen, err)
			return
		}
		st := result.(*State)
		if err := a.emit(g, st); err != nil {
			a.log.Error("Regeneration #%d could not be written: %v", gen, err)
			return
		}
		added, removed := lineDiff(previous, st.Artifact.FormattedPrompt)
		previous = st.Artifact.FormattedPrompt
		a.log.Info("Regenerated #%d: %d files, %d tokens, +%d/-%d lines",
			gen, st.Selection.Len(), st.Artifact.TotalTokens(), added, removed)
	})
	defer sched.Stop()

	job := func(ctx context.Context) (any, error) {
		return a.build(ctx, g)
	}

	a.log.Info("Watching %s (debounce %v). Press Ctrl+C to stop.", root, sched.Delay)
	sched.Trigger(job)

	for {
		select {
		case <-ctx.Done():
			a.log.Info("Stopped watching %s after %d builds, %d artifacts written.",
				root, sched.Generation(), g.printer.GetCount())
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			path := filepath.Clean(event.Name)
			isDir := false
			if event.Op&(fsnotify.Remove|fsnotify.Rename) == 0 {
				if info, statErr := os.Stat(path); statErr == nil {
					isDir = info.IsDir()
				}
			}
			if filter.skipEvent(path, isDir) {
				continue
			}
			if isDir && event.Op&fsnotify.Create != 0 {
				if err := filter.addRecursive(watcher, path); err != nil {
					a.log.Warn("Could not watch %s: %v", path, err)
				}
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			a.log.Debug("Change: %s %s", event.Op, path)
			sched.Trigger(job)
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("app: watcher: %w", watchErr)
		}
	}
}

// watchFilter drops events for ignored paths and for promptpack's own output
type watchFilter struct {
	root       string
	hidden     bool
	engine     *ignore.Engine
	ownFiles   map[string]bool
	tempPrefix string
}

func newWatchFilter(root, outputFile string, hidden bool, engine *ignore.Engine) *watchFilter {
	f := &watchFilter{root: root, hidden: hidden, engine: engine, ownFiles: map[string]bool{}}
	if outputFile != "" {
		if abs, err := filepath.Abs(outputFile); err == nil {
			f.ownFiles[abs] = true
			f.ownFiles[abs+filelock.LockSuffix] = true
			f.tempPrefix = filepath.Join(filepath.Dir(abs), "."+filepath.Base(abs)+".tmp-")
		}
	}
	return f
}

func (f *watchFilter) rel(path string) (string, bool) {
	rel, err := filepath.Rel(f.root, path)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}

func (f *watchFilter) ignored(rel string, isDir bool) bool {
	if f.hidden {
		for _, part := range strings.Split(rel, "/") {
			if strings.HasPrefix(part, ".") {
				return true
			}
		}
	}
	if isDir {
		rel += "/"
	}
	ignored, err := f.engine.Ignores(rel)
	return err != nil || ignored
}

// skipEvent reports whether a change to path can be dropped; isDir tests
// path against directory-only rules such as "build/"
func (f *watchFilter) skipEvent(path string, isDir bool) bool {
	if f.ownFiles[path] || (f.tempPrefix != "" && strings.HasPrefix(path, f.tempPrefix)) {
		return true
	}
	base := filepath.Base(path)
	if base == ".DS_Store" || strings.HasSuffix(base, ".swp") || strings.HasSuffix(base, "~") || strings.HasPrefix(base, ".#") {
		return true
	}
	rel, ok := f.rel(path)
	if !ok {
		return true
	}
	return f.ignored(rel, isDir)
}

// addRecursive watches dir and every directory below it that is not ignored
func (f *watchFilter) addRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if rel, ok := f.rel(path); ok && f.ignored(rel, true) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

// lineDiff counts the lines added and removed between two artifacts
func lineDiff(before, after string) (added, removed int) {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 2 * time.Second

	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	for _, d := range diffs {
		n := strings.Count(d.Text, "\n")
		if d.Text != "" && !strings.HasSuffix(d.Text, "\n") {
			n++
		}
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added += n
		case diffmatchpatch.DiffDelete:
			removed += n
		}
	}
	return added, removed
}
