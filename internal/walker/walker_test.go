package walker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bethropolis/promptpack/internal/ignore"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func fixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		".gitignore":              "*.log\nbuild/\n",
		"repo_ignore":             "secret.txt\n",
		"a.go":                    "package a\n",
		"b.txt":                   "notes",
		"debug.log":               "noise",
		"secret.txt":              "hunter2",
		"build/out.js":            "bundle",
		"node_modules/x/index.js": "module.exports = 1",
		".git/config":             "[core]",
		"src/main.go":             "package main",
		"src/.hidden":             "x",
		"sub/.gitignore":          "*.tmp\n",
		"sub/keep.go":             "package sub",
		"sub/x.tmp":               "scratch",
	})
	return root
}

func relPaths(t *testing.T, root string, entries []FileEntry) []string {
	t.Helper()
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		rel, err := filepath.Rel(root, e.Path)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func TestScanDefaults(t *testing.T) {
	root := fixture(t)

	res, err := Scan(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []string{
		".gitignore",
		"a.go",
		"b.txt",
		"repo_ignore",
		"src/.hidden",
		"src/main.go",
		"sub/.gitignore",
		"sub/keep.go",
		"sub/x.tmp",
	}, relPaths(t, root, res.Entries))

	for _, e := range res.Entries {
		assert.True(t, filepath.IsAbs(e.Path), e.Path)
		require.NotNil(t, e.Size, e.Path)
	}
	assert.Equal(t, int64(len("package a\n")), *res.Entries[1].Size)

	assert.Contains(t, res.Skipped, SkippedItem{Path: "build", Reason: ReasonIgnoredRule, IsDir: true})
	assert.Contains(t, res.Skipped, SkippedItem{Path: "debug.log", Reason: ReasonIgnoredRule})
	assert.Contains(t, res.Skipped, SkippedItem{Path: "secret.txt", Reason: ReasonIgnoredRule})
	assert.Contains(t, res.Skipped, SkippedItem{Path: ".git", Reason: ReasonIgnoredRule, IsDir: true})
	assert.Contains(t, res.Skipped, SkippedItem{Path: "node_modules/x", Reason: ReasonIgnoredRule, IsDir: true})
}

func TestScanHiddenAndNested(t *testing.T) {
	root := fixture(t)

	res, err := Scan(context.Background(), root, WithHiddenIgnore(true), WithNestedGitignore(true))
	require.NoError(t, err)

	assert.Equal(t, []string{"a.go", "b.txt", "repo_ignore", "src/main.go", "sub/keep.go"}, relPaths(t, root, res.Entries))
	assert.Contains(t, res.Skipped, SkippedItem{Path: "sub/x.tmp", Reason: ReasonIgnoredNested})
	assert.Contains(t, res.Skipped, SkippedItem{Path: "src/.hidden", Reason: ReasonIgnoredHidden})
}

func TestScanFilters(t *testing.T) {
	root := fixture(t)

	res, err := Scan(context.Background(), root, WithExtensions([]string{".GO"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"a.go", "src/main.go", "sub/keep.go"}, relPaths(t, root, res.Entries))

	res, err = Scan(context.Background(), root, WithCustomRules([]string{" *.txt ", "", "src/"}))
	require.NoError(t, err)
	assert.Equal(t, []string{".gitignore", "a.go", "repo_ignore", "sub/.gitignore", "sub/keep.go", "sub/x.tmp"}, relPaths(t, root, res.Entries))
}

func TestScanProgress(t *testing.T) {
	root := fixture(t)

	var dirs []string
	_, err := Scan(context.Background(), root, WithProgress(func(stats ProgressStats) {
		dirs = append(dirs, stats.CurrentDir)
	}))
	require.NoError(t, err)
	// node_modules itself is entered; "node_modules/**" prunes its children
	assert.Equal(t, []string{"node_modules", "src", "sub"}, dirs)
}

func TestScanRootErrors(t *testing.T) {
	root := fixture(t)

	_, err := Scan(context.Background(), filepath.Join(root, "a.go"))
	assert.ErrorIs(t, err, ErrNotDirectory)

	_, err = Scan(context.Background(), filepath.Join(root, "missing"))
	assert.ErrorIs(t, err, ErrNotDirectory)

	_, err = Scan(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotDirectory)
}

func TestScanCancelled(t *testing.T) {
	root := fixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Scan(ctx, root)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Empty(t, res.Entries)
}

func TestScanUnreadableSubdirectory(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for this user")
	}
	root := fixture(t)
	locked := filepath.Join(root, "locked")
	writeTree(t, root, map[string]string{"locked/inner.go": "package locked"})
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	res, err := Scan(context.Background(), root)
	require.NoError(t, err)

	assert.NotContains(t, relPaths(t, root, res.Entries), "locked/inner.go")
	assert.Contains(t, relPaths(t, root, res.Entries), "src/main.go")
	assert.Contains(t, res.Skipped, SkippedItem{Path: "locked", Reason: ReasonSkippedPermError, IsDir: true})
}

func TestScanKeepsEntryWhenStatFails(t *testing.T) {
	root := fixture(t)
	broken := filepath.Join(root, "a.go")

	orig := statFile
	statFile = func(path string) (os.FileInfo, error) {
		if path == broken {
			return nil, errors.New("stat failed")
		}
		return orig(path)
	}
	t.Cleanup(func() { statFile = orig })

	res, err := Scan(context.Background(), root)
	require.NoError(t, err)

	var found bool
	for _, e := range res.Entries {
		if e.Path == broken {
			found = true
			assert.Nil(t, e.Size)
		} else {
			assert.NotNil(t, e.Size, e.Path)
		}
	}
	assert.True(t, found, "a.go must still be listed")
}

func TestScanCaseSensitiveRules(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"Notes.TXT": "x", "keep.go": "x"})

	res, err := Scan(context.Background(), root, WithCustomRules([]string{"*.txt"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"keep.go"}, relPaths(t, root, res.Entries))

	res, err = Scan(context.Background(), root,
		WithCustomRules([]string{"*.txt"}),
		WithEngineOptions(ignore.WithIgnoreCase(false)))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Notes.TXT", "keep.go"}, relPaths(t, root, res.Entries))
}

func TestLoadEngine(t *testing.T) {
	root := fixture(t)

	engine := LoadEngine(root, []string{"*.md"}, nil)

	res, err := engine.Test("debug.log")
	require.NoError(t, err)
	require.NotNil(t, res.Rule)
	assert.Equal(t, ".gitignore:1", res.Rule.Location())

	ignored, err := engine.Ignores("README.md")
	require.NoError(t, err)
	assert.True(t, ignored)

	empty := LoadEngine(t.TempDir(), nil, nil)
	assert.Len(t, empty.Rules(), 2)
}

func TestSkippedTracker(t *testing.T) {
	tracker := NewSkippedTracker(2)
	tracker.Track("a", ReasonIgnoredRule, false)
	tracker.Track("b/", ReasonIgnoredRule, true)
	tracker.Track("c", ReasonFilteredExtension, false)

	items := tracker.Items()
	assert.Len(t, items, 3)
	assert.Equal(t, 2, tracker.Count(ReasonIgnoredRule))

	items[0].Path = "changed"
	assert.Equal(t, "a", tracker.Items()[0].Path)
}
