package app

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bethropolis/promptpack/internal/prompt"
	"github.com/bethropolis/promptpack/internal/tokens"
	"github.com/bethropolis/promptpack/internal/walker"
)

// syncBuffer is a bytes.Buffer safe for the watch goroutines
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func fixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		".gitignore":  "*.log\n",
		"main.go":     "package main\n",
		"pkg/util.go": "package pkg\n",
		"debug.log":   "noise\n",
		"README.md":   "# R\n",
	}
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr syncBuffer
	cmd := NewRootCommand(&stdout, &stderr)
	cmd.SetArgs(append(args, "--no-color"))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestScanCommand(t *testing.T) {
	dir := fixture(t)

	out, _, err := run(t, "scan", dir)
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		filepath.Base(dir),
		"├── pkg",
		"│   └── util.go",
		"├── .gitignore",
		"├── README.md",
		"└── main.go",
		"",
	}, "\n"), out)

	out, _, err = run(t, "scan", dir, "--flat", "--search", "UTIL")
	require.NoError(t, err)
	assert.Equal(t, "pkg/util.go\n", out)

	out, _, err = run(t, "scan", dir, "--flat", "--ext", "md", "--hidden")
	require.NoError(t, err)
	assert.Equal(t, "README.md\n", out)
}

func TestScanCommandShowSkipped(t *testing.T) {
	dir := fixture(t)

	_, errOut, err := run(t, "scan", dir, "--show-skipped")
	require.NoError(t, err)
	assert.Contains(t, errOut, "Skipped FILE: debug.log")
	assert.Contains(t, errOut, string(walker.ReasonIgnoredRule))
}

func TestScanCommandBadDirectory(t *testing.T) {
	_, _, err := run(t, "scan", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.ErrorIs(t, err, walker.ErrNotDirectory)
}

func TestCheckCommand(t *testing.T) {
	dir := fixture(t)

	out, _, err := run(t, "check", dir, "debug.log", "main.go", "pkg/", "../escape")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, `debug.log: ignored by .gitignore:1 "*.log"`, lines[0])
	assert.Equal(t, "main.go: not ignored", lines[1])
	assert.Equal(t, "pkg/: not ignored", lines[2])
	assert.Contains(t, lines[3], "invalid path")

	out, _, err = run(t, "check", dir, "--ignore", "!debug.log", "debug.log", "node_modules/x.js")
	require.NoError(t, err)
	assert.Contains(t, out, "debug.log: not ignored (re-included by a negated rule)")
	assert.Contains(t, out, "node_modules/x.js: ignored by")
}

func TestCheckCommandUsesScanRules(t *testing.T) {
	dir := fixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pkg", ".gitignore"), []byte("*.tmp\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Notes.LOG"), []byte("x"), 0o644))

	out, _, err := run(t, "check", dir, "Notes.LOG", "pkg/x.tmp", "prompt.txt")
	require.NoError(t, err)
	assert.Contains(t, out, `Notes.LOG: ignored by .gitignore:1 "*.log"`)
	assert.Contains(t, out, "pkg/x.tmp: not ignored")
	assert.Contains(t, out, "prompt.txt: not ignored")

	out, _, err = run(t, "check", dir, "--case-sensitive", "--nested-gitignore",
		"-o", filepath.Join(dir, "prompt.txt"), "Notes.LOG", "pkg/x.tmp", "prompt.txt")
	require.NoError(t, err)
	assert.Contains(t, out, "Notes.LOG: not ignored")
	assert.Contains(t, out, "pkg/x.tmp: ignored by nested .gitignore")
	assert.Contains(t, out, `prompt.txt: ignored by "/prompt.txt"`)
}

func TestScanCommandCaseSensitive(t *testing.T) {
	dir := fixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Notes.LOG"), []byte("x"), 0o644))

	out, _, err := run(t, "scan", dir, "--flat")
	require.NoError(t, err)
	assert.NotContains(t, out, "Notes.LOG")

	out, _, err = run(t, "scan", dir, "--flat", "--case-sensitive")
	require.NoError(t, err)
	assert.Contains(t, out, "Notes.LOG\n")
}

func TestGenerateCommand(t *testing.T) {
	dir := fixture(t)

	out, errOut, err := run(t, "generate", dir, "-s", "main.go", "-s", "pkg", "-i", "Explain", "--tokenizer", "approx")
	require.NoError(t, err)

	want := strings.Join([]string{
		"<file_map>",
		filepath.Base(dir),
		"├── pkg",
		"│   └── util.go",
		"└── main.go",
		"</file_map>",
		"",
		"<file_contents>",
		"File: main.go",
		"```go",
		"package main",
		"```",
		"",
		"File: pkg/util.go",
		"```go",
		"package pkg",
		"```",
		"</file_contents>",
		"",
		"<user_instructions>",
		"Explain",
		"</user_instructions>",
		"",
	}, "\n")
	assert.Equal(t, want, out)
	assert.Contains(t, errOut, "Tokens (approx):")
	assert.NotContains(t, errOut, "Warning:")
}

func TestGenerateCommandPartialFailure(t *testing.T) {
	dir := fixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blob.bin"), []byte{0x7f, 'E', 0, 1}, 0o644))

	out, errOut, err := run(t, "generate", dir, "-s", "blob.bin", "-s", "main.go", "--tokenizer", "approx")
	require.NoError(t, err)
	assert.Contains(t, out, "File: blob.bin\n[Error: BinaryFile: ")
	assert.Contains(t, out, "File: main.go\n```go\npackage main\n```")
	assert.Contains(t, out, "No instruction provided.")
	assert.Contains(t, errOut, "Warning: 1 file could not be included:")
}

func TestGenerateCommandJSONFile(t *testing.T) {
	dir := fixture(t)
	outFile := filepath.Join(dir, "prompt.json")

	out, _, err := run(t, "generate", dir, "--json", "-o", outFile, "-t", "review", "--tokenizer", "approx")
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	var art prompt.Artifact
	require.NoError(t, json.Unmarshal(data, &art))

	assert.Contains(t, art.FormattedPrompt, prompt.Templates["review"])
	assert.Empty(t, art.Errors)
	var paths []string
	for _, d := range art.FileDetails {
		paths = append(paths, d.Path)
	}
	assert.Equal(t, []string{"pkg/util.go", ".gitignore", "README.md", "main.go", prompt.InstructionKey}, paths)
}

func TestGenerateCommandErrors(t *testing.T) {
	dir := fixture(t)

	_, _, err := run(t, "generate", dir, "-s", "nothing*.rs")
	assert.ErrorContains(t, err, "matched no file")

	_, _, err = run(t, "generate", dir, "-t", "limerick")
	assert.ErrorContains(t, err, "unknown template")

	_, _, err = run(t, "generate", dir, "--tokenizer", "gpt2")
	assert.ErrorContains(t, err, "unknown tokenizer")
}

func TestGenerateUsesConfigFile(t *testing.T) {
	dir := fixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".promptpack.yaml"),
		[]byte("select: [main.go]\ntokenizer: approx\ninstruction: From file\n"), 0o644))

	out, _, err := run(t, "generate", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "File: main.go")
	assert.NotContains(t, out, "File: README.md")
	assert.Contains(t, out, "<user_instructions>\nFrom file\n</user_instructions>")

	out, _, err = run(t, "generate", dir, "-i", "From flag")
	require.NoError(t, err)
	assert.Contains(t, out, "<user_instructions>\nFrom flag\n</user_instructions>")
}

func TestTemplatesCommand(t *testing.T) {
	out, _, err := run(t, "templates")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, len(prompt.Templates))
	assert.True(t, strings.HasPrefix(lines[0], "bugfix "))
}

func TestStateFunctionsDoNotMutate(t *testing.T) {
	dir := fixture(t)
	ctx := context.Background()

	scanned, err := Scan(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 0, scanned.Selection.Len())
	assert.Equal(t, 4, scanned.Tree.Len())

	all, err := Select(scanned, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, all.Selection.Len())
	assert.Equal(t, 0, scanned.Selection.Len())

	some, err := Select(scanned, []string{"*.go"})
	require.NoError(t, err)
	assert.Equal(t, []string{"pkg/util.go", "main.go"}, some.Selection.Keys())

	done, err := Generate(ctx, some, &prompt.Assembler{Counter: tokens.Approx{}}, "Go")
	require.NoError(t, err)
	assert.Nil(t, some.Artifact)
	require.NotNil(t, done.Artifact)
	assert.Equal(t, "Go", done.Instruction)
	assert.Len(t, done.Artifact.FileDetails, 3)

	reselected, err := Select(done, []string{"README.md"})
	require.NoError(t, err)
	assert.Nil(t, reselected.Artifact)
	assert.NotNil(t, done.Artifact)
}

func TestLineDiff(t *testing.T) {
	tests := []struct {
		name            string
		before, after   string
		added, removed  int
	}{
		{"identical", "a\nb\n", "a\nb\n", 0, 0},
		{"first build", "", "a\nb\nc", 3, 0},
		{"replace one", "a\nb\n", "a\nc\nd\n", 2, 1},
		{"cleared", "a\nb\n", "", 0, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			added, removed := lineDiff(tt.before, tt.after)
			assert.Equal(t, tt.added, added)
			assert.Equal(t, tt.removed, removed)
		})
	}
}

func TestWatchFilter(t *testing.T) {
	dir := fixture(t)
	out := filepath.Join(dir, "prompt.txt")
	f := newWatchFilter(dir, out, true, walker.LoadEngine(dir, []string{"build/"}, nil))

	assert.True(t, f.skipEvent(out, false))
	assert.True(t, f.skipEvent(out+".lock", false))
	assert.True(t, f.skipEvent(filepath.Join(dir, ".prompt.txt.tmp-123"), false))
	assert.True(t, f.skipEvent(filepath.Join(dir, "debug.log"), false))
	assert.True(t, f.skipEvent(filepath.Join(dir, "main.go.swp"), false))
	assert.True(t, f.skipEvent(filepath.Join(dir, ".env"), false))
	assert.True(t, f.skipEvent(filepath.Join(dir, "node_modules", "x", "index.js"), false))
	assert.True(t, f.skipEvent(filepath.Join(filepath.Dir(dir), "outside.go"), false))
	assert.True(t, f.skipEvent(filepath.Join(dir, "build"), true))
	assert.True(t, f.skipEvent(filepath.Join(dir, "build", "out.js"), false))

	assert.False(t, f.skipEvent(filepath.Join(dir, "build"), false))
	assert.False(t, f.skipEvent(filepath.Join(dir, "main.go"), false))
	assert.False(t, f.skipEvent(filepath.Join(dir, "pkg"), true))
	assert.False(t, f.skipEvent(filepath.Join(dir, "pkg", "new.go"), false))
}

func TestWatchRegeneratesOnChange(t *testing.T) {
	dir := fixture(t)
	outFile := filepath.Join(dir, "prompt.txt")

	var stdout, stderr syncBuffer
	cmd := NewRootCommand(&stdout, &stderr)
	cmd.SetArgs([]string{"watch", dir, "-s", "main.go", "-o", outFile, "--debounce", "50ms", "--tokenizer", "approx", "--no-color"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	readOut := func() string {
		data, _ := os.ReadFile(outFile)
		return string(data)
	}

	require.Eventually(t, func() bool {
		return strings.Contains(readOut(), "package main\n")
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n\nfunc main() {}\n"), 0o644))

	require.Eventually(t, func() bool {
		return strings.Contains(readOut(), "func main() {}")
	}, 5*time.Second, 20*time.Millisecond)
	require.Eventually(t, func() bool {
		return strings.Contains(stderr.String(), "+2/-0 lines")
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
	assert.Regexp(t, `Stopped watching .+ after \d+ builds, \d+ artifacts written\.`, stderr.String())
	assert.NotContains(t, readOut(), "File: prompt.txt")
}
