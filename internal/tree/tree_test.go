package tree

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bethropolis/promptpack/internal/walker"
)

func size(n int64) *int64 { return &n }

func TestOrderIndependence(t *testing.T) {
	a := FromPaths("/repo", []string{"b/y.js", "a/x.js", "README.md", "a/sub/z.js"})
	b := FromPaths("/repo", []string{"a/sub/z.js", "README.md", "a/x.js", "b/y.js"})

	assert.Equal(t, a.Lines(), b.Lines())
	assert.Equal(t, []string{
		"├── a",
		"│   ├── sub",
		"│   │   └── z.js",
		"│   └── x.js",
		"├── b",
		"│   └── y.js",
		"└── README.md",
	}, a.Lines())
}

func TestBuildFromEntries(t *testing.T) {
	root := filepath.FromSlash("/repo")
	tr := Build(root, []walker.FileEntry{
		{Path: filepath.Join(root, "src", "main.go"), Size: size(120)},
		{Path: filepath.Join(root, "go.mod"), Size: size(2048)},
		{Path: filepath.Join(root, "src", "util", "strings.go")},
	})

	assert.Equal(t, 3, tr.Len())
	n, ok := tr.Node("src/main.go")
	require.True(t, ok)
	assert.False(t, n.IsDir)
	assert.Equal(t, int64(120), *n.Size)

	dir, ok := tr.Node("src/")
	require.True(t, ok)
	assert.True(t, dir.IsDir)
	assert.Equal(t, []string{"src/util", "src/main.go"}, dir.Children)

	assert.Equal(t, []string{"src/util/strings.go", "src/main.go"}, tr.Files("src"))
	assert.Equal(t, []string{"src/util/strings.go", "src/main.go", "go.mod"}, tr.Files(RootKey))
	assert.Equal(t, []string{"go.mod"}, tr.Files("go.mod"))
	assert.Nil(t, tr.Files("missing"))
	assert.Equal(t, filepath.Join(root, "src", "main.go"), tr.Abs("src/main.go"))
}

func TestFileBecomesDirectory(t *testing.T) {
	tr := FromPaths("", []string{"a", "z", "a/b"})

	n, ok := tr.Node("a")
	require.True(t, ok)
	assert.True(t, n.IsDir)
	assert.Equal(t, 2, tr.Len())
	assert.Equal(t, []string{"├── a", "│   └── b", "└── z"}, tr.Lines())
}

func TestKey(t *testing.T) {
	assert.Equal(t, RootKey, Key("."))
	assert.Equal(t, RootKey, Key(""))
	assert.Equal(t, "a/b", Key("./a//b/"))
	assert.Equal(t, "a", Key("/a/../a"))
}

func TestSearch(t *testing.T) {
	tr := FromPaths("/repo", []string{"src/Main.go", "src/util.go", "docs/guide.md"})

	found := tr.Search("main")
	assert.Equal(t, 1, found.Len())
	assert.Equal(t, []string{"└── src", "    └── Main.go"}, found.Lines())
	assert.Equal(t, []string{"src/Main.go"}, found.Files(RootKey))

	assert.Same(t, tr, tr.Search("  "))
	assert.Equal(t, 0, tr.Search("nothing").Len())
}

func TestRender(t *testing.T) {
	tr := FromPaths("/work/repo", nil)
	tr.AddFile("main.go", size(10))
	tr.AddFile("pkg/big.bin", size(3*1024*1024))

	var buf bytes.Buffer
	require.NoError(t, tr.Render(&buf, RenderOptions{Sizes: true}))
	assert.Equal(t, "repo\n├── pkg\n│   └── big.bin (3.0 MiB)\n└── main.go (10 B)\n", buf.String())

	buf.Reset()
	require.NoError(t, tr.Render(&buf, RenderOptions{Label: "."}))
	assert.Equal(t, ".\n├── pkg\n│   └── big.bin\n└── main.go\n", buf.String())
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "0 B", FormatSize(0))
	assert.Equal(t, "1023 B", FormatSize(1023))
	assert.Equal(t, "1.0 KiB", FormatSize(1024))
	assert.Equal(t, "1.5 KiB", FormatSize(1536))
	assert.Equal(t, "10.0 MiB", FormatSize(10*1024*1024))
}
