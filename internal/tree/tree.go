// Package tree keeps a directory listing as an arena of nodes keyed by their
// slash-separated path relative to the root. Children are stored as ordered
// key lists (directories first, then by name), so no node points back at its
// parent.
package tree

import (
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bethropolis/promptpack/internal/walker"
)

// RootKey is the key of the root node
const RootKey = ""

// Node is one file or directory
type Node struct {
	Path     string
	Name     string
	IsDir    bool
	Size     *int64
	Children []string
}

// Tree is the arena
type Tree struct {
	// Root is the directory the keys are relative to. It may be empty when
	// the tree was built from bare relative paths.
	Root  string
	nodes map[string]*Node
	files int
}

// New creates a tree holding only the root node
func New(root string) *Tree {
	return &Tree{
		Root: root,
		nodes: map[string]*Node{
			RootKey: {Path: RootKey, Name: filepath.Base(root), IsDir: true},
		},
	}
}

// FromPaths builds a tree from slash-separated relative file paths. The
// result only depends on the set of paths, not on their order.
func FromPaths(root string, rels []string) *Tree {
	t := New(root)
	for _, rel := range rels {
		t.AddFile(rel, nil)
	}
	return t
}

// Build builds a tree from scan entries. Entries outside root are keyed by
// their absolute slash path.
func Build(root string, entries []walker.FileEntry) *Tree {
	t := New(root)
	for _, e := range entries {
		rel, err := filepath.Rel(root, e.Path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			rel = e.Path
		}
		t.AddFile(filepath.ToSlash(rel), e.Size)
	}
	return t
}

// Key normalises a relative path to a node key
func Key(rel string) string {
	rel = strings.Trim(path.Clean("/"+filepath.ToSlash(rel)), "/")
	if rel == "." {
		return RootKey
	}
	return rel
}

// AddFile inserts a file and any missing parent directories
func (t *Tree) AddFile(rel string, size *int64) {
	key := Key(rel)
	if key == RootKey {
		return
	}
	if n, ok := t.nodes[key]; ok {
		if !n.IsDir {
			n.Size = size
		}
		return
	}

	parent := t.ensureDir(parentKey(key))
	t.nodes[key] = &Node{Path: key, Name: path.Base(key), Size: size}
	t.insertChild(parent, key)
	t.files++
}

func (t *Tree) ensureDir(key string) *Node {
	if n, ok := t.nodes[key]; ok {
		if !n.IsDir {
			// a path seen as a file turns out to have children
			n.IsDir = true
			n.Size = nil
			t.files--
			t.reposition(n)
		}
		return n
	}
	parent := t.ensureDir(parentKey(key))
	n := &Node{Path: key, Name: path.Base(key), IsDir: true}
	t.nodes[key] = n
	t.insertChild(parent, key)
	return n
}

func (t *Tree) insertChild(parent *Node, key string) {
	i := sort.Search(len(parent.Children), func(i int) bool {
		return !t.less(parent.Children[i], key)
	})
	parent.Children = append(parent.Children, "")
	copy(parent.Children[i+1:], parent.Children[i:])
	parent.Children[i] = key
}

// reposition moves key to its sorted place after its kind changed
func (t *Tree) reposition(n *Node) {
	parent := t.nodes[parentKey(n.Path)]
	for i, key := range parent.Children {
		if key == n.Path {
			parent.Children = append(parent.Children[:i], parent.Children[i+1:]...)
			break
		}
	}
	t.insertChild(parent, n.Path)
}

// less orders directories before files, then by name
func (t *Tree) less(a, b string) bool {
	na, nb := t.nodes[a], t.nodes[b]
	if na.IsDir != nb.IsDir {
		return na.IsDir
	}
	return na.Name < nb.Name
}

func parentKey(key string) string {
	dir := path.Dir(key)
	if dir == "." || dir == "/" {
		return RootKey
	}
	return dir
}

// Node returns the node stored under key
func (t *Tree) Node(key string) (*Node, bool) {
	n, ok := t.nodes[Key(key)]
	return n, ok
}

// Len returns the number of files
func (t *Tree) Len() int {
	return t.files
}

// Abs returns the absolute path of key
func (t *Tree) Abs(key string) string {
	return filepath.Join(t.Root, filepath.FromSlash(Key(key)))
}

// Files returns every file key below key in display order. A file key
// returns itself.
func (t *Tree) Files(key string) []string {
	n, ok := t.Node(key)
	if !ok {
		return nil
	}
	if !n.IsDir {
		return []string{n.Path}
	}
	var out []string
	t.Walk(n.Path, func(child *Node, _ int) {
		if !child.IsDir {
			out = append(out, child.Path)
		}
	})
	return out
}

// Walk visits every node below key depth-first in display order
func (t *Tree) Walk(key string, fn func(n *Node, depth int)) {
	n, ok := t.Node(key)
	if !ok {
		return
	}
	t.walk(n, 0, fn)
}

func (t *Tree) walk(n *Node, depth int, fn func(n *Node, depth int)) {
	for _, key := range n.Children {
		child := t.nodes[key]
		fn(child, depth)
		if child.IsDir {
			t.walk(child, depth+1, fn)
		}
	}
}

// Search returns the subtree of files whose key contains query, compared
// case-insensitively, together with their parent directories. An empty
// query returns t.
func (t *Tree) Search(query string) *Tree {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return t
	}

	out := New(t.Root)
	for _, key := range t.Files(RootKey) {
		if strings.Contains(strings.ToLower(key), query) {
			out.AddFile(key, t.nodes[key].Size)
		}
	}
	return out
}
