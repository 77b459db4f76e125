// Package selection tracks which files and folders of a tree are selected
package selection

import (
	"fmt"
	"path"
	"strings"

	"github.com/bethropolis/promptpack/internal/tree"
)

// Set is an insertion-ordered set of tree keys
type Set struct {
	keys  []string
	index map[string]int
}

// New creates a set holding keys
func New(keys ...string) *Set {
	s := &Set{index: make(map[string]int)}
	for _, k := range keys {
		s.Add(k)
	}
	return s
}

// Add selects key; it reports false when key was already selected
func (s *Set) Add(key string) bool {
	key = tree.Key(key)
	if _, ok := s.index[key]; ok {
		return false
	}
	s.index[key] = len(s.keys)
	s.keys = append(s.keys, key)
	return true
}

// Remove unselects key; it reports false when key was not selected
func (s *Set) Remove(key string) bool {
	key = tree.Key(key)
	i, ok := s.index[key]
	if !ok {
		return false
	}
	s.keys = append(s.keys[:i], s.keys[i+1:]...)
	delete(s.index, key)
	for j := i; j < len(s.keys); j++ {
		s.index[s.keys[j]] = j
	}
	return true
}

// Toggle flips key and returns whether it is now selected
func (s *Set) Toggle(key string) bool {
	if s.Remove(key) {
		return false
	}
	s.Add(key)
	return true
}

// Has reports whether key is selected
func (s *Set) Has(key string) bool {
	_, ok := s.index[tree.Key(key)]
	return ok
}

// Len returns the number of selected keys
func (s *Set) Len() int {
	return len(s.keys)
}

// Keys returns the selected keys in selection order
func (s *Set) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Expand resolves the selection against t: directories expand to all of
// their descendant files. The result holds absolute paths, each once, in
// selection order. Keys that are not in t are dropped.
func (s *Set) Expand(t *tree.Tree) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, key := range s.keys {
		for _, file := range t.Files(key) {
			if _, dup := seen[file]; dup {
				continue
			}
			seen[file] = struct{}{}
			out = append(out, t.Abs(file))
		}
	}
	return out
}

// FromPatterns selects, for every pattern, the node with that exact key or
// else every file whose key or base name matches it as a path.Match glob.
// A pattern that matches nothing is an error.
func FromPatterns(t *tree.Tree, patterns []string) (*Set, error) {
	s := New()
	files := t.Files(tree.RootKey)

	for _, raw := range patterns {
		pattern := strings.TrimSpace(raw)
		if pattern == "" {
			continue
		}
		if _, ok := t.Node(pattern); ok {
			s.Add(pattern)
			continue
		}

		key := tree.Key(pattern)
		matched := false
		for _, file := range files {
			ok, err := path.Match(key, file)
			if err != nil {
				return nil, fmt.Errorf("selection: bad pattern %q: %w", raw, err)
			}
			if !ok && !strings.Contains(key, "/") {
				ok, _ = path.Match(key, path.Base(file))
			}
			if ok {
				s.Add(file)
				matched = true
			}
		}
		if !matched {
			return nil, fmt.Errorf("selection: %q matched no file", raw)
		}
	}
	return s, nil
}
