package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/bethropolis/promptpack/internal/prompt"
	"github.com/bethropolis/promptpack/internal/selection"
	"github.com/bethropolis/promptpack/internal/tree"
	"github.com/bethropolis/promptpack/internal/walker"
)

// State is everything one session knows about a directory. The functions
// below never modify the State they are given; they return an updated copy.
type State struct {
	Directory   string
	Entries     []walker.FileEntry
	Skipped     []walker.SkippedItem
	Tree        *tree.Tree
	Selection   *selection.Set
	Instruction string
	Artifact    *prompt.Artifact
}

// Scan walks dir and returns a State with its tree and an empty selection
func Scan(ctx context.Context, dir string, opts ...walker.Option) (*State, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("app: resolve %s: %w", dir, err)
	}

	res, err := walker.Scan(ctx, abs, opts...)
	if err != nil {
		return nil, err
	}

	return &State{
		Directory: abs,
		Entries:   res.Entries,
		Skipped:   res.Skipped,
		Tree:      tree.Build(abs, res.Entries),
		Selection: selection.New(),
	}, nil
}

// Select replaces the selection with the nodes matching patterns. No
// patterns selects every scanned file. The previous artifact is dropped.
func Select(st *State, patterns []string) (*State, error) {
	var sel *selection.Set
	if len(patterns) == 0 {
		sel = selection.New(st.Tree.Files(tree.RootKey)...)
	} else {
		var err error
		if sel, err = selection.FromPatterns(st.Tree, patterns); err != nil {
			return nil, err
		}
	}

	next := *st
	next.Selection = sel
	next.Artifact = nil
	return &next, nil
}

// Generate assembles the selection with instruction
func Generate(ctx context.Context, st *State, a *prompt.Assembler, instruction string) (*State, error) {
	art, err := a.Assemble(ctx, st.Selection.Expand(st.Tree), instruction, st.Directory)
	if err != nil {
		return nil, err
	}

	next := *st
	next.Instruction = instruction
	next.Artifact = art
	return &next, nil
}
