// Package prompt assembles selected files and an instruction into a single
// prompt artifact: a file map, the file contents and the instruction, with
// per-file token counts.
package prompt

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bethropolis/promptpack/internal/reader"
	"github.com/bethropolis/promptpack/internal/tokens"
	"github.com/bethropolis/promptpack/internal/utils"
)

// FileReader is the file-reading collaborator. File-level failures are
// reported in the Result; a returned error is an invocation fault.
type FileReader interface {
	ReadFileContent(ctx context.Context, path string) (reader.Result, error)
}

// Assembler builds artifacts. The zero value reads with reader.New and
// counts with tokens.Approx.
type Assembler struct {
	Reader  FileReader
	Counter tokens.Counter
	// Workers bounds concurrent reads; 0 or 1 reads sequentially.
	Workers int
	Logger  utils.Logger
}

// Assemble reads every selected file and formats the artifact. Unreadable
// files become inline error blocks plus PromptErrors and never abort the
// batch. Errors and FileDetails follow the order of selected. The returned
// error is only set when ctx is cancelled.
func (a *Assembler) Assemble(ctx context.Context, selected []string, instruction, baseDir string) (*Artifact, error) {
	log := utils.OrNoop(a.Logger)

	if baseDir == "" {
		log.Error("prompt.Assemble: empty base directory")
		return internalError("base directory is empty"), nil
	}
	for i, p := range selected {
		if p == "" {
			log.Error("prompt.Assemble: selected path %d is empty", i)
			return internalError(fmt.Sprintf("selected path %d is empty", i)), nil
		}
	}

	paths := dedupe(selected, baseDir)
	rels := make([]string, len(paths))
	for i, p := range paths {
		rels[i] = relativePath(p, baseDir)
	}

	outcomes := readAll(ctx, a.reader(), paths, a.Workers, log)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("prompt: assembly cancelled: %w", err)
	}

	counter := a.counter()
	art := &Artifact{
		Errors:      []PromptError{},
		FileDetails: make([]FileDetail, 0, len(paths)+1),
	}
	blocks := make([]string, 0, len(paths))

	for i, rel := range rels {
		content, perr := interpret(outcomes[i])
		if perr != nil {
			perr.Path = rel
			log.Warn("Skipping file due to error: %s: %s", rel, perr)
			art.Errors = append(art.Errors, *perr)
			art.FileDetails = append(art.FileDetails, FileDetail{Path: rel, Error: perr.Error})
			blocks = append(blocks, errorBlock(rel, *perr))
			continue
		}
		blocks = append(blocks, contentBlock(rel, content))
		art.FileDetails = append(art.FileDetails, FileDetail{Path: rel, TokenCount: counter.Count(content)})
	}

	instruction = strings.TrimSpace(instruction)
	if instruction != "" {
		art.FileDetails = append(art.FileDetails, FileDetail{Path: InstructionKey, TokenCount: counter.Count(instruction)})
	}

	art.FormattedPrompt = strings.Join([]string{
		fileMapSection(baseDir, rels),
		contentsSection(blocks),
		instructionSection(instruction),
	}, "\n\n")

	log.Debug("prompt.Assemble: %d files, %d errors, %d tokens", len(paths), len(art.Errors), art.TotalTokens())
	return art, nil
}

func (a *Assembler) reader() FileReader {
	if a.Reader == nil {
		return reader.New(reader.WithLogger(a.Logger))
	}
	return a.Reader
}

func (a *Assembler) counter() tokens.Counter {
	if a.Counter == nil {
		return tokens.Approx{}
	}
	return a.Counter
}

// dedupe resolves relative selections against baseDir and drops repeats,
// keeping the first occurrence
func dedupe(selected []string, baseDir string) []string {
	seen := make(map[string]struct{}, len(selected))
	out := make([]string, 0, len(selected))
	for _, p := range selected {
		if !filepath.IsAbs(p) {
			p = filepath.Join(baseDir, p)
		}
		p = filepath.Clean(p)
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// relativePath returns p relative to baseDir with "/" separators, or p
// itself when it is not below baseDir
func relativePath(p, baseDir string) string {
	rel, err := filepath.Rel(baseDir, p)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}
