package prompt

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/bethropolis/promptpack/internal/tree"
)

const noInstruction = "No instruction provided."

// fileMapSection renders the selected paths under the base directory name.
// It depends only on the set of paths.
func fileMapSection(baseDir string, rels []string) string {
	var b strings.Builder
	b.WriteString("<file_map>\n")
	b.WriteString(filepath.Base(filepath.Clean(baseDir)))
	b.WriteString("\n")
	for _, line := range tree.FromPaths(baseDir, rels).Lines() {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("</file_map>")
	return b.String()
}

// contentsSection wraps the per-file blocks; trailing blank lines are trimmed
func contentsSection(blocks []string) string {
	body := strings.TrimRight(strings.Join(blocks, "\n\n"), "\n")
	if body == "" {
		return "<file_contents>\n</file_contents>"
	}
	return "<file_contents>\n" + body + "\n</file_contents>"
}

func instructionSection(instruction string) string {
	if instruction == "" {
		instruction = noInstruction
	}
	return "<user_instructions>\n" + instruction + "\n</user_instructions>"
}

// contentBlock is "File: rel" plus a fenced block that no backtick run in
// content can close early
func contentBlock(rel, content string) string {
	f := fence(content)
	var b strings.Builder
	b.WriteString("File: ")
	b.WriteString(rel)
	b.WriteString("\n")
	b.WriteString(f)
	b.WriteString(strings.TrimPrefix(path.Ext(rel), "."))
	b.WriteString("\n")
	b.WriteString(content)
	if content != "" && !strings.HasSuffix(content, "\n") {
		b.WriteString("\n")
	}
	b.WriteString(f)
	return b.String()
}

func errorBlock(rel string, e PromptError) string {
	return "File: " + rel + "\n[Error: " + e.String() + "]"
}

func fence(content string) string {
	longest, run := 0, 0
	for i := 0; i < len(content); i++ {
		if content[i] == '`' {
			run++
			if run > longest {
				longest = run
			}
			continue
		}
		run = 0
	}
	if longest < 3 {
		return "```"
	}
	return strings.Repeat("`", longest+1)
}
