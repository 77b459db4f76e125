package tree

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

const (
	branch   = "├── "
	corner   = "└── "
	pipe     = "│   "
	blank    = "    "
	dirColor = color.FgBlue
)

// RenderOptions controls Render
type RenderOptions struct {
	// Label replaces the root name on the first line.
	Label string
	// Sizes appends "(N B)" to files with a known size.
	Sizes bool
	// Colored paints directory names.
	Colored bool
}

// Lines returns the connector lines below the root, one per node
func (t *Tree) Lines() []string {
	var lines []string
	t.lines(t.nodes[RootKey], "", RenderOptions{}, &lines)
	return lines
}

// Render writes the root label followed by the connector lines
func (t *Tree) Render(w io.Writer, opts RenderOptions) error {
	label := opts.Label
	if label == "" {
		label = t.nodes[RootKey].Name
	}
	lines := []string{label}
	t.lines(t.nodes[RootKey], "", opts, &lines)

	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

func (t *Tree) lines(n *Node, prefix string, opts RenderOptions, out *[]string) {
	for i, key := range n.Children {
		child := t.nodes[key]
		last := i == len(n.Children)-1

		connector, extension := branch, pipe
		if last {
			connector, extension = corner, blank
		}

		*out = append(*out, prefix+connector+t.label(child, opts))
		if child.IsDir {
			t.lines(child, prefix+extension, opts, out)
		}
	}
}

func (t *Tree) label(n *Node, opts RenderOptions) string {
	name := n.Name
	if n.IsDir && opts.Colored {
		name = color.New(dirColor, color.Bold).Sprint(name)
	}
	if !n.IsDir && opts.Sizes && n.Size != nil {
		name = fmt.Sprintf("%s (%s)", name, FormatSize(*n.Size))
	}
	return name
}

// FormatSize renders a byte count with a binary unit
func FormatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
