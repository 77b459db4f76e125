// Package summary handles display of artifact statistics, failures and
// skipped items
package summary

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/fatih/color"

	"github.com/bethropolis/promptpack/internal/prompt"
	"github.com/bethropolis/promptpack/internal/walker"
)

// Logger defines the minimal logging interface required
type Logger interface {
	Info(format string, args ...interface{})
}

var warn = color.New(color.FgYellow).SprintFunc()

// DisplayResults logs the closing lines of a generate run
func DisplayResults(logger Logger, art *prompt.Artifact, destination string, duration time.Duration) {
	files := 0
	for _, d := range art.FileDetails {
		if d.Path != prompt.InstructionKey && d.Error == "" {
			files++
		}
	}
	logger.Info("Wrote prompt with %d files (%d tokens) to %s.", files, art.TotalTokens(), destination)
	logger.Info("Done in %v.", duration.Round(time.Millisecond))
}

// DisplayTokens prints one line per file detail followed by the total
func DisplayTokens(output io.Writer, art *prompt.Artifact, tokenizer string) {
	fmt.Fprintf(output, "Tokens (%s):\n", tokenizer)
	for _, d := range art.FileDetails {
		if d.Error != "" {
			fmt.Fprintf(output, "%8s  %s %s\n", "-", d.Path, warn("["+d.Error+"]"))
			continue
		}
		fmt.Fprintf(output, "%8d  %s\n", d.TokenCount, d.Path)
	}
	fmt.Fprintf(output, "%8s\n", "--------")
	fmt.Fprintf(output, "%8d  total (files %d, instruction %d)\n",
		art.TotalTokens(), art.FileTokens(), art.InstructionTokens())
}

// DisplayErrors warns about files missing from a partial artifact. It
// prints nothing when every file was included.
func DisplayErrors(output io.Writer, errs []prompt.PromptError) {
	if len(errs) == 0 {
		return
	}
	noun := "files"
	if len(errs) == 1 {
		noun = "file"
	}
	fmt.Fprintln(output, warn(fmt.Sprintf("Warning: %d %s could not be included:", len(errs), noun)))
	for _, e := range errs {
		fmt.Fprintf(output, "  %s: %s\n", e.Path, e.String())
	}
}

// DisplaySkippedItems formats and prints information about skipped items
func DisplaySkippedItems(
	logger Logger,
	skippedItems []walker.SkippedItem,
	output io.Writer,
	quiet bool,
) {
	infoLog := func(format string, args ...interface{}) {
		if !quiet {
			logger.Info(format, args...)
		}
	}

	infoLog("--- Skipped Items (%d) ---", len(skippedItems))
	if len(skippedItems) == 0 {
		infoLog("No items were skipped.")
		infoLog("--- End Skipped Items ---")
		return
	}

	items := make([]walker.SkippedItem, len(skippedItems))
	copy(items, skippedItems)
	sort.Slice(items, func(i, j int) bool {
		return items[i].Path < items[j].Path
	})
	for _, item := range items {
		typeStr := "FILE"
		if item.IsDir {
			typeStr = "DIR " // padded to FILE's width
		}
		fmt.Fprintf(output, "Skipped %s: %-50s [%s]\n", typeStr, item.Path, item.Reason)
	}
	infoLog("--- End Skipped Items ---")
}
