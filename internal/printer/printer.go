// Package printer writes assembled artifacts to stdout or to a file
package printer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/bethropolis/promptpack/internal/filelock"
	"github.com/bethropolis/promptpack/internal/prompt"
)

// Printer writes artifacts as plain text or JSON. With an output file set,
// every write replaces the file atomically under its lock.
type Printer struct {
	output     io.Writer
	outputFile string
	jsonOutput bool
	onWait     func(lockPath string)
	count      atomic.Int64
}

// New creates a Printer writing plain text to stdout
func New() *Printer {
	return &Printer{output: os.Stdout}
}

// WithOutput sets the writer used when no output file is configured
func (p *Printer) WithOutput(w io.Writer) *Printer {
	p.output = w
	return p
}

// WithFile sends output to path instead of the writer; "" restores the writer
func (p *Printer) WithFile(path string) *Printer {
	p.outputFile = path
	return p
}

// WithLockWait sets a callback run when the output file's lock is held by
// another process
func (p *Printer) WithLockWait(fn func(lockPath string)) *Printer {
	p.onWait = fn
	return p
}

// WithJSON enables JSON output mode
func (p *Printer) WithJSON(enabled bool) *Printer {
	p.jsonOutput = enabled
	return p
}

// Encode renders art in the configured format, newline terminated
func (p *Printer) Encode(art *prompt.Artifact) ([]byte, error) {
	if art == nil {
		return nil, fmt.Errorf("printer: nil artifact")
	}

	if !p.jsonOutput {
		text := art.FormattedPrompt
		if !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		return []byte(text), nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(art); err != nil {
		return nil, fmt.Errorf("printer: marshal artifact: %w", err)
	}
	return buf.Bytes(), nil
}

// Print writes art to the output file or writer
func (p *Printer) Print(art *prompt.Artifact) error {
	data, err := p.Encode(art)
	if err != nil {
		return err
	}

	if p.outputFile != "" {
		if err := filelock.LockAndWrite(p.outputFile, data, p.onWait); err != nil {
			return fmt.Errorf("printer: %w", err)
		}
	} else if _, err := p.output.Write(data); err != nil {
		return fmt.Errorf("printer: write output: %w", err)
	}

	p.count.Add(1)
	return nil
}

// Destination describes where Print writes, for log lines
func (p *Printer) Destination() string {
	if p.outputFile != "" {
		return p.outputFile
	}
	return "stdout"
}

// GetCount returns the number of artifacts written
func (p *Printer) GetCount() int64 {
	return p.count.Load()
}
