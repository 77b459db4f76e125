// Package app wires configuration, scanning and prompt assembly into the
// promptpack commands
package app

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/denormal/go-gitignore"
	"github.com/fatih/color"

	"github.com/bethropolis/promptpack/internal/config"
	"github.com/bethropolis/promptpack/internal/ignore"
	"github.com/bethropolis/promptpack/internal/logger"
	"github.com/bethropolis/promptpack/internal/printer"
	"github.com/bethropolis/promptpack/internal/prompt"
	"github.com/bethropolis/promptpack/internal/setup"
	"github.com/bethropolis/promptpack/internal/summary"
	"github.com/bethropolis/promptpack/internal/tree"
	"github.com/bethropolis/promptpack/internal/walker"
)

// App encapsulates the main application functionality
type App struct {
	cfg    *config.Config
	log    *logger.Logger
	stdout io.Writer
	stderr io.Writer
}

// New creates an App logging to stderr and writing results to stdout
func New(cfg *config.Config, stdout, stderr io.Writer) *App {
	color.NoColor = !cfg.UseColors

	return &App{
		cfg:    cfg,
		log:    logger.New(stderr, cfg.Level(), cfg.UseColors),
		stdout: stdout,
		stderr: stderr,
	}
}

// infoLog is Info, kept as a value for setup
func (a *App) infoLog(format string, args ...interface{}) {
	a.log.Info(format, args...)
}

func (a *App) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, a.cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

func (a *App) scan(ctx context.Context) (*State, error) {
	opts := setup.ConfigureWalker(a.cfg, a.log, a.infoLog, a.stderr)
	st, err := Scan(ctx, a.cfg.RootDir, opts...)
	if a.cfg.ShowProgress {
		fmt.Fprintln(a.stderr)
	}
	if err != nil {
		return nil, err
	}
	a.log.Debug("Scanned %s: %d files, %d skipped", st.Directory, len(st.Entries), len(st.Skipped))
	return st, nil
}

func (a *App) showSkipped(st *State) {
	if a.cfg.ShowSkipped {
		summary.DisplaySkippedItems(a.log, st.Skipped, a.stderr, !a.log.Enabled(logger.LevelInfo))
	}
}

// ScanOptions tune the scan command's listing
type ScanOptions struct {
	Flat   bool
	Search string
	Sizes  bool
}

// RunScan prints the filtered tree of the configured directory
func (a *App) RunScan(ctx context.Context, opts ScanOptions) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	st, err := a.scan(ctx)
	if err != nil {
		return err
	}

	t := st.Tree.Search(opts.Search)
	if opts.Flat {
		for _, key := range t.Files(tree.RootKey) {
			fmt.Fprintln(a.stdout, key)
		}
	} else if err := t.Render(a.stdout, tree.RenderOptions{
		Label:   filepath.Base(st.Directory),
		Sizes:   opts.Sizes,
		Colored: a.cfg.UseColors,
	}); err != nil {
		return fmt.Errorf("app: render tree: %w", err)
	}

	a.log.Info("Found %d files.", t.Len())
	a.showSkipped(st)
	return nil
}

// RunCheck prints the ignore decision for every path, relative to the
// configured directory. Paths ending in "/" are checked as directories. The
// rules are the ones a scan with the same flags would apply.
func (a *App) RunCheck(paths []string) error {
	root, err := filepath.Abs(a.cfg.RootDir)
	if err != nil {
		return fmt.Errorf("app: resolve %s: %w", a.cfg.RootDir, err)
	}
	engine := walker.LoadEngine(root, setup.IgnoreRules(a.cfg), a.log, setup.EngineOptions(a.cfg)...)

	var nested gitignore.GitIgnore
	if a.cfg.NestedGitignore {
		if nested, err = gitignore.NewRepository(root); err != nil {
			a.log.Warn("Could not load nested .gitignore files from '%s': %v", root, err)
			nested = nil
		}
	}

	for _, p := range paths {
		rel := checkPath(root, p)
		res, err := engine.CheckIgnore(rel)
		if err != nil {
			fmt.Fprintf(a.stdout, "%s: invalid path: %v\n", p, err)
			continue
		}
		if !res.Ignored && nested != nil {
			dir := strings.HasSuffix(rel, "/")
			if m := nested.Relative(strings.TrimSuffix(rel, "/"), dir); m != nil && m.Ignore() {
				fmt.Fprintf(a.stdout, "%s: ignored by nested .gitignore %q\n", rel, m.String())
				continue
			}
		}
		fmt.Fprintf(a.stdout, "%s: %s\n", rel, describe(res))
	}
	return nil
}

// checkPath turns a user argument into the relative slash form the engine
// expects, keeping a trailing "/"
func checkPath(root, p string) string {
	dir := strings.HasSuffix(p, "/") || strings.HasSuffix(p, string(filepath.Separator))
	if filepath.IsAbs(p) {
		if rel, err := filepath.Rel(root, p); err == nil {
			p = rel
		}
	}
	rel := filepath.ToSlash(filepath.Clean(p))
	if dir && rel != "." {
		rel += "/"
	}
	return rel
}

func describe(res ignore.Result) string {
	switch {
	case res.Ignored && res.Rule != nil:
		return "ignored by " + ruleLabel(res.Rule)
	case res.Ignored:
		return "ignored"
	case res.Unignored:
		return "not ignored (re-included by a negated rule)"
	default:
		return "not ignored"
	}
}

func ruleLabel(p *ignore.Pattern) string {
	if p.Source == "" {
		return fmt.Sprintf("%q", p.Raw)
	}
	if p.Line > 0 {
		return fmt.Sprintf("%s:%d %q", p.Source, p.Line, p.Raw)
	}
	return fmt.Sprintf("%s %q", p.Source, p.Raw)
}

// generator holds what one generate or watch run reuses between builds
type generator struct {
	assembler   *prompt.Assembler
	instruction string
	printer     *printer.Printer
}

func (a *App) newGenerator() (*generator, error) {
	asm, err := setup.ConfigureAssembler(a.cfg, a.log)
	if err != nil {
		return nil, err
	}
	instruction, err := setup.Instruction(a.cfg)
	if err != nil {
		return nil, err
	}
	p := printer.New().WithOutput(a.stdout).WithJSON(a.cfg.JSONOutput).WithFile(a.cfg.OutputFile).
		WithLockWait(func(lockPath string) {
			a.log.Info("Waiting for %s, held by another process", lockPath)
		})
	return &generator{assembler: asm, instruction: instruction, printer: p}, nil
}

// build runs Scan, Select and Generate for the configured directory
func (a *App) build(ctx context.Context, g *generator) (*State, error) {
	st, err := a.scan(ctx)
	if err != nil {
		return nil, err
	}
	if st, err = Select(st, a.cfg.Select); err != nil {
		return nil, err
	}
	a.log.Debug("Selected %d entries", st.Selection.Len())
	return Generate(ctx, st, g.assembler, g.instruction)
}

// emit writes the artifact and reports on it. Partial artifacts are still
// written; their failures are listed as a warning.
func (a *App) emit(g *generator, st *State) error {
	if err := g.printer.Print(st.Artifact); err != nil {
		return err
	}
	if a.log.Enabled(logger.LevelInfo) {
		summary.DisplayTokens(a.stderr, st.Artifact, fmt.Sprint(g.assembler.Counter))
	}
	if a.log.Enabled(logger.LevelWarn) {
		summary.DisplayErrors(a.stderr, st.Artifact.Errors)
	}
	return nil
}

// RunGenerate assembles and writes one artifact
func (a *App) RunGenerate(ctx context.Context) error {
	startTime := time.Now()
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	g, err := a.newGenerator()
	if err != nil {
		return err
	}
	st, err := a.build(ctx, g)
	if err != nil {
		return err
	}
	if err := a.emit(g, st); err != nil {
		return err
	}

	a.showSkipped(st)
	summary.DisplayResults(a.log, st.Artifact, g.printer.Destination(), time.Since(startTime))
	return nil
}

// RunTemplates lists the instruction templates
func (a *App) RunTemplates() error {
	for _, name := range prompt.TemplateNames() {
		fmt.Fprintf(a.stdout, "%-10s %s\n", name, prompt.Templates[name])
	}
	return nil
}
