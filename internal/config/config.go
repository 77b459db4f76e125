package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bethropolis/promptpack/internal/logger"
	"github.com/bethropolis/promptpack/internal/reader"
	"github.com/bethropolis/promptpack/internal/regen"
	"github.com/bethropolis/promptpack/internal/tokens"
)

// FileName is looked up in the scanned directory when --config is not given
const FileName = ".promptpack.yaml"

// Version is reported by --version
const Version = "1.0.0"

// Config holds all application configuration settings
type Config struct {
	// Directory settings
	RootDir    string `yaml:"-"`
	ConfigFile string `yaml:"-"`

	// Logging settings
	LogLevel     string `yaml:"log_level"`
	Verbose      bool   `yaml:"-"`
	Quiet        bool   `yaml:"-"`
	NoColor      bool   `yaml:"no_color"`
	UseColors    bool   `yaml:"-"`
	ShowSkipped  bool   `yaml:"show_skipped"`
	ShowProgress bool   `yaml:"progress"`

	// Filtering settings
	IgnoreHidden    bool     `yaml:"ignore_hidden"`
	NestedGitignore bool     `yaml:"nested_gitignore"`
	CaseSensitive   bool     `yaml:"case_sensitive"`
	CustomIgnore    []string `yaml:"ignore"`
	Extensions      []string `yaml:"extensions"`

	// Reading settings
	Workers       int   `yaml:"workers"`
	MaxFileSizeMB int64 `yaml:"max_file_size_mb"`
	AllowBinary   bool  `yaml:"allow_binary"`

	// Prompt settings
	Select      []string `yaml:"select"`
	Instruction string   `yaml:"instruction"`
	Template    string   `yaml:"template"`
	Tokenizer   string   `yaml:"tokenizer"`

	// Output settings
	OutputFile string        `yaml:"output"`
	JSONOutput bool          `yaml:"json"`
	Timeout    time.Duration `yaml:"timeout"`
	Debounce   time.Duration `yaml:"debounce"`
}

// Default returns the settings used when neither a file nor a flag says
// otherwise
func Default() *Config {
	return &Config{
		RootDir:       ".",
		LogLevel:      "info",
		IgnoreHidden:  false,
		Workers:       runtime.NumCPU(),
		MaxFileSizeMB: reader.MaxFileSize >> 20,
		Tokenizer:     tokens.Default,
		Debounce:      regen.DefaultDelay,
	}
}

// Load reads a YAML file over Default(). A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// BindPersistent registers the flags every command understands
func BindPersistent(cmd *cobra.Command, c *Config) {
	f := cmd.PersistentFlags()
	f.StringVar(&c.ConfigFile, "config", "", "Config file (default <dir>/"+FileName+")")
	f.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Logging level (debug, info, warn, error, none)")
	f.BoolVarP(&c.Verbose, "verbose", "v", false, "Enable debug logging")
	f.BoolVarP(&c.Quiet, "quiet", "q", false, "Only log warnings and errors")
	f.BoolVar(&c.NoColor, "no-color", false, "Disable color output")
}

// BindScan registers the flags that shape a directory scan
func BindScan(cmd *cobra.Command, c *Config) {
	f := cmd.Flags()
	f.StringSliceVar(&c.CustomIgnore, "ignore", nil, "Extra ignore patterns (gitignore syntax, repeatable or comma-separated)")
	f.StringSliceVar(&c.Extensions, "ext", nil, "Only include these extensions (e.g. go,md)")
	f.BoolVar(&c.IgnoreHidden, "hidden", c.IgnoreHidden, "Ignore hidden files and directories (starting with '.')")
	f.BoolVar(&c.NestedGitignore, "nested-gitignore", c.NestedGitignore, "Also honor .gitignore files below the root")
	f.BoolVar(&c.CaseSensitive, "case-sensitive", c.CaseSensitive, "Match ignore patterns case-sensitively")
	f.BoolVar(&c.ShowSkipped, "show-skipped", false, "List skipped files and directories with reasons")
	f.BoolVar(&c.ShowProgress, "progress", false, "Show scan progress on stderr")
}

// BindCheck registers the rule sources the check command consults
func BindCheck(cmd *cobra.Command, c *Config) {
	f := cmd.Flags()
	f.StringSliceVar(&c.CustomIgnore, "ignore", nil, "Extra ignore patterns (gitignore syntax)")
	f.BoolVar(&c.NestedGitignore, "nested-gitignore", c.NestedGitignore, "Also honor .gitignore files below the root")
	f.BoolVar(&c.CaseSensitive, "case-sensitive", c.CaseSensitive, "Match ignore patterns case-sensitively")
	f.StringVarP(&c.OutputFile, "output", "o", "", "Output file to treat as excluded, as generate would")
}

// BindGenerate registers the flags of prompt generation
func BindGenerate(cmd *cobra.Command, c *Config) {
	BindScan(cmd, c)
	f := cmd.Flags()
	f.StringArrayVarP(&c.Select, "select", "s", nil, "Files, directories or globs to include (default: every scanned file)")
	f.StringVarP(&c.Instruction, "instruction", "i", "", "Instruction appended to the prompt")
	f.StringVarP(&c.Template, "template", "t", "", "Use a named instruction template (see 'templates')")
	f.StringVarP(&c.OutputFile, "output", "o", "", "Write the artifact to a file instead of stdout")
	f.BoolVar(&c.JSONOutput, "json", false, "Write the artifact as JSON")
	f.IntVar(&c.Workers, "workers", c.Workers, "Concurrent file reads")
	f.Int64Var(&c.MaxFileSizeMB, "max-size", c.MaxFileSizeMB, "Largest file to include, in MiB")
	f.BoolVar(&c.AllowBinary, "binary", false, "Include files that look binary")
	f.StringVar(&c.Tokenizer, "tokenizer", c.Tokenizer, "Token counter ("+strings.Join(tokens.Names, ", ")+")")
	f.DurationVar(&c.Timeout, "timeout", 0, "Maximum execution time (e.g. '30s', '5m')")
}

// BindWatch registers generate's flags plus the debounce delay
func BindWatch(cmd *cobra.Command, c *Config) {
	BindGenerate(cmd, c)
	cmd.Flags().DurationVar(&c.Debounce, "debounce", c.Debounce, "Quiet period before regenerating")
}

// overrides copy one explicitly set flag onto the loaded config
var overrides = map[string]func(dst, src *Config){
	"log-level":        func(d, s *Config) { d.LogLevel = s.LogLevel },
	"verbose":          func(d, s *Config) { d.Verbose = s.Verbose },
	"quiet":            func(d, s *Config) { d.Quiet = s.Quiet },
	"no-color":         func(d, s *Config) { d.NoColor = s.NoColor },
	"ignore":           func(d, s *Config) { d.CustomIgnore = s.CustomIgnore },
	"ext":              func(d, s *Config) { d.Extensions = s.Extensions },
	"hidden":           func(d, s *Config) { d.IgnoreHidden = s.IgnoreHidden },
	"nested-gitignore": func(d, s *Config) { d.NestedGitignore = s.NestedGitignore },
	"case-sensitive":   func(d, s *Config) { d.CaseSensitive = s.CaseSensitive },
	"show-skipped":     func(d, s *Config) { d.ShowSkipped = s.ShowSkipped },
	"progress":         func(d, s *Config) { d.ShowProgress = s.ShowProgress },
	"select":           func(d, s *Config) { d.Select = s.Select },
	"instruction":      func(d, s *Config) { d.Instruction = s.Instruction },
	"template":         func(d, s *Config) { d.Template = s.Template },
	"output":           func(d, s *Config) { d.OutputFile = s.OutputFile },
	"json":             func(d, s *Config) { d.JSONOutput = s.JSONOutput },
	"workers":          func(d, s *Config) { d.Workers = s.Workers },
	"max-size":         func(d, s *Config) { d.MaxFileSizeMB = s.MaxFileSizeMB },
	"binary":           func(d, s *Config) { d.AllowBinary = s.AllowBinary },
	"tokenizer":        func(d, s *Config) { d.Tokenizer = s.Tokenizer },
	"timeout":          func(d, s *Config) { d.Timeout = s.Timeout },
	"debounce":         func(d, s *Config) { d.Debounce = s.Debounce },
}

// Resolve merges flags over the config file for the directory being
// scanned. flags must be the Config the command's flags were bound to.
// An explicit --config that does not exist is an error.
func Resolve(cmd *cobra.Command, flags *Config, rootDir string) (*Config, error) {
	if rootDir == "" {
		rootDir = "."
	}

	path := flags.ConfigFile
	if path == "" {
		path = filepath.Join(rootDir, FileName)
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	set := cmd.Flags()
	for name, apply := range overrides {
		if set.Lookup(name) != nil && set.Changed(name) {
			apply(cfg, flags)
		}
	}

	cfg.RootDir = rootDir
	cfg.ConfigFile = flags.ConfigFile
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) finalize() error {
	if _, ok := logger.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("config: unknown log level %q", c.LogLevel)
	}
	if c.Verbose && c.Quiet {
		return errors.New("config: --verbose and --quiet are mutually exclusive")
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.MaxFileSizeMB < 0 {
		return fmt.Errorf("config: max file size must not be negative, got %d", c.MaxFileSizeMB)
	}

	c.UseColors = !c.NoColor && isTerminal(os.Stderr)
	return nil
}

// Level is the effective log level; --verbose and --quiet beat log_level
func (c *Config) Level() logger.Level {
	switch {
	case c.Verbose:
		return logger.LevelDebug
	case c.Quiet:
		return logger.LevelWarn
	}
	level, _ := logger.ParseLevel(c.LogLevel)
	return level
}

// MaxFileSize is MaxFileSizeMB in bytes; 0 means the reader default
func (c *Config) MaxFileSize() int64 {
	return c.MaxFileSizeMB << 20
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
