package app

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bethropolis/promptpack/internal/config"
)

// NewRootCommand builds the promptpack command tree writing to stdout and
// stderr
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	flags := config.Default()

	root := &cobra.Command{
		Use:           "promptpack",
		Short:         "Pack a directory's files into one LLM prompt",
		Long:          "promptpack scans a directory through .gitignore-style rules, selects files and assembles\na prompt holding a file map, the file contents and your instruction, with token counts.",
		Version:       config.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	config.BindPersistent(root, flags)

	// load resolves the config for the directory argument and builds an App
	load := func(cmd *cobra.Command, dir string) (*App, error) {
		cfg, err := config.Resolve(cmd, flags, dir)
		if err != nil {
			return nil, err
		}
		return New(cfg, stdout, stderr), nil
	}

	root.AddCommand(
		newScanCommand(flags, load),
		newCheckCommand(flags, load),
		newGenerateCommand(flags, load),
		newWatchCommand(flags, load),
		newTemplatesCommand(load),
	)
	return root
}

type loader func(cmd *cobra.Command, dir string) (*App, error)

func dirArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

func newScanCommand(flags *config.Config, load loader) *cobra.Command {
	var opts ScanOptions
	cmd := &cobra.Command{
		Use:   "scan [dir]",
		Short: "Show the files that survive the ignore rules",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load(cmd, dirArg(args))
			if err != nil {
				return err
			}
			return a.RunScan(cmd.Context(), opts)
		},
	}
	config.BindScan(cmd, flags)
	cmd.Flags().BoolVar(&opts.Flat, "flat", false, "Print relative paths instead of a tree")
	cmd.Flags().StringVar(&opts.Search, "search", "", "Only show files whose path contains this text")
	cmd.Flags().BoolVar(&opts.Sizes, "sizes", false, "Show file sizes")
	return cmd
}

const checkLong = `Prints the ignore decision for every path, using the rules scan and generate
apply for the same flags. When more than one argument is given and the first is
an existing directory, it is the root the paths are relative to.`

func newCheckCommand(flags *config.Config, load loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [dir] <paths...>",
		Short: "Explain whether paths are ignored and by which rule",
		Long:  checkLong,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, paths := ".", args
			if len(args) > 1 {
				if info, err := os.Stat(args[0]); err == nil && info.IsDir() {
					dir, paths = args[0], args[1:]
				}
			}
			a, err := load(cmd, dir)
			if err != nil {
				return err
			}
			return a.RunCheck(paths)
		},
	}
	config.BindCheck(cmd, flags)
	return cmd
}

func newGenerateCommand(flags *config.Config, load loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [dir]",
		Short: "Assemble the selected files and instruction into a prompt",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load(cmd, dirArg(args))
			if err != nil {
				return err
			}
			return a.RunGenerate(cmd.Context())
		},
	}
	config.BindGenerate(cmd, flags)
	return cmd
}

func newWatchCommand(flags *config.Config, load loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Regenerate the prompt whenever files change",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load(cmd, dirArg(args))
			if err != nil {
				return err
			}
			return a.RunWatch(cmd.Context())
		},
	}
	config.BindWatch(cmd, flags)
	return cmd
}

func newTemplatesCommand(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the instruction templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load(cmd, ".")
			if err != nil {
				return err
			}
			return a.RunTemplates()
		},
	}
}
