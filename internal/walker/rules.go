package walker

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bethropolis/promptpack/internal/ignore"
	"github.com/bethropolis/promptpack/internal/utils"
)

// LoadEngine builds the ignore engine used for root: DefaultPatterns, then
// every IgnoreFiles entry present in root, then custom patterns. A missing
// ignore file is not an error; other read failures are logged and skipped.
func LoadEngine(root string, custom []string, logger utils.Logger, opts ...ignore.Option) *ignore.Engine {
	logger = utils.OrNoop(logger)

	engine := ignore.NewDefault(append([]ignore.Option{ignore.WithLogger(logger)}, opts...)...)

	for _, name := range IgnoreFiles {
		content, err := os.ReadFile(filepath.Join(root, name))
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				logger.Warn("Could not read %s: %v", name, err)
			}
			continue
		}
		engine.AddSource(name, string(content))
		logger.Debug("Loaded %s rules.", name)
	}

	if len(custom) > 0 {
		engine.Add(custom...)
		logger.Debug("Using custom ignore patterns: %v", custom)
	}

	return engine
}
