package ignore

import (
	"github.com/bethropolis/promptpack/internal/utils"
)

// Engine decides whether relative paths are ignored. It is not safe for
// concurrent use: Add and the test methods share the memoisation caches.
type Engine struct {
	rules *ruleSet

	// ignoreCache backs Ignores, testCache backs Test and CheckIgnore.
	ignoreCache map[string]Result
	testCache   map[string]Result

	// Configuration flags
	ignoreCase      bool
	strictPathCheck bool
	windowsPaths    bool
	logger          utils.Logger
}
