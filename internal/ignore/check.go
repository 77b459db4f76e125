package ignore

import (
	"strings"
)

// Test reports whether path is ignored and whether a negated rule
// re-included it. Results are memoised until the next Add.
func (e *Engine) Test(path string) (Result, error) {
	return e.test(path, e.testCache, true)
}

// Ignores reports whether path is ignored
func (e *Engine) Ignores(path string) (bool, error) {
	res, err := e.test(path, e.ignoreCache, false)
	if err != nil {
		return false, err
	}
	return res.Ignored, nil
}

// CheckIgnore is Test for directory paths ending in "/": parents resolve as
// usual but the directory itself uses the ancestor-check expressions, so
// "dir/*" reports "dir/" as ignored
func (e *Engine) CheckIgnore(path string) (Result, error) {
	if !strings.HasSuffix(e.convert(path), "/") {
		return e.Test(path)
	}

	p, err := e.checkPath(path)
	if err != nil {
		return Result{}, err
	}

	segments := splitPath(p)
	if len(segments) > 0 {
		segments = segments[:len(segments)-1]
	}
	if len(segments) > 0 {
		parent := e.resolve(strings.Join(segments, "/")+"/", e.testCache, true, segments)
		if parent.Ignored {
			return parent, nil
		}
	}

	return e.rules.evaluate(p, false, modeCheck), nil
}

// Filter returns the paths that are not ignored, in input order
func (e *Engine) Filter(paths []string) ([]string, error) {
	kept := make([]string, 0, len(paths))
	for _, p := range paths {
		ignored, err := e.Ignores(p)
		if err != nil {
			return nil, err
		}
		if !ignored {
			kept = append(kept, p)
		}
	}
	return kept, nil
}

// CreateFilter returns a predicate that keeps paths which are valid and not
// ignored
func (e *Engine) CreateFilter() func(string) bool {
	return func(path string) bool {
		ignored, err := e.Ignores(path)
		return err == nil && !ignored
	}
}

func (e *Engine) test(original string, cache map[string]Result, checkUnignored bool) (Result, error) {
	path, err := e.checkPath(original)
	if err != nil {
		return Result{}, err
	}
	return e.resolve(path, cache, checkUnignored, nil), nil
}

// resolve walks up the ancestor chain first: once a parent directory is
// ignored, its result is reused for every descendant
func (e *Engine) resolve(path string, cache map[string]Result, checkUnignored bool, segments []string) Result {
	if res, ok := cache[path]; ok {
		return res
	}

	if segments == nil {
		segments = splitPath(path)
	}
	if len(segments) > 0 {
		segments = segments[:len(segments)-1]
	}

	if len(segments) == 0 {
		res := e.rules.evaluate(path, checkUnignored, modeIgnore)
		cache[path] = res
		return res
	}

	parent := e.resolve(strings.Join(segments, "/")+"/", cache, checkUnignored, segments)
	if parent.Ignored {
		cache[path] = parent
		return parent
	}

	res := e.rules.evaluate(path, checkUnignored, modeIgnore)
	cache[path] = res
	return res
}
