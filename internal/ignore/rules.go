package ignore

// Result is the decision for one path
type Result struct {
	// Ignored reports that the path is excluded.
	Ignored bool
	// Unignored reports that a negated rule re-included the path.
	Unignored bool
	// Rule is the last non-negated rule that produced Ignored, nil otherwise.
	Rule *Pattern
}

// ruleSet holds compiled patterns in insertion order
type ruleSet struct {
	ignoreCase bool
	rules      []*Pattern
}

func newRuleSet(ignoreCase bool) *ruleSet {
	return &ruleSet{ignoreCase: ignoreCase}
}

// add compiles and appends one pattern line
func (rs *ruleSet) add(raw, source string, line int) error {
	p, err := compilePattern(raw, rs.ignoreCase)
	if err != nil {
		return err
	}
	p.Source = source
	p.Line = line
	rs.rules = append(rs.rules, p)
	return nil
}

// merge appends every rule of other, keeping their relative order
func (rs *ruleSet) merge(other *ruleSet) {
	rs.rules = append(rs.rules, other.rules...)
}

// evaluate tests one path without looking at its parent directories.
// Negated rules are only tried once the path is ignored, or up front when
// checkUnignored is set.
func (rs *ruleSet) evaluate(path string, checkUnignored bool, m mode) Result {
	var res Result

	for _, rule := range rs.rules {
		negative := rule.Negative

		if res.Unignored == negative && res.Ignored != res.Unignored {
			continue
		}
		if negative && !res.Ignored && !res.Unignored && !checkUnignored {
			continue
		}
		if !rule.match(path, m) {
			continue
		}

		res.Ignored = !negative
		res.Unignored = negative
		if negative {
			res.Rule = nil
		} else {
			res.Rule = rule
		}
	}

	return res
}
