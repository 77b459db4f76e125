package ignore

import (
	"fmt"
	"regexp"
	"strings"
)

// mode selects which of the two compiled expressions a rule is tested with
type mode int

const (
	// modeIgnore is the strict expression used for ordinary matching.
	modeIgnore mode = iota
	// modeCheck lets a trailing "*" match an empty name so that directory
	// prefixes of possibly-unignored paths are not pruned.
	modeCheck
)

// matchNothing replaces character classes that can never match.
const matchNothing = `[^\x00-\x{10FFFF}]`

// Pattern is one compiled ignore rule. It is immutable once compiled.
type Pattern struct {
	// Raw is the line as authored.
	Raw string
	// Body is Raw without the negation marker, with "\!" and "\#" restored.
	Body string
	// Negative reports a leading "!".
	Negative bool
	// IgnoreCase reports whether both expressions are case-insensitive.
	IgnoreCase bool
	// Source names where the pattern came from (e.g. ".gitignore"), may be empty.
	Source string
	// Line is the 1-based line number within Source, 0 when unknown.
	Line int

	regex      *regexp.Regexp
	checkRegex *regexp.Regexp
}

// String returns the pattern as authored
func (p *Pattern) String() string {
	return p.Raw
}

// Location formats Source and Line the way `git check-ignore -v` does
func (p *Pattern) Location() string {
	if p.Source == "" {
		return ""
	}
	if p.Line == 0 {
		return p.Source
	}
	return fmt.Sprintf("%s:%d", p.Source, p.Line)
}

// Expr returns the compiled expression source for the given check mode
func (p *Pattern) Expr(check bool) string {
	if check {
		return p.checkRegex.String()
	}
	return p.regex.String()
}

func (p *Pattern) match(path string, m mode) bool {
	if m == modeCheck {
		return p.checkRegex.MatchString(path)
	}
	return p.regex.MatchString(path)
}

var (
	reInvalidTrailingBackslash = regexp.MustCompile(`(?:[^\\]|^)\\$`)
	reTrailingSpaces           = regexp.MustCompile(`((?:\\\\)*?)(\\?\s+)$`)
	reEscapedSpace             = regexp.MustCompile(`(\\+?)\s`)
	reLeadingGlobstar          = regexp.MustCompile(`^\^*\\\*\\\*\\/`)
	reBracket                  = regexp.MustCompile(`(\\)?\[([^\]/]*?)(\\*)($|\])`)
	reRange                    = regexp.MustCompile(`([0-z])-([0-z])`)
	reTrailingWildcard         = regexp.MustCompile(`(^|\\/)?\\\*$`)
)

// regexMeta lists the characters escaped before wildcard translation.
const regexMeta = `\$.|*+(){^`

// validPattern rejects blank lines, comments and lines that end in a lone
// backslash
func validPattern(raw string) bool {
	return raw != "" &&
		strings.TrimSpace(raw) != "" &&
		!reInvalidTrailingBackslash.MatchString(raw) &&
		!strings.HasPrefix(raw, "#")
}

// compilePattern turns one pattern line into a Pattern
func compilePattern(raw string, ignoreCase bool) (*Pattern, error) {
	if !validPattern(raw) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, raw)
	}

	body := raw
	negative := false
	if strings.HasPrefix(body, "!") {
		negative = true
		body = body[1:]
	}
	if strings.HasPrefix(body, `\!`) {
		body = body[1:]
	} else if strings.HasPrefix(body, `\#`) {
		body = body[1:]
	}

	prefix := translate(body)

	regex, err := compileExpr(trailingWildcard(prefix, modeIgnore), ignoreCase)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, raw, err)
	}
	checkRegex, err := compileExpr(trailingWildcard(prefix, modeCheck), ignoreCase)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, raw, err)
	}

	return &Pattern{
		Raw:        raw,
		Body:       body,
		Negative:   negative,
		IgnoreCase: ignoreCase,
		regex:      regex,
		checkRegex: checkRegex,
	}, nil
}

func compileExpr(expr string, ignoreCase bool) (*regexp.Regexp, error) {
	if ignoreCase {
		expr = "(?i)" + expr
	}
	return regexp.Compile(expr)
}

// translate runs the ordered translation steps. Every step receives the
// output of the previous one plus the untouched body.
func translate(body string) string {
	steps := []func(expr, body string) string{
		trimBOM,
		trimTrailingSpaces,
		unescapeSpaces,
		escapeMeta,
		translateQuestionMarks,
		anchorLeadingSlash,
		escapeSlashes,
		translateLeadingGlobstar,
		anchorStart,
		translateGlobstars,
		translateIntermediateWildcards,
		unescapeMeta,
		collapseBackslashes,
		translateBrackets,
		anchorEnd,
	}

	expr := body
	for _, step := range steps {
		expr = step(expr, body)
	}
	return expr
}

func trimBOM(expr, _ string) string {
	return strings.TrimPrefix(expr, "\uFEFF")
}

// trimTrailingSpaces drops trailing whitespace unless it is escaped:
// "a\ " -> "a ", "a  " -> "a", "a \ " -> "a  "
func trimTrailingSpaces(expr, _ string) string {
	loc := reTrailingSpaces.FindStringSubmatchIndex(expr)
	if loc == nil {
		return expr
	}
	pairs := expr[loc[2]:loc[3]]
	spaces := expr[loc[4]:loc[5]]
	if strings.HasPrefix(spaces, `\`) {
		return expr[:loc[0]] + pairs + " "
	}
	return expr[:loc[0]] + pairs
}

// unescapeSpaces turns "\ " into " " while keeping even backslash runs
func unescapeSpaces(expr, _ string) string {
	return reEscapedSpace.ReplaceAllStringFunc(expr, func(m string) string {
		slashes := m[:len(m)-1]
		return slashes[:len(slashes)-len(slashes)%2] + " "
	})
}

func escapeMeta(expr, _ string) string {
	var b strings.Builder
	b.Grow(len(expr) * 2)
	for _, r := range expr {
		if strings.ContainsRune(regexMeta, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func translateQuestionMarks(expr, _ string) string {
	return strings.ReplaceAll(expr, "?", "[^/]")
}

func anchorLeadingSlash(expr, _ string) string {
	if strings.HasPrefix(expr, "/") {
		return "^" + expr[1:]
	}
	return expr
}

func escapeSlashes(expr, _ string) string {
	return strings.ReplaceAll(expr, "/", `\/`)
}

// translateLeadingGlobstar makes "**/foo" equivalent to "foo"
func translateLeadingGlobstar(expr, _ string) string {
	return reLeadingGlobstar.ReplaceAllLiteralString(expr, `^(?:.*\/)?`)
}

// anchorStart prefixes unanchored expressions: a body without an inner slash
// matches at any segment boundary, one with an inner slash only at the root
func anchorStart(expr, body string) string {
	if expr == "" || expr[0] == '^' {
		return expr
	}
	if len(body) > 0 && strings.Contains(body[:len(body)-1], "/") {
		return "^" + expr
	}
	return `(?:^|\/)` + expr
}

// translateGlobstars rewrites "/**" as any number of whole directories, or as
// everything below when it ends the pattern
func translateGlobstars(expr, _ string) string {
	const token = `\/\*\*`

	var b strings.Builder
	for i := 0; i < len(expr); {
		if strings.HasPrefix(expr[i:], token) {
			rest := expr[i+len(token):]
			if rest == "" {
				b.WriteString(`\/.+`)
				i += len(token)
				continue
			}
			if strings.HasPrefix(rest, `\/`) {
				b.WriteString(`(?:\/[^\/]+)*`)
				i += len(token)
				continue
			}
		}
		b.WriteByte(expr[i])
		i++
	}
	return b.String()
}

// translateIntermediateWildcards rewrites escaped "*" runs that are followed
// by at least one more character. An escaped user "\*" is preceded by a
// backslash and stays literal; the trailing "*" is left for trailingWildcard.
func translateIntermediateWildcards(expr, _ string) string {
	const star = `\*`

	var b strings.Builder
	for i := 0; i < len(expr); {
		j := i
		switch {
		case i == 0 && strings.HasPrefix(expr, star):
		case expr[i] != '\\':
			for j < len(expr) && expr[j] != '\\' {
				j++
			}
		default:
			b.WriteByte(expr[i])
			i++
			continue
		}

		n := 0
		for strings.HasPrefix(expr[j+n*len(star):], star) {
			n++
		}
		if n > 0 && j+n*len(star) == len(expr) {
			n--
		}
		if n == 0 {
			if j == i {
				j++
			}
			b.WriteString(expr[i:j])
			i = j
			continue
		}

		b.WriteString(expr[i:j])
		b.WriteString(strings.Repeat(`[^\/]*`, n))
		i = j + n*len(star)
	}
	return b.String()
}

// unescapeMeta reverts the metacharacter escaping of a user-escaped
// character: "\\\*" -> "\*"
func unescapeMeta(expr, _ string) string {
	var b strings.Builder
	for i := 0; i < len(expr); {
		if strings.HasPrefix(expr[i:], `\\\`) && i+3 < len(expr) && strings.IndexByte(regexMeta[1:], expr[i+3]) >= 0 {
			b.WriteByte('\\')
			i += 3
			continue
		}
		b.WriteByte(expr[i])
		i++
	}
	return b.String()
}

func collapseBackslashes(expr, _ string) string {
	return strings.ReplaceAll(expr, `\\`, `\`)
}

// translateBrackets validates "[...]" expressions. Reversed ranges are
// dropped, a leading "!" negates the class, unterminated classes match
// nothing.
func translateBrackets(expr, _ string) string {
	return replaceSubmatches(reBracket, expr, func(groups []string) string {
		lead, body, trailing, closing := groups[1], groups[2], groups[3], groups[4]

		if lead == `\` {
			return `\[` + body + evenBackslashes(trailing) + closing
		}
		if closing != "]" || len(trailing)%2 != 0 {
			return matchNothing
		}

		negate := ""
		if strings.HasPrefix(body, "!") {
			negate = "^"
			body = body[1:]
		}
		content := sanitizeRange(body) + trailing
		if content == "" {
			return matchNothing
		}
		return "[" + negate + content + "]"
	})
}

// sanitizeRange removes ranges whose bounds are reversed ("z-a")
func sanitizeRange(body string) string {
	return replaceSubmatches(reRange, body, func(groups []string) string {
		if groups[1][0] <= groups[2][0] {
			return groups[0]
		}
		return ""
	})
}

func evenBackslashes(s string) string {
	return s[:len(s)-len(s)%2]
}

// anchorEnd keeps "ab" from matching "abc": a pattern ending in "/" matches
// directory paths only, any other must end at the end or before a trailing
// slash. Patterns ending in "*" are finished by trailingWildcard.
func anchorEnd(expr, _ string) string {
	if expr == "" {
		return expr
	}
	switch expr[len(expr)-1] {
	case '*':
		return expr
	case '/':
		return expr + "$"
	default:
		return expr + `(?:$|\/$)`
	}
}

// trailingWildcard expands a final "*". In ignore mode "dir/*" needs at least
// one more character, in check mode it also matches "dir/" itself.
func trailingWildcard(expr string, m mode) string {
	loc := reTrailingWildcard.FindStringSubmatchIndex(expr)
	if loc == nil {
		return expr
	}

	slash := ""
	if loc[2] >= 0 {
		slash = expr[loc[2]:loc[3]]
	}

	var prefix string
	switch {
	case slash != "" && m == modeIgnore:
		prefix = slash + "[^/]+"
	case slash != "":
		prefix = slash + "[^/]*"
	default:
		prefix = "[^/]*"
	}
	return expr[:loc[0]] + prefix + `(?:$|\/$)`
}

// replaceSubmatches is ReplaceAllStringFunc with access to capture groups;
// unmatched groups are empty strings
func replaceSubmatches(re *regexp.Regexp, s string, fn func(groups []string) string) string {
	matches := re.FindAllStringSubmatchIndex(s, -1)
	if matches == nil {
		return s
	}

	var b strings.Builder
	last := 0
	for _, loc := range matches {
		groups := make([]string, len(loc)/2)
		for g := range groups {
			if loc[2*g] >= 0 {
				groups[g] = s[loc[2*g]:loc[2*g+1]]
			}
		}
		b.WriteString(s[last:loc[0]])
		b.WriteString(fn(groups))
		last = loc[1]
	}
	b.WriteString(s[last:])
	return b.String()
}
