package prompt

import (
	"fmt"
	"sort"
	"strings"
)

// Templates are quick-pick instructions keyed by short name
var Templates = map[string]string{
	"refactor": "Refactor the code above for readability and maintainability without changing its behavior. Explain every change.",
	"explain":  "Explain what the code above does, how the files fit together and any non-obvious logic.",
	"review":   "Review the code above. List bugs, security problems and risky patterns, ordered by severity, with suggested fixes.",
	"tests":    "Write unit tests for the code above covering the main paths and the edge cases.",
	"document": "Write documentation for the code above: a short overview, then every exported type and function.",
	"bugfix":   "Find the bug in the code above, explain its cause and provide a minimal fix.",
}

// TemplateNames returns the template names in alphabetical order
func TemplateNames() []string {
	names := make([]string, 0, len(Templates))
	for name := range Templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Template looks up a template by name, case-insensitively
func Template(name string) (string, error) {
	text, ok := Templates[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("prompt: unknown template %q (available: %s)", name, strings.Join(TemplateNames(), ", "))
	}
	return text, nil
}
