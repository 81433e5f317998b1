// Package templates formats command help text.
package templates

import (
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
)

// LongDesc normalizes a command's long description.
func LongDesc(s string) string {
	if len(s) == 0 {
		return s
	}
	return strings.TrimSpace(heredoc.Doc(s))
}

// Examples normalizes a command's examples, indenting each line by two
// spaces.
func Examples(s string) string {
	if len(s) == 0 {
		return s
	}
	lines := strings.Split(strings.TrimSpace(heredoc.Doc(s)), "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = "  " + l
		}
	}
	return strings.Join(lines, "\n")
}
