package bibtex

import (
	"regexp"
	"strings"
)

var (
	commandWithArgRegex = regexp.MustCompile(`\\[a-zA-Z]+\{[^}]*\}`)
	bareCommandRegex    = regexp.MustCompile(`\\[a-zA-Z]+`)
	whitespaceRegex     = regexp.MustCompile(`\s+`)
	braceStripper       = strings.NewReplacer("{", "", "}", "")
)

// CleanText strips LaTeX markup from a field value.
//
// Commands with a braced argument are removed together with the argument,
// then bare commands are removed. Braces left behind by truncated values are
// dropped, which can expose further commands, so bare commands are removed a
// second time. Whitespace runs collapse to a single space.
func CleanText(s string) string {
	s = commandWithArgRegex.ReplaceAllString(s, "")
	s = bareCommandRegex.ReplaceAllString(s, "")
	s = braceStripper.Replace(s)
	s = bareCommandRegex.ReplaceAllString(s, "")
	s = whitespaceRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
