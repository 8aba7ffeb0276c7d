package content

import (
	"html"
	"regexp"
	"strings"
)

// The block pattern only looks at the tag name prefix, so <hr>, <header>,
// <pre> and <link> count as block tags too. Attributes containing '>' end
// the match early.
var (
	blockTagRegex = regexp.MustCompile(`([^\n])</?(h|br|p|ul|ol|li|blockquote|section|table|tr|div)(?s:.)*?>([^\n])`)
	anyTagRegex   = regexp.MustCompile(`<(?s:.)*?>`)
)

// StripHTML removes markup, turning block-level tags that sit between two
// characters on the same line into a line break.
func StripHTML(s string) string {
	s = blockTagRegex.ReplaceAllString(s, "${1}\n${3}")
	return anyTagRegex.ReplaceAllString(s, "")
}

// Snippet returns the plain, entity-decoded text of a markup fragment.
func Snippet(s string) string {
	return strings.TrimSpace(html.UnescapeString(StripHTML(s)))
}
