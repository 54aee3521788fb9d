package utils

import (
	"html"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// only line breaks survive in rendered visitor text
var multilinePolicy = bluemonday.NewPolicy().AllowElements("br")

// Multiline escapes visitor text and keeps its line breaks for display.
func Multiline(input string) template.HTML {
	escaped := html.EscapeString(strings.ReplaceAll(input, "\r\n", "\n"))
	withBreaks := strings.ReplaceAll(escaped, "\n", "<br>")
	return template.HTML(multilinePolicy.Sanitize(withBreaks))
}
