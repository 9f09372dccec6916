package sanitize

import (
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// CleanSnippet turns an HTML search snippet into plain markdown.
// Snippets without markup are only whitespace-normalized.
func CleanSnippet(snippet string) string {
	s := strings.TrimSpace(snippet)
	if strings.Contains(s, "<") && strings.Contains(s, ">") {
		if md, err := htmltomarkdown.ConvertString(s); err == nil {
			s = md
		}
	}
	return strings.Join(strings.Fields(s), " ")
}
