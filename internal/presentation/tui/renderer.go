package tui

import (
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders review markdown for the terminal.
// When glamour cannot build a renderer the content is passed through as is.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}
