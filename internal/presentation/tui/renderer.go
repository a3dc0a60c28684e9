package tui

import (
	"github.com/charmbracelet/glamour"
)

// Renderer turns markdown into terminal output.
type Renderer func(markdown string) (string, error)

// NewRenderer returns a glamour renderer wrapping at width. Non-positive
// widths keep glamour's default. If glamour cannot be initialized the
// markdown is returned as is.
func NewRenderer(width int) Renderer {
	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return PlainRenderer
	}
	return r.Render
}

// PlainRenderer leaves markdown untouched, for pipes and tests.
func PlainRenderer(markdown string) (string, error) {
	return markdown, nil
}
