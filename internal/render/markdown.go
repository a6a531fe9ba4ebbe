// Package render writes the content files of a page, in order, to an output
// stream and wraps the result in the page layout.
package render

import (
	"fmt"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Converter turns markdown source into HTML.
type Converter interface {
	Convert(src []byte, w io.Writer) error
}

// Markdown is a goldmark-backed Converter. Headings get generated ids and raw
// HTML passes through. A single instance is safe for concurrent use.
type Markdown struct {
	md goldmark.Markdown
}

// NewMarkdown builds the default converter.
func NewMarkdown() *Markdown {
	return &Markdown{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

func (m *Markdown) Convert(src []byte, w io.Writer) error {
	if err := m.md.Convert(src, w); err != nil {
		return fmt.Errorf("render: markdown: %w", err)
	}
	return nil
}
