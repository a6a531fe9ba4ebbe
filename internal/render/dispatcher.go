package render

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/starford/pagetree/internal/metrics"
	"github.com/starford/pagetree/internal/page"
	"github.com/starford/pagetree/internal/storage"
)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithMarkdownExtensions sets the file suffixes converted as markdown.
func WithMarkdownExtensions(exts ...string) Option {
	return func(d *Dispatcher) {
		if len(exts) > 0 {
			d.markdownExts = exts
		}
	}
}

// WithPartialExtensions sets the file suffixes executed as templates.
func WithPartialExtensions(exts ...string) Option {
	return func(d *Dispatcher) {
		if len(exts) > 0 {
			d.partialExts = exts
		}
	}
}

// WithFrontMatterStripping drops a leading YAML front matter block from
// markdown files before conversion. Off by default: the whole file is
// converted as written.
func WithFrontMatterStripping(on bool) Option {
	return func(d *Dispatcher) { d.stripFrontMatter = on }
}

// WithConverter replaces the markdown converter.
func WithConverter(c Converter) Option {
	return func(d *Dispatcher) { d.converter = c }
}

// WithPartials replaces the partial renderer.
func WithPartials(r PartialRenderer) Option {
	return func(d *Dispatcher) { d.partials = r }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(d *Dispatcher) {
		if r != nil {
			d.recorder = r
		}
	}
}

// Dispatcher renders the content files of a page by kind: partials are
// executed, markdown is converted and anything else is copied verbatim.
type Dispatcher struct {
	store     storage.Provider
	templates *Templates
	converter Converter
	partials  PartialRenderer
	recorder  metrics.Recorder

	markdownExts     []string
	partialExts      []string
	stripFrontMatter bool
}

// NewDispatcher creates a Dispatcher reading content from store.
func NewDispatcher(store storage.Provider, opts ...Option) *Dispatcher {
	templates := NewTemplates(store)
	d := &Dispatcher{
		store:        store,
		templates:    templates,
		converter:    NewMarkdown(),
		partials:     templates,
		recorder:     metrics.NoopRecorder{},
		markdownExts: []string{".md", ".markdown"},
		partialExts:  []string{".gohtml"},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Render writes every content file of p to w in resolved order. The first
// failure aborts the render; output already written stays written.
func (d *Dispatcher) Render(ctx context.Context, w io.Writer, p *page.Page) error {
	files, err := p.ContentFiles(ctx)
	if err != nil {
		return err
	}
	for _, file := range files {
		if err := d.renderFile(ctx, w, file, p); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) renderFile(ctx context.Context, w io.Writer, file string, p *page.Page) error {
	if hasSuffix(file, d.partialExts) {
		return d.partials.RenderPartial(ctx, w, file, p)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	text, err := d.store.ReadText(file)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if hasSuffix(file, d.markdownExts) {
		src := []byte(text)
		if d.stripFrontMatter {
			src = stripFrontMatter(src)
		}
		return d.converter.Convert(src, w)
	}
	if _, err := io.WriteString(w, text); err != nil {
		return fmt.Errorf("render: write %s: %w", file, err)
	}
	return nil
}

// IsPartial reports whether file is executed as a template.
func (d *Dispatcher) IsPartial(file string) bool {
	return hasSuffix(file, d.partialExts)
}

func hasSuffix(name string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}
