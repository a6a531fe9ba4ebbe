package render

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"path"
	"sync"

	"github.com/starford/pagetree/internal/page"
	"github.com/starford/pagetree/internal/storage"
)

// PartialRenderer executes a template file found among a page's content files.
type PartialRenderer interface {
	RenderPartial(ctx context.Context, w io.Writer, file string, p *page.Page) error
}

// Templates parses html/template files from storage. Parsed templates are
// cached by path and reparsed when the file text changes.
type Templates struct {
	store storage.Provider
	funcs template.FuncMap
	cache sync.Map // path -> cachedTemplate
}

type cachedTemplate struct {
	text string
	tmpl *template.Template
}

// NewTemplates creates a template loader over store.
func NewTemplates(store storage.Provider) *Templates {
	return &Templates{
		store: store,
		funcs: template.FuncMap{
			"safeHTML": func(s string) template.HTML { return template.HTML(s) },
		},
	}
}

// Load returns the parsed template at file.
func (t *Templates) Load(file string) (*template.Template, error) {
	text, err := t.store.ReadText(file)
	if err != nil {
		return nil, fmt.Errorf("render: template %s: %w", file, err)
	}
	if v, ok := t.cache.Load(file); ok {
		if c := v.(cachedTemplate); c.text == text {
			return c.tmpl, nil
		}
	}
	tmpl, err := template.New(path.Base(file)).Funcs(t.funcs).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("render: template %s: %w", file, err)
	}
	t.cache.Store(file, cachedTemplate{text: text, tmpl: tmpl})
	return tmpl, nil
}

// RenderPartial executes the template at file with the page as data.
func (t *Templates) RenderPartial(ctx context.Context, w io.Writer, file string, p *page.Page) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmpl, err := t.Load(file)
	if err != nil {
		return err
	}
	if err := tmpl.Execute(w, p); err != nil {
		return fmt.Errorf("render: partial %s: %w", file, err)
	}
	return nil
}
