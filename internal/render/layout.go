package render

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/starford/pagetree/internal/page"
	"github.com/starford/pagetree/internal/storage"
)

//go:embed templates/layout.gohtml
var builtinLayoutText string

var builtinLayout = template.Must(template.New("layout").Parse(builtinLayoutText))

// NavItem is one entry of the sub-page navigation.
type NavItem struct {
	Title string
	URL   string
}

// View is the data a layout template executes with.
type View struct {
	Page        *page.Page
	Title       string
	Content     template.HTML
	Stylesheets []string
	Scripts     []string
	Nav         []NavItem
}

// RenderPage renders the content of p into its layout. Layout template paths
// are relative to the page directory, or to the site root when they start
// with "/".
func (d *Dispatcher) RenderPage(ctx context.Context, w io.Writer, p *page.Page) error {
	start := time.Now()
	defer func() { d.recorder.ObserveRenderDuration(time.Since(start)) }()

	var content bytes.Buffer
	if err := d.Render(ctx, &content, p); err != nil {
		return err
	}

	layout := p.Layout()
	view := View{
		Page:        p,
		Title:       p.Title(),
		Content:     template.HTML(content.String()),
		Stylesheets: layout.Stylesheets,
		Scripts:     layout.Scripts,
	}
	if !layout.HideSubPageNav {
		subs, err := p.SubPages(ctx)
		if err != nil {
			return err
		}
		for _, sp := range subs {
			view.Nav = append(view.Nav, NavItem{Title: navTitle(sp), URL: sp.ResolvedURL()})
		}
	}

	tmpl, err := d.layoutTemplate(p, layout.Template)
	if err != nil {
		return err
	}
	// Buffer so a failing template leaves w untouched.
	var out bytes.Buffer
	if err := tmpl.Execute(&out, view); err != nil {
		return fmt.Errorf("render: layout %s: %w", p.URL(), err)
	}
	_, err = out.WriteTo(w)
	return err
}

func (d *Dispatcher) layoutTemplate(p *page.Page, name string) (*template.Template, error) {
	if name == "" || name == page.BuiltinTemplate {
		return builtinLayout, nil
	}
	file := strings.TrimPrefix(name, "/")
	if !strings.HasPrefix(name, "/") && p.IsPage() {
		file = storage.Join(p.SourcePath(), name)
	}
	return d.templates.Load(file)
}

func navTitle(p *page.Page) string {
	if t := p.Title(); t != "" {
		return t
	}
	return storage.Base(p.SourcePath())
}
