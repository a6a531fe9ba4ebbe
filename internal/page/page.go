// Package page resolves a directory tree of page folders into ordered page
// descriptors.
//
// A directory is a page iff it directly contains the properties document
// (by default "_page.yaml"). Each page carries three independently optional
// documents: properties, layout and extra. Child pages and content files are
// resolved lazily and memoized on the descriptor.
package page

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/starford/pagetree/internal/document"
)

// NoSourcePath is the source path of a fallback (non-page) descriptor.
const NoSourcePath = ""

// BuiltinTemplate names the layout template compiled into the renderer.
const BuiltinTemplate = "builtin"

// Properties is the content of the properties document.
type Properties struct {
	Title        string   `yaml:"title" json:"title"`
	RedirectURL  string   `yaml:"redirectUrl" json:"redirectUrl,omitempty"`
	SubPageOrder []string `yaml:"subPageOrder" json:"subPageOrder,omitempty"`
	ContentOrder []string `yaml:"contentOrder" json:"contentOrder,omitempty"`
}

func (p Properties) clone() Properties {
	p.SubPageOrder = slices.Clone(p.SubPageOrder)
	p.ContentOrder = slices.Clone(p.ContentOrder)
	return p
}

// Layout is the content of the layout document.
type Layout struct {
	Template       string   `yaml:"template" json:"template"`
	Stylesheets    []string `yaml:"stylesheets" json:"stylesheets,omitempty"`
	Scripts        []string `yaml:"scripts" json:"scripts,omitempty"`
	HideSubPageNav bool     `yaml:"hideSubPageNav" json:"hideSubPageNav"`
}

func (l Layout) clone() Layout {
	l.Stylesheets = slices.Clone(l.Stylesheets)
	l.Scripts = slices.Clone(l.Scripts)
	return l
}

// DefaultLayout returns the layout used when a page has no layout document.
// A layout document is decoded on top of it.
func DefaultLayout() Layout {
	return Layout{Template: BuiltinTemplate}
}

// Page is one node of the content tree. Everything but the two lazily
// resolved lists is fixed at construction.
type Page struct {
	url    string
	source string
	props  Properties
	layout Layout
	extra  document.Extra

	loader *Loader
	scope  *Scope

	subPages     memo[[]*Page]
	contentFiles memo[[]string]
}

// URL returns the canonical, slash-terminated URL of the page.
func (p *Page) URL() string { return p.url }

// SourcePath returns the directory the page was loaded from, or NoSourcePath
// for a fallback descriptor.
func (p *Page) SourcePath() string { return p.source }

// IsPage reports whether the descriptor was loaded from a page directory.
func (p *Page) IsPage() bool { return p.source != NoSourcePath }

// Title is shorthand for Properties().Title.
func (p *Page) Title() string { return p.props.Title }

// Properties returns a copy of the page properties.
func (p *Page) Properties() Properties { return p.props.clone() }

// Layout returns a copy of the page layout.
func (p *Page) Layout() Layout { return p.layout.clone() }

// Extra returns a shallow copy of the free-form configuration.
func (p *Page) Extra() document.Extra { return maps.Clone(p.extra) }

// ResolvedURL returns the redirect URL when set, otherwise the canonical URL.
func (p *Page) ResolvedURL() string {
	if p.props.RedirectURL != "" {
		return p.props.RedirectURL
	}
	return p.url
}

// Scope returns the request scope the page was loaded in, if any.
func (p *Page) Scope() *Scope { return p.scope }

func (p *Page) String() string {
	return fmt.Sprintf("Title: %s, Url: %s", p.props.Title, p.ResolvedURL())
}

// SubPages returns the ordered child pages. The list is resolved on the first
// successful call and reused afterwards. Siblings load concurrently; each
// lands in its resolved position.
func (p *Page) SubPages(ctx context.Context) ([]*Page, error) {
	pages, err := p.subPages.get(func() ([]*Page, error) {
		if !p.IsPage() {
			return []*Page{}, nil
		}
		paths, err := p.loader.subPagePaths(p.source, p.props.SubPageOrder)
		if err != nil {
			return nil, err
		}

		pages := make([]*Page, len(paths))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.loader.settings.LoadConcurrency)
		for i, child := range paths {
			g.Go(func() error {
				sp, err := p.loadChild(gctx, child)
				if err != nil {
					return err
				}
				pages[i] = sp
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return pages, nil
	})
	return slices.Clone(pages), err
}

// ContentFiles returns the ordered content file paths of the page, resolved
// once and reused afterwards.
func (p *Page) ContentFiles(ctx context.Context) ([]string, error) {
	files, err := p.contentFiles.get(func() ([]string, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !p.IsPage() {
			return []string{}, nil
		}
		return p.loader.contentFilePaths(p.source, p.props.ContentOrder)
	})
	return slices.Clone(files), err
}

func (p *Page) loadChild(ctx context.Context, path string) (*Page, error) {
	if p.scope != nil {
		return p.scope.Page(ctx, path)
	}
	return p.loader.LoadFromPath(ctx, path, nil)
}

// memo holds a value computed at most once successfully. Errors are returned
// to the caller and leave the slot unset.
type memo[T any] struct {
	mu   sync.Mutex
	done bool
	val  T
}

func (m *memo[T]) get(compute func() (T, error)) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done {
		return m.val, nil
	}
	v, err := compute()
	if err != nil {
		var zero T
		return zero, err
	}
	m.val, m.done = v, true
	return v, nil
}
