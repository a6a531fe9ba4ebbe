// Package pageservice answers page queries for the HTTP and MCP front ends.
// Every call resolves pages in its own request scope.
package pageservice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/starford/pagetree/internal/apperr"
	"github.com/starford/pagetree/internal/document"
	"github.com/starford/pagetree/internal/index"
	"github.com/starford/pagetree/internal/page"
	"github.com/starford/pagetree/internal/render"
)

var errLimitReached = errors.New("pageservice: limit reached")

// PageSummary is a lightweight reference to a page.
type PageSummary struct {
	URL         string `json:"url"`
	ResolvedURL string `json:"resolvedUrl"`
	Path        string `json:"path"`
	Title       string `json:"title"`
}

// PageDetail is the full representation of a page.
type PageDetail struct {
	PageSummary
	Properties   page.Properties `json:"properties"`
	Layout       page.Layout     `json:"layout"`
	Extra        document.Extra  `json:"extra"`
	SubPages     []PageSummary   `json:"subPages"`
	ContentFiles []string        `json:"contentFiles"`
}

// TreeNode is one page of the navigation tree.
type TreeNode struct {
	PageSummary
	Children []*TreeNode `json:"children,omitempty"`
}

// Service coordinates page loading, rendering and the optional index.
type Service struct {
	loader   *page.Loader
	renderer *render.Dispatcher
	index    index.PageIndex
}

// New creates a page service. idx may be nil, in which case search walks the
// page tree instead of querying the index.
func New(loader *page.Loader, renderer *render.Dispatcher, idx index.PageIndex) *Service {
	return &Service{loader: loader, renderer: renderer, index: idx}
}

// Renderer returns the dispatcher pages are rendered with.
func (s *Service) Renderer() *render.Dispatcher { return s.renderer }

// Loader returns the page loader the service reads from.
func (s *Service) Loader() *page.Loader { return s.loader }

// Lookup loads the page at url in a fresh scope. Directories that are not
// pages yield apperr.ErrNotAPage.
func (s *Service) Lookup(ctx context.Context, url string) (*page.Page, error) {
	p, err := s.loader.NewScope().PageByURL(ctx, url)
	if err != nil {
		return nil, err
	}
	if !p.IsPage() {
		return nil, fmt.Errorf("pageservice: %s: %w", url, apperr.ErrNotAPage)
	}
	return p, nil
}

// Detail returns the page at url with its sub-pages and content files.
func (s *Service) Detail(ctx context.Context, url string) (*PageDetail, error) {
	p, err := s.Lookup(ctx, url)
	if err != nil {
		return nil, err
	}
	subs, err := summaries(ctx, p)
	if err != nil {
		return nil, err
	}
	files, err := p.ContentFiles(ctx)
	if err != nil {
		return nil, err
	}
	return &PageDetail{
		PageSummary:  Summarize(p),
		Properties:   p.Properties(),
		Layout:       p.Layout(),
		Extra:        p.Extra(),
		SubPages:     subs,
		ContentFiles: files,
	}, nil
}

// SubPages returns the ordered sub-pages of the page at url.
func (s *Service) SubPages(ctx context.Context, url string) ([]PageSummary, error) {
	p, err := s.Lookup(ctx, url)
	if err != nil {
		return nil, err
	}
	return summaries(ctx, p)
}

// Tree returns the page tree below url. maxDepth limits how many levels
// below the start page are included; zero or less means unlimited.
func (s *Service) Tree(ctx context.Context, url string, maxDepth int) (*TreeNode, error) {
	root, err := s.Lookup(ctx, url)
	if err != nil {
		return nil, err
	}
	nodes := make(map[*page.Page]*TreeNode)
	err = page.Walk(ctx, root, func(p, parent *page.Page, depth int) error {
		n := &TreeNode{PageSummary: Summarize(p)}
		nodes[p] = n
		if parent != nil {
			pn := nodes[parent]
			pn.Children = append(pn.Children, n)
		}
		if maxDepth > 0 && depth >= maxDepth {
			return page.SkipChildren
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return nodes[root], nil
}

// RenderContent writes the content files of the page at url without layout.
func (s *Service) RenderContent(ctx context.Context, w io.Writer, url string) error {
	p, err := s.Lookup(ctx, url)
	if err != nil {
		return err
	}
	return s.renderer.Render(ctx, w, p)
}

// RenderPage writes p wrapped in its layout.
func (s *Service) RenderPage(ctx context.Context, w io.Writer, p *page.Page) error {
	return s.renderer.RenderPage(ctx, w, p)
}

// Search queries the index. Without an index it matches page titles by
// case-insensitive substring in tree order.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]index.SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	if s.index != nil {
		return s.index.Search(query, limit)
	}

	root, err := s.loader.NewScope().PageByURL(ctx, "/")
	if err != nil || !root.IsPage() {
		return []index.SearchResult{}, err
	}
	needle := strings.ToLower(query)
	out := []index.SearchResult{}
	err = page.Walk(ctx, root, func(p, _ *page.Page, _ int) error {
		if strings.Contains(strings.ToLower(p.Title()), needle) {
			out = append(out, index.SearchResult{Path: p.SourcePath(), URL: p.URL(), Title: p.Title()})
			if len(out) >= limit {
				return errLimitReached
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, errLimitReached) {
		return nil, err
	}
	return out, nil
}

// Summarize builds the summary of p.
func Summarize(p *page.Page) PageSummary {
	return PageSummary{
		URL:         p.URL(),
		ResolvedURL: p.ResolvedURL(),
		Path:        p.SourcePath(),
		Title:       p.Title(),
	}
}

func summaries(ctx context.Context, p *page.Page) ([]PageSummary, error) {
	subs, err := p.SubPages(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]PageSummary, len(subs))
	for i, sp := range subs {
		out[i] = Summarize(sp)
	}
	return out, nil
}
