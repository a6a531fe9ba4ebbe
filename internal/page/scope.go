package page

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/starford/pagetree/internal/storage"
)

// Scope caches the pages loaded during one traversal, such as a single HTTP
// request or an index sync pass. Repeated lookups of a path return the same
// *Page. Concurrent lookups of one path share a single load, and only
// successful loads are published.
type Scope struct {
	loader *Loader
	pages  sync.Map // path -> *Page
	group  singleflight.Group
}

// NewScope starts a request scope. Drop it when the traversal ends.
func (l *Loader) NewScope() *Scope {
	return &Scope{loader: l}
}

// Page returns the page at dir, loading it on first request.
func (s *Scope) Page(ctx context.Context, dir string) (*Page, error) {
	dir = cleanPath(dir)
	if v, ok := s.pages.Load(dir); ok {
		s.loader.recorder.IncScopeLookup(true)
		return v.(*Page), nil
	}
	s.loader.recorder.IncScopeLookup(false)

	v, err, _ := s.group.Do(dir, func() (any, error) {
		if v, ok := s.pages.Load(dir); ok {
			return v, nil
		}
		p, err := s.loader.LoadFromPath(ctx, dir, s)
		if err != nil {
			return nil, err
		}
		s.pages.Store(dir, p)
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Page), nil
}

// PageByURL maps url to a directory path and returns its page.
func (s *Scope) PageByURL(ctx context.Context, url string) (*Page, error) {
	return s.Page(ctx, storage.PathFromURL(url))
}

// Len returns the number of pages cached in the scope.
func (s *Scope) Len() int {
	n := 0
	s.pages.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
