package api

import (
	"errors"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/starford/pagetree/internal/apperr"
	"github.com/starford/pagetree/internal/pageservice"
	"github.com/starford/pagetree/internal/storage"
)

// SiteHandler serves rendered pages. Requests for a page directory without
// the trailing slash are redirected to the canonical URL, pages with a
// redirect URL answer 302, and plain site files whose path has no segment
// starting with the ignore prefix are served as-is. Partial templates are
// never served as source.
type SiteHandler struct {
	svc          *pageservice.Service
	store        storage.Provider
	ignorePrefix string
	isPartial    func(file string) bool
}

// NewSiteHandler creates a SiteHandler.
func NewSiteHandler(svc *pageservice.Service) *SiteHandler {
	l := svc.Loader()
	return &SiteHandler{
		svc:          svc,
		store:        l.Store(),
		ignorePrefix: l.Settings().IgnorePrefix,
		isPartial:    svc.Renderer().IsPartial,
	}
}

func (h *SiteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := h.svc.Lookup(ctx, r.URL.Path)
	switch {
	case errors.Is(err, apperr.ErrNotAPage):
		if !h.serveFile(w, r) {
			http.NotFound(w, r)
		}
		return
	case err != nil:
		slog.Error("site: load failed", slog.String("url", r.URL.Path), slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if p.ResolvedURL() != p.URL() {
		http.Redirect(w, r, p.ResolvedURL(), http.StatusFound)
		return
	}
	if r.URL.Path != p.URL() {
		http.Redirect(w, r, p.URL(), http.StatusMovedPermanently)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.svc.RenderPage(ctx, w, p); err != nil {
		slog.Error("site: render failed", slog.String("url", p.URL()), slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (h *SiteHandler) serveFile(w http.ResponseWriter, r *http.Request) bool {
	if strings.HasSuffix(r.URL.Path, "/") {
		return false
	}
	rel := storage.PathFromURL(r.URL.Path)
	if h.isPartial(rel) {
		return false
	}
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, h.ignorePrefix) {
			return false
		}
	}
	if !h.store.Exists(rel) {
		return false
	}
	text, err := h.store.ReadText(rel)
	if err != nil {
		return false
	}
	http.ServeContent(w, r, path.Base(rel), time.Time{}, strings.NewReader(text))
	return true
}
