// Package api exposes the page tree over HTTP: rendered pages for browsers
// and a JSON API under /api.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/pagetree/internal/apperr"
	"github.com/starford/pagetree/internal/pageservice"
)

// Handler holds the JSON route handlers.
type Handler struct {
	svc *pageservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *pageservice.Service) *Handler {
	return &Handler{svc: svc}
}

// pageURL turns the wildcard part of the route into a site URL.
// Encoded slashes (guide%2Fsetup) are accepted.
func pageURL(r *http.Request) string {
	raw := strings.Trim(chi.URLParam(r, "*"), "/")
	if decoded, err := url.PathUnescape(raw); err == nil {
		raw = decoded
	}
	if raw == "" {
		return "/"
	}
	return "/" + strings.Trim(raw, "/") + "/"
}

// writeLookupError maps page lookup failures to a status code.
func writeLookupError(w http.ResponseWriter, op, target string, err error) {
	if errors.Is(err, apperr.ErrNotAPage) || errors.Is(err, apperr.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	slog.Error("api: "+op+" failed", slog.String("url", target), slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
}

// GetPage handles GET /api/pages/*.
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	target := pageURL(r)
	detail, err := h.svc.Detail(r.Context(), target)
	if err != nil {
		writeLookupError(w, "get page", target, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// Tree handles GET /api/tree?root=/docs/&depth=2.
func (h *Handler) Tree(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	root := q.Get("root")
	if root == "" {
		root = "/"
	}
	depth := 0
	if v := q.Get("depth"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorBody("depth must be a non-negative integer"))
			return
		}
		depth = n
	}
	tree, err := h.svc.Tree(r.Context(), root, depth)
	if err != nil {
		writeLookupError(w, "tree", root, err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

// Search handles GET /api/search?q=...&limit=...
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("api: search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Query: q, Results: results})
}
