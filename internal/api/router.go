package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/pagetree/internal/pageservice"
)

// Prefix is the URL path the site router reserves for the JSON API. A root
// page directory of the same name is shadowed.
const Prefix = "/api"

// NewRouter creates a chi router with the JSON API routes, to be mounted at
// /api. events, if non-nil, is mounted at GET /events.
func NewRouter(svc *pageservice.Service, events http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Get("/pages", h.GetPage)
	r.Get("/pages/*", h.GetPage)
	r.Get("/tree", h.Tree)
	r.Get("/search", h.Search)

	if events != nil {
		r.Get("/events", events.ServeHTTP)
	}
	return r
}

// NewSiteRouter mounts the API under /api and serves rendered pages for
// every other path.
func NewSiteRouter(svc *pageservice.Service, events http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Mount(Prefix, NewRouter(svc, events))

	site := NewSiteHandler(svc)
	r.Get("/*", site.ServeHTTP)
	r.Head("/*", site.ServeHTTP)
	return r
}
