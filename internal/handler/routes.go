package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Routes(apiRL *RateLimiter) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Get("/healthz", h.Healthz)

	// JSON REST API v1, bearer token auth with a per-client rate limit
	r.Route("/api/v1", func(r chi.Router) {
		if apiRL != nil {
			r.Use(apiRL.Middleware)
		}
		r.Use(h.requireAPIAuth)

		r.Get("/positions", h.APIPositions)
		r.Post("/commands", h.APICommandPreview)

		r.Post("/jobs", h.APIJobSubmit)
		r.Get("/jobs", h.APIJobList)
		r.Get("/jobs/{id}", h.APIJobGet)
		r.Get("/jobs/{id}/events", h.APIJobEvents)
	})

	return r
}
