package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lehigh-university-libraries/bookshelf/internal/middleware"
)

// RouterConfig controls the middleware stack
type RouterConfig struct {
	CORSOrigins       []string
	RateLimitRequests int
	RateLimitWindow   time.Duration
	// Media serves the in-memory store's files under /media when set
	Media MediaSource
}

// NewRouter wires every route. Paths under /api are aliases used by the
// web client.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.AccessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSOrigins))

	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
	r.Handle("/metrics", promhttp.Handler())

	if cfg.Media != nil {
		r.Get("/media/*", MediaHandler(cfg.Media))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Post("/upload", h.HandleUpload)
		r.Get("/photos", h.HandlePhotos)
		r.Post("/analyze", h.HandleAnalyze)
		r.Post("/verify-access", h.HandleVerifyAccess)

		r.Route("/api", func(r chi.Router) {
			r.Post("/upload", h.HandleUpload)
			r.Get("/photos", h.HandlePhotos)
			r.Post("/analyze-books", h.HandleAnalyze)
			r.Post("/verify-access", h.HandleVerifyAccess)
		})
	})

	return r
}
