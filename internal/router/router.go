package router

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/leca/dt-serving-urls/internal/api"
	"github.com/leca/dt-serving-urls/internal/config"
	"github.com/leca/dt-serving-urls/internal/database"
	"github.com/leca/dt-serving-urls/internal/handler"
	"github.com/leca/dt-serving-urls/internal/lookupsvc"
	"github.com/leca/dt-serving-urls/internal/media"
	"github.com/leca/dt-serving-urls/internal/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds the application dependencies and HTTP router.
type Server struct {
	DB       database.Database
	Store    storage.Storage
	Pipeline *media.Pipeline
	Config   *config.Config
	Router   chi.Router
}

// New creates the host-facing API server with a fully configured chi router.
func New(db database.Database, store storage.Storage, pipeline *media.Pipeline, cfg *config.Config) *Server {
	s := &Server{DB: db, Store: store, Pipeline: pipeline, Config: cfg}

	h := &handler.Handler{
		DB:       db,
		Store:    store,
		Pipeline: pipeline,
		Config:   cfg,
	}

	r := newRouter()

	r.Route("/media", func(r chi.Router) {
		r.Use(api.AuthMiddleware(cfg.AuthToken))

		r.Post("/", h.CreateMediaItem)
		if store != nil {
			r.Post("/upload", h.UploadMediaItem)
		}
		r.Get("/", h.ListMediaItems)
		r.Get("/{id}", h.GetMediaItem)
		r.Delete("/{id}", h.DeleteMediaItem)
		r.Get("/{id}/downsize", h.GetDownsize)
		r.Get("/{id}/srcset", h.GetSrcset)
	})

	r.Get("/sizes", h.ListSizes)

	s.Router = r
	return s
}

// NewLookup creates the lookup service server. Object lookups live below
// lookupsvc.ObjectsPrefix so no object key collides with /health or /metrics.
func NewLookup(svc *lookupsvc.Service) chi.Router {
	r := newRouter()
	r.Mount("/", svc.Routes())
	return r
}

// newRouter returns a router with the shared middleware stack, health check
// and metrics endpoint.
func newRouter() chi.Router {
	r := chi.NewRouter()

	// CORS must run before other middleware to handle preflight OPTIONS.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Length", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check and metrics (no auth required).
	r.Get("/health", Health)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Health returns a simple health-check response.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
		slog.Error("health: failed to encode response", "error", err)
	}
}
