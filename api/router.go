package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (s *Server) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logging)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))
	// No middleware.Timeout: batch responses stream for as long as the batch runs

	r.Get("/metrics", s.svcs.Metrics.Handler().ServeHTTP)
	r.Get("/health", s.handleHealthCheck)

	r.Get("/", s.handleSingleClassify)
	r.Post("/batch-classify", s.handleBatchClassify)
	r.Post("/classify", s.handleClassify)

	return r
}
