// Package api exposes catalog lookups over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	service "github.com/okian/bnet/internal/app"
	"github.com/okian/bnet/internal/catalog"
	"github.com/okian/bnet/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	StatsProvider

	// Endpoints lists the registered catalog entries.
	Endpoints() []catalog.Entry

	// LookupOne runs a single call; LookupMany runs calls concurrently.
	LookupOne(ctx context.Context, call service.Call) service.Result
	LookupMany(ctx context.Context, calls []service.Call) []service.Result
}

// Server wires HTTP routes for the gateway.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	lookupHandler *LookupHandler

	allowedOrigins []string
}

// Option configures a Server.
type Option func(*Server)

// WithAllowedOrigins sets the CORS origins. Defaults to any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.allowedOrigins = origins
		}
	}
}

// WithMaxBatch caps the number of calls accepted by POST /batch.
func WithMaxBatch(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.lookupHandler.maxBatch = n
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(deps),
		lookupHandler:  NewLookupHandler(deps, logger.Named("api")),
		allowedOrigins: []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the chi router serving every route.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	r.Get("/endpoints", MetricsMiddleware(s.lookupHandler.HandleEndpoints, "endpoints"))
	r.Post("/batch", MetricsMiddleware(s.lookupHandler.HandleBatch, "batch"))
	r.Get("/v1/{endpoint}/*", MetricsMiddleware(s.lookupHandler.HandleLookup, "lookup"))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", nil)
	})
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
