// Package core is the API chassis for the Routecast backend: the chi router,
// the global middleware chain (request IDs, logging, CORS, metrics, panic
// recovery), the JSON response envelope, request validation, and the health
// endpoint. Domain handlers plug in through V1RouteRegistrars.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"routecast/internal/config"
)

// MetricsCollector records per-request telemetry. The production
// implementation publishes to CloudWatch; tests leave it nil.
type MetricsCollector interface {
	RecordRequest(method, endpoint, status string, duration time.Duration)
}

// V1RouteRegistrar mounts a group of domain routes under /v1. main.go
// collects registrars so core never imports handler packages.
type V1RouteRegistrar func(r chi.Router)

// Server bundles the chassis dependencies. Fields are exported so main.go
// and tests can inject collaborators before MountRoutes.
type Server struct {
	Config    *config.Config
	Logger    *slog.Logger
	Validator *Validator
	Metrics   MetricsCollector

	// HealthProbes back the /health endpoint, one per critical dependency.
	HealthProbes []HealthProbe

	// V1RouteRegistrars are invoked by MountRoutes, in order.
	V1RouteRegistrars []V1RouteRegistrar

	router *chi.Mux
}

// NewServer builds an unmounted server. Routes are mounted separately so
// callers can register probes, metrics, and handlers first.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	return &Server{
		Config:    cfg,
		Logger:    logger,
		Validator: NewValidator(),
		router:    chi.NewRouter(),
	}, nil
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router exposes the chi mux for tests that mount routes directly.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Shutdown releases server-owned resources. The database pool is owned and
// closed by main; nothing here holds state yet, but callers already treat
// shutdown as a required step.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.Info("server shutdown complete")
	return nil
}
