package core

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// healthCheckTimeout bounds the total time spent on health probes. Probes
// that have not answered by the deadline are reported as unhealthy.
const healthCheckTimeout = 2 * time.Second

// HealthProbe is a single subsystem check (database, upstream API) run by
// the /health endpoint.
type HealthProbe interface {
	// Name identifies the probe in the response body (e.g. "database").
	Name() string

	// Check returns nil when the subsystem is operational. It must respect
	// the context deadline.
	Check(ctx context.Context) error
}

type componentStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type healthResponse struct {
	Status     string                     `json:"status"`
	Version    string                     `json:"version,omitempty"`
	Components map[string]componentStatus `json:"components,omitempty"`
}

// HandleHealth runs all registered probes concurrently and reports 200 when
// every subsystem is operational, 503 otherwise. A probe that panics or
// outlives the deadline counts as unhealthy. The endpoint is public and
// mounted at GET /health.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	version := ""
	if s.Config != nil {
		version = s.Config.Build.Version
	}

	if len(s.HealthProbes) == 0 {
		JSON(w, r, http.StatusOK, healthResponse{Status: "healthy", Version: version})
		return
	}

	// One buffered channel per probe keeps slow probes from leaking
	// goroutines past the deadline.
	checks := make([]chan error, len(s.HealthProbes))
	for i, probe := range s.HealthProbes {
		checks[i] = make(chan error, 1)
		go func(p HealthProbe, out chan<- error) {
			defer func() {
				if rec := recover(); rec != nil {
					out <- fmt.Errorf("probe panicked: %v", rec)
				}
			}()
			out <- p.Check(ctx)
		}(probe, checks[i])
	}

	components := make(map[string]componentStatus, len(s.HealthProbes))
	healthy := true

	for i, probe := range s.HealthProbes {
		var err error
		select {
		case err = <-checks[i]:
		case <-ctx.Done():
			err = fmt.Errorf("health check timed out")
		}

		if err != nil {
			healthy = false
			components[probe.Name()] = componentStatus{Status: "unhealthy", Message: err.Error()}
		} else {
			components[probe.Name()] = componentStatus{Status: "healthy"}
		}
	}

	resp := healthResponse{Version: version, Components: components}
	if healthy {
		resp.Status = "healthy"
		JSON(w, r, http.StatusOK, resp)
		return
	}
	resp.Status = "unhealthy"
	JSON(w, r, http.StatusServiceUnavailable, resp)
}
