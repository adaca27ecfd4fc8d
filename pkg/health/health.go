// Package health provides liveness and readiness probe endpoints.
//
// Checks run on demand when a probe endpoint is hit, each bounded by its own
// timeout. Readiness additionally gates on an explicit ready flag so a
// draining server can pull itself out of rotation before shutdown.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"
)

// CheckFunc probes one component. It returns nil when the component is
// healthy.
type CheckFunc func(ctx context.Context) error

type check struct {
	name    string
	timeout time.Duration
	probe   CheckFunc
}

// Service aggregates named liveness and readiness checks.
type Service struct {
	mu        sync.Mutex
	liveness  []check
	readiness []check
	ready     atomic.Bool
}

// New creates an empty health Service. It starts not ready.
func New() *Service {
	return &Service{}
}

// AddLivenessCheck registers a check for the liveness probe.
func (s *Service) AddLivenessCheck(name string, timeout time.Duration, probe CheckFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.liveness = append(s.liveness, check{name: name, timeout: timeout, probe: probe})
}

// AddReadinessCheck registers a check for the readiness probe.
func (s *Service) AddReadinessCheck(name string, timeout time.Duration, probe CheckFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readiness = append(s.readiness, check{name: name, timeout: timeout, probe: probe})
}

// SetReady flips the explicit readiness gate.
func (s *Service) SetReady(ready bool) {
	s.ready.Store(ready)
}

// LiveEndpoint serves the liveness probe.
func (s *Service) LiveEndpoint(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	checks := append([]check(nil), s.liveness...)
	s.mu.Unlock()

	s.respond(w, r, checks, true)
}

// ReadyEndpoint serves the readiness probe. It fails while the explicit
// ready gate is down, regardless of check results.
func (s *Service) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	checks := append([]check(nil), s.readiness...)
	s.mu.Unlock()

	s.respond(w, r, checks, s.ready.Load())
}

type probeResult struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (s *Service) respond(w http.ResponseWriter, r *http.Request, checks []check, gate bool) {
	result := probeResult{Status: "ok", Checks: make(map[string]string, len(checks))}
	healthy := gate
	if !gate {
		result.Status = "not ready"
	}

	for _, c := range checks {
		ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
		err := c.probe(ctx)
		cancel()

		if err != nil {
			healthy = false
			result.Status = "unhealthy"
			result.Checks[c.name] = err.Error()
		} else {
			result.Checks[c.name] = "ok"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if !healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(result)
}

// GoroutineCountCheck returns a check that fails when the process exceeds
// the given goroutine count, a cheap proxy for leaks.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(context.Context) error {
		if n := runtime.NumGoroutine(); n > threshold {
			return errors.Errorf("too many goroutines: %d > %d", n, threshold)
		}
		return nil
	}
}
