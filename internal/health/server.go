// Package health serves liveness and readiness probes for the prediction server.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	defaultPort  = 8081
	pingTimeout  = 3 * time.Second
	statusOK     = "ok"
	statusNotRdy = "not_ready"
)

// Pinger is a dependency whose reachability gates readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse is returned by /health and /live.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp,omitempty"`
	Uptime    string `json:"uptime,omitempty"`
	Version   string `json:"version,omitempty"`
	Commit    string `json:"commit,omitempty"`
}

// ReadyResponse is returned by /ready.
type ReadyResponse struct {
	Status   string            `json:"status"`
	Service  string            `json:"service"`
	Checks   map[string]string `json:"checks,omitempty"`
	Duration string            `json:"duration,omitempty"`
}

// Config holds the configuration for the health server.
type Config struct {
	ServiceName string
	Version     string
	Commit      string
	Port        int
	Logger      *logrus.Logger
	// Checks are pinged concurrently by /ready, keyed by the name reported
	// in the response.
	Checks map[string]Pinger
}

// Server answers container probes. It starts not ready; the caller flips
// readiness once the API is serving.
type Server struct {
	cfg       Config
	logger    *logrus.Logger
	startedAt time.Time
	ready     atomic.Bool
	server    *http.Server
}

// NewServer creates a health server.
func NewServer(cfg Config) *Server {
	if cfg.Port <= 0 {
		cfg.Port = defaultPort
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Server{
		cfg:       cfg,
		logger:    cfg.Logger,
		startedAt: time.Now(),
	}
}

// SetReady marks whether traffic should be routed to this instance.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// IsReady returns whether the server is ready.
func (s *Server) IsReady() bool {
	return s.ready.Load()
}

// Handler returns the probe routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /live", s.handleLive)
	mux.HandleFunc("GET /ready", s.handleReady)
	return mux
}

// Start binds the port and serves in the background until ctx ends. A port
// that cannot be bound is reported here rather than logged later.
func (s *Server) Start(ctx context.Context) error {
	addr := ":" + strconv.Itoa(s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind health port %d: %w", s.cfg.Port, err)
	}

	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.logger.WithFields(logrus.Fields{
		"port":    s.cfg.Port,
		"service": s.cfg.ServiceName,
		"checks":  len(s.cfg.Checks),
	}).Info("Health server starting")

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.WithError(err).Error("Health server error")
		}
	}()

	go func() {
		<-ctx.Done()
		if err := s.Shutdown(); err != nil {
			s.logger.WithError(err).Warn("Health server shutdown failed")
		}
	}()

	return nil
}

// Shutdown stops the server. It is safe to call before Start and more than once.
func (s *Server) Shutdown() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    statusOK,
		Service:   s.cfg.ServiceName,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(s.startedAt).Round(time.Second).String(),
		Version:   s.cfg.Version,
		Commit:    s.cfg.Commit,
	})
}

func (s *Server) handleLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: statusOK, Service: s.cfg.ServiceName})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	checks := s.pingAll(r.Context())

	healthy := s.IsReady()
	if healthy {
		checks["service"] = statusOK
	} else {
		checks["service"] = statusNotRdy
	}
	for _, result := range checks {
		if result != statusOK {
			healthy = false
		}
	}

	resp := ReadyResponse{
		Status:   statusOK,
		Service:  s.cfg.ServiceName,
		Checks:   checks,
		Duration: time.Since(start).String(),
	}
	code := http.StatusOK
	if !healthy {
		resp.Status = statusNotRdy
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

// pingAll pings every dependency in parallel under one deadline.
func (s *Server) pingAll(parent context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(parent, pingTimeout)
	defer cancel()

	var (
		mu      sync.Mutex
		results = make(map[string]string, len(s.cfg.Checks)+1)
		g       errgroup.Group
	)
	for name, dep := range s.cfg.Checks {
		g.Go(func() error {
			result := statusOK
			if err := dep.Ping(ctx); err != nil {
				result = "error: " + err.Error()
			}
			mu.Lock()
			results[name] = result
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
