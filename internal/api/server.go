// Package api exposes the prediction service over HTTP and websockets.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yourusername/fantasy-grid/internal/config"
	"github.com/yourusername/fantasy-grid/internal/logger"
	"github.com/yourusername/fantasy-grid/internal/metrics"
	"github.com/yourusername/fantasy-grid/internal/service"
)

// Config holds the API server settings
type Config struct {
	Port               int
	RateLimitPerSecond float64
	Burst              int
	MaxIterations      int
	MetricsEnabled     bool
	MetricsPath        string
	// Events are resolved by name when a request carries no drivers.
	Events []config.EventConfig
}

// Server serves the prediction API
type Server struct {
	cfg      Config
	svc      *service.PredictionService
	validate *validator.Validate
	limiter  *rate.Limiter
	upgrader websocket.Upgrader
	logger   *logrus.Logger
	audit    *logger.AuditLogger
	server   *http.Server
}

// NewServer creates a new API server
func NewServer(cfg Config, svc *service.PredictionService, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.New()
	}
	if cfg.RateLimitPerSecond <= 0 {
		cfg.RateLimitPerSecond = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}

	return &Server{
		cfg:      cfg,
		svc:      svc,
		validate: validator.New(),
		limiter:  rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), cfg.Burst),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		logger: log,
		audit:  logger.NewAuditLogger(log),
	}
}

// ConfigFrom maps application configuration onto API settings
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Port:               cfg.Server.Port,
		RateLimitPerSecond: cfg.Server.RateLimitPerSecond,
		Burst:              cfg.Server.Burst,
		MaxIterations:      cfg.Server.MaxIterations,
		MetricsEnabled:     cfg.Metrics.Enabled,
		MetricsPath:        cfg.Metrics.Path,
		Events:             cfg.Events,
	}
}

// Handler returns the routed and instrumented handler
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("POST /api/v1/races/simulate", s.handleSimulate)
	api.HandleFunc("POST /api/v1/predictions", s.handlePredict)
	api.HandleFunc("GET /api/v1/predictions/stream", s.handleStream)
	api.HandleFunc("GET /api/v1/predictions/{id}", s.handleGetPrediction)
	api.HandleFunc("GET /api/v1/events/{event}/predictions/latest", s.handleLatest)
	api.HandleFunc("GET /api/v1/events/{event}/predictions", s.handleHistory)

	mux := http.NewServeMux()
	mux.Handle("/api/", s.rateLimit(api))
	if s.cfg.MetricsEnabled {
		mux.Handle("GET "+s.cfg.MetricsPath, metrics.Handler())
	}

	return s.instrument(mux)
}

// Start binds the port and serves in the background until ctx ends. A port
// that cannot be bound is returned here so the caller never reports ready
// without a listener.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("failed to bind API port %d: %w", s.cfg.Port, err)
	}

	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.logger.WithField("port", s.cfg.Port).Info("API server starting")
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.WithError(err).Error("API server error")
		}
	}()

	go func() {
		<-ctx.Done()
		if err := s.Shutdown(); err != nil {
			s.logger.WithError(err).Warn("API server shutdown failed")
		}
	}()

	return nil
}

// Shutdown gracefully shuts down the API server
func (s *Server) Shutdown() error {
	if s.server == nil {
		return nil
	}
	s.logger.Info("API server shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) event(name string) (config.EventConfig, bool) {
	for _, e := range s.cfg.Events {
		if e.Name == name {
			return e, true
		}
	}
	return config.EventConfig{}, false
}
