package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/msto63/wtf/internal/wtf/handler"
	"github.com/msto63/wtf/internal/wtf/source"
	"github.com/msto63/wtf/internal/wtf/store"
	"github.com/msto63/wtf/pkg/core/config"
	"github.com/msto63/wtf/pkg/core/health"
	"github.com/msto63/wtf/pkg/core/logging"
	"github.com/msto63/wtf/pkg/core/version"
)

// RequestIDHeader carries the request ID in and out of the service
const RequestIDHeader = "X-Request-ID"

// Server is the acronym lookup HTTP server
type Server struct {
	httpServer *http.Server
	handler    *handler.Handler
	websocket  *handler.WebSocketHandler
	fetcher    *source.Fetcher
	stats      store.LookupStore
	health     *health.Registry
	logger     *logging.Logger
	config     Config
}

// Config holds server configuration
type Config struct {
	Host         string
	HTTPPort     int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Version      string

	// Accepted caller tokens
	Tokens []string

	// Dataset source
	DataURL       string
	SourceTimeout time.Duration
	MaxBytes      int64

	// Lookup statistics, disabled when StatsPath is empty
	StatsPath string
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		Host:          "0.0.0.0",
		HTTPPort:      5000,
		ReadTimeout:   10 * time.Second,
		WriteTimeout:  30 * time.Second,
		Version:       version.Version,
		SourceTimeout: 10 * time.Second,
		MaxBytes:      16 << 20,
	}
}

// FromConfig builds the server configuration from the application config
func FromConfig(cfg *config.Config) Config {
	sc := Config{
		Host:          cfg.Server.Host,
		HTTPPort:      cfg.Server.Port,
		ReadTimeout:   cfg.Server.ReadTimeout.Duration,
		WriteTimeout:  cfg.Server.WriteTimeout.Duration,
		Version:       version.Version,
		Tokens:        cfg.Slack.Tokens,
		DataURL:       cfg.Source.DataURL,
		SourceTimeout: cfg.Source.Timeout.Duration,
		MaxBytes:      cfg.Source.MaxBytes,
	}
	if cfg.Stats.Enabled {
		sc.StatsPath = cfg.Stats.Path
	}
	return sc
}

// New creates a new server
func New(cfg Config) (*Server, error) {
	logger := logging.New("wtf-server")

	if cfg.DataURL == "" {
		return nil, config.ErrNoDataURL
	}
	if len(cfg.Tokens) == 0 {
		return nil, config.ErrNoTokens
	}

	fetcher := source.New(source.Config{
		URL:       cfg.DataURL,
		Timeout:   cfg.SourceTimeout,
		MaxBytes:  cfg.MaxBytes,
		UserAgent: version.UserAgent(),
	})

	// Create stats store (optional)
	var stats store.LookupStore
	if cfg.StatsPath != "" {
		s, err := store.NewSQLiteStore(store.SQLiteConfig{Path: cfg.StatsPath})
		if err != nil {
			return nil, fmt.Errorf("failed to open stats store: %w", err)
		}
		stats = s
		logger.Info("Lookup statistics enabled", "path", cfg.StatsPath)
	}

	// Create health registry
	healthRegistry := health.NewRegistry(version.Service, cfg.Version)
	healthRegistry.Register(sourceCheck(fetcher, cfg.SourceTimeout))
	if stats != nil {
		healthRegistry.Register(health.PingCheck("stats", health.StatusDegraded, stats.Ping))
	}

	h := handler.NewHandler(handler.Config{
		Version: cfg.Version,
		Tokens:  cfg.Tokens,
		Fetcher: fetcher,
		Stats:   stats,
		Health:  healthRegistry,
	})
	wsHandler := handler.NewWebSocketHandler(h)

	mux := http.NewServeMux()

	// WebSocket route
	mux.Handle("/api/v1/ws", wsHandler)

	// Slack and API routes
	mux.Handle("/slack", h)
	mux.Handle("/api/", h)
	mux.Handle("/", h)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.HTTPPort),
		Handler:      loggingMiddleware(logger, mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		httpServer: httpServer,
		handler:    h,
		websocket:  wsHandler,
		fetcher:    fetcher,
		stats:      stats,
		health:     healthRegistry,
		logger:     logger,
		config:     cfg,
	}, nil
}

// sourceCheck reports whether the dataset location is reachable
func sourceCheck(fetcher *source.Fetcher, timeout time.Duration) health.Checker {
	if fetcher.IsRemote() {
		return health.HTTPCheck("source", fetcher.URL(), timeout)
	}

	path := fetcher.URL()
	if u, err := url.Parse(path); err == nil && u.Scheme == "file" {
		path = u.Path
	}
	return health.FileCheck("source", path)
}

// loggingMiddleware adds request IDs and request logging
func loggingMiddleware(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, requestID)

		// Wrap response writer to capture status code
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		logger.Info("HTTP request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapper.statusCode,
			"duration", time.Since(start),
		)
	})
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWrapper) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack implements http.Hijacker for WebSocket upgrades
func (w *responseWrapper) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.statusCode = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}

func (w *responseWrapper) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Start starts the server and blocks until it stops
func (s *Server) Start() error {
	s.logger.Info("Starting wtf acronym service",
		"host", s.config.Host,
		"port", s.config.HTTPPort,
		"source", s.fetcher.URL(),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StartAsync starts the server asynchronously
func (s *Server) StartAsync() error {
	s.logger.Info("Starting wtf acronym service (async)",
		"host", s.config.Host,
		"port", s.config.HTTPPort,
	)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", "error", err)
		}
	}()

	return nil
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping wtf acronym service")

	err := s.httpServer.Shutdown(ctx)

	// Hijacked connections are not covered by Shutdown and may still record
	// lookups, so they go before the stats store.
	if werr := s.websocket.Shutdown(ctx); werr != nil {
		s.logger.Warn("WebSocket connections did not close in time", "error", werr)
		if err == nil {
			err = werr
		}
	}

	if s.stats != nil {
		if cerr := s.stats.Close(); cerr != nil {
			s.logger.Warn("Error closing stats store", "error", cerr)
		}
	}
	s.fetcher.CloseIdleConnections()

	return err
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.HTTPPort)
}

// Handler returns the root HTTP handler including middleware
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// HealthRegistry returns the health check registry
func (s *Server) HealthRegistry() *health.Registry {
	return s.health
}
