package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/nerrad567/gray-logic-sockclient/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-sockclient/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-sockclient/internal/journal"
	"github.com/nerrad567/gray-logic-sockclient/internal/sockclient"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// StatusSource exposes the managed client. *sockclient.Client implements it.
type StatusSource interface {
	ID() string
	State() sockclient.State
	Stats() sockclient.Stats
}

// HealthChecker is a dependency reported by the health endpoint.
// *database.DB and *influxdb.Client implement it.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config  config.APIConfig
	Logger  *logging.Logger
	Client  StatusSource
	Journal journal.Repository       // optional; nil disables /journal
	Checks  map[string]HealthChecker // optional components listed by /health
	Version string
}

// Server is the status HTTP server.
type Server struct {
	cfg       config.APIConfig
	logger    *logging.Logger
	client    StatusSource
	journal   journal.Repository
	checks    map[string]HealthChecker
	version   string
	startTime time.Time
	server    *http.Server
	addr      string
}

// New creates a server. It does not listen until Start is called.
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If the logger or client is missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Client == nil {
		return nil, fmt.Errorf("client is required")
	}

	return &Server{
		cfg:       deps.Config,
		logger:    deps.Logger.Component("api"),
		client:    deps.Client,
		journal:   deps.Journal,
		checks:    deps.Checks,
		version:   deps.Version,
		startTime: time.Now(),
	}, nil
}

// Start binds the listener and serves in a background goroutine.
//
// Returns:
//   - error: If the address cannot be bound (port in use, etc.)
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("binding API listener on %s: %w", addr, err)
	}
	s.addr = ln.Addr().String()

	s.server = &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	s.logger.Info("API server listening", "address", s.addr)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound address after Start (useful with port 0).
func (s *Server) Addr() string {
	return s.addr
}

// Close gracefully shuts down the server, waiting up to 10 seconds for
// in-flight requests.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}
