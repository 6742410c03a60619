package routes

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/routes/health"
)

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port              int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	MaxHeaderBytes    int
}

// Server runs the echo router as a startup dependency
type Server struct {
	config  ServerConfig
	echo    *echo.Echo
	checker *health.Checker
	logger  ectologger.Logger
	errs    chan error
}

// NewServer wraps router in an http.Server. checker may be nil.
func NewServer(config ServerConfig, router *echo.Echo, checker *health.Checker, logger ectologger.Logger) *Server {
	return &Server{
		config:  config,
		echo:    router,
		checker: checker,
		logger:  logger,
		errs:    make(chan error, 1),
	}
}

// GetName returns the startup dependency name
func (s *Server) GetName() string {
	return "http"
}

// DependsOn returns the startup dependencies
func (s *Server) DependsOn() []string {
	return []string{"tracing", "kafka"}
}

// Start begins serving in the background
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		ReadTimeout:       s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       s.config.IdleTimeout,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		MaxHeaderBytes:    s.config.MaxHeaderBytes,
	}

	go func() {
		if err := s.echo.StartServer(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.WithError(err).Error("HTTP server stopped")
			s.errs <- err
		}
	}()

	if s.checker != nil {
		s.checker.SetReady(true)
	}
	s.logger.WithContext(ctx).WithField("port", s.config.Port).Info("HTTP server listening")
	return nil
}

// Errors reports a server that stopped on its own
func (s *Server) Errors() <-chan error {
	return s.errs
}

// Stop drains in-flight requests and shuts the server down
func (s *Server) Stop(ctx context.Context) error {
	if s.checker != nil {
		s.checker.SetReady(false)
	}
	return s.echo.Shutdown(ctx)
}
