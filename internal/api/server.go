// Package api serves the journal over a JSON HTTP API.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"tradevault/internal/config"
	"tradevault/internal/health"
	"tradevault/internal/journal"
)

const shutdownTimeout = 5 * time.Second

// Server is the HTTP front end of a journal service.
type Server struct {
	echo    *echo.Echo
	svc     *journal.Service
	cfg     config.ServerConfig
	logger  zerolog.Logger
	checker *health.Checker
}

// NewServer builds the router and middleware chain.
func NewServer(svc *journal.Service, cfg config.ServerConfig, logger zerolog.Logger) *Server {
	s := &Server{
		echo:    echo.New(),
		svc:     svc,
		cfg:     cfg,
		logger:  logger.With().Str("component", "api").Logger(),
		checker: health.NewChecker(health.DefaultConfig()),
	}
	s.checker.Register("database", health.DatabaseCheck(svc.Ping, health.DefaultConfig().SlowDatabase))

	e := s.echo
	e.HideBanner = true
	e.HidePort = true

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	e.Use(middleware.Gzip())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPost, http.MethodDelete},
	}))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			s.logger.Error().Err(err).Bytes("stack", stack).Msg("Panic recovered")
			return err
		},
	}))
	e.Use(middleware.RequestID())
	e.Use(withRequestLog(s.logger))
	e.Use(withErrorHandler())

	s.registerRoutes(e.Group("/api"))
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.StartServer(srv)
	}()
	s.logger.Info().Str("addr", s.cfg.Addr).Msg("API server listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
		s.logger.Info().Msg("API server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.echo.Shutdown(shutdownCtx)
	}
}
