// Package server exposes the engine's diagnostics surface over HTTP: health
// probes, Prometheus metrics and build information. It carries no product
// functionality; the UI never talks to it.
package server

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/chihung93/kotlinconf-app/internal/config"
	"github.com/chihung93/kotlinconf-app/internal/engine"
)

// storageHealthChecker is the minimal storage surface the readiness probe needs.
type storageHealthChecker interface {
	Ping(ctx context.Context) error
}

type Server struct {
	echo      *echo.Echo
	config    *config.Config
	engine    *engine.Engine
	storage   storageHealthChecker
	startTime time.Time
}

func NewServer(cfg *config.Config, eng *engine.Engine, storage storageHealthChecker) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())

	srv := &Server{
		echo:      e,
		config:    cfg,
		engine:    eng,
		storage:   storage,
		startTime: time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf(":%s", s.config.DiagnosticsPort))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
