package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/brandpulse/brandpulse/internal/config"
	"github.com/brandpulse/brandpulse/internal/domain"
	"github.com/brandpulse/brandpulse/internal/pipeline"
)

// statsProvider exposes the pipeline snapshot to the ops surface.
type statsProvider interface {
	Stats() pipeline.Stats
}

// alertHistoryProvider exposes recent fired alerts.
type alertHistoryProvider interface {
	History(limit int) []domain.Alert
}

// pinger is an optional store health check; nil when running in-memory.
type pinger interface {
	Ping(ctx context.Context) error
}

// Server is the operational HTTP surface: health, stats, metrics. It carries
// no product API.
type Server struct {
	echo      *echo.Echo
	config    *config.Config
	stats     statsProvider
	alerts    alertHistoryProvider
	storePing pinger
	startTime time.Time
}

func NewServer(cfg *config.Config, stats statsProvider, alerts alertHistoryProvider, storePing pinger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())

	srv := &Server{
		echo:      e,
		config:    cfg,
		stats:     stats,
		alerts:    alerts,
		storePing: storePing,
		startTime: time.Now(),
	}
	srv.registerRoutes()
	return srv
}

func (s *Server) Start() error {
	slog.Info("Ops server starting", "port", s.config.Port)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
