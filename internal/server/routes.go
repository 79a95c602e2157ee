package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	s.echo.GET("/healthz", s.handleHealth)
	s.echo.GET("/stats", s.handleStats)
	s.echo.GET("/alerts", s.handleAlerts)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}
