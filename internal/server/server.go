// Package server exposes the syllabus pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joseph-ayodele/syllabus-tracker/internal/common"
	"github.com/joseph-ayodele/syllabus-tracker/internal/core"
	"github.com/joseph-ayodele/syllabus-tracker/internal/core/async"
	"github.com/joseph-ayodele/syllabus-tracker/internal/export"
	"github.com/joseph-ayodele/syllabus-tracker/internal/ingest"
	"github.com/joseph-ayodele/syllabus-tracker/internal/repository"
)

// Deps are the collaborators the HTTP handlers call into.
type Deps struct {
	DB          *repository.DB
	Syllabi     repository.SyllabusRepository
	Extractions repository.ExtractionRepository
	Dates       repository.ImportantDateRepository
	Ingest      *ingest.Service
	Projector   *core.Projector
	Export      *export.Service
	Queue       async.Queue
	Gatherer    prometheus.Gatherer
	Logger      *slog.Logger
}

type Server struct {
	deps Deps
	echo *echo.Echo
	log  *slog.Logger
}

func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{deps: deps, echo: e, log: deps.Logger}
	e.HTTPErrorHandler = s.handleError
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(s.requestLogger)

	e.GET("/healthz", s.health)
	if deps.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := e.Group("/v1")
	v1.POST("/ingest/file", s.ingestFile)
	v1.POST("/ingest/directory", s.ingestDirectory)
	v1.GET("/syllabi", s.listSyllabi)
	v1.GET("/syllabi/:id", s.getSyllabus)
	v1.POST("/syllabi/:id/process", s.processSyllabus)
	v1.POST("/syllabi/:id/materialize", s.materialize)
	v1.GET("/dates", s.listDates)
	v1.GET("/dates/export.xlsx", s.exportDates)
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.echo }

// Start serves on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.log.Info("http serving", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		rid := c.Response().Header().Get(echo.HeaderXRequestID)
		req := c.Request()
		c.SetRequest(req.WithContext(common.WithRequestID(req.Context(), rid)))

		err := next(c)
		if err != nil {
			c.Error(err)
		}
		s.log.Info("http.request",
			"request_id", rid,
			"method", req.Method,
			"path", c.Path(),
			"status", c.Response().Status,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil
	}
}

func (s *Server) health(c echo.Context) error {
	ctx := c.Request().Context()
	if s.deps.DB != nil {
		if err := repository.HealthCheck(ctx, s.deps.DB, 2*time.Second, s.log); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "error": err.Error()})
		}
	}
	body := map[string]any{"status": "ok"}
	if s.deps.Syllabi != nil {
		counts, err := s.deps.Syllabi.CountByStatus(ctx)
		if err != nil {
			return err
		}
		body["syllabi"] = counts
	}
	return c.JSON(http.StatusOK, body)
}
