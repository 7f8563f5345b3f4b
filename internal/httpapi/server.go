// Package httpapi exposes the search pipeline over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/fikralabs/hadisd/internal/history"
	"github.com/fikralabs/hadisd/internal/logging"
	"github.com/fikralabs/hadisd/internal/retrieval"
	"github.com/fikralabs/hadisd/internal/vectorstore"
)

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int

	// RequestTimeout bounds one search or indexing request.
	RequestTimeout time.Duration
}

// Server provides HTTP endpoints for hadisd.
type Server struct {
	echo     *echo.Echo
	service  *retrieval.Service
	indexer  *retrieval.Indexer
	recorder *history.Recorder
	logger   *logging.Logger
	config   Config
}

// NewServer creates the HTTP server. The recorder may be nil when
// history is disabled.
func NewServer(service *retrieval.Service, indexer *retrieval.Indexer, recorder *history.Recorder, logger *logging.Logger, cfg Config) (*Server, error) {
	if service == nil {
		return nil, fmt.Errorf("retrieval service is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 9180
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 15 * time.Second
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Make the request ID available to every log line below.
			requestID := c.Response().Header().Get(echo.HeaderXRequestID)
			ctx := logging.ContextWithRequestID(c.Request().Context(), requestID)
			c.SetRequest(c.Request().WithContext(ctx))

			start := time.Now()
			err := next(c)

			logger.Info(ctx, "http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
			)
			return err
		}
	})

	s := &Server{
		echo:     e,
		service:  service,
		indexer:  indexer,
		recorder: recorder,
		logger:   logger,
		config:   cfg,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)

	v1 := s.echo.Group("/api/v1")
	v1.POST("/search", s.handleSearch)
	v1.POST("/cache/clear", s.handleCacheClear)
	v1.GET("/history", s.handleHistory)
	if s.indexer != nil {
		v1.POST("/documents", s.handleIndexDocument)
	}
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	if err := s.service.Health(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "degraded"})
	}
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleSearch(c echo.Context) error {
	var req retrieval.Request
	if err := c.Bind(&req); err != nil {
		s.logger.Warn(c.Request().Context(), "invalid search request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), s.config.RequestTimeout)
	defer cancel()

	start := time.Now()
	result, err := s.service.Search(ctx, req)
	if err != nil {
		if errors.Is(err, vectorstore.ErrMalformedFilter) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		s.logger.Error(ctx, "search failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "search failed")
	}

	if s.recorder != nil {
		s.recorder.Record(history.Event{
			Time:     time.Now(),
			Query:    result.Query,
			Hits:     len(result.Hits),
			Degraded: result.Degraded,
			CacheHit: result.CacheHit,
			Elapsed:  time.Since(start),
		})
	}
	return c.JSON(http.StatusOK, result)
}

// CacheClearResponse is the response body for POST /api/v1/cache/clear.
type CacheClearResponse struct {
	Cleared string `json:"cleared"`
}

func (s *Server) handleCacheClear(c echo.Context) error {
	s.service.ClearResultCache()
	return c.JSON(http.StatusOK, CacheClearResponse{Cleared: "results"})
}

func (s *Server) handleHistory(c echo.Context) error {
	if s.recorder == nil {
		return echo.NewHTTPError(http.StatusNotFound, "history disabled")
	}

	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}
	return c.JSON(http.StatusOK, s.recorder.Recent(limit))
}

// IndexRequest is the request body for POST /api/v1/documents.
type IndexRequest struct {
	DocumentID string           `json:"document_id"`
	Pages      []retrieval.Page `json:"pages"`
}

// IndexResponse is the response body for POST /api/v1/documents.
type IndexResponse struct {
	DocumentID string   `json:"document_id"`
	ChunkIDs   []string `json:"chunk_ids"`
}

func (s *Server) handleIndexDocument(c echo.Context) error {
	var req IndexRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.DocumentID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "document_id is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), s.config.RequestTimeout)
	defer cancel()

	ids, err := s.indexer.IndexDocument(ctx, req.DocumentID, req.Pages)
	if err != nil {
		s.logger.Error(ctx, "indexing failed",
			zap.String("document_id", req.DocumentID),
			zap.Error(err),
		)
		return echo.NewHTTPError(http.StatusInternalServerError, "indexing failed")
	}
	return c.JSON(http.StatusOK, IndexResponse{DocumentID: req.DocumentID, ChunkIDs: ids})
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info(context.Background(), "starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}
