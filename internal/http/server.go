// Package http provides the HTTP API for redactd.
package http

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

	"github.com/fyrsmithlabs/redactd/internal/engine"
	"github.com/fyrsmithlabs/redactd/internal/pattern"
	"github.com/fyrsmithlabs/redactd/internal/refine"
)

// Server provides HTTP endpoints over the engine service.
type Server struct {
	echo    *echo.Echo
	service engine.Service
	logger  *zap.Logger
	config  *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// NewServer creates a new HTTP server.
func NewServer(service engine.Service, logger *zap.Logger, cfg *Config) (*Server, error) {
	if service == nil {
		return nil, fmt.Errorf("engine service cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 9180,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(NewMetrics(logger).Middleware())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:    e,
		service: service,
		logger:  logger,
		config:  cfg,
	}

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)

	v1 := s.echo.Group("/api/v1")
	v1.POST("/match", s.handleMatch)

	v1.GET("/patterns", s.handleListPatterns)
	v1.POST("/patterns", s.handleSavePattern)
	v1.DELETE("/patterns/:id", s.handleDeletePattern)
	v1.GET("/patterns/needing-refinement", s.handleNeedingRefinement)

	v1.POST("/patterns/:id/feedback", s.handleFeedback)
	v1.GET("/patterns/:id/accuracy", s.handleAccuracy)
	v1.POST("/patterns/:id/refinement/suggest", s.handleSuggestRefinement)
	v1.POST("/patterns/:id/refinement/apply", s.handleApplyRefinement)
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleMatch runs a matching pass over the supplied text.
func (s *Server) handleMatch(c echo.Context) error {
	var req MatchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	// Empty text is a valid empty result, same as the engine.
	matches, err := s.service.Match(c.Request().Context(), req.Text, req.PatternIDs...)
	if err != nil {
		return s.mapError(err)
	}

	return c.JSON(http.StatusOK, MatchResponse{
		Matches: matches,
		Count:   len(matches),
	})
}

// handleListPatterns lists active patterns.
func (s *Server) handleListPatterns(c echo.Context) error {
	patterns, err := s.service.Registry().ListActive(c.Request().Context())
	if err != nil {
		return s.mapError(err)
	}
	return c.JSON(http.StatusOK, patterns)
}

// handleSavePattern upserts a pattern.
func (s *Server) handleSavePattern(c echo.Context) error {
	var p pattern.Pattern
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	saved, err := s.service.Registry().Save(c.Request().Context(), &p)
	if err != nil {
		return s.mapError(err)
	}
	return c.JSON(http.StatusOK, saved)
}

// handleDeletePattern removes a pattern.
func (s *Server) handleDeletePattern(c echo.Context) error {
	if err := s.service.Registry().Delete(c.Request().Context(), c.Param("id")); err != nil {
		return s.mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// handleFeedback records feedback for a pattern's match.
func (s *Server) handleFeedback(c echo.Context) error {
	var req FeedbackRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	event, err := s.service.SubmitFeedback(c.Request().Context(), &engine.SubmitFeedbackRequest{
		PatternID:          c.Param("id"),
		Type:               req.Type,
		MatchedText:        req.MatchedText,
		SurroundingContext: req.SurroundingContext,
		OriginalConfidence: req.OriginalConfidence,
		Reason:             req.Reason,
	})
	if err != nil {
		return s.mapError(err)
	}
	return c.JSON(http.StatusCreated, event)
}

// handleAccuracy returns the pattern's computed metrics.
func (s *Server) handleAccuracy(c echo.Context) error {
	metrics, err := s.service.GetAccuracy(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.mapError(err)
	}
	return c.JSON(http.StatusOK, metrics)
}

// handleNeedingRefinement lists patterns eligible for refinement. An
// optional ?floor= query overrides the configured precision floor.
func (s *Server) handleNeedingRefinement(c echo.Context) error {
	var floorOverride *float64
	if raw := c.QueryParam("floor"); raw != "" {
		floor, err := strconv.ParseFloat(raw, 64)
		if err != nil || floor < 0 || floor > 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "floor must be a number between 0.0 and 1.0")
		}
		floorOverride = &floor
	}

	result, err := s.service.ListPatternsNeedingRefinement(c.Request().Context(), floorOverride)
	if err != nil {
		return s.mapError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// handleSuggestRefinement derives a suggestion from negative feedback.
func (s *Server) handleSuggestRefinement(c echo.Context) error {
	suggestion, err := s.service.SuggestRefinement(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.mapError(err)
	}
	return c.JSON(http.StatusOK, suggestion)
}

// handleApplyRefinement commits a reviewed suggestion.
func (s *Server) handleApplyRefinement(c echo.Context) error {
	var req ApplyRefinementRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	refined, err := s.service.ApplyRefinement(c.Request().Context(), c.Param("id"), req.Suggestion())
	if err != nil {
		return s.mapError(err)
	}
	return c.JSON(http.StatusOK, refined)
}

// mapError converts engine errors into HTTP status codes. Not-found
// maps to 404, validation failures to 400, anything else is a 500 and
// indicates a systemic problem rather than a data-quality issue.
func (s *Server) mapError(err error) error {
	switch {
	case errors.Is(err, pattern.ErrPatternNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "pattern not found")
	case errors.Is(err, refine.ErrNoNegativeFeedback),
		errors.Is(err, refine.ErrEmptySuggestion),
		errors.Is(err, refine.ErrInvalidAdjustment),
		isValidationError(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("request failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
