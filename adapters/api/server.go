// Package api serves stored decoding runs over HTTP.
package api

import (
	"net/http"
	"strconv"

	"roidecode/domain/core"
	"roidecode/internal"
	"roidecode/internal/report"
	"roidecode/ports"

	"github.com/gin-gonic/gin"
)

const maxListLimit = 500

// Server exposes the results repository read-only
type Server struct {
	router *gin.Engine
	repo   ports.ResultsRepository
	logger *internal.Logger
}

// NewServer creates a server with its routes registered
func NewServer(repo ports.ResultsRepository, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{router: router, repo: repo, logger: logger.With("api")}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)
	s.router.GET("/runs", s.handleListRuns)
	s.router.GET("/runs/:id", s.handleGetRun)
	s.router.GET("/runs/:id/report", s.handleRunReport)
}

// Handler returns the HTTP handler for the registered routes
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on addr until the listener fails
func (s *Server) Start(addr string) error {
	s.logger.Info("serving results API on http://%s", addr)
	return s.router.Run(addr)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleListRuns(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxListLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer between 1 and 500"})
			return
		}
		limit = n
	}

	runs, err := s.repo.ListRuns(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error("list runs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list runs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}

func (s *Server) handleGetRun(c *gin.Context) {
	stored, ok := s.loadRun(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newRunView(stored))
}

func (s *Server) handleRunReport(c *gin.Context) {
	stored, ok := s.loadRun(c)
	if !ok {
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", report.HTML(stored.Manifest, stored.Table))
}

// loadRun fetches the run named by the :id parameter, writing the error
// response itself when it cannot
func (s *Server) loadRun(c *gin.Context) (*ports.StoredRun, bool) {
	runID, err := core.ParseRunID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
		return nil, false
	}

	stored, err := s.repo.GetRun(c.Request.Context(), runID)
	if err != nil {
		if core.IsNotFoundError(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return nil, false
		}
		s.logger.Error("get run %s: %v", runID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load run"})
		return nil, false
	}
	return stored, true
}
