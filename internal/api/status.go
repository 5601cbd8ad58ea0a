// Package api exposes a small operational status server for the daemon.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"watchlist-sentinel/internal/engine"
)

// Server serves health and cycle-status endpoints.
type Server struct {
	engine *engine.Engine
	srv    *http.Server
	logger zerolog.Logger
}

// NewServer creates a status server bound to addr.
func NewServer(addr string, eng *engine.Engine, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		engine: eng,
		logger: logger.With().Str("component", "api").Logger(),
	}

	router.GET("/healthz", s.handleHealthz)
	router.GET("/status", s.handleStatus)

	s.srv = &http.Server{
		Addr:    addr,
		Handler: router,
	}

	return s
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() {
	s.logger.Info().Str("addr", s.srv.Addr).Msg("status server listening")
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error().Err(err).Msg("status server stopped")
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	stats := s.engine.LastStats()
	if stats == nil {
		c.JSON(http.StatusOK, gin.H{"last_cycle": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"last_cycle": stats})
}
