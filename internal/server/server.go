// file: internal/server/server.go
// version: 1.5.0
// guid: 8f9a0b1c-2d3e-4f4a-5b6c-7d8e9f0a1b2c

// Package server exposes the library over HTTP for the browser extension and
// maintenance tooling.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jdfalk/shelfkeeper/internal/library"
	"github.com/jdfalk/shelfkeeper/internal/metrics"
	"github.com/jdfalk/shelfkeeper/internal/server/middleware"
)

// Server wires the library facade to its HTTP routes.
type Server struct {
	router *gin.Engine
	svc    *library.Service
}

// NewServer builds the router. The caller owns the library service.
func NewServer(svc *library.Service) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		router: gin.New(),
		svc:    svc,
	}
	s.router.Use(gin.Recovery())
	s.setupRoutes()
	return s
}

// Router exposes the underlying engine, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	metrics.Register()
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.router.GET("/api/health", s.healthCheck)

	limiter := middleware.NewIPRateLimiter(300, 30)

	api := s.router.Group("/api/v1")
	api.Use(limiter.Middleware())
	{
		api.GET("/shelves", s.listShelves)
		api.GET("/urls/validate", s.validateURL)

		api.GET("/novels", s.listNovels)
		api.GET("/novels/:id", s.getNovel)
		api.PATCH("/novels/:id", s.editNovel)
		api.DELETE("/novels/:id", s.deleteNovel)
		api.PUT("/novels/:id/status", s.setReadingStatus)
		api.POST("/novels/:id/progress", s.updateProgress)
		api.POST("/novels/:id/edited-fields/reset", s.resetEditedFields)
		api.GET("/novels/:id/similar", s.nearTitleMatches)
		api.POST("/novels/:id/chapters/:key/read", s.markChapterRead)
		api.PUT("/novels/:id/chapters/:key/enhanced", s.markChapterEnhanced)

		api.POST("/scrapes", s.reconcileScrape)

		api.GET("/duplicates", s.findDuplicates)
		api.POST("/duplicates/merge", s.mergeDuplicates)
		api.POST("/duplicates/cleanup", s.cleanupDuplicates)

		api.POST("/maintenance/stale", s.applyStaleRules)

		api.GET("/backup/export", s.exportBackup)
		api.POST("/backup/import", s.importBackup)

		api.GET("/stats", s.getStats)
		api.GET("/settings", s.getSettings)
		api.PUT("/settings", s.updateSettings)
	}
}

// Start runs the server until SIGINT/SIGTERM, then drains with a timeout.
func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("server: listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Printf("server: received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UnixMilli(),
	})
}
