// Package server exposes the detection pipeline over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/menta2k/dermascan"
	"github.com/menta2k/dermascan/internal/config"
)

// Error messages returned at the boundary
const (
	ErrNoImage        = "No image provided"
	ErrAnalyzeFailed  = "Failed to analyze image"
	ErrInvalidImage   = "Invalid image"
	ErrRenderFailed   = "Failed to render image"
	ErrNoLabel        = "Query parameter 'label' is required"
	ErrNoMatch        = "No matching condition"
	ErrUnknownDisease = "Condition not found"
)

// LegendHeader carries the annotation legend as JSON
const LegendHeader = "X-Legend"

// Server is the HTTP front of a dermascan.Service
type Server struct {
	svc    *dermascan.Service
	cfg    *config.Config
	logger *zap.Logger
	router *gin.Engine
}

// New builds the router. gin's mode is taken from cfg.Server.Mode.
func New(svc *dermascan.Service, cfg *config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	gin.SetMode(cfg.Server.Mode)

	s := &Server{svc: svc, cfg: cfg, logger: logger}
	s.router = s.routes()
	return s
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(
		s.requestLogger(),
		gin.CustomRecovery(s.handlePanic),
		cors.New(cors.Config{
			AllowOrigins:  s.cfg.Server.AllowedOrigins,
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders: []string{"Content-Length", LegendHeader},
			MaxAge:        12 * time.Hour,
		}),
		limitBody(int64(s.cfg.Server.MaxBodyMB)<<20),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"service": "dermascan",
			"version": dermascan.Version,
		})
	})

	api := router.Group("/api")
	api.POST("/detect", s.handleDetect)
	api.POST("/annotate", s.handleAnnotate)

	lib := api.Group("/library")
	lib.GET("", s.handleLibrary)
	lib.GET("/match", s.handleMatch)
	lib.GET("/:id", s.handleDisease)

	return router
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", zap.String("addr", s.cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// handlePanic maps any panic to the generic analysis failure
func (s *Server) handlePanic(c *gin.Context, recovered any) {
	s.logger.Error("handler panic",
		zap.String("path", c.Request.URL.Path),
		zap.Any("panic", recovered),
	)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": ErrAnalyzeFailed})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if n > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}
