// Package server exposes the analysis pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ppiankov/omnikernel/internal/logging"
	"github.com/ppiankov/omnikernel/internal/model"
	"github.com/ppiankov/omnikernel/internal/pipeline"
)

// Server serves the analysis API
type Server struct {
	Engine   *gin.Engine
	pipeline *pipeline.Pipeline
	config   model.ServerConfig
	log      *logging.Logger
}

// NewServer wires the routes and middleware around a pipeline
func NewServer(p *pipeline.Pipeline, cfg model.ServerConfig, log *logging.Logger) *Server {
	if log == nil {
		log = logging.Nop()
	}
	s := &Server{
		pipeline: p,
		config:   cfg,
		log:      log.With("component", "server"),
	}
	s.Engine = s.newRouter()
	return s
}

func (s *Server) newRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(attachRequestID())
	router.Use(requestLogger(s.log))

	if len(s.config.AllowOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:  s.config.AllowOrigins,
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Content-Type", "X-Request-Id"},
			ExposeHeaders: []string{"Content-Disposition", "X-Request-Id", headerNarrationCached},
		}))
	}

	router.GET("/healthz", s.health)

	api := router.Group("/api")
	{
		api.POST("/analyze", s.analyze)
		api.POST("/analyze/download", s.download)
		api.POST("/speech", s.speech)
		api.GET("/lexicon", s.lexicon)
	}

	return router
}

// Run listens on the configured address until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", s.config.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		s.log.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if s.config.RequestTimeout > 0 {
		return context.WithTimeout(c.Request.Context(), s.config.RequestTimeout)
	}
	return context.WithCancel(c.Request.Context())
}
