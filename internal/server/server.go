package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"classifier-service/internal/config"
	"classifier-service/internal/handler"
	"classifier-service/internal/metrics"
	"classifier-service/internal/middleware"
)

// Server is the HTTP front of the classifier
type Server struct {
	cfg    config.ServerConfig
	router *gin.Engine
	log    *zap.Logger
}

// New builds the router with middleware, API routes, /metrics and the optional static pages.
func New(cfg config.ServerConfig, h *handler.Handler, m *metrics.Metrics, log *zap.Logger) *Server {
	router := gin.New()

	// Recovery sits inside Logger and Metrics so recovered panics are logged and counted as 500s.
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Metrics(m))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS())
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

	h.RegisterRoutes(router)

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})))

	s := &Server{
		cfg:    cfg,
		router: router,
		log:    log,
	}
	s.setupStatic()

	return s
}

// setupStatic serves index.html at /, dashboard.html at /dashboard and assets under /static.
func (s *Server) setupStatic() {
	dir := s.cfg.StaticDir
	if dir == "" {
		return
	}
	if _, err := os.Stat(dir); err != nil {
		s.log.Warn("Static directory unavailable, serving API only", zap.String("dir", dir), zap.Error(err))
		return
	}

	s.router.StaticFile("/", filepath.Join(dir, "index.html"))
	s.router.StaticFile("/dashboard", filepath.Join(dir, "dashboard.html"))
	if assets := filepath.Join(dir, "static"); dirExists(assets) {
		s.router.Static("/static", assets)
	}
	s.log.Info("Serving static pages", zap.String("dir", dir))
}

// Router returns the underlying gin engine.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run listens on the configured address until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Address(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln and shuts down gracefully when ctx is canceled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Starting server", zap.String("address", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	s.log.Info("Server exited")
	return nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
