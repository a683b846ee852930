// Package server exposes the DRC service over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/soc-pilot/drc/internal/logger"
	"github.com/soc-pilot/drc/internal/metrics"
	"github.com/soc-pilot/drc/internal/service"
)

// Config holds HTTP server settings.
type Config struct {
	Addr string `mapstructure:"addr"`
	// RateLimit is the sustained request rate per second across all clients; 0 disables limiting.
	RateLimit      float64       `mapstructure:"rate_limit"`
	Burst          int           `mapstructure:"burst"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// DefaultConfig returns the default server settings.
func DefaultConfig() Config {
	return Config{
		Addr:           ":8080",
		RateLimit:      50,
		Burst:          100,
		RequestTimeout: 30 * time.Second,
	}
}

// Server wires the routes to the service.
type Server struct {
	svc     *service.Service
	metrics *metrics.Metrics
	log     *slog.Logger
	cfg     Config
	engine  *gin.Engine
}

// New builds the router. m may be nil.
func New(svc *service.Service, m *metrics.Metrics, log *slog.Logger, cfg Config) *Server {
	if log == nil {
		log = logger.Default
	}
	s := &Server{svc: svc, metrics: m, log: log, cfg: cfg}

	r := gin.New()
	r.Use(gin.Recovery(), s.observe())
	r.GET("/healthz", s.handleHealth)
	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	v1 := r.Group("/v1", rateLimit(cfg.RateLimit, cfg.Burst), timeout(cfg.RequestTimeout))
	v1.GET("/rules", s.handleRules)
	v1.POST("/normalize", s.handleNormalize)
	projects := v1.Group("/projects/:projectId")
	projects.POST("/drc", s.handleCheck)
	projects.GET("/drc", s.handleGetReport)
	projects.DELETE("/drc", s.handleDeleteReport)

	s.engine = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.log.Info("drc server listening", "addr", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		if s.metrics != nil {
			s.metrics.ObserveRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
		}
		s.log.Debug("http request",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds())
	}
}
