// Package server exposes the simulator over HTTP (gin), a websocket channel and
// an optional gRPC health endpoint.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"

	"github.com/san-kum/cyberdyn/internal/config"
	"github.com/san-kum/cyberdyn/internal/logging"
	"github.com/san-kum/cyberdyn/internal/observability"
	"github.com/san-kum/cyberdyn/internal/sim"
)

const (
	ServiceName = "attack-a-litics"
	Version     = "1.0.0"
)

type Server struct {
	cfg       config.ServerConfig
	pool      *sim.Pool
	log       logging.Logger
	collector *observability.Collector
	router    *gin.Engine
	now       func() time.Time
}

type Option func(*Server)

func WithCollector(c *observability.Collector) Option {
	return func(s *Server) { s.collector = c }
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func New(cfg config.ServerConfig, pool *sim.Pool, log logging.Logger, opts ...Option) *Server {
	if log == nil {
		log = logging.Noop()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = config.DefaultRequestTimeout
	}
	s := &Server{
		cfg:  cfg,
		pool: pool,
		log:  log,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	gin.SetMode(gin.ReleaseMode)
	s.router = gin.New()
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(
		s.recoveryMiddleware(),
		s.requestIDMiddleware(),
		s.metricsMiddleware(),
		corsMiddleware(s.cfg.CORSOrigins),
	)

	s.router.GET("/", s.info)
	s.router.GET("/health", s.health)
	s.router.GET("/methods", s.methods)
	s.router.POST("/simulate", s.simulate)

	presets := s.router.Group("/presets")
	{
		presets.GET("", s.listPresets)
		presets.GET("/:name", s.getPreset)
		presets.POST("/:name/simulate", s.simulatePreset)
	}

	if s.collector != nil {
		s.router.GET("/metrics", gin.WrapH(s.collector.Handler()))
	}
	s.router.GET("/ws", s.handleWebSocket)
}

func (s *Server) Handler() http.Handler { return s.router }

// Run serves HTTP (and gRPC health when configured) until ctx is done, then
// shuts both down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpSrv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		s.log.Info(ctx, "starting HTTP server", logging.String("addr", s.cfg.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var (
		grpcSrv *grpc.Server
		health  *HealthService
	)
	if s.cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", s.cfg.GRPCAddr)
		if err != nil {
			_ = httpSrv.Close()
			return err
		}
		grpcSrv, health = NewGRPCServer(s.collector, s.log)
		health.Serving()
		go func() {
			s.log.Info(ctx, "starting gRPC health server", logging.String("addr", s.cfg.GRPCAddr))
			if err := grpcSrv.Serve(lis); err != nil {
				errCh <- err
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		s.log.Error(ctx, "server exited", logging.Err(runErr))
	}

	s.log.Info(context.Background(), "shutting down")
	if grpcSrv != nil {
		health.NotServing()
		grpcSrv.GracefulStop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}
