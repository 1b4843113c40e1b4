package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/san-kum/cyberdyn/internal/config"
	"github.com/san-kum/cyberdyn/internal/logging"
	"github.com/san-kum/cyberdyn/internal/mcpserver"
	"github.com/san-kum/cyberdyn/internal/observability"
	"github.com/san-kum/cyberdyn/internal/server"
	"github.com/san-kum/cyberdyn/internal/sim"
)

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	log := newLogger(cfg).With(logging.String("service", server.ServiceName))

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdown, err := observability.InitTracing(ctx, cfg.Tracing, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdown, log)

	collector, err := observability.NewCollector(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	s := sim.New(sim.WithLogger(log), sim.WithRecorder(collector))
	pool := sim.NewPool(s, cfg.Server.Workers)
	log.Info(ctx, "configured",
		logging.Int("workers", pool.Size()),
		logging.Duration("request_timeout", cfg.Server.RequestTimeout),
		logging.Any("cors_origins", cfg.Server.CORSOrigins),
	)

	return server.New(cfg.Server, pool, log, server.WithCollector(collector)).Run(ctx)
}

func serveMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// stdout carries the protocol, keep logs on stderr
	cfg.Logging.Output = os.Stderr
	log := newLogger(cfg)

	pool := sim.NewPool(sim.New(sim.WithLogger(log)), cfg.Server.Workers)
	srv := mcpserver.New(pool, log)

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch transport {
	case "stdio":
		log.Info(ctx, "MCP server starting (stdio)")
		return srv.Run(ctx, &mcp.StdioTransport{})
	case "http":
		handler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
			return srv
		}, nil)
		httpSrv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			<-ctx.Done()
			shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			_ = httpSrv.Shutdown(shutdownCtx)
		}()
		log.Info(ctx, "MCP server listening", logging.String("addr", addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	default:
		return fmt.Errorf("unknown transport %q (use stdio or http)", transport)
	}
}

func writeConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := config.Save(outPath, cfg); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %s\n", outPath)
	return nil
}
