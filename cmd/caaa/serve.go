package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/vladimirlihacky/CaAA/internal/config"
	"github.com/vladimirlihacky/CaAA/internal/logging"
	"github.com/vladimirlihacky/CaAA/internal/observability"
	"github.com/vladimirlihacky/CaAA/internal/server"
)

const (
	pruneInterval = time.Minute
	pruneIdle     = 10 * time.Minute
)

func newServeCmd() *cobra.Command {
	var configPath string
	var listenOverride string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve literal and wildcard search over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if listenOverride != "" {
				cfg.Server.Listen = listenOverride
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file (defaults apply when omitted)")
	cmd.Flags().StringVar(&listenOverride, "listen", "", "Override server.listen")

	return cmd
}

func runServer(ctx context.Context, cfg *config.Config) error {
	srv, err := server.New(cfg)
	if err != nil {
		return err
	}

	if cfg.Logging.RequestLog != "" {
		logger, closer, err := logging.OpenRequestLog(cfg.ResolvePath(cfg.Logging.RequestLog))
		if err != nil {
			return err
		}
		defer func() { _ = closer() }()
		srv.SetRequestLogger(logger)
	}

	if cfg.Logging.TraceLog != "" {
		trace, closer, err := logging.OpenTraceLog(cfg.ResolvePath(cfg.Logging.TraceLog))
		if err != nil {
			return err
		}
		defer func() { _ = closer() }()
		srv.SetTraceObserver(trace)
	}

	metricsSrv := startMetricsServer(cfg, srv)
	defer func() {
		if metricsSrv != nil {
			_ = metricsSrv.Shutdown(context.Background())
		}
	}()

	// The timeout bounds the response. Literal search also stops collecting
	// matches once the request context is done; the work of a wildcard
	// request is bounded by limits.maxBodyBytes only.
	var handler http.Handler = srv
	if cfg.Limits.Timeout > 0 {
		handler = http.TimeoutHandler(srv, cfg.Limits.Timeout, `{"error":"request timed out"}`)
	}

	httpSrv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- httpSrv.ListenAndServe()
	}()

	signalCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-signalCtx.Done():
			break loop
		case <-ticker.C:
			srv.Prune(pruneIdle)
		case err := <-serverErr:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			break loop
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func startMetricsServer(cfg *config.Config, srv *server.Server) *http.Server {
	if !cfg.Metrics.Enabled {
		return nil
	}

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	srv.SetMetrics(metrics)

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))

	metricsSrv := &http.Server{Addr: cfg.Metrics.Listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		_ = metricsSrv.ListenAndServe()
	}()
	return metricsSrv
}
