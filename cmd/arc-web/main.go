// Command arc-web serves the receivables web front end.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/and161185/receivables-client/internal/config"
	"github.com/and161185/receivables-client/internal/logging"
	"github.com/and161185/receivables-client/internal/metrics"
	"github.com/and161185/receivables-client/internal/web"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration and serves the web front end until SIGINT/SIGTERM.
func main() {
	envFile := flag.String("env-file", ".env", "dotenv file (skipped when missing)")
	addr := flag.String("addr", "", "listen address (overrides LISTEN_ADDR)")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		// logger is not configured yet
		zap.NewExample().Fatal("config", zap.Error(err))
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		zap.NewExample().Fatal("logger", zap.Error(err))
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.ListenAddr),
		zap.String("api", cfg.APIBase),
		zap.String("env", cfg.Environment),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv, err := web.New(web.Options{
		APIBase:      cfg.APIBase,
		SecureCookie: cfg.IsProduction(),
		Timeout:      cfg.HTTPTimeout,
	}, logger, metrics.New(reg), reg)
	if err != nil {
		logger.Fatal("web server", zap.Error(err))
	}
	hs := srv.NewHTTPServer(cfg.ListenAddr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.ListenAddr))
		errCh <- hs.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := hs.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown timed out", zap.Error(err))
			_ = hs.Close()
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}
