package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/shopreviews/internal/adapter/driven/reviewapi"
	httphandler "github.com/ericfisherdev/shopreviews/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/shopreviews/internal/adapter/driving/web"
	"github.com/ericfisherdev/shopreviews/internal/config"
	"github.com/ericfisherdev/shopreviews/internal/logging"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New("storefront", cfg.LogLevel)
	slog.SetDefault(logger)
	logger.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"api_base_url", cfg.APIBaseURL,
		"request_timeout", cfg.RequestTimeout,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Create review API and catalog clients.
	client, err := reviewapi.NewClient(cfg.APIBaseURL, cfg.RequestTimeout, logger)
	if err != nil {
		return err
	}
	catalog, err := reviewapi.NewCatalog(cfg.APIBaseURL, cfg.RequestTimeout, logger)
	if err != nil {
		return err
	}

	// 4. Create web handler and register routes.
	webHandler := webhandler.NewHandler(catalog, client, client, client, cfg.CookieSecure, logger)
	mux := http.NewServeMux()
	webhandler.RegisterRoutes(mux, webHandler)
	mux.Handle("GET /metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httphandler.ApplyMiddleware(mux, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// 5. Wait for shutdown signal or a listener failure.
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}

	// 6. Graceful shutdown with 10s timeout to drain in-flight requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
