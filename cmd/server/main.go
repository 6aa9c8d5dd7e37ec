// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tendant/simple-inspector/internal/api"
	"github.com/tendant/simple-inspector/internal/asset"
	"github.com/tendant/simple-inspector/internal/bus"
	"github.com/tendant/simple-inspector/internal/job"
	"github.com/tendant/simple-inspector/internal/metrics"
	"github.com/tendant/simple-inspector/internal/report"
	"github.com/tendant/simple-inspector/internal/store"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	cfg, err := loadConfig()
	if err != nil {
		fatal(logger, "load config", err)
	}
	logger = newLogger(os.Stdout, cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)
	logger.Info("server starting",
		"http_addr", cfg.HTTPAddr,
		"store_driver", cfg.Store.Driver,
		"nats_enabled", cfg.NATSURL != "",
		"event_prefix", cfg.EventPrefix,
		"banner_source", cfg.BannerSource)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		fatal(logger, "open store", err, "driver", cfg.Store.Driver)
	}
	defer func() {
		if err := backend.Close(context.Background()); err != nil {
			logger.Warn("close store failed", "err", err)
		}
	}()
	logger.Info("store ready", "driver", backend.Driver)

	m := metrics.New()
	jobOpts := []job.Option{job.WithLogger(logger), job.WithRecorder(m)}
	reportOpts := []report.ServiceOption{report.WithLogger(logger), report.WithRecorder(m)}

	if cfg.NATSURL != "" {
		nc, err := bus.Connect(cfg.NATSURL)
		if err != nil {
			fatal(logger, "connect to NATS", err, "nats_url", cfg.NATSURL)
		}
		defer nc.Close()
		logger.Info("connected to NATS", "nats_url", cfg.NATSURL)

		publisher := bus.NewPublisher(nc, cfg.EventPrefix)
		jobOpts = append(jobOpts, job.WithPublisher(publisher))
		reportOpts = append(reportOpts, report.WithPublisher(publisher))
	}

	banner, err := buildBanner(cfg, logger)
	if err != nil {
		fatal(logger, "configure banner", err, "banner_source", cfg.BannerSource)
	}
	reportOpts = append(reportOpts, report.WithBanner(banner))

	manager := job.NewManager(backend, jobOpts...)
	reports := report.NewService(manager, reportOpts...)
	handler := api.New(manager, reports,
		api.WithLogger(logger),
		api.WithMetrics(m.Handler()),
		api.WithHealthCheck(backend.Ping),
	).Handler()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			fatal(logger, "http server", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	}
	logger.Info("server stopped")
}

// buildBanner picks where report banners come from. A missing banner file
// is not fatal; reports fall back to the plain header.
func buildBanner(cfg config, logger *slog.Logger) (report.BannerSource, error) {
	switch cfg.BannerSource {
	case "none":
		return asset.None{}, nil
	case "content":
		contentCfg, err := loadSimpleContentConfig()
		if err != nil {
			return nil, fmt.Errorf("load simplecontent config: %w", err)
		}
		contentSvc, err := contentCfg.BuildService()
		if err != nil {
			return nil, fmt.Errorf("build simplecontent service: %w", err)
		}
		logger.Info("simplecontent service ready", "backend", contentCfg.DefaultStorageBackend, "content_id", cfg.BannerContentID)
		return asset.NewContent(contentSvc, cfg.BannerContentID), nil
	default:
		if _, err := os.Stat(cfg.BannerPath); err != nil {
			logger.Warn("banner file not readable; reports will use the plain header", "path", cfg.BannerPath, "err", err)
		}
		return asset.File{Path: cfg.BannerPath}, nil
	}
}
