// cmd/export/main.go
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/tendant/simple-inspector/internal/asset"
	"github.com/tendant/simple-inspector/internal/bus"
	"github.com/tendant/simple-inspector/internal/job"
	"github.com/tendant/simple-inspector/internal/report"
	"github.com/tendant/simple-inspector/internal/store"
	"github.com/tendant/simple-inspector/pkg/schema"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		fatal(logger, "load config", err)
	}
	logger.Info("export starting",
		"store_driver", cfg.Store.Driver,
		"status", cfg.Status,
		"from", cfg.From,
		"to", cfg.To,
		"batch_size", cfg.BatchSize,
		"limit", cfg.Limit,
		"workers", cfg.Workers,
		"out", cfg.OutDir,
		"dry_run", cfg.DryRun,
		"watch", cfg.Watch,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		fatal(logger, "open store", err, "driver", cfg.Store.Driver)
	}
	defer backend.Close(context.Background())

	manager := job.NewManager(backend, job.WithLogger(logger))
	reportOpts := []report.ServiceOption{
		report.WithLogger(logger),
		report.WithBanner(asset.File{Path: cfg.BannerPath}),
	}

	var nc *bus.Client
	if cfg.Watch {
		nc, err = bus.Connect(cfg.NATSURL)
		if err != nil {
			fatal(logger, "connect to NATS", err, "nats_url", cfg.NATSURL)
		}
		defer nc.Close()
		logger.Info("connected to NATS", "nats_url", cfg.NATSURL)
		reportOpts = append(reportOpts, report.WithPublisher(bus.NewPublisher(nc, cfg.EventPrefix)))
	}

	reports := report.NewService(manager, reportOpts...)
	exp := newExporter(manager, reports, cfg, logger)

	if cfg.Watch {
		watch(ctx, nc, exp, cfg, logger)
		return
	}

	result, err := exp.Run(ctx, cfg)
	if err != nil {
		fatal(logger, "export failed", err)
	}
	logger.Info("export complete",
		"total_found", result.TotalFound,
		"succeeded", result.TotalSucceeded,
		"skipped", result.TotalSkipped,
		"failed", result.TotalFailed,
		"bytes", result.Bytes,
		"dry_run", cfg.DryRun,
	)
	if result.TotalFailed > 0 {
		logger.Error("some reports failed", "failed_ids", result.FailedIDs)
		os.Exit(1)
	}
}

// watch renders a report for every job accepted while the process runs.
func watch(ctx context.Context, nc *bus.Client, exp *exporter, cfg config, logger *slog.Logger) {
	if !exp.dryRun {
		if err := os.MkdirAll(exp.outDir, 0o755); err != nil {
			fatal(logger, "create output dir", err, "out", exp.outDir)
		}
	}

	subject := schema.Subject(cfg.EventPrefix, schema.EventAccepted)
	sub, err := bus.SubscribeJobEvents(nc, subject, logger, func(ctx context.Context, evt schema.JobEvent) {
		exp.Export(ctx, &job.Job{ID: evt.JobID, JobCount: evt.JobCount, Status: job.Status(evt.Status)})
	})
	if err != nil {
		fatal(logger, "subscribe", err, "subject", subject)
	}
	logger.Info("watching for accepted jobs", "subject", subject)

	<-ctx.Done()
	_ = sub.Unsubscribe()

	result := exp.batch.Result()
	logger.Info("export complete",
		"total_found", result.TotalFound,
		"succeeded", result.TotalSucceeded,
		"skipped", result.TotalSkipped,
		"failed", result.TotalFailed,
		"bytes", result.Bytes,
		"dry_run", cfg.DryRun,
	)
}
