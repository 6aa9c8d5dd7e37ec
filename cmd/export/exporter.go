package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tendant/simple-inspector/internal/job"
	"github.com/tendant/simple-inspector/internal/process"
	"github.com/tendant/simple-inspector/internal/report"
)

// exportActor is the identity batch exports act as. Admins see every job.
var exportActor = job.Actor{ID: "report-export", Role: job.RoleAdmin}

type lister interface {
	List(ctx context.Context, actor job.Actor, f job.Filter) (*job.Page, error)
}

type generator interface {
	GenerateReport(ctx context.Context, id string, actor job.Actor) (*report.Document, error)
}

type exporter struct {
	jobs    lister
	reports generator
	outDir  string
	dryRun  bool
	workers int
	logger  *slog.Logger
	now     func() time.Time
	batch   process.Batch
}

func newExporter(jobs lister, reports generator, cfg config, logger *slog.Logger) *exporter {
	return &exporter{
		jobs:    jobs,
		reports: reports,
		outDir:  cfg.OutDir,
		dryRun:  cfg.DryRun,
		workers: cfg.Workers,
		logger:  logger,
		now:     time.Now,
	}
}

// Run pages through matching jobs and renders each one. Per-job failures
// are recorded on the batch; only listing errors abort the run.
func (e *exporter) Run(ctx context.Context, cfg config) (process.Result, error) {
	if !e.dryRun {
		if err := os.MkdirAll(e.outDir, 0o755); err != nil {
			return process.Result{}, fmt.Errorf("create output dir: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	filter := job.Filter{From: cfg.From, To: cfg.To, Status: cfg.Status, Page: 1, Limit: cfg.BatchSize}
	queued := 0
	for {
		page, err := e.jobs.List(gctx, exportActor, filter)
		if err != nil {
			_ = g.Wait()
			return e.batch.Result(), fmt.Errorf("list page %d: %w", filter.Page, err)
		}
		for _, j := range page.Jobs {
			if cfg.Limit > 0 && queued >= cfg.Limit {
				break
			}
			queued++
			g.Go(func() error {
				e.Export(gctx, j)
				return nil
			})
		}
		e.logger.Info("export progress", "queued", queued, "total", page.Total, "page", page.Page, "total_pages", page.TotalPages)
		if filter.Page >= page.TotalPages || (cfg.Limit > 0 && queued >= cfg.Limit) {
			break
		}
		filter.Page++
	}

	err := g.Wait()
	return e.batch.Result(), err
}

// Export renders one job and writes it under the output directory.
func (e *exporter) Export(ctx context.Context, j *job.Job) *process.Task {
	task := e.batch.Track(process.NewTask("export", j.ID, j.JobCount))
	task.MarkRunning(e.now())
	logger := e.logger.With("job_id", j.ID, "job_count", j.JobCount)

	if e.dryRun {
		task.MarkSkipped(e.now(), "dry run")
		logger.Info("would export report", "customer", j.CustomerName, "status", j.Status)
		return task
	}

	doc, err := e.reports.GenerateReport(ctx, j.ID, exportActor)
	if err != nil {
		task.MarkFailed(e.now(), err)
		logger.Error("render failed", "err", err)
		return task
	}

	path := filepath.Join(e.outDir, outputName(j.JobCount, doc.Filename))
	if err := os.WriteFile(path, doc.Bytes, 0o644); err != nil {
		task.MarkFailed(e.now(), err)
		logger.Error("write report failed", "path", path, "err", err)
		return task
	}
	task.MarkSucceeded(e.now(), path, len(doc.Bytes))
	logger.Info("report exported", "path", path, "pages", doc.Pages, "bytes", len(doc.Bytes), "duration_ms", task.Duration().Milliseconds())
	return task
}

// outputName prefixes the download filename with the file number so two
// customers with the same name do not overwrite each other.
func outputName(jobCount int64, filename string) string {
	return fmt.Sprintf("%06d-%s", jobCount, filename)
}
