package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/tendant/simple-inspector/internal/bus"
	"github.com/tendant/simple-inspector/internal/job"
	"github.com/tendant/simple-inspector/internal/store"
)

type config struct {
	Store       store.Config
	NATSURL     string
	EventPrefix string
	BannerPath  string
	OutDir      string
	Status      job.Status
	From        time.Time
	To          time.Time
	BatchSize   int
	Limit       int
	Workers     int
	DryRun      bool
	Watch       bool
}

func loadConfig(args []string) (config, error) {
	cfg := config{
		Store: store.Config{
			Driver:   getenv("STORE_DRIVER", "sqlite"),
			URL:      getenv("STORE_URL", ""),
			Database: getenv("MONGO_DATABASE", "inspections"),
		},
		NATSURL:     getenv("NATS_URL", "nats://127.0.0.1:4222"),
		EventPrefix: getenv("EVENT_SUBJECT_PREFIX", bus.DefaultPrefix),
		BannerPath:  getenv("BANNER_PATH", "./public/report-banner.jpeg"),
	}

	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	var status, from, to string
	var execute bool
	fs.IntVar(&cfg.BatchSize, "batch", 100, "Number of jobs to list per page")
	fs.IntVar(&cfg.Limit, "limit", 0, "Maximum total number of jobs to export (0 = unlimited)")
	fs.IntVar(&cfg.Workers, "workers", 4, "Number of reports rendered concurrently")
	fs.BoolVar(&cfg.DryRun, "dry-run", true, "Show what would be exported without rendering")
	fs.BoolVar(&execute, "execute", false, "Actually render and write reports (disables dry-run)")
	fs.BoolVar(&cfg.Watch, "watch", false, "Render reports as jobs are accepted, reading events from NATS")
	fs.StringVar(&cfg.OutDir, "out", getenv("EXPORT_DIR", "./reports"), "Directory reports are written to")
	fs.StringVar(&status, "status", string(job.StatusAccepted), "Only export jobs in this status (empty = any)")
	fs.StringVar(&from, "from", "", "Earliest creation date, YYYY-MM-DD (default: 24 hours ago)")
	fs.StringVar(&to, "to", "", "Latest creation date, YYYY-MM-DD, inclusive (default: now)")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	if execute {
		cfg.DryRun = false
	}

	cfg.Status = job.Status(status)
	if cfg.Status != "" && !cfg.Status.Valid() {
		return config{}, fmt.Errorf("invalid -status %q", status)
	}
	if cfg.BatchSize <= 0 || cfg.BatchSize > job.MaxLimit {
		return config{}, fmt.Errorf("-batch must be between 1 and %d (got %d)", job.MaxLimit, cfg.BatchSize)
	}
	if cfg.Workers <= 0 {
		return config{}, fmt.Errorf("-workers must be greater than zero (got %d)", cfg.Workers)
	}
	if cfg.Limit < 0 {
		return config{}, fmt.Errorf("-limit must not be negative (got %d)", cfg.Limit)
	}

	var err error
	if cfg.From, err = parseDay(from, false); err != nil {
		return config{}, fmt.Errorf("invalid -from: %w", err)
	}
	if cfg.To, err = parseDay(to, true); err != nil {
		return config{}, fmt.Errorf("invalid -to: %w", err)
	}
	if cfg.From.IsZero() && !cfg.To.IsZero() {
		cfg.From = cfg.To.Add(-job.DefaultWindow)
	}
	if !cfg.From.IsZero() && !cfg.To.IsZero() && cfg.From.After(cfg.To) {
		return config{}, fmt.Errorf("-from must not be after -to")
	}
	return cfg, nil
}

// parseDay reads a YYYY-MM-DD date in UTC. End dates cover the whole day.
func parseDay(value string, end bool) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, err
	}
	if end {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func fatal(logger *slog.Logger, msg string, err error, attrs ...any) {
	attrs = append(attrs, "err", err)
	logger.Error(msg, attrs...)
	os.Exit(1)
}
