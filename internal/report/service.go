package report

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tendant/simple-inspector/internal/img"
	"github.com/tendant/simple-inspector/internal/job"
	"github.com/tendant/simple-inspector/pkg/schema"
)

// Jobs loads a job on behalf of an actor. *job.Manager satisfies it, so
// report access follows the same visibility rules as Get.
type Jobs interface {
	Get(ctx context.Context, id string, actor job.Actor) (*job.Job, error)
}

// BannerSource supplies optional banner bytes. A nil slice with a nil error
// means no banner is configured.
type BannerSource interface {
	FetchBanner(ctx context.Context) ([]byte, error)
}

// Publisher announces rendered reports.
type Publisher interface {
	PublishReport(ctx context.Context, evt schema.ReportGenerated) error
}

// RenderObserver observes render outcomes, e.g. for Prometheus.
type RenderObserver interface {
	Rendered(result string, pages int, elapsed time.Duration)
}

// Service turns stored jobs into PDF documents.
type Service struct {
	jobs      Jobs
	banner    BannerSource
	logger    *slog.Logger
	publisher Publisher
	observer  RenderObserver
	now       func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

func WithBanner(b BannerSource) ServiceOption {
	return func(s *Service) { s.banner = b }
}

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

func WithPublisher(p Publisher) ServiceOption {
	return func(s *Service) { s.publisher = p }
}

func WithRecorder(r RenderObserver) ServiceOption {
	return func(s *Service) { s.observer = r }
}

func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

func NewService(jobs Jobs, opts ...ServiceOption) *Service {
	s := &Service{
		jobs:   jobs,
		logger: slog.Default(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateReport loads the job and the banner concurrently and renders the
// report. A missing or broken banner only downgrades the header; an unknown
// job returns the loader's error (a *job.NotFoundError from the Manager).
func (s *Service) GenerateReport(ctx context.Context, id string, actor job.Actor) (*Document, error) {
	start := time.Now()
	logger := s.logger.With("job_id", id)

	var (
		j      *job.Job
		banner []byte
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		j, err = s.jobs.Get(gctx, id, actor)
		return err
	})
	if s.banner != nil {
		g.Go(func() error {
			banner = s.loadBanner(gctx, logger)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.observe("load_failed", 0, start)
		return nil, err
	}

	doc, err := Render(j, Options{Banner: banner, Generated: s.now(), Logger: logger})
	if err != nil {
		logger.Error("render report failed", "err", err)
		s.observe("render_failed", 0, start)
		return nil, err
	}

	elapsed := time.Since(start)
	logger.Info("report rendered",
		"job_count", j.JobCount,
		"pages", doc.Pages,
		"bytes", len(doc.Bytes),
		"okay", doc.Summary.Okay,
		"minor", doc.Summary.Minor,
		"major", doc.Summary.Major,
		"unrecognized", doc.Summary.Unrecognized,
		"banner", doc.BannerUsed,
		"duration_ms", elapsed.Milliseconds())
	s.observe("ok", doc.Pages, start)
	s.publish(ctx, j, doc, elapsed, logger)
	return doc, nil
}

// loadBanner never fails the render; problems are logged and the header
// falls back to the plain gradient.
func (s *Service) loadBanner(ctx context.Context, logger *slog.Logger) []byte {
	raw, err := s.banner.FetchBanner(ctx)
	if err != nil {
		logger.Warn("banner fetch failed; rendering without it", "err", err)
		return nil
	}
	if len(raw) == 0 {
		return nil
	}
	b, err := img.PrepareBanner(raw, img.DefaultBoxWidth, img.DefaultBoxHeight)
	if err != nil {
		logger.Warn("banner is not a usable image; rendering without it", "err", err)
		return nil
	}
	return b.PNG
}

func (s *Service) observe(result string, pages int, start time.Time) {
	if s.observer != nil {
		s.observer.Rendered(result, pages, time.Since(start))
	}
}

func (s *Service) publish(ctx context.Context, j *job.Job, doc *Document, elapsed time.Duration, logger *slog.Logger) {
	if s.publisher == nil {
		return
	}
	evt := schema.ReportGenerated{
		JobID:            j.ID,
		JobCount:         j.JobCount,
		Pages:            doc.Pages,
		Bytes:            len(doc.Bytes),
		Okay:             doc.Summary.Okay,
		Minor:            doc.Summary.Minor,
		Major:            doc.Summary.Major,
		Unrecognized:     doc.Summary.Unrecognized,
		BannerUsed:       doc.BannerUsed,
		ProcessingTimeMs: elapsed.Milliseconds(),
		HappenedAt:       s.now().Unix(),
	}
	if err := s.publisher.PublishReport(ctx, evt); err != nil {
		logger.Error("publish report event failed", "err", err)
	}
}

var unsafeFilename = regexp.MustCompile(`[^a-z0-9]`)

// Filename is the download name for a report: the customer name lowercased
// with everything outside [a-z0-9] replaced by "_".
func Filename(customerName string) string {
	name := unsafeFilename.ReplaceAllString(strings.ToLower(strings.TrimSpace(customerName)), "_")
	if name == "" {
		name = "unknown"
	}
	return "job-" + name + ".pdf"
}
