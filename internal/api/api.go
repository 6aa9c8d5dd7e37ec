// Package api exposes the job manager and report service over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/tendant/simple-inspector/internal/job"
	"github.com/tendant/simple-inspector/internal/report"
)

// Jobs is the lifecycle surface served by the API. *job.Manager satisfies it.
type Jobs interface {
	Create(ctx context.Context, d job.Draft, actor job.Actor) (*job.Job, error)
	Claim(ctx context.Context, id string, actor job.Actor) (*job.Job, error)
	Complete(ctx context.Context, id string, actor job.Actor) (*job.Job, error)
	Decide(ctx context.Context, id string, actor job.Actor, decision job.Decision, note string) (*job.Job, error)
	Edit(ctx context.Context, id string, actor job.Actor, p job.Patch) (*job.Job, error)
	Delete(ctx context.Context, id string, actor job.Actor) error
	Get(ctx context.Context, id string, actor job.Actor) (*job.Job, error)
	Checklist(ctx context.Context, id string, actor job.Actor) ([]job.InspectionTab, error)
	List(ctx context.Context, actor job.Actor, f job.Filter) (*job.Page, error)
}

// Reports renders a job's PDF. *report.Service satisfies it.
type Reports interface {
	GenerateReport(ctx context.Context, id string, actor job.Actor) (*report.Document, error)
}

// API wires the HTTP handlers together.
type API struct {
	jobs    Jobs
	reports Reports
	logger  *slog.Logger
	metrics http.Handler
	health  func(ctx context.Context) error
}

type Option func(*API)

func WithLogger(logger *slog.Logger) Option {
	return func(a *API) { a.logger = logger }
}

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(a *API) { a.metrics = h }
}

// WithHealthCheck makes /healthz report 503 when check fails.
func WithHealthCheck(check func(ctx context.Context) error) Option {
	return func(a *API) { a.health = check }
}

func New(jobs Jobs, reports Reports, opts ...Option) *API {
	a := &API{jobs: jobs, reports: reports, logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Handler returns the assembled router.
func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(a.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", a.healthz)
	if a.metrics != nil {
		r.Method(http.MethodGet, "/metrics", a.metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(identify)
		a.RegisterRoutes(r)
	})
	return r
}

// RegisterRoutes mounts the job routes on r. Callers must install the
// identity middleware first.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/jobs", func(r chi.Router) {
		r.Post("/", a.createJob)
		r.Get("/", a.listJobs)
		r.Route("/{jobID}", func(r chi.Router) {
			r.Get("/", a.getJob)
			r.Patch("/", a.editJob)
			r.Delete("/", a.deleteJob)
			r.Patch("/claim", a.claimJob)
			r.Patch("/complete", a.completeJob)
			r.Patch("/decision", a.decideJob)
			r.Get("/checklist", a.checklist)
			r.Get("/report", a.downloadReport)
		})
	})
	// path used by existing report links
	r.Get("/pdf/{jobID}", a.downloadReport)
}

func (a *API) healthz(w http.ResponseWriter, r *http.Request) {
	if a.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.health(ctx); err != nil {
			a.logger.Warn("health check failed", "err", err)
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, map[string]string{"status": "unavailable"})
			return
		}
	}
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func (a *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		a.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"request_id", middleware.GetReqID(r.Context()),
			"duration_ms", time.Since(start).Milliseconds())
	})
}
