package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/tendant/simple-inspector/internal/job"
)

// pagination mirrors the list response envelope existing clients expect.
type pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

type listResponse struct {
	Jobs       []*job.Job `json:"jobs"`
	Pagination pagination `json:"pagination"`
}

type decisionRequest struct {
	Decision      job.Decision `json:"decision"`
	RejectionNote string       `json:"rejectionNote,omitempty"`
}

type checklistResponse struct {
	JobID          string              `json:"jobId"`
	InspectionTabs []job.InspectionTab `json:"inspectionTabs"`
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	resp := errResponse(err)
	if resp.HTTPStatusCode >= http.StatusInternalServerError {
		a.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	_ = render.Render(w, r, resp)
}

func (a *API) createJob(w http.ResponseWriter, r *http.Request) {
	var d job.Draft
	if err := render.DecodeJSON(r.Body, &d); err != nil {
		_ = render.Render(w, r, errBadRequest(err))
		return
	}
	j, err := a.jobs.Create(r.Context(), d, actorFrom(r.Context()))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, j)
}

func (a *API) listJobs(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	page, err := a.jobs.List(r.Context(), actorFrom(r.Context()), f)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	render.JSON(w, r, listResponse{
		Jobs: page.Jobs,
		Pagination: pagination{
			Total:      page.Total,
			Page:       page.Page,
			Limit:      page.Limit,
			TotalPages: page.TotalPages,
		},
	})
}

func (a *API) getJob(w http.ResponseWriter, r *http.Request) {
	j, err := a.jobs.Get(r.Context(), chi.URLParam(r, "jobID"), actorFrom(r.Context()))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	render.JSON(w, r, j)
}

func (a *API) editJob(w http.ResponseWriter, r *http.Request) {
	var p job.Patch
	if err := render.DecodeJSON(r.Body, &p); err != nil {
		_ = render.Render(w, r, errBadRequest(err))
		return
	}
	j, err := a.jobs.Edit(r.Context(), chi.URLParam(r, "jobID"), actorFrom(r.Context()), p)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	render.JSON(w, r, j)
}

func (a *API) deleteJob(w http.ResponseWriter, r *http.Request) {
	if err := a.jobs.Delete(r.Context(), chi.URLParam(r, "jobID"), actorFrom(r.Context())); err != nil {
		a.fail(w, r, err)
		return
	}
	render.JSON(w, r, map[string]string{"message": "Job deleted successfully"})
}

func (a *API) claimJob(w http.ResponseWriter, r *http.Request) {
	j, err := a.jobs.Claim(r.Context(), chi.URLParam(r, "jobID"), actorFrom(r.Context()))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	render.JSON(w, r, j)
}

func (a *API) completeJob(w http.ResponseWriter, r *http.Request) {
	j, err := a.jobs.Complete(r.Context(), chi.URLParam(r, "jobID"), actorFrom(r.Context()))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	render.JSON(w, r, j)
}

func (a *API) decideJob(w http.ResponseWriter, r *http.Request) {
	var req decisionRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		_ = render.Render(w, r, errBadRequest(err))
		return
	}
	j, err := a.jobs.Decide(r.Context(), chi.URLParam(r, "jobID"), actorFrom(r.Context()), req.Decision, req.RejectionNote)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	render.JSON(w, r, j)
}

func (a *API) checklist(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")
	tabs, err := a.jobs.Checklist(r.Context(), id, actorFrom(r.Context()))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	render.JSON(w, r, checklistResponse{JobID: id, InspectionTabs: tabs})
}

func (a *API) downloadReport(w http.ResponseWriter, r *http.Request) {
	doc, err := a.reports.GenerateReport(r.Context(), chi.URLParam(r, "jobID"), actorFrom(r.Context()))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Bytes)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc.Bytes); err != nil {
		a.logger.Warn("write report response failed", "err", err)
	}
}

// parseFilter reads startDate, endDate, status, page and limit. Dates are
// RFC 3339 timestamps or plain YYYY-MM-DD days; an end day covers the whole
// day.
func parseFilter(r *http.Request) (job.Filter, error) {
	q := r.URL.Query()
	var (
		f job.Filter
		v = &job.ValidationError{}
	)
	if s := q.Get("startDate"); s != "" {
		t, err := parseDate(s, false)
		if err != nil {
			v.Fields = append(v.Fields, job.FieldError{Field: "startDate", Message: err.Error()})
		}
		f.From = t
	}
	if s := q.Get("endDate"); s != "" {
		t, err := parseDate(s, true)
		if err != nil {
			v.Fields = append(v.Fields, job.FieldError{Field: "endDate", Message: err.Error()})
		}
		f.To = t
	}
	f.Status = job.Status(q.Get("status"))

	for _, p := range []struct {
		name string
		dst  *int
	}{{"page", &f.Page}, {"limit", &f.Limit}} {
		s := q.Get(p.name)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			v.Fields = append(v.Fields, job.FieldError{Field: p.name, Message: "must be a positive integer"})
			continue
		}
		*p.dst = n
	}

	if len(v.Fields) > 0 {
		return job.Filter{}, v
	}
	return f, nil
}

func parseDate(s string, endOfDay bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected RFC 3339 time or YYYY-MM-DD date")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
