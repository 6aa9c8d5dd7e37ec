package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tendant/simple-inspector/internal/job"
	"github.com/tendant/simple-inspector/internal/report"
	"github.com/tendant/simple-inspector/internal/store/memory"
)

var (
	admin = job.Actor{ID: "admin-1", Role: job.RoleAdmin}
	alice = job.Actor{ID: "alice", Role: job.RoleTeam}
	bob   = job.Actor{ID: "bob", Role: job.RoleTeam}
)

type testServer struct {
	handler http.Handler
	store   *memory.Store
}

func newTestServer(t *testing.T, opts ...Option) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()
	manager := job.NewManager(store, job.WithLogger(logger))
	reports := report.NewService(manager, report.WithLogger(logger))
	opts = append([]Option{WithLogger(logger)}, opts...)
	return &testServer{handler: New(manager, reports, opts...).Handler(), store: store}
}

func (s *testServer) do(t *testing.T, actor *job.Actor, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		if raw, ok := body.(string); ok {
			reader = strings.NewReader(raw)
		} else {
			b, err := json.Marshal(body)
			if err != nil {
				t.Fatalf("marshal body: %v", err)
			}
			reader = bytes.NewReader(b)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		req.Header.Set(HeaderUserID, actor.ID)
		req.Header.Set(HeaderUserRole, string(actor.Role))
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func (s *testServer) createJob(t *testing.T, customer string) *job.Job {
	t.Helper()
	rec := s.do(t, &admin, http.MethodPost, "/jobs", job.Draft{CarNumber: "KA-01-1234", CustomerName: customer})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d body=%s", rec.Code, rec.Body)
	}
	return decode[*job.Job](t, rec)
}

func TestLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	created := s.createJob(t, "Ravi Kumar")
	if created.Status != job.StatusPending || created.JobCount != 1 || len(created.InspectionTabs) == 0 {
		t.Fatalf("unexpected created job %+v", created)
	}
	base := "/jobs/" + created.ID

	rec := s.do(t, &alice, http.MethodPatch, base+"/claim", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("claim status = %d body=%s", rec.Code, rec.Body)
	}
	if got := decode[*job.Job](t, rec); got.Status != job.StatusInProgress || got.AssignedTo != "alice" {
		t.Fatalf("unexpected claimed job %+v", got)
	}

	if rec := s.do(t, &bob, http.MethodPatch, base+"/claim", nil); rec.Code != http.StatusConflict {
		t.Fatalf("second claim status = %d", rec.Code)
	}
	if rec := s.do(t, &bob, http.MethodPatch, base+"/complete", nil); rec.Code != http.StatusConflict {
		t.Fatalf("foreign complete status = %d", rec.Code)
	}

	if rec := s.do(t, &alice, http.MethodPatch, base+"/complete", nil); rec.Code != http.StatusOK {
		t.Fatalf("complete status = %d body=%s", rec.Code, rec.Body)
	}

	rec = s.do(t, &admin, http.MethodPatch, base+"/decision", map[string]string{"decision": "reject"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("reject without note status = %d", rec.Code)
	}
	body := decode[ErrResponse](t, rec)
	if body.Kind != "validation" || body.Details == nil {
		t.Fatalf("unexpected validation body %+v", body)
	}

	rec = s.do(t, &admin, http.MethodPatch, base+"/decision", map[string]string{"decision": "reject", "rejectionNote": "photos missing"})
	if rec.Code != http.StatusOK {
		t.Fatalf("reject status = %d body=%s", rec.Code, rec.Body)
	}
	if got := decode[*job.Job](t, rec); got.Status != job.StatusRejected || got.RejectionNote != "photos missing" {
		t.Fatalf("unexpected rejected job %+v", got)
	}
}

func TestIdentityRequired(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, nil, http.MethodGet, "/jobs", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}

	guest := job.Actor{ID: "g", Role: "guest"}
	if rec := s.do(t, &guest, http.MethodGet, "/jobs", nil); rec.Code != http.StatusForbidden {
		t.Fatalf("guest status = %d", rec.Code)
	}
}

func TestPermissionMapping(t *testing.T) {
	s := newTestServer(t)
	created := s.createJob(t, "Ravi")

	cases := []struct {
		name   string
		actor  job.Actor
		method string
		path   string
		body   any
		want   int
	}{
		{"team cannot create", alice, http.MethodPost, "/jobs", job.Draft{CarNumber: "X", CustomerName: "Y"}, http.StatusForbidden},
		{"team cannot delete", alice, http.MethodDelete, "/jobs/" + created.ID, nil, http.StatusForbidden},
		{"team cannot edit", alice, http.MethodPatch, "/jobs/" + created.ID, map[string]string{"carNumber": "Z"}, http.StatusForbidden},
		{"admin cannot claim", admin, http.MethodPatch, "/jobs/" + created.ID + "/claim", nil, http.StatusForbidden},
		{"decide on pending", admin, http.MethodPatch, "/jobs/" + created.ID + "/decision", map[string]string{"decision": "accept"}, http.StatusConflict},
		{"unknown job", admin, http.MethodGet, "/jobs/missing", nil, http.StatusNotFound},
		{"invalid draft", admin, http.MethodPost, "/jobs", job.Draft{}, http.StatusBadRequest},
		{"malformed json", admin, http.MethodPost, "/jobs", "{", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			actor := tc.actor
			if rec := s.do(t, &actor, tc.method, tc.path, tc.body); rec.Code != tc.want {
				t.Fatalf("status = %d, want %d body=%s", rec.Code, tc.want, rec.Body)
			}
		})
	}
}

func TestListJobs(t *testing.T) {
	s := newTestServer(t)
	first := s.createJob(t, "One")
	s.createJob(t, "Two")
	s.createJob(t, "Three")

	if rec := s.do(t, &alice, http.MethodPatch, "/jobs/"+first.ID+"/claim", nil); rec.Code != http.StatusOK {
		t.Fatalf("claim status = %d", rec.Code)
	}

	rec := s.do(t, &admin, http.MethodGet, "/jobs?limit=2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d body=%s", rec.Code, rec.Body)
	}
	page := decode[listResponse](t, rec)
	if len(page.Jobs) != 2 || page.Pagination.Total != 3 || page.Pagination.TotalPages != 2 || page.Pagination.Limit != 2 {
		t.Fatalf("unexpected admin page %+v", page.Pagination)
	}

	// bob sees only the two pending jobs; alice also sees her claim
	if page := decode[listResponse](t, s.do(t, &bob, http.MethodGet, "/jobs", nil)); page.Pagination.Total != 2 {
		t.Fatalf("bob total = %d", page.Pagination.Total)
	}
	if page := decode[listResponse](t, s.do(t, &alice, http.MethodGet, "/jobs", nil)); page.Pagination.Total != 3 {
		t.Fatalf("alice total = %d", page.Pagination.Total)
	}

	for _, q := range []string{"page=0", "limit=abc", "startDate=yesterday", "status=archived", "startDate=2025-02-01&endDate=2025-01-01"} {
		if rec := s.do(t, &admin, http.MethodGet, "/jobs?"+q, nil); rec.Code != http.StatusBadRequest {
			t.Fatalf("query %q status = %d", q, rec.Code)
		}
	}

	if page := decode[listResponse](t, s.do(t, &admin, http.MethodGet, "/jobs?startDate=2020-01-01&endDate=2020-01-02", nil)); len(page.Jobs) != 0 {
		t.Fatalf("old window returned %d jobs", len(page.Jobs))
	}
}

func TestEditDeleteAndChecklist(t *testing.T) {
	s := newTestServer(t)
	created := s.createJob(t, "Ravi")
	base := "/jobs/" + created.ID

	rec := s.do(t, &admin, http.MethodPatch, base, map[string]string{"customerName": "  Meera  "})
	if rec.Code != http.StatusOK {
		t.Fatalf("edit status = %d body=%s", rec.Code, rec.Body)
	}
	if got := decode[*job.Job](t, rec); got.CustomerName != "Meera" || got.Status != job.StatusPending {
		t.Fatalf("unexpected edited job %+v", got)
	}

	rec = s.do(t, &bob, http.MethodGet, base+"/checklist", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("checklist status = %d", rec.Code)
	}
	cl := decode[checklistResponse](t, rec)
	if cl.JobID != created.ID || len(cl.InspectionTabs) != len(job.CanonicalTabs) {
		t.Fatalf("unexpected checklist %+v", cl)
	}

	if rec := s.do(t, &admin, http.MethodDelete, base, nil); rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if rec := s.do(t, &admin, http.MethodGet, base, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d", rec.Code)
	}
}

func TestDownloadReport(t *testing.T) {
	s := newTestServer(t)
	created := s.createJob(t, "Ravi Kumar")

	for _, path := range []string{"/jobs/" + created.ID + "/report", "/pdf/" + created.ID} {
		rec := s.do(t, &admin, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d body=%s", path, rec.Code, rec.Body)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
			t.Fatalf("content type = %s", ct)
		}
		if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="job-ravi_kumar.pdf"` {
			t.Fatalf("content disposition = %s", cd)
		}
		if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")) {
			t.Fatal("body is not a PDF")
		}
	}

	if rec := s.do(t, &admin, http.MethodGet, "/jobs/missing/report", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing report status = %d", rec.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("inspector_up 1\n"))
	})
	healthy := true
	s := newTestServer(t, WithMetrics(metrics), WithHealthCheck(func(context.Context) error {
		if healthy {
			return nil
		}
		return errors.New("db down")
	}))

	if rec := s.do(t, nil, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}
	healthy = false
	if rec := s.do(t, nil, http.MethodGet, "/healthz", nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("unhealthy status = %d", rec.Code)
	}
	if rec := s.do(t, nil, http.MethodGet, "/metrics", nil); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "inspector_up") {
		t.Fatalf("metrics status = %d body=%s", rec.Code, rec.Body)
	}
}

func TestErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{&job.ValidationError{}, http.StatusBadRequest},
		{&job.PermissionError{Op: "claim"}, http.StatusForbidden},
		{&job.NotFoundError{ID: "x"}, http.StatusNotFound},
		{&job.ConflictError{ID: "x"}, http.StatusConflict},
		{&job.StoreError{Op: "get", Err: errors.New("dial tcp")}, http.StatusServiceUnavailable},
		{&report.RenderError{Err: errors.New("boom")}, http.StatusInternalServerError},
		{errors.New("surprise"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := errorStatus(tc.err); got != tc.want {
			t.Errorf("errorStatus(%T) = %d, want %d", tc.err, got, tc.want)
		}
	}

	resp := errResponse(&job.StoreError{Op: "get", Err: errors.New("password=hunter2")})
	if strings.Contains(resp.Error, "hunter2") {
		t.Fatalf("store cause leaked: %s", resp.Error)
	}
}
