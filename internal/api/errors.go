package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/tendant/simple-inspector/internal/job"
	"github.com/tendant/simple-inspector/internal/report"
)

// ErrResponse is the JSON error body.
type ErrResponse struct {
	HTTPStatusCode int    `json:"-"`
	Kind           string `json:"kind,omitempty"`
	Error          string `json:"error"`
	Details        any    `json:"details,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

var errUnauthorized = &ErrResponse{HTTPStatusCode: http.StatusUnauthorized, Kind: "unauthenticated", Error: "missing identity"}

func errBadRequest(err error) render.Renderer {
	return &ErrResponse{HTTPStatusCode: http.StatusBadRequest, Kind: "validation", Error: "malformed request", Details: err.Error()}
}

// errorStatus maps the job error taxonomy onto HTTP statuses.
func errorStatus(err error) int {
	switch job.Kind(err) {
	case "validation":
		return http.StatusBadRequest
	case "permission":
		return http.StatusForbidden
	case "not_found":
		return http.StatusNotFound
	case "conflict":
		return http.StatusConflict
	case "store":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errResponse builds the body for a manager or report error. Store and
// internal failures keep their cause out of the response.
func errResponse(err error) *ErrResponse {
	resp := &ErrResponse{HTTPStatusCode: errorStatus(err), Kind: job.Kind(err), Error: err.Error()}

	var validationErr *job.ValidationError
	if errors.As(err, &validationErr) {
		resp.Error = "validation failed"
		resp.Details = validationErr.Fields
	}
	var renderErr *report.RenderError
	if errors.As(err, &renderErr) {
		resp.Kind = "render"
		resp.Error = "report generation failed"
	}
	if resp.Kind == "internal" {
		resp.Error = "internal error"
	}
	return resp
}
