package report

import "fmt"

// RenderError means the document could not be built at all. Missing
// optional input never produces one.
type RenderError struct {
	JobID string
	Err   error
}

func (e *RenderError) Error() string {
	if e.JobID == "" {
		return fmt.Sprintf("render report: %v", e.Err)
	}
	return fmt.Sprintf("render report for job %s: %v", e.JobID, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
