package job

import (
	"context"
	"time"
)

// Store is the persistence contract the Manager relies on. Implementations
// must evaluate ConditionalUpdate and Increment atomically; the Manager never
// performs read-modify-write on shared fields itself.
type Store interface {
	// Get returns ErrNotFound when id does not resolve.
	Get(ctx context.Context, id string) (*Job, error)
	// Find returns one page of jobs matching q, newest first, and the total
	// number of matches ignoring Skip and Limit.
	Find(ctx context.Context, q Query) ([]*Job, int64, error)
	Insert(ctx context.Context, j *Job) error
	// ConditionalUpdate applies u to job id only when the stored record
	// satisfies e. It returns the updated job, or nil and no error when the
	// record is absent or the expectation failed.
	ConditionalUpdate(ctx context.Context, id string, e Expect, u Update) (*Job, error)
	// Increment atomically adds one to the named counter, creating it at
	// zero first if needed, and returns the new value.
	Increment(ctx context.Context, counter string) (int64, error)
	// Delete removes job id and returns the removed record, or nil and no
	// error when it was absent.
	Delete(ctx context.Context, id string) (*Job, error)
}

// Query selects jobs for listing.
type Query struct {
	CreatedFrom time.Time
	CreatedTo   time.Time
	// Status narrows to a single status when non-empty.
	Status Status
	// VisibleTo, when non-empty, restricts results to pending jobs plus
	// in-progress jobs assigned to this actor id.
	VisibleTo string
	Skip      int
	Limit     int
}

// Matches evaluates the query filter (not paging) against j. Stores that
// cannot push the filter down use it directly.
func (q Query) Matches(j *Job) bool {
	if !q.CreatedFrom.IsZero() && j.CreatedAt.Before(q.CreatedFrom) {
		return false
	}
	if !q.CreatedTo.IsZero() && j.CreatedAt.After(q.CreatedTo) {
		return false
	}
	if q.Status != "" && j.Status != q.Status {
		return false
	}
	if q.VisibleTo != "" {
		pending := j.Status == StatusPending
		mine := j.Status == StatusInProgress && j.AssignedTo == q.VisibleTo
		if !pending && !mine {
			return false
		}
	}
	return true
}

// Expect is the precondition of a conditional update. Nil fields are not
// checked. AssignedTo pointing at "" means "must be unassigned".
type Expect struct {
	Status     *Status
	AssignedTo *string
}

// Matches reports whether j satisfies the expectation.
func (e Expect) Matches(j *Job) bool {
	if e.Status != nil && j.Status != *e.Status {
		return false
	}
	if e.AssignedTo != nil && j.AssignedTo != *e.AssignedTo {
		return false
	}
	return true
}

// Update lists replacement values. Nil fields are left unchanged.
type Update struct {
	CarNumber      *string
	CustomerName   *string
	EngineNumber   *string
	Classification *Classification
	Status         *Status
	AssignedTo     *string
	RejectionNote  *string
	InspectionTabs *[]InspectionTab
}

// Apply writes the update onto j and stamps UpdatedAt.
func (u Update) Apply(j *Job, now time.Time) {
	if u.CarNumber != nil {
		j.CarNumber = *u.CarNumber
	}
	if u.CustomerName != nil {
		j.CustomerName = *u.CustomerName
	}
	if u.EngineNumber != nil {
		j.EngineNumber = *u.EngineNumber
	}
	if u.Classification != nil {
		j.Classification = *u.Classification
	}
	if u.Status != nil {
		j.Status = *u.Status
	}
	if u.AssignedTo != nil {
		j.AssignedTo = *u.AssignedTo
	}
	if u.RejectionNote != nil {
		j.RejectionNote = *u.RejectionNote
	}
	if u.InspectionTabs != nil {
		j.InspectionTabs = CloneTabs(*u.InspectionTabs)
	}
	j.UpdatedAt = now
}

func ptr[T any](v T) *T { return &v }
