// Package job holds the inspection job model and the lifecycle rules that
// govern who may move a job between states.
package job

import "time"

// Status is the workflow state of a job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusAccepted   Status = "accepted"
	StatusRejected   Status = "rejected"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// Assigned reports whether a job in status s must carry an assignee.
func (s Status) Assigned() bool {
	return s != StatusPending
}

// Severity grades a single checklist item.
type Severity string

const (
	SeverityOK    Severity = "ok"
	SeverityMinor Severity = "minor"
	SeverityMajor Severity = "major"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityOK, SeverityMinor, SeverityMajor:
		return true
	}
	return false
}

// Classification is the optional kind of inspection requested.
type Classification string

const (
	ClassificationNone        Classification = ""
	ClassificationPrePurchase Classification = "pre_purchase"
	ClassificationPeriodic    Classification = "periodic"
	ClassificationInsurance   Classification = "insurance"
	ClassificationPostRepair  Classification = "post_repair"
)

func (c Classification) Valid() bool {
	switch c {
	case ClassificationNone, ClassificationPrePurchase, ClassificationPeriodic,
		ClassificationInsurance, ClassificationPostRepair:
		return true
	}
	return false
}

// Role is the coarse permission level of an actor.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleTeam  Role = "team"
)

// Actor is the caller identity supplied by the transport layer. The core
// never authenticates it, it only authorizes against it.
type Actor struct {
	ID    string `json:"id"`
	Role  Role   `json:"role"`
	Email string `json:"email,omitempty"`
}

// SubIssue is one checklist item within a tab.
type SubIssue struct {
	Key      string   `json:"key" bson:"key"`
	Label    string   `json:"label" bson:"label"`
	Severity Severity `json:"severity" bson:"severity"`
	Comment  string   `json:"comment,omitempty" bson:"comment,omitempty"`
}

// InspectionTab is a named category of checks, e.g. "Exterior".
type InspectionTab struct {
	Key       string     `json:"key" bson:"key"`
	Label     string     `json:"label" bson:"label"`
	SubIssues []SubIssue `json:"subIssues" bson:"sub_issues"`
}

// Job is one vehicle inspection work item.
type Job struct {
	ID             string          `json:"id"`
	JobCount       int64           `json:"jobCount"`
	CarNumber      string          `json:"carNumber"`
	CustomerName   string          `json:"customerName"`
	EngineNumber   string          `json:"engineNumber,omitempty"`
	Classification Classification  `json:"classification,omitempty"`
	Status         Status          `json:"status"`
	AssignedTo     string          `json:"assignedTo,omitempty"`
	RejectionNote  string          `json:"rejectionNote,omitempty"`
	InspectionTabs []InspectionTab `json:"inspectionTabs"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Clone returns a deep copy so callers can mutate tabs without aliasing.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	cp := *j
	cp.InspectionTabs = CloneTabs(j.InspectionTabs)
	return &cp
}

// CloneTabs deep-copies a tab list.
func CloneTabs(tabs []InspectionTab) []InspectionTab {
	if tabs == nil {
		return nil
	}
	out := make([]InspectionTab, len(tabs))
	for i, t := range tabs {
		out[i] = t
		out[i].SubIssues = append([]SubIssue(nil), t.SubIssues...)
	}
	return out
}

// Counter is a named monotonically increasing sequence.
type Counter struct {
	Name  string `json:"name" bson:"_id"`
	Value int64  `json:"value" bson:"value"`
}

// JobCountCounter is the counter backing Job.JobCount.
const JobCountCounter = "jobCount"

// Draft is the admin-supplied input for a new job.
type Draft struct {
	CarNumber      string          `json:"carNumber"`
	CustomerName   string          `json:"customerName"`
	EngineNumber   string          `json:"engineNumber,omitempty"`
	Classification Classification  `json:"classification,omitempty"`
	InspectionTabs []InspectionTab `json:"inspectionTabs,omitempty"`
}

// Patch is a partial edit of a job's descriptive fields. Nil fields are left
// untouched. Status and assignment are deliberately absent.
type Patch struct {
	CarNumber      *string          `json:"carNumber,omitempty"`
	CustomerName   *string          `json:"customerName,omitempty"`
	EngineNumber   *string          `json:"engineNumber,omitempty"`
	Classification *Classification  `json:"classification,omitempty"`
	InspectionTabs *[]InspectionTab `json:"inspectionTabs,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.CarNumber == nil && p.CustomerName == nil && p.EngineNumber == nil &&
		p.Classification == nil && p.InspectionTabs == nil
}

// Decision is an admin's verdict on a completed job.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)
