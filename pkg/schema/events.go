// pkg/schema/events.go
package schema

// EventType names a job lifecycle transition published on the bus.
type EventType string

const (
	EventCreated   EventType = "created"
	EventClaimed   EventType = "claimed"
	EventCompleted EventType = "completed"
	EventAccepted  EventType = "accepted"
	EventRejected  EventType = "rejected"
	EventEdited    EventType = "edited"
	EventDeleted   EventType = "deleted"
	EventReported  EventType = "reported"
)

// JobEvent is the payload published after every successful job mutation.
type JobEvent struct {
	Type          EventType `json:"type"`
	JobID         string    `json:"job_id"`
	JobCount      int64     `json:"job_count"`
	Status        string    `json:"status"`
	AssignedTo    string    `json:"assigned_to,omitempty"`
	ActorID       string    `json:"actor_id"`
	ActorRole     string    `json:"actor_role"`
	RejectionNote string    `json:"rejection_note,omitempty"`
	HappenedAt    int64     `json:"happened_at"`
}

// ReportGenerated describes a rendered inspection report.
type ReportGenerated struct {
	JobID            string `json:"job_id"`
	JobCount         int64  `json:"job_count"`
	Pages            int    `json:"pages"`
	Bytes            int    `json:"bytes"`
	Okay             int    `json:"okay"`
	Minor            int    `json:"minor"`
	Major            int    `json:"major"`
	Unrecognized     int    `json:"unrecognized,omitempty"`
	BannerUsed       bool   `json:"banner_used"`
	ProcessingTimeMs int64  `json:"processing_time_ms"`
	HappenedAt       int64  `json:"happened_at"`
}

// Subject returns the bus subject for an event type under a prefix,
// e.g. "inspections.jobs.claimed".
func Subject(prefix string, t EventType) string {
	return prefix + "." + string(t)
}
