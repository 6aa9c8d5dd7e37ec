package job

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/simple-inspector/pkg/schema"
)

// Publisher receives an event after every successful mutation.
type Publisher interface {
	PublishJobEvent(ctx context.Context, evt schema.JobEvent) error
}

// Recorder counts operation outcomes, e.g. for Prometheus.
type Recorder interface {
	Transition(op, result string)
}

type nopRecorder struct{}

func (nopRecorder) Transition(string, string) {}

// Manager enforces the job state machine:
//
//	pending --claim(team)--> in_progress --complete(owner)--> completed --accept(admin)--> accepted
//	                                                                    \--reject(admin)--> rejected
//
// Delete is orthogonal to status and allowed from every state.
type Manager struct {
	store     Store
	logger    *slog.Logger
	publisher Publisher
	recorder  Recorder
	now       func() time.Time
	newID     func() string
	template  []InspectionTab
}

// Option configures a Manager.
type Option func(*Manager)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

func WithPublisher(p Publisher) Option {
	return func(m *Manager) { m.publisher = p }
}

func WithRecorder(r Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithTemplate replaces CanonicalTabs as the checklist new jobs start from.
func WithTemplate(tabs []InspectionTab) Option {
	return func(m *Manager) { m.template = CloneTabs(tabs) }
}

// NewManager builds a Manager over store.
func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		logger:   slog.Default(),
		recorder: nopRecorder{},
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
		template: CanonicalTabs,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create posts a new pending job. Only admins may create jobs. A draft
// without tabs starts from the canonical checklist.
func (m *Manager) Create(ctx context.Context, d Draft, actor Actor) (*Job, error) {
	const op = "create"
	if actor.Role != RoleAdmin {
		return nil, m.refuse(op, "", actor, &PermissionError{Op: op, Role: actor.Role})
	}
	if err := ValidateDraft(d); err != nil {
		return nil, m.refuse(op, "", actor, err)
	}

	tabs := d.InspectionTabs
	if len(tabs) == 0 {
		tabs = Reconcile(m.template, nil)
	}

	seq, err := m.store.Increment(ctx, JobCountCounter)
	if err != nil {
		return nil, m.storeFailure(op, "", actor, err)
	}

	now := m.now()
	j := &Job{
		ID:             m.newID(),
		JobCount:       seq,
		CarNumber:      strings.TrimSpace(d.CarNumber),
		CustomerName:   strings.TrimSpace(d.CustomerName),
		EngineNumber:   strings.TrimSpace(d.EngineNumber),
		Classification: d.Classification,
		Status:         StatusPending,
		InspectionTabs: CloneTabs(tabs),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := m.store.Insert(ctx, j); err != nil {
		return nil, m.storeFailure(op, j.ID, actor, err)
	}

	m.succeed(ctx, op, schema.EventCreated, actor, j)
	return j, nil
}

// Claim hands a pending, unassigned job to a team member. Two concurrent
// claims on the same job resolve to one success and one ConflictError.
func (m *Manager) Claim(ctx context.Context, id string, actor Actor) (*Job, error) {
	const op = "claim"
	if actor.Role != RoleTeam {
		return nil, m.refuse(op, id, actor, &PermissionError{Op: op, Role: actor.Role})
	}
	if actor.ID == "" {
		return nil, m.refuse(op, id, actor, &ValidationError{Fields: []FieldError{{Field: "actor.id", Message: "actor id is required"}}})
	}

	j, err := m.store.ConditionalUpdate(ctx, id,
		Expect{Status: ptr(StatusPending), AssignedTo: ptr("")},
		Update{Status: ptr(StatusInProgress), AssignedTo: ptr(actor.ID)},
	)
	if err != nil {
		return nil, m.storeFailure(op, id, actor, err)
	}
	if j == nil {
		return nil, m.explainMiss(ctx, op, id, actor)
	}

	m.succeed(ctx, op, schema.EventClaimed, actor, j)
	return j, nil
}

// Complete marks an in-progress job done. Only the team member it is
// assigned to may complete it.
func (m *Manager) Complete(ctx context.Context, id string, actor Actor) (*Job, error) {
	const op = "complete"
	if actor.Role != RoleTeam {
		return nil, m.refuse(op, id, actor, &PermissionError{Op: op, Role: actor.Role})
	}
	if actor.ID == "" {
		return nil, m.refuse(op, id, actor, &ValidationError{Fields: []FieldError{{Field: "actor.id", Message: "actor id is required"}}})
	}

	j, err := m.store.ConditionalUpdate(ctx, id,
		Expect{Status: ptr(StatusInProgress), AssignedTo: ptr(actor.ID)},
		Update{Status: ptr(StatusCompleted)},
	)
	if err != nil {
		return nil, m.storeFailure(op, id, actor, err)
	}
	if j == nil {
		return nil, m.explainMiss(ctx, op, id, actor)
	}

	m.succeed(ctx, op, schema.EventCompleted, actor, j)
	return j, nil
}

// Decide accepts or rejects a completed job. Rejection is terminal and
// requires a non-blank note; acceptance clears any previous note.
func (m *Manager) Decide(ctx context.Context, id string, actor Actor, decision Decision, note string) (*Job, error) {
	const op = "decide"
	if actor.Role != RoleAdmin {
		return nil, m.refuse(op, id, actor, &PermissionError{Op: op, Role: actor.Role})
	}

	var (
		u     Update
		event schema.EventType
	)
	switch decision {
	case DecisionAccept:
		u = Update{Status: ptr(StatusAccepted), RejectionNote: ptr("")}
		event = schema.EventAccepted
	case DecisionReject:
		if strings.TrimSpace(note) == "" {
			return nil, m.refuse(op, id, actor, &ValidationError{Fields: []FieldError{{Field: "rejectionNote", Message: "a rejection note is required"}}})
		}
		u = Update{Status: ptr(StatusRejected), RejectionNote: ptr(note)}
		event = schema.EventRejected
	default:
		return nil, m.refuse(op, id, actor, &ValidationError{Fields: []FieldError{{Field: "decision", Message: "decision must be accept or reject"}}})
	}

	j, err := m.store.ConditionalUpdate(ctx, id, Expect{Status: ptr(StatusCompleted)}, u)
	if err != nil {
		return nil, m.storeFailure(op, id, actor, err)
	}
	if j == nil {
		return nil, m.explainMiss(ctx, op, id, actor)
	}

	m.succeed(ctx, op, event, actor, j)
	return j, nil
}

// Edit updates descriptive fields and checklist content. Status and
// assignment only move through Claim, Complete and Decide.
func (m *Manager) Edit(ctx context.Context, id string, actor Actor, p Patch) (*Job, error) {
	const op = "edit"
	if actor.Role != RoleAdmin {
		return nil, m.refuse(op, id, actor, &PermissionError{Op: op, Role: actor.Role})
	}
	if err := ValidatePatch(p); err != nil {
		return nil, m.refuse(op, id, actor, err)
	}

	u := Update{
		CarNumber:      trimmed(p.CarNumber),
		CustomerName:   trimmed(p.CustomerName),
		EngineNumber:   trimmed(p.EngineNumber),
		Classification: p.Classification,
		InspectionTabs: p.InspectionTabs,
	}
	j, err := m.store.ConditionalUpdate(ctx, id, Expect{}, u)
	if err != nil {
		return nil, m.storeFailure(op, id, actor, err)
	}
	if j == nil {
		return nil, m.refuse(op, id, actor, &NotFoundError{ID: id})
	}

	m.succeed(ctx, op, schema.EventEdited, actor, j)
	return j, nil
}

// Delete physically removes a job in any status.
func (m *Manager) Delete(ctx context.Context, id string, actor Actor) error {
	const op = "delete"
	if actor.Role != RoleAdmin {
		return m.refuse(op, id, actor, &PermissionError{Op: op, Role: actor.Role})
	}

	j, err := m.store.Delete(ctx, id)
	if err != nil {
		return m.storeFailure(op, id, actor, err)
	}
	if j == nil {
		return m.refuse(op, id, actor, &NotFoundError{ID: id})
	}

	m.succeed(ctx, op, schema.EventDeleted, actor, j)
	return nil
}

// Get returns one job. Team members only see jobs that are pending or
// assigned to them; anything else reads as not found.
func (m *Manager) Get(ctx context.Context, id string, actor Actor) (*Job, error) {
	const op = "get"
	if err := checkReader(op, actor); err != nil {
		return nil, m.refuse(op, id, actor, err)
	}

	j, err := m.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, &NotFoundError{ID: id}
	}
	if err != nil {
		return nil, m.storeFailure(op, id, actor, err)
	}
	if actor.Role != RoleAdmin && j.Status != StatusPending && j.AssignedTo != actor.ID {
		return nil, &NotFoundError{ID: id}
	}
	return j, nil
}

// Checklist returns the job's tabs merged onto the canonical template, the
// shape an inspector fills in when starting work.
func (m *Manager) Checklist(ctx context.Context, id string, actor Actor) ([]InspectionTab, error) {
	j, err := m.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	return Reconcile(m.template, j.InspectionTabs), nil
}

const (
	DefaultPage   = 1
	DefaultLimit  = 10
	MaxLimit      = 100
	DefaultWindow = 24 * time.Hour
)

// Filter narrows List results.
type Filter struct {
	From   time.Time
	To     time.Time
	Status Status
	Page   int
	Limit  int
}

// Page is one page of List results.
type Page struct {
	Jobs       []*Job `json:"jobs"`
	Total      int64  `json:"total"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	TotalPages int    `json:"totalPages"`
}

// List returns jobs created within the filter window, newest first. Admins
// see everything; team members see pending jobs plus their own in-progress
// jobs. The window defaults to the last 24 hours.
func (m *Manager) List(ctx context.Context, actor Actor, f Filter) (*Page, error) {
	const op = "list"
	if err := checkReader(op, actor); err != nil {
		return nil, m.refuse(op, "", actor, err)
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, m.refuse(op, "", actor, &ValidationError{Fields: []FieldError{{Field: "status", Message: "unknown status " + string(f.Status)}}})
	}

	now := m.now()
	if f.To.IsZero() {
		f.To = now
	}
	if f.From.IsZero() {
		f.From = now.Add(-DefaultWindow)
	}
	if f.From.After(f.To) {
		return nil, m.refuse(op, "", actor, &ValidationError{Fields: []FieldError{{Field: "startDate", Message: "start must not be after end"}}})
	}
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}

	q := Query{
		CreatedFrom: f.From,
		CreatedTo:   f.To,
		Status:      f.Status,
		Skip:        (f.Page - 1) * f.Limit,
		Limit:       f.Limit,
	}
	if actor.Role != RoleAdmin {
		q.VisibleTo = actor.ID
	}

	jobs, total, err := m.store.Find(ctx, q)
	if err != nil {
		return nil, m.storeFailure(op, "", actor, err)
	}
	if jobs == nil {
		jobs = []*Job{}
	}

	m.recorder.Transition(op, "ok")
	return &Page{
		Jobs:       jobs,
		Total:      total,
		Page:       f.Page,
		Limit:      f.Limit,
		TotalPages: int((total + int64(f.Limit) - 1) / int64(f.Limit)),
	}, nil
}

// checkReader rejects unknown roles and anonymous team members, which would
// otherwise fall through the visibility filter.
func checkReader(op string, actor Actor) error {
	switch actor.Role {
	case RoleAdmin:
		return nil
	case RoleTeam:
		if actor.ID == "" {
			return &PermissionError{Op: op, Role: actor.Role}
		}
		return nil
	default:
		return &PermissionError{Op: op, Role: actor.Role}
	}
}

// explainMiss turns a failed conditional update into NotFoundError or
// ConflictError by re-reading the job.
func (m *Manager) explainMiss(ctx context.Context, op, id string, actor Actor) error {
	current, err := m.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return m.refuse(op, id, actor, &NotFoundError{ID: id})
	}
	if err != nil {
		return m.storeFailure(op, id, actor, err)
	}

	reason := "job is " + string(current.Status)
	switch op {
	case "claim":
		if current.AssignedTo != "" {
			reason = "job already claimed by another team member"
		} else {
			reason = "job is not available to be claimed (status " + string(current.Status) + ")"
		}
	case "complete":
		if current.Status == StatusInProgress {
			reason = "job is assigned to another team member"
		} else {
			reason = "job is not in progress (status " + string(current.Status) + ")"
		}
	case "decide":
		reason = "only completed jobs can be decided (status " + string(current.Status) + ")"
	}
	return m.refuse(op, id, actor, &ConflictError{ID: id, Op: op, Reason: reason})
}

func (m *Manager) refuse(op, id string, actor Actor, err error) error {
	m.logger.Warn("job operation refused",
		"op", op, "job_id", id, "actor_id", actor.ID, "role", actor.Role,
		"kind", Kind(err), "err", err)
	m.recorder.Transition(op, Kind(err))
	return err
}

func (m *Manager) storeFailure(op, id string, actor Actor, err error) error {
	m.logger.Error("job store failure",
		"op", op, "job_id", id, "actor_id", actor.ID, "role", actor.Role, "err", err)
	m.recorder.Transition(op, "store")
	return &StoreError{Op: op, Err: err}
}

func (m *Manager) succeed(ctx context.Context, op string, t schema.EventType, actor Actor, j *Job) {
	m.logger.Info("job "+string(t),
		"job_id", j.ID, "job_count", j.JobCount, "status", j.Status,
		"assigned_to", j.AssignedTo, "actor_id", actor.ID, "role", actor.Role)
	m.recorder.Transition(op, "ok")

	if m.publisher == nil {
		return
	}
	evt := schema.JobEvent{
		Type:          t,
		JobID:         j.ID,
		JobCount:      j.JobCount,
		Status:        string(j.Status),
		AssignedTo:    j.AssignedTo,
		ActorID:       actor.ID,
		ActorRole:     string(actor.Role),
		RejectionNote: j.RejectionNote,
		HappenedAt:    m.now().Unix(),
	}
	if err := m.publisher.PublishJobEvent(ctx, evt); err != nil {
		m.logger.Error("publish job event failed", "job_id", j.ID, "type", t, "err", err)
	}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	return ptr(strings.TrimSpace(*s))
}
