// Package process tracks the per-job tasks of a batch run, such as a report
// export, and tallies their outcome.
package process

import (
	"sort"
	"sync"
	"time"
)

// TaskStatus represents the lifecycle state of one task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskSucceeded TaskStatus = "succeeded"
	TaskSkipped   TaskStatus = "skipped"
	TaskFailed    TaskStatus = "failed"
)

// Task captures what a batch run did for one job.
type Task struct {
	ID       string
	Kind     string
	JobCount int64
	Status   TaskStatus
	Output   string
	Bytes    int
	Reason   string
	Error    string
	Started  time.Time
	Finished time.Time
}

func NewTask(kind, id string, jobCount int64) *Task {
	return &Task{ID: id, Kind: kind, JobCount: jobCount, Status: TaskPending}
}

func (t *Task) MarkRunning(now time.Time) {
	t.Status = TaskRunning
	t.Started = now
}

func (t *Task) MarkSucceeded(now time.Time, output string, bytes int) {
	t.Status = TaskSucceeded
	t.Output = output
	t.Bytes = bytes
	t.Finished = now
}

func (t *Task) MarkSkipped(now time.Time, reason string) {
	t.Status = TaskSkipped
	t.Reason = reason
	t.Finished = now
}

func (t *Task) MarkFailed(now time.Time, err error) {
	t.Status = TaskFailed
	if err != nil {
		t.Error = err.Error()
	}
	t.Finished = now
}

// Duration is zero until the task has both started and finished.
func (t *Task) Duration() time.Duration {
	if t.Started.IsZero() || t.Finished.IsZero() {
		return 0
	}
	return t.Finished.Sub(t.Started)
}

// Batch collects tasks from concurrent workers.
type Batch struct {
	mu    sync.Mutex
	tasks []*Task
}

// Track registers t with the batch. The caller keeps mutating t; Result
// reads it under the batch lock, so workers must finish before Result.
func (b *Batch) Track(t *Task) *Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tasks = append(b.tasks, t)
	return t
}

// Result summarises a finished batch.
type Result struct {
	TotalFound     int
	TotalSucceeded int
	TotalSkipped   int
	TotalFailed    int
	Bytes          int
	FailedIDs      []string
}

func (b *Batch) Result() Result {
	b.mu.Lock()
	defer b.mu.Unlock()

	r := Result{TotalFound: len(b.tasks)}
	for _, t := range b.tasks {
		switch t.Status {
		case TaskSucceeded:
			r.TotalSucceeded++
			r.Bytes += t.Bytes
		case TaskSkipped:
			r.TotalSkipped++
		case TaskFailed:
			r.TotalFailed++
			r.FailedIDs = append(r.FailedIDs, t.ID)
		}
	}
	sort.Strings(r.FailedIDs)
	return r
}
