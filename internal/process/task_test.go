package process

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestNewTaskStartsPending(t *testing.T) {
	task := NewTask("export", "job-1", 12)

	if task.Kind != "export" || task.ID != "job-1" || task.JobCount != 12 {
		t.Fatalf("unexpected task identity: %+v", task)
	}
	if task.Status != TaskPending || task.Duration() != 0 {
		t.Fatalf("new task should be pending with no duration: %+v", task)
	}
}

func TestMarkFailedSetsStatusAndError(t *testing.T) {
	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	task := NewTask("export", "job-2", 1)
	task.MarkRunning(start)
	task.MarkFailed(start.Add(1500*time.Millisecond), errors.New("boom"))

	if task.Status != TaskFailed || task.Error != "boom" {
		t.Fatalf("unexpected failed task: %+v", task)
	}
	if task.Duration() != 1500*time.Millisecond {
		t.Fatalf("duration = %v", task.Duration())
	}
}

func TestMarkFailedDoesNotOverwriteErrorWhenNil(t *testing.T) {
	task := NewTask("export", "job-3", 1)
	task.MarkFailed(time.Now(), nil)

	if task.Status != TaskFailed {
		t.Fatalf("task status not failed: %v", task.Status)
	}
	if task.Error != "" {
		t.Fatalf("expected empty error string, got %q", task.Error)
	}
}

func TestBatchResult(t *testing.T) {
	var b Batch
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			task := b.Track(NewTask("export", fmt.Sprintf("job-%02d", i), int64(i)))
			task.MarkRunning(now)
			switch i % 3 {
			case 0:
				task.MarkSucceeded(now, "out.pdf", 100)
			case 1:
				task.MarkSkipped(now, "dry run")
			default:
				task.MarkFailed(now, errors.New("render"))
			}
		}(i)
	}
	wg.Wait()

	r := b.Result()
	if r.TotalFound != 30 || r.TotalSucceeded != 10 || r.TotalSkipped != 10 || r.TotalFailed != 10 {
		t.Fatalf("unexpected tally %+v", r)
	}
	if r.Bytes != 1000 {
		t.Fatalf("bytes = %d", r.Bytes)
	}
	if len(r.FailedIDs) != 10 || r.FailedIDs[0] != "job-02" {
		t.Fatalf("unexpected failed ids %v", r.FailedIDs)
	}
}
