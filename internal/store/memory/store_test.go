package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tendant/simple-inspector/internal/job"
)

func seed(t *testing.T, s *Store, id string, count int64, status job.Status, assignee string, created time.Time) {
	t.Helper()
	err := s.Insert(context.Background(), &job.Job{
		ID: id, JobCount: count, CarNumber: "CAR-" + id, CustomerName: "c",
		Status: status, AssignedTo: assignee, CreatedAt: created, UpdatedAt: created,
	})
	if err != nil {
		t.Fatalf("insert %s: %v", id, err)
	}
}

func TestConditionalUpdateOnlyOneWinner(t *testing.T) {
	s := New()
	seed(t, s, "a", 1, job.StatusPending, "", time.Now())

	pending := job.StatusPending
	inProgress := job.StatusInProgress
	unassigned := ""

	var wg sync.WaitGroup
	wins := make(chan string, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			who := string(rune('a' + n))
			got, err := s.ConditionalUpdate(context.Background(), "a",
				job.Expect{Status: &pending, AssignedTo: &unassigned},
				job.Update{Status: &inProgress, AssignedTo: &who})
			if err != nil {
				t.Errorf("update: %v", err)
				return
			}
			if got != nil {
				wins <- who
			}
		}(i)
	}
	wg.Wait()
	close(wins)

	var winners []string
	for w := range wins {
		winners = append(winners, w)
	}
	if len(winners) != 1 {
		t.Fatalf("expected exactly one winner, got %v", winners)
	}

	stored, _ := s.Get(context.Background(), "a")
	if stored.AssignedTo != winners[0] || stored.Status != job.StatusInProgress {
		t.Fatalf("stored job %+v does not match winner %s", stored, winners[0])
	}
}

func TestConditionalUpdateMissingReturnsNil(t *testing.T) {
	s := New()
	got, err := s.ConditionalUpdate(context.Background(), "nope", job.Expect{}, job.Update{})
	if err != nil || got != nil {
		t.Fatalf("expected nil, nil; got %v, %v", got, err)
	}
}

func TestFindVisibilityAndPaging(t *testing.T) {
	s := New()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	seed(t, s, "p1", 1, job.StatusPending, "", base.Add(1*time.Minute))
	seed(t, s, "p2", 2, job.StatusPending, "", base.Add(2*time.Minute))
	seed(t, s, "mine", 3, job.StatusInProgress, "u1", base.Add(3*time.Minute))
	seed(t, s, "theirs", 4, job.StatusInProgress, "u2", base.Add(4*time.Minute))
	seed(t, s, "done", 5, job.StatusCompleted, "u1", base.Add(5*time.Minute))

	ctx := context.Background()
	jobs, total, err := s.Find(ctx, job.Query{VisibleTo: "u1"})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if total != 3 {
		t.Fatalf("total = %d, want 3", total)
	}
	want := []string{"mine", "p2", "p1"}
	for i, j := range jobs {
		if j.ID != want[i] {
			t.Fatalf("jobs[%d] = %s, want %s", i, j.ID, want[i])
		}
	}

	jobs, total, _ = s.Find(ctx, job.Query{Skip: 2, Limit: 2})
	if total != 5 || len(jobs) != 2 || jobs[0].ID != "mine" || jobs[1].ID != "p2" {
		t.Fatalf("unexpected page: total=%d jobs=%v", total, ids(jobs))
	}

	jobs, _, _ = s.Find(ctx, job.Query{Skip: 10, Limit: 2})
	if len(jobs) != 0 {
		t.Fatalf("expected empty page past the end, got %v", ids(jobs))
	}

	jobs, total, _ = s.Find(ctx, job.Query{CreatedFrom: base.Add(4 * time.Minute)})
	if total != 2 || jobs[0].ID != "done" {
		t.Fatalf("window filter: total=%d jobs=%v", total, ids(jobs))
	}
}

func TestIncrementIsMonotonic(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	seen := make(chan int64, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := s.Increment(context.Background(), job.JobCountCounter)
			if err != nil {
				t.Errorf("increment: %v", err)
			}
			seen <- n
		}()
	}
	wg.Wait()
	close(seen)

	unique := map[int64]bool{}
	for n := range seen {
		if unique[n] {
			t.Fatalf("duplicate counter value %d", n)
		}
		unique[n] = true
	}
	for i := int64(1); i <= 50; i++ {
		if !unique[i] {
			t.Fatalf("missing counter value %d", i)
		}
	}
}

func TestReturnedJobsAreCopies(t *testing.T) {
	s := New()
	seed(t, s, "a", 1, job.StatusPending, "", time.Now())
	got, _ := s.Get(context.Background(), "a")
	got.CarNumber = "mutated"
	again, _ := s.Get(context.Background(), "a")
	if again.CarNumber == "mutated" {
		t.Fatal("store leaked an internal pointer")
	}
}

func TestDelete(t *testing.T) {
	s := New()
	seed(t, s, "a", 1, job.StatusAccepted, "u1", time.Now())
	removed, err := s.Delete(context.Background(), "a")
	if err != nil || removed == nil || removed.ID != "a" {
		t.Fatalf("delete: %v %v", removed, err)
	}
	removed, err = s.Delete(context.Background(), "a")
	if err != nil || removed != nil {
		t.Fatalf("second delete should be nil, nil; got %v %v", removed, err)
	}
	if _, err := s.Get(context.Background(), "a"); err != job.ErrNotFound {
		t.Fatalf("get after delete: %v", err)
	}
}

func ids(jobs []*job.Job) []string {
	out := make([]string, len(jobs))
	for i, j := range jobs {
		out[i] = j.ID
	}
	return out
}
