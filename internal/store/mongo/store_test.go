package mongo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/tendant/simple-inspector/internal/job"
)

func TestQueryFilterVisibility(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	f := queryFilter(job.Query{CreatedFrom: from, VisibleTo: "alice"})

	created, ok := f["created_at"].(bson.M)
	if !ok || created["$gte"] != from {
		t.Fatalf("created_at filter = %#v", f["created_at"])
	}
	if _, ok := created["$lte"]; ok {
		t.Fatal("unexpected upper bound")
	}
	or, ok := f["$or"].(bson.A)
	if !ok || len(or) != 2 {
		t.Fatalf("$or filter = %#v", f["$or"])
	}
	mine := or[1].(bson.M)
	if mine["assigned_to"] != "alice" || mine["status"] != string(job.StatusInProgress) {
		t.Fatalf("assignee clause = %#v", mine)
	}
}

func TestQueryFilterEmpty(t *testing.T) {
	if f := queryFilter(job.Query{}); len(f) != 0 {
		t.Fatalf("expected empty filter, got %#v", f)
	}
}

func TestDocRoundTrip(t *testing.T) {
	j := &job.Job{ID: "a", JobCount: 7, Status: job.StatusCompleted, AssignedTo: "bob", RejectionNote: "n"}
	got := fromDoc(toDoc(j))
	if got.ID != "a" || got.JobCount != 7 || got.Status != job.StatusCompleted || got.AssignedTo != "bob" {
		t.Fatalf("round trip lost fields: %+v", got)
	}
	if got.InspectionTabs == nil {
		t.Fatal("nil tabs should be stored as an empty list")
	}
}

// Set INSPECTOR_TEST_MONGO_URI to run against a disposable server.
func TestClaimAgainstServer(t *testing.T) {
	uri := os.Getenv("INSPECTOR_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("INSPECTOR_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	s, err := Connect(ctx, uri, "inspector_test_"+uuid.NewString()[:8])
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() {
		_ = s.db.Drop(ctx)
		_ = s.Close(ctx)
	})
	if err := s.EnsureIndexes(ctx); err != nil {
		t.Fatalf("indexes: %v", err)
	}

	n, err := s.Increment(ctx, job.JobCountCounter)
	if err != nil || n != 1 {
		t.Fatalf("increment: %d %v", n, err)
	}

	now := time.Now().UTC()
	if err := s.Insert(ctx, &job.Job{ID: "a", JobCount: n, CarNumber: "M", CustomerName: "C", Status: job.StatusPending, CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	pending := job.StatusPending
	inProgress := job.StatusInProgress
	empty := ""
	alice := "alice"
	got, err := s.ConditionalUpdate(ctx, "a", job.Expect{Status: &pending, AssignedTo: &empty}, job.Update{Status: &inProgress, AssignedTo: &alice})
	if err != nil || got == nil || got.AssignedTo != "alice" {
		t.Fatalf("claim: %+v %v", got, err)
	}
	got, err = s.ConditionalUpdate(ctx, "a", job.Expect{Status: &pending, AssignedTo: &empty}, job.Update{Status: &inProgress, AssignedTo: &alice})
	if err != nil || got != nil {
		t.Fatalf("second claim should miss: %+v %v", got, err)
	}

	removed, err := s.Delete(ctx, "a")
	if err != nil || removed == nil {
		t.Fatalf("delete: %+v %v", removed, err)
	}
}
