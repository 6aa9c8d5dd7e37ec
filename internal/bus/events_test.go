package bus

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/tendant/simple-inspector/pkg/schema"
)

type published struct {
	subject string
	payload []byte
}

type fakeClient struct {
	sent []published
	err  error
}

func (f *fakeClient) PublishJSON(subject string, v any) error {
	if f.err != nil {
		return f.err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	f.sent = append(f.sent, published{subject: subject, payload: b})
	return nil
}

func TestPublisherSubjects(t *testing.T) {
	client := &fakeClient{}
	p := NewPublisher(client, "")

	evt := schema.JobEvent{Type: schema.EventClaimed, JobID: "job-1", JobCount: 7, Status: "in_progress", AssignedTo: "tm-1"}
	if err := p.PublishJobEvent(context.Background(), evt); err != nil {
		t.Fatalf("PublishJobEvent returned error: %v", err)
	}
	if err := p.PublishReport(context.Background(), schema.ReportGenerated{JobID: "job-1", Pages: 2}); err != nil {
		t.Fatalf("PublishReport returned error: %v", err)
	}

	if len(client.sent) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(client.sent))
	}
	if client.sent[0].subject != "inspections.jobs.claimed" {
		t.Fatalf("unexpected job subject %s", client.sent[0].subject)
	}
	if client.sent[1].subject != "inspections.jobs.reported" {
		t.Fatalf("unexpected report subject %s", client.sent[1].subject)
	}

	got, err := DecodeJobEvent(client.sent[0].payload)
	if err != nil {
		t.Fatalf("DecodeJobEvent returned error: %v", err)
	}
	if got != evt {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, evt)
	}
}

func TestPublisherCustomPrefixAndErrors(t *testing.T) {
	expected := errors.New("nats: connection closed")
	p := NewPublisher(&fakeClient{err: expected}, "garage.jobs")

	err := p.PublishJobEvent(context.Background(), schema.JobEvent{Type: schema.EventAccepted, JobID: "j"})
	if !errors.Is(err, expected) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if !strings.Contains(err.Error(), "garage.jobs.accepted") {
		t.Fatalf("error should name the subject: %v", err)
	}
}

func TestDecodeJobEventRejectsGarbage(t *testing.T) {
	cases := map[string]string{
		"not json":   "{",
		"no job id":  `{"type":"created"}`,
		"no type":    `{"job_id":"abc"}`,
		"empty body": `{}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeJobEvent([]byte(payload)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
