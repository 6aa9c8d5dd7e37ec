package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/tendant/simple-inspector/pkg/schema"
)

// DefaultPrefix is the subject namespace job events are published under.
const DefaultPrefix = "inspections.jobs"

// JSONPublisher is the part of Client the event publisher needs.
type JSONPublisher interface {
	PublishJSON(subject string, v any) error
}

// Publisher sends job lifecycle and report events to "<prefix>.<type>".
// It satisfies job.Publisher and report.Publisher.
type Publisher struct {
	client JSONPublisher
	prefix string
}

func NewPublisher(client JSONPublisher, prefix string) *Publisher {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Publisher{client: client, prefix: prefix}
}

func (p *Publisher) PublishJobEvent(_ context.Context, evt schema.JobEvent) error {
	subject := schema.Subject(p.prefix, evt.Type)
	if err := p.client.PublishJSON(subject, evt); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

func (p *Publisher) PublishReport(_ context.Context, evt schema.ReportGenerated) error {
	subject := schema.Subject(p.prefix, schema.EventReported)
	if err := p.client.PublishJSON(subject, evt); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// SubscribeJobEvents decodes job events arriving on subject and hands them
// to handler. Malformed payloads are logged and dropped.
func SubscribeJobEvents(c *Client, subject string, logger *slog.Logger, handler func(ctx context.Context, evt schema.JobEvent)) (*nats.Subscription, error) {
	return c.SubscribeJSON(subject, func(ctx context.Context, data []byte) {
		evt, err := DecodeJobEvent(data)
		if err != nil {
			logger.Warn("drop malformed job event", "subject", subject, "err", err)
			return
		}
		handler(ctx, evt)
	})
}

// DecodeJobEvent parses a published job event payload.
func DecodeJobEvent(data []byte) (schema.JobEvent, error) {
	var evt schema.JobEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return schema.JobEvent{}, fmt.Errorf("decode job event: %w", err)
	}
	if evt.JobID == "" || evt.Type == "" {
		return schema.JobEvent{}, fmt.Errorf("decode job event: missing job_id or type")
	}
	return evt, nil
}
