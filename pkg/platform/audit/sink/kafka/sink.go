// Package kafka delivers audit events to a Kafka topic, keyed by user so
// per-user event order is preserved.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	audit "gomunity/pkg/platform/audit"
)

// Producer is the slice of the platform Kafka producer the sink needs.
type Producer interface {
	Produce(ctx context.Context, topic string, key, value []byte) error
}

type Sink struct {
	producer Producer
	topic    string
}

func NewSink(producer Producer, topic string) *Sink {
	return &Sink{producer: producer, topic: topic}
}

func (s *Sink) Append(ctx context.Context, event audit.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	var key []byte
	if event.UserID != uuid.Nil {
		key = []byte(event.UserID.String())
	}
	return s.producer.Produce(ctx, s.topic, key, value)
}

var _ audit.Sink = (*Sink)(nil)
