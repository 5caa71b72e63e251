// Package publish emits enriched timeline events to Kafka for downstream
// consumers (search indexers, alerting). Publishing runs after a build
// completes and never blocks or fails the build itself.
package publish

import (
	"context"
	"log/slog"

	"github.com/footprintlab/timeline-engine/internal/timeline"
	"github.com/footprintlab/timeline-engine/pkg/config"
	"github.com/footprintlab/timeline-engine/pkg/kafka"
)

// EventPublisher writes enriched events to the configured topic, keyed by
// event ID so replays of the same event land on the same partition.
type EventPublisher struct {
	producer *kafka.Producer
	logger   *slog.Logger
}

// New creates an EventPublisher for the enriched-events topic.
func New(cfg config.KafkaConfig) *EventPublisher {
	return &EventPublisher{
		producer: kafka.NewProducer(cfg, cfg.Topics.EnrichedEvents),
		logger:   slog.Default().With("component", "publisher"),
	}
}

// PublishEvents writes the whole batch in one producer call.
func (p *EventPublisher) PublishEvents(ctx context.Context, events []timeline.Event) error {
	if len(events) == 0 {
		return nil
	}
	batch := make([]kafka.Event, len(events))
	for i := range events {
		batch[i] = kafka.Event{Key: events[i].ID, Value: &events[i]}
	}
	if err := p.producer.PublishBatch(ctx, batch); err != nil {
		return err
	}
	p.logger.Info("enriched events published", "count", len(events))
	return nil
}

// Close flushes and closes the underlying producer.
func (p *EventPublisher) Close() error {
	return p.producer.Close()
}
