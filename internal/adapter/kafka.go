package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/footprintlab/timeline-engine/internal/timeline"
	"github.com/footprintlab/timeline-engine/pkg/config"
	"github.com/footprintlab/timeline-engine/pkg/kafka"
)

// KafkaAdapter treats a Kafka topic of raw activity records as one more
// batch source: Ingest drains the topic until the drain timeout or the
// message cap, whichever comes first.
type KafkaAdapter struct {
	platform timeline.Platform
	cfg      config.KafkaAdapterConfig
	brokers  config.KafkaConfig
	logger   *slog.Logger
}

// NewKafka creates a KafkaAdapter for the configured topic.
func NewKafka(cfg config.KafkaAdapterConfig, brokers config.KafkaConfig) *KafkaAdapter {
	return &KafkaAdapter{
		platform: timeline.Platform(cfg.Platform),
		cfg:      cfg,
		brokers:  brokers,
		logger:   slog.Default().With("component", "kafka-adapter", "platform", cfg.Platform, "topic", cfg.Topic),
	}
}

// Platform returns the platform this adapter ingests for.
func (a *KafkaAdapter) Platform() timeline.Platform {
	return a.platform
}

// TestConnection dials the first broker.
func (a *KafkaAdapter) TestConnection(ctx context.Context) error {
	if len(a.brokers.Brokers) == 0 {
		return fmt.Errorf("no kafka brokers configured")
	}
	conn, err := kafkago.DialContext(ctx, "tcp", a.brokers.Brokers[0])
	if err != nil {
		return fmt.Errorf("dialing broker %s: %w", a.brokers.Brokers[0], err)
	}
	return conn.Close()
}

// Ingest drains raw records from the topic, dropping malformed messages
// individually and filtering by target and date range.
func (a *KafkaAdapter) Ingest(ctx context.Context, target string, dateRange *timeline.DateRange) ([]timeline.Event, error) {
	drainTimeout := a.cfg.DrainTimeout
	if drainTimeout <= 0 {
		drainTimeout = 10 * time.Second
	}
	drainCtx, cancel := context.WithTimeout(ctx, drainTimeout)
	defer cancel()

	reader := kafka.NewReader(a.brokers, a.cfg.Topic)
	defer reader.Close()

	var events []timeline.Event
	dropped := 0
	_, err := reader.Drain(drainCtx, a.cfg.MaxEvents, func(key, value []byte) error {
		ev, err := decodeRecord(a.platform, value)
		if err != nil {
			dropped++
			a.logger.Warn("dropping malformed record", "key", string(key), "error", err)
			return nil
		}
		if matchesTarget(target, &ev) && dateRange.Contains(ev.Timestamp) {
			events = append(events, ev)
		}
		return nil
	})
	if err != nil {
		// A partially drained topic is still a usable batch only when the
		// parent context is intact; a transport error fails the adapter.
		return nil, fmt.Errorf("draining topic %s: %w", a.cfg.Topic, err)
	}
	a.logger.Info("topic drained", "events", len(events), "dropped", dropped)
	return events, nil
}
