package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/footprintlab/timeline-engine/pkg/config"
)

// Reader wraps a consumer-group kafka.Reader for bounded, batch-style reads.
// The pipeline treats a topic as one more batch source, so Drain reads until
// the idle deadline or max-message cap instead of looping forever.
type Reader struct {
	reader *kafka.Reader
	logger *slog.Logger
}

// NewReader creates a Reader for the given topic.
func NewReader(cfg config.KafkaConfig, topic string) *Reader {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       topic,
		GroupID:     cfg.ConsumerGroup,
		MinBytes:    1e3,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	})
	return &Reader{
		reader: r,
		logger: slog.Default().With("component", "kafka-reader", "topic", topic),
	}
}

// Drain fetches and commits messages until the context deadline expires, the
// parent context is cancelled, or maxMessages have been read (0 means no
// cap). Each message value is handed to handle; a handler error skips that
// message and continues.
func (r *Reader) Drain(ctx context.Context, maxMessages int, handle func(key, value []byte) error) (int, error) {
	read := 0
	for maxMessages <= 0 || read < maxMessages {
		msg, err := r.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				r.logger.Debug("drain finished", "messages", read, "reason", err)
				return read, nil
			}
			return read, fmt.Errorf("fetching message: %w", err)
		}
		if err := handle(msg.Key, msg.Value); err != nil {
			r.logger.Error("failed to process message",
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
		} else {
			read++
		}
		if err := r.reader.CommitMessages(ctx, msg); err != nil {
			r.logger.Error("failed to commit message",
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
		}
	}
	return read, nil
}

// Close closes the underlying Kafka reader.
func (r *Reader) Close() error {
	return r.reader.Close()
}

// DecodeJSON is a generic helper that unmarshals a Kafka message value into T.
func DecodeJSON[T any](value []byte) (T, error) {
	var result T
	if err := json.Unmarshal(value, &result); err != nil {
		return result, fmt.Errorf("decoding kafka message: %w", err)
	}
	return result, nil
}
