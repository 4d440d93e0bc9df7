package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes ledger events to a topic, keyed by item ID so one
// item's events stay ordered within a partition.
type KafkaPublisher struct {
	writer MessageWriter
	logger *zap.Logger
}

// NewKafkaWriter builds an async writer; delivery errors are logged by the completion hook.
func NewKafkaWriter(broker, topic string, batchTimeout time.Duration, logger *zap.Logger) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(broker),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: batchTimeout,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to deliver ledger events", zap.Int("count", len(messages)), zap.Error(err))
			}
		},
	}
}

func NewKafkaPublisher(writer MessageWriter, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, logger: logger}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to serialize ledger event", zap.String("action", string(event.Action)), zap.Error(err))
		return
	}

	msg := kafka.Message{
		Value: payload,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "action", Value: []byte(event.Action)},
		},
	}
	if event.Item != nil {
		msg.Key = []byte(event.Item.ID.String())
	}

	// The request context may already be done once the response is written.
	if err := p.writer.WriteMessages(context.WithoutCancel(ctx), msg); err != nil {
		p.logger.Error("Failed to publish ledger event", zap.String("action", string(event.Action)), zap.Error(err))
	}
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
