// internal/events/kafka.go
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaPublisher writes events as JSON to a topic, keyed by user id so that one
// user's events stay ordered within a partition.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        true,
		BatchTimeout: 50 * time.Millisecond,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("failed to write events to kafka",
					zap.String("topic", topic),
					zap.Int("count", len(messages)),
					zap.Error(err),
				)
			}
		},
	}

	return &KafkaPublisher{writer: writer, logger: logger}
}

// encode keys the message by user id.
func encode(event Event) (kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(event.UserID.String()),
		Value: data,
		Time:  event.OccurredAt,
	}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) {
	msg, err := encode(event)
	if err != nil {
		p.logger.Error("failed to marshal event", zap.String("type", string(event.Type)), zap.Error(err))
		return
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Warn("failed to enqueue event", zap.String("type", string(event.Type)), zap.Error(err))
	}
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
