package mykafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

const publishTimeout = 5 * time.Second

type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer returns an async producer; delivery failures are logged by
// the writer's completion callback rather than returned to the caller.
func NewProducer(brokers []string, topic string, l *slog.Logger) *Producer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		Async:                  true,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
		WriteTimeout:           publishTimeout,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				l.Error("kafka_delivery_failed", "topic", topic, "messages", len(messages), "error", err)
			}
		},
	}
	return &Producer{writer: w, topic: topic}
}

func (p *Producer) PublishEvent(ctx context.Context, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: data}); err != nil {
		return fmt.Errorf("kafka: write to %s failed: %w", p.topic, err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
