package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"bigbite-orderbot/internal/logging"
	"github.com/segmentio/kafka-go"
)

// writer is the part of kafka.Writer the publisher uses.
type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaPublisher struct {
	w      writer
	logger *slog.Logger
}

// NewKafka returns a Publisher writing to topic. Messages are keyed by
// customer so one customer's events stay ordered within a partition.
func NewKafka(brokers []string, topic string, logger *slog.Logger) Publisher {
	return newKafkaWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	}, logger)
}

func newKafkaWithWriter(w writer, logger *slog.Logger) *kafkaPublisher {
	if logger == nil {
		logger = logging.Discard()
	}
	return &kafkaPublisher{w: w, logger: logger}
}

func (p *kafkaPublisher) PublishOrderPlaced(ctx context.Context, ev OrderPlaced) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(ev.CustomerID),
		Value: b,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(ev.Type)},
			{Key: "event-id", Value: []byte(ev.EventID)},
		},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("kafka write", "event_id", ev.EventID, "err", err)
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.w.Close()
}
