package changefeed

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/hackgods/appointment-push-notifier/internal/appointment"
)

// KafkaPublisher writes change events in the format KafkaSource reads.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.Hash{},
		},
	}
}

// Publish keys the message by appointment id so that changes to one
// appointment stay ordered.
func (p *KafkaPublisher) Publish(ctx context.Context, change appointment.Change) error {
	value, err := EncodeChange(change)
	if err != nil {
		return fmt.Errorf("encode change: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(change.ID),
		Value: value,
		Headers: []kafka.Header{
			{Key: headerEventID, Value: []byte(uuid.NewString())},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish change: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
