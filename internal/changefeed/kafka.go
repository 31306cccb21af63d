package changefeed

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/hackgods/appointment-push-notifier/internal/notification"
)

const (
	headerEventID = "event_id"
	seenKeyPrefix = "changefeed:seen:"
)

type KafkaConfig struct {
	Brokers   []string
	Topic     string
	GroupID   string
	DedupeTTL time.Duration
}

// KafkaSource consumes change events from a topic. Redelivered events are
// dropped when the claimer has already seen their id.
type KafkaSource struct {
	reader    *kafka.Reader
	changes   ChangeHandler
	claimer   notification.Claimer
	dedupeTTL time.Duration
	logger    *zap.Logger
}

// NewKafkaSource builds the consumer. claimer may be nil, which disables
// dedupe.
func NewKafkaSource(cfg KafkaConfig, changes ChangeHandler, claimer notification.Claimer, logger *zap.Logger) *KafkaSource {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &KafkaSource{
		reader:    reader,
		changes:   changes,
		claimer:   claimer,
		dedupeTTL: cfg.DedupeTTL,
		logger:    logger.Named("kafka-source"),
	}
}

func (s *KafkaSource) Run(ctx context.Context) {
	defer s.reader.Close()

	for {
		msg, err := s.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				s.logger.Info("kafka source stopped")
				return
			}
			s.logger.Error("kafka read error", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		s.handleMessage(ctx, msg)
	}
}

func (s *KafkaSource) handleMessage(ctx context.Context, msg kafka.Message) {
	eventID := EventID(msg)
	log := s.logger.With(zap.String("event_id", eventID))

	change, err := DecodeChange(msg.Value)
	if err != nil {
		log.Warn("dropping change event", zap.Error(err))
		return
	}

	if s.claimer != nil {
		_, ok, err := s.claimer.Claim(ctx, seenKeyPrefix+eventID, s.dedupeTTL)
		switch {
		case err != nil:
			log.Warn("event dedupe unavailable, handling anyway", zap.Error(err))
		case !ok:
			log.Info("duplicate event ignored")
			return
		}
	}

	s.changes.Handle(ctx, change)
}

// EventID is the event_id header, falling back to the message coordinates.
func EventID(msg kafka.Message) string {
	for _, h := range msg.Headers {
		if h.Key == headerEventID && len(h.Value) > 0 {
			return string(h.Value)
		}
	}
	return fmt.Sprintf("%s-%d-%d", msg.Topic, msg.Partition, msg.Offset)
}
