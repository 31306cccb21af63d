package notification

import (
	"context"

	"go.uber.org/zap"

	"github.com/hackgods/appointment-push-notifier/internal/push"
)

// TopicSubscriber puts newly registered devices on the broadcast topic.
type TopicSubscriber struct {
	transport push.Transport
	topic     string
	logger    *zap.Logger
}

func NewTopicSubscriber(transport push.Transport, topic string, logger *zap.Logger) *TopicSubscriber {
	return &TopicSubscriber{
		transport: transport,
		topic:     topic,
		logger:    logger.Named("topic-subscriber"),
	}
}

func (s *TopicSubscriber) HandleTokenCreated(ctx context.Context, userID, token string) {
	log := s.logger.With(zap.String("user_id", userID), zap.String("topic", s.topic))
	if token == "" {
		log.Debug("empty token registered, nothing to subscribe")
		return
	}

	if err := s.transport.SubscribeToTopic(ctx, []string{token}, s.topic); err != nil {
		log.Warn("topic subscription failed", zap.Error(err))
		return
	}
	log.Info("device subscribed to topic")
}
