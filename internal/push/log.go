package push

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InvalidTokenPrefix marks tokens the LogTransport rejects as unregistered,
// so the purge path can be exercised without a real provider.
const InvalidTokenPrefix = "invalid:"

// LogTransport writes pushes to the log instead of a provider. Used in dev.
type LogTransport struct {
	logger *zap.Logger
}

func NewLogTransport(logger *zap.Logger) *LogTransport {
	return &LogTransport{logger: logger.Named("push-log")}
}

func (t *LogTransport) Send(_ context.Context, msg Message) (string, error) {
	if strings.HasPrefix(msg.Token, InvalidTokenPrefix) {
		return "", fmt.Errorf("%w: %s", ErrInvalidToken, msg.Token)
	}
	id := "log-" + uuid.NewString()
	t.logger.Info("push sent",
		zap.String("message_id", id),
		zap.String("title", msg.Title),
		zap.String("body", msg.Body),
		zap.Any("data", msg.Data),
		zap.String("android_channel", msg.Android.ChannelID),
	)
	return id, nil
}

func (t *LogTransport) SendToTopic(_ context.Context, topic, title, body string) (string, error) {
	id := "log-" + uuid.NewString()
	t.logger.Info("topic push sent",
		zap.String("message_id", id),
		zap.String("topic", topic),
		zap.String("title", title),
		zap.String("body", body),
	)
	return id, nil
}

func (t *LogTransport) SubscribeToTopic(_ context.Context, tokens []string, topic string) error {
	t.logger.Info("tokens subscribed", zap.String("topic", topic), zap.Int("count", len(tokens)))
	return nil
}
