package push

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// FCMTransport sends through Firebase Cloud Messaging.
type FCMTransport struct {
	client *messaging.Client
	logger *zap.Logger
}

// NewFCMTransport initialises a Firebase app. An empty credentialsFile falls
// back to application default credentials.
func NewFCMTransport(ctx context.Context, credentialsFile, projectID string, logger *zap.Logger) (*FCMTransport, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase messaging: %w", err)
	}

	return &FCMTransport{client: client, logger: logger.Named("fcm")}, nil
}

func (t *FCMTransport) Send(ctx context.Context, msg Message) (string, error) {
	badge := msg.APNS.Badge

	id, err := t.client.Send(ctx, &messaging.Message{
		Token: msg.Token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
		Android: &messaging.AndroidConfig{
			Priority: msg.Android.Priority,
			Notification: &messaging.AndroidNotification{
				ChannelID:    msg.Android.ChannelID,
				DefaultSound: msg.Android.DefaultSound,
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: msg.APNS.Sound,
					Badge: &badge,
				},
			},
		},
	})
	if err != nil {
		return "", classifyFCMError(err)
	}
	return id, nil
}

func (t *FCMTransport) SendToTopic(ctx context.Context, topic, title, body string) (string, error) {
	id, err := t.client.Send(ctx, &messaging.Message{
		Topic: topic,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
	})
	if err != nil {
		return "", classifyFCMError(err)
	}
	return id, nil
}

func (t *FCMTransport) SubscribeToTopic(ctx context.Context, tokens []string, topic string) error {
	resp, err := t.client.SubscribeToTopic(ctx, tokens, topic)
	if err != nil {
		return classifyFCMError(err)
	}
	if resp.FailureCount > 0 {
		reason := "unknown"
		if len(resp.Errors) > 0 && resp.Errors[0] != nil {
			reason = resp.Errors[0].Reason
		}
		return fmt.Errorf("subscribe %d of %d tokens to %s failed: %s", resp.FailureCount, len(tokens), topic, reason)
	}
	return nil
}

func classifyFCMError(err error) error {
	switch {
	case messaging.IsUnregistered(err), messaging.IsInvalidArgument(err), messaging.IsSenderIDMismatch(err):
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	case messaging.IsUnavailable(err), messaging.IsInternal(err), messaging.IsQuotaExceeded(err),
		errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTransient, err)
	default:
		return err
	}
}
