// Package push delivers composed notifications to devices and topics.
package push

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var (
	// ErrInvalidToken means the device token is not (or no longer) registered
	// and should be forgotten.
	ErrInvalidToken = errors.New("push: invalid registration token")
	// ErrTransient covers network and provider side failures.
	ErrTransient = errors.New("push: transient delivery failure")
)

type AndroidHints struct {
	ChannelID    string
	Priority     string
	DefaultSound bool
}

type APNSHints struct {
	Sound string
	Badge int
}

// Message is a single-device push.
type Message struct {
	Token   string
	Title   string
	Body    string
	Data    map[string]string
	Android AndroidHints
	APNS    APNSHints
}

// Transport is the push provider boundary. Send returns the provider's
// message id; errors wrap ErrInvalidToken or ErrTransient when the provider
// reports those conditions.
type Transport interface {
	Send(ctx context.Context, msg Message) (string, error)
	SendToTopic(ctx context.Context, topic, title, body string) (string, error)
	SubscribeToTopic(ctx context.Context, tokens []string, topic string) error
}

// FailureKind buckets a delivery error for logging and metrics.
type FailureKind string

const (
	FailureNone         FailureKind = ""
	FailureInvalidToken FailureKind = "invalid_token"
	FailureTransient    FailureKind = "transient"
	FailureOther        FailureKind = "other"
)

func Classify(err error) FailureKind {
	switch {
	case err == nil:
		return FailureNone
	case errors.Is(err, ErrInvalidToken):
		return FailureInvalidToken
	case errors.Is(err, ErrTransient):
		return FailureTransient
	default:
		return FailureOther
	}
}

// New selects the transport by name: "fcm" or "log".
func New(ctx context.Context, kind, credentialsFile, projectID string, logger *zap.Logger) (Transport, error) {
	switch kind {
	case "fcm":
		return NewFCMTransport(ctx, credentialsFile, projectID, logger)
	case "log":
		return NewLogTransport(logger), nil
	default:
		return nil, fmt.Errorf("unknown push transport %q", kind)
	}
}
