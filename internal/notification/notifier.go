package notification

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hackgods/appointment-push-notifier/internal/push"
)

// Outcome is what happened to a single intent.
type Outcome string

const (
	OutcomeDelivered     Outcome = "delivered"
	OutcomeNoTarget      Outcome = "no_target"
	OutcomeInvalidTarget Outcome = "invalid_target"
	OutcomeTransient     Outcome = "transient_failure"
	OutcomeFailed        Outcome = "failed"
)

// Notifier runs the resolve, dispatch, invalidate path for one intent.
// Every failure ends in a log line and an Outcome; nothing is retried.
type Notifier struct {
	resolver   *Resolver
	dispatcher *Dispatcher
	logger     *zap.Logger
}

func NewNotifier(resolver *Resolver, dispatcher *Dispatcher, logger *zap.Logger) *Notifier {
	return &Notifier{
		resolver:   resolver,
		dispatcher: dispatcher,
		logger:     logger.Named("notifier"),
	}
}

func (n *Notifier) Deliver(ctx context.Context, in Intent) Outcome {
	outcome := n.deliver(ctx, in)
	notificationsTotal.WithLabelValues(string(in.Kind), string(outcome)).Inc()
	return outcome
}

func (n *Notifier) deliver(ctx context.Context, in Intent) Outcome {
	log := n.logger.With(
		zap.String("kind", string(in.Kind)),
		zap.String("appointment_id", in.AppointmentID),
		zap.String("patient_id", in.RecipientID),
	)

	token, ok, err := n.resolver.Resolve(ctx, in.RecipientID)
	if err != nil {
		log.Warn("resolve device token failed", zap.Error(err))
		return OutcomeFailed
	}
	if !ok {
		log.Debug("no device token, skipping")
		return OutcomeNoTarget
	}

	start := time.Now()
	id, err := n.dispatcher.Dispatch(ctx, token, in.Title, in.Body, in.Data)
	dispatchDuration.WithLabelValues(string(in.Kind)).Observe(time.Since(start).Seconds())

	switch push.Classify(err) {
	case push.FailureNone:
		log.Info("notification sent", zap.String("message_id", id))
		return OutcomeDelivered
	case push.FailureInvalidToken:
		if delErr := n.resolver.Invalidate(ctx, in.RecipientID); delErr != nil {
			log.Warn("purge invalid device token failed", zap.Error(delErr))
		} else {
			log.Info("invalid device token purged", zap.NamedError("cause", err))
		}
		return OutcomeInvalidTarget
	case push.FailureTransient:
		log.Warn("notification not delivered", zap.Error(err))
		return OutcomeTransient
	default:
		log.Warn("notification failed", zap.Error(err))
		return OutcomeFailed
	}
}
