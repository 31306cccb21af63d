package notification

import (
	"context"

	"go.uber.org/zap"

	"github.com/hackgods/appointment-push-notifier/internal/appointment"
)

// ChangeHandler reacts to one appointment write.
type ChangeHandler struct {
	notifier *Notifier
	logger   *zap.Logger
}

func NewChangeHandler(notifier *Notifier, logger *zap.Logger) *ChangeHandler {
	return &ChangeHandler{
		notifier: notifier,
		logger:   logger.Named("change-handler"),
	}
}

// Handle classifies the change and attempts every resulting notification,
// regardless of how the others went.
func (h *ChangeHandler) Handle(ctx context.Context, change appointment.Change) []Outcome {
	intents := Classify(change.ID, change.Before, change.After)
	if len(intents) == 0 {
		h.logger.Debug("change produced no notifications", zap.String("appointment_id", change.ID))
		return nil
	}

	outcomes := make([]Outcome, 0, len(intents))
	for _, in := range intents {
		outcomes = append(outcomes, h.notifier.Deliver(ctx, in))
	}
	return outcomes
}
