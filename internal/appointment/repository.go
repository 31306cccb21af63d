package appointment

import (
	"context"
	"errors"
)

var ErrAppointmentNotFound = errors.New("appointment not found")

// Repository is the read side of the appointment store used by the notifier.
type Repository interface {
	GetAppointmentByID(ctx context.Context, id string) (*Record, error)

	// Reminder job
	FindByDateAndStatus(ctx context.Context, date, status string) ([]Record, error)
}
