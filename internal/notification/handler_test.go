package notification

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hackgods/appointment-push-notifier/internal/appointment"
	"github.com/hackgods/appointment-push-notifier/internal/push"
)

func TestHandleAttemptsEveryIntent(t *testing.T) {
	store := newFakeTokenStore(map[string]string{"patient-1": "tok-1"})
	transport := &fakeTransport{sendFn: func(n int, _ push.Message) (string, error) {
		if n == 1 {
			return "", errors.New("provider rejected payload")
		}
		return "msg-id", nil
	}}
	h := NewChangeHandler(newTestNotifier(store, transport), zap.NewNop())

	before := baseRecord()
	after := baseRecord()
	after.Status = appointment.StatusConfirmed
	after.Date = "2024-05-02"

	outcomes := h.Handle(context.Background(), appointment.Change{ID: "appt-1", Before: before, After: after})

	assert.Equal(t, []Outcome{OutcomeFailed, OutcomeDelivered}, outcomes)
	msgs := transport.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "status_changed", msgs[0].Data[KeyType])
	assert.Equal(t, "appointment_updated", msgs[1].Data[KeyType])
}

func TestHandleInvalidTokenPurgedOnceAcrossIntents(t *testing.T) {
	store := newFakeTokenStore(map[string]string{"patient-1": "tok-1"})
	transport := &fakeTransport{sendFn: func(int, push.Message) (string, error) {
		return "", fmt.Errorf("%w: not registered", push.ErrInvalidToken)
	}}
	h := NewChangeHandler(newTestNotifier(store, transport), zap.NewNop())

	before := baseRecord()
	after := baseRecord()
	after.Status = appointment.StatusConfirmed
	after.Doctor = "García"

	outcomes := h.Handle(context.Background(), appointment.Change{ID: "appt-1", Before: before, After: after})

	assert.Equal(t, []Outcome{OutcomeInvalidTarget, OutcomeNoTarget}, outcomes)
	assert.Equal(t, 1, store.deleteCount("patient-1"))
	assert.Len(t, transport.messages(), 1)
}

func TestHandleCreateAndDelete(t *testing.T) {
	store := newFakeTokenStore(map[string]string{"patient-1": "tok-1"})
	transport := &fakeTransport{}
	h := NewChangeHandler(newTestNotifier(store, transport), zap.NewNop())
	ctx := context.Background()

	assert.Equal(t, []Outcome{OutcomeDelivered}, h.Handle(ctx, appointment.Change{ID: "appt-1", After: baseRecord()}))
	assert.Equal(t, []Outcome{OutcomeDelivered}, h.Handle(ctx, appointment.Change{ID: "appt-1", Before: baseRecord()}))

	msgs := transport.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "new_appointment", msgs[0].Data[KeyType])
	assert.Equal(t, "appointment_cancelled", msgs[1].Data[KeyType])
}

func TestHandleNoOpChange(t *testing.T) {
	transport := &fakeTransport{}
	h := NewChangeHandler(newTestNotifier(newFakeTokenStore(nil), transport), zap.NewNop())

	before := baseRecord()
	after := baseRecord()
	after.SpecialtyTherapy = "Occupational therapy"

	assert.Empty(t, h.Handle(context.Background(), appointment.Change{ID: "appt-1", Before: before, After: after}))
	assert.Empty(t, transport.messages())
}
