package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hackgods/appointment-push-notifier/internal/appointment"
	"github.com/hackgods/appointment-push-notifier/internal/push"
)

var guayaquil = time.FixedZone("ECT", -5*60*60)

func fixedNow() time.Time {
	// 22:00 on April 30th in Guayaquil
	return time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC)
}

func confirmedRecords(n int) []appointment.Record {
	out := make([]appointment.Record, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, appointment.Record{
			ID:              fmt.Sprintf("appt-%d", i),
			PatientID:       fmt.Sprintf("p-%d", i),
			Date:            "2024-05-01",
			AppointmentTime: "09:30",
			Status:          appointment.StatusConfirmed,
		})
	}
	return out
}

func tokensFor(records []appointment.Record) map[string]string {
	tokens := make(map[string]string, len(records))
	for _, rec := range records {
		tokens[rec.PatientID] = "tok-" + rec.PatientID
	}
	return tokens
}

func newTestJob(repo appointment.Repository, store TokenStore, transport push.Transport, claimer Claimer) *ReminderJob {
	return NewReminderJob(repo, newTestNotifier(store, transport), claimer, ReminderConfig{
		Location: guayaquil,
		Now:      fixedNow,
	}, zap.NewNop())
}

func TestReminderTomorrowUsesTimeZone(t *testing.T) {
	job := newTestJob(&fakeRepo{}, newFakeTokenStore(nil), &fakeTransport{}, nil)
	assert.Equal(t, "2024-05-01", job.Tomorrow())

	utc := NewReminderJob(&fakeRepo{}, nil, nil, ReminderConfig{Now: fixedNow}, zap.NewNop())
	assert.Equal(t, "2024-05-02", utc.Tomorrow())
}

func TestReminderRunDispatchesConcurrently(t *testing.T) {
	const n = 5
	records := confirmedRecords(n)
	repo := &fakeRepo{records: records}

	var entered atomic.Int32
	release := make(chan struct{})
	transport := &fakeTransport{sendFn: func(int, push.Message) (string, error) {
		if entered.Add(1) == n {
			close(release)
		}
		select {
		case <-release:
			return "msg-id", nil
		case <-time.After(2 * time.Second):
			return "", errors.New("sends were not concurrent")
		}
	}}
	store := newFakeTokenStore(tokensFor(records))

	count, err := newTestJob(repo, store, transport, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, n, count)
	assert.Equal(t, []string{"2024-05-01|" + appointment.StatusConfirmed}, repo.queries)

	msgs := transport.messages()
	require.Len(t, msgs, n)
	for _, msg := range msgs {
		assert.Equal(t, "appointment_reminder", msg.Data[KeyType])
	}
	for i := 0; i < n; i++ {
		assert.Equal(t, 0, store.deleteCount(fmt.Sprintf("p-%d", i)))
	}
}

func TestReminderRunToleratesFailures(t *testing.T) {
	records := confirmedRecords(4)
	tokens := tokensFor(records)
	tokens["p-1"] = "bad"
	delete(tokens, "p-2")

	transport := &fakeTransport{sendFn: func(_ int, msg push.Message) (string, error) {
		switch {
		case msg.Token == "bad":
			return "", fmt.Errorf("%w: unregistered", push.ErrInvalidToken)
		case strings.HasSuffix(msg.Token, "p-3"):
			return "", fmt.Errorf("%w: unavailable", push.ErrTransient)
		}
		return "msg-id", nil
	}}
	store := newFakeTokenStore(tokens)

	count, err := newTestJob(&fakeRepo{records: records}, store, transport, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, count, "attempted, not delivered")
	assert.Len(t, transport.messages(), 3)
	assert.Equal(t, 1, store.deleteCount("p-1"))
	assert.Equal(t, 0, store.deleteCount("p-3"))
}

func TestReminderRunSkipsWhenAlreadyClaimed(t *testing.T) {
	repo := &fakeRepo{records: confirmedRecords(2)}
	claimer := &fakeClaimer{granted: false}
	transport := &fakeTransport{}

	count, err := newTestJob(repo, newFakeTokenStore(nil), transport, claimer).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, count)
	assert.Equal(t, []string{"reminders:2024-05-01"}, claimer.claimed)
	assert.Empty(t, repo.queries)
	assert.Empty(t, transport.messages())
}

func TestReminderRunProceedsWhenClaimStoreDown(t *testing.T) {
	records := confirmedRecords(2)
	claimer := &fakeClaimer{err: errors.New("redis: connection refused")}
	transport := &fakeTransport{}

	count, err := newTestJob(&fakeRepo{records: records}, newFakeTokenStore(tokensFor(records)), transport, claimer).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, count)
	assert.Len(t, transport.messages(), 2)
}

func TestReminderRunReleasesClaimOnQueryError(t *testing.T) {
	repo := &fakeRepo{err: errors.New("relation does not exist")}
	claimer := &fakeClaimer{granted: true}

	count, err := newTestJob(repo, newFakeTokenStore(nil), &fakeTransport{}, claimer).Run(context.Background())
	require.Error(t, err)

	assert.Equal(t, 0, count)
	assert.Equal(t, []string{"reminders:2024-05-01|claim-token"}, claimer.released)
}

func TestReminderRunEmptyDay(t *testing.T) {
	count, err := newTestJob(&fakeRepo{}, newFakeTokenStore(nil), &fakeTransport{}, &fakeClaimer{granted: true}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
