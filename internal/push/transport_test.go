package push

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureKind
	}{
		{name: "nil", err: nil, want: FailureNone},
		{name: "invalid token", err: fmt.Errorf("send: %w", ErrInvalidToken), want: FailureInvalidToken},
		{name: "transient", err: fmt.Errorf("%w: 503", ErrTransient), want: FailureTransient},
		{name: "other", err: errors.New("boom"), want: FailureOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestClassifyFCMErrorDeadline(t *testing.T) {
	err := classifyFCMError(context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrTransient)

	other := errors.New("unexpected")
	assert.Equal(t, other, classifyFCMError(other))
}

func TestLogTransport(t *testing.T) {
	tr := NewLogTransport(zap.NewNop())
	ctx := context.Background()

	id, err := tr.Send(ctx, Message{Token: "tok-1", Title: "t", Body: "b"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = tr.Send(ctx, Message{Token: InvalidTokenPrefix + "tok-2"})
	assert.ErrorIs(t, err, ErrInvalidToken)

	id, err = tr.SendToTopic(ctx, "general_updates", "t", "b")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	require.NoError(t, tr.SubscribeToTopic(ctx, []string{"tok-1"}, "general_updates"))
}

func TestNewSelectsTransport(t *testing.T) {
	tr, err := New(context.Background(), "log", "", "", zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &LogTransport{}, tr)

	_, err = New(context.Background(), "sms", "", "", zap.NewNop())
	assert.Error(t, err)
}
