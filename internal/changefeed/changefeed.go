// Package changefeed turns store-side change notifications into calls on the
// notification handlers. Two sources exist: Postgres LISTEN/NOTIFY and a
// Kafka topic carrying the same JSON document.
package changefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hackgods/appointment-push-notifier/internal/appointment"
	"github.com/hackgods/appointment-push-notifier/internal/notification"
)

var ErrMalformedEvent = errors.New("malformed change event")

type ChangeHandler interface {
	Handle(ctx context.Context, change appointment.Change) []notification.Outcome
}

type TokenHandler interface {
	HandleTokenCreated(ctx context.Context, userID, token string)
}

// TokenCreated is the payload of the user_token_created channel.
type TokenCreated struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

// DecodeChange parses {"id","before","after"}. An event with neither state
// is still valid and classifies to nothing.
func DecodeChange(payload []byte) (appointment.Change, error) {
	var change appointment.Change
	if err := json.Unmarshal(payload, &change); err != nil {
		return appointment.Change{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if change.ID == "" {
		switch {
		case change.After != nil:
			change.ID = change.After.ID
		case change.Before != nil:
			change.ID = change.Before.ID
		}
	}
	if change.ID == "" && (change.Before != nil || change.After != nil) {
		return appointment.Change{}, fmt.Errorf("%w: missing appointment id", ErrMalformedEvent)
	}
	return change, nil
}

func DecodeTokenCreated(payload []byte) (TokenCreated, error) {
	var ev TokenCreated
	if err := json.Unmarshal(payload, &ev); err != nil {
		return TokenCreated{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if ev.UserID == "" {
		return TokenCreated{}, fmt.Errorf("%w: missing user id", ErrMalformedEvent)
	}
	return ev, nil
}

// EncodeChange is the inverse of DecodeChange.
func EncodeChange(change appointment.Change) ([]byte, error) {
	return json.Marshal(change)
}
