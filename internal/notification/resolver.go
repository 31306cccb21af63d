package notification

import (
	"context"
	"errors"
	"fmt"
)

var ErrTokenNotFound = errors.New("device token not found")

// TokenStore holds the device token registered for each person.
type TokenStore interface {
	// GetToken returns ErrTokenNotFound when the person has no record.
	GetToken(ctx context.Context, personID string) (string, error)
	// DeleteToken is a no-op when the record does not exist.
	DeleteToken(ctx context.Context, personID string) error
}

// Resolver maps a person to a deliverable token. It never caches: tokens are
// rotated and purged often enough that a stale copy would cause repeated
// failed sends.
type Resolver struct {
	store TokenStore
}

func NewResolver(store TokenStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve reports ok=false when there is no record or the token is empty.
func (r *Resolver) Resolve(ctx context.Context, personID string) (string, bool, error) {
	token, err := r.store.GetToken(ctx, personID)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("load device token: %w", err)
	}
	if token == "" {
		return "", false, nil
	}
	return token, true, nil
}

// Invalidate forgets the person's token after the provider rejected it.
func (r *Resolver) Invalidate(ctx context.Context, personID string) error {
	if err := r.store.DeleteToken(ctx, personID); err != nil {
		return fmt.Errorf("delete device token: %w", err)
	}
	return nil
}
