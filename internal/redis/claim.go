package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ClaimStore hands out short-lived exclusive claims on string keys. The
// reminder job uses it so that one run per date sends reminders, and the
// Kafka change feed uses it to drop redelivered events.
type ClaimStore struct {
	client redis.Cmdable
	prefix string
}

func NewClaimStore(client redis.Cmdable, prefix string) *ClaimStore {
	return &ClaimStore{client: client, prefix: prefix}
}

// Claim reports ok=false when somebody else already holds key. The returned
// token is needed to Release the claim.
func (s *ClaimStore) Claim(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()

	ok, err := s.client.SetNX(ctx, s.prefix+key, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("claim %s: %w", key, err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

var releaseScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

// Release drops the claim only if token still owns it.
func (s *ClaimStore) Release(ctx context.Context, key, token string) error {
	_, err := releaseScript.Run(ctx, s.client, []string{s.prefix + key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release %s: %w", key, err)
	}
	return nil
}
