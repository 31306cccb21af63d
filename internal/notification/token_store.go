package notification

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgTokenStore reads and purges rows of the user_tokens table. Rows are
// written by the app's registration flow.
type PgTokenStore struct {
	pool *pgxpool.Pool
}

func NewPgTokenStore(pool *pgxpool.Pool) *PgTokenStore {
	return &PgTokenStore{pool: pool}
}

func (s *PgTokenStore) GetToken(ctx context.Context, personID string) (string, error) {
	var token string
	err := s.pool.QueryRow(ctx, `
		SELECT token
		FROM user_tokens
		WHERE user_id = $1
	`, personID).Scan(&token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrTokenNotFound
		}
		return "", err
	}
	return token, nil
}

func (s *PgTokenStore) DeleteToken(ctx context.Context, personID string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM user_tokens
		WHERE user_id = $1
	`, personID)
	return err
}
