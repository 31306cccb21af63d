package changefeed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hackgods/appointment-push-notifier/internal/db"
)

const reconnectDelay = 2 * time.Second

// PgListener holds one dedicated connection LISTENing on the appointment and
// token channels. Each notification is handled on its own goroutine.
type PgListener struct {
	pool    *pgxpool.Pool
	changes ChangeHandler
	tokens  TokenHandler
	logger  *zap.Logger

	wg sync.WaitGroup
}

// NewPgListener builds the listener. tokens may be nil, in which case
// token-created events are ignored.
func NewPgListener(pool *pgxpool.Pool, changes ChangeHandler, tokens TokenHandler, logger *zap.Logger) *PgListener {
	return &PgListener{
		pool:    pool,
		changes: changes,
		tokens:  tokens,
		logger:  logger.Named("pg-listener"),
	}
}

// Run listens until ctx is cancelled, reconnecting after connection loss.
// It returns once every in-flight event has been handled.
func (l *PgListener) Run(ctx context.Context) {
	defer l.wg.Wait()

	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			l.logger.Info("change listener stopped")
			return
		}
		l.logger.Warn("change listener lost connection, reconnecting", zap.Error(err))

		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (l *PgListener) listen(ctx context.Context) error {
	pooled, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listen connection: %w", err)
	}
	conn := pooled.Hijack()
	defer conn.Close(context.Background())

	for _, channel := range []string{db.ChannelAppointmentChanged, db.ChannelUserTokenCreated} {
		if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{channel}.Sanitize()); err != nil {
			return fmt.Errorf("listen %s: %w", channel, err)
		}
	}
	l.logger.Info("listening for changes")

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}

		l.wg.Add(1)
		go func(channel, payload string) {
			defer l.wg.Done()
			l.handle(ctx, channel, []byte(payload))
		}(n.Channel, n.Payload)
	}
}

func (l *PgListener) handle(ctx context.Context, channel string, payload []byte) {
	switch channel {
	case db.ChannelAppointmentChanged:
		change, err := DecodeChange(payload)
		if err != nil {
			l.logger.Warn("dropping change event", zap.Error(err), zap.ByteString("payload", payload))
			return
		}
		l.changes.Handle(ctx, change)

	case db.ChannelUserTokenCreated:
		if l.tokens == nil {
			return
		}
		ev, err := DecodeTokenCreated(payload)
		if err != nil {
			l.logger.Warn("dropping token event", zap.Error(err), zap.ByteString("payload", payload))
			return
		}
		l.tokens.HandleTokenCreated(ctx, ev.UserID, ev.Token)

	default:
		l.logger.Debug("notification on unexpected channel", zap.String("channel", channel))
	}
}
