package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/galeriaarte/galeria-server/internal/logger"
	"github.com/galeriaarte/galeria-server/internal/realtime"
)

const listenRetryDelay = 2 * time.Second

// ChangeChannel is the NOTIFY channel the change triggers write to. It
// must match pg_notify in migrations/00002_change_feed.sql.
const ChangeChannel = "galeria_changes"

// Listener turns NOTIFY payloads written by the change triggers into
// realtime changes. It implements realtime.Source.
type Listener struct {
	pool    *pgxpool.Pool
	channel string
	logger  *logger.Logger
	retry   time.Duration
}

// NewListener creates a Listener on ChangeChannel.
func NewListener(pool *pgxpool.Pool, log *logger.Logger) *Listener {
	return &Listener{pool: pool, channel: ChangeChannel, logger: log, retry: listenRetryDelay}
}

// Listen blocks until ctx is done, passing each change to fn. A dropped
// connection is re-established after a short pause; changes written while
// disconnected are not replayed.
func (l *Listener) Listen(ctx context.Context, fn func(realtime.Change)) error {
	for {
		err := l.listenOnce(ctx, fn)
		if ctx.Err() != nil {
			return nil
		}
		l.logger.Warn("change feed connection lost",
			"channel", l.channel,
			"error", err,
			"retry_in", l.retry,
		)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.retry):
		}
	}
}

func (l *Listener) listenOnce(ctx context.Context, fn func(realtime.Change)) error {
	pooled, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listen connection: %w", err)
	}
	// A listening connection must not go back to the pool.
	conn := pooled.Hijack()
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen on %s: %w", l.channel, err)
	}
	l.logger.Info("listening for changes", "channel", l.channel)

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}

		change, err := realtime.DecodeChange([]byte(n.Payload))
		if err != nil {
			l.logger.Warn("dropping malformed change", "error", err)
			continue
		}
		fn(change)
	}
}
