package changehub

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"servicepulse/backend/internal/logger"
	"servicepulse/backend/internal/models"
)

// PostgresBroadcaster uses LISTEN/NOTIFY on the database the store lives in,
// so a deployment on postgres needs no extra infrastructure.
type PostgresBroadcaster struct {
	dsn     string
	db      *sql.DB
	channel string
	log     *slog.Logger
}

// NewPostgresBroadcaster opens a connection used for NOTIFY. LISTEN uses a
// dedicated pq.Listener created by Subscribe.
func NewPostgresBroadcaster(dsn, channel string) (*PostgresBroadcaster, error) {
	if channel == "" {
		channel = DefaultChannel
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open notify connection: %w", err)
	}
	return &PostgresBroadcaster{
		dsn:     dsn,
		db:      db,
		channel: channel,
		log:     logger.WithComponent("changehub.postgres"),
	}, nil
}

func (b *PostgresBroadcaster) Broadcast(ctx context.Context, ev models.ChangeEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}
	if _, err := b.db.ExecContext(ctx, "SELECT pg_notify($1, $2)", b.channel, string(data)); err != nil {
		return fmt.Errorf("failed to notify: %w", err)
	}
	return nil
}

func (b *PostgresBroadcaster) Subscribe(ctx context.Context, handler func(models.ChangeEvent)) error {
	listener := pq.NewListener(b.dsn, time.Second, 30*time.Second, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventDisconnected:
			b.log.Warn("listener disconnected", "channel", b.channel, "error", err)
		case pq.ListenerEventReconnected:
			b.log.Info("listener reconnected", "channel", b.channel)
		case pq.ListenerEventConnectionAttemptFailed:
			b.log.Warn("listener connection attempt failed", "channel", b.channel, "error", err)
		}
	})
	defer listener.Close()

	if err := listener.Listen(b.channel); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", b.channel, err)
	}
	b.log.Info("listening for change events", "channel", b.channel)

	idle := time.NewTicker(90 * time.Second)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case n := <-listener.Notify:
			// nil after a reconnect; events sent meanwhile are lost and
			// views catch up on the next change.
			if n == nil {
				continue
			}
			ev, err := decodeEvent(n.Extra)
			if err != nil {
				b.log.Warn("failed to unmarshal change event", "payload", n.Extra, "error", err)
				continue
			}
			handler(ev)

		case <-idle.C:
			if err := listener.Ping(); err != nil {
				b.log.Warn("listener ping failed", "error", err)
			}
		}
	}
}

func (b *PostgresBroadcaster) Close() error {
	return b.db.Close()
}
