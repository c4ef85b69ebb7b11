// Package pgnotify fans notification events out across processes using
// Postgres LISTEN/NOTIFY. Every instance publishes with pg_notify and holds a
// dedicated pgx connection listening on the same channel; received events are
// handed to the instance's local hub.
package pgnotify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sahinseyfi/TombistenFite-sub001/internal/notify"
)

const (
	// Channel is the LISTEN/NOTIFY channel name.
	Channel          = "tombistenfite_events"
	reconnectBackoff = 2 * time.Second
	maxReconnect     = 30 * time.Second
)

// Notifier sends a NOTIFY on a channel. The postgres adapter implements it.
type Notifier interface {
	Notify(ctx context.Context, channel, payload string) error
}

type envelope struct {
	UserID int64        `json:"userId"`
	Event  notify.Event `json:"event"`
}

// Broker implements notify.Publisher across processes.
type Broker struct {
	dbURL    string
	notifier Notifier
	hub      *notify.Hub
	logger   *slog.Logger
}

// New creates a broker that publishes through notifier and delivers received
// events into hub.
func New(dbURL string, notifier Notifier, hub *notify.Hub, logger *slog.Logger) *Broker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broker{dbURL: dbURL, notifier: notifier, hub: hub, logger: logger}
}

var _ notify.Publisher = (*Broker)(nil)

// Publish sends evt for userID to every listening instance, this one included.
func (b *Broker) Publish(ctx context.Context, userID int64, evt notify.Event) error {
	payload, err := json.Marshal(envelope{UserID: userID, Event: evt})
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := b.notifier.Notify(ctx, Channel, string(payload)); err != nil {
		return fmt.Errorf("pg_notify: %w", err)
	}
	return nil
}

// Start listens until ctx is cancelled, reconnecting with exponential
// backoff when the connection drops. Intended to be called with `go`.
func (b *Broker) Start(ctx context.Context) {
	backoff := reconnectBackoff
	for {
		err := b.listenLoop(ctx)
		if ctx.Err() != nil {
			b.logger.Info("Event listener stopped (context cancelled)")
			return
		}
		b.logger.Error("Event listener disconnected, reconnecting...",
			"error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxReconnect)
		case <-ctx.Done():
			return
		}
	}
}

func (b *Broker) listenLoop(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, b.dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+Channel); err != nil {
		return fmt.Errorf("LISTEN %s: %w", Channel, err)
	}
	b.logger.Info("Event listener connected", "channel", Channel)

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}
		b.dispatch(n.Payload)
	}
}

func (b *Broker) dispatch(payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		b.logger.Warn("Failed to parse event payload", "payload", payload, "error", err)
		return
	}
	b.hub.Publish(env.UserID, env.Event)
}
