package changehub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"servicepulse/backend/internal/logger"
	"servicepulse/backend/internal/models"
)

// DefaultChannel is the broadcast channel shared by all instances.
const DefaultChannel = "servicepulse_channel"

// Broadcaster carries change events between processes.
type Broadcaster interface {
	Broadcast(ctx context.Context, ev models.ChangeEvent) error
	// Subscribe blocks, calling handler for every received event, until ctx
	// is cancelled.
	Subscribe(ctx context.Context, handler func(models.ChangeEvent)) error
}

// Listen delivers events published by other instances to local subscribers
// and views. Echoes of this instance's own events are dropped. It blocks
// until ctx is cancelled.
func (h *Hub) Listen(ctx context.Context) error {
	if h.broadcaster == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	return h.broadcaster.Subscribe(ctx, func(ev models.ChangeEvent) {
		h.receive(ctx, ev)
	})
}

func (h *Hub) receive(ctx context.Context, ev models.ChangeEvent) {
	if ev.Origin == h.instanceID {
		return
	}
	h.log.Debug("remote change received", "topic", ev.Type, "origin", ev.Origin)
	h.deliver(ctx, ev)
}

// RedisBroadcaster uses Redis Pub/Sub.
type RedisBroadcaster struct {
	client  *redis.Client
	channel string
	log     *slog.Logger
}

func NewRedisBroadcaster(client *redis.Client, channel string) *RedisBroadcaster {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBroadcaster{
		client:  client,
		channel: channel,
		log:     logger.WithComponent("changehub.redis"),
	}
}

func (b *RedisBroadcaster) Broadcast(ctx context.Context, ev models.ChangeEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}
	return nil
}

// Subscribe reconnects with exponential backoff until ctx is done.
func (b *RedisBroadcaster) Subscribe(ctx context.Context, handler func(models.ChangeEvent)) error {
	backoff := time.Second
	maxBackoff := 30 * time.Second

	for {
		err := b.subscribe(ctx, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		b.log.Warn("change subscription disconnected, reconnecting",
			"channel", b.channel,
			"error", err,
			"backoff", backoff,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff = min(backoff*2, maxBackoff)
	}
}

func (b *RedisBroadcaster) subscribe(ctx context.Context, handler func(models.ChangeEvent)) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to channel %s: %w", b.channel, err)
	}
	b.log.Info("subscribed to change channel", "channel", b.channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			ev, err := decodeEvent(msg.Payload)
			if err != nil {
				b.log.Warn("failed to unmarshal change event", "payload", msg.Payload, "error", err)
				continue
			}
			handler(ev)
		}
	}
}

func decodeEvent(payload string) (models.ChangeEvent, error) {
	var ev models.ChangeEvent
	err := json.Unmarshal([]byte(payload), &ev)
	return ev, err
}
