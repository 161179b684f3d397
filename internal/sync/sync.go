// Package sync propagates wishlist writes between service instances sharing
// the same persisted slot, the way the storefront origin propagated writes
// between browser tabs. Resolution is last-writer-wins: a notified instance
// reloads unconditionally and never merges.
package sync

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Channel carries change notifications for all shoppers.
const Channel = "wishlist.changed"

// Notification is the published message.
type Notification struct {
	ShopperID string `json:"shopper_id"`
	Origin    string `json:"origin"`
}

// Notifier publishes change notifications for a slot.
type Notifier interface {
	Notify(ctx context.Context, shopperID string) error
}

// ReloadFunc is invoked for a foreign-origin change; implementations reload
// the list from storage and re-run dependent recomputation (counters, render).
type ReloadFunc func(ctx context.Context, shopperID string)

// Synchronizer publishes local writes and reacts to foreign ones over a Redis
// pub/sub channel. Each instance carries a unique origin id so its own writes
// are ignored on the way back.
type Synchronizer struct {
	client *redis.Client
	origin string
	reload ReloadFunc
	logger *slog.Logger
}

// NewSynchronizer creates a synchronizer with a fresh origin id.
func NewSynchronizer(client *redis.Client, reload ReloadFunc, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{
		client: client,
		origin: uuid.New().String(),
		reload: reload,
		logger: logger,
	}
}

// Origin returns this instance's origin id.
func (s *Synchronizer) Origin() string {
	return s.origin
}

// Notify publishes a change notification for the shopper's slot.
func (s *Synchronizer) Notify(ctx context.Context, shopperID string) error {
	payload, err := json.Marshal(Notification{ShopperID: shopperID, Origin: s.origin})
	if err != nil {
		return err
	}
	return s.client.Publish(ctx, Channel, payload).Err()
}

// Listen subscribes to the change channel and blocks until ctx is canceled.
// Foreign-origin notifications trigger the reload callback; own-origin ones
// are skipped.
func (s *Synchronizer) Listen(ctx context.Context) error {
	sub := s.client.Subscribe(ctx, Channel)
	defer sub.Close()

	s.logger.Info("sync listener started", slog.String("channel", Channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sync listener stopping")
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var n Notification
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				s.logger.Warn("malformed sync notification",
					slog.String("payload", msg.Payload),
					slog.String("error", err.Error()),
				)
				continue
			}
			if n.Origin == s.origin || n.ShopperID == "" {
				continue
			}

			s.logger.Debug("remote wishlist change",
				slog.String("shopper_id", n.ShopperID),
				slog.String("origin", n.Origin),
			)
			s.reload(ctx, n.ShopperID)
		}
	}
}

// NopNotifier discards notifications. Used in tests.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string) error { return nil }
