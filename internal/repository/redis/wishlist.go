package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/shunshunshopify/solstar-horizon/pkg/errors"
	"github.com/shunshunshopify/solstar-horizon/internal/domain"
)

const keyPrefix = "wishlist:"

// WishlistRepository stores each shopper's list as a JSON array under one
// Redis key, mirroring the single persisted slot of the storefront.
type WishlistRepository struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewWishlistRepository creates a Redis-backed wishlist repository.
func NewWishlistRepository(client *redis.Client, ttl time.Duration, logger *slog.Logger) *WishlistRepository {
	return &WishlistRepository{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func key(shopperID string) string {
	return keyPrefix + shopperID
}

// Get loads and tolerantly decodes the shopper's list. A payload that is not
// a JSON array at all is treated as an empty list and logged, never surfaced
// as an error; individual malformed entries are dropped.
func (r *WishlistRepository) Get(ctx context.Context, shopperID string) ([]domain.WishlistItem, error) {
	data, err := r.client.Get(ctx, key(shopperID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.NotFound("wishlist", shopperID)
		}
		return nil, fmt.Errorf("redis get wishlist: %w", err)
	}

	items, dropped, err := domain.DecodeItems(data)
	if err != nil {
		r.logger.WarnContext(ctx, "wishlist payload corrupt, starting empty",
			slog.String("shopper_id", shopperID),
			slog.String("error", err.Error()),
		)
		return []domain.WishlistItem{}, nil
	}
	if dropped > 0 {
		r.logger.WarnContext(ctx, "dropped malformed wishlist entries",
			slog.String("shopper_id", shopperID),
			slog.Int("dropped", dropped),
		)
	}

	return items, nil
}

// Save overwrites the shopper's slot with the given list.
func (r *WishlistRepository) Save(ctx context.Context, shopperID string, items []domain.WishlistItem) error {
	data, err := domain.EncodeItems(items)
	if err != nil {
		return fmt.Errorf("marshal wishlist: %w", err)
	}

	if err := r.client.Set(ctx, key(shopperID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set wishlist: %w", err)
	}

	return nil
}

// Delete removes the shopper's slot.
func (r *WishlistRepository) Delete(ctx context.Context, shopperID string) error {
	if err := r.client.Del(ctx, key(shopperID)).Err(); err != nil {
		return fmt.Errorf("redis del wishlist: %w", err)
	}
	return nil
}
