package repository

import (
	"context"

	"github.com/shunshunshopify/solstar-horizon/internal/domain"
)

// WishlistRepository persists one saved-item list per shopper.
type WishlistRepository interface {
	// Get loads the shopper's list. A missing slot yields ErrNotFound;
	// malformed entries inside an otherwise valid payload are dropped.
	Get(ctx context.Context, shopperID string) ([]domain.WishlistItem, error)

	// Save overwrites the shopper's list.
	Save(ctx context.Context, shopperID string, items []domain.WishlistItem) error

	// Delete removes the shopper's slot entirely.
	Delete(ctx context.Context, shopperID string) error
}
