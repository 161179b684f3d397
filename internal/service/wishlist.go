package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shunshunshopify/solstar-horizon/internal/domain"
	"github.com/shunshunshopify/solstar-horizon/internal/event"
	"github.com/shunshunshopify/solstar-horizon/internal/repository"
	syncer "github.com/shunshunshopify/solstar-horizon/internal/sync"
	apperrors "github.com/shunshunshopify/solstar-horizon/pkg/errors"
)

// MaxItems bounds the number of saved items per shopper.
const MaxItems = 100

// AddItemInput holds the fields of a save action.
type AddItemInput struct {
	ID        string `json:"id" validate:"required"`
	Title     string `json:"title" validate:"required,max=500"`
	Image     string `json:"image"`
	URL       string `json:"url"`
	Price     string `json:"price"`
	VariantID string `json:"variant_id"`
	Available *bool  `json:"available"`
	Handle    string `json:"handle"`
}

func (in AddItemInput) item(now time.Time) domain.WishlistItem {
	available := true
	if in.Available != nil {
		available = *in.Available
	}
	return domain.WishlistItem{
		ID:        in.ID,
		Title:     in.Title,
		Image:     in.Image,
		URL:       in.URL,
		Price:     in.Price,
		VariantID: in.VariantID,
		Available: available,
		Handle:    in.Handle,
		AddedAt:   now,
	}
}

// WishlistService implements the saved-list operations. Every mutation saves
// the list, notifies other instances sharing the slot, and publishes a
// domain event so dependent counters recompute; callers never refresh
// anything manually.
type WishlistService struct {
	repo      repository.WishlistRepository
	publisher event.Publisher
	notifier  syncer.Notifier
	logger    *slog.Logger
}

// NewWishlistService creates a wishlist service.
func NewWishlistService(repo repository.WishlistRepository, publisher event.Publisher, notifier syncer.Notifier, logger *slog.Logger) *WishlistService {
	return &WishlistService{
		repo:      repo,
		publisher: publisher,
		notifier:  notifier,
		logger:    logger,
	}
}

// List returns the shopper's saved items, oldest first. A missing slot is an
// empty list.
func (s *WishlistService) List(ctx context.Context, shopperID string) ([]domain.WishlistItem, error) {
	if shopperID == "" {
		return nil, apperrors.InvalidInput("shopper id is required")
	}

	items, err := s.repo.Get(ctx, shopperID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return []domain.WishlistItem{}, nil
		}
		return nil, fmt.Errorf("get wishlist: %w", err)
	}
	return items, nil
}

// Contains reports whether the shopper has saved the given product.
func (s *WishlistService) Contains(ctx context.Context, shopperID, productID string) (bool, error) {
	items, err := s.List(ctx, shopperID)
	if err != nil {
		return false, err
	}
	return domain.IndexOf(items, productID) >= 0, nil
}

// Add appends the item unless its id is already saved. Returns the resulting
// list and whether anything was added.
func (s *WishlistService) Add(ctx context.Context, shopperID string, input AddItemInput) ([]domain.WishlistItem, bool, error) {
	if shopperID == "" {
		return nil, false, apperrors.InvalidInput("shopper id is required")
	}
	if input.ID == "" {
		return nil, false, apperrors.InvalidInput("product id is required")
	}

	items, err := s.List(ctx, shopperID)
	if err != nil {
		return nil, false, err
	}

	if domain.IndexOf(items, input.ID) >= 0 {
		return items, false, nil
	}
	if len(items) >= MaxItems {
		return nil, false, apperrors.InvalidInput(fmt.Sprintf("wishlist must not contain more than %d items", MaxItems))
	}

	items = append(items, input.item(time.Now().UTC()))
	s.persist(ctx, shopperID, items)

	s.logger.InfoContext(ctx, "item saved",
		slog.String("shopper_id", shopperID),
		slog.String("product_id", input.ID),
	)

	return items, true, nil
}

// Remove deletes the item with the given product id. Returns the resulting
// list and whether anything was removed.
func (s *WishlistService) Remove(ctx context.Context, shopperID, productID string) ([]domain.WishlistItem, bool, error) {
	if shopperID == "" {
		return nil, false, apperrors.InvalidInput("shopper id is required")
	}
	if productID == "" {
		return nil, false, apperrors.InvalidInput("product id is required")
	}

	items, err := s.List(ctx, shopperID)
	if err != nil {
		return nil, false, err
	}

	idx := domain.IndexOf(items, productID)
	if idx < 0 {
		return items, false, nil
	}

	items = append(items[:idx], items[idx+1:]...)
	s.persist(ctx, shopperID, items)

	s.logger.InfoContext(ctx, "item removed",
		slog.String("shopper_id", shopperID),
		slog.String("product_id", productID),
	)

	return items, true, nil
}

// RemoveMany removes every listed product id in one save. Unknown ids are
// ignored.
func (s *WishlistService) RemoveMany(ctx context.Context, shopperID string, productIDs []string) error {
	if shopperID == "" {
		return apperrors.InvalidInput("shopper id is required")
	}
	if len(productIDs) == 0 {
		return nil
	}

	items, err := s.List(ctx, shopperID)
	if err != nil {
		return err
	}

	drop := make(map[string]struct{}, len(productIDs))
	for _, id := range productIDs {
		drop[id] = struct{}{}
	}

	kept := items[:0]
	for _, item := range items {
		if _, gone := drop[item.ID]; !gone {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(items) {
		return nil
	}

	s.persist(ctx, shopperID, kept)

	s.logger.InfoContext(ctx, "items removed after cart add",
		slog.String("shopper_id", shopperID),
		slog.Int("removed", len(items)-len(kept)),
	)

	return nil
}

// Toggle adds the item if absent and removes it if present. Returns the
// resulting list and whether the item is now saved.
func (s *WishlistService) Toggle(ctx context.Context, shopperID string, input AddItemInput) ([]domain.WishlistItem, bool, error) {
	saved, err := s.Contains(ctx, shopperID, input.ID)
	if err != nil {
		return nil, false, err
	}
	if saved {
		items, _, err := s.Remove(ctx, shopperID, input.ID)
		return items, false, err
	}
	items, _, err := s.Add(ctx, shopperID, input)
	return items, true, err
}

// Clear removes every saved item.
func (s *WishlistService) Clear(ctx context.Context, shopperID string) error {
	if shopperID == "" {
		return apperrors.InvalidInput("shopper id is required")
	}

	if err := s.repo.Delete(ctx, shopperID); err != nil {
		return fmt.Errorf("delete wishlist: %w", err)
	}

	s.notify(ctx, shopperID)
	if err := s.publisher.PublishCleared(ctx, shopperID); err != nil {
		s.logger.ErrorContext(ctx, "publish wishlist.cleared failed",
			slog.String("shopper_id", shopperID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "wishlist cleared",
		slog.String("shopper_id", shopperID),
	)

	return nil
}

// Replace overwrites the list in one consolidated save. The render pipeline
// uses it after variant resolution corrects stored fields, so a whole pass
// costs at most one write and one downstream update.
func (s *WishlistService) Replace(ctx context.Context, shopperID string, items []domain.WishlistItem) error {
	if shopperID == "" {
		return apperrors.InvalidInput("shopper id is required")
	}

	s.persist(ctx, shopperID, items)
	return nil
}

// persist saves, notifies peer instances, and publishes the updated event.
// A failed write is logged and swallowed: the in-memory list stays
// authoritative for this request and counters still recompute from it.
func (s *WishlistService) persist(ctx context.Context, shopperID string, items []domain.WishlistItem) {
	if err := s.repo.Save(ctx, shopperID, items); err != nil {
		s.logger.ErrorContext(ctx, "wishlist save failed, serving from memory",
			slog.String("shopper_id", shopperID),
			slog.String("error", err.Error()),
		)
	} else {
		s.notify(ctx, shopperID)
	}

	if err := s.publisher.PublishUpdated(ctx, shopperID, items); err != nil {
		s.logger.ErrorContext(ctx, "publish wishlist.updated failed",
			slog.String("shopper_id", shopperID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *WishlistService) notify(ctx context.Context, shopperID string) {
	if err := s.notifier.Notify(ctx, shopperID); err != nil {
		s.logger.WarnContext(ctx, "sync notify failed",
			slog.String("shopper_id", shopperID),
			slog.String("error", err.Error()),
		)
	}
}
