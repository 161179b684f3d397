package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/shunshunshopify/solstar-horizon/pkg/kafka"
)

// DefaultCartUpdatedTopic is the cart service topic this service consumes for
// post-add feedback.
const DefaultCartUpdatedTopic = "storefront.cart.updated"

// CartUpdatedData is the subset of the cart.updated payload this service
// reads.
type CartUpdatedData struct {
	UserID string `json:"user_id"`
	Items  []struct {
		ProductID string `json:"product_id"`
		VariantID string `json:"variant_id"`
	} `json:"items"`
}

// remover is the slice of the wishlist service the cart listener needs.
type remover interface {
	RemoveMany(ctx context.Context, shopperID string, productIDs []string) error
}

// CartListener consumes cart.updated events. Whether a saved item is removed
// once it lands in the cart is shop policy, so it is driven by configuration
// rather than hard-coded.
type CartListener struct {
	wishlist        remover
	removeOnCartAdd bool
	logger          *slog.Logger
}

// NewCartListener creates a listener applying the given removal policy.
func NewCartListener(wishlist remover, removeOnCartAdd bool, logger *slog.Logger) *CartListener {
	return &CartListener{
		wishlist:        wishlist,
		removeOnCartAdd: removeOnCartAdd,
		logger:          logger,
	}
}

// Handle processes one cart.updated event.
func (l *CartListener) Handle(ctx context.Context, ev *pkgkafka.Event) error {
	var data CartUpdatedData
	if err := ev.UnmarshalData(&data); err != nil {
		return fmt.Errorf("decode cart.updated payload: %w", err)
	}
	if data.UserID == "" {
		return nil
	}

	l.logger.InfoContext(ctx, "cart updated",
		slog.String("shopper_id", data.UserID),
		slog.Int("cart_items", len(data.Items)),
	)

	if !l.removeOnCartAdd || len(data.Items) == 0 {
		return nil
	}

	productIDs := make([]string, 0, len(data.Items))
	for _, item := range data.Items {
		productIDs = append(productIDs, item.ProductID)
	}

	if err := l.wishlist.RemoveMany(ctx, data.UserID, productIDs); err != nil {
		return fmt.Errorf("remove carted items from wishlist: %w", err)
	}

	return nil
}
