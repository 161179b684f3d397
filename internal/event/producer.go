package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shunshunshopify/solstar-horizon/internal/domain"
	pkgkafka "github.com/shunshunshopify/solstar-horizon/pkg/kafka"
)

// Topics for wishlist domain events. Downstream consumers (badge counters,
// button state, analytics) recompute from these.
const (
	TopicWishlistUpdated = "storefront.wishlist.updated"
	TopicWishlistCleared = "storefront.wishlist.cleared"
)

const (
	aggregateTypeWishlist = "wishlist"
	sourceWishlistService = "wishlist-service"
)

// WishlistUpdatedData is the payload for a wishlist.updated event.
type WishlistUpdatedData struct {
	ShopperID string                `json:"shopper_id"`
	ItemCount int                   `json:"item_count"`
	Items     []domain.WishlistItem `json:"items"`
}

// WishlistClearedData is the payload for a wishlist.cleared event.
type WishlistClearedData struct {
	ShopperID string `json:"shopper_id"`
}

// Publisher is the outbound event surface the service depends on.
type Publisher interface {
	PublishUpdated(ctx context.Context, shopperID string, items []domain.WishlistItem) error
	PublishCleared(ctx context.Context, shopperID string) error
}

// KafkaPublisher publishes wishlist events to Kafka.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	logger   *slog.Logger
}

// NewKafkaPublisher creates a Kafka-backed publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		logger:   logger,
	}
}

// PublishUpdated emits a wishlist.updated event with the current list.
func (p *KafkaPublisher) PublishUpdated(ctx context.Context, shopperID string, items []domain.WishlistItem) error {
	data := WishlistUpdatedData{
		ShopperID: shopperID,
		ItemCount: len(items),
		Items:     items,
	}

	ev, err := pkgkafka.NewEvent(TopicWishlistUpdated, shopperID, aggregateTypeWishlist, sourceWishlistService, data)
	if err != nil {
		return fmt.Errorf("create wishlist.updated event: %w", err)
	}

	if err := p.producer.Publish(ctx, TopicWishlistUpdated, ev); err != nil {
		return fmt.Errorf("publish wishlist.updated: %w", err)
	}

	p.logger.DebugContext(ctx, "published wishlist.updated",
		slog.String("shopper_id", shopperID),
		slog.Int("item_count", len(items)),
	)

	return nil
}

// PublishCleared emits a wishlist.cleared event.
func (p *KafkaPublisher) PublishCleared(ctx context.Context, shopperID string) error {
	ev, err := pkgkafka.NewEvent(TopicWishlistCleared, shopperID, aggregateTypeWishlist, sourceWishlistService, WishlistClearedData{ShopperID: shopperID})
	if err != nil {
		return fmt.Errorf("create wishlist.cleared event: %w", err)
	}

	if err := p.producer.Publish(ctx, TopicWishlistCleared, ev); err != nil {
		return fmt.Errorf("publish wishlist.cleared: %w", err)
	}

	p.logger.DebugContext(ctx, "published wishlist.cleared",
		slog.String("shopper_id", shopperID),
	)

	return nil
}

// NopPublisher discards events. Used when Kafka is disabled and in tests.
type NopPublisher struct{}

func (NopPublisher) PublishUpdated(context.Context, string, []domain.WishlistItem) error {
	return nil
}

func (NopPublisher) PublishCleared(context.Context, string) error {
	return nil
}
