package event

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	pkgkafka "github.com/shunshunshopify/solstar-horizon/pkg/kafka"
)

type mockRemover struct {
	mock.Mock
}

func (m *mockRemover) RemoveMany(ctx context.Context, shopperID string, productIDs []string) error {
	args := m.Called(ctx, shopperID, productIDs)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func cartUpdatedEvent(t *testing.T, userID string, productIDs ...string) *pkgkafka.Event {
	t.Helper()
	items := make([]map[string]string, 0, len(productIDs))
	for _, id := range productIDs {
		items = append(items, map[string]string{"product_id": id, "variant_id": "v-" + id})
	}
	ev, err := pkgkafka.NewEvent("cart.updated", userID, "cart", "cart-service", map[string]any{
		"user_id": userID,
		"items":   items,
	})
	require.NoError(t, err)
	return ev
}

func TestCartListener_PolicyOffLeavesWishlistAlone(t *testing.T) {
	remover := new(mockRemover)
	listener := NewCartListener(remover, false, testLogger())

	err := listener.Handle(context.Background(), cartUpdatedEvent(t, "shopper-1", "p1"))
	require.NoError(t, err)
	remover.AssertNotCalled(t, "RemoveMany", mock.Anything, mock.Anything, mock.Anything)
}

func TestCartListener_PolicyOnRemovesCartedItems(t *testing.T) {
	remover := new(mockRemover)
	remover.On("RemoveMany", mock.Anything, "shopper-1", []string{"p1", "p2"}).Return(nil)
	listener := NewCartListener(remover, true, testLogger())

	err := listener.Handle(context.Background(), cartUpdatedEvent(t, "shopper-1", "p1", "p2"))
	require.NoError(t, err)
	remover.AssertExpectations(t)
}

func TestCartListener_MissingUserIDIsIgnored(t *testing.T) {
	remover := new(mockRemover)
	listener := NewCartListener(remover, true, testLogger())

	err := listener.Handle(context.Background(), cartUpdatedEvent(t, ""))
	require.NoError(t, err)
	remover.AssertNotCalled(t, "RemoveMany", mock.Anything, mock.Anything, mock.Anything)
}

func TestCartListener_MalformedPayload(t *testing.T) {
	remover := new(mockRemover)
	listener := NewCartListener(remover, true, testLogger())

	ev := &pkgkafka.Event{EventType: "cart.updated", Data: []byte(`"not an object"`)}
	err := listener.Handle(context.Background(), ev)
	assert.Error(t, err)
}
