package sync

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setup(t *testing.T) *goredis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestSynchronizer_ForeignOriginTriggersReload(t *testing.T) {
	client := setup(t)

	reloaded := make(chan string, 1)
	listener := NewSynchronizer(client, func(_ context.Context, shopperID string) {
		reloaded <- shopperID
	}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = listener.Listen(ctx) }()

	// Give the subscription a moment to register.
	time.Sleep(50 * time.Millisecond)

	writer := NewSynchronizer(client, nil, testLogger())
	require.NotEqual(t, listener.Origin(), writer.Origin())
	require.NoError(t, writer.Notify(ctx, "shopper-1"))

	select {
	case shopperID := <-reloaded:
		assert.Equal(t, "shopper-1", shopperID)
	case <-time.After(2 * time.Second):
		t.Fatal("reload was not triggered by a foreign-origin notification")
	}
}

func TestSynchronizer_OwnOriginIsSkipped(t *testing.T) {
	client := setup(t)

	reloaded := make(chan string, 1)
	s := NewSynchronizer(client, func(_ context.Context, shopperID string) {
		reloaded <- shopperID
	}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Listen(ctx) }()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, s.Notify(ctx, "shopper-1"))

	select {
	case <-reloaded:
		t.Fatal("own-origin notification must not trigger a reload")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestSynchronizer_MalformedPayloadIgnored(t *testing.T) {
	client := setup(t)

	reloaded := make(chan string, 1)
	s := NewSynchronizer(client, func(_ context.Context, shopperID string) {
		reloaded <- shopperID
	}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Listen(ctx) }()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, client.Publish(ctx, Channel, "not json").Err())

	select {
	case <-reloaded:
		t.Fatal("malformed notification must not trigger a reload")
	case <-time.After(200 * time.Millisecond):
	}
}
