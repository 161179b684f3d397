package kafka

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// maxHandlerAttempts bounds retries before a message is committed and skipped.
const maxHandlerAttempts = 3

// Handler processes a consumed event.
type Handler func(ctx context.Context, event *Event) error

// ConsumerConfig holds consumer settings.
type ConsumerConfig struct {
	Brokers  []string
	GroupID  string
	Topic    string
	MinBytes int
	MaxBytes int
}

// Consumer reads event envelopes from a topic and dispatches them to a
// handler with bounded retries.
type Consumer struct {
	reader    *kafka.Reader
	logger    *slog.Logger
	handler   Handler
	closeOnce sync.Once
}

// NewConsumer creates a consumer for cfg.Topic within cfg.GroupID.
func NewConsumer(cfg ConsumerConfig, handler Handler, logger *slog.Logger) *Consumer {
	minBytes := cfg.MinBytes
	if minBytes == 0 {
		minBytes = 1
	}
	maxBytes := cfg.MaxBytes
	if maxBytes == 0 {
		maxBytes = 10 << 20
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: minBytes,
		MaxBytes: maxBytes,
	})

	return &Consumer{
		reader:  r,
		logger:  logger,
		handler: handler,
	}
}

// Start consumes until ctx is canceled. Messages that fail every attempt are
// committed and skipped so a poison message cannot stall the partition.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started",
		slog.String("topic", c.reader.Config().Topic),
		slog.String("group", c.reader.Config().GroupID),
	)

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping", slog.String("topic", c.reader.Config().Topic))
				return c.Close()
			}
			c.logger.Error("fetch message", slog.String("error", err.Error()))
			continue
		}

		event, err := UnmarshalEvent(msg.Value)
		if err != nil {
			c.logger.Error("unmarshal event",
				slog.String("error", err.Error()),
				slog.String("topic", msg.Topic),
			)
			c.commit(ctx, msg)
			continue
		}

		var lastErr error
		for attempt := 1; attempt <= maxHandlerAttempts; attempt++ {
			if lastErr = c.handler(ctx, event); lastErr == nil {
				break
			}
			c.logger.Warn("handler failed",
				slog.String("event_type", event.EventType),
				slog.String("aggregate_id", event.AggregateID),
				slog.String("error", lastErr.Error()),
				slog.Int("attempt", attempt),
			)
			if attempt < maxHandlerAttempts {
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
				}
			}
		}

		if lastErr != nil {
			c.logger.Error("skipping message after retries",
				slog.String("event_type", event.EventType),
				slog.String("aggregate_id", event.AggregateID),
				slog.Int64("offset", msg.Offset),
			)
		}

		c.commit(ctx, msg)
	}
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("commit message", slog.String("error", err.Error()))
	}
}

// Close closes the reader. Safe to call multiple times.
func (c *Consumer) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.reader.Close()
	})
	return err
}
