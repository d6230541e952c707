package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

const maxRetryDelay = 30 * time.Second

// messageReader is the part of kafka.Reader the consumer uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	open       func() messageReader
	reader     messageReader
	retryDelay time.Duration
	logger     *slog.Logger
}

func NewConsumer(brokers []string, groupID, topic string, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := kafka.ReaderConfig{
		Brokers:           brokers,
		GroupID:           groupID,
		Topic:             topic,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
	}
	open := func() messageReader { return kafka.NewReader(cfg) }
	return &Consumer{
		open:       open,
		reader:     open(),
		retryDelay: time.Second,
		logger:     logger,
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Run keeps consuming until ctx is done. After a failure the reader is
// reopened with backoff, so the group resumes from the last committed offset
// and the failed event is delivered again.
func (c *Consumer) Run(ctx context.Context, handler func(context.Context, BookingEvent) error) error {
	delay := c.retryDelay
	for {
		err := c.Consume(ctx, handler)
		if err == nil || ctx.Err() != nil {
			return nil
		}
		c.logger.Warn("booking event consumer failed, restarting", "error", err, "retry_in", delay)

		_ = c.reader.Close()
		if !wait(ctx, delay) {
			c.reader = nil
			return nil
		}
		delay = min(delay*2, maxRetryDelay)
		c.reader = c.open()
	}
}

func wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Consume feeds booking events to handler until ctx is done. Messages that
// cannot be decoded are logged and skipped. An offset is committed only after
// handler succeeds, so a failed event is redelivered to the group.
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, BookingEvent) error) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		event, err := DecodeBookingEvent(msg)
		if err != nil {
			c.logger.Warn("skip malformed event", "topic", msg.Topic, "offset", msg.Offset, "error", err)
		} else if err := handler(ctx, event); err != nil {
			return fmt.Errorf("handle %s for booking %s: %w", event.Type, event.BookingID, err)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("commit offset %d: %w", msg.Offset, err)
		}
	}
}
