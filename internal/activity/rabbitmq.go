package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Domenick1991/travelbooking/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	publishTimeout = 2 * time.Second
	publishBuffer  = 256
)

// errMalformed marks deliveries that can never be stored.
var errMalformed = errors.New("malformed activity message")

type pending struct {
	ctx   context.Context
	entry domain.ActivityEntry
}

// Publisher sends activity entries to a durable RabbitMQ queue. Record only
// enqueues; a single goroutine owns the broker connection, opens it lazily
// and reopens it after a failure.
type Publisher struct {
	url    string
	queue  string
	logger *slog.Logger

	entries   chan pending
	quit      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once

	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewPublisher(url, queue string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Publisher{
		url:     url,
		queue:   queue,
		logger:  logger,
		entries: make(chan pending, publishBuffer),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *Publisher) Record(ctx context.Context, userID int64, action, description string, metadata map[string]any) {
	entry := newEntry(userID, action, description, metadata)
	select {
	case <-p.quit:
		p.dropped(ctx, entry, errors.New("publisher closed"))
		return
	default:
	}

	// the request context may already be cancelled by the time we publish
	select {
	case p.entries <- pending{ctx: context.WithoutCancel(ctx), entry: entry}:
	default:
		p.dropped(ctx, entry, errors.New("publish buffer full"))
	}
}

func (p *Publisher) dropped(ctx context.Context, entry domain.ActivityEntry, err error) {
	p.logger.WarnContext(ctx, "activity log dropped",
		"user_id", entry.UserID,
		"action", entry.Action,
		"error", err,
	)
}

func (p *Publisher) run() {
	defer close(p.stopped)
	for {
		// quit wins over a ready entry so Close is not stuck behind a backlog
		select {
		case <-p.quit:
			p.drain()
			return
		default:
		}
		select {
		case <-p.quit:
			p.drain()
			return
		case job := <-p.entries:
			if err := p.publish(job.ctx, job.entry); err != nil {
				p.dropped(job.ctx, job.entry, err)
			}
		}
	}
}

// drain flushes what is already buffered and stops at the first failure.
func (p *Publisher) drain() {
	for {
		select {
		case job := <-p.entries:
			if err := p.publish(job.ctx, job.entry); err != nil {
				p.dropped(job.ctx, job.entry, err)
				p.discard()
				return
			}
		default:
			return
		}
	}
}

func (p *Publisher) discard() {
	for {
		select {
		case job := <-p.entries:
			p.dropped(job.ctx, job.entry, errors.New("publisher closed"))
		default:
			return
		}
	}
}

func (p *Publisher) publish(ctx context.Context, entry domain.ActivityEntry) error {
	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal activity: %w", err)
	}

	ch, err := p.channel()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    entry.CreatedAt,
		Body:         body,
	})
	if err != nil {
		p.reset()
		return fmt.Errorf("publish activity: %w", err)
	}
	return nil
}

func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()

	// DefaultDial bounds the TCP connect and the AMQP handshake
	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(publishTimeout)})
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}

// Close flushes buffered entries and closes the broker connection.
func (p *Publisher) Close() error {
	p.closeOnce.Do(func() {
		close(p.quit)
		<-p.stopped
		p.reset()
	})
	return nil
}

// Store persists consumed activity entries.
type Store interface {
	Insert(ctx context.Context, entry domain.ActivityEntry) error
}

// Consumer drains the activity queue into a Store.
type Consumer struct {
	url    string
	queue  string
	store  Store
	logger *slog.Logger
}

func NewConsumer(url, queue string, store Store, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{url: url, queue: queue, store: store, logger: logger}
}

// Run consumes until ctx is done, reconnecting with backoff when the broker
// goes away.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.logger.Warn("activity consumer: dial failed", "error", err, "retry_in", backoff)
			if !sleep(ctx, backoff) {
				return nil
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return nil
		}
		c.logger.Warn("activity consumer: loop ended, reconnecting", "error", err)
		if !sleep(ctx, 2*time.Second) {
			return nil
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.logger.Warn("activity consumer: set QoS failed", "error", err)
	}
	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.process(ctx, d); err != nil {
				return err
			}
		}
	}
}

// process settles one delivery. Malformed messages are dropped since they
// would loop forever. A store failure requeues the message and is returned
// so the caller backs off before consuming again.
func (c *Consumer) process(ctx context.Context, d amqp.Delivery) error {
	err := c.handle(ctx, d.Body)
	switch {
	case err == nil:
		return d.Ack(false)
	case errors.Is(err, errMalformed):
		c.logger.Error("activity consumer: dropping malformed message", "error", err)
		return d.Nack(false, false)
	default:
		if nerr := d.Nack(false, true); nerr != nil {
			c.logger.Warn("activity consumer: requeue failed", "error", nerr)
		}
		return fmt.Errorf("store activity: %w", err)
	}
}

func (c *Consumer) handle(ctx context.Context, body []byte) error {
	var entry domain.ActivityEntry
	if err := json.Unmarshal(body, &entry); err != nil {
		return fmt.Errorf("%w: %w", errMalformed, err)
	}
	if entry.Action == "" {
		return fmt.Errorf("%w: entry without action", errMalformed)
	}
	return c.store.Insert(ctx, entry)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

var _ Logger = (*Publisher)(nil)
