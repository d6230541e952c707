package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Domenick1991/travelbooking/config"
	"github.com/Domenick1991/travelbooking/internal/activity"
	"github.com/Domenick1991/travelbooking/internal/cache"
	"github.com/Domenick1991/travelbooking/internal/kafka"
	"github.com/Domenick1991/travelbooking/internal/payment"
	"github.com/Domenick1991/travelbooking/internal/repository"
	"github.com/Domenick1991/travelbooking/internal/service/booking"
	"github.com/Domenick1991/travelbooking/internal/service/destinations"
	"github.com/Domenick1991/travelbooking/internal/service/pricing"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewLogger builds the process logger from app.log_level.
func NewLogger(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()}))
}

// Deps holds the connections and services shared by the binaries.
type Deps struct {
	Pool         *pgxpool.Pool
	Cache        *cache.RedisCache
	Producer     *kafka.Producer
	Activity     activity.Logger
	Destinations *destinations.DestinationService
	Bookings     *booking.BookingService

	closers []func() error
}

// Open connects to Postgres, Redis, Kafka and RabbitMQ and wires the booking
// core on top of them. Without a RabbitMQ URL activity is only logged.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Deps, error) {
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	d := &Deps{Pool: pool}
	d.closers = append(d.closers, func() error { pool.Close(); return nil })

	d.Cache = cache.NewRedisCache(cfg.Redis, cfg.Booking.CacheTTL())
	d.closers = append(d.closers, d.Cache.Close)
	if err := d.Cache.Ping(ctx); err != nil {
		logger.Warn("redis unavailable, continuing without it", "error", err)
	}

	d.Producer = kafka.NewProducer(cfg.Kafka.Brokers, logger)
	d.closers = append(d.closers, d.Producer.Close)
	if err := d.Producer.CheckConnection(ctx); err != nil {
		logger.Warn("kafka unavailable, booking events will be dropped", "error", err)
	}

	if cfg.RabbitMQ.URL != "" {
		publisher := activity.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.ActivityQueue, logger)
		d.closers = append(d.closers, publisher.Close)
		d.Activity = publisher
	} else {
		d.Activity = activity.NewLogOnly(logger)
	}

	gateway := payment.NewBreakerGateway(
		payment.NewStripeGateway(cfg.Stripe.APIKey, cfg.Payment.Currency),
		payment.BreakerSettings{
			FailureThreshold: cfg.Payment.BreakerFailureThreshold,
			OpenTimeout:      time.Duration(cfg.Payment.BreakerOpenSeconds) * time.Second,
			HalfOpenRequests: cfg.Payment.BreakerHalfOpenRequests,
		},
		logger,
	)

	d.Destinations = destinations.NewDestinationService(repository.NewDestinationRepository(pool), d.Cache, logger)
	d.Bookings = booking.NewBookingService(
		repository.NewBookingRepository(pool),
		d.Destinations,
		gateway,
		d.Producer,
		cfg.Kafka.BookingTopic,
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		booking.WithLocker(d.Cache, cfg.Booking.LockTTL()),
		booking.WithCalculator(pricing.NewCalculator(cfg.Booking.UpgradeCatalog())),
		booking.WithActivityLogger(d.Activity),
		booking.WithLogger(logger),
	)
	return d, nil
}

// Close releases connections in reverse order of opening.
func (d *Deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		_ = d.closers[i]()
	}
}
