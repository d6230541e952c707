package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Domenick1991/travelbooking/config"
	"github.com/Domenick1991/travelbooking/internal/activity"
	"github.com/Domenick1991/travelbooking/internal/bootstrap"
	"github.com/Domenick1991/travelbooking/internal/email"
	"github.com/Domenick1991/travelbooking/internal/kafka"
	"github.com/Domenick1991/travelbooking/internal/repository"
	"github.com/Domenick1991/travelbooking/internal/service/booking"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := bootstrap.NewLogger(cfg).With("component", "worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer deps.Close()

	var wg sync.WaitGroup

	if len(cfg.Kafka.Brokers) > 0 {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic, logger)
		defer consumer.Close()
		sender := email.NewSender(logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Run(ctx, sender.Send); err != nil {
				logger.Error("notification consumer stopped", "error", err)
			}
		}()
	}

	if cfg.RabbitMQ.URL != "" {
		store := repository.NewActivityRepository(deps.Pool)
		activityConsumer := activity.NewConsumer(cfg.RabbitMQ.URL, cfg.RabbitMQ.ActivityQueue, store, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := activityConsumer.Run(ctx); err != nil {
				logger.Error("activity consumer stopped", "error", err)
			}
		}()
	}

	sweepCompletedTrips(ctx, deps.Bookings, time.Duration(cfg.Worker.CompletionSweepMinutes)*time.Minute, logger)
	wg.Wait()
	logger.Info("worker stopped")
}

// sweepCompletedTrips closes out ended trips on every tick until ctx is done.
func sweepCompletedTrips(ctx context.Context, svc booking.BookingUseCase, every time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		n, err := svc.CompleteEndedTrips(ctx)
		if err != nil {
			logger.Error("complete trips failed", "error", err)
		} else if n > 0 {
			logger.Info("completed trips", "count", n)
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}
