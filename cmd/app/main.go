package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/travelbooking/api"
	"github.com/Domenick1991/travelbooking/config"
	"github.com/Domenick1991/travelbooking/internal/bootstrap"
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
	logger := bootstrap.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer deps.Close()

	handlers := bootstrap.Handlers{
		Destinations: api.NewDestinationHandler(deps.Destinations, logger),
		Bookings:     api.NewBookingHandler(deps.Bookings, logger),
		Payments:     api.NewPaymentHandler(deps.Bookings, api.StripeWebhookParser(cfg.Stripe.WebhookSecret), logger),
	}
	if err := bootstrap.Run(ctx, cfg, handlers, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
