// Command booking-consumer appends every confirmed reservation published
// by the API to the booking log.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/iliyamo/dinner-theater-booking/internal/logging"
	"github.com/iliyamo/dinner-theater-booking/internal/queue"
)

func main() {
	_ = godotenv.Load()
	logger := logging.New(envOr("APP_ENV", "dev"), envOr("LOG_LEVEL", "info"))

	url := envOr("RABBITMQ_URL", os.Getenv("AMQP_URL"))
	if url == "" {
		logger.Fatal().Msg("RABBITMQ_URL is required")
	}
	dir := envOr("BOOKING_LOG_DIR", "logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Fatal().Err(err).Str("dir", dir).Msg("create booking log dir")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumer := queue.NewConsumer(url, queue.NewBookingLog(dir, logging.Component(logger, "booking-log")), logging.Component(logger, "consumer"))
	logger.Info().Str("queue", queue.ReservationConfirmedQueue).Msg("consumer starting")
	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("consumer stopped")
	}
	logger.Info().Msg("consumer stopped")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
