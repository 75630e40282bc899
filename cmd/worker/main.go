package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	kafkaGo "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/readyflight/reservations/config"
	"github.com/readyflight/reservations/internal/cache"
	"github.com/readyflight/reservations/internal/email"
	"github.com/readyflight/reservations/internal/kafka"
	"github.com/readyflight/reservations/internal/logging"
	"github.com/readyflight/reservations/internal/reference"
	"github.com/readyflight/reservations/internal/repository"
	"github.com/readyflight/reservations/internal/service/flights"
)

// The worker consumes booking notifications for passenger emails and
// periodically marks scheduled flights as departed once their departure time
// passes.
func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.New(cfg.Env)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	store := repository.NewPGStore(pool, reference.NewRandom(cfg.Booking.ReferencePrefix))
	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.FlightsCacheTTL)*time.Second)
	flightService := flights.NewFlightService(store.Flights(), redisCache, logger)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	sender := email.NewSender(logger)

	go func() {
		if err := consumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
			var event kafka.BookingEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				logger.Warn("decode booking event", zap.Error(err))
				return nil
			}
			return sender.Send(ctx, event)
		}); err != nil {
			logger.Warn("consumer stopped", zap.Error(err))
		}
	}()

	sweepTicker := time.NewTicker(time.Duration(cfg.Worker.DepartureSweepMinutes) * time.Minute)
	defer sweepTicker.Stop()

	for {
		select {
		case <-sweepTicker.C:
			departed, err := flightService.SweepDepartures(ctx, time.Now())
			if err != nil {
				logger.Warn("departure sweep", zap.Error(err))
				continue
			}
			if len(departed) > 0 {
				logger.Info("flights departed", zap.Strings("flights", departed))
			}
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		}
	}
}
