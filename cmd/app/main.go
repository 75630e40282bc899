package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/readyflight/reservations/config"
	"github.com/readyflight/reservations/internal/bootstrap"
	"github.com/readyflight/reservations/internal/cache"
	"github.com/readyflight/reservations/internal/kafka"
	"github.com/readyflight/reservations/internal/logging"
	"github.com/readyflight/reservations/internal/reference"
	"github.com/readyflight/reservations/internal/repository"
	"github.com/readyflight/reservations/internal/service/flights"
	"github.com/readyflight/reservations/internal/service/reports"
	"github.com/readyflight/reservations/internal/service/reservation"
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

	logger := logging.New(cfg.Env)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gen := reference.NewRandom(cfg.Booking.ReferencePrefix)

	var store repository.Store
	switch cfg.Storage {
	case "memory":
		store = repository.NewMemoryStore(gen)
		logger.Info("using in-memory store")
	default:
		pool, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			logger.Fatal("connect postgres", zap.Error(err))
		}
		defer pool.Close()

		if err := repository.Migrate(ctx, pool); err != nil {
			logger.Fatal("migrate", zap.Error(err))
		}
		store = repository.NewPGStore(pool, gen)
	}

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.FlightsCacheTTL)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	flightService := flights.NewFlightService(store.Flights(), redisCache, logger)
	reservationService := reservation.NewReservationService(
		store,
		producer,
		cfg.Kafka.BookingTopic,
		logger,
		reservation.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		reservation.WithSeatHolds(redisCache, time.Duration(cfg.Booking.SeatHoldTTLSeconds)*time.Second),
	)
	reportService := reports.NewReportService(store.Flights(), store.Bookings())

	if err := bootstrap.Run(ctx, cfg, logger, flightService, reservationService, reportService); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
