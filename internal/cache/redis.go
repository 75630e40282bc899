package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/readyflight/reservations/config"
	"github.com/readyflight/reservations/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisCache holds the flight-search cache and short-lived seat holds. Seat
// holds guard a requested seat across instances while the booking write is in
// flight; the store transaction remains the source of truth.
type RedisCache struct {
	client     *redis.Client
	flightsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, flightsTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:     redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		flightsTTL: flightsTTL,
	}
}

func (c *RedisCache) GetFlights(ctx context.Context) ([]domain.Flight, error) {
	data, err := c.client.Get(ctx, flightsKey()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var flights []domain.Flight
	if err := json.Unmarshal(data, &flights); err != nil {
		return nil, err
	}
	return flights, nil
}

func (c *RedisCache) SetFlights(ctx context.Context, flights []domain.Flight) error {
	payload, err := json.Marshal(flights)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, flightsKey(), payload, c.flightsTTL).Err()
}

// InvalidateFlights drops the cached list after a catalog write.
func (c *RedisCache) InvalidateFlights(ctx context.Context) error {
	return c.client.Del(ctx, flightsKey()).Err()
}

func (c *RedisCache) AcquireSeatHold(ctx context.Context, flightNumber, seat string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, seatHoldKey(flightNumber, seat), "held", ttl).Result()
}

func (c *RedisCache) ReleaseSeatHold(ctx context.Context, flightNumber, seat string) error {
	return c.client.Del(ctx, seatHoldKey(flightNumber, seat)).Err()
}

func flightsKey() string {
	return "cache:flights"
}

func seatHoldKey(flightNumber, seat string) string {
	return fmt.Sprintf("hold:flight:%s:seat:%s", flightNumber, seat)
}
