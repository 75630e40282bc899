package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/readyflight/reservations/internal/reference"
)

// PGStore backs the reservation core with Postgres. WithinTx binds both
// repositories to one pgx transaction, so the seat-pool mutation and the
// ledger write commit or fail together; row locks on the flight serialize
// concurrent bookings of the same flight.
type PGStore struct {
	pool *pgxpool.Pool
	gen  reference.Generator
}

func NewPGStore(pool *pgxpool.Pool, gen reference.Generator) *PGStore {
	return &PGStore{pool: pool, gen: gen}
}

func (s *PGStore) Flights() FlightRepository {
	return NewFlightRepository(s.pool)
}

func (s *PGStore) Bookings() BookingRepository {
	return NewBookingRepository(s.pool, s.gen)
}

func (s *PGStore) WithinTx(ctx context.Context, _ string, fn func(FlightRepository, BookingRepository) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(NewFlightRepository(tx), NewBookingRepository(tx, s.gen)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

var _ Store = (*PGStore)(nil)
