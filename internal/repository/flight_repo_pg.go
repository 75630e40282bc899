package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/readyflight/reservations/internal/domain"
	"github.com/readyflight/reservations/internal/seat"
)

// Querier is the subset of pgx used by the repositories. Both *pgxpool.Pool
// and pgx.Tx satisfy it, so the same repository code runs standalone or inside
// a store transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const flightColumns = `number, origin, destination, departure_time, arrival_time, price_cents, status, free_seats, created_at, updated_at`

type PGFlightRepository struct {
	db Querier
}

func NewFlightRepository(db Querier) *PGFlightRepository {
	return &PGFlightRepository{db: db}
}

func (r *PGFlightRepository) Create(ctx context.Context, flight *domain.Flight) error {
	err := r.db.QueryRow(ctx, `INSERT INTO flights (number, origin, destination, departure_time, arrival_time, price_cents, status, free_seats)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		flight.Number, flight.Origin, flight.Destination, flight.DepartureTime, flight.ArrivalTime,
		flight.PriceCents, flight.Status, flight.FreeSeats).
		Scan(&flight.CreatedAt, &flight.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateFlight, flight.Number)
	}
	return err
}

func (r *PGFlightRepository) GetByNumber(ctx context.Context, number string) (*domain.Flight, error) {
	row := r.db.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE number=$1`, number)
	return scanFlight(row, number)
}

func (r *PGFlightRepository) UpdateField(ctx context.Context, number, field, value string) (string, error) {
	row := r.db.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE number=$1 FOR UPDATE`, number)
	flight, err := scanFlight(row, number)
	if err != nil {
		return "", err
	}

	previous, err := applyFlightField(flight, field, value)
	if err != nil {
		return "", err
	}

	_, err = r.db.Exec(ctx, `UPDATE flights SET origin=$2, destination=$3, departure_time=$4, arrival_time=$5, price_cents=$6, status=$7, updated_at=now() WHERE number=$1`,
		number, flight.Origin, flight.Destination, flight.DepartureTime, flight.ArrivalTime, flight.PriceCents, flight.Status)
	if err != nil {
		return "", err
	}
	return previous, nil
}

func (r *PGFlightRepository) List(ctx context.Context, filter FlightFilter) ([]domain.Flight, error) {
	rows, err := r.db.Query(ctx, `SELECT `+flightColumns+` FROM flights
		WHERE ($1 = '' OR origin ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR destination ILIKE '%' || $2 || '%')
		ORDER BY departure_time`, filter.Origin, filter.Destination)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		var f domain.Flight
		if err := rows.Scan(&f.Number, &f.Origin, &f.Destination, &f.DepartureTime, &f.ArrivalTime, &f.PriceCents, &f.Status, &f.FreeSeats, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		flights = append(flights, f)
	}
	return flights, rows.Err()
}

func (r *PGFlightRepository) TakeSeat(ctx context.Context, number, preferred string) (string, error) {
	var pool []string
	if err := r.db.QueryRow(ctx, `SELECT free_seats FROM flights WHERE number=$1 FOR UPDATE`, number).Scan(&pool); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%w: %s", domain.ErrFlightNotFound, number)
		}
		return "", err
	}

	chosen, rest, err := seat.Allocate(pool, preferred)
	if err != nil {
		return "", fmt.Errorf("%w: flight %s", err, number)
	}

	if _, err := r.db.Exec(ctx, `UPDATE flights SET free_seats=$2, updated_at=now() WHERE number=$1`, number, rest); err != nil {
		return "", err
	}
	return chosen, nil
}

func (r *PGFlightRepository) ReturnSeat(ctx context.Context, number, seatLabel string) error {
	var pool []string
	if err := r.db.QueryRow(ctx, `SELECT free_seats FROM flights WHERE number=$1 FOR UPDATE`, number).Scan(&pool); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %s", domain.ErrFlightNotFound, number)
		}
		return err
	}

	updated, err := seat.Release(pool, seatLabel)
	if err != nil {
		return fmt.Errorf("%w: flight %s", err, number)
	}

	_, err = r.db.Exec(ctx, `UPDATE flights SET free_seats=$2, updated_at=now() WHERE number=$1`, number, updated)
	return err
}

func (r *PGFlightRepository) MarkDeparted(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := r.db.Query(ctx, `UPDATE flights SET status=$1, updated_at=now() WHERE status=$2 AND departure_time <= $3 RETURNING number`,
		domain.FlightStatusDeparted, domain.FlightStatusScheduled, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var departed []string
	for rows.Next() {
		var number string
		if err := rows.Scan(&number); err != nil {
			return nil, err
		}
		departed = append(departed, number)
	}
	return departed, rows.Err()
}

func scanFlight(row pgx.Row, number string) (*domain.Flight, error) {
	var f domain.Flight
	err := row.Scan(&f.Number, &f.Origin, &f.Destination, &f.DepartureTime, &f.ArrivalTime, &f.PriceCents, &f.Status, &f.FreeSeats, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrFlightNotFound, number)
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ FlightRepository = (*PGFlightRepository)(nil)
