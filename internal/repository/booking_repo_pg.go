package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/readyflight/reservations/internal/domain"
	"github.com/readyflight/reservations/internal/reference"
)

const bookingColumns = `reference, flight_number, passenger_name, seat, price_cents, status, created_at, updated_at`

type PGBookingRepository struct {
	db  Querier
	gen reference.Generator
}

func NewBookingRepository(db Querier, gen reference.Generator) *PGBookingRepository {
	return &PGBookingRepository{db: db, gen: gen}
}

// Create inserts a confirmed booking under a freshly generated reference.
// Collisions with existing references are resolved by re-drawing; after
// maxRefAttempts the reference is derived from a UUID instead.
func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	booking.Status = domain.BookingStatusConfirmed

	for attempt := 0; ; attempt++ {
		if attempt < maxRefAttempts {
			booking.Reference = r.gen.Next()
		} else {
			booking.Reference = reference.FromUUID("RF")
		}

		err := r.db.QueryRow(ctx, `INSERT INTO bookings (reference, flight_number, passenger_name, seat, price_cents, status)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at, updated_at`,
			booking.Reference, booking.FlightNumber, booking.PassengerName, booking.Seat, booking.PriceCents, booking.Status).
			Scan(&booking.CreatedAt, &booking.UpdatedAt)
		if isUniqueViolation(err) && attempt <= maxRefAttempts {
			continue
		}
		return err
	}
}

func (r *PGBookingRepository) GetByReference(ctx context.Context, ref string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE reference=$1`, ref)
	return scanBooking(row, ref)
}

// Cancel flips the booking to CANCELLED and returns the updated record so the
// caller can release the seat. The status guard runs inside the same statement
// so a concurrent duplicate cancellation loses cleanly.
func (r *PGBookingRepository) Cancel(ctx context.Context, ref string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings SET status=$1, updated_at=now() WHERE reference=$2 AND status=$3 RETURNING `+bookingColumns,
		domain.BookingStatusCancelled, ref, domain.BookingStatusConfirmed)
	booking, err := scanBooking(row, ref)
	if err == nil {
		return booking, nil
	}
	if !errors.Is(err, domain.ErrBookingNotFound) {
		return nil, err
	}

	// Distinguish a missing booking from one already cancelled.
	current, getErr := r.GetByReference(ctx, ref)
	if getErr != nil {
		return nil, getErr
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrAlreadyCancelled, current.Reference)
}

func (r *PGBookingRepository) List(ctx context.Context, flightNumber string) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE ($1 = '' OR flight_number = $1)
		ORDER BY created_at`, flightNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(&b.Reference, &b.FlightNumber, &b.PassengerName, &b.Seat, &b.PriceCents, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func scanBooking(row pgx.Row, ref string) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(&b.Reference, &b.FlightNumber, &b.PassengerName, &b.Seat, &b.PriceCents, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrBookingNotFound, ref)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
