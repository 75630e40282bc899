package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/readyflight/reservations/internal/domain"
)

// FlightFilter narrows List results. Empty fields match everything; non-empty
// fields are case-insensitive substring matches.
type FlightFilter struct {
	Origin      string
	Destination string
}

func (f FlightFilter) matches(flight *domain.Flight) bool {
	if f.Origin != "" && !strings.Contains(strings.ToLower(flight.Origin), strings.ToLower(f.Origin)) {
		return false
	}
	if f.Destination != "" && !strings.Contains(strings.ToLower(flight.Destination), strings.ToLower(f.Destination)) {
		return false
	}
	return true
}

type FlightRepository interface {
	Create(ctx context.Context, flight *domain.Flight) error
	GetByNumber(ctx context.Context, number string) (*domain.Flight, error)
	UpdateField(ctx context.Context, number, field, value string) (previous string, err error)
	List(ctx context.Context, filter FlightFilter) ([]domain.Flight, error)
	TakeSeat(ctx context.Context, number, preferred string) (string, error)
	ReturnSeat(ctx context.Context, number, seat string) error
	MarkDeparted(ctx context.Context, now time.Time) ([]string, error)
}

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByReference(ctx context.Context, ref string) (*domain.Booking, error)
	Cancel(ctx context.Context, ref string) (*domain.Booking, error)
	List(ctx context.Context, flightNumber string) ([]domain.Booking, error)
}

// Store bundles both repositories and scopes mutations. WithinTx serializes
// fn against other mutations of the same flight: the postgres store runs fn in
// one transaction, the memory store holds that flight's mutex. The lock is
// only held across the in-memory or transactional mutation, never across
// external I/O.
type Store interface {
	Flights() FlightRepository
	Bookings() BookingRepository
	WithinTx(ctx context.Context, flightNumber string, fn func(FlightRepository, BookingRepository) error) error
}

// maxRefAttempts bounds reference re-draws before falling back to a
// uuid-derived suffix.
const maxRefAttempts = 5

// applyFlightField overwrites one mutable field on flight and returns the
// previous value rendered for the audit echo. Values arrive as strings and are
// parsed per field: timestamps RFC3339, price in integer cents, status one of
// the known enum values.
func applyFlightField(flight *domain.Flight, field, value string) (string, error) {
	switch field {
	case "origin":
		prev := flight.Origin
		flight.Origin = value
		return prev, nil
	case "destination":
		prev := flight.Destination
		flight.Destination = value
		return prev, nil
	case "departure_time":
		t, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return "", fmt.Errorf("%w: departure_time %q is not RFC3339", domain.ErrInvalidInput, value)
		}
		prev := flight.DepartureTime.Format(time.RFC3339)
		flight.DepartureTime = t
		return prev, nil
	case "arrival_time":
		t, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return "", fmt.Errorf("%w: arrival_time %q is not RFC3339", domain.ErrInvalidInput, value)
		}
		prev := flight.ArrivalTime.Format(time.RFC3339)
		flight.ArrivalTime = t
		return prev, nil
	case "price":
		cents, err := strconv.ParseInt(value, 10, 64)
		if err != nil || cents < 0 {
			return "", fmt.Errorf("%w: price %q must be non-negative integer cents", domain.ErrInvalidInput, value)
		}
		prev := strconv.FormatInt(flight.PriceCents, 10)
		flight.PriceCents = cents
		return prev, nil
	case "status":
		status := domain.FlightStatus(strings.ToUpper(value))
		if !domain.ValidFlightStatus(status) {
			return "", fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, value)
		}
		prev := string(flight.Status)
		flight.Status = status
		return prev, nil
	default:
		return "", fmt.Errorf("%w: %s", domain.ErrInvalidField, field)
	}
}
