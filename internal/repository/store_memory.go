package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/readyflight/reservations/internal/domain"
	"github.com/readyflight/reservations/internal/reference"
	"github.com/readyflight/reservations/internal/seat"
)

// MemoryStore is the in-process implementation of Store. It substitutes for
// PGStore without changing any service code; tests and single-node
// deployments run on it. Mutations take the store mutex for O(1) map work,
// and WithinTx additionally holds a per-flight mutex so an orchestrated
// allocate-and-record or release-and-record is never interleaved with another
// mutation of the same flight.
type MemoryStore struct {
	mu       sync.RWMutex
	flights  map[string]*domain.Flight
	bookings map[string]*domain.Booking
	ledger   []string // booking references in creation order

	lockMu      sync.Mutex
	flightLocks map[string]*sync.Mutex

	gen reference.Generator
	now func() time.Time
}

func NewMemoryStore(gen reference.Generator) *MemoryStore {
	return &MemoryStore{
		flights:     make(map[string]*domain.Flight),
		bookings:    make(map[string]*domain.Booking),
		flightLocks: make(map[string]*sync.Mutex),
		gen:         gen,
		now:         time.Now,
	}
}

func (s *MemoryStore) Flights() FlightRepository   { return (*memFlightRepo)(s) }
func (s *MemoryStore) Bookings() BookingRepository { return (*memBookingRepo)(s) }

func (s *MemoryStore) WithinTx(ctx context.Context, flightNumber string, fn func(FlightRepository, BookingRepository) error) error {
	mu := s.flightLock(flightNumber)
	mu.Lock()
	defer mu.Unlock()
	return fn(s.Flights(), s.Bookings())
}

func (s *MemoryStore) flightLock(number string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	mu, ok := s.flightLocks[number]
	if !ok {
		mu = &sync.Mutex{}
		s.flightLocks[number] = mu
	}
	return mu
}

type memFlightRepo MemoryStore

func (r *memFlightRepo) Create(_ context.Context, flight *domain.Flight) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.flights[flight.Number]; ok {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateFlight, flight.Number)
	}
	flight.CreatedAt = r.now()
	flight.UpdatedAt = flight.CreatedAt
	stored := *flight
	stored.FreeSeats = slices.Clone(flight.FreeSeats)
	r.flights[flight.Number] = &stored
	return nil
}

func (r *memFlightRepo) GetByNumber(_ context.Context, number string) (*domain.Flight, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot(number)
}

func (r *memFlightRepo) UpdateField(_ context.Context, number, field, value string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	flight, ok := r.flights[number]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrFlightNotFound, number)
	}
	previous, err := applyFlightField(flight, field, value)
	if err != nil {
		return "", err
	}
	flight.UpdatedAt = r.now()
	return previous, nil
}

func (r *memFlightRepo) List(_ context.Context, filter FlightFilter) ([]domain.Flight, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	flights := make([]domain.Flight, 0)
	for _, f := range r.flights {
		if !filter.matches(f) {
			continue
		}
		copied := *f
		copied.FreeSeats = slices.Clone(f.FreeSeats)
		flights = append(flights, copied)
	}
	slices.SortFunc(flights, func(a, b domain.Flight) int {
		return a.DepartureTime.Compare(b.DepartureTime)
	})
	return flights, nil
}

func (r *memFlightRepo) TakeSeat(_ context.Context, number, preferred string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	flight, ok := r.flights[number]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrFlightNotFound, number)
	}
	chosen, rest, err := seat.Allocate(flight.FreeSeats, preferred)
	if err != nil {
		return "", fmt.Errorf("%w: flight %s", err, number)
	}
	flight.FreeSeats = rest
	flight.UpdatedAt = r.now()
	return chosen, nil
}

func (r *memFlightRepo) ReturnSeat(_ context.Context, number, seatLabel string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	flight, ok := r.flights[number]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrFlightNotFound, number)
	}
	updated, err := seat.Release(flight.FreeSeats, seatLabel)
	if err != nil {
		return fmt.Errorf("%w: flight %s", err, number)
	}
	flight.FreeSeats = updated
	flight.UpdatedAt = r.now()
	return nil
}

func (r *memFlightRepo) MarkDeparted(_ context.Context, now time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var departed []string
	for _, f := range r.flights {
		if f.Status == domain.FlightStatusScheduled && !f.DepartureTime.After(now) {
			f.Status = domain.FlightStatusDeparted
			f.UpdatedAt = r.now()
			departed = append(departed, f.Number)
		}
	}
	slices.Sort(departed)
	return departed, nil
}

func (r *memFlightRepo) snapshot(number string) (*domain.Flight, error) {
	flight, ok := r.flights[number]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrFlightNotFound, number)
	}
	copied := *flight
	copied.FreeSeats = slices.Clone(flight.FreeSeats)
	return &copied, nil
}

type memBookingRepo MemoryStore

func (r *memBookingRepo) Create(_ context.Context, booking *domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ref := ""
	for attempt := 0; ; attempt++ {
		if attempt < maxRefAttempts {
			ref = r.gen.Next()
		} else {
			ref = reference.FromUUID("RF")
		}
		if _, taken := r.bookings[ref]; !taken {
			break
		}
		if attempt > maxRefAttempts {
			return errors.New("booking reference space exhausted")
		}
	}

	booking.Reference = ref
	booking.Status = domain.BookingStatusConfirmed
	booking.CreatedAt = r.now()
	booking.UpdatedAt = booking.CreatedAt
	stored := *booking
	r.bookings[ref] = &stored
	r.ledger = append(r.ledger, ref)
	return nil
}

func (r *memBookingRepo) GetByReference(_ context.Context, ref string) (*domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	booking, ok := r.bookings[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrBookingNotFound, ref)
	}
	copied := *booking
	return &copied, nil
}

func (r *memBookingRepo) Cancel(_ context.Context, ref string) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking, ok := r.bookings[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrBookingNotFound, ref)
	}
	if booking.Status == domain.BookingStatusCancelled {
		return nil, fmt.Errorf("%w: %s", domain.ErrAlreadyCancelled, ref)
	}
	booking.Status = domain.BookingStatusCancelled
	booking.UpdatedAt = r.now()
	copied := *booking
	return &copied, nil
}

func (r *memBookingRepo) List(_ context.Context, flightNumber string) ([]domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bookings := make([]domain.Booking, 0)
	for _, ref := range r.ledger {
		b := r.bookings[ref]
		if flightNumber != "" && b.FlightNumber != flightNumber {
			continue
		}
		bookings = append(bookings, *b)
	}
	return bookings, nil
}

var (
	_ Store             = (*MemoryStore)(nil)
	_ FlightRepository  = (*memFlightRepo)(nil)
	_ BookingRepository = (*memBookingRepo)(nil)
)
