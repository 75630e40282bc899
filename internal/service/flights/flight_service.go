package flights

import (
	"context"
	"fmt"
	"time"

	"github.com/readyflight/reservations/internal/domain"
	"github.com/readyflight/reservations/internal/repository"
	"github.com/readyflight/reservations/internal/seat"
	"go.uber.org/zap"
)

type FlightUseCase interface {
	Add(ctx context.Context, input AddFlightInput) (*domain.Flight, error)
	GetByNumber(ctx context.Context, number string) (*domain.Flight, error)
	UpdateField(ctx context.Context, number, field, value string) (*FieldChange, error)
	Search(ctx context.Context, filter repository.FlightFilter) ([]domain.Flight, error)
	SweepDepartures(ctx context.Context, now time.Time) ([]string, error)
}

type Cache interface {
	GetFlights(ctx context.Context) ([]domain.Flight, error)
	SetFlights(ctx context.Context, flights []domain.Flight) error
	InvalidateFlights(ctx context.Context) error
}

type AddFlightInput struct {
	Number        string    `json:"flight_number"`
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	DepartureTime time.Time `json:"departure_time"`
	ArrivalTime   time.Time `json:"arrival_time"`
	PriceCents    int64     `json:"price_cents"`
	Seats         []string  `json:"seats"`
}

// FieldChange echoes a staff update: the prior value is kept for audit
// display.
type FieldChange struct {
	Field    string `json:"field"`
	Previous string `json:"previous"`
	Value    string `json:"value"`
}

type FlightService struct {
	repo  repository.FlightRepository
	cache Cache
	log   *zap.Logger
}

func NewFlightService(repo repository.FlightRepository, cache Cache, log *zap.Logger) *FlightService {
	return &FlightService{repo: repo, cache: cache, log: log}
}

func (s *FlightService) Add(ctx context.Context, input AddFlightInput) (*domain.Flight, error) {
	if input.Number == "" || input.Origin == "" || input.Destination == "" {
		return nil, fmt.Errorf("%w: flight number, origin and destination are required", domain.ErrInvalidInput)
	}
	if input.PriceCents < 0 {
		return nil, fmt.Errorf("%w: price must be non-negative", domain.ErrInvalidInput)
	}
	seats := seat.Dedupe(input.Seats)
	if len(seats) == 0 {
		return nil, fmt.Errorf("%w: at least one seat label is required", domain.ErrInvalidInput)
	}

	flight := &domain.Flight{
		Number:        input.Number,
		Origin:        input.Origin,
		Destination:   input.Destination,
		DepartureTime: input.DepartureTime,
		ArrivalTime:   input.ArrivalTime,
		PriceCents:    input.PriceCents,
		Status:        domain.FlightStatusScheduled,
		FreeSeats:     seats,
	}
	if err := s.repo.Create(ctx, flight); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return flight, nil
}

func (s *FlightService) GetByNumber(ctx context.Context, number string) (*domain.Flight, error) {
	return s.repo.GetByNumber(ctx, number)
}

func (s *FlightService) UpdateField(ctx context.Context, number, field, value string) (*FieldChange, error) {
	previous, err := s.repo.UpdateField(ctx, number, field, value)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return &FieldChange{Field: field, Previous: previous, Value: value}, nil
}

// Search lists flights matching the filter. The unfiltered list is served
// cache-aside; filtered searches always hit the repository.
func (s *FlightService) Search(ctx context.Context, filter repository.FlightFilter) ([]domain.Flight, error) {
	unfiltered := filter == (repository.FlightFilter{})
	if unfiltered && s.cache != nil {
		if cached, err := s.cache.GetFlights(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	flights, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if unfiltered && s.cache != nil {
		if err := s.cache.SetFlights(ctx, flights); err != nil {
			s.log.Warn("cache flights", zap.Error(err))
		}
	}
	return flights, nil
}

// SweepDepartures marks scheduled flights whose departure time has passed as
// departed. Run periodically by the worker.
func (s *FlightService) SweepDepartures(ctx context.Context, now time.Time) ([]string, error) {
	departed, err := s.repo.MarkDeparted(ctx, now)
	if err != nil {
		return nil, err
	}
	if len(departed) > 0 {
		s.invalidate(ctx)
	}
	return departed, nil
}

func (s *FlightService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateFlights(ctx); err != nil {
		s.log.Warn("invalidate flight cache", zap.Error(err))
	}
}

var _ FlightUseCase = (*FlightService)(nil)
