package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/readyflight/reservations/internal/domain"
	"github.com/readyflight/reservations/internal/kafka"
	"github.com/readyflight/reservations/internal/repository"
	"go.uber.org/zap"
)

// ErrSeatHeld reports a preferred seat currently held by another in-flight
// booking attempt.
var ErrSeatHeld = errors.New("seat is temporarily held")

type ReservationUseCase interface {
	Book(ctx context.Context, input BookInput) (*Confirmation, error)
	Cancel(ctx context.Context, ref string) (*domain.Booking, error)
	Get(ctx context.Context, ref string) (*Details, error)
}

// Cache provides cross-instance seat holds while a booking write is in
// flight. Optional; the store transaction alone is correct on a single node.
type Cache interface {
	AcquireSeatHold(ctx context.Context, flightNumber, seat string, ttl time.Duration) (bool, error)
	ReleaseSeatHold(ctx context.Context, flightNumber, seat string) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookInput struct {
	FlightNumber  string `json:"flight_number"`
	PassengerName string `json:"passenger_name"`
	PreferredSeat string `json:"preferred_seat"`
}

// Confirmation is the display snapshot returned from a successful booking.
// Route and price are captured at booking time.
type Confirmation struct {
	Reference     string
	FlightNumber  string
	PassengerName string
	Seat          string
	Origin        string
	Destination   string
	DepartureTime time.Time
	ArrivalTime   time.Time
	PriceCents    int64
}

// Details combines the ledger record with its flight for display. Flight is
// nil when the flight is no longer in the catalog.
type Details struct {
	Booking domain.Booking
	Flight  *domain.Flight
}

type ReservationService struct {
	store              repository.Store
	cache              Cache
	producer           Producer
	bookingTopic       string
	notificationsTopic string
	holdTTL            time.Duration
	log                *zap.Logger
}

type ReservationServiceOption func(*ReservationService)

func WithNotificationsTopic(topic string) ReservationServiceOption {
	return func(s *ReservationService) {
		s.notificationsTopic = topic
	}
}

func WithSeatHolds(cache Cache, ttl time.Duration) ReservationServiceOption {
	return func(s *ReservationService) {
		s.cache = cache
		s.holdTTL = ttl
	}
}

func NewReservationService(store repository.Store, producer Producer, bookingTopic string, log *zap.Logger, opts ...ReservationServiceOption) *ReservationService {
	service := &ReservationService{
		store:        store,
		producer:     producer,
		bookingTopic: bookingTopic,
		log:          log,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Book allocates a seat on the flight and records a confirmed booking. The
// two steps run under the store's per-flight scope; if the ledger write fails
// after allocation the seat is returned to the pool before the error
// surfaces, so no seat is ever lost to a failed attempt.
func (s *ReservationService) Book(ctx context.Context, input BookInput) (*Confirmation, error) {
	if input.FlightNumber == "" {
		return nil, fmt.Errorf("%w: flight number is required", domain.ErrInvalidInput)
	}
	if input.PassengerName == "" {
		return nil, fmt.Errorf("%w: passenger name is required", domain.ErrInvalidInput)
	}

	held := false
	if s.cache != nil && input.PreferredSeat != "" {
		ok, err := s.cache.AcquireSeatHold(ctx, input.FlightNumber, input.PreferredSeat, s.holdTTL)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: seat %s on flight %s", ErrSeatHeld, input.PreferredSeat, input.FlightNumber)
		}
		held = true
	}
	if held {
		defer func() {
			if err := s.cache.ReleaseSeatHold(ctx, input.FlightNumber, input.PreferredSeat); err != nil {
				s.log.Warn("release seat hold", zap.Error(err))
			}
		}()
	}

	var (
		booking *domain.Booking
		flight  *domain.Flight
	)
	err := s.store.WithinTx(ctx, input.FlightNumber, func(flights repository.FlightRepository, bookings repository.BookingRepository) error {
		f, err := flights.GetByNumber(ctx, input.FlightNumber)
		if err != nil {
			return err
		}

		seatLabel, err := flights.TakeSeat(ctx, input.FlightNumber, input.PreferredSeat)
		if errors.Is(err, domain.ErrSeatPoolExhausted) {
			return fmt.Errorf("%w: %s", domain.ErrFlightFullyBooked, input.FlightNumber)
		}
		if err != nil {
			return err
		}

		b := &domain.Booking{
			FlightNumber:  input.FlightNumber,
			PassengerName: input.PassengerName,
			Seat:          seatLabel,
			PriceCents:    f.PriceCents,
		}
		if err := bookings.Create(ctx, b); err != nil {
			if relErr := flights.ReturnSeat(ctx, input.FlightNumber, seatLabel); relErr != nil {
				s.log.Warn("return seat after failed ledger write", zap.String("flight", input.FlightNumber), zap.Error(relErr))
			}
			return err
		}

		booking = b
		flight = f
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.publish(ctx, "booking_created", booking); err != nil {
		s.log.Warn("publish booking_created", zap.String("reference", booking.Reference), zap.Error(err))
	}

	return &Confirmation{
		Reference:     booking.Reference,
		FlightNumber:  flight.Number,
		PassengerName: booking.PassengerName,
		Seat:          booking.Seat,
		Origin:        flight.Origin,
		Destination:   flight.Destination,
		DepartureTime: flight.DepartureTime,
		ArrivalTime:   flight.ArrivalTime,
		PriceCents:    booking.PriceCents,
	}, nil
}

// Cancel flips the booking to cancelled and releases its seat. A flight that
// has meanwhile left the catalog is not an error: the booking still ends up
// cancelled, there is just no pool to return the seat to.
func (s *ReservationService) Cancel(ctx context.Context, ref string) (*domain.Booking, error) {
	current, err := s.store.Bookings().GetByReference(ctx, ref)
	if err != nil {
		return nil, err
	}

	var cancelled *domain.Booking
	err = s.store.WithinTx(ctx, current.FlightNumber, func(flights repository.FlightRepository, bookings repository.BookingRepository) error {
		b, err := bookings.Cancel(ctx, ref)
		if err != nil {
			return err
		}

		if err := flights.ReturnSeat(ctx, b.FlightNumber, b.Seat); err != nil {
			switch {
			case errors.Is(err, domain.ErrFlightNotFound):
				s.log.Warn("flight gone, seat not released", zap.String("flight", b.FlightNumber), zap.String("seat", b.Seat))
			case errors.Is(err, domain.ErrSeatAlreadyFree):
				s.log.Warn("seat already free on release", zap.String("flight", b.FlightNumber), zap.String("seat", b.Seat))
			default:
				return err
			}
		}

		cancelled = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.publish(ctx, "booking_cancelled", cancelled); err != nil {
		s.log.Warn("publish booking_cancelled", zap.String("reference", cancelled.Reference), zap.Error(err))
	}
	return cancelled, nil
}

func (s *ReservationService) Get(ctx context.Context, ref string) (*Details, error) {
	booking, err := s.store.Bookings().GetByReference(ctx, ref)
	if err != nil {
		return nil, err
	}

	details := &Details{Booking: *booking}
	flight, err := s.store.Flights().GetByNumber(ctx, booking.FlightNumber)
	if err == nil {
		details.Flight = flight
	} else if !errors.Is(err, domain.ErrFlightNotFound) {
		return nil, err
	}
	return details, nil
}

func (s *ReservationService) publish(ctx context.Context, eventType string, booking *domain.Booking) error {
	if s.producer == nil || s.bookingTopic == "" {
		return nil
	}
	event := kafka.BookingEvent{
		Type:          eventType,
		Reference:     booking.Reference,
		FlightNumber:  booking.FlightNumber,
		PassengerName: booking.PassengerName,
		Seat:          booking.Seat,
		PriceCents:    booking.PriceCents,
		Status:        string(booking.Status),
		CreatedAt:     booking.CreatedAt,
	}
	if err := s.producer.Publish(ctx, s.bookingTopic, booking.Reference, event); err != nil {
		return err
	}
	if s.notificationsTopic != "" {
		return s.producer.Publish(ctx, s.notificationsTopic, booking.Reference, event)
	}
	return nil
}

var _ ReservationUseCase = (*ReservationService)(nil)
