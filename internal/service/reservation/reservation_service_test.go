package reservation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/readyflight/reservations/internal/domain"
	"github.com/readyflight/reservations/internal/reference"
	"github.com/readyflight/reservations/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) AcquireSeatHold(ctx context.Context, flightNumber, seat string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, flightNumber, seat, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) ReleaseSeatHold(ctx context.Context, flightNumber, seat string) error {
	args := m.Called(ctx, flightNumber, seat)
	return args.Error(0)
}

// ledgerFailStore wraps the memory store and fails every booking write, for
// exercising the allocation rollback path.
type ledgerFailStore struct {
	*repository.MemoryStore
	err error
}

type failingBookings struct {
	repository.BookingRepository
	err error
}

func (f *failingBookings) Create(ctx context.Context, booking *domain.Booking) error {
	return f.err
}

func (s *ledgerFailStore) Bookings() repository.BookingRepository {
	return &failingBookings{s.MemoryStore.Bookings(), s.err}
}

func (s *ledgerFailStore) WithinTx(ctx context.Context, flightNumber string, fn func(repository.FlightRepository, repository.BookingRepository) error) error {
	return s.MemoryStore.WithinTx(ctx, flightNumber, func(flights repository.FlightRepository, bookings repository.BookingRepository) error {
		return fn(flights, &failingBookings{bookings, s.err})
	})
}

func newStore(t *testing.T, seats ...string) *repository.MemoryStore {
	t.Helper()
	store := repository.NewMemoryStore(reference.NewSequential("RF", 10000))
	flight := &domain.Flight{
		Number:        "RF100",
		Origin:        "Karachi",
		Destination:   "Lahore",
		DepartureTime: time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC),
		ArrivalTime:   time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
		PriceCents:    10000,
		Status:        domain.FlightStatusScheduled,
		FreeSeats:     seats,
	}
	assert.NoError(t, store.Flights().Create(context.Background(), flight))
	return store
}

func freeSeats(t *testing.T, store repository.Store, number string) []string {
	t.Helper()
	flight, err := store.Flights().GetByNumber(context.Background(), number)
	assert.NoError(t, err)
	return flight.FreeSeats
}

func TestReservationService_Book_Success(t *testing.T) {
	store := newStore(t, "1A", "1B")
	service := NewReservationService(store, nil, "", zap.NewNop())

	confirmation, err := service.Book(context.Background(), BookInput{
		FlightNumber:  "RF100",
		PassengerName: "Jane Doe",
	})

	assert.NoError(t, err)
	assert.Equal(t, "RF10000", confirmation.Reference)
	assert.Equal(t, "1A", confirmation.Seat)
	assert.Equal(t, "Karachi", confirmation.Origin)
	assert.Equal(t, "Lahore", confirmation.Destination)
	assert.Equal(t, int64(10000), confirmation.PriceCents)
	assert.Equal(t, []string{"1B"}, freeSeats(t, store, "RF100"))
}

func TestReservationService_Book_PreferredSeat(t *testing.T) {
	store := newStore(t, "1A", "1B", "2C")
	service := NewReservationService(store, nil, "", zap.NewNop())

	confirmation, err := service.Book(context.Background(), BookInput{
		FlightNumber:  "RF100",
		PassengerName: "Jane Doe",
		PreferredSeat: "2C",
	})

	assert.NoError(t, err)
	assert.Equal(t, "2C", confirmation.Seat)
	assert.ElementsMatch(t, []string{"1A", "1B"}, freeSeats(t, store, "RF100"))
}

func TestReservationService_Book_PriceCapturedAtBookingTime(t *testing.T) {
	store := newStore(t, "1A", "1B")
	service := NewReservationService(store, nil, "", zap.NewNop())
	ctx := context.Background()

	confirmation, err := service.Book(ctx, BookInput{FlightNumber: "RF100", PassengerName: "Jane Doe"})
	assert.NoError(t, err)

	_, err = store.Flights().UpdateField(ctx, "RF100", "price", "99999")
	assert.NoError(t, err)

	details, err := service.Get(ctx, confirmation.Reference)
	assert.NoError(t, err)
	assert.Equal(t, int64(10000), details.Booking.PriceCents)
	assert.Equal(t, int64(99999), details.Flight.PriceCents)
}

func TestReservationService_Book_FlightNotFound(t *testing.T) {
	store := newStore(t, "1A")
	service := NewReservationService(store, nil, "", zap.NewNop())

	_, err := service.Book(context.Background(), BookInput{FlightNumber: "RF999", PassengerName: "Jane Doe"})

	assert.ErrorIs(t, err, domain.ErrFlightNotFound)
}

func TestReservationService_Book_FullyBooked(t *testing.T) {
	store := newStore(t)
	service := NewReservationService(store, nil, "", zap.NewNop())

	_, err := service.Book(context.Background(), BookInput{FlightNumber: "RF100", PassengerName: "Jane Doe"})

	assert.ErrorIs(t, err, domain.ErrFlightFullyBooked)
	assert.Empty(t, freeSeats(t, store, "RF100"))
}

func TestReservationService_Book_InvalidInput(t *testing.T) {
	store := newStore(t, "1A")
	service := NewReservationService(store, nil, "", zap.NewNop())
	ctx := context.Background()

	_, err := service.Book(ctx, BookInput{PassengerName: "Jane Doe"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = service.Book(ctx, BookInput{FlightNumber: "RF100"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReservationService_Book_SeatReturnedOnLedgerFailure(t *testing.T) {
	store := newStore(t, "1A", "1B")
	ledgerErr := errors.New("ledger write failed")
	service := NewReservationService(&ledgerFailStore{store, ledgerErr}, nil, "", zap.NewNop())

	_, err := service.Book(context.Background(), BookInput{FlightNumber: "RF100", PassengerName: "Jane Doe"})

	assert.ErrorIs(t, err, ledgerErr)
	// no seat is lost to the failed attempt
	assert.ElementsMatch(t, []string{"1A", "1B"}, freeSeats(t, store, "RF100"))
}

func TestReservationService_Book_PublishesEvents(t *testing.T) {
	store := newStore(t, "1A")
	producer := &MockProducer{}
	producer.On("Publish", mock.Anything, "bookings", "RF10000", mock.Anything).Return(nil)
	producer.On("Publish", mock.Anything, "notifications", "RF10000", mock.Anything).Return(nil)

	service := NewReservationService(store, producer, "bookings", zap.NewNop(), WithNotificationsTopic("notifications"))

	_, err := service.Book(context.Background(), BookInput{FlightNumber: "RF100", PassengerName: "Jane Doe"})

	assert.NoError(t, err)
	producer.AssertExpectations(t)
}

func TestReservationService_Book_PublishFailureDoesNotFailBooking(t *testing.T) {
	store := newStore(t, "1A")
	producer := &MockProducer{}
	producer.On("Publish", mock.Anything, "bookings", mock.Anything, mock.Anything).Return(errors.New("kafka down"))

	service := NewReservationService(store, producer, "bookings", zap.NewNop())

	confirmation, err := service.Book(context.Background(), BookInput{FlightNumber: "RF100", PassengerName: "Jane Doe"})

	assert.NoError(t, err)
	assert.Equal(t, "RF10000", confirmation.Reference)
}

func TestReservationService_Book_SeatHold(t *testing.T) {
	store := newStore(t, "1A", "2C")
	cache := &MockCache{}
	cache.On("AcquireSeatHold", mock.Anything, "RF100", "2C", time.Minute).Return(true, nil)
	cache.On("ReleaseSeatHold", mock.Anything, "RF100", "2C").Return(nil)

	service := NewReservationService(store, nil, "", zap.NewNop(), WithSeatHolds(cache, time.Minute))

	confirmation, err := service.Book(context.Background(), BookInput{
		FlightNumber:  "RF100",
		PassengerName: "Jane Doe",
		PreferredSeat: "2C",
	})

	assert.NoError(t, err)
	assert.Equal(t, "2C", confirmation.Seat)
	cache.AssertExpectations(t)
}

func TestReservationService_Book_SeatHeldByAnother(t *testing.T) {
	store := newStore(t, "1A", "2C")
	cache := &MockCache{}
	cache.On("AcquireSeatHold", mock.Anything, "RF100", "2C", time.Minute).Return(false, nil)

	service := NewReservationService(store, nil, "", zap.NewNop(), WithSeatHolds(cache, time.Minute))

	_, err := service.Book(context.Background(), BookInput{
		FlightNumber:  "RF100",
		PassengerName: "Jane Doe",
		PreferredSeat: "2C",
	})

	assert.ErrorIs(t, err, ErrSeatHeld)
	assert.ElementsMatch(t, []string{"1A", "2C"}, freeSeats(t, store, "RF100"))
	cache.AssertNotCalled(t, "ReleaseSeatHold", mock.Anything, mock.Anything, mock.Anything)
}

func TestReservationService_Cancel_ReturnsSeat(t *testing.T) {
	store := newStore(t, "1A", "1B")
	service := NewReservationService(store, nil, "", zap.NewNop())
	ctx := context.Background()

	confirmation, err := service.Book(ctx, BookInput{FlightNumber: "RF100", PassengerName: "Jane Doe"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"1B"}, freeSeats(t, store, "RF100"))

	cancelled, err := service.Cancel(ctx, confirmation.Reference)
	assert.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, cancelled.Status)
	assert.ElementsMatch(t, []string{"1A", "1B"}, freeSeats(t, store, "RF100"))
}

func TestReservationService_Cancel_TwiceFailsOnce(t *testing.T) {
	store := newStore(t, "1A", "1B")
	service := NewReservationService(store, nil, "", zap.NewNop())
	ctx := context.Background()

	confirmation, err := service.Book(ctx, BookInput{FlightNumber: "RF100", PassengerName: "Jane Doe"})
	assert.NoError(t, err)

	_, err = service.Cancel(ctx, confirmation.Reference)
	assert.NoError(t, err)

	_, err = service.Cancel(ctx, confirmation.Reference)
	assert.ErrorIs(t, err, domain.ErrAlreadyCancelled)

	// the seat came back exactly once
	assert.Len(t, freeSeats(t, store, "RF100"), 2)
}

func TestReservationService_Cancel_NotFound(t *testing.T) {
	store := newStore(t, "1A")
	service := NewReservationService(store, nil, "", zap.NewNop())

	_, err := service.Cancel(context.Background(), "RF99999")

	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
}

func TestReservationService_Get(t *testing.T) {
	store := newStore(t, "1A")
	service := NewReservationService(store, nil, "", zap.NewNop())
	ctx := context.Background()

	confirmation, err := service.Book(ctx, BookInput{FlightNumber: "RF100", PassengerName: "Jane Doe"})
	assert.NoError(t, err)

	details, err := service.Get(ctx, confirmation.Reference)
	assert.NoError(t, err)
	assert.Equal(t, "Jane Doe", details.Booking.PassengerName)
	assert.Equal(t, domain.BookingStatusConfirmed, details.Booking.Status)
	assert.NotNil(t, details.Flight)
	assert.Equal(t, "Karachi", details.Flight.Origin)

	_, err = service.Get(ctx, "RF99999")
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
}

func TestReservationService_EndToEnd_RoundTrip(t *testing.T) {
	store := newStore(t, "1A", "1B")
	service := NewReservationService(store, nil, "", zap.NewNop())
	ctx := context.Background()

	before := freeSeats(t, store, "RF100")

	confirmation, err := service.Book(ctx, BookInput{FlightNumber: "RF100", PassengerName: "Jane Doe"})
	assert.NoError(t, err)
	assert.Equal(t, "1A", confirmation.Seat)
	assert.Equal(t, []string{"1B"}, freeSeats(t, store, "RF100"))

	cancelled, err := service.Cancel(ctx, confirmation.Reference)
	assert.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, cancelled.Status)
	assert.ElementsMatch(t, before, freeSeats(t, store, "RF100"))
}
