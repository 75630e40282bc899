package flights

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/readyflight/reservations/internal/domain"
	"github.com/readyflight/reservations/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockFlightRepository struct {
	mock.Mock
}

func (m *MockFlightRepository) Create(ctx context.Context, flight *domain.Flight) error {
	args := m.Called(ctx, flight)
	return args.Error(0)
}

func (m *MockFlightRepository) GetByNumber(ctx context.Context, number string) (*domain.Flight, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) UpdateField(ctx context.Context, number, field, value string) (string, error) {
	args := m.Called(ctx, number, field, value)
	return args.String(0), args.Error(1)
}

func (m *MockFlightRepository) List(ctx context.Context, filter repository.FlightFilter) ([]domain.Flight, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) TakeSeat(ctx context.Context, number, preferred string) (string, error) {
	args := m.Called(ctx, number, preferred)
	return args.String(0), args.Error(1)
}

func (m *MockFlightRepository) ReturnSeat(ctx context.Context, number, seat string) error {
	args := m.Called(ctx, number, seat)
	return args.Error(0)
}

func (m *MockFlightRepository) MarkDeparted(ctx context.Context, now time.Time) ([]string, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetFlights(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockCache) SetFlights(ctx context.Context, flights []domain.Flight) error {
	args := m.Called(ctx, flights)
	return args.Error(0)
}

func (m *MockCache) InvalidateFlights(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func validInput() AddFlightInput {
	return AddFlightInput{
		Number:        "RF100",
		Origin:        "Karachi",
		Destination:   "Lahore",
		DepartureTime: time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC),
		ArrivalTime:   time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
		PriceCents:    10000,
		Seats:         []string{"1A", "1B"},
	}
}

func TestFlightService_Add_Success(t *testing.T) {
	repo := &MockFlightRepository{}
	cache := &MockCache{}
	service := NewFlightService(repo, cache, zap.NewNop())

	repo.On("Create", mock.Anything, mock.MatchedBy(func(f *domain.Flight) bool {
		return f.Number == "RF100" && f.Status == domain.FlightStatusScheduled
	})).Return(nil)
	cache.On("InvalidateFlights", mock.Anything).Return(nil)

	flight, err := service.Add(context.Background(), validInput())

	assert.NoError(t, err)
	assert.Equal(t, domain.FlightStatusScheduled, flight.Status)
	assert.Equal(t, []string{"1A", "1B"}, flight.FreeSeats)
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestFlightService_Add_DedupesSeats(t *testing.T) {
	repo := &MockFlightRepository{}
	service := NewFlightService(repo, nil, zap.NewNop())

	input := validInput()
	input.Seats = []string{"1A", "1B", "1A"}

	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	flight, err := service.Add(context.Background(), input)

	assert.NoError(t, err)
	assert.Equal(t, []string{"1A", "1B"}, flight.FreeSeats)
}

func TestFlightService_Add_Validation(t *testing.T) {
	service := NewFlightService(&MockFlightRepository{}, nil, zap.NewNop())
	ctx := context.Background()

	missingNumber := validInput()
	missingNumber.Number = ""
	_, err := service.Add(ctx, missingNumber)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	negativePrice := validInput()
	negativePrice.PriceCents = -1
	_, err = service.Add(ctx, negativePrice)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	noSeats := validInput()
	noSeats.Seats = nil
	_, err = service.Add(ctx, noSeats)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFlightService_Add_Duplicate(t *testing.T) {
	repo := &MockFlightRepository{}
	service := NewFlightService(repo, nil, zap.NewNop())

	repo.On("Create", mock.Anything, mock.Anything).Return(domain.ErrDuplicateFlight)

	_, err := service.Add(context.Background(), validInput())

	assert.ErrorIs(t, err, domain.ErrDuplicateFlight)
}

func TestFlightService_UpdateField_EchoesPrevious(t *testing.T) {
	repo := &MockFlightRepository{}
	cache := &MockCache{}
	service := NewFlightService(repo, cache, zap.NewNop())

	repo.On("UpdateField", mock.Anything, "RF100", "price", "12500").Return("10000", nil)
	cache.On("InvalidateFlights", mock.Anything).Return(nil)

	change, err := service.UpdateField(context.Background(), "RF100", "price", "12500")

	assert.NoError(t, err)
	assert.Equal(t, &FieldChange{Field: "price", Previous: "10000", Value: "12500"}, change)
	cache.AssertExpectations(t)
}

func TestFlightService_UpdateField_NotFoundSkipsInvalidate(t *testing.T) {
	repo := &MockFlightRepository{}
	cache := &MockCache{}
	service := NewFlightService(repo, cache, zap.NewNop())

	repo.On("UpdateField", mock.Anything, "RF999", "price", "1").Return("", domain.ErrFlightNotFound)

	_, err := service.UpdateField(context.Background(), "RF999", "price", "1")

	assert.ErrorIs(t, err, domain.ErrFlightNotFound)
	cache.AssertNotCalled(t, "InvalidateFlights", mock.Anything)
}

func TestFlightService_Search_CacheHit(t *testing.T) {
	repo := &MockFlightRepository{}
	cache := &MockCache{}
	service := NewFlightService(repo, cache, zap.NewNop())

	cached := []domain.Flight{{Number: "RF100"}}
	cache.On("GetFlights", mock.Anything).Return(cached, nil)

	flights, err := service.Search(context.Background(), repository.FlightFilter{})

	assert.NoError(t, err)
	assert.Equal(t, cached, flights)
	repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestFlightService_Search_CacheMiss(t *testing.T) {
	repo := &MockFlightRepository{}
	cache := &MockCache{}
	service := NewFlightService(repo, cache, zap.NewNop())

	listed := []domain.Flight{{Number: "RF100"}}
	cache.On("GetFlights", mock.Anything).Return(nil, nil)
	repo.On("List", mock.Anything, repository.FlightFilter{}).Return(listed, nil)
	cache.On("SetFlights", mock.Anything, listed).Return(nil)

	flights, err := service.Search(context.Background(), repository.FlightFilter{})

	assert.NoError(t, err)
	assert.Equal(t, listed, flights)
	cache.AssertExpectations(t)
}

func TestFlightService_Search_FilteredBypassesCache(t *testing.T) {
	repo := &MockFlightRepository{}
	cache := &MockCache{}
	service := NewFlightService(repo, cache, zap.NewNop())

	filter := repository.FlightFilter{Origin: "kara"}
	repo.On("List", mock.Anything, filter).Return([]domain.Flight{{Number: "RF100"}}, nil)

	flights, err := service.Search(context.Background(), filter)

	assert.NoError(t, err)
	assert.Len(t, flights, 1)
	cache.AssertNotCalled(t, "GetFlights", mock.Anything)
	cache.AssertNotCalled(t, "SetFlights", mock.Anything, mock.Anything)
}

func TestFlightService_Search_CacheErrorFallsThrough(t *testing.T) {
	repo := &MockFlightRepository{}
	cache := &MockCache{}
	service := NewFlightService(repo, cache, zap.NewNop())

	listed := []domain.Flight{{Number: "RF100"}}
	cache.On("GetFlights", mock.Anything).Return(nil, errors.New("redis down"))
	repo.On("List", mock.Anything, repository.FlightFilter{}).Return(listed, nil)
	cache.On("SetFlights", mock.Anything, listed).Return(errors.New("redis down"))

	flights, err := service.Search(context.Background(), repository.FlightFilter{})

	assert.NoError(t, err)
	assert.Equal(t, listed, flights)
}

func TestFlightService_SweepDepartures(t *testing.T) {
	repo := &MockFlightRepository{}
	cache := &MockCache{}
	service := NewFlightService(repo, cache, zap.NewNop())

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	repo.On("MarkDeparted", mock.Anything, now).Return([]string{"RF100"}, nil)
	cache.On("InvalidateFlights", mock.Anything).Return(nil)

	departed, err := service.SweepDepartures(context.Background(), now)

	assert.NoError(t, err)
	assert.Equal(t, []string{"RF100"}, departed)
	cache.AssertExpectations(t)
}

func TestFlightService_SweepDepartures_NothingToDo(t *testing.T) {
	repo := &MockFlightRepository{}
	cache := &MockCache{}
	service := NewFlightService(repo, cache, zap.NewNop())

	now := time.Now()
	repo.On("MarkDeparted", mock.Anything, now).Return([]string{}, nil)

	departed, err := service.SweepDepartures(context.Background(), now)

	assert.NoError(t, err)
	assert.Empty(t, departed)
	cache.AssertNotCalled(t, "InvalidateFlights", mock.Anything)
}
