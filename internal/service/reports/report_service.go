// Package reports is the read-only facade over catalog and ledger: booking
// listings and seat-utilization overviews for staff.
package reports

import (
	"context"

	"github.com/readyflight/reservations/internal/domain"
	"github.com/readyflight/reservations/internal/repository"
)

type ReportUseCase interface {
	Bookings(ctx context.Context, flightNumber string) ([]BookingReport, error)
	Utilization(ctx context.Context) (*UtilizationReport, error)
}

// BookingReport is a ledger row joined with its route when the flight is
// still in the catalog.
type BookingReport struct {
	domain.Booking
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

type FlightUtilization struct {
	Number      string              `json:"flight_number"`
	Status      domain.FlightStatus `json:"status"`
	Origin      string              `json:"origin"`
	Destination string              `json:"destination"`
	FreeSeats   int                 `json:"free_seats"`
	BookedSeats int                 `json:"booked_seats"`
	TotalSeats  int                 `json:"total_seats"`
}

type UtilizationReport struct {
	Flights       []FlightUtilization `json:"flights"`
	TotalFlights  int                 `json:"total_flights"`
	TotalBookings int                 `json:"total_bookings"`
	TotalSeats    int                 `json:"total_seats"`
	Utilization   float64             `json:"utilization"`
}

type ReportService struct {
	flights  repository.FlightRepository
	bookings repository.BookingRepository
}

func NewReportService(flights repository.FlightRepository, bookings repository.BookingRepository) *ReportService {
	return &ReportService{flights: flights, bookings: bookings}
}

func (s *ReportService) Bookings(ctx context.Context, flightNumber string) ([]BookingReport, error) {
	bookings, err := s.bookings.List(ctx, flightNumber)
	if err != nil {
		return nil, err
	}

	routes := make(map[string][2]string)
	reports := make([]BookingReport, 0, len(bookings))
	for _, b := range bookings {
		route, ok := routes[b.FlightNumber]
		if !ok {
			if flight, err := s.flights.GetByNumber(ctx, b.FlightNumber); err == nil {
				route = [2]string{flight.Origin, flight.Destination}
			}
			routes[b.FlightNumber] = route
		}
		reports = append(reports, BookingReport{Booking: b, Origin: route[0], Destination: route[1]})
	}
	return reports, nil
}

func (s *ReportService) Utilization(ctx context.Context) (*UtilizationReport, error) {
	flights, err := s.flights.List(ctx, repository.FlightFilter{})
	if err != nil {
		return nil, err
	}
	bookings, err := s.bookings.List(ctx, "")
	if err != nil {
		return nil, err
	}

	confirmed := make(map[string]int)
	for _, b := range bookings {
		if b.Status == domain.BookingStatusConfirmed {
			confirmed[b.FlightNumber]++
		}
	}

	report := &UtilizationReport{Flights: make([]FlightUtilization, 0, len(flights))}
	for _, f := range flights {
		booked := confirmed[f.Number]
		free := len(f.FreeSeats)
		report.Flights = append(report.Flights, FlightUtilization{
			Number:      f.Number,
			Status:      f.Status,
			Origin:      f.Origin,
			Destination: f.Destination,
			FreeSeats:   free,
			BookedSeats: booked,
			TotalSeats:  free + booked,
		})
		report.TotalBookings += booked
		report.TotalSeats += free + booked
	}
	report.TotalFlights = len(flights)
	if report.TotalSeats > 0 {
		report.Utilization = float64(report.TotalBookings) / float64(report.TotalSeats)
	}
	return report, nil
}

var _ ReportUseCase = (*ReportService)(nil)
