package domain

import "time"

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// Booking is a passenger's claim on one seat of one flight. PriceCents is
// captured at booking time and survives later price changes on the flight.
// Cancellation is a soft state change; bookings are never deleted.
type Booking struct {
	Reference     string
	FlightNumber  string
	PassengerName string
	Seat          string
	PriceCents    int64
	Status        BookingStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
