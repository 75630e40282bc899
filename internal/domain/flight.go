package domain

import "time"

type FlightStatus string

const (
	FlightStatusScheduled FlightStatus = "SCHEDULED"
	FlightStatusCancelled FlightStatus = "CANCELLED"
	FlightStatusDeparted  FlightStatus = "DEPARTED"
)

// ValidFlightStatus reports whether s is one of the known status values.
func ValidFlightStatus(s FlightStatus) bool {
	switch s {
	case FlightStatusScheduled, FlightStatusCancelled, FlightStatusDeparted:
		return true
	}
	return false
}

// Flight is a scheduled route with a finite seat pool. FreeSeats holds the
// labels not currently assigned to a confirmed booking; a label is either in
// FreeSeats or on exactly one confirmed booking, never both.
type Flight struct {
	Number        string
	Origin        string
	Destination   string
	DepartureTime time.Time
	ArrivalTime   time.Time
	PriceCents    int64
	Status        FlightStatus
	FreeSeats     []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
