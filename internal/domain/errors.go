package domain

import "errors"

// Failure taxonomy for the reservation core. All of these are recoverable at
// the caller boundary; handlers match with errors.Is and render the wrapped
// context (flight number, booking reference).
var (
	ErrFlightNotFound    = errors.New("flight not found")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrDuplicateFlight   = errors.New("flight already exists")
	ErrInvalidField      = errors.New("field is not updatable")
	ErrSeatPoolExhausted = errors.New("seat pool exhausted")
	ErrFlightFullyBooked = errors.New("flight fully booked")
	ErrAlreadyCancelled  = errors.New("booking already cancelled")
	ErrSeatAlreadyFree   = errors.New("seat already free")
	ErrInvalidInput      = errors.New("invalid input")
)
