package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/readyflight/reservations/internal/domain"
	"github.com/readyflight/reservations/internal/service/reservation"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrFlightNotFound),
		errors.Is(err, domain.ErrBookingNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateFlight),
		errors.Is(err, domain.ErrFlightFullyBooked),
		errors.Is(err, domain.ErrSeatPoolExhausted),
		errors.Is(err, domain.ErrAlreadyCancelled),
		errors.Is(err, domain.ErrSeatAlreadyFree),
		errors.Is(err, reservation.ErrSeatHeld):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidField):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func renderError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}
