package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/readyflight/reservations/internal/service/reservation"
)

type BookingHandler struct {
	service reservation.ReservationUseCase
}

type bookRequest struct {
	FlightNumber  string `json:"flight_number"`
	PassengerName string `json:"passenger_name"`
	PreferredSeat string `json:"preferred_seat"`
}

type confirmationResponse struct {
	Reference     string `json:"reference"`
	FlightNumber  string `json:"flight_number"`
	PassengerName string `json:"passenger_name"`
	Seat          string `json:"seat"`
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureTime string `json:"departure_time"`
	ArrivalTime   string `json:"arrival_time"`
	PriceCents    int64  `json:"price_cents"`
}

type bookingResponse struct {
	Reference     string `json:"reference"`
	FlightNumber  string `json:"flight_number"`
	PassengerName string `json:"passenger_name"`
	Seat          string `json:"seat"`
	PriceCents    int64  `json:"price_cents"`
	Status        string `json:"status"`
	Origin        string `json:"origin,omitempty"`
	Destination   string `json:"destination,omitempty"`
	CreatedAt     string `json:"created_at"`
}

func NewBookingHandler(service reservation.ReservationUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.book)
	router.GET("/:reference", h.get)
	router.DELETE("/:reference", h.cancel)
}

func (h *BookingHandler) book(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	confirmation, err := h.service.Book(c.Request.Context(), reservation.BookInput{
		FlightNumber:  req.FlightNumber,
		PassengerName: req.PassengerName,
		PreferredSeat: req.PreferredSeat,
	})
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, confirmationResponse{
		Reference:     confirmation.Reference,
		FlightNumber:  confirmation.FlightNumber,
		PassengerName: confirmation.PassengerName,
		Seat:          confirmation.Seat,
		Origin:        confirmation.Origin,
		Destination:   confirmation.Destination,
		DepartureTime: confirmation.DepartureTime.Format(time.RFC3339),
		ArrivalTime:   confirmation.ArrivalTime.Format(time.RFC3339),
		PriceCents:    confirmation.PriceCents,
	})
}

func (h *BookingHandler) get(c *gin.Context) {
	reference := c.Param("reference")
	details, err := h.service.Get(c.Request.Context(), reference)
	if err != nil {
		renderError(c, err)
		return
	}

	resp := bookingResponse{
		Reference:     details.Booking.Reference,
		FlightNumber:  details.Booking.FlightNumber,
		PassengerName: details.Booking.PassengerName,
		Seat:          details.Booking.Seat,
		PriceCents:    details.Booking.PriceCents,
		Status:        string(details.Booking.Status),
		CreatedAt:     details.Booking.CreatedAt.Format(time.RFC3339),
	}
	if details.Flight != nil {
		resp.Origin = details.Flight.Origin
		resp.Destination = details.Flight.Destination
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) cancel(c *gin.Context) {
	reference := c.Param("reference")
	booking, err := h.service.Cancel(c.Request.Context(), reference)
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, bookingResponse{
		Reference:     booking.Reference,
		FlightNumber:  booking.FlightNumber,
		PassengerName: booking.PassengerName,
		Seat:          booking.Seat,
		PriceCents:    booking.PriceCents,
		Status:        string(booking.Status),
		CreatedAt:     booking.CreatedAt.Format(time.RFC3339),
	})
}
