package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/readyflight/reservations/internal/domain"
	"github.com/readyflight/reservations/internal/repository"
	"github.com/readyflight/reservations/internal/service/flights"
)

type FlightHandler struct {
	service flights.FlightUseCase
}

type addFlightRequest struct {
	FlightNumber  string   `json:"flight_number"`
	Origin        string   `json:"origin"`
	Destination   string   `json:"destination"`
	DepartureTime string   `json:"departure_time"`
	ArrivalTime   string   `json:"arrival_time"`
	PriceCents    int64    `json:"price_cents"`
	Seats         []string `json:"seats"`
}

type updateFieldRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type flightResponse struct {
	FlightNumber  string   `json:"flight_number"`
	Origin        string   `json:"origin"`
	Destination   string   `json:"destination"`
	DepartureTime string   `json:"departure_time"`
	ArrivalTime   string   `json:"arrival_time"`
	PriceCents    int64    `json:"price_cents"`
	Status        string   `json:"status"`
	FreeSeats     []string `json:"free_seats"`
}

func NewFlightHandler(service flights.FlightUseCase) *FlightHandler {
	return &FlightHandler{service: service}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("/", h.list)
	router.GET("/:number", h.get)
	router.POST("/", h.add)
	router.PATCH("/:number", h.updateField)
}

func (h *FlightHandler) list(c *gin.Context) {
	filter := repository.FlightFilter{
		Origin:      c.Query("origin"),
		Destination: c.Query("destination"),
	}
	list, err := h.service.Search(c.Request.Context(), filter)
	if err != nil {
		renderError(c, err)
		return
	}

	resp := make([]flightResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toFlightResponse(&list[i]))
	}
	c.JSON(http.StatusOK, gin.H{"flights": resp})
}

func (h *FlightHandler) get(c *gin.Context) {
	flight, err := h.service.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFlightResponse(flight))
}

func (h *FlightHandler) add(c *gin.Context) {
	var req addFlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	departure, err := time.Parse(time.RFC3339, req.DepartureTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "departure_time must be RFC3339"})
		return
	}
	arrival, err := time.Parse(time.RFC3339, req.ArrivalTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "arrival_time must be RFC3339"})
		return
	}

	flight, err := h.service.Add(c.Request.Context(), flights.AddFlightInput{
		Number:        req.FlightNumber,
		Origin:        req.Origin,
		Destination:   req.Destination,
		DepartureTime: departure,
		ArrivalTime:   arrival,
		PriceCents:    req.PriceCents,
		Seats:         req.Seats,
	})
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toFlightResponse(flight))
}

func (h *FlightHandler) updateField(c *gin.Context) {
	var req updateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	change, err := h.service.UpdateField(c.Request.Context(), c.Param("number"), req.Field, req.Value)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, change)
}

func toFlightResponse(f *domain.Flight) flightResponse {
	return flightResponse{
		FlightNumber:  f.Number,
		Origin:        f.Origin,
		Destination:   f.Destination,
		DepartureTime: f.DepartureTime.Format(time.RFC3339),
		ArrivalTime:   f.ArrivalTime.Format(time.RFC3339),
		PriceCents:    f.PriceCents,
		Status:        string(f.Status),
		FreeSeats:     f.FreeSeats,
	}
}
