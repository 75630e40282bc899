package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/readyflight/reservations/internal/intent"
	"github.com/readyflight/reservations/internal/repository"
	"github.com/readyflight/reservations/internal/service/flights"
)

// ChatHandler answers free-text messages with canned policy text or live
// catalog data, dispatched on a classified intent.
type ChatHandler struct {
	flights flights.FlightUseCase
}

type chatRequest struct {
	Message  string `json:"message"`
	UserType string `json:"user_type"`
}

type chatResponse struct {
	Response  string `json:"response"`
	AgentType string `json:"agent_type"`
	SessionID string `json:"session_id"`
}

var faqAnswers = map[intent.Intent]string{
	intent.FAQBaggage:      "Baggage policy: one free carry-on bag under 22x14x9 inches and 50 lbs. Checked baggage starts at $25 for the first bag. No liquids over 3.4oz in carry-on.",
	intent.FAQWiFi:         "Free Wi-Fi is available on all ReadyFlight aircraft. Connect to the 'ReadyFlight-WiFi' network; streaming is supported at cruising altitude.",
	intent.FAQMeals:        "Complimentary snacks and beverages on all flights. Premium meal service is available on flights over 3 hours; special dietary options with advance notice.",
	intent.FAQAirport:      "ReadyFlight hub: Skyport International Airport, Terminal 4. Check-in counters open 3 hours before departure.",
	intent.FAQCheckIn:      "Online check-in opens 24 hours before departure. Arrive 2 hours early for domestic and 3 hours for international flights.",
	intent.FAQCancellation: "Free cancellation up to 24 hours before departure. Flight changes are allowed with the fare difference; refunds are processed within 5-7 business days.",
}

func NewChatHandler(flightSvc flights.FlightUseCase) *ChatHandler {
	return &ChatHandler{flights: flightSvc}
}

func (h *ChatHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.chat)
}

func (h *ChatHandler) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	classified := intent.Classify(req.Message, req.UserType)
	response, err := h.respond(c.Request.Context(), classified)
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, chatResponse{
		Response:  response,
		AgentType: agentFor(classified),
		SessionID: uuid.NewString(),
	})
}

func (h *ChatHandler) respond(ctx context.Context, classified intent.Intent) (string, error) {
	if answer, ok := faqAnswers[classified]; ok {
		return answer, nil
	}

	switch classified {
	case intent.Schedule:
		return h.schedule(ctx)
	case intent.Booking:
		return "I can help with reservations. Book with a flight number and passenger name, or give me a confirmation reference to check or cancel a booking.", nil
	case intent.Staff:
		return "Staff console: you can add flights, update a flight field, and pull booking and utilization reports.", nil
	default:
		return "I don't have specific information about that topic. Ask me about baggage, Wi-Fi, meals, check-in, schedules or bookings.", nil
	}
}

func (h *ChatHandler) schedule(ctx context.Context) (string, error) {
	list, err := h.flights.Search(ctx, repository.FlightFilter{})
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return "No flights are currently scheduled. Please check back later.", nil
	}

	var b strings.Builder
	b.WriteString("Available flights:\n")
	for _, f := range list {
		fmt.Fprintf(&b, "%s %s -> %s, departs %s, arrives %s, $%.2f, %d seats free\n",
			f.Number, f.Origin, f.Destination,
			f.DepartureTime.Format(time.RFC3339), f.ArrivalTime.Format(time.RFC3339),
			float64(f.PriceCents)/100, len(f.FreeSeats))
	}
	return b.String(), nil
}

func agentFor(classified intent.Intent) string {
	switch classified {
	case intent.Staff:
		return "Staff Control"
	case intent.Booking:
		return "Sky Assistant"
	case intent.Unknown:
		return "Sky Assistant"
	default:
		return "FAQ Agent"
	}
}
