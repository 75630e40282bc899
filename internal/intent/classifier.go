// Package intent classifies free-text chat messages into a small tagged set
// so the chat facade can dispatch without free-form string matching spread
// across handlers.
package intent

import "strings"

type Intent int

const (
	Unknown Intent = iota
	FAQBaggage
	FAQWiFi
	FAQMeals
	FAQAirport
	FAQCheckIn
	FAQCancellation
	Schedule
	Booking
	Staff
)

func (i Intent) String() string {
	switch i {
	case FAQBaggage:
		return "faq_baggage"
	case FAQWiFi:
		return "faq_wifi"
	case FAQMeals:
		return "faq_meals"
	case FAQAirport:
		return "faq_airport"
	case FAQCheckIn:
		return "faq_checkin"
	case FAQCancellation:
		return "faq_cancellation"
	case Schedule:
		return "schedule"
	case Booking:
		return "booking"
	case Staff:
		return "staff"
	default:
		return "unknown"
	}
}

// keyword tables checked in order; the first hit wins. Schedule outranks
// Booking so "book me on the next scheduled flight" still surfaces times
// before seats.
var table = []struct {
	intent   Intent
	keywords []string
}{
	{FAQBaggage, []string{"bag", "baggage", "luggage"}},
	{FAQWiFi, []string{"wifi", "wi-fi", "internet", "connection"}},
	{FAQMeals, []string{"meal", "food", "drink", "beverage"}},
	{FAQAirport, []string{"airport", "terminal", "location"}},
	{FAQCheckIn, []string{"check-in", "checkin", "boarding"}},
	{FAQCancellation, []string{"refund", "policy"}},
	{Schedule, []string{"schedule", "timing", "departure", "arrival", "when"}},
	{Booking, []string{"book", "reserve", "reservation", "seat", "cancel", "confirmation"}},
}

// Classify maps a message to an intent. UserType "staff" always routes to
// Staff, mirroring the routing rule of the chat surface.
func Classify(message, userType string) Intent {
	if userType == "staff" {
		return Staff
	}

	lower := strings.ToLower(message)
	for _, entry := range table {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.intent
			}
		}
	}
	return Unknown
}
