package email

import (
	"context"

	"github.com/readyflight/reservations/internal/kafka"
	"go.uber.org/zap"
)

// Sender renders passenger notifications from booking events. The delivery
// backend is a log line for now; the interface stays the same when a real
// mail provider is plugged in.
type Sender struct {
	log *zap.Logger
}

func NewSender(log *zap.Logger) *Sender {
	return &Sender{log: log}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	s.log.Info("send booking notification",
		zap.String("type", event.Type),
		zap.String("reference", event.Reference),
		zap.String("passenger", event.PassengerName),
		zap.String("flight", event.FlightNumber),
		zap.String("seat", event.Seat),
	)
	return nil
}
