package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Domenick1991/travelbooking/internal/kafka"
)

// Sender turns booking events into customer notifications. Delivery is
// log-only; the message text is what a mail transport would send.
type Sender struct {
	logger *slog.Logger
}

func NewSender(logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{logger: logger}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	subject, ok := Subject(event)
	if !ok {
		s.logger.DebugContext(ctx, "no notification for event", "type", event.Type, "booking_id", event.BookingID)
		return nil
	}
	s.logger.InfoContext(ctx, "send notification",
		"user_id", event.UserID,
		"booking_id", event.BookingID,
		"subject", subject,
	)
	return nil
}

// Subject returns the notification subject for event, or false if the
// event type does not notify the customer.
func Subject(event kafka.BookingEvent) (string, bool) {
	switch event.Type {
	case kafka.EventBookingCreated:
		return fmt.Sprintf("Booking %s received: %s to %s, total %d", event.BookingID, event.CheckIn, event.CheckOut, event.TotalAmount), true
	case kafka.EventBookingConfirmed:
		return fmt.Sprintf("Booking %s confirmed, payment received", event.BookingID), true
	case kafka.EventBookingCancelled:
		if event.RefundBucket != "" {
			return fmt.Sprintf("Booking %s cancelled, refund: %s", event.BookingID, event.RefundBucket), true
		}
		return fmt.Sprintf("Booking %s cancelled", event.BookingID), true
	case kafka.EventBookingCompleted:
		return fmt.Sprintf("Thanks for travelling with us, booking %s is complete", event.BookingID), true
	}
	return "", false
}
