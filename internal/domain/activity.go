package domain

import "time"

const (
	ActivityBookingCreated   = "booking_created"
	ActivityPaymentConfirmed = "payment_confirmed"
	ActivityPaymentFailed    = "payment_failed"
	ActivityBookingCancelled = "booking_cancelled"
	ActivityBookingCompleted = "booking_completed"
)

// ActivityEntry is one line of the append-only audit trail.
type ActivityEntry struct {
	UserID      int64          `json:"user_id"`
	Action      string         `json:"action"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
