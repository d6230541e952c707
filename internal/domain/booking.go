package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire format of check-in and check-out dates.
const DateLayout = "2006-01-02"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// IsTerminal reports whether no further transitions are possible.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCancelled || s == BookingStatusCompleted
}

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

type TravelClass string

const (
	TravelClassEconomy  TravelClass = "economy"
	TravelClassBusiness TravelClass = "business"
)

// ParseTravelClass accepts "economy" or "business" in any case. An empty value means economy.
func ParseTravelClass(s string) (TravelClass, error) {
	switch TravelClass(strings.ToLower(strings.TrimSpace(s))) {
	case "", TravelClassEconomy:
		return TravelClassEconomy, nil
	case TravelClassBusiness:
		return TravelClassBusiness, nil
	default:
		return "", Validationf("travel class must be %q or %q, got %q", TravelClassEconomy, TravelClassBusiness, s)
	}
}

type Booking struct {
	ID            uuid.UUID
	UserID        int64
	DestinationID int64
	CheckIn       time.Time
	CheckOut      time.Time
	Guests        int
	TravelClass   TravelClass
	Upgrades      []Upgrade

	BaseAmount     int64
	DiscountAmount int64
	TotalAmount    int64

	// Frozen at booking time; later coupon changes on the destination do not apply.
	AppliedCouponCode        *string
	CouponDiscountPercentage *int

	Status                BookingStatus
	PaymentStatus         PaymentStatus
	StripePaymentIntentID *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Key identifies the trip for duplicate detection.
func (b *Booking) Key() TripKey {
	return TripKey{
		UserID:        b.UserID,
		DestinationID: b.DestinationID,
		CheckIn:       b.CheckIn,
		CheckOut:      b.CheckOut,
	}
}

func (b *Booking) Nights() int {
	return int(b.CheckOut.Sub(b.CheckIn) / (24 * time.Hour))
}

// TripEnded reports whether the check-out date lies strictly before the day of now.
func (b *Booking) TripEnded(now time.Time) bool {
	return b.CheckOut.Before(DateOf(now))
}

// TripKey is the uniqueness key for active bookings.
type TripKey struct {
	UserID        int64
	DestinationID int64
	CheckIn       time.Time
	CheckOut      time.Time
}

func (k TripKey) String() string {
	return fmt.Sprintf("%d:%d:%s:%s", k.UserID, k.DestinationID, k.CheckIn.Format(DateLayout), k.CheckOut.Format(DateLayout))
}

// ParseDate parses a YYYY-MM-DD calendar date as midnight UTC.
func ParseDate(field, value string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(value), time.UTC)
	if err != nil {
		return time.Time{}, Validationf("%s must be a date in YYYY-MM-DD format, got %q", field, value)
	}
	return t, nil
}

// DateOf truncates t to midnight UTC of its calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
