package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/google/uuid"
)

// MemoryBookingRepository keeps bookings in process memory. It enforces the
// same active-trip uniqueness as the bookings table, so it can stand in for
// PostgreSQL in tests and local tooling.
type MemoryBookingRepository struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]domain.Booking
	now      func() time.Time
}

func NewMemoryBookingRepository() *MemoryBookingRepository {
	return &MemoryBookingRepository{
		bookings: make(map[uuid.UUID]domain.Booking),
		now:      time.Now,
	}
}

func (r *MemoryBookingRepository) CreatePending(_ context.Context, booking *domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.hasActiveLocked(booking.Key()) {
		return domain.Conflictf(domain.DuplicateTripReason)
	}
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	booking.Status = domain.BookingStatusPending
	booking.PaymentStatus = domain.PaymentStatusPending
	booking.CreatedAt = r.now().UTC()
	booking.UpdatedAt = booking.CreatedAt

	r.bookings[booking.ID] = clone(*booking)
	return nil
}

func (r *MemoryBookingRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, domain.NotFoundf("booking %s not found", id)
	}
	b = clone(b)
	return &b, nil
}

func (r *MemoryBookingRepository) ListByUser(_ context.Context, userID int64) ([]domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Booking, 0)
	for _, b := range r.bookings {
		if b.UserID == userID {
			out = append(out, clone(b))
		}
	}
	slices.SortFunc(out, func(a, b domain.Booking) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (r *MemoryBookingRepository) HasActiveDuplicate(_ context.Context, key domain.TripKey) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hasActiveLocked(key), nil
}

func (r *MemoryBookingRepository) UpdateStatus(_ context.Context, id uuid.UUID, expected, next domain.BookingStatus, payment domain.PaymentStatus) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, domain.NotFoundf("booking %s not found", id)
	}
	if b.Status != expected {
		return nil, domain.InvalidTransitionf("booking is already %s", b.Status)
	}
	b.Status = next
	b.PaymentStatus = payment
	b.UpdatedAt = r.now().UTC()
	r.bookings[id] = b

	b = clone(b)
	return &b, nil
}

func (r *MemoryBookingRepository) SetPaymentIntent(_ context.Context, id uuid.UUID, intentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok || b.Status != domain.BookingStatusPending ||
		(b.StripePaymentIntentID != nil && *b.StripePaymentIntentID != intentID) {
		return domain.Conflictf("booking %s is no longer pending or has another payment intent", id)
	}
	b.StripePaymentIntentID = &intentID
	b.UpdatedAt = r.now().UTC()
	r.bookings[id] = b
	return nil
}

func (r *MemoryBookingRepository) ListEndedBefore(_ context.Context, day time.Time) ([]domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := domain.DateOf(day)
	out := make([]domain.Booking, 0)
	for _, b := range r.bookings {
		if !b.Status.IsTerminal() && b.CheckOut.Before(cutoff) {
			out = append(out, clone(b))
		}
	}
	slices.SortFunc(out, func(a, b domain.Booking) int { return a.CheckOut.Compare(b.CheckOut) })
	return out, nil
}

func (r *MemoryBookingRepository) hasActiveLocked(key domain.TripKey) bool {
	for _, b := range r.bookings {
		if b.Status == domain.BookingStatusCancelled {
			continue
		}
		if b.UserID == key.UserID && b.DestinationID == key.DestinationID &&
			b.CheckIn.Equal(key.CheckIn) && b.CheckOut.Equal(key.CheckOut) {
			return true
		}
	}
	return false
}

func clone(b domain.Booking) domain.Booking {
	b.Upgrades = slices.Clone(b.Upgrades)
	return b
}

var _ BookingRepository = (*MemoryBookingRepository)(nil)
