package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository interface {
	CreatePending(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error)
	HasActiveDuplicate(ctx context.Context, key domain.TripKey) (bool, error)
	// UpdateStatus moves the booking to next only if it is still in expected.
	UpdateStatus(ctx context.Context, id uuid.UUID, expected, next domain.BookingStatus, payment domain.PaymentStatus) (*domain.Booking, error)
	SetPaymentIntent(ctx context.Context, id uuid.UUID, intentID string) error
	ListEndedBefore(ctx context.Context, day time.Time) ([]domain.Booking, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, user_id, destination_id, check_in, check_out, guests, travel_class, upgrades,
	base_amount, discount_amount, total_amount, applied_coupon_code, coupon_discount_percentage,
	status, payment_status, stripe_payment_intent_id, created_at, updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var (
		b        domain.Booking
		upgrades []string
	)
	if err := row.Scan(&b.ID, &b.UserID, &b.DestinationID, &b.CheckIn, &b.CheckOut, &b.Guests, &b.TravelClass, &upgrades,
		&b.BaseAmount, &b.DiscountAmount, &b.TotalAmount, &b.AppliedCouponCode, &b.CouponDiscountPercentage,
		&b.Status, &b.PaymentStatus, &b.StripePaymentIntentID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.Upgrades = make([]domain.Upgrade, len(upgrades))
	for i, u := range upgrades {
		b.Upgrades[i] = domain.Upgrade(u)
	}
	return &b, nil
}

func collectBookings(rows pgx.Rows) ([]domain.Booking, error) {
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// CreatePending inserts a new pending booking. The partial unique index on
// active trips turns a concurrent duplicate into a ConflictError.
func (r *PGBookingRepository) CreatePending(ctx context.Context, booking *domain.Booking) error {
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	booking.Status = domain.BookingStatusPending
	booking.PaymentStatus = domain.PaymentStatusPending

	err := r.db.QueryRow(ctx, `INSERT INTO bookings (id, user_id, destination_id, check_in, check_out, guests, travel_class, upgrades,
		base_amount, discount_amount, total_amount, applied_coupon_code, coupon_discount_percentage, status, payment_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at`,
		booking.ID, booking.UserID, booking.DestinationID, booking.CheckIn, booking.CheckOut, booking.Guests,
		string(booking.TravelClass), domain.UpgradeStrings(booking.Upgrades),
		booking.BaseAmount, booking.DiscountAmount, booking.TotalAmount, booking.AppliedCouponCode, booking.CouponDiscountPercentage,
		string(booking.Status), string(booking.PaymentStatus)).
		Scan(&booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		return translate(err)
	}
	return nil
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NotFoundf("booking %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

func (r *PGBookingRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return collectBookings(rows)
}

func (r *PGBookingRepository) HasActiveDuplicate(ctx context.Context, key domain.TripKey) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (
		SELECT 1 FROM bookings
		WHERE user_id=$1 AND destination_id=$2 AND check_in=$3 AND check_out=$4 AND status <> $5)`,
		key.UserID, key.DestinationID, key.CheckIn, key.CheckOut, string(domain.BookingStatusCancelled)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check duplicate booking: %w", err)
	}
	return exists, nil
}

func (r *PGBookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, expected, next domain.BookingStatus, payment domain.PaymentStatus) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `UPDATE bookings SET status=$1, payment_status=$2, updated_at=now()
		WHERE id=$3 AND status=$4
		RETURNING `+bookingColumns, string(next), string(payment), id, string(expected)))
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, wrapStoreError("update booking status", err)
	}

	var current domain.BookingStatus
	err = r.db.QueryRow(ctx, `SELECT status FROM bookings WHERE id=$1`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NotFoundf("booking %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("read booking status: %w", err)
	}
	return nil, domain.InvalidTransitionf("booking is already %s", current)
}

func (r *PGBookingRepository) SetPaymentIntent(ctx context.Context, id uuid.UUID, intentID string) error {
	res, err := r.db.Exec(ctx, `UPDATE bookings SET stripe_payment_intent_id=$1, updated_at=now()
		WHERE id=$2 AND status=$3 AND (stripe_payment_intent_id IS NULL OR stripe_payment_intent_id=$1)`,
		intentID, id, string(domain.BookingStatusPending))
	if err != nil {
		return fmt.Errorf("set payment intent: %w", err)
	}
	if res.RowsAffected() == 0 {
		return domain.Conflictf("booking %s is no longer pending or has another payment intent", id)
	}
	return nil
}

// ListEndedBefore returns active bookings whose check-out date is before day.
func (r *PGBookingRepository) ListEndedBefore(ctx context.Context, day time.Time) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE status IN ($1, $2) AND check_out < $3
		ORDER BY check_out`,
		string(domain.BookingStatusPending), string(domain.BookingStatusConfirmed), domain.DateOf(day))
	if err != nil {
		return nil, fmt.Errorf("list ended bookings: %w", err)
	}
	return collectBookings(rows)
}

var _ BookingRepository = (*PGBookingRepository)(nil)
