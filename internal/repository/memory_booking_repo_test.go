package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTrip(userID int64) *domain.Booking {
	return &domain.Booking{
		UserID:        userID,
		DestinationID: 1,
		CheckIn:       time.Date(2026, 12, 20, 0, 0, 0, 0, time.UTC),
		CheckOut:      time.Date(2026, 12, 27, 0, 0, 0, 0, time.UTC),
		Guests:        2,
		TravelClass:   domain.TravelClassEconomy,
		Upgrades:      []domain.Upgrade{domain.UpgradeSpaPackage},
		BaseAmount:    2100,
		TotalAmount:   2100,
	}
}

func TestMemoryBookingRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryBookingRepository()

	b := newTrip(7)
	require.NoError(t, repo.CreatePending(ctx, b))
	assert.Equal(t, domain.BookingStatusPending, b.Status)
	assert.Equal(t, domain.PaymentStatusPending, b.PaymentStatus)

	got, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.TotalAmount, got.TotalAmount)

	// returned copies do not alias stored state
	got.Upgrades[0] = domain.UpgradeSunsetYacht
	again, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.UpgradeSpaPackage, again.Upgrades[0])
}

func TestMemoryBookingRepository_DuplicateAndCancelledTrips(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryBookingRepository()

	first := newTrip(7)
	require.NoError(t, repo.CreatePending(ctx, first))

	err := repo.CreatePending(ctx, newTrip(7))
	assert.ErrorIs(t, err, domain.ErrConflict)

	// another user may book the same trip
	require.NoError(t, repo.CreatePending(ctx, newTrip(8)))

	_, err = repo.UpdateStatus(ctx, first.ID, domain.BookingStatusPending, domain.BookingStatusCancelled, domain.PaymentStatusPending)
	require.NoError(t, err)

	dup, err := repo.HasActiveDuplicate(ctx, first.Key())
	require.NoError(t, err)
	assert.False(t, dup)
	require.NoError(t, repo.CreatePending(ctx, newTrip(7)))
}

func TestMemoryBookingRepository_ConcurrentCreateAllowsOne(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryBookingRepository()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.CreatePending(ctx, newTrip(7))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				created++
			} else if assert.ErrorIs(t, err, domain.ErrConflict) {
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, 19, conflicts)
}

func TestMemoryBookingRepository_UpdateStatusCompareAndSet(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryBookingRepository()
	b := newTrip(7)
	require.NoError(t, repo.CreatePending(ctx, b))

	updated, err := repo.UpdateStatus(ctx, b.ID, domain.BookingStatusPending, domain.BookingStatusConfirmed, domain.PaymentStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusConfirmed, updated.Status)
	assert.Equal(t, domain.PaymentStatusPaid, updated.PaymentStatus)

	_, err = repo.UpdateStatus(ctx, b.ID, domain.BookingStatusPending, domain.BookingStatusCancelled, domain.PaymentStatusPending)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryBookingRepository_SetPaymentIntent(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryBookingRepository()
	b := newTrip(7)
	require.NoError(t, repo.CreatePending(ctx, b))

	require.NoError(t, repo.SetPaymentIntent(ctx, b.ID, "pi_1"))
	require.NoError(t, repo.SetPaymentIntent(ctx, b.ID, "pi_1"))
	assert.ErrorIs(t, repo.SetPaymentIntent(ctx, b.ID, "pi_2"), domain.ErrConflict)

	got, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, got.StripePaymentIntentID)
	assert.Equal(t, "pi_1", *got.StripePaymentIntentID)
}

func TestMemoryBookingRepository_ListEndedBefore(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryBookingRepository()

	ended := newTrip(7)
	require.NoError(t, repo.CreatePending(ctx, ended))
	cancelled := newTrip(8)
	require.NoError(t, repo.CreatePending(ctx, cancelled))
	_, err := repo.UpdateStatus(ctx, cancelled.ID, domain.BookingStatusPending, domain.BookingStatusCancelled, domain.PaymentStatusPending)
	require.NoError(t, err)

	// check-out day itself is not yet ended
	list, err := repo.ListEndedBefore(ctx, ended.CheckOut.Add(12*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = repo.ListEndedBefore(ctx, ended.CheckOut.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, ended.ID, list[0].ID)
}
