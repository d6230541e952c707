package booking

import (
	"context"
	"time"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/Domenick1991/travelbooking/internal/payment"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock структуры

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) CreatePending(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) HasActiveDuplicate(ctx context.Context, key domain.TripKey) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, expected, next domain.BookingStatus, pay domain.PaymentStatus) (*domain.Booking, error) {
	args := m.Called(ctx, id, expected, next, pay)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) SetPaymentIntent(ctx context.Context, id uuid.UUID, intentID string) error {
	args := m.Called(ctx, id, intentID)
	return args.Error(0)
}

func (m *MockBookingRepository) ListEndedBefore(ctx context.Context, day time.Time) ([]domain.Booking, error) {
	args := m.Called(ctx, day)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

type MockDestinations struct {
	mock.Mock
}

func (m *MockDestinations) GetByID(ctx context.Context, id int64) (*domain.Destination, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Destination), args.Error(1)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateIntent(ctx context.Context, req payment.IntentRequest) (*payment.Intent, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Intent), args.Error(1)
}

func (m *MockGateway) GetIntent(ctx context.Context, id string) (*payment.Intent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Intent), args.Error(1)
}

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) AcquireBookingLock(ctx context.Context, key domain.TripKey, ttl time.Duration) (string, bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockLocker) ReleaseBookingLock(ctx context.Context, key domain.TripKey, token string) error {
	args := m.Called(ctx, key, token)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value any) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

type MockActivityLogger struct {
	mock.Mock
}

func (m *MockActivityLogger) Record(ctx context.Context, userID int64, action, description string, metadata map[string]any) {
	m.Called(ctx, userID, action, description, metadata)
}
