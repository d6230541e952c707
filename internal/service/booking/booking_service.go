package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/Domenick1991/travelbooking/internal/activity"
	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/Domenick1991/travelbooking/internal/kafka"
	"github.com/Domenick1991/travelbooking/internal/payment"
	"github.com/Domenick1991/travelbooking/internal/repository"
	"github.com/Domenick1991/travelbooking/internal/service/cancellation"
	"github.com/Domenick1991/travelbooking/internal/service/pricing"
	"github.com/google/uuid"
)

type BookingUseCase interface {
	Quote(ctx context.Context, input QuoteInput) (*pricing.Quote, error)
	CreateBooking(ctx context.Context, actor domain.Actor, input CreateBookingInput) (*domain.Booking, error)
	GetBooking(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Booking, error)
	ListBookings(ctx context.Context, actor domain.Actor) ([]domain.Booking, error)
	CreatePaymentIntent(ctx context.Context, actor domain.Actor, id uuid.UUID, amount int64) (*PaymentIntentResult, error)
	ConfirmPayment(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Booking, error)
	HandlePaymentResult(ctx context.Context, event payment.WebhookEvent) (*domain.Booking, error)
	CancelBooking(ctx context.Context, actor domain.Actor, id uuid.UUID) (*CancelResult, error)
	CompleteBooking(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Booking, error)
	CompleteEndedTrips(ctx context.Context) (int, error)
}

// Destinations is the read-only catalog lookup.
type Destinations interface {
	GetByID(ctx context.Context, id int64) (*domain.Destination, error)
}

// Locker serialises creation requests for the same trip. It only narrows
// the race window; the store's uniqueness constraint is what guarantees a
// single active booking.
type Locker interface {
	AcquireBookingLock(ctx context.Context, key domain.TripKey, ttl time.Duration) (token string, ok bool, err error)
	ReleaseBookingLock(ctx context.Context, key domain.TripKey, token string) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value any) error
}

type QuoteInput struct {
	DestinationID int64    `json:"destination_id"`
	Guests        int      `json:"guests"`
	TravelClass   string   `json:"travel_class"`
	Upgrades      []string `json:"upgrades"`
	CouponCode    string   `json:"applied_coupon_code"`
}

type CreateBookingInput struct {
	DestinationID int64    `json:"destination_id"`
	CheckIn       string   `json:"check_in"`
	CheckOut      string   `json:"check_out"`
	Guests        int      `json:"guests"`
	TravelClass   string   `json:"travel_class"`
	Upgrades      []string `json:"upgrades"`
	CouponCode    string   `json:"applied_coupon_code"`
}

func (in CreateBookingInput) quote() QuoteInput {
	return QuoteInput{
		DestinationID: in.DestinationID,
		Guests:        in.Guests,
		TravelClass:   in.TravelClass,
		Upgrades:      in.Upgrades,
		CouponCode:    in.CouponCode,
	}
}

type PaymentIntentResult struct {
	IntentID     string
	ClientSecret string
	Amount       int64
}

type CancelResult struct {
	Booking      *domain.Booking
	RefundBucket cancellation.Bucket
}

type BookingService struct {
	bookings           repository.BookingRepository
	destinations       Destinations
	gateway            payment.Gateway
	producer           Producer
	bookingTopic       string
	notificationsTopic string

	calculator *pricing.Calculator
	policy     cancellation.Policy
	locker     Locker
	lockTTL    time.Duration
	activity   activity.Logger
	logger     *slog.Logger
	now        func() time.Time
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithLocker(locker Locker, ttl time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.locker = locker
		s.lockTTL = ttl
	}
}

func WithCalculator(calc *pricing.Calculator) BookingServiceOption {
	return func(s *BookingService) {
		s.calculator = calc
	}
}

func WithPolicy(policy cancellation.Policy) BookingServiceOption {
	return func(s *BookingService) {
		s.policy = policy
	}
}

func WithActivityLogger(l activity.Logger) BookingServiceOption {
	return func(s *BookingService) {
		s.activity = l
	}
}

func WithLogger(logger *slog.Logger) BookingServiceOption {
	return func(s *BookingService) {
		s.logger = logger
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

// NewBookingService wires the booking core. producer may be nil, in which
// case no events are published.
func NewBookingService(
	bookings repository.BookingRepository,
	destinations Destinations,
	gateway payment.Gateway,
	producer Producer,
	bookingTopic string,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:     bookings,
		destinations: destinations,
		gateway:      gateway,
		producer:     producer,
		bookingTopic: bookingTopic,
		calculator:   pricing.NewCalculator(nil),
		policy:       cancellation.DefaultPolicy(),
		lockTTL:      10 * time.Second,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	if service.logger == nil {
		service.logger = slog.Default()
	}
	if service.activity == nil {
		service.activity = activity.NewLogOnly(service.logger)
	}
	return service
}

type priced struct {
	dest     *domain.Destination
	class    domain.TravelClass
	upgrades []domain.Upgrade
	coupon   *domain.Coupon
}

// prepare validates a pricing request: class, guests, then coupon.
func (s *BookingService) prepare(ctx context.Context, in QuoteInput) (*priced, error) {
	class, err := domain.ParseTravelClass(in.TravelClass)
	if err != nil {
		return nil, err
	}
	dest, err := s.destinations.GetByID(ctx, in.DestinationID)
	if err != nil {
		return nil, err
	}
	if err := pricing.ValidateGuests(dest, in.Guests); err != nil {
		return nil, err
	}

	p := &priced{dest: dest, class: class}
	if in.CouponCode != "" {
		if p.coupon, err = pricing.ValidateCoupon(dest, in.CouponCode); err != nil {
			return nil, err
		}
	}

	var unknown []string
	p.upgrades, unknown = s.calculator.Catalog().Normalize(in.Upgrades)
	if len(unknown) > 0 {
		s.logger.DebugContext(ctx, "ignoring unknown upgrades", "destination_id", dest.ID, "upgrades", unknown)
	}
	return p, nil
}

func (s *BookingService) Quote(ctx context.Context, input QuoteInput) (*pricing.Quote, error) {
	p, err := s.prepare(ctx, input)
	if err != nil {
		return nil, err
	}
	q, err := s.calculator.Compute(p.dest, input.Guests, p.class, p.upgrades, p.coupon)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (s *BookingService) CreateBooking(ctx context.Context, actor domain.Actor, input CreateBookingInput) (*domain.Booking, error) {
	checkIn, err := domain.ParseDate("check_in", input.CheckIn)
	if err != nil {
		return nil, err
	}
	checkOut, err := domain.ParseDate("check_out", input.CheckOut)
	if err != nil {
		return nil, err
	}
	if !checkOut.After(checkIn) {
		return nil, domain.Validationf("check_out %s must be after check_in %s", input.CheckOut, input.CheckIn)
	}
	if checkIn.Before(domain.DateOf(s.now())) {
		return nil, domain.Validationf("check_in %s is in the past", input.CheckIn)
	}

	p, err := s.prepare(ctx, input.quote())
	if err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		ID:            uuid.New(),
		UserID:        actor.UserID,
		DestinationID: p.dest.ID,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		Guests:        input.Guests,
		TravelClass:   p.class,
	}
	key := booking.Key()

	if s.locker != nil {
		token, locked, err := s.locker.AcquireBookingLock(ctx, key, s.lockTTL)
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "booking lock unavailable, relying on store constraint", "error", err)
		case !locked:
			return nil, domain.Conflictf(domain.DuplicateTripReason)
		default:
			defer func() {
				if err := s.locker.ReleaseBookingLock(context.WithoutCancel(ctx), key, token); err != nil {
					s.logger.WarnContext(ctx, "release booking lock failed", "error", err)
				}
			}()
		}
	}

	dup, err := s.bookings.HasActiveDuplicate(ctx, key)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, domain.Conflictf(domain.DuplicateTripReason)
	}

	q, err := s.calculator.Compute(p.dest, input.Guests, p.class, p.upgrades, p.coupon)
	if err != nil {
		return nil, err
	}
	booking.Upgrades = q.Upgrades
	booking.BaseAmount = q.BaseAmount
	booking.DiscountAmount = q.DiscountAmount
	booking.TotalAmount = q.TotalAmount
	if q.Coupon != nil {
		code, percent := q.Coupon.Code, q.Coupon.DiscountPercentage
		booking.AppliedCouponCode = &code
		booking.CouponDiscountPercentage = &percent
	}

	if err := s.bookings.CreatePending(ctx, booking); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "booking created",
		"booking_id", booking.ID,
		"user_id", booking.UserID,
		"destination_id", booking.DestinationID,
		"total_amount", booking.TotalAmount,
	)
	s.activity.Record(ctx, booking.UserID, domain.ActivityBookingCreated,
		fmt.Sprintf("Booked %s for %d guests from %s to %s", p.dest.Name, booking.Guests, input.CheckIn, input.CheckOut),
		map[string]any{
			"booking_id":      booking.ID.String(),
			"destination_id":  booking.DestinationID,
			"total_amount":    booking.TotalAmount,
			"discount_amount": booking.DiscountAmount,
		})
	s.publish(ctx, kafka.NewBookingEvent(kafka.EventBookingCreated, booking, s.now()))
	return booking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := actor.CanAccess(b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *BookingService) ListBookings(ctx context.Context, actor domain.Actor) ([]domain.Booking, error) {
	return s.bookings.ListByUser(ctx, actor.UserID)
}

// CreatePaymentIntent starts or resumes the payment for a pending booking.
// The requested amount must equal the frozen total.
func (s *BookingService) CreatePaymentIntent(ctx context.Context, actor domain.Actor, id uuid.UUID, amount int64) (*PaymentIntentResult, error) {
	b, err := s.GetBooking(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if b.Status != domain.BookingStatusPending {
		return nil, domain.InvalidTransitionf("booking is already %s", b.Status)
	}
	if amount != b.TotalAmount {
		return nil, domain.Validationf("amount %d does not match booking total %d", amount, b.TotalAmount)
	}

	var intent *payment.Intent
	if b.StripePaymentIntentID != nil {
		intent, err = s.gateway.GetIntent(ctx, *b.StripePaymentIntentID)
	} else {
		intent, err = s.gateway.CreateIntent(ctx, payment.IntentRequest{
			BookingID: b.ID.String(),
			Amount:    b.TotalAmount,
			Metadata:  map[string]string{"user_id": strconv.FormatInt(b.UserID, 10)},
		})
	}
	if err != nil {
		return nil, s.gatewayError(ctx, b, err)
	}

	if err := s.bookings.SetPaymentIntent(ctx, b.ID, intent.ID); err != nil {
		return nil, err
	}
	return &PaymentIntentResult{IntentID: intent.ID, ClientSecret: intent.ClientSecret, Amount: b.TotalAmount}, nil
}

// ConfirmPayment asks the gateway how the booking's payment ended and applies
// the outcome. Confirming an already confirmed booking is a no-op.
func (s *BookingService) ConfirmPayment(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Booking, error) {
	b, err := s.GetBooking(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if b.Status.IsTerminal() {
		return nil, domain.InvalidTransitionf("booking is already %s", b.Status)
	}
	if b.StripePaymentIntentID == nil {
		return nil, domain.Paymentf("no payment has been started for booking %s", b.ID)
	}

	intent, err := s.gateway.GetIntent(ctx, *b.StripePaymentIntentID)
	if err != nil {
		return nil, s.gatewayError(ctx, b, err)
	}

	switch intent.Status {
	case payment.IntentSucceeded:
		return s.paymentSucceeded(ctx, actor, b, intent)
	case payment.IntentFailed:
		if _, err := s.paymentFailed(ctx, actor, b); err != nil {
			return nil, err
		}
		return nil, domain.Paymentf("payment for booking %s failed, please retry", b.ID)
	default:
		return nil, domain.Paymentf("payment for booking %s is still processing, please retry shortly", b.ID)
	}
}

// HandlePaymentResult applies a verified gateway notification. Redelivered
// notifications resolve to the same outcome.
func (s *BookingService) HandlePaymentResult(ctx context.Context, event payment.WebhookEvent) (*domain.Booking, error) {
	if event.Kind == payment.EventIgnored || event.Intent == nil {
		return nil, nil
	}

	id, err := uuid.Parse(event.Intent.BookingID)
	if err != nil {
		return nil, domain.Validationf("payment intent %s carries no booking id", event.Intent.ID)
	}
	actor := domain.SystemActor()
	b, err := s.GetBooking(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if b.StripePaymentIntentID == nil || *b.StripePaymentIntentID != event.Intent.ID {
		return nil, domain.Validationf("payment intent %s does not belong to booking %s", event.Intent.ID, b.ID)
	}

	if event.Kind == payment.EventSucceeded {
		return s.paymentSucceeded(ctx, actor, b, event.Intent)
	}
	return s.paymentFailed(ctx, actor, b)
}

func (s *BookingService) paymentSucceeded(ctx context.Context, actor domain.Actor, b *domain.Booking, intent *payment.Intent) (*domain.Booking, error) {
	updated, tr, err := s.transition(ctx, actor, b, domain.Trigger{Event: domain.EventPaymentSucceeded, At: s.now(), Amount: intent.Amount})
	if err != nil {
		return nil, err
	}
	if tr.Changed {
		s.logger.InfoContext(ctx, "payment confirmed", "booking_id", updated.ID, "user_id", updated.UserID)
		s.activity.Record(ctx, updated.UserID, domain.ActivityPaymentConfirmed,
			fmt.Sprintf("Paid %d for booking %s", updated.TotalAmount, updated.ID),
			map[string]any{"booking_id": updated.ID.String(), "payment_intent_id": intent.ID, "amount": intent.Amount})
		s.publish(ctx, kafka.NewBookingEvent(kafka.EventBookingConfirmed, updated, s.now()))
	}
	return updated, nil
}

func (s *BookingService) paymentFailed(ctx context.Context, actor domain.Actor, b *domain.Booking) (*domain.Booking, error) {
	updated, tr, err := s.transition(ctx, actor, b, domain.Trigger{Event: domain.EventPaymentFailed, At: s.now()})
	if err != nil {
		return nil, err
	}
	if tr.Changed {
		s.logger.InfoContext(ctx, "payment failed", "booking_id", updated.ID, "user_id", updated.UserID)
		s.activity.Record(ctx, updated.UserID, domain.ActivityPaymentFailed,
			fmt.Sprintf("Payment failed for booking %s", updated.ID),
			map[string]any{"booking_id": updated.ID.String()})
	}
	return updated, nil
}

// CancelBooking cancels a pending or confirmed booking and reports the refund
// bucket at the time of the request.
func (s *BookingService) CancelBooking(ctx context.Context, actor domain.Actor, id uuid.UUID) (*CancelResult, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	updated, _, err := s.transition(ctx, actor, b, domain.Trigger{Event: domain.EventCancel, At: now})
	if err != nil {
		return nil, err
	}
	bucket := s.policy.RefundBucket(now, updated.CheckIn)

	s.logger.InfoContext(ctx, "booking cancelled", "booking_id", updated.ID, "user_id", updated.UserID, "refund_bucket", bucket)
	s.activity.Record(ctx, updated.UserID, domain.ActivityBookingCancelled,
		fmt.Sprintf("Cancelled booking %s", updated.ID),
		map[string]any{"booking_id": updated.ID.String(), "refund_bucket": string(bucket), "cancelled_by": actor.UserID})

	event := kafka.NewBookingEvent(kafka.EventBookingCancelled, updated, now)
	event.RefundBucket = string(bucket)
	s.publish(ctx, event)

	return &CancelResult{Booking: updated, RefundBucket: bucket}, nil
}

// CompleteBooking marks a trip whose check-out has passed as completed.
func (s *BookingService) CompleteBooking(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.complete(ctx, actor, b)
}

func (s *BookingService) complete(ctx context.Context, actor domain.Actor, b *domain.Booking) (*domain.Booking, error) {
	updated, _, err := s.transition(ctx, actor, b, domain.Trigger{Event: domain.EventComplete, At: s.now()})
	if err != nil {
		return nil, err
	}
	s.activity.Record(ctx, updated.UserID, domain.ActivityBookingCompleted,
		fmt.Sprintf("Completed trip %s", updated.ID),
		map[string]any{"booking_id": updated.ID.String(), "previous_status": string(b.Status)})
	s.publish(ctx, kafka.NewBookingEvent(kafka.EventBookingCompleted, updated, s.now()))
	return updated, nil
}

// CompleteEndedTrips completes every active booking whose check-out date has
// passed. Bookings changed concurrently are skipped.
func (s *BookingService) CompleteEndedTrips(ctx context.Context) (int, error) {
	ended, err := s.bookings.ListEndedBefore(ctx, s.now())
	if err != nil {
		return 0, err
	}

	var (
		completed int
		errs      []error
	)
	for i := range ended {
		b := &ended[i]
		if _, err := s.complete(ctx, domain.SystemActor(), b); err != nil {
			if domain.IsBusiness(err) {
				s.logger.DebugContext(ctx, "skip trip completion", "booking_id", b.ID, "error", err)
				continue
			}
			errs = append(errs, fmt.Errorf("complete booking %s: %w", b.ID, err))
			continue
		}
		completed++
	}
	return completed, errors.Join(errs...)
}

// transition applies trigger through the state machine and persists it with
// a compare-and-set on the current status. A lost race is decided once more
// on fresh state, so a concurrent duplicate confirm becomes a no-op.
func (s *BookingService) transition(ctx context.Context, actor domain.Actor, b *domain.Booking, trigger domain.Trigger) (*domain.Booking, domain.Transition, error) {
	for attempt := 0; ; attempt++ {
		if err := actor.CanTrigger(b, trigger.Event); err != nil {
			return nil, domain.Transition{}, err
		}
		tr, err := domain.Next(b, trigger)
		if err != nil {
			return nil, tr, err
		}
		if !tr.Changed {
			return b, tr, nil
		}

		updated, err := s.bookings.UpdateStatus(ctx, b.ID, tr.From, tr.To, tr.PaymentStatus)
		if err == nil {
			return updated, tr, nil
		}
		if attempt > 0 || !errors.Is(err, domain.ErrInvalidTransition) {
			return nil, tr, err
		}

		if b, err = s.bookings.GetByID(ctx, b.ID); err != nil {
			return nil, tr, err
		}
	}
}

// gatewayError logs the processor failure and returns the retryable error
// shown to the caller. The booking is left untouched.
func (s *BookingService) gatewayError(ctx context.Context, b *domain.Booking, err error) error {
	if domain.IsBusiness(err) {
		return err
	}
	s.logger.ErrorContext(ctx, "payment gateway call failed", "booking_id", b.ID, "error", err)
	if errors.Is(err, payment.ErrUnavailable) {
		return domain.Paymentf("payment provider is temporarily unavailable, please retry later")
	}
	return domain.Paymentf("payment could not be processed, please retry")
}

// publish sends event to the booking topic and, if configured, the
// notifications topic. Failures are logged only.
func (s *BookingService) publish(ctx context.Context, event kafka.BookingEvent) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	if err := s.producer.Publish(ctx, s.bookingTopic, event.BookingID, event); err != nil {
		s.logger.WarnContext(ctx, "publish booking event failed", "type", event.Type, "booking_id", event.BookingID, "error", err)
		return
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, event.BookingID, event); err != nil {
			s.logger.WarnContext(ctx, "publish notification failed", "type", event.Type, "booking_id", event.BookingID, "error", err)
		}
	}
}

var _ BookingUseCase = (*BookingService)(nil)
