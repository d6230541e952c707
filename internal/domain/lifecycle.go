package domain

import "time"

type BookingEvent string

const (
	EventPaymentSucceeded BookingEvent = "payment_succeeded"
	EventPaymentFailed    BookingEvent = "payment_failed"
	EventCancel           BookingEvent = "cancel"
	EventComplete         BookingEvent = "complete"
)

// Trigger is an event plus the facts its guard needs.
type Trigger struct {
	Event BookingEvent
	// At is the wall-clock time of the request; used by the complete guard.
	At time.Time
	// Amount is what the gateway reports as paid; used by the payment guard.
	Amount int64
}

// Transition is the outcome of applying a trigger. Changed is false for
// idempotent no-ops such as confirming an already confirmed booking.
type Transition struct {
	From          BookingStatus
	To            BookingStatus
	PaymentStatus PaymentStatus
	Changed       bool
}

// Next decides what trigger does to b without mutating it.
//
//	pending   --payment_succeeded--> confirmed (paid)
//	pending   --payment_failed-----> pending   (failed)
//	pending   --cancel-------------> cancelled
//	confirmed --cancel-------------> cancelled
//	pending   --complete-----------> completed   after check-out has passed
//	confirmed --complete-----------> completed   after check-out has passed
//	confirmed --payment_succeeded--> confirmed   no-op
//
// Anything else, including every event on cancelled or completed bookings,
// is an InvalidTransition error.
func Next(b *Booking, t Trigger) (Transition, error) {
	tr := Transition{From: b.Status, To: b.Status, PaymentStatus: b.PaymentStatus}

	if b.Status.IsTerminal() {
		return tr, InvalidTransitionf("booking is already %s", b.Status)
	}

	switch t.Event {
	case EventPaymentSucceeded:
		if t.Amount != b.TotalAmount {
			return tr, Paymentf("paid amount %d does not match booking total %d", t.Amount, b.TotalAmount)
		}
		if b.Status == BookingStatusConfirmed {
			return tr, nil
		}
		tr.To = BookingStatusConfirmed
		tr.PaymentStatus = PaymentStatusPaid
		tr.Changed = true
		return tr, nil

	case EventPaymentFailed:
		if b.Status != BookingStatusPending {
			return tr, InvalidTransitionf("booking is already %s and paid", b.Status)
		}
		tr.PaymentStatus = PaymentStatusFailed
		tr.Changed = b.PaymentStatus != PaymentStatusFailed
		return tr, nil

	case EventCancel:
		tr.To = BookingStatusCancelled
		tr.Changed = true
		return tr, nil

	case EventComplete:
		if !b.TripEnded(t.At) {
			return tr, InvalidTransitionf("trip has not ended yet, check-out is %s", b.CheckOut.Format(DateLayout))
		}
		tr.To = BookingStatusCompleted
		tr.Changed = true
		return tr, nil
	}

	return tr, InvalidTransitionf("unknown booking event %q", t.Event)
}
