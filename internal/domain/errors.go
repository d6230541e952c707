package domain

import (
	"errors"
	"fmt"
)

// Business error kinds. Match them with errors.Is; the concrete *Error carries
// a reason that can be shown to the user as is.
var (
	ErrValidation        = errors.New("validation error")
	ErrConflict          = errors.New("conflict")
	ErrCoupon            = errors.New("coupon error")
	ErrNotFound          = errors.New("not found")
	ErrAuthorization     = errors.New("forbidden")
	ErrPayment           = errors.New("payment error")
	ErrInvalidTransition = errors.New("invalid transition")
)

type Error struct {
	Kind   error
	Reason string
}

func (e *Error) Error() string { return e.Reason }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

func Validationf(format string, args ...any) error {
	return newError(ErrValidation, format, args...)
}

func Conflictf(format string, args ...any) error {
	return newError(ErrConflict, format, args...)
}

func Couponf(format string, args ...any) error {
	return newError(ErrCoupon, format, args...)
}

func NotFoundf(format string, args ...any) error {
	return newError(ErrNotFound, format, args...)
}

func Forbiddenf(format string, args ...any) error {
	return newError(ErrAuthorization, format, args...)
}

// Paymentf reports a gateway failure. Payment errors are always retryable.
func Paymentf(format string, args ...any) error {
	return newError(ErrPayment, format, args...)
}

func InvalidTransitionf(format string, args ...any) error {
	return newError(ErrInvalidTransition, format, args...)
}

// IsBusiness reports whether err is one of the recoverable business errors,
// as opposed to an infrastructure failure.
func IsBusiness(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

// DuplicateTripReason is shown when an identical active booking exists.
const DuplicateTripReason = "you already have this trip booked for these dates"
