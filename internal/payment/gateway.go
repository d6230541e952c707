// Package payment adapts an external card processor to the booking core.
package payment

import (
	"context"
	"errors"
)

type IntentStatus string

const (
	IntentSucceeded IntentStatus = "succeeded"
	IntentFailed    IntentStatus = "failed"
	// IntentProcessing covers every state in which the customer or the
	// processor still has to act.
	IntentProcessing IntentStatus = "processing"
)

// Intent is a processor-side payment for one booking. Amount is in whole
// currency units, the same unit as booking totals.
type Intent struct {
	ID           string
	ClientSecret string
	Amount       int64
	Currency     string
	Status       IntentStatus
	BookingID    string
}

type IntentRequest struct {
	BookingID string
	Amount    int64
	Metadata  map[string]string
}

type Gateway interface {
	// CreateIntent is idempotent per booking: repeating it for the same
	// BookingID returns the same intent.
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
}

type EventKind string

const (
	EventSucceeded EventKind = "succeeded"
	EventFailed    EventKind = "failed"
	EventIgnored   EventKind = "ignored"
)

// WebhookEvent is a verified processor notification about an intent.
type WebhookEvent struct {
	ID     string
	Kind   EventKind
	Intent *Intent
}

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrUnavailable is returned while the circuit breaker is open.
	ErrUnavailable = errors.New("payment provider unavailable")
)
