package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/webhook"
)

const metadataBookingID = "booking_id"

// Currencies Stripe expects without a minor unit.
var zeroDecimal = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true, "kmf": true, "krw": true, "mga": true,
	"pyg": true, "rwf": true, "ugx": true, "vnd": true, "vuv": true, "xaf": true, "xof": true, "xpf": true,
}

type StripeGateway struct {
	client   paymentintent.Client
	currency string
}

func NewStripeGateway(apiKey, currency string) *StripeGateway {
	return NewStripeGatewayWithBackend(stripe.GetBackend(stripe.APIBackend), apiKey, currency)
}

// NewStripeGatewayWithBackend lets callers point the adapter at another
// API endpoint.
func NewStripeGatewayWithBackend(backend stripe.Backend, apiKey, currency string) *StripeGateway {
	return &StripeGateway{
		client:   paymentintent.Client{B: backend, Key: apiKey},
		currency: strings.ToLower(currency),
	}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(toMinor(req.Amount, g.currency)),
		Currency: stripe.String(g.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.SetIdempotencyKey("booking-" + req.BookingID)
	params.AddMetadata(metadataBookingID, req.BookingID)
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.client.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create payment intent: %w", err)
	}
	return fromStripe(pi), nil
}

func (g *StripeGateway) GetIntent(ctx context.Context, id string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.client.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("stripe get payment intent: %w", err)
	}
	return fromStripe(pi), nil
}

// ParseWebhook verifies the Stripe-Signature header and extracts the
// payment intent from succeeded and failed events. Other event types come
// back as EventIgnored.
func ParseWebhook(payload []byte, signature, secret string) (WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return WebhookEvent{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := WebhookEvent{ID: event.ID, Kind: EventIgnored}
	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		out.Kind = EventSucceeded
	case stripe.EventTypePaymentIntentPaymentFailed:
		out.Kind = EventFailed
	default:
		return out, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return WebhookEvent{}, fmt.Errorf("decode payment intent: %w", err)
	}
	out.Intent = fromStripe(&pi)
	if out.Kind == EventFailed {
		out.Intent.Status = IntentFailed
	}
	return out, nil
}

func fromStripe(pi *stripe.PaymentIntent) *Intent {
	currency := strings.ToLower(string(pi.Currency))
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       fromMinor(pi.Amount, currency),
		Currency:     currency,
		Status:       mapStatus(pi),
		BookingID:    pi.Metadata[metadataBookingID],
	}
}

func mapStatus(pi *stripe.PaymentIntent) IntentStatus {
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return IntentSucceeded
	case stripe.PaymentIntentStatusCanceled:
		return IntentFailed
	case stripe.PaymentIntentStatusRequiresPaymentMethod:
		// a declined attempt sends the intent back to requires_payment_method
		if pi.LastPaymentError != nil {
			return IntentFailed
		}
	}
	return IntentProcessing
}

func toMinor(amount int64, currency string) int64 {
	if zeroDecimal[currency] {
		return amount
	}
	return amount * 100
}

func fromMinor(amount int64, currency string) int64 {
	if zeroDecimal[currency] {
		return amount
	}
	return amount / 100
}

var _ Gateway = (*StripeGateway)(nil)
