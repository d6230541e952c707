package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(238000), toMinor(2380, "usd"))
	assert.Equal(t, int64(2380), fromMinor(238000, "usd"))
	assert.Equal(t, int64(2380), toMinor(2380, "jpy"))
	assert.Equal(t, int64(2380), fromMinor(2380, "jpy"))
}

func TestMapStatus(t *testing.T) {
	testCases := []struct {
		name     string
		pi       *stripe.PaymentIntent
		expected IntentStatus
	}{
		{name: "succeeded", pi: &stripe.PaymentIntent{Status: stripe.PaymentIntentStatusSucceeded}, expected: IntentSucceeded},
		{name: "canceled", pi: &stripe.PaymentIntent{Status: stripe.PaymentIntentStatusCanceled}, expected: IntentFailed},
		{
			name:     "declined attempt",
			pi:       &stripe.PaymentIntent{Status: stripe.PaymentIntentStatusRequiresPaymentMethod, LastPaymentError: &stripe.Error{Code: stripe.ErrorCodeCardDeclined}},
			expected: IntentFailed,
		},
		{name: "not yet attempted", pi: &stripe.PaymentIntent{Status: stripe.PaymentIntentStatusRequiresPaymentMethod}, expected: IntentProcessing},
		{name: "processing", pi: &stripe.PaymentIntent{Status: stripe.PaymentIntentStatusProcessing}, expected: IntentProcessing},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, mapStatus(tc.pi))
		})
	}
}

func TestStripeGateway_CreateIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		assert.Equal(t, "booking-b1", r.Header.Get("Idempotency-Key"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "238000", r.PostForm.Get("amount"))
		assert.Equal(t, "usd", r.PostForm.Get("currency"))
		assert.Equal(t, "b1", r.PostForm.Get("metadata[booking_id]"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_1","object":"payment_intent","amount":238000,"currency":"usd",
			"status":"requires_payment_method","client_secret":"pi_1_secret","metadata":{"booking_id":"b1"}}`))
	}))
	defer srv.Close()

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		HTTPClient:        srv.Client(),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	g := NewStripeGatewayWithBackend(backend, "sk_test_123", "USD")

	intent, err := g.CreateIntent(context.Background(), IntentRequest{BookingID: "b1", Amount: 2380})

	require.NoError(t, err)
	assert.Equal(t, "pi_1", intent.ID)
	assert.Equal(t, "pi_1_secret", intent.ClientSecret)
	assert.Equal(t, int64(2380), intent.Amount)
	assert.Equal(t, IntentProcessing, intent.Status)
	assert.Equal(t, "b1", intent.BookingID)
}

func signed(t *testing.T, payload, secret string) string {
	t.Helper()
	sp := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    secret,
		Timestamp: time.Now(),
		Scheme:    "v1",
	})
	return sp.Header
}

func TestParseWebhook(t *testing.T) {
	const secret = "whsec_test"
	succeeded := `{"id":"evt_1","object":"event","type":"payment_intent.succeeded","api_version":"2020-08-27",
		"data":{"object":{"id":"pi_1","object":"payment_intent","amount":238000,"currency":"usd","status":"succeeded","metadata":{"booking_id":"b1"}}}}`
	failed := `{"id":"evt_2","object":"event","type":"payment_intent.payment_failed","api_version":"2020-08-27",
		"data":{"object":{"id":"pi_1","object":"payment_intent","amount":238000,"currency":"usd","status":"requires_payment_method","metadata":{"booking_id":"b1"}}}}`
	other := `{"id":"evt_3","object":"event","type":"customer.created","api_version":"2020-08-27","data":{"object":{"id":"cus_1","object":"customer"}}}`

	t.Run("succeeded", func(t *testing.T) {
		ev, err := ParseWebhook([]byte(succeeded), signed(t, succeeded, secret), secret)
		require.NoError(t, err)
		assert.Equal(t, EventSucceeded, ev.Kind)
		assert.Equal(t, "pi_1", ev.Intent.ID)
		assert.Equal(t, int64(2380), ev.Intent.Amount)
		assert.Equal(t, "b1", ev.Intent.BookingID)
	})

	t.Run("failed", func(t *testing.T) {
		ev, err := ParseWebhook([]byte(failed), signed(t, failed, secret), secret)
		require.NoError(t, err)
		assert.Equal(t, EventFailed, ev.Kind)
		assert.Equal(t, IntentFailed, ev.Intent.Status)
	})

	t.Run("other event types are ignored", func(t *testing.T) {
		ev, err := ParseWebhook([]byte(other), signed(t, other, secret), secret)
		require.NoError(t, err)
		assert.Equal(t, EventIgnored, ev.Kind)
		assert.Nil(t, ev.Intent)
	})

	t.Run("bad signature", func(t *testing.T) {
		_, err := ParseWebhook([]byte(succeeded), signed(t, succeeded, "whsec_other"), secret)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})
}
