package api

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/Domenick1991/travelbooking/internal/payment"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func stubParser(event payment.WebhookEvent, err error) WebhookParser {
	return func(payload []byte, signature string) (payment.WebhookEvent, error) {
		return event, err
	}
}

func webhookContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewBufferString(`{"id":"evt_1"}`))
	c.Request.Header.Set("Stripe-Signature", "t=1,v1=abc")
	return c, w
}

func TestPaymentHandler_webhook(t *testing.T) {
	succeeded := payment.WebhookEvent{
		ID:     "evt_1",
		Kind:   payment.EventSucceeded,
		Intent: &payment.Intent{ID: "pi_1", Amount: 2040, Status: payment.IntentSucceeded},
	}

	tests := []struct {
		name     string
		parseErr error
		result   *domain.Booking
		err      error
		status   int
	}{
		{name: "applied", result: sampleBooking(domain.BookingStatusConfirmed), status: http.StatusOK},
		{name: "redelivery after cancel", err: domain.InvalidTransitionf("booking is already cancelled"), status: http.StatusOK},
		{name: "unknown booking", err: domain.NotFoundf("booking not found"), status: http.StatusOK},
		{name: "store down", err: errors.New("connection reset"), status: http.StatusInternalServerError},
		{name: "bad signature", parseErr: payment.ErrInvalidSignature, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockBookingUseCase{}
			if tt.parseErr == nil {
				if tt.result != nil {
					mockService.On("HandlePaymentResult", mock.Anything, succeeded).Return(tt.result, nil)
				} else {
					mockService.On("HandlePaymentResult", mock.Anything, succeeded).Return(nil, tt.err)
				}
			}
			handler := NewPaymentHandler(mockService, stubParser(succeeded, tt.parseErr), nil)

			c, w := webhookContext()
			handler.webhook(c)

			assert.Equal(t, tt.status, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}

func TestPaymentHandler_webhook_IgnoredEvent(t *testing.T) {
	mockService := &MockBookingUseCase{}
	ignored := payment.WebhookEvent{ID: "evt_2", Kind: payment.EventIgnored}
	mockService.On("HandlePaymentResult", mock.Anything, ignored).Return(nil, nil)
	handler := NewPaymentHandler(mockService, stubParser(ignored, nil), nil)

	c, w := webhookContext()
	handler.webhook(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

// Тест: слишком большое тело не обрезается молча, а отклоняется до проверки подписи
func TestPaymentHandler_webhook_BodyTooLarge(t *testing.T) {
	mockService := &MockBookingUseCase{}
	parsed := false
	parse := func(payload []byte, signature string) (payment.WebhookEvent, error) {
		parsed = true
		return payment.WebhookEvent{}, nil
	}
	handler := NewPaymentHandler(mockService, parse, nil)

	c, w := webhookContext()
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewReader(bytes.Repeat([]byte("x"), maxWebhookBody+1)))
	handler.webhook(c)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.False(t, parsed)
	mockService.AssertNotCalled(t, "HandlePaymentResult", mock.Anything, mock.Anything)
}

func TestPaymentHandler_webhook_BodyAtLimit(t *testing.T) {
	mockService := &MockBookingUseCase{}
	var got int
	parse := func(payload []byte, signature string) (payment.WebhookEvent, error) {
		got = len(payload)
		return payment.WebhookEvent{}, payment.ErrInvalidSignature
	}
	handler := NewPaymentHandler(mockService, parse, nil)

	c, w := webhookContext()
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewReader(bytes.Repeat([]byte("x"), maxWebhookBody)))
	handler.webhook(c)

	assert.Equal(t, maxWebhookBody, got)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
