package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/Domenick1991/travelbooking/internal/payment"
	"github.com/Domenick1991/travelbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 64 << 10

// WebhookParser verifies a gateway notification and decodes it.
type WebhookParser func(payload []byte, signature string) (payment.WebhookEvent, error)

// StripeWebhookParser checks notifications against the endpoint secret.
func StripeWebhookParser(secret string) WebhookParser {
	return func(payload []byte, signature string) (payment.WebhookEvent, error) {
		return payment.ParseWebhook(payload, signature, secret)
	}
}

type PaymentHandler struct {
	service booking.BookingUseCase
	parse   WebhookParser
	logger  *slog.Logger
}

func NewPaymentHandler(service booking.BookingUseCase, parse WebhookParser, logger *slog.Logger) *PaymentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PaymentHandler{service: service, parse: parse, logger: logger}
}

func (h *PaymentHandler) Register(router *gin.RouterGroup) {
	router.POST("/webhook", h.webhook)
}

// webhook acknowledges every verified notification the core understood,
// including ones that no longer apply. Only infrastructure failures ask the
// gateway to redeliver.
func (h *PaymentHandler) webhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.WarnContext(c.Request.Context(), "webhook body too large", "limit", tooLarge.Limit)
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "body too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	event, err := h.parse(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.logger.WarnContext(c.Request.Context(), "webhook rejected", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	ctx := c.Request.Context()
	b, err := h.service.HandlePaymentResult(ctx, event)
	switch {
	case err == nil:
		if b != nil {
			h.logger.InfoContext(ctx, "webhook applied", "event_id", event.ID, "booking_id", b.ID, "status", b.Status)
		}
	case domain.IsBusiness(err):
		h.logger.WarnContext(ctx, "webhook not applied", "event_id", event.ID, "error", err)
	default:
		h.logger.ErrorContext(ctx, "webhook failed", "event_id", event.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
