package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/Domenick1991/travelbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BookingHandler struct {
	service booking.BookingUseCase
	logger  *slog.Logger
}

type paymentIntentRequest struct {
	Amount int64 `json:"amount"`
}

type paymentIntentResponse struct {
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
}

type bookingResponse struct {
	ID                       string   `json:"id"`
	UserID                   int64    `json:"user_id"`
	DestinationID            int64    `json:"destination_id"`
	CheckIn                  string   `json:"check_in"`
	CheckOut                 string   `json:"check_out"`
	Guests                   int      `json:"guests"`
	TravelClass              string   `json:"travel_class"`
	Upgrades                 []string `json:"upgrades"`
	BaseAmount               int64    `json:"base_amount"`
	DiscountAmount           int64    `json:"discount_amount"`
	TotalAmount              int64    `json:"total_amount"`
	AppliedCouponCode        *string  `json:"applied_coupon_code,omitempty"`
	CouponDiscountPercentage *int     `json:"coupon_discount_percentage,omitempty"`
	Status                   string   `json:"status"`
	PaymentStatus            string   `json:"payment_status"`
	CreatedAt                string   `json:"created_at"`
}

type cancelResponse struct {
	Booking      bookingResponse `json:"booking"`
	RefundBucket string          `json:"refund_bucket"`
}

func NewBookingHandler(service booking.BookingUseCase, logger *slog.Logger) *BookingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BookingHandler{service: service, logger: logger}
}

// Register mounts the booking routes. The group must run behind Auth.
func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("", h.list)
	router.GET("/:id", h.get)
	router.POST("/:id/payment-intent", h.paymentIntent)
	router.POST("/:id/confirm", h.confirm)
	router.POST("/:id/cancel", h.cancel)
}

func (h *BookingHandler) RegisterQuotes(router *gin.RouterGroup) {
	router.POST("", h.quote)
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		ID:                       b.ID.String(),
		UserID:                   b.UserID,
		DestinationID:            b.DestinationID,
		CheckIn:                  b.CheckIn.Format(domain.DateLayout),
		CheckOut:                 b.CheckOut.Format(domain.DateLayout),
		Guests:                   b.Guests,
		TravelClass:              string(b.TravelClass),
		Upgrades:                 domain.UpgradeStrings(b.Upgrades),
		BaseAmount:               b.BaseAmount,
		DiscountAmount:           b.DiscountAmount,
		TotalAmount:              b.TotalAmount,
		AppliedCouponCode:        b.AppliedCouponCode,
		CouponDiscountPercentage: b.CouponDiscountPercentage,
		Status:                   string(b.Status),
		PaymentStatus:            string(b.PaymentStatus),
		CreatedAt:                b.CreatedAt.Format(time.RFC3339),
	}
}

func (h *BookingHandler) quote(c *gin.Context) {
	var req booking.QuoteInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	q, err := h.service.Quote(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (h *BookingHandler) create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req booking.CreateBookingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b, err := h.service.CreateBooking(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, toBookingResponse(b))
}

func (h *BookingHandler) list(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	bookings, err := h.service.ListBookings(c.Request.Context(), actor)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	out := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		out = append(out, toBookingResponse(&bookings[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *BookingHandler) get(c *gin.Context) {
	actor, id, ok := h.target(c)
	if !ok {
		return
	}

	b, err := h.service.GetBooking(c.Request.Context(), actor, id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) paymentIntent(c *gin.Context) {
	actor, id, ok := h.target(c)
	if !ok {
		return
	}
	var req paymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.service.CreatePaymentIntent(c.Request.Context(), actor, id, req.Amount)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, paymentIntentResponse{ClientSecret: res.ClientSecret, Amount: res.Amount})
}

func (h *BookingHandler) confirm(c *gin.Context) {
	actor, id, ok := h.target(c)
	if !ok {
		return
	}

	b, err := h.service.ConfirmPayment(c.Request.Context(), actor, id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	actor, id, ok := h.target(c)
	if !ok {
		return
	}

	res, err := h.service.CancelBooking(c.Request.Context(), actor, id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cancelResponse{
		Booking:      toBookingResponse(res.Booking),
		RefundBucket: string(res.RefundBucket),
	})
}

func (h *BookingHandler) actor(c *gin.Context) (domain.Actor, bool) {
	actor, ok := actorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	}
	return actor, ok
}

// target resolves the caller and the booking id from the path.
func (h *BookingHandler) target(c *gin.Context) (domain.Actor, uuid.UUID, bool) {
	actor, ok := h.actor(c)
	if !ok {
		return domain.Actor{}, uuid.Nil, false
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return domain.Actor{}, uuid.Nil, false
	}
	return actor, id, true
}
