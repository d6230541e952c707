package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/gin-gonic/gin"
)

func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrCoupon):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAuthorization):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrPayment):
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders business errors with their reason. Anything else is
// logged and hidden behind a generic message.
func writeError(c *gin.Context, logger *slog.Logger, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		logger.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}

	body := gin.H{"error": err.Error()}
	if errors.Is(err, domain.ErrPayment) {
		body["retryable"] = true
	}
	c.JSON(status, body)
}
