package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{domain.Validationf("bad"), http.StatusBadRequest},
		{domain.Couponf("bad"), http.StatusBadRequest},
		{domain.Forbiddenf("no"), http.StatusForbidden},
		{domain.NotFoundf("gone"), http.StatusNotFound},
		{domain.Conflictf("dup"), http.StatusConflict},
		{domain.InvalidTransitionf("late"), http.StatusConflict},
		{domain.Paymentf("retry"), http.StatusPaymentRequired},
		{fmt.Errorf("wrapped: %w", domain.Conflictf("dup")), http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.status, statusOf(tt.err))
		})
	}
}
