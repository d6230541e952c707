package pricing

import (
	"strings"

	"github.com/Domenick1991/travelbooking/internal/domain"
)

// ValidateCoupon matches code case-insensitively against the one coupon of
// dest. Coupons are never consumed, so the same code may be reused freely.
func ValidateCoupon(dest *domain.Destination, code string) (*domain.Coupon, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, domain.Couponf("coupon code is empty")
	}
	if dest.Coupon == nil || strings.TrimSpace(dest.Coupon.Code) == "" {
		return nil, domain.Couponf("no coupon available for this destination")
	}
	if !strings.EqualFold(code, strings.TrimSpace(dest.Coupon.Code)) {
		return nil, domain.Couponf("coupon %q is not valid for this destination, the valid code is %s", code, dest.Coupon.Code)
	}
	pct := dest.Coupon.DiscountPercentage
	if pct < 0 || pct > 100 {
		return nil, domain.Couponf("coupon %s is not available right now", dest.Coupon.Code)
	}
	return &domain.Coupon{Code: dest.Coupon.Code, DiscountPercentage: pct}, nil
}
