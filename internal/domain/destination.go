package domain

// Coupon is the single discount code a destination may carry.
type Coupon struct {
	Code               string `json:"code"`
	DiscountPercentage int    `json:"discount_percentage"`
}

// Destination is the read-only catalog view the booking core needs.
type Destination struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Price     int64   `json:"price"`
	MaxGuests int     `json:"max_guests"`
	Duration  int     `json:"duration"`
	Coupon    *Coupon `json:"coupon,omitempty"`
}
