package pricing

import (
	"github.com/Domenick1991/travelbooking/internal/domain"
)

// businessClassPercent is the 1.2x business surcharge expressed in percent.
const businessClassPercent = 120

// Quote is a price breakdown in whole currency units.
// TotalAmount = BaseAmount - DiscountAmount, where BaseAmount already
// includes the class surcharge and the upgrades.
type Quote struct {
	FareAmount     int64            `json:"fare_amount"`
	UpgradeAmount  int64            `json:"upgrade_amount"`
	BaseAmount     int64            `json:"base_amount"`
	DiscountAmount int64            `json:"discount_amount"`
	TotalAmount    int64            `json:"total_amount"`
	Upgrades       []domain.Upgrade `json:"upgrades"`
	Coupon         *domain.Coupon   `json:"coupon,omitempty"`
}

type Calculator struct {
	catalog domain.UpgradeCatalog
}

func NewCalculator(catalog domain.UpgradeCatalog) *Calculator {
	if len(catalog) == 0 {
		catalog = domain.DefaultUpgradeCatalog()
	}
	return &Calculator{catalog: catalog}
}

func (c *Calculator) Catalog() domain.UpgradeCatalog {
	return c.catalog
}

// Compute prices a trip. It has no side effects and depends only on its
// arguments, so identical inputs always yield identical quotes.
//
// Rounding happens twice, half up to whole units: once on the fare
// (price x guests x class multiplier) and once on the discount.
func (c *Calculator) Compute(dest *domain.Destination, guests int, class domain.TravelClass, upgrades []domain.Upgrade, coupon *domain.Coupon) (Quote, error) {
	if err := ValidateGuests(dest, guests); err != nil {
		return Quote{}, err
	}

	multiplier := int64(100)
	if class == domain.TravelClassBusiness {
		multiplier = businessClassPercent
	}
	fare := percentOf(dest.Price*int64(guests), multiplier)

	set := dedupe(upgrades)
	var upgradeTotal int64
	for _, u := range set {
		// unknown ids price at zero
		upgradeTotal += c.catalog.Price(u)
	}

	subtotal := fare + upgradeTotal

	var discount int64
	if coupon != nil {
		discount = percentOf(subtotal, int64(coupon.DiscountPercentage))
	}

	return Quote{
		FareAmount:     fare,
		UpgradeAmount:  upgradeTotal,
		BaseAmount:     subtotal,
		DiscountAmount: discount,
		TotalAmount:    subtotal - discount,
		Upgrades:       set,
		Coupon:         coupon,
	}, nil
}

// ValidateGuests enforces 0 < guests <= dest.MaxGuests.
func ValidateGuests(dest *domain.Destination, guests int) error {
	if guests <= 0 {
		return domain.Validationf("guests must be a positive number, got %d", guests)
	}
	if guests > dest.MaxGuests {
		return domain.Validationf("guests (%d) exceeds the maximum of %d for this destination", guests, dest.MaxGuests)
	}
	return nil
}

// percentOf returns amount*percent/100 rounded half up. Both operands are non-negative.
func percentOf(amount, percent int64) int64 {
	return (amount*percent + 50) / 100
}

func dedupe(upgrades []domain.Upgrade) []domain.Upgrade {
	seen := make(map[domain.Upgrade]struct{}, len(upgrades))
	out := make([]domain.Upgrade, 0, len(upgrades))
	for _, u := range upgrades {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
