package pricing

import (
	"testing"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bali() *domain.Destination {
	return &domain.Destination{
		ID:        1,
		Name:      "Bali",
		Price:     1000,
		MaxGuests: 8,
		Duration:  7,
		Coupon:    &domain.Coupon{Code: "BALI15", DiscountPercentage: 15},
	}
}

func TestCalculator_Compute(t *testing.T) {
	calc := NewCalculator(nil)

	testCases := []struct {
		name     string
		guests   int
		class    domain.TravelClass
		upgrades []domain.Upgrade
		coupon   *domain.Coupon
		base     int64
		discount int64
		total    int64
	}{
		{
			name:   "business class without extras",
			guests: 2,
			class:  domain.TravelClassBusiness,
			base:   2400,
			total:  2400,
		},
		{
			name:     "business class with spa and 15 percent coupon",
			guests:   2,
			class:    domain.TravelClassBusiness,
			upgrades: []domain.Upgrade{domain.UpgradeSpaPackage},
			coupon:   &domain.Coupon{Code: "BALI15", DiscountPercentage: 15},
			base:     2800,
			discount: 420,
			total:    2380,
		},
		{
			name:     "economy with duplicated upgrades collapses to a set",
			guests:   1,
			class:    domain.TravelClassEconomy,
			upgrades: []domain.Upgrade{domain.UpgradePriorityBoarding, domain.UpgradePriorityBoarding, domain.UpgradeExtraLuggage},
			base:     1125,
			total:    1125,
		},
		{
			name:     "unknown upgrade is priced at zero",
			guests:   1,
			class:    domain.TravelClassEconomy,
			upgrades: []domain.Upgrade{"helicopter"},
			base:     1000,
			total:    1000,
		},
		{
			name:     "full discount never goes negative",
			guests:   3,
			class:    domain.TravelClassEconomy,
			coupon:   &domain.Coupon{Code: "FREE", DiscountPercentage: 100},
			base:     3000,
			discount: 3000,
			total:    0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := calc.Compute(bali(), tc.guests, tc.class, tc.upgrades, tc.coupon)
			require.NoError(t, err)
			assert.Equal(t, tc.base, q.BaseAmount)
			assert.Equal(t, tc.discount, q.DiscountAmount)
			assert.Equal(t, tc.total, q.TotalAmount)
			assert.Equal(t, q.BaseAmount-q.DiscountAmount, q.TotalAmount)
		})
	}
}

func TestCalculator_RoundsFareAndDiscountSeparately(t *testing.T) {
	calc := NewCalculator(nil)
	dest := &domain.Destination{Price: 1001, MaxGuests: 4}

	// 1001 x 1.2 = 1201.2 -> 1201; 1201 x 0.5 = 600.5 -> 601
	q, err := calc.Compute(dest, 1, domain.TravelClassBusiness, nil, &domain.Coupon{Code: "HALF", DiscountPercentage: 50})

	require.NoError(t, err)
	assert.Equal(t, int64(1201), q.FareAmount)
	assert.Equal(t, int64(601), q.DiscountAmount)
	assert.Equal(t, int64(600), q.TotalAmount)
}

func TestCalculator_IsDeterministic(t *testing.T) {
	calc := NewCalculator(nil)
	upgrades := []domain.Upgrade{domain.UpgradeSunsetYacht, domain.UpgradeTravelInsurance}
	coupon := &domain.Coupon{Code: "BALI15", DiscountPercentage: 15}

	first, err := calc.Compute(bali(), 5, domain.TravelClassBusiness, upgrades, coupon)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		again, err := calc.Compute(bali(), 5, domain.TravelClassBusiness, upgrades, coupon)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestCalculator_GuestValidation(t *testing.T) {
	calc := NewCalculator(nil)

	for _, guests := range []int{10, 0, -1} {
		q, err := calc.Compute(bali(), guests, domain.TravelClassEconomy, nil, nil)
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Equal(t, Quote{}, q)
	}
}

func TestCalculator_CustomCatalog(t *testing.T) {
	calc := NewCalculator(domain.UpgradeCatalog{domain.UpgradeSpaPackage: 250})

	q, err := calc.Compute(bali(), 1, domain.TravelClassEconomy, []domain.Upgrade{domain.UpgradeSpaPackage, domain.UpgradeSunsetYacht}, nil)

	require.NoError(t, err)
	assert.Equal(t, int64(250), q.UpgradeAmount)
	assert.Equal(t, int64(1250), q.TotalAmount)
}
