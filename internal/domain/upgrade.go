package domain

import (
	"sort"
	"strings"
)

type Upgrade string

const (
	UpgradePriorityBoarding Upgrade = "priority-boarding"
	UpgradeExtraLuggage     Upgrade = "extra-luggage"
	UpgradeTravelInsurance  Upgrade = "travel-insurance"
	UpgradeAirportTransfer  Upgrade = "airport-transfer"
	UpgradePrivateChef      Upgrade = "private-chef"
	UpgradeSunsetYacht      Upgrade = "sunset-yacht"
	UpgradeSpaPackage       Upgrade = "spa-package"
)

// UpgradeCatalog maps upgrade ids to flat prices in whole currency units.
type UpgradeCatalog map[Upgrade]int64

func DefaultUpgradeCatalog() UpgradeCatalog {
	return UpgradeCatalog{
		UpgradePriorityBoarding: 50,
		UpgradeExtraLuggage:     75,
		UpgradeTravelInsurance:  100,
		UpgradeAirportTransfer:  120,
		UpgradePrivateChef:      500,
		UpgradeSunsetYacht:      800,
		UpgradeSpaPackage:       400,
	}
}

// Price returns the flat price of u, or zero when u is not in the catalog.
func (c UpgradeCatalog) Price(u Upgrade) int64 {
	return c[u]
}

func (c UpgradeCatalog) Known(u Upgrade) bool {
	_, ok := c[u]
	return ok
}

// Normalize turns submitted ids into a sorted set of known upgrades.
// Duplicates collapse and unknown ids are returned separately.
func (c UpgradeCatalog) Normalize(ids []string) (known []Upgrade, unknown []string) {
	seen := make(map[Upgrade]struct{}, len(ids))
	for _, raw := range ids {
		u := Upgrade(strings.TrimSpace(raw))
		if u == "" {
			continue
		}
		if !c.Known(u) {
			unknown = append(unknown, raw)
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		known = append(known, u)
	}
	sort.Slice(known, func(i, j int) bool { return known[i] < known[j] })
	return known, unknown
}

func UpgradeStrings(us []Upgrade) []string {
	out := make([]string, 0, len(us))
	for _, u := range us {
		out = append(out, string(u))
	}
	return out
}
