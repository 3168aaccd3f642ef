package market

import (
	"github.com/talgya/bazaar/internal/entropy"
)

// ShockParams configures optional multiplicative demand/supply shocks.
type ShockParams struct {
	Enabled             bool
	Probability         float64
	DemandMultiplierMin float64
	DemandMultiplierMax float64
	SupplyMultiplierMin float64
	SupplyMultiplierMax float64
}

// ApplyShocks optionally perturbs buyer values and seller costs. Shocks fire
// with the configured per-tick probability; on firing, one demand multiplier
// and one supply multiplier are drawn and applied to every buyer's value and
// every seller's cost respectively. Budgets and margins are never altered.
//
// Inputs are not mutated; callers must use the returned slices.
func ApplyShocks(buyers []BuyerState, sellers []SellerState, rng *entropy.Source, p ShockParams) ([]BuyerState, []SellerState) {
	if !p.Enabled {
		return buyers, sellers
	}
	if rng.UnitRandom() > p.Probability {
		return buyers, sellers
	}

	demandMult := rng.Uniform(p.DemandMultiplierMin, p.DemandMultiplierMax)
	supplyMult := rng.Uniform(p.SupplyMultiplierMin, p.SupplyMultiplierMax)

	newBuyers := make([]BuyerState, len(buyers))
	for i, b := range buyers {
		b.Value = Round2(b.Value * demandMult)
		newBuyers[i] = b
	}

	newSellers := make([]SellerState, len(sellers))
	for i, s := range sellers {
		s.Cost = Round2(s.Cost * supplyMult)
		newSellers[i] = s
	}

	return newBuyers, newSellers
}
