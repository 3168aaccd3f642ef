package market

import (
	"fmt"

	"github.com/talgya/bazaar/internal/entropy"
)

// BuyerParams bundles the parameter sources for buyer attributes.
type BuyerParams struct {
	Value    *ParameterSource
	Budget   *ParameterSource
	Patience *ParameterSource
}

// SellerParams bundles the parameter sources for seller attributes.
type SellerParams struct {
	Cost     *ParameterSource
	Margin   *ParameterSource
	Patience *ParameterSource
}

// PopulationGenerator synthesizes the buyer and seller records for one tick.
//
// Draw order is fixed and part of the determinism contract: for each buyer
// in index order, value then budget then patience; all buyers before all
// sellers; for each seller, cost then margin then patience.
type PopulationGenerator struct {
	Buyers  BuyerParams
	Sellers SellerParams
}

// GenerateBuyers produces count buyers for the given tick. Identifiers
// combine the tick index and a zero-padded position, unique within a run.
func (g *PopulationGenerator) GenerateBuyers(rng *entropy.Source, count, tick int) []BuyerState {
	buyers := make([]BuyerState, 0, count)
	for i := 0; i < count; i++ {
		buyers = append(buyers, BuyerState{
			ID:       fmt.Sprintf("buyer_t%d_%03d", tick, i),
			Value:    Round2(g.Buyers.Value.Draw(rng)),
			Budget:   Round2(g.Buyers.Budget.Draw(rng)),
			Patience: g.Buyers.Patience.DrawInt(rng),
		})
	}
	return buyers
}

// GenerateSellers produces count sellers for the given tick.
func (g *PopulationGenerator) GenerateSellers(rng *entropy.Source, count, tick int) []SellerState {
	sellers := make([]SellerState, 0, count)
	for i := 0; i < count; i++ {
		sellers = append(sellers, SellerState{
			ID:           fmt.Sprintf("seller_t%d_%03d", tick, i),
			Cost:         Round2(g.Sellers.Cost.Draw(rng)),
			TargetMargin: Round(g.Sellers.Margin.Draw(rng), 4),
			Patience:     g.Sellers.Patience.DrawInt(rng),
		})
	}
	return sellers
}
