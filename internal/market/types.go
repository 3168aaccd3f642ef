// Package market provides the market-side data model: items, buyer and
// seller populations, parameter sources, shocks, and pair matching.
package market

import "math"

// Item is a catalog entry. Immutable once created.
type Item struct {
	ID             string  `json:"item_id"`
	Name           string  `json:"name"`
	ReferencePrice float64 `json:"reference_price"`
}

// BuyerState holds one buyer's private parameters for a tick.
type BuyerState struct {
	ID       string  `json:"buyer_id"`
	Value    float64 `json:"value"`  // max willingness-to-pay
	Budget   float64 `json:"budget"` // hard cap
	Patience int     `json:"patience"`
}

// SellerState holds one seller's private parameters for a tick.
type SellerState struct {
	ID           string  `json:"seller_id"`
	Cost         float64 `json:"cost"` // reservation price, hard floor
	TargetMargin float64 `json:"target_margin"`
	Patience     int     `json:"patience"`
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Round2 rounds a currency-like quantity to cents.
func Round2(v float64) float64 {
	return Round(v, 2)
}
