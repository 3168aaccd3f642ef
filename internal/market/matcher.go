package market

import (
	"github.com/talgya/bazaar/internal/entropy"
)

// Pair is a matched buyer/seller/item triple ready for negotiation.
type Pair struct {
	Buyer  BuyerState
	Seller SellerState
	Item   Item
}

// Matcher pairs buyers with sellers and assigns an item to each pair. New
// strategies must preserve the Pair contract and a fixed total ordering of
// RNG consumption for determinism.
type Matcher interface {
	Match(buyers []BuyerState, sellers []SellerState, items []Item, rng *entropy.Source) []Pair
}

// RandomMatcher pairs min(|buyers|, |sellers|) agents 1:1 at random with a
// random item per pair. Unmatched agents are silently dropped.
type RandomMatcher struct{}

// Match truncates both populations to the shorter length, shuffles each
// independently (buyers first), then pairs by index, drawing one item
// uniformly per pair.
func (RandomMatcher) Match(buyers []BuyerState, sellers []SellerState, items []Item, rng *entropy.Source) []Pair {
	n := len(buyers)
	if len(sellers) < n {
		n = len(sellers)
	}

	b := make([]BuyerState, n)
	copy(b, buyers[:n])
	s := make([]SellerState, n)
	copy(s, sellers[:n])

	rng.Shuffle(len(b), func(i, j int) { b[i], b[j] = b[j], b[i] })
	rng.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })

	pairs := make([]Pair, 0, n)
	for i := 0; i < n; i++ {
		pairs = append(pairs, Pair{
			Buyer:  b[i],
			Seller: s[i],
			Item:   entropy.Choice(rng, items),
		})
	}
	return pairs
}
