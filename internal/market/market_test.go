package market

import (
	"fmt"
	"testing"

	"github.com/talgya/bazaar/internal/entropy"
)

func testGenerator() *PopulationGenerator {
	return &PopulationGenerator{
		Buyers: BuyerParams{
			Value:    Distribution(50, 150),
			Budget:   Distribution(80, 200),
			Patience: Distribution(3, 10).AsInt(),
		},
		Sellers: SellerParams{
			Cost:     Distribution(30, 120),
			Margin:   Distribution(0.05, 0.30).WithPlaces(4),
			Patience: Distribution(3, 10).AsInt(),
		},
	}
}

func TestGenerateBuyersDeterministic(t *testing.T) {
	g1, g2 := testGenerator(), testGenerator()
	a := g1.GenerateBuyers(entropy.NewSource(42), 5, 0)
	b := g2.GenerateBuyers(entropy.NewSource(42), 5, 0)

	if len(a) != 5 {
		t.Fatalf("got %d buyers, want 5", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("buyer %d diverged: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestGeneratedIDs(t *testing.T) {
	g := testGenerator()
	rng := entropy.NewSource(1)
	buyers := g.GenerateBuyers(rng, 3, 7)
	sellers := g.GenerateSellers(rng, 3, 7)

	for i, b := range buyers {
		want := fmt.Sprintf("buyer_t7_%03d", i)
		if b.ID != want {
			t.Fatalf("buyer id: got %q, want %q", b.ID, want)
		}
	}
	if sellers[2].ID != "seller_t7_002" {
		t.Fatalf("seller id: got %q", sellers[2].ID)
	}
}

func TestGenerateFixedCycle(t *testing.T) {
	g := testGenerator()
	g.Buyers.Value = Enumerated([]float64{90, 100, 110}, SelectCycle)
	buyers := g.GenerateBuyers(entropy.NewSource(42), 6, 0)

	want := []float64{90, 100, 110, 90, 100, 110}
	for i, b := range buyers {
		if b.Value != want[i] {
			t.Fatalf("buyer %d value: got %v, want %v", i, b.Value, want[i])
		}
	}
}

func TestCatalogGeneration(t *testing.T) {
	c := NewCatalog(entropy.NewSource(42), 5, Distribution(40, 130))
	items := c.Items()
	if len(items) != 5 {
		t.Fatalf("got %d items, want 5", len(items))
	}
	if items[0].ID != "item_000" || items[4].ID != "item_004" {
		t.Fatalf("unexpected item ids: %q, %q", items[0].ID, items[4].ID)
	}
	for _, it := range items {
		if it.ReferencePrice < 40 || it.ReferencePrice > 130 {
			t.Fatalf("reference price out of bounds: %v", it.ReferencePrice)
		}
	}

	// Fixed reference prices bypass the distribution entirely.
	fixed := NewCatalog(entropy.NewSource(1), 3, Scalar(100))
	for _, it := range fixed.Items() {
		if it.ReferencePrice != 100 {
			t.Fatalf("fixed catalog price: got %v, want 100", it.ReferencePrice)
		}
	}
}

func TestShocksDisabledNoOp(t *testing.T) {
	g := testGenerator()
	rng := entropy.NewSource(3)
	buyers := g.GenerateBuyers(rng, 4, 0)
	sellers := g.GenerateSellers(rng, 4, 0)

	nb, ns := ApplyShocks(buyers, sellers, rng, ShockParams{Enabled: false})
	for i := range nb {
		if nb[i] != buyers[i] || ns[i] != sellers[i] {
			t.Fatalf("disabled shocks must not change populations")
		}
	}
}

func TestShocksPreserveBudgetsAndMargins(t *testing.T) {
	g := testGenerator()
	rng := entropy.NewSource(3)
	buyers := g.GenerateBuyers(rng, 4, 0)
	sellers := g.GenerateSellers(rng, 4, 0)

	p := ShockParams{
		Enabled:             true,
		Probability:         1.0, // always fire
		DemandMultiplierMin: 1.5,
		DemandMultiplierMax: 1.5,
		SupplyMultiplierMin: 0.5,
		SupplyMultiplierMax: 0.5,
	}
	nb, ns := ApplyShocks(buyers, sellers, rng, p)

	for i := range nb {
		if nb[i].Budget != buyers[i].Budget || nb[i].Patience != buyers[i].Patience {
			t.Fatalf("buyer %d: budget/patience must be unchanged", i)
		}
		if want := Round2(buyers[i].Value * 1.5); nb[i].Value != want {
			t.Fatalf("buyer %d value: got %v, want %v", i, nb[i].Value, want)
		}
	}
	for i := range ns {
		if ns[i].TargetMargin != sellers[i].TargetMargin {
			t.Fatalf("seller %d: margin must be unchanged", i)
		}
		if want := Round2(sellers[i].Cost * 0.5); ns[i].Cost != want {
			t.Fatalf("seller %d cost: got %v, want %v", i, ns[i].Cost, want)
		}
	}

	// Inputs must not have been mutated in place.
	if buyers[0].Value == nb[0].Value {
		t.Fatalf("shock appears to have mutated the input slice")
	}
}

func TestRandomMatcherTruncatesAndPairs(t *testing.T) {
	g := testGenerator()
	rng := entropy.NewSource(5)
	buyers := g.GenerateBuyers(rng, 7, 0)
	sellers := g.GenerateSellers(rng, 4, 0)
	catalog := NewCatalog(entropy.NewSource(5), 5, Distribution(40, 130))

	pairs := RandomMatcher{}.Match(buyers, sellers, catalog.Items(), rng)
	if len(pairs) != 4 {
		t.Fatalf("got %d pairs, want min(7,4)=4", len(pairs))
	}

	seenBuyers := map[string]bool{}
	for _, p := range pairs {
		if seenBuyers[p.Buyer.ID] {
			t.Fatalf("buyer %s matched twice", p.Buyer.ID)
		}
		seenBuyers[p.Buyer.ID] = true
		if p.Item.ID == "" {
			t.Fatalf("pair missing item")
		}
	}
}

func TestRandomMatcherDeterministic(t *testing.T) {
	run := func() []Pair {
		g := testGenerator()
		rng := entropy.NewSource(11)
		buyers := g.GenerateBuyers(rng, 5, 0)
		sellers := g.GenerateSellers(rng, 5, 0)
		catalog := NewCatalog(entropy.NewSource(11), 3, Distribution(40, 130))
		return RandomMatcher{}.Match(buyers, sellers, catalog.Items(), rng)
	}

	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("pairing diverged at %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}
