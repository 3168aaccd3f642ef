package market

import (
	"fmt"

	"github.com/talgya/bazaar/internal/entropy"
)

var itemNames = []string{
	"Widget", "Gadget", "Doohickey", "Thingamajig", "Gizmo",
	"Contraption", "Apparatus", "Device", "Module", "Component",
}

// Catalog is the fixed set of item types for a run, generated once at
// simulation start from the run-level random source.
type Catalog struct {
	items []Item
}

// NewCatalog generates numTypes items with reference prices resolved by
// priceSource (a bounded distribution in the default scenario, a fixed
// scalar or list in fixed mode). Item ids and names are deterministic in
// index order.
func NewCatalog(rng *entropy.Source, numTypes int, priceSource *ParameterSource) *Catalog {
	items := make([]Item, 0, numTypes)
	for i := 0; i < numTypes; i++ {
		name := itemNames[i%len(itemNames)]
		items = append(items, Item{
			ID:             fmt.Sprintf("item_%03d", i),
			Name:           fmt.Sprintf("%s %c", name, 'A'+rune(i)),
			ReferencePrice: Round2(priceSource.Draw(rng)),
		})
	}
	return &Catalog{items: items}
}

// Items returns a copy of the catalog contents.
func (c *Catalog) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// RandomItem draws one item uniformly.
func (c *Catalog) RandomItem(rng *entropy.Source) Item {
	return entropy.Choice(rng, c.items)
}

// Len returns the number of item types.
func (c *Catalog) Len() int {
	return len(c.items)
}
