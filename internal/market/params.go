package market

import (
	"github.com/talgya/bazaar/internal/entropy"
)

// SelectionMode controls how an enumerated ParameterSource picks its next
// value.
type SelectionMode string

const (
	SelectCycle  SelectionMode = "cycle"
	SelectRandom SelectionMode = "random"
)

// ParameterSource resolves one numeric parameter per Draw. Exactly one of
// three behaviors is active per instance: a fixed scalar, an enumerated list
// (cycled or randomly selected), or a bounded uniform distribution.
//
// Integer sources coerce draws to whole numbers; float sources round to a
// fixed precision (2 decimal places for currency, 4 for margins). The cycle
// index is per-instance state and advances on every Draw for the lifetime of
// the source.
type ParameterSource struct {
	fixed     []float64
	selection SelectionMode
	min, max  float64
	integer   bool
	places    int
	next      int
}

// Scalar returns a source that always yields v.
func Scalar(v float64) *ParameterSource {
	return &ParameterSource{fixed: []float64{v}, selection: SelectCycle, places: 2}
}

// Enumerated returns a source drawing from values under the given selection
// mode. A single-element list behaves identically to a fixed scalar.
func Enumerated(values []float64, selection SelectionMode) *ParameterSource {
	fixed := make([]float64, len(values))
	copy(fixed, values)
	return &ParameterSource{fixed: fixed, selection: selection, places: 2}
}

// Distribution returns a source drawing uniformly from [min, max].
func Distribution(min, max float64) *ParameterSource {
	return &ParameterSource{min: min, max: max, places: 2}
}

// AsInt marks the source as integer-typed; draws are truncated to whole
// numbers and distribution draws use the integer range [min, max].
func (p *ParameterSource) AsInt() *ParameterSource {
	p.integer = true
	return p
}

// WithPlaces overrides the rounding precision for float draws (margins use 4).
func (p *ParameterSource) WithPlaces(places int) *ParameterSource {
	p.places = places
	return p
}

// Fixed reports whether this source has fixed (scalar or enumerated)
// behavior rather than a distribution.
func (p *ParameterSource) Fixed() bool {
	return p.fixed != nil
}

// Draw resolves the next value. Cycle selection consumes no randomness;
// random selection and distribution mode consume draws from rng.
func (p *ParameterSource) Draw(rng *entropy.Source) float64 {
	var v float64
	switch {
	case p.fixed != nil && len(p.fixed) == 1:
		v = p.fixed[0]
	case p.fixed != nil && p.selection == SelectRandom:
		v = entropy.Choice(rng, p.fixed)
	case p.fixed != nil:
		v = p.fixed[p.next%len(p.fixed)]
		p.next++
	case p.integer:
		return float64(rng.IntIn(int(p.min), int(p.max)))
	default:
		return Round(rng.Uniform(p.min, p.max), p.places)
	}

	if p.integer {
		return float64(int(v))
	}
	return v
}

// DrawInt resolves the next value as an int.
func (p *ParameterSource) DrawInt(rng *entropy.Source) int {
	return int(p.Draw(rng))
}
