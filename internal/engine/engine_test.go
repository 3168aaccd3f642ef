package engine

import (
	"testing"

	"github.com/talgya/bazaar/internal/config"
	"github.com/talgya/bazaar/internal/entropy"
	"github.com/talgya/bazaar/internal/negotiation"
)

func smallConfig() config.Config {
	cfg := config.Default()
	cfg.Steps = 3
	cfg.BuyersPerStep = 5
	cfg.SellersPerStep = 5
	cfg.Seed = 42
	cfg.Mode = "market"
	cfg.Negotiation.MaxRounds = 10
	cfg.Market.NumItemTypes = 5
	return cfg
}

func runOnce(t *testing.T, cfg config.Config) *Simulator {
	t.Helper()
	sim := NewSimulator(cfg, entropy.NewSource(cfg.Seed), nil, nil)
	if _, err := sim.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return sim
}

func TestRunCompletes(t *testing.T) {
	cfg := smallConfig()
	sim := runOnce(t, cfg)

	want := cfg.Steps * cfg.BuyersPerStep
	if len(sim.Results) != want {
		t.Fatalf("results = %d, want %d", len(sim.Results), want)
	}
	for i, r := range sim.Results {
		if r.RoundsTaken < 1 || r.RoundsTaken > cfg.Negotiation.MaxRounds {
			t.Fatalf("result %d: rounds_taken = %d", i, r.RoundsTaken)
		}
		if r.DealMade {
			if r.DealPrice == nil {
				t.Fatalf("result %d: deal without price", i)
			}
			if *r.DealPrice < r.SellerCost-0.01 || *r.DealPrice > r.BuyerValue+0.01 {
				t.Fatalf("result %d: price %.2f outside [%.2f, %.2f]",
					i, *r.DealPrice, r.SellerCost, r.BuyerValue)
			}
		}
	}
	if len(sim.TickStats) != cfg.Steps {
		t.Fatalf("tick stats = %d, want %d", len(sim.TickStats), cfg.Steps)
	}
}

func TestRunDeterministicAcrossRepeats(t *testing.T) {
	cfg := smallConfig()
	a := runOnce(t, cfg)
	b := runOnce(t, cfg)

	if len(a.Results) != len(b.Results) {
		t.Fatalf("result counts differ: %d vs %d", len(a.Results), len(b.Results))
	}
	for i := range a.Results {
		ra, rb := a.Results[i], b.Results[i]
		if ra.DealMade != rb.DealMade || ra.RoundsTaken != rb.RoundsTaken ||
			ra.BuyerID != rb.BuyerID || ra.SellerID != rb.SellerID ||
			ra.Item.ID != rb.Item.ID {
			t.Fatalf("result %d diverges:\n%+v\n%+v", i, ra, rb)
		}
		switch {
		case ra.DealPrice == nil && rb.DealPrice == nil:
		case ra.DealPrice != nil && rb.DealPrice != nil && *ra.DealPrice == *rb.DealPrice:
		default:
			t.Fatalf("result %d: prices diverge", i)
		}
	}
	for i := range a.TickStats {
		if a.TickStats[i] != b.TickStats[i] {
			t.Fatalf("tick %d stats diverge:\n%+v\n%+v", i, a.TickStats[i], b.TickStats[i])
		}
	}
}

func TestDifferentSeedsDiverge(t *testing.T) {
	cfg := smallConfig()
	a := runOnce(t, cfg)

	cfg.Seed = 43
	b := runOnce(t, cfg)

	same := true
	for i := range a.Results {
		if a.Results[i].DealMade != b.Results[i].DealMade ||
			a.Results[i].RoundsTaken != b.Results[i].RoundsTaken {
			same = false
			break
		}
	}
	if same {
		t.Fatal("seeds 42 and 43 produced identical outcome sequences")
	}
}

func TestFixedScenarioPinsParameters(t *testing.T) {
	cfg := smallConfig()
	cfg.ScenarioMode = "fixed"
	cfg.Fixed.BuyerValue = &config.FixedValue{Values: []float64{100}}
	cfg.Fixed.BuyerBudget = &config.FixedValue{Values: []float64{120}}
	cfg.Fixed.SellerCost = &config.FixedValue{Values: []float64{60}}

	sim := runOnce(t, cfg)
	for i, r := range sim.Results {
		if r.BuyerValue != 100 || r.SellerCost != 60 {
			t.Fatalf("result %d: value=%.2f cost=%.2f, want pinned 100/60",
				i, r.BuyerValue, r.SellerCost)
		}
	}
}

func TestFixedCycleListAlternates(t *testing.T) {
	cfg := smallConfig()
	cfg.Steps = 1
	cfg.BuyersPerStep = 4
	cfg.SellersPerStep = 4
	cfg.ScenarioMode = "fixed"
	cfg.Fixed.SellerCost = &config.FixedValue{Values: []float64{40, 80}}

	sim := runOnce(t, cfg)
	seen := map[float64]bool{}
	for _, r := range sim.Results {
		seen[r.SellerCost] = true
	}
	if !seen[40] || !seen[80] {
		t.Fatalf("cycle list values not both used: %v", seen)
	}
}

func TestRuleBasedSessionsAlwaysClose(t *testing.T) {
	// a pinned profitable spread with rule-based agents always converges
	cfg := smallConfig()
	cfg.ScenarioMode = "fixed"
	cfg.Fixed.BuyerValue = &config.FixedValue{Values: []float64{100}}
	cfg.Fixed.BuyerBudget = &config.FixedValue{Values: []float64{150}}
	cfg.Fixed.SellerCost = &config.FixedValue{Values: []float64{50}}

	sim := runOnce(t, cfg)
	for i, r := range sim.Results {
		if !r.DealMade {
			t.Fatalf("result %d: no deal despite 50 point spread (%s)", i, r.Termination)
		}
	}
}

func TestComputeRunMetricsEmpty(t *testing.T) {
	m := ComputeRunMetrics(nil)
	if m != (RunMetrics{}) {
		t.Fatalf("empty metrics not zero: %+v", m)
	}
}

func TestComputeRunMetrics(t *testing.T) {
	price := 80.0
	results := []negotiation.Result{
		{
			DealMade: true, DealPrice: &price, RoundsTaken: 2,
			BuyerSurplus: 20, SellerSurplus: 20,
			Termination: negotiation.ReasonAccepted,
		},
		{
			DealMade: false, RoundsTaken: 10,
			Termination: negotiation.ReasonTimeout,
			RiskEvents: []negotiation.RiskEvent{
				{ViolationKind: negotiation.ViolationBudget},
				{ViolationKind: negotiation.ViolationCost},
				{ViolationKind: negotiation.ViolationBounds},
			},
		},
	}

	m := ComputeRunMetrics(results)
	if m.TotalNegotiations != 2 || m.DealsMade != 1 {
		t.Fatalf("counts: %+v", m)
	}
	if m.DealSuccessRate != 0.5 || m.DeadlockRate != 0.5 {
		t.Fatalf("rates: %+v", m)
	}
	if m.AvgPrice != 80 || m.MedianPrice != 80 || m.PriceStd != 0 {
		t.Fatalf("prices: %+v", m)
	}
	if m.WelfareMean != 40 {
		t.Fatalf("welfare = %v", m.WelfareMean)
	}
	if m.AvgRoundsToClose != 2 || m.AvgRoundsAll != 6 {
		t.Fatalf("rounds: %+v", m)
	}
	if m.BudgetViolationAttempts != 1 || m.CostViolationAttempts != 1 || m.TotalRiskEvents != 3 {
		t.Fatalf("risk: %+v", m)
	}
	if m.Timeouts != 1 {
		t.Fatalf("timeouts = %d", m.Timeouts)
	}
}

func TestComputeTickStats(t *testing.T) {
	p1, p2 := 70.0, 90.0
	results := []negotiation.Result{
		{DealMade: true, DealPrice: &p1, BuyerSurplus: 10, SellerSurplus: 30},
		{DealMade: true, DealPrice: &p2, BuyerSurplus: 30, SellerSurplus: 10},
		{DealMade: false, Termination: negotiation.ReasonTimeout},
		{DealMade: false, Termination: negotiation.ReasonRejected},
	}

	s := ComputeTickStats(3, results)
	if s.Tick != 3 || s.NumSessions != 4 || s.DealsMade != 2 {
		t.Fatalf("counts: %+v", s)
	}
	if s.FailRate != 0.5 || s.Liquidity != 0.5 {
		t.Fatalf("rates: %+v", s)
	}
	if s.MeanPrice != 80 {
		t.Fatalf("mean price = %v", s.MeanPrice)
	}
	// sample stdev of {70, 90} is sqrt(200) ~ 14.14
	if s.PriceStd != 14.14 {
		t.Fatalf("price std = %v", s.PriceStd)
	}
	if s.BuyerSurplusMean != 20 || s.SellerSurplusMean != 20 {
		t.Fatalf("surpluses: %+v", s)
	}
}

func TestPriceStdIsSampleStdev(t *testing.T) {
	prices := []float64{70, 80, 90}
	var results []negotiation.Result
	for i := range prices {
		results = append(results, negotiation.Result{
			DealMade: true, DealPrice: &prices[i], RoundsTaken: 2,
			Termination: negotiation.ReasonAccepted,
		})
	}

	// sample stdev of {70, 80, 90} is 10; population stdev would be 8.16
	m := ComputeRunMetrics(results)
	if m.PriceStd != 10 {
		t.Fatalf("run price_std = %v, want sample stdev 10", m.PriceStd)
	}
	s := ComputeTickStats(0, results)
	if s.PriceStd != 10 {
		t.Fatalf("tick price_std = %v, want sample stdev 10", s.PriceStd)
	}

	// a single price has no spread to estimate
	one := ComputeRunMetrics(results[:1])
	if one.PriceStd != 0 {
		t.Fatalf("single-deal price_std = %v, want 0", one.PriceStd)
	}
}

func TestComputeTickStatsEmpty(t *testing.T) {
	s := ComputeTickStats(5, nil)
	if s.Tick != 5 || s.NumSessions != 0 || s.MeanPrice != 0 {
		t.Fatalf("empty tick stats: %+v", s)
	}
}
