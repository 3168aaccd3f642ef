// Package engine orchestrates the simulation loop: population
// generation, matching, negotiation sessions, and metric aggregation.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/talgya/bazaar/internal/agents"
	"github.com/talgya/bazaar/internal/config"
	"github.com/talgya/bazaar/internal/entropy"
	"github.com/talgya/bazaar/internal/market"
	"github.com/talgya/bazaar/internal/negotiation"
)

// EventSink receives simulation events as they happen. Implementations
// must tolerate being called once per turn at full tick rate.
type EventSink interface {
	negotiation.TurnLogger
	LogResult(r negotiation.Result)
	LogTickStats(s TickStats)
	LogRiskEvents(events []negotiation.RiskEvent)
}

// Simulator runs the configured number of ticks. Each tick generates a
// fresh population, applies optional shocks, matches pairs, and runs one
// negotiation session per pair.
//
// All randomness flows from the root source: the catalog and parameter
// sources are built once at construction, and each tick forks a child
// source so session count never perturbs later ticks.
type Simulator struct {
	cfg     config.Config
	rng     *entropy.Source
	catalog *market.Catalog
	gen     *market.PopulationGenerator
	matcher market.Matcher
	factory *agents.Factory
	sink    EventSink

	RunID     string
	Results   []negotiation.Result
	TickStats []TickStats
}

// NewSimulator builds a simulator from a validated config. The backend
// may be nil for rule-based runs; factory creation fails lazily only if
// an agent type actually needs it.
func NewSimulator(cfg config.Config, rng *entropy.Source, backend agents.Generator, sink EventSink) *Simulator {
	catalog := market.NewCatalog(rng, cfg.Market.NumItemTypes, itemPriceSource(cfg))

	return &Simulator{
		cfg:     cfg,
		rng:     rng,
		catalog: catalog,
		gen: &market.PopulationGenerator{
			Buyers: market.BuyerParams{
				Value:    fieldSource(cfg, cfg.Fixed.BuyerValue, cfg.Market.BuyerValueMin, cfg.Market.BuyerValueMax),
				Budget:   fieldSource(cfg, cfg.Fixed.BuyerBudget, cfg.Market.BuyerBudgetMin, cfg.Market.BuyerBudgetMax),
				Patience: intFieldSource(cfg, cfg.Fixed.BuyerPatience, cfg.Market.BuyerPatienceMin, cfg.Market.BuyerPatienceMax),
			},
			Sellers: market.SellerParams{
				Cost:     fieldSource(cfg, cfg.Fixed.SellerCost, cfg.Market.SellerCostMin, cfg.Market.SellerCostMax),
				Margin:   fieldSource(cfg, cfg.Fixed.SellerTargetMargin, cfg.Market.SellerMarginMin, cfg.Market.SellerMarginMax).WithPlaces(4),
				Patience: intFieldSource(cfg, cfg.Fixed.SellerPatience, cfg.Market.SellerPatienceMin, cfg.Market.SellerPatienceMax),
			},
		},
		matcher: market.RandomMatcher{},
		factory: agents.NewFactory(backend, cfg.MemoryK),
		sink:    sink,
		RunID:   uuid.NewString(),
	}
}

func selectionMode(cfg config.Config) market.SelectionMode {
	if cfg.Fixed.Selection == "random" {
		return market.SelectRandom
	}
	return market.SelectCycle
}

// fieldSource resolves one population parameter: a fixed value when the
// scenario pins it, otherwise the configured distribution.
func fieldSource(cfg config.Config, fixed *config.FixedValue, min, max float64) *market.ParameterSource {
	if cfg.ScenarioMode == "fixed" && fixed.IsSet() {
		return market.Enumerated(fixed.Values, selectionMode(cfg))
	}
	return market.Distribution(min, max)
}

func intFieldSource(cfg config.Config, fixed *config.FixedValue, min, max int) *market.ParameterSource {
	if cfg.ScenarioMode == "fixed" && fixed.IsSet() {
		return market.Enumerated(fixed.Values, selectionMode(cfg)).AsInt()
	}
	return market.Distribution(float64(min), float64(max)).AsInt()
}

func itemPriceSource(cfg config.Config) *market.ParameterSource {
	return fieldSource(cfg, cfg.Fixed.ItemReferencePrice, cfg.Market.ItemRefPriceMin, cfg.Market.ItemRefPriceMax)
}

// Catalog exposes the item catalog, frozen at construction.
func (s *Simulator) Catalog() *market.Catalog { return s.catalog }

// Run executes every tick and returns the collected session results.
func (s *Simulator) Run() ([]negotiation.Result, error) {
	cfg := s.cfg
	marketMode := cfg.Mode == "market"

	buyerAgent, err := s.factory.New(cfg.BuyerType(), negotiation.RoleBuyer)
	if err != nil {
		return nil, fmt.Errorf("create buyer agent: %w", err)
	}
	sellerAgent, err := s.factory.New(cfg.SellerType(), negotiation.RoleSeller)
	if err != nil {
		return nil, fmt.Errorf("create seller agent: %w", err)
	}

	slog.Info("simulation starting",
		"run_id", s.RunID,
		"seed", cfg.Seed,
		"steps", cfg.Steps,
		"mode", cfg.Mode,
		"buyer_agent", buyerAgent.Type(),
		"seller_agent", sellerAgent.Type())

	for tick := 0; tick < cfg.Steps; tick++ {
		tickRNG := s.rng.Fork()

		buyers := s.gen.GenerateBuyers(tickRNG, cfg.BuyersPerStep, tick)
		sellers := s.gen.GenerateSellers(tickRNG, cfg.SellersPerStep, tick)
		buyers, sellers = market.ApplyShocks(buyers, sellers, tickRNG, shockParams(cfg))

		pairs := s.matcher.Match(buyers, sellers, s.catalog.Items(), tickRNG)

		tickResults := make([]negotiation.Result, 0, len(pairs))
		for _, pair := range pairs {
			session := negotiation.NewSession(buyerAgent, sellerAgent, pair.Item, pair.Buyer, pair.Seller,
				negotiation.SessionConfig{
					MaxRounds: cfg.Negotiation.MaxRounds,
					MinPrice:  cfg.Negotiation.MinPrice,
					MaxPrice:  cfg.Negotiation.MaxPrice,
					Tick:      tick,
					TurnLog:   s.sink,
				})
			result := session.Run()

			if s.sink != nil {
				s.sink.LogResult(result)
				if len(result.RiskEvents) > 0 {
					s.sink.LogRiskEvents(result.RiskEvents)
				}
			}
			if rec, ok := buyerAgent.(negotiation.OutcomeRecorder); ok {
				rec.RecordOutcome(result)
			}
			if rec, ok := sellerAgent.(negotiation.OutcomeRecorder); ok {
				rec.RecordOutcome(result)
			}

			tickResults = append(tickResults, result)
			s.Results = append(s.Results, result)
		}

		if marketMode && len(tickResults) > 0 {
			stats := ComputeTickStats(tick, tickResults)
			s.TickStats = append(s.TickStats, stats)
			if s.sink != nil {
				s.sink.LogTickStats(stats)
			}
			slog.Debug("tick complete",
				"tick", tick,
				"sessions", stats.NumSessions,
				"deals", stats.DealsMade,
				"liquidity", stats.Liquidity)
		}
	}

	slog.Info("simulation finished",
		"run_id", s.RunID,
		"sessions", len(s.Results))
	return s.Results, nil
}

func shockParams(cfg config.Config) market.ShockParams {
	return market.ShockParams{
		Enabled:             cfg.Shock.Enabled,
		Probability:         cfg.Shock.ShockProbability,
		DemandMultiplierMin: cfg.Shock.DemandMultiplierMin,
		DemandMultiplierMax: cfg.Shock.DemandMultiplierMax,
		SupplyMultiplierMin: cfg.Shock.SupplyMultiplierMin,
		SupplyMultiplierMax: cfg.Shock.SupplyMultiplierMax,
	}
}

// Metrics computes the whole-run summary from the collected results.
func (s *Simulator) Metrics() RunMetrics {
	return ComputeRunMetrics(s.Results)
}
