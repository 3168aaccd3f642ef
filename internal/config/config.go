// Package config loads and validates simulation configuration from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/talgya/bazaar/internal/llm"
)

// MarketConfig bounds the distributions agents and items are drawn from.
type MarketConfig struct {
	BuyerValueMin    float64 `yaml:"buyer_value_min"`
	BuyerValueMax    float64 `yaml:"buyer_value_max"`
	SellerCostMin    float64 `yaml:"seller_cost_min"`
	SellerCostMax    float64 `yaml:"seller_cost_max"`
	BuyerBudgetMin   float64 `yaml:"buyer_budget_min"`
	BuyerBudgetMax   float64 `yaml:"buyer_budget_max"`
	SellerMarginMin  float64 `yaml:"seller_margin_min"`
	SellerMarginMax  float64 `yaml:"seller_margin_max"`
	BuyerPatienceMin int     `yaml:"buyer_patience_min"`
	BuyerPatienceMax int     `yaml:"buyer_patience_max"`
	SellerPatienceMin int    `yaml:"seller_patience_min"`
	SellerPatienceMax int    `yaml:"seller_patience_max"`
	ItemRefPriceMin  float64 `yaml:"item_ref_price_min"`
	ItemRefPriceMax  float64 `yaml:"item_ref_price_max"`
	NumItemTypes     int     `yaml:"num_item_types"`
}

// NegotiationConfig bounds the bargaining protocol.
type NegotiationConfig struct {
	MaxRounds int     `yaml:"max_rounds"`
	MinPrice  float64 `yaml:"min_price"`
	MaxPrice  float64 `yaml:"max_price"`
}

// ShockConfig controls per-tick demand and supply shocks.
type ShockConfig struct {
	Enabled             bool    `yaml:"enabled"`
	DemandMultiplierMin float64 `yaml:"demand_multiplier_min"`
	DemandMultiplierMax float64 `yaml:"demand_multiplier_max"`
	SupplyMultiplierMin float64 `yaml:"supply_multiplier_min"`
	SupplyMultiplierMax float64 `yaml:"supply_multiplier_max"`
	ShockProbability    float64 `yaml:"shock_probability"`
}

// FixedValue holds a fixed-scenario parameter that may be given in YAML
// as a single number or as a list of numbers. Nil means unset.
type FixedValue struct {
	Values []float64
}

func (f *FixedValue) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var v float64
		if err := node.Decode(&v); err != nil {
			return fmt.Errorf("fixed parameter: %w", err)
		}
		f.Values = []float64{v}
		return nil
	case yaml.SequenceNode:
		var vs []float64
		if err := node.Decode(&vs); err != nil {
			return fmt.Errorf("fixed parameter list: %w", err)
		}
		if len(vs) == 0 {
			return fmt.Errorf("fixed parameter list is empty")
		}
		f.Values = vs
		return nil
	default:
		return fmt.Errorf("fixed parameter must be a number or a list of numbers")
	}
}

// IsSet reports whether the parameter was present in the config.
func (f *FixedValue) IsSet() bool { return f != nil && len(f.Values) > 0 }

// FixedScenarioConfig pins agent and item parameters to explicit values
// instead of drawing them from distributions. List values are drawn via
// the selection strategy, either cycling in order or picking at random.
type FixedScenarioConfig struct {
	BuyerValue         *FixedValue `yaml:"buyer_value"`
	BuyerBudget        *FixedValue `yaml:"buyer_budget"`
	BuyerPatience      *FixedValue `yaml:"buyer_patience"`
	SellerCost         *FixedValue `yaml:"seller_cost"`
	SellerTargetMargin *FixedValue `yaml:"seller_target_margin"`
	SellerPatience     *FixedValue `yaml:"seller_patience"`
	ItemReferencePrice *FixedValue `yaml:"item_reference_price"`
	Selection          string      `yaml:"selection"`
}

// Config is the root simulation configuration.
type Config struct {
	AgentType       string `yaml:"agent_type"`
	BuyerAgentType  string `yaml:"buyer_agent_type"`
	SellerAgentType string `yaml:"seller_agent_type"`
	Steps           int    `yaml:"steps"`
	BuyersPerStep   int    `yaml:"buyers_per_step"`
	SellersPerStep  int    `yaml:"sellers_per_step"`
	Seed            int64  `yaml:"seed"`
	OutputDir       string `yaml:"output_dir"`
	ScenarioMode    string `yaml:"scenario_mode"`
	Mode            string `yaml:"mode"`
	Matching        string `yaml:"matching"`
	MemoryK         int    `yaml:"memory_k"`

	LLM         llm.Config          `yaml:"llm"`
	Market      MarketConfig        `yaml:"market"`
	Negotiation NegotiationConfig   `yaml:"negotiation"`
	Shock       ShockConfig         `yaml:"shock"`
	Fixed       FixedScenarioConfig `yaml:"fixed"`
}

// Default returns the configuration used when a field is absent from
// the YAML file.
func Default() Config {
	return Config{
		AgentType:      "rule_based",
		Steps:          30,
		BuyersPerStep:  50,
		SellersPerStep: 50,
		Seed:           42,
		OutputDir:      "outputs/runs",
		ScenarioMode:   "distribution",
		Mode:           "session",
		Matching:       "random",
		MemoryK:        5,
		LLM:            llm.DefaultConfig(),
		Market: MarketConfig{
			BuyerValueMin:     50,
			BuyerValueMax:     150,
			SellerCostMin:     30,
			SellerCostMax:     120,
			BuyerBudgetMin:    80,
			BuyerBudgetMax:    200,
			SellerMarginMin:   0.05,
			SellerMarginMax:   0.30,
			BuyerPatienceMin:  3,
			BuyerPatienceMax:  10,
			SellerPatienceMin: 3,
			SellerPatienceMax: 10,
			ItemRefPriceMin:   40,
			ItemRefPriceMax:   130,
			NumItemTypes:      5,
		},
		Negotiation: NegotiationConfig{
			MaxRounds: 10,
			MinPrice:  1,
			MaxPrice:  500,
		},
		Shock: ShockConfig{
			DemandMultiplierMin: 0.8,
			DemandMultiplierMax: 1.2,
			SupplyMultiplierMin: 0.8,
			SupplyMultiplierMax: 1.2,
			ShockProbability:    0.1,
		},
		Fixed: FixedScenarioConfig{Selection: "cycle"},
	}
}

// Load reads a YAML config file, applies it over the defaults, and
// validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

var validAgentTypes = map[string]bool{
	"rule_based":       true,
	"llm_reactive":     true,
	"llm_deliberative": true,
	"memory":           true,
}

// BuyerType returns the effective buyer agent type.
func (c *Config) BuyerType() string {
	if c.BuyerAgentType != "" {
		return c.BuyerAgentType
	}
	return c.AgentType
}

// SellerType returns the effective seller agent type.
func (c *Config) SellerType() string {
	if c.SellerAgentType != "" {
		return c.SellerAgentType
	}
	return c.AgentType
}

// NeedsBackend reports whether any configured agent type calls a model.
func (c *Config) NeedsBackend() bool {
	return c.BuyerType() != "rule_based" || c.SellerType() != "rule_based"
}

// Validate rejects configurations that would produce a meaningless or
// crashing run. It fails on the first problem found.
func (c *Config) Validate() error {
	if c.Steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", c.Steps)
	}
	if c.BuyersPerStep <= 0 || c.SellersPerStep <= 0 {
		return fmt.Errorf("buyers_per_step and sellers_per_step must be positive")
	}
	if c.Negotiation.MaxRounds <= 0 {
		return fmt.Errorf("negotiation.max_rounds must be positive, got %d", c.Negotiation.MaxRounds)
	}
	if c.Negotiation.MinPrice >= c.Negotiation.MaxPrice {
		return fmt.Errorf("negotiation.min_price (%.2f) must be below max_price (%.2f)",
			c.Negotiation.MinPrice, c.Negotiation.MaxPrice)
	}
	if c.Market.NumItemTypes <= 0 {
		return fmt.Errorf("market.num_item_types must be positive, got %d", c.Market.NumItemTypes)
	}
	if p := c.Shock.ShockProbability; p < 0 || p > 1 {
		return fmt.Errorf("shock.shock_probability must be in [0, 1], got %g", p)
	}
	switch c.ScenarioMode {
	case "distribution", "fixed":
	default:
		return fmt.Errorf("scenario_mode must be %q or %q, got %q", "distribution", "fixed", c.ScenarioMode)
	}
	switch c.Mode {
	case "session", "market":
	default:
		return fmt.Errorf("mode must be %q or %q, got %q", "session", "market", c.Mode)
	}
	if c.Matching != "random" {
		return fmt.Errorf("unsupported matching strategy %q", c.Matching)
	}
	switch c.Fixed.Selection {
	case "cycle", "random":
	default:
		return fmt.Errorf("fixed.selection must be %q or %q, got %q", "cycle", "random", c.Fixed.Selection)
	}
	for _, kind := range []string{c.BuyerType(), c.SellerType()} {
		if !validAgentTypes[kind] {
			return fmt.Errorf("unknown agent type %q", kind)
		}
	}
	return nil
}
