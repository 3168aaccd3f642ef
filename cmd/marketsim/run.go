package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/talgya/bazaar/internal/agents"
	"github.com/talgya/bazaar/internal/config"
	"github.com/talgya/bazaar/internal/engine"
	"github.com/talgya/bazaar/internal/entropy"
	"github.com/talgya/bazaar/internal/llm"
	"github.com/talgya/bazaar/internal/persistence"
)

type runFlags struct {
	configPath      string
	seed            int64
	steps           int
	buyersPerStep   int
	sellersPerStep  int
	maxRounds       int
	agentType       string
	buyerAgentType  string
	sellerAgentType string
	model           string
	temperature     float64
	maxTokens       int
	timeoutSec      float64
	debugLLM        bool
	outputDir       string
	mode            string
}

func (f *runFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.configPath, "config", "c", "", "path to YAML config file")
	fs.Int64Var(&f.seed, "seed", -1, "override random seed")
	fs.IntVar(&f.steps, "steps", 0, "override number of ticks")
	fs.IntVar(&f.buyersPerStep, "buyers-per-step", 0, "override buyers generated per tick")
	fs.IntVar(&f.sellersPerStep, "sellers-per-step", 0, "override sellers generated per tick")
	fs.IntVar(&f.maxRounds, "max-rounds", 0, "override negotiation round limit")
	fs.StringVar(&f.agentType, "agent-type", "", "agent type for both sides")
	fs.StringVar(&f.buyerAgentType, "buyer-agent-type", "", "buyer agent type")
	fs.StringVar(&f.sellerAgentType, "seller-agent-type", "", "seller agent type")
	fs.StringVar(&f.model, "model", "", "override Ollama model")
	fs.Float64Var(&f.temperature, "temperature", -1, "override LLM temperature")
	fs.IntVar(&f.maxTokens, "max-tokens", 0, "override LLM max tokens")
	fs.Float64Var(&f.timeoutSec, "timeout-sec", 0, "override LLM request timeout in seconds")
	fs.BoolVar(&f.debugLLM, "debug-llm", false, "log raw LLM prompts and responses")
	fs.StringVarP(&f.outputDir, "output-dir", "o", "", "override output directory")
	fs.StringVar(&f.mode, "mode", "", "simulation mode (session or market)")
}

// apply overlays any explicitly-set flags onto the loaded config.
func (f *runFlags) apply(cfg *config.Config) {
	if f.seed >= 0 {
		cfg.Seed = f.seed
	}
	if f.steps > 0 {
		cfg.Steps = f.steps
	}
	if f.buyersPerStep > 0 {
		cfg.BuyersPerStep = f.buyersPerStep
	}
	if f.sellersPerStep > 0 {
		cfg.SellersPerStep = f.sellersPerStep
	}
	if f.maxRounds > 0 {
		cfg.Negotiation.MaxRounds = f.maxRounds
	}
	if f.agentType != "" {
		cfg.AgentType = f.agentType
	}
	if f.buyerAgentType != "" {
		cfg.BuyerAgentType = f.buyerAgentType
	}
	if f.sellerAgentType != "" {
		cfg.SellerAgentType = f.sellerAgentType
	}
	if f.model != "" {
		cfg.LLM.Model = f.model
	}
	if f.temperature >= 0 {
		cfg.LLM.Temperature = f.temperature
	}
	if f.maxTokens > 0 {
		cfg.LLM.MaxTokens = f.maxTokens
	}
	if f.timeoutSec > 0 {
		cfg.LLM.TimeoutSec = f.timeoutSec
	}
	if f.debugLLM {
		cfg.LLM.Debug = true
	}
	if f.outputDir != "" {
		cfg.OutputDir = f.outputDir
	}
	if f.mode != "" {
		cfg.Mode = f.mode
	}
	if url := os.Getenv("OLLAMA_BASE_URL"); url != "" {
		cfg.LLM.BaseURL = url
	}
}

func loadConfig(f *runFlags) (config.Config, error) {
	cfg := config.Default()
	var err error
	if f.configPath != "" {
		cfg, err = config.Load(f.configPath)
		if err != nil {
			return cfg, err
		}
	}
	f.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newRunCmd() *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one simulation and write its artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			_, err = executeRun(cfg)
			return err
		},
	}
	flags.register(cmd)
	return cmd
}

// executeRun wires one full run: simulator, event log, sqlite store,
// and the summary reports. It returns the run directory.
func executeRun(cfg config.Config) (string, error) {
	runDir, err := persistence.RunDir(cfg.OutputDir, cfg.Seed)
	if err != nil {
		return "", err
	}

	eventLog, err := persistence.NewEventLog(runDir)
	if err != nil {
		return "", err
	}

	var backend agents.Generator
	if cfg.NeedsBackend() {
		backend = llm.NewBackend(cfg.LLM)
	}

	sim := engine.NewSimulator(cfg, entropy.NewSource(cfg.Seed), backend, eventLog)

	store, err := persistence.OpenStore(filepath.Join(runDir, "results.db"))
	if err != nil {
		return "", err
	}
	defer store.Close()

	if err := store.SaveRun(persistence.RunRecord{
		ID:           sim.RunID,
		Seed:         cfg.Seed,
		Steps:        cfg.Steps,
		Mode:         cfg.Mode,
		ScenarioMode: cfg.ScenarioMode,
		BuyerAgent:   cfg.BuyerType(),
		SellerAgent:  cfg.SellerType(),
		StartedAt:    time.Now().Format(time.RFC3339),
	}); err != nil {
		return "", err
	}

	start := time.Now()
	results, err := sim.Run()
	if err != nil {
		return "", err
	}
	elapsed := time.Since(start)

	if err := eventLog.Close(); err != nil {
		return "", err
	}

	metrics := sim.Metrics()
	if err := store.SaveResults(sim.RunID, results); err != nil {
		return "", err
	}
	if len(sim.TickStats) > 0 {
		if err := store.SaveTickStats(sim.RunID, sim.TickStats); err != nil {
			return "", err
		}
	}
	if err := store.SaveMetrics(sim.RunID, metrics); err != nil {
		return "", err
	}

	summary := persistence.Summary{
		Metrics:      metrics,
		ScenarioMode: cfg.ScenarioMode,
		Mode:         cfg.Mode,
	}
	if cfg.Mode == "market" {
		summary.NumTicks = cfg.Steps
	}
	if cfg.ScenarioMode == "fixed" {
		summary.FixedParams = fixedParams(cfg)
	}
	if _, err := persistence.WriteSummary(summary, runDir); err != nil {
		return "", err
	}
	if _, err := persistence.WriteDealsCSV(results, runDir); err != nil {
		return "", err
	}

	slog.Info("run complete",
		"elapsed", elapsed.Round(time.Millisecond),
		"negotiations", metrics.TotalNegotiations,
		"deals", metrics.DealsMade,
		"success_rate", metrics.DealSuccessRate,
		"avg_price", metrics.AvgPrice,
		"run_dir", runDir)
	fmt.Printf("Done in %.1fs  |  %d negotiations  |  %d deals (%.1f%%)  |  avg price $%.2f\n",
		elapsed.Seconds(), metrics.TotalNegotiations, metrics.DealsMade,
		metrics.DealSuccessRate*100, metrics.AvgPrice)
	fmt.Printf("Results -> %s\n", runDir)
	return runDir, nil
}

// fixedParams resolves the pinned scenario parameters for the summary,
// including full lists for enumerated values.
func fixedParams(cfg config.Config) map[string]any {
	out := map[string]any{"selection": cfg.Fixed.Selection}
	add := func(key string, v *config.FixedValue) {
		if !v.IsSet() {
			return
		}
		if len(v.Values) == 1 {
			out[key] = v.Values[0]
		} else {
			out[key] = v.Values
		}
	}
	add("buyer_value", cfg.Fixed.BuyerValue)
	add("buyer_budget", cfg.Fixed.BuyerBudget)
	add("buyer_patience", cfg.Fixed.BuyerPatience)
	add("seller_cost", cfg.Fixed.SellerCost)
	add("seller_target_margin", cfg.Fixed.SellerTargetMargin)
	add("seller_patience", cfg.Fixed.SellerPatience)
	add("item_reference_price", cfg.Fixed.ItemReferencePrice)
	return out
}

// readSummary loads a run's summary.json, used by sweep aggregation.
func readSummary(runDir string) (map[string]any, error) {
	b, err := os.ReadFile(filepath.Join(runDir, "summary.json"))
	if err != nil {
		return nil, fmt.Errorf("read summary: %w", err)
	}
	var summary map[string]any
	if err := json.Unmarshal(b, &summary); err != nil {
		return nil, fmt.Errorf("parse summary: %w", err)
	}
	return summary, nil
}
