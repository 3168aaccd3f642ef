package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/talgya/bazaar/internal/config"
)

type sweepFlags struct {
	configPath string
	seeds      []int64
	agentTypes []string
	maxRounds  []int
	steps      int
	output     string
}

// sweepColumns is the fixed column order of the aggregated CSV: grid
// coordinates first, then summary metrics.
var sweepColumns = []string{
	"seed", "agent_type", "max_rounds",
	"total_negotiations", "deals_made", "deal_success_rate",
	"avg_price", "median_price", "price_std",
	"buyer_surplus_mean", "seller_surplus_mean", "welfare_mean",
	"avg_rounds_to_close", "avg_rounds_all",
	"budget_violation_attempts", "cost_violation_attempts",
	"deadlock_rate", "timeouts", "total_risk_events",
}

func newSweepCmd() *cobra.Command {
	flags := &sweepFlags{}
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run a grid of configurations and aggregate results to CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeSweep(flags)
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&flags.configPath, "config", "c", "", "base YAML config file")
	fs.Int64SliceVar(&flags.seeds, "seeds", []int64{42, 123, 456}, "seeds to sweep")
	fs.StringSliceVar(&flags.agentTypes, "agent-types", []string{"rule_based"}, "agent types to sweep")
	fs.IntSliceVar(&flags.maxRounds, "max-rounds-list", []int{5, 10, 15}, "round limits to sweep")
	fs.IntVar(&flags.steps, "steps", 0, "override steps to keep the sweep fast")
	fs.StringVarP(&flags.output, "output", "o", "outputs/sweep_results.csv", "aggregated CSV path")
	return cmd
}

func executeSweep(flags *sweepFlags) error {
	base := config.Default()
	if flags.configPath != "" {
		var err error
		base, err = config.Load(flags.configPath)
		if err != nil {
			return err
		}
	}
	if flags.steps > 0 {
		base.Steps = flags.steps
	}

	total := len(flags.seeds) * len(flags.agentTypes) * len(flags.maxRounds)
	fmt.Printf("Sweep: %d configurations\n", total)

	var rows [][]string
	i := 0
	for _, seed := range flags.seeds {
		for _, agentType := range flags.agentTypes {
			for _, maxRounds := range flags.maxRounds {
				i++
				cfg := base
				cfg.Seed = seed
				cfg.AgentType = agentType
				cfg.BuyerAgentType = ""
				cfg.SellerAgentType = ""
				cfg.Negotiation.MaxRounds = maxRounds
				if err := cfg.Validate(); err != nil {
					return fmt.Errorf("sweep config (seed=%d agent=%s rounds=%d): %w",
						seed, agentType, maxRounds, err)
				}

				fmt.Printf("  [%d/%d] seed=%d  agent=%s  max_rounds=%d ...\n",
					i, total, seed, agentType, maxRounds)
				runDir, err := executeRun(cfg)
				if err != nil {
					return fmt.Errorf("sweep run failed (seed=%d agent=%s rounds=%d): %w",
						seed, agentType, maxRounds, err)
				}

				summary, err := readSummary(runDir)
				if err != nil {
					return err
				}
				metrics, _ := summary["metrics"].(map[string]any)
				row := []string{
					strconv.FormatInt(seed, 10),
					agentType,
					strconv.Itoa(maxRounds),
				}
				for _, col := range sweepColumns[3:] {
					row = append(row, formatMetric(metrics[col]))
				}
				rows = append(rows, row)
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(flags.output), 0o755); err != nil {
		return fmt.Errorf("create sweep output dir: %w", err)
	}
	f, err := os.Create(flags.output)
	if err != nil {
		return fmt.Errorf("create sweep csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(sweepColumns); err != nil {
		return fmt.Errorf("write sweep header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write sweep rows: %w", err)
	}

	fmt.Printf("\nSweep complete: %d runs -> %s\n", len(rows), flags.output)
	return nil
}

func formatMetric(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		if x == float64(int64(x)) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
