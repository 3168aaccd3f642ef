package persistence

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/talgya/bazaar/internal/negotiation"
)

// Summary is the content of summary.json: the run metrics plus scenario
// metadata.
type Summary struct {
	Metrics      any            `json:"metrics"`
	ScenarioMode string         `json:"scenario_mode"`
	Mode         string         `json:"mode"`
	NumTicks     int            `json:"num_ticks,omitempty"`
	FixedParams  map[string]any `json:"fixed_params,omitempty"`
}

// WriteSummary writes the aggregate metrics to summary.json.
func WriteSummary(summary Summary, runDir string) (string, error) {
	path := filepath.Join(runDir, "summary.json")
	b, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal summary: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", fmt.Errorf("write summary: %w", err)
	}
	return path, nil
}

var dealFields = []string{
	"time_step", "item_id", "item_name", "buyer_id", "seller_id",
	"deal_made", "deal_price", "termination_reason", "rounds_taken",
	"buyer_value", "seller_cost", "buyer_surplus", "seller_surplus",
}

// WriteDealsCSV writes one row per session to deals.csv.
func WriteDealsCSV(results []negotiation.Result, runDir string) (string, error) {
	path := filepath.Join(runDir, "deals.csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create deals csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(dealFields); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range results {
		price := ""
		if r.DealPrice != nil {
			price = strconv.FormatFloat(*r.DealPrice, 'f', 2, 64)
		}
		row := []string{
			strconv.Itoa(r.Tick),
			r.Item.ID,
			r.Item.Name,
			r.BuyerID,
			r.SellerID,
			strconv.FormatBool(r.DealMade),
			price,
			string(r.Termination),
			strconv.Itoa(r.RoundsTaken),
			strconv.FormatFloat(r.BuyerValue, 'f', 2, 64),
			strconv.FormatFloat(r.SellerCost, 'f', 2, 64),
			strconv.FormatFloat(r.BuyerSurplus, 'f', 2, 64),
			strconv.FormatFloat(r.SellerSurplus, 'f', 2, 64),
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush deals csv: %w", err)
	}
	return path, nil
}
