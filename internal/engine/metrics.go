package engine

import (
	"github.com/montanaflynn/stats"

	"github.com/talgya/bazaar/internal/market"
	"github.com/talgya/bazaar/internal/negotiation"
)

// TickStats aggregates one tick's sessions in market mode.
type TickStats struct {
	Tick              int     `json:"tick"`
	NumSessions       int     `json:"num_sessions"`
	DealsMade         int     `json:"deals_made"`
	FailRate          float64 `json:"fail_rate"`
	MeanPrice         float64 `json:"mean_price"`
	PriceStd          float64 `json:"price_std"`
	Liquidity         float64 `json:"liquidity"`
	BuyerSurplusMean  float64 `json:"buyer_surplus_mean"`
	SellerSurplusMean float64 `json:"seller_surplus_mean"`
}

// RunMetrics is the whole-run summary written to summary.json.
type RunMetrics struct {
	TotalNegotiations       int     `json:"total_negotiations"`
	DealsMade               int     `json:"deals_made"`
	DealSuccessRate         float64 `json:"deal_success_rate"`
	AvgPrice                float64 `json:"avg_price"`
	MedianPrice             float64 `json:"median_price"`
	PriceStd                float64 `json:"price_std"`
	BuyerSurplusMean        float64 `json:"buyer_surplus_mean"`
	SellerSurplusMean       float64 `json:"seller_surplus_mean"`
	WelfareMean             float64 `json:"welfare_mean"`
	AvgRoundsToClose        float64 `json:"avg_rounds_to_close"`
	AvgRoundsAll            float64 `json:"avg_rounds_all"`
	BudgetViolationAttempts int     `json:"budget_violation_attempts"`
	CostViolationAttempts   int     `json:"cost_violation_attempts"`
	DeadlockRate            float64 `json:"deadlock_rate"`
	Timeouts                int     `json:"timeouts"`
	TotalRiskEvents         int     `json:"total_risk_events"`
}

func mean2(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m, _ := stats.Mean(xs)
	return market.Round2(m)
}

func median2(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m, _ := stats.Median(xs)
	return market.Round2(m)
}

// stdev2 is the sample standard deviation, zero for fewer than two points.
func stdev2(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	s, _ := stats.StandardDeviationSample(xs)
	return market.Round2(s)
}

// ComputeTickStats aggregates one tick's results. Ratios carry four
// decimal places, money two.
func ComputeTickStats(tick int, results []negotiation.Result) TickStats {
	total := len(results)
	if total == 0 {
		return TickStats{Tick: tick}
	}

	var prices, buyerSurplus, sellerSurplus []float64
	deals := 0
	for _, r := range results {
		if !r.DealMade {
			continue
		}
		deals++
		if r.DealPrice != nil {
			prices = append(prices, *r.DealPrice)
		}
		buyerSurplus = append(buyerSurplus, r.BuyerSurplus)
		sellerSurplus = append(sellerSurplus, r.SellerSurplus)
	}

	return TickStats{
		Tick:              tick,
		NumSessions:       total,
		DealsMade:         deals,
		FailRate:          market.Round(float64(total-deals)/float64(total), 4),
		MeanPrice:         mean2(prices),
		PriceStd:          stdev2(prices),
		Liquidity:         market.Round(float64(deals)/float64(total), 4),
		BuyerSurplusMean:  mean2(buyerSurplus),
		SellerSurplusMean: mean2(sellerSurplus),
	}
}

// ComputeRunMetrics summarizes an entire run. An empty result set
// yields the zero value, which serializes to all-zero metrics.
func ComputeRunMetrics(results []negotiation.Result) RunMetrics {
	total := len(results)
	if total == 0 {
		return RunMetrics{}
	}

	var prices, buyerSurplus, sellerSurplus, welfare, dealRounds, allRounds []float64
	deals, timeouts, budgetViolations, costViolations, riskEvents := 0, 0, 0, 0, 0

	for _, r := range results {
		allRounds = append(allRounds, float64(r.RoundsTaken))
		if r.Termination == negotiation.ReasonTimeout {
			timeouts++
		}
		riskEvents += len(r.RiskEvents)
		for _, e := range r.RiskEvents {
			switch e.ViolationKind {
			case negotiation.ViolationBudget:
				budgetViolations++
			case negotiation.ViolationCost:
				costViolations++
			}
		}
		if !r.DealMade {
			continue
		}
		deals++
		if r.DealPrice != nil {
			prices = append(prices, *r.DealPrice)
		}
		buyerSurplus = append(buyerSurplus, r.BuyerSurplus)
		sellerSurplus = append(sellerSurplus, r.SellerSurplus)
		welfare = append(welfare, r.BuyerSurplus+r.SellerSurplus)
		dealRounds = append(dealRounds, float64(r.RoundsTaken))
	}

	return RunMetrics{
		TotalNegotiations:       total,
		DealsMade:               deals,
		DealSuccessRate:         market.Round(float64(deals)/float64(total), 4),
		AvgPrice:                mean2(prices),
		MedianPrice:             median2(prices),
		PriceStd:                stdev2(prices),
		BuyerSurplusMean:        mean2(buyerSurplus),
		SellerSurplusMean:       mean2(sellerSurplus),
		WelfareMean:             mean2(welfare),
		AvgRoundsToClose:        mean2(dealRounds),
		AvgRoundsAll:            mean2(allRounds),
		BudgetViolationAttempts: budgetViolations,
		CostViolationAttempts:   costViolations,
		DeadlockRate:            market.Round(float64(timeouts)/float64(total), 4),
		Timeouts:                timeouts,
		TotalRiskEvents:         riskEvents,
	}
}
