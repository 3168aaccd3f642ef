package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/bazaar/internal/engine"
	"github.com/talgya/bazaar/internal/negotiation"
)

// Store wraps a SQLite connection holding run, result, and tick rows.
type Store struct {
	conn *sqlx.DB
}

// OpenStore opens or creates a SQLite database at the given path.
func OpenStore(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		steps INTEGER NOT NULL,
		mode TEXT NOT NULL,
		scenario_mode TEXT NOT NULL,
		buyer_agent TEXT NOT NULL,
		seller_agent TEXT NOT NULL,
		started_at TEXT NOT NULL,
		metrics_json TEXT
	);

	CREATE TABLE IF NOT EXISTS results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		time_step INTEGER NOT NULL,
		item_id TEXT NOT NULL,
		item_name TEXT NOT NULL,
		buyer_id TEXT NOT NULL,
		seller_id TEXT NOT NULL,
		deal_made INTEGER NOT NULL,
		deal_price REAL,
		termination TEXT NOT NULL,
		rounds_taken INTEGER NOT NULL,
		buyer_value REAL NOT NULL,
		seller_cost REAL NOT NULL,
		buyer_surplus REAL NOT NULL,
		seller_surplus REAL NOT NULL,
		risk_events_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tick_stats (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		tick INTEGER NOT NULL,
		num_sessions INTEGER NOT NULL,
		deals_made INTEGER NOT NULL,
		fail_rate REAL NOT NULL,
		mean_price REAL NOT NULL,
		price_std REAL NOT NULL,
		liquidity REAL NOT NULL,
		buyer_surplus_mean REAL NOT NULL,
		seller_surplus_mean REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_results_run ON results(run_id);
	CREATE INDEX IF NOT EXISTS idx_tick_stats_run ON tick_stats(run_id);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// RunRecord describes one simulation run.
type RunRecord struct {
	ID          string `db:"id"`
	Seed        int64  `db:"seed"`
	Steps       int    `db:"steps"`
	Mode        string `db:"mode"`
	ScenarioMode string `db:"scenario_mode"`
	BuyerAgent  string `db:"buyer_agent"`
	SellerAgent string `db:"seller_agent"`
	StartedAt   string `db:"started_at"`
	MetricsJSON string `db:"metrics_json"`
}

// SaveRun inserts the run row.
func (s *Store) SaveRun(rec RunRecord) error {
	_, err := s.conn.NamedExec(`
		INSERT INTO runs (id, seed, steps, mode, scenario_mode, buyer_agent, seller_agent, started_at, metrics_json)
		VALUES (:id, :seed, :steps, :mode, :scenario_mode, :buyer_agent, :seller_agent, :started_at, :metrics_json)`,
		rec)
	if err != nil {
		return fmt.Errorf("save run %s: %w", rec.ID, err)
	}
	return nil
}

// SaveMetrics attaches the final run metrics to an existing run row.
func (s *Store) SaveMetrics(runID string, m engine.RunMetrics) error {
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}
	_, err = s.conn.Exec(`UPDATE runs SET metrics_json = ? WHERE id = ?`, string(b), runID)
	if err != nil {
		return fmt.Errorf("save metrics for run %s: %w", runID, err)
	}
	return nil
}

// SaveResults bulk-inserts session results in one transaction.
func (s *Store) SaveResults(runID string, results []negotiation.Result) error {
	tx, err := s.conn.Beginx()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`
		INSERT INTO results (run_id, time_step, item_id, item_name, buyer_id, seller_id,
			deal_made, deal_price, termination, rounds_taken,
			buyer_value, seller_cost, buyer_surplus, seller_surplus, risk_events_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range results {
		riskJSON, err := json.Marshal(r.RiskEvents)
		if err != nil {
			return fmt.Errorf("marshal risk events: %w", err)
		}
		if _, err := stmt.Exec(runID, r.Tick, r.Item.ID, r.Item.Name, r.BuyerID, r.SellerID,
			r.DealMade, r.DealPrice, string(r.Termination), r.RoundsTaken,
			r.BuyerValue, r.SellerCost, r.BuyerSurplus, r.SellerSurplus, string(riskJSON)); err != nil {
			return fmt.Errorf("insert result: %w", err)
		}
	}
	return tx.Commit()
}

// SaveTickStats bulk-inserts per-tick aggregates.
func (s *Store) SaveTickStats(runID string, stats []engine.TickStats) error {
	tx, err := s.conn.Beginx()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, st := range stats {
		if _, err := tx.Exec(`
			INSERT INTO tick_stats (run_id, tick, num_sessions, deals_made, fail_rate,
				mean_price, price_std, liquidity, buyer_surplus_mean, seller_surplus_mean)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, st.Tick, st.NumSessions, st.DealsMade, st.FailRate,
			st.MeanPrice, st.PriceStd, st.Liquidity, st.BuyerSurplusMean, st.SellerSurplusMean); err != nil {
			return fmt.Errorf("insert tick stats: %w", err)
		}
	}
	return tx.Commit()
}

// LoadRun reads one run row back.
func (s *Store) LoadRun(runID string) (RunRecord, error) {
	var rec RunRecord
	err := s.conn.Get(&rec, `SELECT id, seed, steps, mode, scenario_mode, buyer_agent, seller_agent, started_at,
		COALESCE(metrics_json, '') AS metrics_json FROM runs WHERE id = ?`, runID)
	if err != nil {
		return rec, fmt.Errorf("load run %s: %w", runID, err)
	}
	return rec, nil
}

// CountResults returns the number of stored results for a run.
func (s *Store) CountResults(runID string) (int, error) {
	var n int
	if err := s.conn.Get(&n, `SELECT COUNT(*) FROM results WHERE run_id = ?`, runID); err != nil {
		return 0, fmt.Errorf("count results: %w", err)
	}
	return n, nil
}

// LoadTickStats reads all tick rows for a run in tick order.
func (s *Store) LoadTickStats(runID string) ([]engine.TickStats, error) {
	var out []engine.TickStats
	rows, err := s.conn.Queryx(`SELECT tick, num_sessions, deals_made, fail_rate, mean_price,
		price_std, liquidity, buyer_surplus_mean, seller_surplus_mean
		FROM tick_stats WHERE run_id = ? ORDER BY tick`, runID)
	if err != nil {
		return nil, fmt.Errorf("load tick stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var st engine.TickStats
		if err := rows.Scan(&st.Tick, &st.NumSessions, &st.DealsMade, &st.FailRate, &st.MeanPrice,
			&st.PriceStd, &st.Liquidity, &st.BuyerSurplusMean, &st.SellerSurplusMean); err != nil {
			return nil, fmt.Errorf("scan tick stats: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
