// Package persistence writes run artifacts: the compressed event log,
// the SQLite result store, and the summary reports.
package persistence

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/talgya/bazaar/internal/engine"
	"github.com/talgya/bazaar/internal/negotiation"
)

// RunDir creates and returns the output directory for one run,
// named after the start time and seed.
func RunDir(outputDir string, seed int64) (string, error) {
	dir := filepath.Join(outputDir, fmt.Sprintf("%s_s%d", time.Now().Format("20060102_150405"), seed))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create run dir: %w", err)
	}
	return dir, nil
}

// EventLog appends structured events to events.jsonl.zst in the run
// directory. Safe for use from a single goroutine per writer; the mutex
// guards against incidental concurrent flushes.
type EventLog struct {
	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

// NewEventLog opens the event stream for the given run directory.
func NewEventLog(runDir string) (*EventLog, error) {
	f, err := os.Create(filepath.Join(runDir, "events.jsonl.zst"))
	if err != nil {
		return nil, fmt.Errorf("create event log: %w", err)
	}
	enc, err := zstd.NewWriter(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("zstd writer: %w", err)
	}
	return &EventLog{f: f, enc: enc, w: bufio.NewWriter(enc)}, nil
}

func (l *EventLog) write(v any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	l.w.Write(b)
	l.w.WriteByte('\n')
}

// LogTurn records one negotiation turn.
func (l *EventLog) LogTurn(turn negotiation.Turn, tick int, itemID, buyerID, sellerID string) {
	l.write(map[string]any{
		"event":          "turn",
		"time_step":      tick,
		"item_id":        itemID,
		"buyer_id":       buyerID,
		"seller_id":      sellerID,
		"round":          turn.Round,
		"role":           turn.Role,
		"action":         turn.Action.Type,
		"offer_price":    turn.Action.OfferPrice,
		"message_public": turn.Action.MessagePublic,
		"timestamp":      turn.Timestamp.Format(time.RFC3339Nano),
	})
}

// LogResult records the terminal outcome of one session.
func (l *EventLog) LogResult(r negotiation.Result) {
	l.write(map[string]any{
		"event":             "result",
		"time_step":         r.Tick,
		"item_id":           r.Item.ID,
		"buyer_id":          r.BuyerID,
		"seller_id":         r.SellerID,
		"deal_made":         r.DealMade,
		"deal_price":        r.DealPrice,
		"termination":       r.Termination,
		"rounds_taken":      r.RoundsTaken,
		"buyer_value":       r.BuyerValue,
		"seller_cost":       r.SellerCost,
		"buyer_surplus":     r.BuyerSurplus,
		"seller_surplus":    r.SellerSurplus,
		"risk_events_count": len(r.RiskEvents),
	})
}

// LogTickStats records the per-tick market aggregate.
func (l *EventLog) LogTickStats(s engine.TickStats) {
	l.write(struct {
		Event string `json:"event"`
		engine.TickStats
	}{Event: "tick_end", TickStats: s})
}

// LogRiskEvents records each caught constraint violation.
func (l *EventLog) LogRiskEvents(events []negotiation.RiskEvent) {
	for _, e := range events {
		l.write(struct {
			Event string `json:"event"`
			negotiation.RiskEvent
		}{Event: "risk", RiskEvent: e})
	}
}

// Close flushes and closes the stream. The log is unreadable until
// Close has run.
func (l *EventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.w.Flush(); err != nil {
		return fmt.Errorf("flush event log: %w", err)
	}
	if err := l.enc.Close(); err != nil {
		return fmt.Errorf("close zstd stream: %w", err)
	}
	return l.f.Close()
}
