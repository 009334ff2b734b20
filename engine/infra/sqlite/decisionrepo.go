package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gitacompanion/companion/engine/llm/orchestrator"
)

// DecisionRepo stores routing decisions and is an orchestrator.DecisionSink.
type DecisionRepo struct {
	db *sql.DB
}

var _ orchestrator.DecisionSink = (*DecisionRepo)(nil)

func NewDecisionRepo(db *sql.DB) *DecisionRepo { return &DecisionRepo{db: db} }

// BackendSummary aggregates decisions for one model_used value.
type BackendSummary struct {
	Model          string  `json:"model"`
	Total          int     `json:"total"`
	Successes      int     `json:"successes"`
	AvgResponseMS  float64 `json:"avg_response_ms"`
	LastDecisionTS float64 `json:"last_ts"`
}

func (r *DecisionRepo) Record(ctx context.Context, d orchestrator.Decision) error {
	const q = `INSERT INTO routing_decisions
        (ts, endpoint, query_preview, routed_to, model_used, response_time_ms, success)
        VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(
		ctx, q,
		d.TS, d.Endpoint, d.QueryPreview, d.RoutedTo, d.ModelUsed, d.ResponseTimeMS, boolToInt(d.Success),
	); err != nil {
		return fmt.Errorf("sqlite: insert decision: %w", err)
	}
	return nil
}

// Recent returns the newest decisions first.
func (r *DecisionRepo) Recent(ctx context.Context, limit int) ([]orchestrator.Decision, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `SELECT ts, endpoint, query_preview, routed_to, model_used, response_time_ms, success
        FROM routing_decisions ORDER BY ts DESC, id DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list decisions: %w", err)
	}
	defer rows.Close()
	out := make([]orchestrator.Decision, 0, limit)
	for rows.Next() {
		var (
			d       orchestrator.Decision
			success int
		)
		if err := rows.Scan(
			&d.TS, &d.Endpoint, &d.QueryPreview, &d.RoutedTo, &d.ModelUsed, &d.ResponseTimeMS, &success,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scan decision: %w", err)
		}
		d.Success = success == 1
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate decisions: %w", err)
	}
	return out, nil
}

// Summary groups decisions by the backend that served them.
func (r *DecisionRepo) Summary(ctx context.Context) ([]BackendSummary, error) {
	const q = `SELECT model_used, COUNT(*), SUM(success), AVG(response_time_ms), MAX(ts)
        FROM routing_decisions GROUP BY model_used ORDER BY COUNT(*) DESC, model_used`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("sqlite: summarize decisions: %w", err)
	}
	defer rows.Close()
	out := make([]BackendSummary, 0)
	for rows.Next() {
		var s BackendSummary
		if err := rows.Scan(&s.Model, &s.Total, &s.Successes, &s.AvgResponseMS, &s.LastDecisionTS); err != nil {
			return nil, fmt.Errorf("sqlite: scan summary: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate summary: %w", err)
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
