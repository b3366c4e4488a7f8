package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"actengine/services/execmanager"
)

// DB abstracts the database operations used by the store. Satisfied by
// *pgxpool.Pool in production and pgxmock in tests.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store persists execution-run summaries to PostgreSQL.
type Store struct {
	db DB
}

// New wraps an already-connected pool. Passing a nil pool is rejected;
// callers that want to run with no history store at all should simply
// leave the agent's Options.History field nil instead of constructing
// one.
func New(pool *pgxpool.Pool) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("history: db pool cannot be nil")
	}
	return &Store{db: pool}, nil
}

// RecordRun implements agent.HistoryRecorder. It has no error return
// because the agent treats history as best-effort observability, not a
// dependency the request path can fail on — a write failure is logged
// and swallowed.
func (s *Store) RecordRun(workflowName string, result *execmanager.Result) {
	if s == nil || result == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metricsJSON, err := json.Marshal(result.Metrics)
	if err != nil {
		slog.Error("history: marshal metrics snapshot", "execution_id", result.ExecutionID, "error", err)
		return
	}

	now := time.Now()
	_, err = s.db.Exec(ctx, `
        INSERT INTO execution_runs (
            execution_id, workflow_name, status, started_at, finished_at,
            node_count, metrics_snapshot
        ) VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (execution_id) DO UPDATE SET
            status = EXCLUDED.status,
            finished_at = EXCLUDED.finished_at,
            node_count = EXCLUDED.node_count,
            metrics_snapshot = EXCLUDED.metrics_snapshot`,
		result.ExecutionID, workflowName, string(result.Status), now, now,
		len(result.NodeStatus), metricsJSON)
	if err != nil {
		slog.Error("history: record run", "execution_id", result.ExecutionID, "error", err)
	}
}

// RecentRuns returns up to limit runs, most recent first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(ctx, `
        SELECT execution_id, workflow_name, status, started_at, finished_at,
               node_count, metrics_snapshot
        FROM execution_runs
        ORDER BY finished_at DESC
        LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query recent runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ExecutionID, &r.Workflow, &r.Status, &r.StartedAt, &r.FinishedAt,
			&r.NodeCount, &r.Metrics); err != nil {
			return nil, fmt.Errorf("history: scan run row: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: rows error: %w", err)
	}
	return runs, nil
}

// Summarize aggregates run counts by status alongside the most recent
// runs, shaped for GET /api/status and GET /admin/dashboard.
func (s *Store) Summarize(ctx context.Context) (Summary, error) {
	var sum Summary
	err := s.db.QueryRow(ctx, `
        SELECT
            COUNT(*),
            COUNT(*) FILTER (WHERE status = 'success'),
            COUNT(*) FILTER (WHERE status = 'error')
        FROM execution_runs`).Scan(&sum.TotalRuns, &sum.SuccessRuns, &sum.ErrorRuns)
	if err != nil {
		return Summary{}, fmt.Errorf("history: summarize: %w", err)
	}

	recent, err := s.RecentRuns(ctx, 10)
	if err != nil {
		return Summary{}, err
	}
	sum.Recent = recent
	return sum, nil
}
