// Package history is a thin Postgres-backed store recording a durable
// summary row per completed or failed workflow run, feeding the agent's
// GET /api/status and GET /admin/dashboard surfaces. It is optional:
// nothing in execmanager or agent requires a non-nil Store.
package history

import (
	"encoding/json"
	"time"
)

// Run is one recorded execution summary.
type Run struct {
	ExecutionID string          `json:"execution_id" db:"execution_id"`
	Workflow    string          `json:"workflow_name" db:"workflow_name"`
	Status      string          `json:"status" db:"status"`
	StartedAt   time.Time       `json:"started_at" db:"started_at"`
	FinishedAt  time.Time       `json:"finished_at" db:"finished_at"`
	NodeCount   int             `json:"node_count" db:"node_count"`
	Metrics     json.RawMessage `json:"metrics_snapshot" db:"metrics_snapshot"`
}

// Summary is the aggregate view returned to GET /api/status: recent runs
// plus simple tallies, enough for a dashboard without a full query API.
type Summary struct {
	TotalRuns   int   `json:"total_runs"`
	SuccessRuns int   `json:"success_runs"`
	ErrorRuns   int   `json:"error_runs"`
	Recent      []Run `json:"recent_runs"`
}
