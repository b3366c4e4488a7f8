package history

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"

	"actengine/services/execmanager"
)

func TestStore_RecordRun_InsertsRow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}
	defer mock.Close()

	mock.ExpectExec("INSERT INTO execution_runs").
		WithArgs("exec-1", "greet-workflow", "success", pgxmock.AnyArg(), pgxmock.AnyArg(), 2, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	s := &Store{db: mock}
	result := &execmanager.Result{
		Status:      execmanager.RunSuccess,
		ExecutionID: "exec-1",
		NodeStatus: map[string]execmanager.NodeStatusEntry{
			"A": {Status: execmanager.StatusSuccess},
			"B": {Status: execmanager.StatusSuccess},
		},
		Metrics: execmanager.MetricsSnapshot{
			NodeExecutionTimes: map[string]float64{"A": 1.0},
		},
	}

	s.RecordRun("greet-workflow", result)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet mock expectations: %v", err)
	}
}

func TestStore_RecordRun_NilResultIsNoOp(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}
	defer mock.Close()

	s := &Store{db: mock}
	s.RecordRun("greet-workflow", nil)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet mock expectations: %v", err)
	}
}

func TestStore_Summarize_AggregatesCounts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("SELECT").
		WillReturnRows(pgxmock.NewRows([]string{"count", "success", "error"}).AddRow(3, 2, 1))

	now := time.Now()
	mock.ExpectQuery("SELECT execution_id, workflow_name").
		WithArgs(10).
		WillReturnRows(
			pgxmock.NewRows([]string{
				"execution_id", "workflow_name", "status", "started_at", "finished_at",
				"node_count", "metrics_snapshot",
			}).AddRow("exec-1", "greet-workflow", "success", now, now, 2, []byte(`{}`)),
		)

	s := &Store{db: mock}
	sum, err := s.Summarize(context.Background())
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if sum.TotalRuns != 3 || sum.SuccessRuns != 2 || sum.ErrorRuns != 1 {
		t.Errorf("Summarize() = %+v, want totals 3/2/1", sum)
	}
	if len(sum.Recent) != 1 || sum.Recent[0].ExecutionID != "exec-1" {
		t.Errorf("Recent = %+v, want one run exec-1", sum.Recent)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet mock expectations: %v", err)
	}
}
