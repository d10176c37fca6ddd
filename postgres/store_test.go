package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/deepnoodle-ai/automation"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

func setupTestDatabase(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("automation_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, container.Terminate(context.Background()))
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, Wait(ctx, db, 200*time.Millisecond))
	return db
}

func testRecord(id, workflowID string, started time.Time) *automation.ExecutionRecord {
	completed := started.Add(1500 * time.Millisecond)
	return &automation.ExecutionRecord{
		ID:            id,
		WorkflowID:    workflowID,
		RecordID:      "contact-1",
		Status:        automation.ExecutionStatusCompleted,
		StartedAt:     started,
		CompletedAt:   &completed,
		CurrentNodeID: "tag",
		Logs: []*automation.LogEntry{
			{NodeID: "start", Action: "trigger", Timestamp: started, Result: automation.LogResultSuccess, Message: "Workflow triggered"},
			{NodeID: "tag", Action: "action", Timestamp: completed, Result: automation.LogResultSuccess, Message: "Tag added",
				Data: map[string]any{"tagName": "VIP"}},
		},
	}
}

func TestNewRequiresConnection(t *testing.T) {
	_, err := New(context.Background(), Options{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "db or dsn is required")
}

func TestStore(t *testing.T) {
	db := setupTestDatabase(t)
	ctx := context.Background()

	store, err := New(ctx, Options{DB: db})
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	// Migrations are idempotent
	require.NoError(t, store.Migrate(ctx))

	_, err = store.GetExecution(ctx, "missing")
	require.ErrorIs(t, err, automation.ErrExecutionNotFound)

	base := time.Date(2025, 7, 21, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveExecution(ctx, testRecord("exec-b", "wf-1", base.Add(time.Minute))))
	require.NoError(t, store.SaveExecution(ctx, testRecord("exec-a", "wf-1", base)))
	require.NoError(t, store.SaveExecution(ctx, testRecord("exec-c", "wf-2", base)))

	record, err := store.GetExecution(ctx, "exec-a")
	require.NoError(t, err)
	require.Equal(t, "wf-1", record.WorkflowID)
	require.Equal(t, automation.ExecutionStatusCompleted, record.Status)
	require.True(t, record.StartedAt.Equal(base))
	require.NotNil(t, record.CompletedAt)
	require.Equal(t, 1500*time.Millisecond, record.CompletedAt.Sub(record.StartedAt))
	require.Len(t, record.Logs, 2)
	require.Equal(t, "VIP", record.Logs[1].Data["tagName"])

	records, err := store.ListExecutions(ctx, "wf-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "exec-a", records[0].ID)
	require.Equal(t, "exec-b", records[1].ID)

	all, err := store.ListExecutions(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)

	failed := testRecord("exec-a", "wf-1", base)
	failed.Status = automation.ExecutionStatusFailed
	failed.Error = "boom"
	failed.CompletedAt = nil
	require.NoError(t, store.SaveExecution(ctx, failed))

	record, err = store.GetExecution(ctx, "exec-a")
	require.NoError(t, err)
	require.Equal(t, automation.ExecutionStatusFailed, record.Status)
	require.Equal(t, "boom", record.Error)
	require.Nil(t, record.CompletedAt)
}

func TestEngineSavesToStore(t *testing.T) {
	db := setupTestDatabase(t)
	ctx := context.Background()

	store, err := New(ctx, Options{DB: db, Table: "history"})
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))

	graph, err := automation.NewGraph(automation.GraphOptions{
		ID:    "wf-pg",
		Nodes: []*automation.Node{{ID: "start", Kind: automation.NodeKindTrigger}},
	})
	require.NoError(t, err)
	engine, err := automation.NewEngine(automation.EngineOptions{Store: store})
	require.NoError(t, err)

	execution, err := engine.Execute(ctx, graph, automation.Record{"id": "c-9"}, "")
	require.NoError(t, err)

	saved, err := store.GetExecution(ctx, execution.ID())
	require.NoError(t, err)
	require.Equal(t, "c-9", saved.RecordID)
	require.Equal(t, automation.ExecutionStatusCompleted, saved.Status)
	require.Len(t, saved.Logs, 1)
}
