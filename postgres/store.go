// Package postgres provides an automation.ExecutionStore backed by
// PostgreSQL through lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/deepnoodle-ai/automation"
	"github.com/deepnoodle-ai/automation/retry"
	"github.com/lib/pq"
)

// Confirm the interface is implemented correctly.
var _ automation.ExecutionStore = (*Store)(nil)

// DefaultTable holds execution records unless Options.Table is set
const DefaultTable = "automation_executions"

// Options configures a Store
type Options struct {
	// DB is an open database handle. Either DB or DSN is required.
	DB *sql.DB

	// DSN is used to open a handle when DB is nil
	DSN string

	// Table defaults to DefaultTable
	Table string
}

// Store persists execution records, one row per execution with the log
// entries kept in a JSONB column.
type Store struct {
	db     *sql.DB
	table  string
	ownsDB bool
}

// New returns a store. When only a DSN is given the connection is opened
// and verified here, and Close releases it.
func New(ctx context.Context, opts Options) (*Store, error) {
	table := opts.Table
	if table == "" {
		table = DefaultTable
	}
	if opts.DB != nil {
		return &Store{db: opts.DB, table: pq.QuoteIdentifier(table)}, nil
	}
	if opts.DSN == "" {
		return nil, errors.New("postgres: db or dsn is required")
	}
	db, err := sql.Open("postgres", opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Store{db: db, table: pq.QuoteIdentifier(table), ownsDB: true}, nil
}

// Close releases the connection if the store opened it
func (s *Store) Close() error {
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}

// Migrate creates the executions table and its indexes if needed
func (s *Store) Migrate(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id TEXT PRIMARY KEY,
	workflow_id TEXT NOT NULL,
	record_id TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	started_at TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ,
	current_node_id TEXT NOT NULL DEFAULT '',
	error TEXT NOT NULL DEFAULT '',
	logs JSONB NOT NULL DEFAULT '[]'
)`, s.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (workflow_id, started_at)`,
			pq.QuoteIdentifier(indexName(s.table)), s.table),
	}
	for _, statement := range statements {
		if _, err := s.db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("postgres: migrate: %w", classify(err))
		}
	}
	return nil
}

func indexName(quotedTable string) string {
	// Strip the quotes added by QuoteIdentifier
	return "idx_" + quotedTable[1:len(quotedTable)-1] + "_workflow"
}

func (s *Store) SaveExecution(ctx context.Context, record *automation.ExecutionRecord) error {
	logs, err := json.Marshal(record.Logs)
	if err != nil {
		return fmt.Errorf("postgres: marshal logs: %w", err)
	}
	var completedAt sql.NullTime
	if record.CompletedAt != nil {
		completedAt = sql.NullTime{Time: *record.CompletedAt, Valid: true}
	}
	query := fmt.Sprintf(`INSERT INTO %s
	(id, workflow_id, record_id, status, started_at, completed_at, current_node_id, error, logs)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE SET
	workflow_id = EXCLUDED.workflow_id,
	record_id = EXCLUDED.record_id,
	status = EXCLUDED.status,
	started_at = EXCLUDED.started_at,
	completed_at = EXCLUDED.completed_at,
	current_node_id = EXCLUDED.current_node_id,
	error = EXCLUDED.error,
	logs = EXCLUDED.logs`, s.table)
	_, err = s.db.ExecContext(ctx, query,
		record.ID,
		record.WorkflowID,
		record.RecordID,
		string(record.Status),
		record.StartedAt,
		completedAt,
		record.CurrentNodeID,
		record.Error,
		string(logs),
	)
	if err != nil {
		return fmt.Errorf("postgres: save execution %s: %w", record.ID, classify(err))
	}
	return nil
}

const selectColumns = `id, workflow_id, record_id, status, started_at, completed_at, current_node_id, error, logs`

func (s *Store) GetExecution(ctx context.Context, executionID string) (*automation.ExecutionRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, selectColumns, s.table)
	record, err := scanRecord(s.db.QueryRowContext(ctx, query, executionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, automation.ErrExecutionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get execution %s: %w", executionID, classify(err))
	}
	return record, nil
}

func (s *Store) ListExecutions(ctx context.Context, workflowID string) ([]*automation.ExecutionRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE ($1 = '' OR workflow_id = $1) ORDER BY started_at, id`,
		selectColumns, s.table)
	rows, err := s.db.QueryContext(ctx, query, workflowID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list executions: %w", classify(err))
	}
	defer rows.Close()

	var records []*automation.ExecutionRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: list executions: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list executions: %w", classify(err))
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*automation.ExecutionRecord, error) {
	var (
		record      automation.ExecutionRecord
		status      string
		completedAt sql.NullTime
		logs        []byte
	)
	err := row.Scan(
		&record.ID,
		&record.WorkflowID,
		&record.RecordID,
		&status,
		&record.StartedAt,
		&completedAt,
		&record.CurrentNodeID,
		&record.Error,
		&logs,
	)
	if err != nil {
		return nil, err
	}
	record.Status = automation.ExecutionStatus(status)
	record.StartedAt = record.StartedAt.UTC()
	if completedAt.Valid {
		t := completedAt.Time.UTC()
		record.CompletedAt = &t
	}
	if err := json.Unmarshal(logs, &record.Logs); err != nil {
		return nil, fmt.Errorf("unmarshal logs: %w", err)
	}
	if record.Logs == nil {
		record.Logs = []*automation.LogEntry{}
	}
	return &record, nil
}

// classify marks errors that are worth retrying. Connection failures,
// serialization failures and admin shutdowns are transient.
func classify(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "08", "40", "53", "57":
			return retry.NewRecoverableError(err)
		}
		return retry.NewNonRecoverableError(err)
	}
	return err
}

// Wait blocks until the database accepts connections or ctx is done. It is
// useful right after starting a database container or service.
func Wait(ctx context.Context, db *sql.DB, interval time.Duration) error {
	return retry.Do(ctx, func() error {
		if err := db.PingContext(ctx); err != nil {
			return retry.NewRecoverableError(err)
		}
		return nil
	}, retry.WithMaxRetries(10), retry.WithBaseWait(interval))
}
