package automation

import (
	"context"
	"errors"
)

// ErrExecutionNotFound is returned by stores for unknown execution ids.
var ErrExecutionNotFound = errors.New("execution not found")

// ExecutionStore persists finished execution records for history viewers.
type ExecutionStore interface {
	// SaveExecution creates or replaces an execution record
	SaveExecution(ctx context.Context, record *ExecutionRecord) error

	// GetExecution loads one execution record
	GetExecution(ctx context.Context, executionID string) (*ExecutionRecord, error)

	// ListExecutions returns the records for a workflow, oldest first. An
	// empty workflow id lists every execution.
	ListExecutions(ctx context.Context, workflowID string) ([]*ExecutionRecord, error)
}
