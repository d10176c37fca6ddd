package automation

import (
	"context"
)

// EntryLogger receives each log entry as soon as it is appended to an
// execution, so history can be followed while a run is in progress.
type EntryLogger interface {
	// LogEntry records one entry for an execution
	LogEntry(ctx context.Context, executionID string, entry *LogEntry) error

	// GetEntries retrieves the entries logged for an execution
	GetEntries(ctx context.Context, executionID string) ([]*LogEntry, error)
}
