package automation

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileExecutionStore persists one JSON document per execution
type FileExecutionStore struct {
	dataDir string
}

// NewFileExecutionStore creates a new file-based store. An empty directory
// defaults to ~/.deepnoodle/automation/executions.
func NewFileExecutionStore(dataDir string) (*FileExecutionStore, error) {
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".deepnoodle", "automation", "executions")
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dataDir, err)
	}
	return &FileExecutionStore{dataDir: dataDir}, nil
}

func (s *FileExecutionStore) recordPath(executionID string) string {
	return filepath.Join(s.dataDir, executionID+".json")
}

// SaveExecution writes the record, replacing any previous version atomically
func (s *FileExecutionStore) SaveExecution(ctx context.Context, record *ExecutionRecord) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal execution: %w", err)
	}
	path := s.recordPath(record.ID)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write execution file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace execution file: %w", err)
	}
	return nil
}

// GetExecution loads one record
func (s *FileExecutionStore) GetExecution(ctx context.Context, executionID string) (*ExecutionRecord, error) {
	data, err := os.ReadFile(s.recordPath(executionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrExecutionNotFound
		}
		return nil, fmt.Errorf("failed to read execution file: %w", err)
	}
	var record ExecutionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal execution: %w", err)
	}
	return &record, nil
}

// ListExecutions scans the data directory
func (s *FileExecutionStore) ListExecutions(ctx context.Context, workflowID string) ([]*ExecutionRecord, error) {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}
	var records []*ExecutionRecord
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		record, err := s.GetExecution(ctx, strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			return nil, err
		}
		if workflowID == "" || record.WorkflowID == workflowID {
			records = append(records, record)
		}
	}
	sortExecutionRecords(records)
	return records, nil
}
