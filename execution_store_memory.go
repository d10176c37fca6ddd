package automation

import (
	"context"
	"sort"
	"sync"
)

// MemoryExecutionStore keeps execution records in memory.
type MemoryExecutionStore struct {
	records map[string]*ExecutionRecord
	mutex   sync.RWMutex
}

func NewMemoryExecutionStore() *MemoryExecutionStore {
	return &MemoryExecutionStore{records: map[string]*ExecutionRecord{}}
}

func (s *MemoryExecutionStore) SaveExecution(ctx context.Context, record *ExecutionRecord) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.records[record.ID] = copyExecutionRecord(record)
	return nil
}

func (s *MemoryExecutionStore) GetExecution(ctx context.Context, executionID string) (*ExecutionRecord, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	record, ok := s.records[executionID]
	if !ok {
		return nil, ErrExecutionNotFound
	}
	return copyExecutionRecord(record), nil
}

func (s *MemoryExecutionStore) ListExecutions(ctx context.Context, workflowID string) ([]*ExecutionRecord, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var records []*ExecutionRecord
	for _, record := range s.records {
		if workflowID == "" || record.WorkflowID == workflowID {
			records = append(records, copyExecutionRecord(record))
		}
	}
	sortExecutionRecords(records)
	return records, nil
}

func copyExecutionRecord(r *ExecutionRecord) *ExecutionRecord {
	copied := *r
	copied.Logs = make([]*LogEntry, len(r.Logs))
	copy(copied.Logs, r.Logs)
	if r.CompletedAt != nil {
		completedAt := *r.CompletedAt
		copied.CompletedAt = &completedAt
	}
	return &copied
}

func sortExecutionRecords(records []*ExecutionRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].StartedAt.Equal(records[j].StartedAt) {
			return records[i].ID < records[j].ID
		}
		return records[i].StartedAt.Before(records[j].StartedAt)
	})
}
