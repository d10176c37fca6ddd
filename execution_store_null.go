package automation

import "context"

// NullExecutionStore is a no-op implementation
type NullExecutionStore struct{}

func NewNullExecutionStore() *NullExecutionStore {
	return &NullExecutionStore{}
}

func (s *NullExecutionStore) SaveExecution(ctx context.Context, record *ExecutionRecord) error {
	return nil
}

func (s *NullExecutionStore) GetExecution(ctx context.Context, executionID string) (*ExecutionRecord, error) {
	return nil, ErrExecutionNotFound
}

func (s *NullExecutionStore) ListExecutions(ctx context.Context, workflowID string) ([]*ExecutionRecord, error) {
	return nil, nil
}
