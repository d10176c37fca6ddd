package automation

import "context"

// NullEntryLogger is a no-op implementation of EntryLogger.
type NullEntryLogger struct{}

func NewNullEntryLogger() *NullEntryLogger {
	return &NullEntryLogger{}
}

func (l *NullEntryLogger) LogEntry(ctx context.Context, executionID string, entry *LogEntry) error {
	return nil
}

func (l *NullEntryLogger) GetEntries(ctx context.Context, executionID string) ([]*LogEntry, error) {
	return nil, nil
}
