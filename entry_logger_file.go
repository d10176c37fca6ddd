package automation

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileEntryLogger is an implementation of EntryLogger that logs to a file.
// A file is created per execution. The file is formatted as newline-delimited JSON.
type FileEntryLogger struct {
	directory string
	mutex     sync.Mutex
}

func NewFileEntryLogger(directory string) *FileEntryLogger {
	return &FileEntryLogger{directory: directory}
}

func (l *FileEntryLogger) executionLogPath(executionID string) string {
	return filepath.Join(l.directory, fmt.Sprintf("%s.jsonl", executionID))
}

func (l *FileEntryLogger) GetEntries(ctx context.Context, executionID string) ([]*LogEntry, error) {
	data, err := os.ReadFile(l.executionLogPath(executionID))
	if err != nil {
		return nil, err
	}
	var entries []*LogEntry
	for _, line := range strings.Split(string(data), "\n") {
		if line == "" {
			continue
		}
		var entry LogEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, err
		}
		entries = append(entries, &entry)
	}
	return entries, nil
}

func (l *FileEntryLogger) LogEntry(ctx context.Context, executionID string, entry *LogEntry) error {
	encoded, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	// Parallel branches append to the same file
	l.mutex.Lock()
	defer l.mutex.Unlock()

	filePath := l.executionLogPath(executionID)
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(append(encoded, '\n')); err != nil {
		return err
	}
	return f.Sync()
}
