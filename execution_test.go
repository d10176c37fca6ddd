package automation

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExecutionLifecycle(t *testing.T) {
	execution := newExecution("exec-1", "wf-1", "contact-1")
	require.Equal(t, ExecutionStatusQueued, execution.Status())
	require.False(t, execution.Status().Terminal())
	require.Empty(t, execution.Logs())

	started := time.Date(2025, 7, 21, 12, 0, 0, 0, time.UTC)
	execution.start(started)
	require.Equal(t, ExecutionStatusRunning, execution.Status())
	require.Equal(t, started, execution.StartedAt())

	execution.setCurrentNode("a")
	execution.appendLog(&LogEntry{NodeID: "a", Result: LogResultSuccess})
	require.Equal(t, "a", execution.CurrentNodeID())
	require.Len(t, execution.Logs(), 1)

	completed := started.Add(3 * time.Second)
	execution.finish(completed, nil)
	require.Equal(t, ExecutionStatusCompleted, execution.Status())
	require.True(t, execution.Success())
	require.Equal(t, completed, execution.CompletedAt())

	// Terminal executions ignore later transitions
	execution.finish(completed.Add(time.Second), errors.New("late"))
	require.Equal(t, ExecutionStatusCompleted, execution.Status())
	require.NoError(t, execution.Err())
}

func TestExecutionRecord(t *testing.T) {
	execution := newExecution("exec-1", "wf-1", "contact-1")
	started := time.Date(2025, 7, 21, 12, 0, 0, 0, time.UTC)
	execution.start(started)
	execution.appendLog(&LogEntry{NodeID: "start", Action: "trigger", Result: LogResultSuccess})

	record := execution.Record()
	require.Equal(t, ExecutionStatusRunning, record.Status)
	require.Nil(t, record.CompletedAt)
	require.Empty(t, record.Error)

	execution.finish(started.Add(2*time.Second), errors.New("boom"))
	record = execution.Record()
	require.Equal(t, ExecutionStatusFailed, record.Status)
	require.Equal(t, "boom", record.Error)
	require.NotNil(t, record.CompletedAt)

	summary := record.Summary()
	require.Equal(t, "exec-1", summary.ExecutionID)
	require.Equal(t, "wf-1", summary.WorkflowID)
	require.Equal(t, "failed", summary.Status)
	require.Equal(t, 2*time.Second, summary.Duration)
	require.Equal(t, 1, summary.LogCount)
}

func TestExecutionLogsAreSnapshots(t *testing.T) {
	execution := newExecution("exec-1", "wf-1", "")
	execution.appendLog(&LogEntry{NodeID: "a"})

	logs := execution.Logs()
	execution.appendLog(&LogEntry{NodeID: "b"})
	require.Len(t, logs, 1)
	require.Len(t, execution.Logs(), 2)
}

func TestExecutionConcurrentAppends(t *testing.T) {
	execution := newExecution("exec-1", "wf-1", "")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			execution.appendLog(&LogEntry{NodeID: "n"})
			_ = execution.Record()
		}()
	}
	wg.Wait()
	require.Len(t, execution.Logs(), 50)
}

func TestNewExecutionID(t *testing.T) {
	a := NewExecutionID()
	b := NewExecutionID()
	require.NotEqual(t, a, b)
	require.Regexp(t, `^exec_[0-9a-z]{26}$`, a)
}

func TestRecordAccessors(t *testing.T) {
	record := Record{"id": 7.0, "name": "Ana", "score": 90, "nothing": nil}
	require.Equal(t, "7", record.ID())
	require.Equal(t, "Ana", record.String("name"))
	require.Equal(t, "90", record.String("score"))
	require.Equal(t, "", record.String("nothing"))
	require.Equal(t, "", record.String("missing"))

	value, ok := record.Get("score")
	require.True(t, ok)
	require.Equal(t, 90, value)

	copied := record.Copy()
	copied["name"] = "Bea"
	require.Equal(t, "Ana", record["name"])

	require.Equal(t, "abc", Record{"id": "abc"}.ID())
	require.Equal(t, "12", Record{"id": int64(12)}.ID())
	require.Equal(t, "", Record{}.ID())
}
