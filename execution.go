package automation

import (
	"sync"
	"time"

	"go.jetify.com/typeid"
)

// NewExecutionID returns a new prefixed id for execution identification
func NewExecutionID() string {
	id, err := typeid.WithPrefix("exec")
	if err != nil {
		panic(err)
	}
	return id.String()
}

// ExecutionStatus represents the execution status
type ExecutionStatus string

const (
	ExecutionStatusQueued    ExecutionStatus = "queued"
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
)

// Terminal reports whether the status is final
func (s ExecutionStatus) Terminal() bool {
	return s == ExecutionStatusCompleted || s == ExecutionStatusFailed
}

// LogResult is the outcome recorded for one dispatched node
type LogResult string

const (
	LogResultSuccess LogResult = "success"
	LogResultFailure LogResult = "failure"
)

// SystemNodeID marks log entries that do not belong to a node.
const SystemNodeID = "system"

// LogEntry records the outcome of one node dispatch. Entries are never
// modified after they are appended.
type LogEntry struct {
	NodeID    string         `json:"nodeId"`
	Action    string         `json:"action"`
	Timestamp time.Time      `json:"timestamp"`
	Result    LogResult      `json:"result"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
}

// Succeeded reports whether the entry records a success
func (e *LogEntry) Succeeded() bool {
	return e.Result == LogResultSuccess
}

// ExecutionRecord is a serializable snapshot of an execution.
type ExecutionRecord struct {
	ID            string          `json:"id"`
	WorkflowID    string          `json:"workflowId"`
	RecordID      string          `json:"recordId,omitempty"`
	Status        ExecutionStatus `json:"status"`
	StartedAt     time.Time       `json:"startedAt"`
	CompletedAt   *time.Time      `json:"completedAt,omitempty"`
	CurrentNodeID string          `json:"currentNodeId,omitempty"`
	Error         string          `json:"error,omitempty"`
	Logs          []*LogEntry     `json:"logs"`
}

// Summary returns a summary view of the record
func (r *ExecutionRecord) Summary() ExecutionSummary {
	summary := ExecutionSummary{
		ExecutionID: r.ID,
		WorkflowID:  r.WorkflowID,
		RecordID:    r.RecordID,
		Status:      string(r.Status),
		StartTime:   r.StartedAt,
		LogCount:    len(r.Logs),
		Error:       r.Error,
	}
	if r.CompletedAt != nil {
		summary.EndTime = *r.CompletedAt
		summary.Duration = r.CompletedAt.Sub(r.StartedAt)
	}
	return summary
}

// Execution is one run of a graph against one record. It is owned by the
// traversal that created it; other goroutines may read it through the
// accessor methods at any time.
type Execution struct {
	id            string
	workflowID    string
	recordID      string
	status        ExecutionStatus
	startedAt     time.Time
	completedAt   time.Time
	currentNodeID string
	err           error
	logs          []*LogEntry
	mutex         sync.RWMutex
}

func newExecution(id, workflowID, recordID string) *Execution {
	return &Execution{
		id:         id,
		workflowID: workflowID,
		recordID:   recordID,
		status:     ExecutionStatusQueued,
		logs:       []*LogEntry{},
	}
}

// ID returns the execution id
func (e *Execution) ID() string {
	return e.id
}

// WorkflowID returns the id of the executed graph
func (e *Execution) WorkflowID() string {
	return e.workflowID
}

// RecordID returns the id of the record the graph ran against
func (e *Execution) RecordID() string {
	return e.recordID
}

// Status returns the current execution status
func (e *Execution) Status() ExecutionStatus {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	return e.status
}

// CurrentNodeID returns the most recently dispatched node
func (e *Execution) CurrentNodeID() string {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	return e.currentNodeID
}

// Err returns the error that failed the execution, if any
func (e *Execution) Err() error {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	return e.err
}

// StartedAt returns the start time
func (e *Execution) StartedAt() time.Time {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	return e.startedAt
}

// CompletedAt returns the completion time, zero while running
func (e *Execution) CompletedAt() time.Time {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	return e.completedAt
}

// Logs returns a copy of the log entries in append order
func (e *Execution) Logs() []*LogEntry {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	logs := make([]*LogEntry, len(e.logs))
	copy(logs, e.logs)
	return logs
}

// Success reports whether the execution completed
func (e *Execution) Success() bool {
	return e.Status() == ExecutionStatusCompleted
}

// Record returns a serializable snapshot of the execution
func (e *Execution) Record() *ExecutionRecord {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	record := &ExecutionRecord{
		ID:            e.id,
		WorkflowID:    e.workflowID,
		RecordID:      e.recordID,
		Status:        e.status,
		StartedAt:     e.startedAt,
		CurrentNodeID: e.currentNodeID,
		Logs:          make([]*LogEntry, len(e.logs)),
	}
	copy(record.Logs, e.logs)
	if !e.completedAt.IsZero() {
		completedAt := e.completedAt
		record.CompletedAt = &completedAt
	}
	if e.err != nil {
		record.Error = e.err.Error()
	}
	return record
}

func (e *Execution) start(now time.Time) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.status = ExecutionStatusRunning
	e.startedAt = now
}

func (e *Execution) setCurrentNode(nodeID string) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.currentNodeID = nodeID
}

func (e *Execution) appendLog(entry *LogEntry) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.logs = append(e.logs, entry)
}

// finish moves the execution to its terminal status. Later calls are ignored.
func (e *Execution) finish(now time.Time, err error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.status.Terminal() {
		return
	}
	e.completedAt = now
	e.err = err
	if err != nil {
		e.status = ExecutionStatusFailed
	} else {
		e.status = ExecutionStatusCompleted
	}
}
