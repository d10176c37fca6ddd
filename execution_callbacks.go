package automation

import (
	"context"
	"time"
)

// ExecutionCallbacks defines the callback interface for execution events.
// Node callbacks may be invoked concurrently from parallel branches.
type ExecutionCallbacks interface {
	// Execution-level callbacks
	BeforeExecution(ctx context.Context, event *ExecutionEvent)
	AfterExecution(ctx context.Context, event *ExecutionEvent)

	// Node-level callbacks
	BeforeNodeDispatch(ctx context.Context, event *NodeDispatchEvent)
	AfterNodeDispatch(ctx context.Context, event *NodeDispatchEvent)
}

// ExecutionEvent provides context for execution-level events
type ExecutionEvent struct {
	ExecutionID string
	WorkflowID  string
	RecordID    string
	Status      ExecutionStatus
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
	LogCount    int
	Error       error
}

// NodeDispatchEvent provides context for node dispatch events
type NodeDispatchEvent struct {
	ExecutionID string
	WorkflowID  string
	NodeID      string
	Kind        NodeKind
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
	Entry       *LogEntry
	Error       error
}

// BaseExecutionCallbacks provides a default implementation that does nothing
type BaseExecutionCallbacks struct{}

func (n *BaseExecutionCallbacks) BeforeExecution(ctx context.Context, event *ExecutionEvent) {
	// noop
}

func (n *BaseExecutionCallbacks) AfterExecution(ctx context.Context, event *ExecutionEvent) {
	// noop
}

func (n *BaseExecutionCallbacks) BeforeNodeDispatch(ctx context.Context, event *NodeDispatchEvent) {
	// noop
}

func (n *BaseExecutionCallbacks) AfterNodeDispatch(ctx context.Context, event *NodeDispatchEvent) {
	// noop
}

// NewBaseExecutionCallbacks creates a new no-op callbacks implementation.
// Embed this in your own callbacks to get a default implementation that does nothing.
func NewBaseExecutionCallbacks() ExecutionCallbacks {
	return &BaseExecutionCallbacks{}
}

// CallbackChain allows chaining multiple callback implementations
type CallbackChain struct {
	callbacks []ExecutionCallbacks
}

// NewCallbackChain creates a new callback chain
func NewCallbackChain(callbacks ...ExecutionCallbacks) *CallbackChain {
	return &CallbackChain{callbacks: callbacks}
}

// Add adds a callback to the chain
func (c *CallbackChain) Add(callback ExecutionCallbacks) {
	c.callbacks = append(c.callbacks, callback)
}

func (c *CallbackChain) BeforeExecution(ctx context.Context, event *ExecutionEvent) {
	for _, callback := range c.callbacks {
		callback.BeforeExecution(ctx, event)
	}
}

func (c *CallbackChain) AfterExecution(ctx context.Context, event *ExecutionEvent) {
	for _, callback := range c.callbacks {
		callback.AfterExecution(ctx, event)
	}
}

func (c *CallbackChain) BeforeNodeDispatch(ctx context.Context, event *NodeDispatchEvent) {
	for _, callback := range c.callbacks {
		callback.BeforeNodeDispatch(ctx, event)
	}
}

func (c *CallbackChain) AfterNodeDispatch(ctx context.Context, event *NodeDispatchEvent) {
	for _, callback := range c.callbacks {
		callback.AfterNodeDispatch(ctx, event)
	}
}
