package automation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/deepnoodle-ai/automation/retry"
	"github.com/deepnoodle-ai/automation/script"
)

// EngineOptions configures a new engine
type EngineOptions struct {
	// Actions are the handlers available to action nodes
	Actions []ActionHandler

	// Notifier receives notifications announced by action handlers
	Notifier NotificationSink

	Logger      *slog.Logger
	Callbacks   ExecutionCallbacks
	Store       ExecutionStore
	EntryLogger EntryLogger

	// MaxWait caps how long a wait node actually suspends its path. The
	// logical delay is still recorded. Zero means no cap.
	MaxWait time.Duration

	// Strict fails action nodes with unregistered action types and
	// condition nodes with unknown operators, instead of letting them pass.
	Strict bool

	// Sequential visits the children of a node one at a time in edge
	// declaration order instead of running fan-out branches concurrently.
	Sequential bool

	// Compiler compiles expression conditions. Defaults to risor.
	Compiler script.Compiler
}

// Engine executes workflow graphs against records. An engine holds no
// per-execution state and may run any number of executions concurrently.
type Engine struct {
	actions     ActionRegistry
	evaluator   *ConditionEvaluator
	notifier    NotificationSink
	logger      *slog.Logger
	callbacks   ExecutionCallbacks
	store       ExecutionStore
	entryLogger EntryLogger
	maxWait     time.Duration
	strict      bool
	sequential  bool
}

// NewEngine returns a new engine configured with the given options
func NewEngine(opts EngineOptions) (*Engine, error) {
	if opts.MaxWait < 0 {
		return nil, fmt.Errorf("max wait must not be negative")
	}
	for i, handler := range opts.Actions {
		if handler == nil {
			return nil, fmt.Errorf("action handler %d is nil", i)
		}
		if handler.Type() == "" {
			return nil, fmt.Errorf("action handler %d has no type", i)
		}
	}
	if opts.Notifier == nil {
		opts.Notifier = NewNullNotificationSink()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Callbacks == nil {
		opts.Callbacks = NewBaseExecutionCallbacks()
	}
	if opts.Store == nil {
		opts.Store = NewNullExecutionStore()
	}
	if opts.EntryLogger == nil {
		opts.EntryLogger = NewNullEntryLogger()
	}
	return &Engine{
		actions: NewActionRegistry(opts.Actions...),
		evaluator: NewConditionEvaluator(ConditionEvaluatorOptions{
			Strict:   opts.Strict,
			Compiler: opts.Compiler,
		}),
		notifier:    opts.Notifier,
		logger:      opts.Logger,
		callbacks:   opts.Callbacks,
		store:       opts.Store,
		entryLogger: opts.EntryLogger,
		maxWait:     opts.MaxWait,
		strict:      opts.Strict,
		sequential:  opts.Sequential,
	}, nil
}

// ActionTypes returns the registered action types, sorted
func (e *Engine) ActionTypes() []string {
	return e.actions.Types()
}

// Store returns the engine's execution store
func (e *Engine) Store() ExecutionStore {
	return e.store
}

// Execute runs the graph against the record and blocks until the execution
// reaches a terminal status. An empty executionID is replaced with a new
// one. The returned execution is never nil; the error is non-nil exactly
// when the execution failed.
func (e *Engine) Execute(ctx context.Context, graph *Graph, record Record, executionID string) (*Execution, error) {
	execution := e.newExecution(graph, record, executionID)
	return execution, e.run(ctx, graph, record, execution)
}

// Start begins executing the graph in the background. The execution can be
// inspected while it runs; the channel yields the final error (nil on
// success) and is then closed.
func (e *Engine) Start(ctx context.Context, graph *Graph, record Record, executionID string) (*Execution, <-chan error) {
	execution := e.newExecution(graph, record, executionID)
	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- e.run(ctx, graph, record, execution)
	}()
	return execution, done
}

func (e *Engine) newExecution(graph *Graph, record Record, executionID string) *Execution {
	if executionID == "" {
		executionID = NewExecutionID()
	}
	var workflowID string
	if graph != nil {
		workflowID = graph.ID()
	}
	return newExecution(executionID, workflowID, record.ID())
}

func (e *Engine) run(ctx context.Context, graph *Graph, record Record, execution *Execution) error {
	logger := e.logger.With("execution_id", execution.ID(), "workflow_id", execution.WorkflowID())
	startTime := time.Now()
	execution.start(startTime)

	e.callbacks.BeforeExecution(ctx, &ExecutionEvent{
		ExecutionID: execution.ID(),
		WorkflowID:  execution.WorkflowID(),
		RecordID:    execution.RecordID(),
		Status:      ExecutionStatusRunning,
		StartTime:   startTime,
	})

	t := &traversal{
		engine:    e,
		graph:     graph,
		record:    record,
		execution: execution,
		logger:    logger,
	}
	err := t.run(ctx)

	endTime := time.Now()
	execution.finish(endTime, err)
	if err != nil {
		logger.Error("execution failed", "error", err, "error_type", ClassifyError(err).Type)
	} else {
		logger.Info("execution completed", "duration", endTime.Sub(startTime))
	}

	e.callbacks.AfterExecution(ctx, &ExecutionEvent{
		ExecutionID: execution.ID(),
		WorkflowID:  execution.WorkflowID(),
		RecordID:    execution.RecordID(),
		Status:      execution.Status(),
		StartTime:   startTime,
		EndTime:     endTime,
		Duration:    endTime.Sub(startTime),
		LogCount:    len(execution.Logs()),
		Error:       err,
	})

	// The record is saved even when the caller cancelled the run
	saveCtx := context.WithoutCancel(ctx)
	snapshot := execution.Record()
	if saveErr := retry.Do(saveCtx, func() error {
		return e.store.SaveExecution(saveCtx, snapshot)
	}); saveErr != nil {
		logger.Error("failed to save execution", "error", saveErr)
	}
	return err
}

// ancestry is the chain of nodes visited on one path, newest first. It is
// immutable, so parallel branches share their common prefix safely.
type ancestry struct {
	nodeID string
	parent *ancestry
}

func (a *ancestry) contains(nodeID string) bool {
	for p := a; p != nil; p = p.parent {
		if p.nodeID == nodeID {
			return true
		}
	}
	return false
}

// path returns the node ids from the root to this point, followed by next.
func (a *ancestry) path(next string) []string {
	var ids []string
	for p := a; p != nil; p = p.parent {
		ids = append(ids, p.nodeID)
	}
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}
	return append(ids, next)
}

// traversal is the state of one depth-first walk over a graph
type traversal struct {
	engine    *Engine
	graph     *Graph
	record    Record
	execution *Execution
	logger    *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mutex  sync.Mutex
	halted bool
	err    error
}

func (t *traversal) run(parent context.Context) error {
	if t.graph == nil || t.graph.Trigger() == nil {
		var graphID string
		if t.graph != nil {
			graphID = t.graph.ID()
		}
		err := &NoTriggerError{GraphID: graphID}
		t.fail(parent, t.systemEntry(err.Error(), nil), err)
		return t.result()
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	t.cancel = cancel

	ctx = WithLogger(ctx, t.logger)
	ctx = WithNotifier(ctx, t.engine.notifier)
	ctx = WithExecutionID(ctx, t.execution.ID())

	t.visit(ctx, t.graph.Trigger(), nil)
	t.wg.Wait()
	return t.result()
}

func (t *traversal) result() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.err
}

func (t *traversal) isHalted() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.halted
}

// fail halts the execution. Only the first failure is recorded; entry may
// be nil when the failing node's own entry was already appended.
func (t *traversal) fail(ctx context.Context, entry *LogEntry, err error) {
	t.mutex.Lock()
	if t.halted {
		t.mutex.Unlock()
		return
	}
	t.halted = true
	t.err = err
	t.mutex.Unlock()

	if entry != nil {
		t.appendEntry(ctx, entry)
	}
	if t.cancel != nil {
		t.cancel()
	}
}

func (t *traversal) appendEntry(ctx context.Context, entry *LogEntry) {
	t.execution.appendLog(entry)
	if err := t.engine.entryLogger.LogEntry(context.WithoutCancel(ctx), t.execution.ID(), entry); err != nil {
		t.logger.Error("failed to log entry", "node_id", entry.NodeID, "error", err)
	}
}

func (t *traversal) systemEntry(message string, data map[string]any) *LogEntry {
	return &LogEntry{
		NodeID:    SystemNodeID,
		Action:    SystemNodeID,
		Timestamp: time.Now(),
		Result:    LogResultFailure,
		Message:   message,
		Data:      data,
	}
}

func (t *traversal) cancelled(ctx context.Context, nodeID string, err error) {
	entry := t.systemEntry(
		fmt.Sprintf("Execution cancelled at node %q: %v", nodeID, err),
		map[string]any{"nodeId": nodeID},
	)
	t.fail(ctx, entry, &ExecutionError{Type: ErrorTypeCancelled, Cause: err.Error(), Wrapped: err})
}

// visit dispatches node and then its compatible children, depth first.
func (t *traversal) visit(ctx context.Context, node *Node, ancestors *ancestry) {
	if t.isHalted() {
		return
	}
	if err := ctx.Err(); err != nil {
		t.cancelled(ctx, node.ID, err)
		return
	}
	if ancestors.contains(node.ID) {
		err := &CycleDetectedError{NodeID: node.ID, Path: ancestors.path(node.ID)}
		t.fail(ctx, t.systemEntry(err.Error(), map[string]any{"path": err.Path}), err)
		return
	}
	path := &ancestry{nodeID: node.ID, parent: ancestors}

	entry, err := t.dispatch(ctx, node)
	if err != nil {
		switch {
		case t.isHalted():
			// Another branch failed and cancelled this one
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			t.cancelled(ctx, node.ID, err)
		default:
			t.fail(ctx, t.systemEntry(err.Error(), map[string]any{"nodeId": node.ID}), err)
		}
		return
	}
	t.appendEntry(ctx, entry)
	t.logger.Debug("node dispatched",
		"node_id", node.ID,
		"kind", node.Kind,
		"result", entry.Result,
		"message", entry.Message)

	if !entry.Succeeded() {
		t.fail(ctx, nil, &NodeFailedError{NodeID: node.ID, Kind: node.Kind, Message: entry.Message})
		return
	}

	children := t.children(node, entry)
	if t.engine.sequential || len(children) <= 1 {
		for _, child := range children {
			t.visit(ctx, child, path)
			if t.isHalted() {
				return
			}
		}
		return
	}
	for _, child := range children {
		t.wg.Add(1)
		go func(child *Node) {
			defer t.wg.Done()
			t.visit(ctx, child, path)
		}(child)
	}
}

// children returns the targets of the node's outgoing edges that are
// compatible with its dispatch result, in edge declaration order.
func (t *traversal) children(node *Node, entry *LogEntry) []*Node {
	conditionResult, hasResult := entry.Data[conditionResultKey].(bool)
	var children []*Node
	for _, edge := range t.graph.Outgoing(node.ID) {
		if hasResult && edge.Conditional() && edge.SourceHandle != fmt.Sprint(conditionResult) {
			continue
		}
		target, ok := t.graph.Node(edge.Target)
		if !ok {
			continue
		}
		children = append(children, target)
	}
	return children
}
