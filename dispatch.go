package automation

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// conditionResultKey is the data key a condition node stores its outcome in.
// Conditional edges leaving the node are matched against it.
const conditionResultKey = "conditionResult"

// dispatch runs the kind-specific logic for one node. A failed dispatch is
// reported through the entry; the error is reserved for cancellation and
// unexpected failures such as handler errors and panics.
func (t *traversal) dispatch(ctx context.Context, node *Node) (entry *LogEntry, err error) {
	t.execution.setCurrentNode(node.ID)
	ctx = WithNodeID(ctx, node.ID)

	startTime := time.Now()
	event := &NodeDispatchEvent{
		ExecutionID: t.execution.ID(),
		WorkflowID:  t.execution.WorkflowID(),
		NodeID:      node.ID,
		Kind:        node.Kind,
		StartTime:   startTime,
	}
	t.engine.callbacks.BeforeNodeDispatch(ctx, event)

	defer func() {
		if r := recover(); r != nil {
			entry = nil
			err = NewExecutionError(ErrorTypeRuntime, fmt.Sprintf("panic dispatching node %q: %v", node.ID, r))
		}
		endTime := time.Now()
		t.engine.callbacks.AfterNodeDispatch(ctx, &NodeDispatchEvent{
			ExecutionID: event.ExecutionID,
			WorkflowID:  event.WorkflowID,
			NodeID:      node.ID,
			Kind:        node.Kind,
			StartTime:   startTime,
			EndTime:     endTime,
			Duration:    endTime.Sub(startTime),
			Entry:       entry,
			Error:       err,
		})
	}()

	switch node.Kind {
	case NodeKindTrigger:
		return t.dispatchTrigger(node), nil
	case NodeKindAction:
		return t.dispatchAction(ctx, node)
	case NodeKindCondition:
		return t.dispatchCondition(ctx, node), nil
	case NodeKindWait:
		return t.dispatchWait(ctx, node)
	default:
		return newEntry(node, LogResultSuccess, fmt.Sprintf("Unknown node type %q, skipped", node.Kind), nil), nil
	}
}

func newEntry(node *Node, result LogResult, message string, data map[string]any) *LogEntry {
	return &LogEntry{
		NodeID:    node.ID,
		Action:    string(node.Kind),
		Timestamp: time.Now(),
		Result:    result,
		Message:   message,
		Data:      data,
	}
}

func (t *traversal) dispatchTrigger(node *Node) *LogEntry {
	var conditions map[string]any
	if node.Trigger != nil {
		conditions = node.Trigger.Conditions
	}
	var mismatched []string
	for field, expected := range conditions {
		actual, ok := t.record[field]
		if !ok || !valuesEqual(actual, expected) {
			mismatched = append(mismatched, field)
		}
	}
	if len(mismatched) > 0 {
		sort.Strings(mismatched)
		return newEntry(node, LogResultFailure,
			fmt.Sprintf("Trigger conditions not met: %v", mismatched),
			map[string]any{"mismatchedFields": mismatched})
	}
	message := "Workflow triggered"
	if len(conditions) > 0 {
		message = "Trigger conditions met"
	}
	return newEntry(node, LogResultSuccess, message, map[string]any{"record": t.record.Copy()})
}

func (t *traversal) dispatchAction(ctx context.Context, node *Node) (*LogEntry, error) {
	if node.Action == nil || node.Action.ActionType == "" {
		return newEntry(node, LogResultFailure, "Action type not configured", nil), nil
	}
	actionType := node.Action.ActionType
	handler, ok := t.engine.actions.Lookup(actionType)
	if !ok {
		if t.engine.strict {
			err := &UnknownActionError{ActionType: actionType}
			return newEntry(node, LogResultFailure, err.Error(), map[string]any{"actionType": actionType}), nil
		}
		return newEntry(node, LogResultSuccess,
			fmt.Sprintf("Action %q executed", actionType),
			map[string]any{"actionType": actionType}), nil
	}

	settings := node.Action.Settings
	if settings == nil {
		settings = map[string]any{}
	}
	result, err := handler.Handle(ctx, copyMap(settings), t.record.Copy())
	if err != nil {
		return nil, err
	}
	data := make(map[string]any, len(result.Data)+1)
	for k, v := range result.Data {
		data[k] = v
	}
	data["actionType"] = actionType
	if result.Success {
		return newEntry(node, LogResultSuccess, result.Message, data), nil
	}
	return newEntry(node, LogResultFailure, result.Message, data), nil
}

func (t *traversal) dispatchCondition(ctx context.Context, node *Node) *LogEntry {
	cond := node.Condition
	if cond == nil || cond.Field == "" || cond.Operator == "" {
		return newEntry(node, LogResultFailure, "Condition settings not configured", nil)
	}
	result, err := t.engine.evaluator.Evaluate(ctx, cond, t.record)
	if err != nil {
		return newEntry(node, LogResultFailure, err.Error(), map[string]any{
			"field":    cond.Field,
			"operator": cond.Operator,
		})
	}
	return newEntry(node, LogResultSuccess, fmt.Sprintf("Condition evaluated to %t", result), map[string]any{
		conditionResultKey: result,
		"field":            cond.Field,
		"operator":         cond.Operator,
		"value":            cond.Value,
	})
}

func (t *traversal) dispatchWait(ctx context.Context, node *Node) (*LogEntry, error) {
	if node.Wait == nil {
		return newEntry(node, LogResultFailure, "Wait settings not configured", nil), nil
	}
	delay := node.Wait.Duration()
	if delay < 0 {
		return newEntry(node, LogResultFailure, "Wait amount must not be negative", nil), nil
	}
	actual := delay
	if t.engine.maxWait > 0 && actual > t.engine.maxWait {
		actual = t.engine.maxWait
	}

	timer := time.NewTimer(actual)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	message := fmt.Sprintf("Waited %s", delay)
	if actual != delay {
		message = fmt.Sprintf("Waited %s (capped from %s)", actual, delay)
	}
	return newEntry(node, LogResultSuccess, message, map[string]any{
		"amount":   node.Wait.Amount,
		"unit":     string(node.Wait.Unit),
		"delayMs":  delay.Milliseconds(),
		"waitedMs": actual.Milliseconds(),
	}), nil
}
