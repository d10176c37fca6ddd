package automation

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Error type constants for classification
const (
	// ErrorTypeStructural means the graph cannot be executed at all, for
	// example because it has no trigger.
	ErrorTypeStructural = "structural"

	// ErrorTypeConfiguration means a node is missing required settings or a
	// handler rejected its settings.
	ErrorTypeConfiguration = "configuration"

	// ErrorTypeCycle means a node was reached again on the same path.
	ErrorTypeCycle = "cycle"

	// ErrorTypeCancelled means the caller cancelled the execution or its
	// deadline expired.
	ErrorTypeCancelled = "cancelled"

	// ErrorTypeRuntime covers everything else, including handler errors and
	// recovered panics.
	ErrorTypeRuntime = "runtime"
)

// ExecutionError represents a classified execution failure. It supports Go's
// error wrapping patterns with Unwrap().
type ExecutionError struct {
	Type    string `json:"type"`
	Cause   string `json:"cause"`
	Wrapped error  `json:"-"`
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Cause)
}

// Unwrap implements the error unwrapping interface for errors.Is and errors.As
func (e *ExecutionError) Unwrap() error {
	return e.Wrapped
}

// NewExecutionError creates a new ExecutionError with the given type and cause.
func NewExecutionError(errorType, cause string) *ExecutionError {
	return &ExecutionError{Type: errorType, Cause: cause}
}

// ClassifyError classifies an arbitrary error into an ExecutionError
func ClassifyError(err error) *ExecutionError {
	var executionErr *ExecutionError
	if errors.As(err, &executionErr) {
		return executionErr
	}
	classified := &ExecutionError{Cause: err.Error(), Wrapped: err}
	var (
		noTrigger        *NoTriggerError
		multipleTriggers *MultipleTriggersError
		cycle            *CycleDetectedError
		configErr        *ConfigError
		nodeFailed       *NodeFailedError
		unknownAction    *UnknownActionError
		unknownOperator  *UnknownOperatorError
	)
	switch {
	case errors.As(err, &noTrigger), errors.As(err, &multipleTriggers):
		classified.Type = ErrorTypeStructural
	case errors.As(err, &cycle):
		classified.Type = ErrorTypeCycle
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		classified.Type = ErrorTypeCancelled
	case errors.As(err, &configErr), errors.As(err, &nodeFailed),
		errors.As(err, &unknownAction), errors.As(err, &unknownOperator):
		classified.Type = ErrorTypeConfiguration
	default:
		classified.Type = ErrorTypeRuntime
	}
	return classified
}

// NoTriggerError is returned when a graph has no trigger node.
type NoTriggerError struct {
	GraphID string
}

func (e *NoTriggerError) Error() string {
	return fmt.Sprintf("no trigger node found in workflow %q", e.GraphID)
}

// MultipleTriggersError is returned when a graph has more than one trigger.
type MultipleTriggersError struct {
	GraphID string
	NodeIDs []string
}

func (e *MultipleTriggersError) Error() string {
	return fmt.Sprintf("workflow %q has multiple trigger nodes: %s", e.GraphID, strings.Join(e.NodeIDs, ", "))
}

// CycleDetectedError is returned when traversal reaches a node that is
// already an ancestor on the current path.
type CycleDetectedError struct {
	NodeID string
	Path   []string
}

func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("cycle detected at node %q (path: %s)", e.NodeID, strings.Join(e.Path, " -> "))
}

// ConfigError describes a node whose configuration is unusable.
type ConfigError struct {
	NodeID string
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	switch {
	case e.NodeID == "":
		return e.Reason
	case e.Field == "":
		return fmt.Sprintf("node %q: %s", e.NodeID, e.Reason)
	default:
		return fmt.Sprintf("node %q: %s (%s)", e.NodeID, e.Reason, e.Field)
	}
}

// NodeFailedError is returned when a node dispatch reports failure. The
// failure halts the whole execution.
type NodeFailedError struct {
	NodeID  string
	Kind    NodeKind
	Message string
}

func (e *NodeFailedError) Error() string {
	return fmt.Sprintf("%s node %q failed: %s", e.Kind, e.NodeID, e.Message)
}

// UnknownActionError is reported in strict mode for unregistered action types.
type UnknownActionError struct {
	ActionType string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("unknown action type %q", e.ActionType)
}

// UnknownOperatorError is reported in strict mode for unsupported operators.
type UnknownOperatorError struct {
	Operator string
}

func (e *UnknownOperatorError) Error() string {
	return fmt.Sprintf("unknown condition operator %q", e.Operator)
}
