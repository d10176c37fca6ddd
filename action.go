package automation

import (
	"context"
	"sort"
)

// ActionResult is the outcome of one action handler invocation.
type ActionResult struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// Succeeded returns a successful result
func Succeeded(message string, data map[string]any) ActionResult {
	return ActionResult{Success: true, Message: message, Data: data}
}

// Failed returns a failed result
func Failed(message string) ActionResult {
	return ActionResult{Success: false, Message: message}
}

// ActionHandler performs one type of action against a record.
type ActionHandler interface {

	// Type returns the action type identifier the handler is registered under
	Type() string

	// Handle the action. Invalid settings are reported as a failed result;
	// a returned error means something unexpected went wrong.
	Handle(ctx context.Context, settings map[string]any, record Record) (ActionResult, error)
}

// ActionRegistry maps action types to handlers
type ActionRegistry map[string]ActionHandler

// NewActionRegistry returns a registry containing the given handlers. Later
// handlers replace earlier ones with the same type.
func NewActionRegistry(handlers ...ActionHandler) ActionRegistry {
	registry := make(ActionRegistry, len(handlers))
	for _, handler := range handlers {
		registry.Register(handler)
	}
	return registry
}

// Register adds or replaces a handler
func (r ActionRegistry) Register(handler ActionHandler) {
	r[handler.Type()] = handler
}

// Lookup returns the handler registered for an action type
func (r ActionRegistry) Lookup(actionType string) (ActionHandler, bool) {
	handler, ok := r[actionType]
	return handler, ok
}

// Types returns the registered action types, sorted
func (r ActionRegistry) Types() []string {
	types := make([]string, 0, len(r))
	for t := range r {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
