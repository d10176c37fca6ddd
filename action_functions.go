package automation

import (
	"context"
	"encoding/json"
	"fmt"
)

// Confirm the interfaces are implemented correctly.
var (
	_ ActionHandler = (*ActionFunction)(nil)
	_ ActionHandler = (*typedAction[struct{}])(nil)
)

// ActionFunc is the signature of a function usable as an action handler.
type ActionFunc func(ctx context.Context, settings map[string]any, record Record) (ActionResult, error)

// ActionFunction wraps a function for use as an ActionHandler.
type ActionFunction struct {
	actionType string
	fn         ActionFunc
}

// NewActionFunction returns an ActionHandler for the given function.
func NewActionFunction(actionType string, fn ActionFunc) *ActionFunction {
	return &ActionFunction{actionType: actionType, fn: fn}
}

// Type of the action.
func (a *ActionFunction) Type() string {
	return a.actionType
}

// Handle the action.
func (a *ActionFunction) Handle(ctx context.Context, settings map[string]any, record Record) (ActionResult, error) {
	return a.fn(ctx, settings, record)
}

// TypedActionHandler is an action whose settings decode into a struct.
type TypedActionHandler[TSettings any] interface {
	Type() string
	Handle(ctx context.Context, settings TSettings, record Record) (ActionResult, error)
}

// NewTypedAction adapts a TypedActionHandler to the ActionHandler interface.
// Settings are decoded using the struct's json tags.
func NewTypedAction[TSettings any](handler TypedActionHandler[TSettings]) ActionHandler {
	return &typedAction[TSettings]{handler: handler}
}

// TypedActionFunction wraps a function with typed settings as an ActionHandler.
func TypedActionFunction[TSettings any](actionType string, fn func(ctx context.Context, settings TSettings, record Record) (ActionResult, error)) ActionHandler {
	return NewTypedAction[TSettings](&typedActionFunction[TSettings]{actionType: actionType, fn: fn})
}

type typedAction[TSettings any] struct {
	handler TypedActionHandler[TSettings]
}

func (t *typedAction[TSettings]) Type() string {
	return t.handler.Type()
}

func (t *typedAction[TSettings]) Handle(ctx context.Context, settings map[string]any, record Record) (ActionResult, error) {
	var typed TSettings
	if len(settings) > 0 {
		encoded, err := json.Marshal(settings)
		if err != nil {
			return ActionResult{}, fmt.Errorf("failed to encode %s settings: %w", t.Type(), err)
		}
		if err := json.Unmarshal(encoded, &typed); err != nil {
			return Failed(fmt.Sprintf("Invalid %s settings: %v", t.Type(), err)), nil
		}
	}
	return t.handler.Handle(ctx, typed, record)
}

type typedActionFunction[TSettings any] struct {
	actionType string
	fn         func(ctx context.Context, settings TSettings, record Record) (ActionResult, error)
}

func (t *typedActionFunction[TSettings]) Type() string {
	return t.actionType
}

func (t *typedActionFunction[TSettings]) Handle(ctx context.Context, settings TSettings, record Record) (ActionResult, error) {
	return t.fn(ctx, settings, record)
}
