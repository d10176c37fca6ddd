package automation

import (
	"fmt"
	"time"
)

// NodeKind identifies what a node does when dispatched.
type NodeKind string

const (
	NodeKindTrigger   NodeKind = "trigger"
	NodeKindAction    NodeKind = "action"
	NodeKindCondition NodeKind = "condition"
	NodeKindWait      NodeKind = "wait"
)

// Known reports whether the kind is one the engine dispatches. Nodes of any
// other kind pass through as no-ops.
func (k NodeKind) Known() bool {
	switch k {
	case NodeKindTrigger, NodeKindAction, NodeKindCondition, NodeKindWait:
		return true
	}
	return false
}

// Branch selectors carried on edges leaving a condition node.
const (
	HandleDefault = "default"
	HandleTrue    = "true"
	HandleFalse   = "false"
)

// Node is one vertex of a workflow graph. Exactly one of the payload fields
// matching Kind is expected to be set; nodes of unknown kinds carry none.
type Node struct {
	ID        string           `json:"id" yaml:"id"`
	Kind      NodeKind         `json:"kind" yaml:"kind"`
	Label     string           `json:"label,omitempty" yaml:"label,omitempty"`
	Trigger   *TriggerConfig   `json:"trigger,omitempty" yaml:"trigger,omitempty"`
	Action    *ActionConfig    `json:"action,omitempty" yaml:"action,omitempty"`
	Condition *ConditionConfig `json:"condition,omitempty" yaml:"condition,omitempty"`
	Wait      *WaitConfig      `json:"wait,omitempty" yaml:"wait,omitempty"`
}

// Edge is a directed connection between two nodes.
type Edge struct {
	ID           string `json:"id,omitempty" yaml:"id,omitempty"`
	Source       string `json:"source" yaml:"source"`
	Target       string `json:"target" yaml:"target"`
	SourceHandle string `json:"sourceHandle,omitempty" yaml:"sourceHandle,omitempty"`
}

// Conditional reports whether the edge is only followed for one outcome of
// a condition node.
func (e *Edge) Conditional() bool {
	return e.SourceHandle == HandleTrue || e.SourceHandle == HandleFalse
}

// TriggerConfig gates an execution on record fields. Every listed field must
// equal the expected value for the run to proceed.
type TriggerConfig struct {
	Conditions map[string]any `json:"conditions,omitempty" yaml:"conditions,omitempty"`
}

// ActionConfig selects an action handler and its settings.
type ActionConfig struct {
	ActionType string         `json:"actionType" yaml:"actionType"`
	Settings   map[string]any `json:"settings,omitempty" yaml:"settings,omitempty"`
}

// ConditionConfig compares one record field against a value.
type ConditionConfig struct {
	Field    string `json:"field" yaml:"field"`
	Operator string `json:"operator" yaml:"operator"`
	Value    any    `json:"value,omitempty" yaml:"value,omitempty"`
}

// WaitUnit is the unit a wait amount is expressed in.
type WaitUnit string

const (
	WaitUnitMinutes WaitUnit = "minutes"
	WaitUnitHours   WaitUnit = "hours"
	WaitUnitDays    WaitUnit = "days"
)

// WaitConfig suspends a path for Amount units. Unrecognized units are read
// as seconds.
type WaitConfig struct {
	Amount float64  `json:"amount" yaml:"amount"`
	Unit   WaitUnit `json:"unit,omitempty" yaml:"unit,omitempty"`
}

// Duration returns the logical delay described by the config.
func (w *WaitConfig) Duration() time.Duration {
	var unit time.Duration
	switch w.Unit {
	case WaitUnitMinutes:
		unit = time.Minute
	case WaitUnitHours:
		unit = time.Hour
	case WaitUnitDays:
		unit = 24 * time.Hour
	default:
		unit = time.Second
	}
	return time.Duration(w.Amount * float64(unit))
}

// validate checks that the node carries the payload its kind requires.
// With complete set, required payload fields are checked too.
func (n *Node) validate(complete bool) error {
	if n.ID == "" {
		return &ConfigError{Reason: "node id required"}
	}
	payloads := map[NodeKind]bool{
		NodeKindTrigger:   n.Trigger != nil,
		NodeKindAction:    n.Action != nil,
		NodeKindCondition: n.Condition != nil,
		NodeKindWait:      n.Wait != nil,
	}
	for kind, set := range payloads {
		if set && kind != n.Kind {
			return &ConfigError{
				NodeID: n.ID,
				Field:  string(kind),
				Reason: fmt.Sprintf("payload not allowed on %s node", n.Kind),
			}
		}
	}
	if !complete {
		return nil
	}
	switch n.Kind {
	case NodeKindAction:
		if n.Action == nil || n.Action.ActionType == "" {
			return &ConfigError{NodeID: n.ID, Field: "actionType", Reason: "action type not configured"}
		}
	case NodeKindCondition:
		if n.Condition == nil {
			return &ConfigError{NodeID: n.ID, Field: "condition", Reason: "condition settings not configured"}
		}
		if n.Condition.Field == "" {
			return &ConfigError{NodeID: n.ID, Field: "field", Reason: "condition field required"}
		}
		if n.Condition.Operator == "" {
			return &ConfigError{NodeID: n.ID, Field: "operator", Reason: "condition operator required"}
		}
	case NodeKindWait:
		if n.Wait == nil {
			return &ConfigError{NodeID: n.ID, Field: "wait", Reason: "wait settings not configured"}
		}
		if n.Wait.Amount < 0 {
			return &ConfigError{NodeID: n.ID, Field: "amount", Reason: "wait amount must not be negative"}
		}
	}
	return nil
}
