package automation

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/deepnoodle-ai/automation/script"
)

// Condition operators
const (
	OperatorEquals      = "equals"
	OperatorNotEquals   = "not_equals"
	OperatorContains    = "contains"
	OperatorNotContains = "not_contains"
	OperatorExists      = "exists"
	OperatorNotExists   = "not_exists"

	// OperatorExpression evaluates Value as a script expression. It is only
	// understood by ConditionEvaluator.
	OperatorExpression = "expression"
)

// Evaluate compares a record field against a value using the operator.
// Unrecognized operators evaluate to true.
func Evaluate(field, operator string, value any, record Record) bool {
	result, _ := evaluateBuiltin(field, operator, value, record)
	return result
}

// evaluateBuiltin evaluates one of the built-in operators. The second return
// value is false when the operator is not recognized.
func evaluateBuiltin(field, operator string, value any, record Record) (bool, bool) {
	fieldValue, present := record[field]
	switch operator {
	case OperatorEquals:
		return present && valuesEqual(fieldValue, value), true
	case OperatorNotEquals:
		return !present || !valuesEqual(fieldValue, value), true
	case OperatorContains:
		s, ok := fieldValue.(string)
		return ok && strings.Contains(s, stringify(value)), true
	case OperatorNotContains:
		s, ok := fieldValue.(string)
		return ok && !strings.Contains(s, stringify(value)), true
	case OperatorExists:
		return exists(fieldValue, present), true
	case OperatorNotExists:
		return !exists(fieldValue, present), true
	}
	return true, false
}

func exists(value any, present bool) bool {
	if !present || value == nil {
		return false
	}
	if s, ok := value.(string); ok && s == "" {
		return false
	}
	return true
}

// valuesEqual is strict equality that treats numbers of different Go types
// as equal when they have the same value. Records decoded from JSON carry
// float64 while YAML graph documents carry int.
func valuesEqual(a, b any) bool {
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return af == bf
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// ConditionEvaluatorOptions configures a ConditionEvaluator.
type ConditionEvaluatorOptions struct {
	// Strict rejects unknown operators instead of evaluating them to true.
	Strict bool

	// Compiler compiles expression operators. Defaults to the risor engine.
	Compiler script.Compiler
}

// ConditionEvaluator evaluates condition node configurations. It adds the
// expression operator and an optional strict mode to Evaluate.
type ConditionEvaluator struct {
	strict   bool
	compiler script.Compiler
}

// NewConditionEvaluator returns a new ConditionEvaluator.
func NewConditionEvaluator(opts ConditionEvaluatorOptions) *ConditionEvaluator {
	if opts.Compiler == nil {
		opts.Compiler = script.NewRisorScriptingEngine(script.DefaultRisorGlobals())
	}
	return &ConditionEvaluator{strict: opts.Strict, compiler: opts.Compiler}
}

// Evaluate evaluates the condition against the record.
func (c *ConditionEvaluator) Evaluate(ctx context.Context, cond *ConditionConfig, record Record) (bool, error) {
	if cond.Operator == OperatorExpression {
		return c.evaluateExpression(ctx, cond, record)
	}
	result, known := evaluateBuiltin(cond.Field, cond.Operator, cond.Value, record)
	if !known && c.strict {
		return false, &UnknownOperatorError{Operator: cond.Operator}
	}
	return result, nil
}

func (c *ConditionEvaluator) evaluateExpression(ctx context.Context, cond *ConditionConfig, record Record) (bool, error) {
	code, ok := cond.Value.(string)
	if !ok || strings.TrimSpace(code) == "" {
		return false, fmt.Errorf("expression operator requires a string value")
	}
	compiled, err := c.compiler.Compile(ctx, code)
	if err != nil {
		return false, fmt.Errorf("failed to compile expression %q: %w", code, err)
	}
	fields := make(map[string]any, len(record))
	for k, v := range record {
		fields[k] = v
	}
	globals := map[string]any{
		"record": fields,
		"value":  record[cond.Field],
	}
	result, err := compiled.Evaluate(ctx, globals)
	if err != nil {
		return false, fmt.Errorf("failed to evaluate expression %q: %w", code, err)
	}
	return result.IsTruthy(), nil
}
