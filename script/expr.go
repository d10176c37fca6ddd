package script

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ExprCompiler compiles expressions written in the expr language. Variables
// are resolved at evaluation time, so compiled programs are untyped.
type ExprCompiler struct {
	options []expr.Option
}

func NewExprCompiler(options ...expr.Option) *ExprCompiler {
	return &ExprCompiler{options: options}
}

func (c *ExprCompiler) Compile(ctx context.Context, code string) (Script, error) {
	options := append([]expr.Option{expr.AllowUndefinedVariables()}, c.options...)
	program, err := expr.Compile(code, options...)
	if err != nil {
		return nil, err
	}
	return &ExprScript{program: program}, nil
}

type ExprScript struct {
	program *vm.Program
}

func (s *ExprScript) Evaluate(ctx context.Context, globals map[string]any) (Value, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	env := make(map[string]any, len(globals))
	for name, value := range globals {
		env[name] = value
	}
	result, err := expr.Run(s.program, env)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate expr script: %w", err)
	}
	return &ExprValue{value: result}, nil
}

type ExprValue struct {
	value any
}

func (v *ExprValue) Value() any {
	return v.value
}

func (v *ExprValue) IsTruthy() bool {
	switch value := v.value.(type) {
	case nil:
		return false
	case bool:
		return value
	case string:
		return value != "" && strings.ToLower(value) != "false"
	}
	rv := reflect.ValueOf(v.value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	default:
		return true
	}
}

func (v *ExprValue) String() string {
	switch value := v.value.(type) {
	case nil:
		return ""
	case string:
		return value
	case time.Time:
		return value.Format(time.RFC3339)
	case float64:
		return fmt.Sprintf("%g", value)
	default:
		return fmt.Sprint(value)
	}
}
