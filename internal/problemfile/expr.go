package problemfile

import (
	"fmt"
	"math"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// ExprError reports an expression that failed to compile or evaluate.
type ExprError struct {
	Field string
	Expr  string
	Err   error
}

func (e *ExprError) Error() string {
	return fmt.Sprintf("problemfile: %s %q: %v", e.Field, e.Expr, e.Err)
}

func (e *ExprError) Unwrap() error {
	return e.Err
}

// mathFunctions are available in every expression in addition to the expr
// builtins.
var mathFunctions = map[string]func(float64) float64{
	"sqrt": math.Sqrt,
	"exp":  math.Exp,
	"log":  math.Log,
	"sin":  math.Sin,
	"cos":  math.Cos,
	"tan":  math.Tan,
	"atan": math.Atan,
	"tanh": math.Tanh,
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("expression produced %T, want a number", v)
}

func compileOptions() []exprlang.Option {
	options := []exprlang.Option{
		exprlang.Env(map[string]any{"x": []float64{}, "n": 0}),
		exprlang.AsFloat64(),
	}
	for name, fn := range mathFunctions {
		fn := fn
		options = append(options, exprlang.Function(name, func(params ...any) (any, error) {
			if len(params) != 1 {
				return nil, fmt.Errorf("%s takes one argument, got %d", name, len(params))
			}
			v, err := toFloat(params[0])
			if err != nil {
				return nil, err
			}
			return fn(v), nil
		}))
	}
	return options
}

// scalarExpr is a compiled expression over the point x.
type scalarExpr struct {
	field   string
	source  string
	program *exprvm.Program
}

func compileScalar(field, source string) (*scalarExpr, error) {
	if source == "" {
		return nil, &ExprError{Field: field, Expr: source, Err: fmt.Errorf("expression must not be empty")}
	}
	program, err := exprlang.Compile(source, compileOptions()...)
	if err != nil {
		return nil, &ExprError{Field: field, Expr: source, Err: err}
	}
	return &scalarExpr{field: field, source: source, program: program}, nil
}

// eval runs the expression at x.
func (e *scalarExpr) eval(x []float64) (float64, error) {
	out, err := exprlang.Run(e.program, map[string]any{"x": x, "n": len(x)})
	if err != nil {
		return 0, &ExprError{Field: e.field, Expr: e.source, Err: err}
	}
	v, err := toFloat(out)
	if err != nil {
		return 0, &ExprError{Field: e.field, Expr: e.source, Err: err}
	}
	return v, nil
}

// mustEval is eval for use inside cost functions, which have no error
// channel.
func (e *scalarExpr) mustEval(x []float64) float64 {
	v, err := e.eval(x)
	if err != nil {
		panic(err)
	}
	return v
}
