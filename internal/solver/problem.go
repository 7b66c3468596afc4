// Package solver defines the generic optimisation abstraction that solver
// plugins implement: functions, problems, per-iteration state, results and
// the plugin registry used to create solvers by name.
package solver

import (
	"errors"
	"fmt"
	"math"
)

// ErrDimensionMismatch indicates a vector whose length does not match the
// problem dimensions.
var ErrDimensionMismatch = errors.New("solver: dimension mismatch")

// Function maps R^n to R^m.
type Function interface {
	InputSize() int
	OutputSize() int
	// Value evaluates the function at x. The returned slice has OutputSize
	// elements and may be retained by the caller.
	Value(x []float64) []float64
}

// Differentiable is a Function that can also report the gradient of one of
// its outputs.
type Differentiable interface {
	Function
	// Gradient returns d f_i / dx at x, with InputSize elements.
	Gradient(x []float64, functionID int) []float64
}

type funcOf struct {
	in, out int
	name    string
	value   func(x []float64) []float64
}

func (f *funcOf) InputSize() int { return f.in }
func (f *funcOf) OutputSize() int { return f.out }
func (f *funcOf) Value(x []float64) []float64 { return f.value(x) }
func (f *funcOf) String() string { return f.name }

// FuncOf wraps a plain Go function as a Function.
func FuncOf(name string, in, out int, value func(x []float64) []float64) Function {
	return &funcOf{in: in, out: out, name: name, value: value}
}

// ScalarFunc wraps a scalar objective as a Function with one output.
func ScalarFunc(name string, in int, value func(x []float64) float64) Function {
	return FuncOf(name, in, 1, func(x []float64) []float64 {
		return []float64{value(x)}
	})
}

type diffOf struct {
	funcOf
	grad func(x []float64) []float64
}

func (f *diffOf) Gradient(x []float64, functionID int) []float64 {
	if functionID != 0 {
		panic(fmt.Sprintf("solver: gradient of output %d requested from scalar function %s", functionID, f.name))
	}
	return f.grad(x)
}

// DifferentiableFunc wraps a scalar objective and its gradient.
func DifferentiableFunc(name string, in int, value func(x []float64) float64, grad func(x []float64) []float64) Differentiable {
	return &diffOf{
		funcOf: funcOf{in: in, out: 1, name: name, value: func(x []float64) []float64 {
			return []float64{value(x)}
		}},
		grad: grad,
	}
}

// Interval is a closed range [Lower, Upper]. Infinite ends mean unbounded.
type Interval struct {
	Lower float64 `json:"lower" yaml:"lower"`
	Upper float64 `json:"upper" yaml:"upper"`
}

// Unbounded returns (-inf, +inf).
func Unbounded() Interval {
	return Interval{Lower: math.Inf(-1), Upper: math.Inf(1)}
}

// Finite reports whether both ends are finite.
func (i Interval) Finite() bool {
	return !math.IsInf(i.Lower, 0) && !math.IsInf(i.Upper, 0)
}

// Constraint is a function whose output is kept inside Bounds.
type Constraint struct {
	Function Function
	Bounds   []Interval
}

// Problem is a cost function with optional constraints, argument bounds and
// starting point. Problems are passed to solvers by value and treated as
// read-only.
type Problem struct {
	Function       Function
	Constraints    []Constraint
	ArgumentBounds []Interval
	// StartingPoint is nil when the problem does not declare one.
	StartingPoint []float64
}

// NewProblem returns an unconstrained, unbounded problem over f.
func NewProblem(f Function) Problem {
	return Problem{Function: f}
}

// WithStartingPoint returns a copy of p using x0 as starting point.
func (p Problem) WithStartingPoint(x0 []float64) Problem {
	p.StartingPoint = append([]float64(nil), x0...)
	return p
}

// WithBounds returns a copy of p with the given argument bounds.
func (p Problem) WithBounds(bounds []Interval) Problem {
	p.ArgumentBounds = append([]Interval(nil), bounds...)
	return p
}

// Validate checks that the problem is internally consistent.
func (p Problem) Validate() error {
	if p.Function == nil {
		return errors.New("solver: problem has no cost function")
	}
	n := p.Function.InputSize()
	if n <= 0 {
		return fmt.Errorf("%w: cost function input size %d", ErrDimensionMismatch, n)
	}
	if p.Function.OutputSize() <= 0 {
		return fmt.Errorf("%w: cost function output size %d", ErrDimensionMismatch, p.Function.OutputSize())
	}
	if p.StartingPoint != nil && len(p.StartingPoint) != n {
		return fmt.Errorf("%w: starting point has %d elements, want %d", ErrDimensionMismatch, len(p.StartingPoint), n)
	}
	if p.ArgumentBounds != nil && len(p.ArgumentBounds) != n {
		return fmt.Errorf("%w: %d argument bounds, want %d", ErrDimensionMismatch, len(p.ArgumentBounds), n)
	}
	for i, c := range p.Constraints {
		if c.Function == nil || c.Function.InputSize() != n {
			return fmt.Errorf("%w: constraint %d", ErrDimensionMismatch, i)
		}
	}
	return nil
}

// ConstraintsTypeID identifies the shape of the constraints list. Solver
// plugins advertise the ID they accept and the registry refuses to pair a
// plugin with a problem of a different shape.
func (p Problem) ConstraintsTypeID() string {
	if len(p.Constraints) == 0 {
		return UnconstrainedTypeID
	}
	linear := true
	for _, c := range p.Constraints {
		if _, ok := c.Function.(interface{ Linear() bool }); !ok {
			linear = false
			break
		}
	}
	if linear {
		return LinearTypeID
	}
	return NonlinearTypeID
}

// Constraints list type IDs.
const (
	UnconstrainedTypeID = "solver.constraints[]"
	LinearTypeID        = "solver.constraints[linear]"
	NonlinearTypeID     = "solver.constraints[linear,differentiable]"
)
