package opt

import "errors"

var (
	// ErrEvaluationLimit is returned when the evaluation limit is reached
	// before convergence. The returned Result still holds the best point.
	ErrEvaluationLimit = errors.New("opt: maximum number of function evaluations reached")

	// ErrIterationLimit is returned when the iteration limit is reached
	// before convergence.
	ErrIterationLimit = errors.New("opt: maximum number of iterations reached")
)

// Objective is the function an optimizer minimises. Grad is optional and only
// used by gradient-based methods; it must write d Func / dx into grad.
type Objective struct {
	Func func(x []float64) float64
	Grad func(grad, x []float64)
}

// Settings bounds and tunes a run. Zero values select the method default.
type Settings struct {
	MaxEvaluations    int
	MaxIterations     int
	FunctionTolerance float64
	// StepTolerance is relative to the size of x, StepAbsTolerance absolute.
	StepTolerance     float64
	StepAbsTolerance  float64
	GradientTolerance float64
	// Lower and Upper bound the search space. Mayfly uses the first element
	// for every coordinate; BFGS takes one bound per coordinate, with
	// infinities for unbounded sides.
	Lower, Upper []float64
	// Recorder is called after every major iteration with the best point.
	Recorder func(iteration, evaluations int, x []float64, f float64)
}

// Result is the best point found.
type Result struct {
	X           []float64
	F           float64
	Iterations  int
	Evaluations int
}

// Optimizer defines an optimization algorithm interface
type Optimizer interface {
	// Run minimises obj starting from x0. On a limit error the Result still
	// carries the best point found.
	Run(obj Objective, x0 []float64, s Settings) (Result, error)
}
