package solver

import "github.com/cwbudde/nagplug/internal/param"

// State is the solver's current iterate as seen by an iteration callback.
// Callbacks receive a copy and cannot affect the running solve.
type State struct {
	X           []float64
	Cost        float64
	Evaluations int
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	s.X = append([]float64(nil), s.X...)
	return s
}

// IterationCallback observes the solver after each cost evaluation.
type IterationCallback func(problem Problem, state State)

// Solver is implemented by every solver plugin.
type Solver interface {
	// Name identifies the plugin, e.g. "nag-simplex".
	Name() string
	Problem() Problem
	// Parameters exposes the solver's parameter store. Callers may assign
	// values before Solve; the store is read during Solve.
	Parameters() *param.Store
	SetIterationCallback(cb IterationCallback)
	// Solve runs the solver once and returns the new result.
	Solve() Result
	// Minimum returns the result of the last Solve, or NoSolution.
	Minimum() Result
	// Close releases resources such as open log files.
	Close() error
}
