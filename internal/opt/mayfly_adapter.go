package opt

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/cwbudde/mayfly"
)

// MayflyAdapter wraps the external Mayfly library to conform to our Optimizer interface
type MayflyAdapter struct {
	popSize int
	seed    int64
}

// NewMayfly creates a new Mayfly optimizer adapter. Mayfly needs a
// population of at least 20.
func NewMayfly(popSize int, seed int64) Optimizer {
	return &MayflyAdapter{
		popSize: popSize,
		seed:    seed,
	}
}

// Run executes the Mayfly optimization using the external library.
// x0 only fixes the dimension; the population is drawn inside the bounds.
func (m *MayflyAdapter) Run(obj Objective, x0 []float64, s Settings) (Result, error) {
	dim := len(x0)
	if dim == 0 {
		return Result{}, errors.New("opt: mayfly needs at least one dimension")
	}
	if len(s.Lower) == 0 || len(s.Upper) == 0 {
		return Result{}, errors.New("opt: mayfly needs search bounds")
	}
	if s.MaxIterations <= 0 {
		return Result{}, errors.New("opt: mayfly needs an iteration limit")
	}

	evaluations := 0
	best := Result{F: obj.Func(x0), X: append([]float64(nil), x0...)}
	evaluations++

	// Create config for external Mayfly library
	config := mayfly.NewDefaultConfig()

	config.ObjectiveFunc = func(x []float64) float64 {
		evaluations++
		return obj.Func(x)
	}
	config.ProblemSize = dim
	config.MaxIterations = s.MaxIterations
	config.NPop = m.popSize

	// External library uses scalar bounds; the first dimension applies to all
	config.LowerBound = s.Lower[0]
	config.UpperBound = s.Upper[0]

	// Set random seed for reproducibility
	config.Rand = rand.New(rand.NewSource(m.seed))

	result, err := mayfly.Optimize(config)
	if err != nil {
		return best, fmt.Errorf("opt: mayfly: %w", err)
	}

	if result.GlobalBest.Cost <= best.F {
		best.X = append([]float64(nil), result.GlobalBest.Position...)
		best.F = result.GlobalBest.Cost
	}
	best.Iterations = s.MaxIterations
	best.Evaluations = evaluations

	if s.Recorder != nil {
		s.Recorder(best.Iterations, best.Evaluations, best.X, best.F)
	}
	return best, nil
}
