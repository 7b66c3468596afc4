package nagsolver

import (
	"fmt"

	"github.com/cwbudde/nagplug/internal/e04"
	"github.com/cwbudde/nagplug/internal/param"
	"github.com/cwbudde/nagplug/internal/solver"
)

// DifferentiableName is the registry name of the quasi-Newton adapter.
const DifferentiableName = "nag-differentiable"

// Differentiable-specific keys.
const (
	// KeyOptimalityTolerance bounds the gradient norm at the solution.
	KeyOptimalityTolerance = Prefix + "optimality-tolerance"
	// KeyE1 and KeyE2 are the relative and absolute accuracy required of x.
	KeyE1 = Prefix + "e1"
	KeyE2 = Prefix + "e2"
)

var differentiableTable = newOptionTable(translations(map[string]string{
	"optimality-tolerance": "Optimality Tolerance",
}), "output_file", "e1", "e2")

// Differentiable minimises a smooth problem with e04.QuasiNewton, inside the
// argument bounds when the problem declares any. The cost function must
// implement solver.Differentiable.
type Differentiable struct {
	*core
	g []float64
}

func NewDifferentiable(lib Library, problem solver.Problem) *Differentiable {
	if _, ok := problem.Function.(solver.Differentiable); !ok {
		panic(fmt.Sprintf("nagsolver: %s needs a differentiable cost function, got %T", DifferentiableName, problem.Function))
	}
	d := &Differentiable{core: newCore(DifferentiableName, lib, problem, differentiableTable)}
	d.g = make([]float64, len(d.x))
	param.Declare(d.params, KeyOptimalityTolerance, "gradient norm accepted at the solution", param.Float(1e-8))
	param.Declare(d.params, KeyE1, "relative accuracy of x (0 selects the library default)", param.Float(0))
	param.Declare(d.params, KeyE2, "absolute accuracy of x (0 selects the library default)", param.Float(0))
	return d
}

// bounds returns the argument bounds, or nil slices for an unbounded problem.
// Variables without a declared interval are unbounded.
func (d *Differentiable) bounds() (bl, bu []float64) {
	if len(d.problem.ArgumentBounds) == 0 {
		return nil, nil
	}
	n := len(d.x)
	bl = make([]float64, n)
	bu = make([]float64, n)
	for i := range bl {
		iv := solver.Unbounded()
		if i < len(d.problem.ArgumentBounds) {
			iv = d.problem.ArgumentBounds[i]
		}
		bl[i], bu[i] = iv.Lower, iv.Upper
	}
	return bl, bu
}

// Solve runs e04.QuasiNewton once from the current point.
func (d *Differentiable) Solve() solver.Result {
	bl, bu := d.bounds()
	e1, _ := d.params.Float(KeyE1)
	e2, _ := d.params.Float(KeyE2)

	return d.run("QuasiNewton", func(comm *e04.Comm, state *e04.OptionState, fail *e04.Fail) {
		d.lib.QuasiNewton(len(d.x), d.x, &d.f[0], d.g, bl, bu, e1, e2, gradientBridge, state, comm, fail)
	})
}

// Gradient returns the gradient at the last solution.
func (d *Differentiable) Gradient() []float64 {
	return append([]float64(nil), d.g...)
}
