package nagsolver

import (
	"github.com/cwbudde/nagplug/internal/e04"
	"github.com/cwbudde/nagplug/internal/param"
	"github.com/cwbudde/nagplug/internal/solver"
)

// GlobalName is the registry name of the swarm adapter.
const GlobalName = "nag-global"

// Global-specific keys.
const (
	KeyPopulationSize = Prefix + "population-size"
	KeySeed           = Prefix + "seed"
	KeyLowerBound     = Prefix + "lower-bound"
	KeyUpperBound     = Prefix + "upper-bound"
)

var globalTable = newOptionTable(translations(nil),
	"output_file", "population-size", "seed", "lower-bound", "upper-bound")

// Global searches a bounded box with e04.GlobalSearch. A variable with finite
// argument bounds is searched inside them, any other in
// [nag.lower-bound, nag.upper-bound].
type Global struct {
	*core
}

func NewGlobal(lib Library, problem solver.Problem) *Global {
	g := &Global{core: newCore(GlobalName, lib, problem, globalTable)}
	param.Declare(g.params, KeyPopulationSize, "number of mayflies per sex", param.Int(20))
	param.Declare(g.params, KeySeed, "random seed", param.Int(42))
	param.Declare(g.params, KeyLowerBound, "lower search bound for unbounded variables", param.Float(-10))
	param.Declare(g.params, KeyUpperBound, "upper search bound for unbounded variables", param.Float(10))
	return g
}

func (g *Global) box() (bl, bu []float64) {
	n := len(g.x)
	bl = make([]float64, n)
	bu = make([]float64, n)

	lo, _ := g.params.Float(KeyLowerBound)
	hi, _ := g.params.Float(KeyUpperBound)
	for i := range bl {
		bl[i], bu[i] = lo, hi
		if i < len(g.problem.ArgumentBounds) && g.problem.ArgumentBounds[i].Finite() {
			bl[i] = g.problem.ArgumentBounds[i].Lower
			bu[i] = g.problem.ArgumentBounds[i].Upper
		}
	}
	return bl, bu
}

// Solve runs e04.GlobalSearch once.
func (g *Global) Solve() solver.Result {
	bl, bu := g.box()
	npop, _ := g.params.Int(KeyPopulationSize)
	seed, _ := g.params.Int(KeySeed)

	return g.run("GlobalSearch", func(comm *e04.Comm, state *e04.OptionState, fail *e04.Fail) {
		g.lib.GlobalSearch(len(g.x), g.x, &g.f[0], bl, bu, npop, int64(seed), valueBridge, state, comm, fail)
	})
}
