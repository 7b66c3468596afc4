package nagsolver

import (
	"github.com/cwbudde/nagplug/internal/e04"
	"github.com/cwbudde/nagplug/internal/param"
	"github.com/cwbudde/nagplug/internal/solver"
)

// SimplexName is the registry name of the Nelder-Mead adapter.
const SimplexName = "nag-simplex"

// Simplex-specific keys.
const (
	KeyTolX = Prefix + "tolx"
	KeyTolF = Prefix + "tolf"
)

// tolx and tolf are routine arguments, not options.
var simplexTable = newOptionTable(translations(nil), "output_file", "tolx", "tolf")

// epsilon is the default tolerance on x and f.
const epsilon = 0x1p-52

// Simplex minimises an unconstrained problem with e04.SimplexEasy. It needs
// only function values.
type Simplex struct {
	*core
}

// NewSimplex returns a Simplex adapter for problem. The cost function must
// have exactly one output.
func NewSimplex(lib Library, problem solver.Problem) *Simplex {
	s := &Simplex{core: newCore(SimplexName, lib, problem, simplexTable)}
	param.Declare(s.params, KeyTolX, "the error tolerable in the spatial values", param.Float(epsilon))
	param.Declare(s.params, KeyTolF, "the error tolerable in the function values", param.Float(epsilon))
	return s
}

// Solve runs e04.SimplexEasy once from the current point.
func (s *Simplex) Solve() solver.Result {
	tolx, _ := s.params.Float(KeyTolX)
	tolf, _ := s.params.Float(KeyTolF)
	var maxIter int
	if p, ok := s.iterationLimit(); ok {
		if v, isInt := p.Value.(param.Int); isInt {
			maxIter = int(v)
		}
	}

	return s.run("SimplexEasy", func(comm *e04.Comm, state *e04.OptionState, fail *e04.Fail) {
		s.lib.SimplexEasy(len(s.x), s.x, &s.f[0], tolf, tolx, valueBridge, maxIter, state, comm, fail)
	})
}
