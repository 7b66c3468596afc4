// Command nag-simplex is the Nelder-Mead adapter packaged as a Go plugin:
//
//	go build -buildmode=plugin -o nag-simplex.so ./plugins/nag-simplex
//
// Hosts load it with solver.Open.
package main

import (
	"github.com/cwbudde/nagplug/internal/e04"
	"github.com/cwbudde/nagplug/internal/nagsolver"
	"github.com/cwbudde/nagplug/internal/solver"
)

// Name is the registry name of the plugin.
var Name = nagsolver.SimplexName

func GetSizeOfProblem() uintptr {
	return nagsolver.GetSizeOfProblem()
}

func GetTypeIDOfConstraintsList() string {
	return nagsolver.GetTypeIDOfConstraintsList()
}

func Create(problem solver.Problem) solver.Solver {
	return nagsolver.NewSimplex(e04.Native{}, problem)
}

func Destroy(s solver.Solver) {
	nagsolver.Destroy(s)
}

func main() {}
