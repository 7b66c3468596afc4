package nagsolver

import (
	"log/slog"

	"github.com/cwbudde/nagplug/internal/e04"
	"github.com/cwbudde/nagplug/internal/solver"
)

// GetSizeOfProblem reports the problem layout this package was built with.
func GetSizeOfProblem() uintptr {
	return solver.SizeOfProblem()
}

// GetTypeIDOfConstraintsList names the only constraints shape the adapters
// accept: none.
func GetTypeIDOfConstraintsList() string {
	return solver.UnconstrainedTypeID
}

// Destroy closes s. Errors are logged since the factory interface has no
// error channel.
func Destroy(s solver.Solver) {
	if s == nil {
		return
	}
	if err := s.Close(); err != nil {
		slog.Warn("Failed to close solver", "solver", s.Name(), "error", err)
	}
}

func export(name string, create func(Library, solver.Problem) solver.Solver) solver.Plugin {
	return solver.Plugin{
		Name:                    name,
		SizeOfProblem:           GetSizeOfProblem,
		TypeIDOfConstraintsList: GetTypeIDOfConstraintsList,
		Create: func(problem solver.Problem) solver.Solver {
			return create(e04.Native{}, problem)
		},
		Destroy: Destroy,
	}
}

// Plugins returns the factory exports of every adapter.
func Plugins() []solver.Plugin {
	return []solver.Plugin{
		export(SimplexName, func(lib Library, p solver.Problem) solver.Solver { return NewSimplex(lib, p) }),
		export(DifferentiableName, func(lib Library, p solver.Problem) solver.Solver { return NewDifferentiable(lib, p) }),
		export(GlobalName, func(lib Library, p solver.Problem) solver.Solver { return NewGlobal(lib, p) }),
	}
}

// Register adds every adapter to r.
func Register(r *solver.Registry) error {
	for _, p := range Plugins() {
		if err := r.Register(p); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry holding every adapter.
func NewRegistry() *solver.Registry {
	r := solver.NewRegistry()
	if err := Register(r); err != nil {
		panic(err)
	}
	return r
}
