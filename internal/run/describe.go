package run

import (
	"fmt"
	"log/slog"

	"github.com/cwbudde/nagplug/internal/solver"
)

// ParameterInfo describes one declared solver parameter and its default.
type ParameterInfo struct {
	Key         string `json:"key"`
	Kind        string `json:"kind"`
	Default     string `json:"default"`
	Description string `json:"description"`
}

// SolverInfo lists a solver's parameters.
type SolverInfo struct {
	Name       string          `json:"name"`
	Parameters []ParameterInfo `json:"parameters"`
}

// sampleProblem is a one-variable differentiable problem every registered solver
// accepts. It is only used to instantiate solvers for inspection.
func sampleProblem() solver.Problem {
	return solver.NewProblem(solver.DifferentiableFunc("sample", 1,
		func(x []float64) float64 { return x[0] * x[0] },
		func(x []float64) []float64 { return []float64{2 * x[0]} },
	))
}

// Describe instantiates the named solver on a sample problem and returns its
// parameter defaults in key order.
func Describe(reg *solver.Registry, name string) (SolverInfo, error) {
	s, err := reg.New(name, sampleProblem())
	if err != nil {
		return SolverInfo{}, err
	}
	defer func() {
		if err := reg.Destroy(s); err != nil {
			slog.Warn("Failed to destroy solver", "solver", name, "error", err)
		}
	}()

	params := s.Parameters()
	info := SolverInfo{Name: name, Parameters: make([]ParameterInfo, 0, params.Len())}
	for _, key := range params.Keys() {
		p, ok := params.Get(key)
		if !ok {
			return SolverInfo{}, fmt.Errorf("solver %s: parameter %s vanished", name, key)
		}
		info.Parameters = append(info.Parameters, ParameterInfo{
			Key:         key,
			Kind:        p.Value.Kind().String(),
			Default:     p.Value.String(),
			Description: p.Description,
		})
	}
	return info, nil
}

// DescribeAll describes every registered solver.
func DescribeAll(reg *solver.Registry) ([]SolverInfo, error) {
	names := reg.Names()
	infos := make([]SolverInfo, 0, len(names))
	for _, name := range names {
		info, err := Describe(reg, name)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}
