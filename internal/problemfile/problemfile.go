// Package problemfile loads optimisation problems described in YAML. The
// objective and its optional gradient are expr-lang expressions over the
// point x (a list of n floats).
package problemfile

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/nagplug/internal/solver"
)

// File is the on-disk problem description.
type File struct {
	Name      string `yaml:"name" json:"name"`
	Solver    string `yaml:"solver,omitempty" json:"solver,omitempty"`
	Dimension int    `yaml:"dimension" json:"dimension"`
	Objective string `yaml:"objective" json:"objective"`
	// Gradient holds one expression per variable.
	Gradient []string          `yaml:"gradient,omitempty" json:"gradient,omitempty"`
	Start    []float64         `yaml:"start,omitempty" json:"start,omitempty"`
	Bounds   []solver.Interval `yaml:"bounds,omitempty" json:"bounds,omitempty"`
	// Parameters are assigned to the solver's parameter store before Solve.
	Parameters map[string]any `yaml:"parameters,omitempty" json:"parameters,omitempty"`
}

// Load reads and validates a problem file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read problem file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes and validates a YAML problem description. Unknown fields are
// rejected.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse problem file: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks the shape of the description. Expressions are compiled by
// Problem.
func (f *File) Validate() error {
	if f.Dimension < 1 {
		return fmt.Errorf("problemfile: dimension must be at least 1, got %d", f.Dimension)
	}
	if f.Objective == "" {
		return fmt.Errorf("problemfile: objective is required")
	}
	if f.Gradient != nil && len(f.Gradient) != f.Dimension {
		return fmt.Errorf("problemfile: gradient has %d expressions, want %d", len(f.Gradient), f.Dimension)
	}
	if f.Start != nil && len(f.Start) != f.Dimension {
		return fmt.Errorf("problemfile: start has %d values, want %d", len(f.Start), f.Dimension)
	}
	if f.Bounds != nil && len(f.Bounds) != f.Dimension {
		return fmt.Errorf("problemfile: bounds has %d intervals, want %d", len(f.Bounds), f.Dimension)
	}
	for i, b := range f.Bounds {
		if b.Lower > b.Upper {
			return fmt.Errorf("problemfile: bound %d is empty: [%g, %g]", i, b.Lower, b.Upper)
		}
	}
	return nil
}

// Problem compiles the expressions and returns the solver problem. The cost
// function is differentiable when a gradient is given. Evaluation errors at
// solve time panic with an *ExprError.
func (f *File) Problem() (solver.Problem, error) {
	objective, err := compileScalar("objective", f.Objective)
	if err != nil {
		return solver.Problem{}, err
	}

	name := f.Name
	if name == "" {
		name = f.Objective
	}

	var fn solver.Function
	if f.Gradient == nil {
		fn = solver.ScalarFunc(name, f.Dimension, objective.mustEval)
	} else {
		grads := make([]*scalarExpr, len(f.Gradient))
		for i, src := range f.Gradient {
			if grads[i], err = compileScalar(fmt.Sprintf("gradient[%d]", i), src); err != nil {
				return solver.Problem{}, err
			}
		}
		fn = solver.DifferentiableFunc(name, f.Dimension, objective.mustEval, func(x []float64) []float64 {
			g := make([]float64, len(grads))
			for i, e := range grads {
				g[i] = e.mustEval(x)
			}
			return g
		})
	}

	p := solver.NewProblem(fn)
	if f.Start != nil {
		p = p.WithStartingPoint(f.Start)
	}
	if f.Bounds != nil {
		p = p.WithBounds(f.Bounds)
	}
	return p, p.Validate()
}
