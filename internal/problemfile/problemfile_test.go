package problemfile

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/nagplug/internal/solver"
)

const rosenbrock = `
name: rosenbrock
solver: nag-differentiable
dimension: 2
objective: "100 * (x[1] - x[0]**2)**2 + (1 - x[0])**2"
gradient:
  - "-400 * x[0] * (x[1] - x[0]**2) - 2 * (1 - x[0])"
  - "200 * (x[1] - x[0]**2)"
start: [-1.2, 1]
bounds:
  - {lower: -5, upper: 5}
  - {lower: -.inf, upper: .inf}
parameters:
  max-iterations: 500
  nag.optimality-tolerance: 1e-10
`

func TestParseAndBuildProblem(t *testing.T) {
	f, err := Parse([]byte(rosenbrock))
	require.NoError(t, err)
	assert.Equal(t, "nag-differentiable", f.Solver)
	assert.Equal(t, 500, f.Parameters["max-iterations"])

	p, err := f.Problem()
	require.NoError(t, err)
	assert.Equal(t, []float64{-1.2, 1}, p.StartingPoint)
	assert.True(t, p.ArgumentBounds[0].Finite())
	assert.False(t, p.ArgumentBounds[1].Finite())

	assert.InDelta(t, 0, p.Function.Value([]float64{1, 1})[0], 1e-12)
	assert.InDelta(t, 24.2, p.Function.Value([]float64{-1.2, 1})[0], 1e-9)

	d, ok := p.Function.(solver.Differentiable)
	require.True(t, ok)
	g := d.Gradient([]float64{1, 1}, 0)
	assert.InDelta(t, 0, g[0], 1e-12)
	assert.InDelta(t, 0, g[1], 1e-12)
}

func TestObjectiveWithoutGradient(t *testing.T) {
	f := &File{Dimension: 2, Objective: "sqrt(x[0]*x[0] + x[1]*x[1]) + n"}
	p, err := f.Problem()
	require.NoError(t, err)

	_, ok := p.Function.(solver.Differentiable)
	assert.False(t, ok)
	assert.InDelta(t, 7, p.Function.Value([]float64{3, 4})[0], 1e-12)
	assert.Nil(t, p.StartingPoint)
}

func TestIntegerExpressionsAreFloats(t *testing.T) {
	f := &File{Dimension: 1, Objective: "2"}
	p, err := f.Problem()
	require.NoError(t, err)
	assert.Equal(t, 2.0, p.Function.Value([]float64{0})[0])
}

func TestCompileErrors(t *testing.T) {
	f := &File{Dimension: 1, Objective: "x[0] +"}
	_, err := f.Problem()

	var exprErr *ExprError
	require.True(t, errors.As(err, &exprErr))
	assert.Equal(t, "objective", exprErr.Field)

	f = &File{Dimension: 1, Objective: "x[0]", Gradient: []string{"y"}}
	_, err = f.Problem()
	require.True(t, errors.As(err, &exprErr))
	assert.Equal(t, "gradient[0]", exprErr.Field)
}

func TestEvaluationErrorsPanic(t *testing.T) {
	f := &File{Dimension: 1, Objective: "x[3]"}
	p, err := f.Problem()
	require.NoError(t, err)

	assert.Panics(t, func() { p.Function.Value([]float64{1}) })
}

func TestValidate(t *testing.T) {
	cases := map[string]File{
		"dimension": {Objective: "1"},
		"objective": {Dimension: 1},
		"gradient":  {Dimension: 2, Objective: "1", Gradient: []string{"0"}},
		"start":     {Dimension: 2, Objective: "1", Start: []float64{0}},
		"bounds":    {Dimension: 1, Objective: "1", Bounds: []solver.Interval{{Lower: 1, Upper: 0}}},
	}
	for name, f := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, f.Validate())
		})
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("dimension: 1\nobjective: x[0]\nobjectiv: typo\n"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "problem.yaml")
	require.NoError(t, os.WriteFile(path, []byte(rosenbrock), 0o644))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "rosenbrock", f.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestInfinityBounds(t *testing.T) {
	f, err := Parse([]byte(rosenbrock))
	require.NoError(t, err)
	assert.True(t, math.IsInf(f.Bounds[1].Lower, -1))
}
