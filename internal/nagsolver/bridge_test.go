package nagsolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/nagplug/internal/e04"
	"github.com/cwbudde/nagplug/internal/solver"
)

func TestValueBridgeEvaluatesAndObserves(t *testing.T) {
	s := NewSimplex(&recordingLib{}, sphereProblem())
	var observed []solver.State
	s.SetIterationCallback(func(p solver.Problem, st solver.State) {
		assert.Equal(t, 2, p.Function.InputSize())
		observed = append(observed, st)
	})

	comm := e04.Comm{P: acquireHandle(s.core)}
	defer releaseHandle(comm.P)

	x := []float64{3, 4}
	f := -1.0
	valueBridge(2, &x[0], &f, &comm)

	assert.Equal(t, 25.0, f)
	require.Len(t, observed, 1)
	assert.Equal(t, []float64{3, 4}, observed[0].X)
	assert.Equal(t, 25.0, observed[0].Cost)
	assert.Equal(t, []float64{3, 4}, x)
}

func TestObserverCannotMutateWorkingState(t *testing.T) {
	s := NewSimplex(&recordingLib{}, sphereProblem())
	s.SetIterationCallback(func(p solver.Problem, st solver.State) {
		st.X[0] = 100
	})

	comm := e04.Comm{P: acquireHandle(s.core)}
	defer releaseHandle(comm.P)

	x := []float64{1, 2}
	var f float64
	valueBridge(2, &x[0], &f, &comm)

	assert.Equal(t, []float64{1, 2}, s.state.X)
	assert.Equal(t, []float64{1, 2}, x)
}

func TestValueBridgeWithoutObserver(t *testing.T) {
	s := NewSimplex(&recordingLib{}, sphereProblem())
	comm := e04.Comm{P: acquireHandle(s.core)}
	defer releaseHandle(comm.P)

	x := []float64{1, 1}
	var f float64
	valueBridge(2, &x[0], &f, &comm)

	assert.Equal(t, 2.0, f)
	assert.Equal(t, 0, s.state.Evaluations)
}

func TestDerivativeCheckValuesAreNotObserved(t *testing.T) {
	d := NewDifferentiable(&recordingLib{}, shiftedProblem())
	observed := 0
	d.SetIterationCallback(func(solver.Problem, solver.State) { observed++ })

	comm := e04.Comm{P: acquireHandle(d.core), Flag: e04.FlagValue, Check: true}
	defer releaseHandle(comm.P)

	x := []float64{5}
	var f float64
	gradientBridge(1, &x[0], &f, nil, &comm)
	assert.Equal(t, 9.0, f)
	assert.Zero(t, observed)

	comm.Check = false
	gradientBridge(1, &x[0], &f, nil, &comm)
	assert.Equal(t, 1, observed)
}

func TestBridgeInvariantViolationsPanic(t *testing.T) {
	s := NewSimplex(&recordingLib{}, sphereProblem())
	x := []float64{1, 1, 1}
	var f float64

	assert.Panics(t, func() { valueBridge(2, &x[0], &f, nil) })
	assert.Panics(t, func() { valueBridge(2, &x[0], &f, &e04.Comm{}) })

	h := acquireHandle(s.core)
	assert.Panics(t, func() { valueBridge(3, &x[0], &f, &e04.Comm{P: h}) })
	releaseHandle(h)

	assert.Panics(t, func() { valueBridge(2, &x[0], &f, &e04.Comm{P: h}) })
}

func TestGradientBridgeHonoursFlag(t *testing.T) {
	d := NewDifferentiable(&recordingLib{}, shiftedProblem())
	calls := 0
	d.SetIterationCallback(func(solver.Problem, solver.State) { calls++ })

	comm := e04.Comm{P: acquireHandle(d.core)}
	defer releaseHandle(comm.P)

	x := []float64{5}
	f := -1.0
	g := []float64{-1}

	comm.Flag = e04.FlagValue
	gradientBridge(1, &x[0], &f, &g[0], &comm)
	assert.Equal(t, 9.0, f)
	assert.Equal(t, -1.0, g[0])

	f = -1
	comm.Flag = e04.FlagGradient
	gradientBridge(1, &x[0], &f, &g[0], &comm)
	assert.Equal(t, -1.0, f)
	assert.Equal(t, 6.0, g[0])

	g[0] = 0
	comm.Flag = e04.FlagBoth
	gradientBridge(1, &x[0], &f, &g[0], &comm)
	assert.Equal(t, 9.0, f)
	assert.Equal(t, 6.0, g[0])

	assert.Equal(t, 2, calls)
}

func TestHandlesAreReleasedAfterSolve(t *testing.T) {
	s := NewSimplex(e04.Native{}, shiftedProblem())
	handles.Lock()
	before := len(handles.live)
	handles.Unlock()

	s.Solve()

	handles.Lock()
	defer handles.Unlock()
	assert.Equal(t, before, len(handles.live))
}
