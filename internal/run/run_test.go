package run

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/nagplug/internal/metrics"
	"github.com/cwbudde/nagplug/internal/nagsolver"
	"github.com/cwbudde/nagplug/internal/param"
	"github.com/cwbudde/nagplug/internal/problemfile"
	"github.com/cwbudde/nagplug/internal/solver"
	"github.com/cwbudde/nagplug/internal/store"
)

const shifted = `
name: shifted
dimension: 2
objective: "(x[0] - 1)**2 + (x[1] + 2)**2"
start: [0, 0]
parameters:
  nag.tolx: 1e-10
  nag.tolf: 1e-14
`

func parse(t *testing.T, src string) *problemfile.File {
	t.Helper()
	f, err := problemfile.Parse([]byte(src))
	require.NoError(t, err)
	return f
}

func setup(t *testing.T) Options {
	t.Helper()
	dir := t.TempDir()
	fs, err := store.NewFSStore(dir)
	require.NoError(t, err)
	return Options{
		Registry: nagsolver.NewRegistry(),
		Store:    fs,
		DataDir:  dir,
		Metrics:  metrics.NewCollector(),
	}
}

func TestExecuteSuccessIsPersisted(t *testing.T) {
	opts := setup(t)
	opts.TraceEvery = 10

	rec, err := Execute(context.Background(), Request{Problem: parse(t, shifted)}, opts)
	require.NoError(t, err)

	assert.Equal(t, store.OutcomeSuccess, rec.Outcome)
	assert.Equal(t, DefaultSolver, rec.Solver)
	require.Len(t, rec.X, 2)
	assert.InDelta(t, 1, rec.X[0], 1e-4)
	assert.InDelta(t, -2, rec.X[1], 1e-4)
	assert.Greater(t, rec.Evaluations, 0)
	assert.Equal(t, "1e-10", rec.Parameters["nag.tolx"])

	loaded, err := opts.Store.LoadRun(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.X, loaded.X)

	entries, err := opts.Store.LoadTrace(rec.ID)
	require.NoError(t, err)
	assert.Len(t, entries, rec.Evaluations/10)
	for _, e := range entries {
		assert.Zero(t, e.Evaluation%10)
		assert.Len(t, e.X, 2)
	}
}

func TestExecuteFailureIsRecorded(t *testing.T) {
	opts := setup(t)

	req := Request{
		Problem: parse(t, shifted),
		Params:  map[string]any{"max-iterations": "10"},
	}
	rec, err := Execute(context.Background(), req, opts)
	require.NoError(t, err)

	assert.Equal(t, store.OutcomeFailure, rec.Outcome)
	assert.True(t, strings.HasPrefix(rec.Message, "NE_TOO_MANY_FEVALS:"), rec.Message)
	assert.Nil(t, rec.X)
	assert.Equal(t, "10", rec.Parameters["max-iterations"])

	infos, err := opts.Store.ListRuns()
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, store.OutcomeFailure, infos[0].Outcome)
}

func TestExecuteSolverOverride(t *testing.T) {
	opts := setup(t)
	opts.Store = nil

	src := shifted + "bounds:\n  - {lower: -5, upper: 5}\n  - {lower: -5, upper: 5}\n"
	req := Request{
		Problem: parse(t, src),
		Solver:  nagsolver.GlobalName,
		Params:  map[string]any{"max-iterations": 200},
	}
	assert.Equal(t, nagsolver.GlobalName, req.SolverName())

	rec, err := Execute(context.Background(), req, opts)
	require.NoError(t, err)
	assert.Equal(t, nagsolver.GlobalName, rec.Solver)
	assert.Equal(t, store.OutcomeSuccess, rec.Outcome)
	assert.Less(t, rec.Value[0], 1e-2)
}

func TestExecuteProgress(t *testing.T) {
	opts := setup(t)
	var calls int
	opts.Progress = func(state solver.State) {
		calls++
		assert.Equal(t, calls, state.Evaluations)
	}

	rec, err := Execute(context.Background(), Request{Problem: parse(t, shifted)}, opts)
	require.NoError(t, err)
	assert.Equal(t, rec.Evaluations, calls)
}

func TestExecuteErrors(t *testing.T) {
	opts := setup(t)
	opts.TraceEvery = 1

	t.Run("no problem", func(t *testing.T) {
		_, err := Execute(context.Background(), Request{}, opts)
		assert.Error(t, err)
	})

	t.Run("unknown solver", func(t *testing.T) {
		_, err := Execute(context.Background(), Request{Problem: parse(t, shifted), Solver: "lbfgs"}, opts)
		assert.True(t, errors.Is(err, solver.ErrUnknownSolver), err)
	})

	t.Run("unknown parameter", func(t *testing.T) {
		req := Request{Problem: parse(t, shifted), Params: map[string]any{"nag.nope": 1}}
		_, err := Execute(context.Background(), req, opts)
		assert.True(t, errors.Is(err, param.ErrUnknownKey), err)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Execute(ctx, Request{Problem: parse(t, shifted)}, opts)
		assert.True(t, errors.Is(err, context.Canceled), err)
	})

	t.Run("evaluation error", func(t *testing.T) {
		f := parse(t, "dimension: 2\nobjective: \"x[0] + x[5]\"\n")
		_, err := Execute(context.Background(), Request{Problem: f}, opts)
		require.Error(t, err)
		var exprErr *problemfile.ExprError
		assert.True(t, errors.As(err, &exprErr), err)
	})

	infos, err := opts.Store.(*store.FSStore).ListRuns()
	require.NoError(t, err)
	assert.Empty(t, infos)

	// Traces of runs without a record are removed.
	dirs, err := os.ReadDir(filepath.Join(opts.DataDir, "runs"))
	if err == nil {
		assert.Empty(t, dirs)
	}
}
