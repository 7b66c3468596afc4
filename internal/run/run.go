// Package run executes a single solve end to end: it builds the problem from
// a problem file, creates the solver through the registry, applies parameters,
// traces evaluations, and persists the outcome.
package run

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cwbudde/nagplug/internal/metrics"
	"github.com/cwbudde/nagplug/internal/problemfile"
	"github.com/cwbudde/nagplug/internal/solver"
	"github.com/cwbudde/nagplug/internal/store"
)

// DefaultSolver is used when neither the request nor the problem file names one.
const DefaultSolver = "nag-simplex"

// Request describes one solve.
type Request struct {
	Problem *problemfile.File
	// Solver overrides Problem.Solver when set.
	Solver string
	// Params are applied after the problem file's parameters.
	Params map[string]any
}

// Options carries the collaborators of Execute. All fields except Registry are
// optional.
type Options struct {
	Registry *solver.Registry
	// Store persists the run record. DataDir is used for traces.
	Store   store.Store
	DataDir string
	// TraceEvery writes every n-th evaluation to the trace; 0 disables tracing.
	TraceEvery int
	Metrics    *metrics.Collector
	// RunID is generated when empty.
	RunID string
	// Progress is called after every cost evaluation.
	Progress func(state solver.State)
}

// SolverName resolves the solver to use for req.
func (req Request) SolverName() string {
	switch {
	case req.Solver != "":
		return req.Solver
	case req.Problem != nil && req.Problem.Solver != "":
		return req.Problem.Solver
	default:
		return DefaultSolver
	}
}

// Execute runs req to completion. A solver failure is not an error: it is
// recorded with OutcomeFailure. Errors are returned for invalid input,
// cancellation before the solve starts, and persistence problems.
func Execute(ctx context.Context, req Request, opts Options) (*store.Run, error) {
	if req.Problem == nil {
		return nil, errors.New("run: no problem given")
	}
	if opts.Registry == nil {
		return nil, errors.New("run: no solver registry")
	}

	problem, err := req.Problem.Problem()
	if err != nil {
		return nil, fmt.Errorf("failed to build problem %s: %w", req.Problem.Name, err)
	}

	name := req.SolverName()
	s, err := opts.Registry.New(name, problem)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := opts.Registry.Destroy(s); err != nil {
			slog.Warn("Failed to destroy solver", "solver", name, "error", err)
		}
	}()

	if err := s.Parameters().AssignAll(req.Problem.Parameters); err != nil {
		return nil, err
	}
	if err := s.Parameters().AssignAll(req.Params); err != nil {
		return nil, err
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.New().String()
	}

	var (
		trace     *store.TraceWriter
		keepTrace bool
	)
	if opts.TraceEvery > 0 && opts.DataDir != "" {
		trace, err = store.NewTraceWriter(opts.DataDir, runID)
		if err != nil {
			return nil, err
		}
		// A run that produced no record leaves no trace behind.
		defer func() {
			if err := trace.Close(); err != nil {
				slog.Warn("Failed to close trace", "run_id", runID, "error", err)
			}
			if keepTrace {
				return
			}
			if err := store.DeleteTrace(opts.DataDir, runID); err != nil {
				slog.Warn("Failed to delete trace", "run_id", runID, "error", err)
			}
		}()
	}

	var (
		evaluations int
		traceErr    error
	)
	s.SetIterationCallback(func(_ solver.Problem, state solver.State) {
		evaluations = state.Evaluations
		if trace != nil && traceErr == nil && state.Evaluations%opts.TraceEvery == 0 {
			traceErr = trace.Write(store.TraceEntry{
				Evaluation: state.Evaluations,
				Cost:       state.Cost,
				Timestamp:  time.Now(),
				X:          state.X,
			})
			if traceErr != nil {
				slog.Warn("Trace disabled after write error", "run_id", runID, "error", traceErr)
			}
		}
		if opts.Progress != nil {
			opts.Progress(state)
		}
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	rec := &store.Run{
		ID:         runID,
		Solver:     name,
		Problem:    req.Problem.Name,
		Dimension:  req.Problem.Dimension,
		Parameters: snapshot(s),
		StartedAt:  time.Now(),
	}

	slog.Info("Solve started", "run_id", runID, "solver", name, "problem", rec.Problem, "dimension", rec.Dimension)

	result, err := solve(s)
	rec.FinishedAt = time.Now()
	if err != nil {
		return nil, fmt.Errorf("solve %s: %w", runID, err)
	}
	rec.Evaluations = evaluations

	switch r := result.(type) {
	case solver.Success:
		rec.Outcome = store.OutcomeSuccess
		rec.X = r.X
		rec.Value = r.Value
	case solver.Failure:
		rec.Outcome = store.OutcomeFailure
		rec.Message = r.Message
	default:
		return nil, fmt.Errorf("solve %s: solver returned %v", runID, result)
	}
	keepTrace = true

	slog.Info("Solve finished",
		"run_id", runID,
		"solver", name,
		"outcome", rec.Outcome,
		"evaluations", rec.Evaluations,
		"elapsed", rec.FinishedAt.Sub(rec.StartedAt),
	)

	if opts.Metrics != nil {
		opts.Metrics.RecordSolve(name, rec.Outcome, rec.FinishedAt.Sub(rec.StartedAt))
		opts.Metrics.AddEvaluations(name, rec.Evaluations)
	}

	if trace != nil {
		if err := trace.Flush(); err != nil {
			slog.Warn("Failed to flush trace", "run_id", runID, "error", err)
		}
	}

	if opts.Store != nil {
		if err := opts.Store.SaveRun(rec); err != nil {
			return rec, fmt.Errorf("failed to save run %s: %w", runID, err)
		}
	}
	return rec, nil
}

// solve runs the solver and turns a panic from the cost function into an error.
func solve(s solver.Solver) (result solver.Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if e, ok := rec.(error); ok {
				err = e
			} else {
				err = fmt.Errorf("%v", rec)
			}
		}
	}()
	return s.Solve(), nil
}

// snapshot renders the solver's parameters as strings for the run record.
func snapshot(s solver.Solver) map[string]string {
	params := s.Parameters()
	out := make(map[string]string, params.Len())
	for _, key := range params.Keys() {
		if p, ok := params.Get(key); ok {
			out[key] = p.Value.String()
		}
	}
	return out
}
