package server

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/cwbudde/nagplug/internal/metrics"
	"github.com/cwbudde/nagplug/internal/nagsolver"
	"github.com/cwbudde/nagplug/internal/store"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	fs, err := store.NewFSStore(dir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return Config{
		Registry: nagsolver.NewRegistry(),
		Store:    fs,
		DataDir:  dir,
		Metrics:  metrics.NewCollector(),
	}
}

func TestRunJob_Success(t *testing.T) {
	cfg := testConfig(t)
	jm := NewJobManager()
	job := jm.CreateJob(nagsolver.SimplexName, testProblem())

	if err := runJob(context.Background(), jm, cfg, job.ID); err != nil {
		t.Fatalf("runJob should succeed: %v", err)
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateCompleted {
		t.Fatalf("Job should be completed, got %s", updated.State)
	}
	if updated.Outcome != store.OutcomeSuccess {
		t.Errorf("Expected success outcome, got %q (%s)", updated.Outcome, updated.Message)
	}
	if len(updated.X) != 2 || math.Abs(updated.X[0]-1) > 1e-3 || math.Abs(updated.X[1]+2) > 1e-3 {
		t.Errorf("Unexpected minimiser %v", updated.X)
	}
	if updated.Evaluations == 0 {
		t.Error("Evaluations should be counted")
	}
	if updated.BestCost == nil || *updated.BestCost > 1e-6 {
		t.Errorf("BestCost should be tracked, got %v", updated.BestCost)
	}
	if updated.EndTime == nil {
		t.Error("EndTime should be set")
	}

	// The run is persisted under the job ID
	if _, err := cfg.Store.LoadRun(job.ID); err != nil {
		t.Errorf("Run record should be saved: %v", err)
	}
}

func TestRunJob_SolverFailureCompletes(t *testing.T) {
	cfg := testConfig(t)
	jm := NewJobManager()
	problem := testProblem()
	problem.Parameters = map[string]any{"max-iterations": 5}
	job := jm.CreateJob(nagsolver.SimplexName, problem)

	if err := runJob(context.Background(), jm, cfg, job.ID); err != nil {
		t.Fatalf("runJob should succeed: %v", err)
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateCompleted {
		t.Errorf("Job should be completed, got %s", updated.State)
	}
	if updated.Outcome != store.OutcomeFailure || updated.Message == "" {
		t.Errorf("Expected failure outcome with message, got %q %q", updated.Outcome, updated.Message)
	}
}

func TestRunJob_InvalidParameter(t *testing.T) {
	cfg := testConfig(t)
	jm := NewJobManager()
	problem := testProblem()
	problem.Parameters = map[string]any{"nag.unknown": 1}
	job := jm.CreateJob(nagsolver.SimplexName, problem)

	err := runJob(context.Background(), jm, cfg, job.ID)
	if err == nil {
		t.Fatal("runJob should fail with unknown parameter")
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateFailed {
		t.Errorf("Job should be failed, got %s", updated.State)
	}
	if updated.Error == "" {
		t.Error("Error message should be set")
	}
}

func TestRunJob_Cancellation(t *testing.T) {
	cfg := testConfig(t)
	jm := NewJobManager()
	job := jm.CreateJob(nagsolver.SimplexName, testProblem())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runJob(ctx, jm, cfg, job.ID)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("runJob should return context.Canceled, got %v", err)
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateCancelled {
		t.Errorf("Job should be cancelled, got %s", updated.State)
	}
}

func TestRunJob_NotFound(t *testing.T) {
	if err := runJob(context.Background(), NewJobManager(), testConfig(t), "missing"); err == nil {
		t.Error("runJob should fail for unknown job")
	}
}

func TestMarkJob_LogsUpdateErrors(t *testing.T) {
	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(previous) })

	jm := NewJobManager()
	markJobFailed(jm, "missing", errors.New("boom"))
	markJobCancelled(jm, "missing")

	logged := buf.String()
	if !strings.Contains(logged, "Failed to mark job failed") {
		t.Errorf("Expected failed-update warning, got %q", logged)
	}
	if !strings.Contains(logged, "Failed to mark job cancelled") {
		t.Errorf("Expected cancelled-update warning, got %q", logged)
	}
}
