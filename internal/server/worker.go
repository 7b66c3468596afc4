package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/nagplug/internal/run"
	"github.com/cwbudde/nagplug/internal/solver"
)

// progressInterval throttles progress broadcasts.
var progressInterval = 500 * time.Millisecond

// runJob executes a solve job in the background. The run record is persisted
// under the job ID when cfg.Store is set.
func runJob(ctx context.Context, jm *JobManager, cfg Config, jobID string) error {
	// Get the job
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	// Check for cancellation before starting
	select {
	case <-ctx.Done():
		markJobCancelled(jm, jobID)
		return ctx.Err()
	default:
	}

	err := jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateRunning
	})
	if err != nil {
		return err
	}

	if cfg.Metrics != nil {
		cfg.Metrics.JobStarted()
		defer cfg.Metrics.JobFinished()
	}

	slog.Info("Starting job", "job_id", jobID, "solver", job.Solver, "problem", job.Problem.Name)

	// Start progress monitoring goroutine
	progressDone := make(chan struct{})
	go monitorProgress(ctx, jm, jobID, progressDone)

	rec, err := run.Execute(ctx, run.Request{Problem: job.Problem, Solver: job.Solver}, run.Options{
		Registry:   cfg.Registry,
		Store:      cfg.Store,
		DataDir:    cfg.DataDir,
		TraceEvery: cfg.TraceEvery,
		Metrics:    cfg.Metrics,
		RunID:      jobID,
		Progress: func(state solver.State) {
			err := jm.UpdateJob(jobID, func(j *Job) {
				j.Evaluations = state.Evaluations
				if j.BestCost == nil || state.Cost < *j.BestCost {
					cost := state.Cost
					j.BestCost = &cost
				}
			})
			if err != nil {
				slog.Warn("Failed to record job progress", "job_id", jobID, "error", err)
			}
		},
	})
	close(progressDone)

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			markJobCancelled(jm, jobID)
		} else {
			markJobFailed(jm, jobID, err)
		}
		return err
	}

	// Update job with results
	endTime := time.Now()
	err = jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCompleted
		j.Evaluations = rec.Evaluations
		j.Outcome = rec.Outcome
		j.X = rec.X
		j.Value = rec.Value
		j.Message = rec.Message
		j.EndTime = &endTime
	})
	if err != nil {
		return err
	}

	slog.Info("Job completed",
		"job_id", jobID,
		"outcome", rec.Outcome,
		"evaluations", rec.Evaluations,
		"elapsed", rec.FinishedAt.Sub(rec.StartedAt),
	)

	// Broadcast final completion event
	broadcastJob(jm, jobID)
	return nil
}

// monitorProgress periodically broadcasts progress events during a solve
func monitorProgress(ctx context.Context, jm *JobManager, jobID string, done chan struct{}) {
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !broadcastJob(jm, jobID) {
				return
			}
		}
	}
}

// broadcastJob sends the job's current state to stream subscribers. It
// reports false when the job no longer exists.
func broadcastJob(jm *JobManager, jobID string) bool {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return false
	}
	jm.broadcaster.Broadcast(newProgressEvent(job))
	return true
}

// markJobFailed marks a job as failed with an error message
func markJobFailed(jm *JobManager, jobID string, err error) {
	endTime := time.Now()
	updateErr := jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &endTime
	})
	if updateErr != nil {
		slog.Warn("Failed to mark job failed", "job_id", jobID, "error", updateErr)
	}
	broadcastJob(jm, jobID)
	slog.Error("Job failed", "job_id", jobID, "error", err)
}

// markJobCancelled marks a job as cancelled
func markJobCancelled(jm *JobManager, jobID string) {
	endTime := time.Now()
	err := jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCancelled
		j.EndTime = &endTime
	})
	if err != nil {
		slog.Warn("Failed to mark job cancelled", "job_id", jobID, "error", err)
	}
	broadcastJob(jm, jobID)
	slog.Info("Job cancelled", "job_id", jobID)
}
