package store

import (
	"fmt"
	"time"
)

// Outcome values of a run record.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Run is the persisted record of one Solve call.
// All fields are serialized to JSON for persistence.
type Run struct {
	// ID is the unique identifier for this run
	ID string `json:"id"`

	// Solver is the registry name of the adapter that ran
	Solver string `json:"solver"`

	// Problem names the problem, usually the problem file's name field
	Problem string `json:"problem"`

	// Dimension is the input size of the cost function
	Dimension int `json:"dimension"`

	// Parameters are the solver parameters at solve time, rendered as text
	Parameters map[string]string `json:"parameters,omitempty"`

	// Outcome is OutcomeSuccess or OutcomeFailure
	Outcome string `json:"outcome"`

	// X and Value are the minimiser and the cost there (success only)
	X     []float64 `json:"x,omitempty"`
	Value []float64 `json:"value,omitempty"`

	// Message is the library diagnostic (failure only)
	Message string `json:"message,omitempty"`

	// Evaluations counts the cost function calls seen by the observer
	Evaluations int `json:"evaluations"`

	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// RunInfo contains metadata about a run without the full vectors.
// Used for listing runs efficiently.
type RunInfo struct {
	ID          string        `json:"id"`
	Solver      string        `json:"solver"`
	Problem     string        `json:"problem"`
	Outcome     string        `json:"outcome"`
	Value       float64       `json:"value"`
	Evaluations int           `json:"evaluations"`
	Duration    time.Duration `json:"duration"`
	FinishedAt  time.Time     `json:"finishedAt"`
}

// ToInfo converts a full Run to RunInfo (metadata only).
func (r *Run) ToInfo() RunInfo {
	info := RunInfo{
		ID:          r.ID,
		Solver:      r.Solver,
		Problem:     r.Problem,
		Outcome:     r.Outcome,
		Evaluations: r.Evaluations,
		Duration:    r.FinishedAt.Sub(r.StartedAt),
		FinishedAt:  r.FinishedAt,
	}
	if len(r.Value) > 0 {
		info.Value = r.Value[0]
	}
	return info
}

// Validate checks if the run has valid data.
// Returns an error if any required field is missing or invalid.
func (r *Run) Validate() error {
	if r.ID == "" {
		return &ValidationError{Field: "ID", Reason: "cannot be empty"}
	}
	if r.Solver == "" {
		return &ValidationError{Field: "Solver", Reason: "cannot be empty"}
	}
	if r.Dimension <= 0 {
		return &ValidationError{Field: "Dimension", Reason: "must be positive"}
	}
	if r.Evaluations < 0 {
		return &ValidationError{Field: "Evaluations", Reason: "cannot be negative"}
	}
	if r.StartedAt.IsZero() {
		return &ValidationError{Field: "StartedAt", Reason: "cannot be zero"}
	}
	if r.FinishedAt.Before(r.StartedAt) {
		return &ValidationError{Field: "FinishedAt", Reason: "cannot be before StartedAt"}
	}

	switch r.Outcome {
	case OutcomeSuccess:
		if len(r.X) != r.Dimension {
			return &ValidationError{
				Field:  "X",
				Reason: fmt.Sprintf("length mismatch: expected %d values, got %d", r.Dimension, len(r.X)),
			}
		}
		if len(r.Value) == 0 {
			return &ValidationError{Field: "Value", Reason: "cannot be empty on success"}
		}
	case OutcomeFailure:
		if r.Message == "" {
			return &ValidationError{Field: "Message", Reason: "cannot be empty on failure"}
		}
	default:
		return &ValidationError{Field: "Outcome", Reason: fmt.Sprintf("unknown outcome %q", r.Outcome)}
	}
	return nil
}

// ValidationError represents a run validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}
