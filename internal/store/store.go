package store

// Store defines the interface for run record persistence.
// Implementations must be thread-safe and handle concurrent access gracefully.
//
// Error handling conventions:
//   - Return nil error on success
//   - Return ErrNotFound if the run doesn't exist (for Load/Delete)
//   - Wrap underlying errors with context using fmt.Errorf("context: %w", err)
type Store interface {
	// SaveRun atomically saves the record of a finished solve.
	// If a record already exists for this run ID, it is overwritten.
	SaveRun(run *Run) error

	// LoadRun retrieves the record for the given run.
	// Returns ErrNotFound if no record exists for this run ID.
	LoadRun(runID string) (*Run, error)

	// ListRuns returns metadata for all stored runs, newest first.
	ListRuns() ([]RunInfo, error)

	// LoadTrace returns the evaluation trace of a run in write order.
	// Returns ErrNotFound if the run has no trace.
	LoadTrace(runID string) ([]TraceEntry, error)

	// DeleteRun removes the record and all associated artifacts
	// (run.json, trace.jsonl) for the given run.
	// Returns ErrNotFound if no record exists for this run ID.
	DeleteRun(runID string) error
}

// ErrNotFound is returned when a requested run does not exist.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &NotFoundError{}

// NotFoundError represents a missing run error.
type NotFoundError struct {
	RunID string
}

func (e *NotFoundError) Error() string {
	if e.RunID != "" {
		return "run not found: " + e.RunID
	}
	return "run not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}
