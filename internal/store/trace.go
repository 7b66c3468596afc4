package store

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const traceFile = "trace.jsonl"

// TraceEntry is one observed cost evaluation, stored as a JSON line.
type TraceEntry struct {
	// Evaluation is the 1-based index of the cost function call.
	Evaluation int       `json:"evaluation"`
	Cost       float64   `json:"cost"`
	Timestamp  time.Time `json:"timestamp"`
	X          []float64 `json:"x,omitempty"`
}

func tracePath(baseDir, runID string) string {
	return filepath.Join(runDir(baseDir, runID), traceFile)
}

// TraceWriter appends entries to <baseDir>/runs/<runID>/trace.jsonl. It is
// safe for concurrent use; entries are buffered until Flush or Close.
type TraceWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
	enc    *json.Encoder
}

// NewTraceWriter creates the trace of a run, truncating an earlier one.
func NewTraceWriter(baseDir, runID string) (*TraceWriter, error) {
	if runID == "" {
		return nil, errors.New("runID cannot be empty")
	}
	if err := os.MkdirAll(runDir(baseDir, runID), 0755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}
	file, err := os.Create(tracePath(baseDir, runID))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace file: %w", err)
	}
	w := bufio.NewWriterSize(file, 64*1024)
	return &TraceWriter{file: file, writer: w, enc: json.NewEncoder(w)}, nil
}

// Write buffers one entry.
func (tw *TraceWriter) Write(entry TraceEntry) error {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if err := tw.enc.Encode(entry); err != nil {
		return fmt.Errorf("failed to write trace entry: %w", err)
	}
	return nil
}

// Flush writes buffered entries and syncs the file.
func (tw *TraceWriter) Flush() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if err := tw.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush trace: %w", err)
	}
	if err := tw.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync trace: %w", err)
	}
	return nil
}

// Close flushes and closes the file.
func (tw *TraceWriter) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	flushErr := tw.writer.Flush()
	closeErr := tw.file.Close()
	if flushErr != nil {
		return fmt.Errorf("failed to flush trace on close: %w", flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close trace: %w", closeErr)
	}
	return nil
}

// ReadTrace decodes JSON-line trace entries from r until EOF.
func ReadTrace(r io.Reader) ([]TraceEntry, error) {
	dec := json.NewDecoder(r)
	entries := []TraceEntry{}
	for {
		var e TraceEntry
		err := dec.Decode(&e)
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode trace entry %d: %w", len(entries)+1, err)
		}
		entries = append(entries, e)
	}
}

// LoadTrace returns the trace of a run. Runs without a trace yield
// ErrNotFound.
func (fs *FSStore) LoadTrace(runID string) ([]TraceEntry, error) {
	if runID == "" {
		return nil, errors.New("runID cannot be empty")
	}
	f, err := os.Open(tracePath(fs.baseDir, runID))
	if os.IsNotExist(err) {
		return nil, &NotFoundError{RunID: runID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open trace: %w", err)
	}
	defer f.Close()
	return ReadTrace(f)
}

// DeleteTrace removes the trace of a run, and the run directory when
// nothing else is left in it. A missing trace is not an error.
func DeleteTrace(baseDir, runID string) error {
	if err := os.Remove(tracePath(baseDir, runID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete trace: %w", err)
	}
	dir := runDir(baseDir, runID)
	if entries, err := os.ReadDir(dir); err == nil && len(entries) == 0 {
		if err := os.Remove(dir); err != nil {
			return fmt.Errorf("failed to remove run directory: %w", err)
		}
	}
	return nil
}
