package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// setupTestStore creates a temporary directory and returns an FSStore for testing.
func setupTestStore(t *testing.T) (*FSStore, string) {
	t.Helper()

	tempDir := t.TempDir() // Automatically cleaned up after test
	store, err := NewFSStore(tempDir)
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}

	return store, tempDir
}

// createTestRun creates a successful run record with test data.
func createTestRun(runID string) *Run {
	started := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	return &Run{
		ID:          runID,
		Solver:      "nag-simplex",
		Problem:     "shifted",
		Dimension:   2,
		Parameters:  map[string]string{"max-iterations": "3000", "nag.tolx": "1e-08"},
		Outcome:     OutcomeSuccess,
		X:           []float64{2, 2},
		Value:       []float64{1.2e-12},
		Evaluations: 154,
		StartedAt:   started,
		FinishedAt:  started.Add(2 * time.Second),
	}
}

func TestNewFSStore(t *testing.T) {
	tempDir := filepath.Join(t.TempDir(), "nested", "data")

	store, err := NewFSStore(tempDir)
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}

	if store.BaseDir() != tempDir {
		t.Errorf("Expected base dir %s, got %s", tempDir, store.BaseDir())
	}

	// Verify base directory was created
	if _, err := os.Stat(tempDir); os.IsNotExist(err) {
		t.Fatal("Base directory was not created")
	}
}

func TestSaveRun(t *testing.T) {
	store, tempDir := setupTestStore(t)

	run := createTestRun("test-run-123")
	if err := store.SaveRun(run); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	expectedPath := filepath.Join(tempDir, "runs", run.ID, "run.json")
	if _, err := os.Stat(expectedPath); os.IsNotExist(err) {
		t.Fatalf("Run file was not created at %s", expectedPath)
	}

	// Verify no temp file remains
	tempPath := expectedPath + ".tmp"
	if _, err := os.Stat(tempPath); !os.IsNotExist(err) {
		t.Errorf("Temp file should not exist after save: %s", tempPath)
	}
}

func TestSaveRun_Invalid(t *testing.T) {
	store, _ := setupTestStore(t)

	if err := store.SaveRun(nil); err == nil {
		t.Fatal("Expected error for nil run")
	}

	run := createTestRun("")
	if err := store.SaveRun(run); err == nil {
		t.Fatal("Expected error for empty run ID")
	}
}

func TestSaveRun_Overwrite(t *testing.T) {
	store, _ := setupTestStore(t)

	run := createTestRun("test-run-overwrite")
	if err := store.SaveRun(run); err != nil {
		t.Fatalf("First save failed: %v", err)
	}

	run.Evaluations = 999
	if err := store.SaveRun(run); err != nil {
		t.Fatalf("Second save failed: %v", err)
	}

	loaded, err := store.LoadRun(run.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Evaluations != 999 {
		t.Errorf("Expected Evaluations=999, got %d", loaded.Evaluations)
	}
}

func TestLoadRun(t *testing.T) {
	store, _ := setupTestStore(t)

	original := createTestRun("test-run-load")
	if err := store.SaveRun(original); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	loaded, err := store.LoadRun(original.ID)
	if err != nil {
		t.Fatalf("LoadRun failed: %v", err)
	}

	if loaded.Solver != original.Solver {
		t.Errorf("Solver mismatch: expected %s, got %s", original.Solver, loaded.Solver)
	}
	if len(loaded.X) != len(original.X) || loaded.X[0] != original.X[0] {
		t.Errorf("X mismatch: expected %v, got %v", original.X, loaded.X)
	}
	if loaded.Value[0] != original.Value[0] {
		t.Errorf("Value mismatch: expected %v, got %v", original.Value, loaded.Value)
	}
	if loaded.Parameters["nag.tolx"] != "1e-08" {
		t.Errorf("Parameters mismatch: got %v", loaded.Parameters)
	}
	if !loaded.FinishedAt.Equal(original.FinishedAt) {
		t.Errorf("FinishedAt mismatch: expected %v, got %v", original.FinishedAt, loaded.FinishedAt)
	}
}

func TestLoadRun_NotFound(t *testing.T) {
	store, _ := setupTestStore(t)

	_, err := store.LoadRun("nonexistent-run")
	if err == nil {
		t.Fatal("Expected error for nonexistent run")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected NotFoundError, got %T: %v", err, err)
	}
}

func TestLoadRun_EmptyID(t *testing.T) {
	store, _ := setupTestStore(t)

	if _, err := store.LoadRun(""); err == nil {
		t.Fatal("Expected error for empty runID")
	}
}

func TestListRuns_Empty(t *testing.T) {
	store, _ := setupTestStore(t)

	infos, err := store.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(infos) != 0 {
		t.Errorf("Expected empty list, got %d runs", len(infos))
	}
}

func TestListRuns_NewestFirst(t *testing.T) {
	store, _ := setupTestStore(t)

	ids := []string{"run-1", "run-2", "run-3"}
	for i, id := range ids {
		run := createTestRun(id)
		run.FinishedAt = run.StartedAt.Add(time.Duration(i+1) * time.Minute)
		if err := store.SaveRun(run); err != nil {
			t.Fatalf("Failed to save run %s: %v", id, err)
		}
	}

	infos, err := store.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(infos) != len(ids) {
		t.Fatalf("Expected %d runs, got %d", len(ids), len(infos))
	}
	for i, want := range []string{"run-3", "run-2", "run-1"} {
		if infos[i].ID != want {
			t.Errorf("Position %d: expected %s, got %s", i, want, infos[i].ID)
		}
	}
}

func TestListRuns_SkipsInvalidDirectories(t *testing.T) {
	store, tempDir := setupTestStore(t)

	if err := store.SaveRun(createTestRun("valid-run")); err != nil {
		t.Fatalf("Failed to save valid run: %v", err)
	}

	// Directory with only a trace
	writer, err := NewTraceWriter(tempDir, "trace-only")
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}
	writer.Close()

	// Corrupted record
	corrupt := filepath.Join(tempDir, "runs", "corrupt-run")
	if err := os.MkdirAll(corrupt, 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(filepath.Join(corrupt, "run.json"), []byte("{"), 0644); err != nil {
		t.Fatalf("Failed to write corrupt record: %v", err)
	}

	// Non-directory file in runs directory
	if err := os.WriteFile(filepath.Join(tempDir, "runs", "dummy.txt"), []byte("test"), 0644); err != nil {
		t.Fatalf("Failed to create dummy file: %v", err)
	}

	infos, err := store.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(infos) != 1 || infos[0].ID != "valid-run" {
		t.Errorf("Expected only valid-run, got %+v", infos)
	}
}

func TestDeleteRun(t *testing.T) {
	store, tempDir := setupTestStore(t)

	run := createTestRun("test-run-delete")
	if err := store.SaveRun(run); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	writer, err := NewTraceWriter(tempDir, run.ID)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}
	writer.Close()

	if err := store.DeleteRun(run.ID); err != nil {
		t.Fatalf("DeleteRun failed: %v", err)
	}

	if _, err := store.LoadRun(run.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected NotFoundError after delete, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(tempDir, "runs", run.ID)); !os.IsNotExist(err) {
		t.Error("Run directory still exists after delete")
	}
}

func TestDeleteRun_NotFound(t *testing.T) {
	store, _ := setupTestStore(t)

	if err := store.DeleteRun("nonexistent-run"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected NotFoundError, got %v", err)
	}
	if err := store.DeleteRun(""); err == nil {
		t.Fatal("Expected error for empty runID")
	}
}

func TestConcurrentSave(t *testing.T) {
	store, _ := setupTestStore(t)

	const numRuns = 10
	done := make(chan bool, numRuns)

	for i := 0; i < numRuns; i++ {
		go func(idx int) {
			run := createTestRun(fmt.Sprintf("concurrent-run-%d", idx))
			if err := store.SaveRun(run); err != nil {
				t.Errorf("Concurrent save failed for run %s: %v", run.ID, err)
			}
			done <- true
		}(i)
	}

	for i := 0; i < numRuns; i++ {
		<-done
	}

	infos, err := store.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(infos) != numRuns {
		t.Errorf("Expected %d runs, got %d", numRuns, len(infos))
	}
}
