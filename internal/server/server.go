// Package server exposes solves as HTTP jobs.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cwbudde/nagplug/internal/metrics"
	"github.com/cwbudde/nagplug/internal/nagsolver"
	"github.com/cwbudde/nagplug/internal/problemfile"
	"github.com/cwbudde/nagplug/internal/run"
	"github.com/cwbudde/nagplug/internal/solver"
	"github.com/cwbudde/nagplug/internal/store"
)

// Config wires the server to its collaborators. A nil Registry selects the
// built-in adapters and a nil Metrics a fresh collector. Store is optional.
type Config struct {
	Registry   *solver.Registry
	Store      store.Store
	DataDir    string
	TraceEvery int
	Metrics    *metrics.Collector
}

// Server represents the HTTP server
type Server struct {
	jobManager *JobManager
	cfg        Config
	addr       string
	server     *http.Server

	// jobs run under ctx, which Shutdown cancels.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer creates a new HTTP server
func NewServer(addr string, cfg Config) *Server {
	if cfg.Registry == nil {
		cfg.Registry = nagsolver.NewRegistry()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewCollector()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		jobManager: NewJobManager(),
		cfg:        cfg,
		addr:       addr,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Handler returns the routed and wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Register API routes
	mux.HandleFunc("/api/v1/jobs", s.handleJobs)
	mux.HandleFunc("/api/v1/jobs/", s.handleJobsWithID)
	mux.HandleFunc("/api/v1/solvers", s.handleSolvers)
	mux.HandleFunc("/api/v1/runs", s.handleRuns)
	mux.HandleFunc("/api/v1/runs/", s.handleRunWithID)
	mux.Handle("/metrics", s.cfg.Metrics.Handler())

	// Wrap with middleware
	return s.loggingMiddleware(s.corsMiddleware(mux))
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("Starting HTTP server", "addr", s.addr, "solvers", s.cfg.Registry.Names())
	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests, cancels pending jobs and waits for
// running solves until ctx expires. A running solve cannot be interrupted.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down HTTP server")
	s.cancel()

	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		slog.Warn("Shutdown with jobs still running", "running", len(s.jobManager.GetRunningJobs()))
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}

// handleJobs handles /api/v1/jobs
func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateJob(w, r)
	case http.MethodGet:
		s.handleListJobs(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleJobsWithID handles /api/v1/jobs/:id and /api/v1/jobs/:id/stream
func (s *Server) handleJobsWithID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	// Parse job ID from path
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/jobs/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "job ID required")
		return
	}

	jobID := parts[0]

	// Route based on subpath
	switch {
	case len(parts) == 1:
		s.handleGetJob(w, r, jobID)
	case len(parts) == 2 && parts[1] == "stream":
		s.handleJobStream(w, r, jobID)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

// handleCreateJob handles POST /api/v1/jobs. The body is a problem file in
// JSON form.
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var problem problemfile.File
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&problem); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	// Compiles the expressions as well.
	if _, err := problem.Problem(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	name := run.Request{Problem: &problem}.SolverName()
	if _, err := s.cfg.Registry.Lookup(name); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Create job
	job := s.jobManager.CreateJob(name, &problem)

	// Start worker in background
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		runJob(s.ctx, s.jobManager, s.cfg, job.ID)
	}()

	writeJSON(w, http.StatusCreated, job)
}

// handleListJobs handles GET /api/v1/jobs
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.jobManager.ListJobs())
}

// handleGetJob handles GET /api/v1/jobs/:id
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, exists := s.jobManager.GetJob(jobID)
	if !exists {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// handleSolvers handles GET /api/v1/solvers
func (s *Server) handleSolvers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	infos, err := run.DescribeAll(s.cfg.Registry)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

// handleRuns handles GET /api/v1/runs
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.cfg.Store == nil {
		writeError(w, http.StatusNotFound, "run storage disabled")
		return
	}
	infos, err := s.cfg.Store.ListRuns()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

// handleRunWithID handles GET and DELETE /api/v1/runs/:id and the run trace
func (s *Server) handleRunWithID(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Store == nil {
		writeError(w, http.StatusNotFound, "run storage disabled")
		return
	}
	runID := strings.TrimPrefix(r.URL.Path, "/api/v1/runs/")
	if id, ok := strings.CutSuffix(runID, "/trace"); ok {
		s.handleRunTrace(w, r, id)
		return
	}
	if runID == "" || strings.Contains(runID, "/") {
		writeError(w, http.StatusBadRequest, "run ID required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		rec, err := s.cfg.Store.LoadRun(runID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	case http.MethodDelete:
		if err := s.cfg.Store.DeleteRun(runID); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleRunTrace handles GET /api/v1/runs/:id/trace
func (s *Server) handleRunTrace(w http.ResponseWriter, r *http.Request, runID string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if runID == "" || strings.Contains(runID, "/") {
		writeError(w, http.StatusBadRequest, "run ID required")
		return
	}
	entries, err := s.cfg.Store.LoadTrace(runID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
