package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/nagplug/internal/metrics"
	"github.com/cwbudde/nagplug/internal/server"
)

var (
	serveAddr       string
	serveTraceEvery int
	shutdownTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP job server",
	Long: `Starts an HTTP server that accepts problems as jobs.

Endpoints:
  POST   /api/v1/jobs              submit a problem (JSON problem file)
  GET    /api/v1/jobs              list jobs
  GET    /api/v1/jobs/{id}         job state and result
  GET    /api/v1/jobs/{id}/stream  progress as server-sent events
  GET    /api/v1/solvers           solvers and their parameters
  GET    /api/v1/runs[/{id}]       stored run records
  DELETE /api/v1/runs/{id}         delete a run record
  GET    /metrics                  Prometheus metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	serveCmd.Flags().IntVar(&serveTraceEvery, "trace-every", 0, "Write every N-th evaluation of each job to its trace (0 = off)")
	serveCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 30*time.Second, "How long to wait for running jobs on shutdown")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	reg, err := newRegistry()
	if err != nil {
		return err
	}
	runStore, err := openStore()
	if err != nil {
		return err
	}

	s := server.NewServer(serveAddr, server.Config{
		Registry:   reg,
		Store:      runStore,
		DataDir:    dataDir,
		TraceEvery: serveTraceEvery,
		Metrics:    metrics.NewCollector(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Signal received, shutting down", "timeout", shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}
