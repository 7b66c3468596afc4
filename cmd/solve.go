package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/nagplug/internal/param"
	"github.com/cwbudde/nagplug/internal/problemfile"
	"github.com/cwbudde/nagplug/internal/run"
	"github.com/cwbudde/nagplug/internal/store"
)

var (
	solveSolver     string
	solveParams     []string
	solveTraceEvery int
	solveNoSave     bool
	solveJSON       bool
)

var solveCmd = &cobra.Command{
	Use:   "solve <problem.yaml>",
	Short: "Solve a problem file once",
	Long: `Loads a problem file, creates the selected solver, applies the file's
parameters and any --param overrides, and runs a single solve.

The run record is saved under --data-dir unless --no-save is given. A solver
failure is recorded like a success and reported with a non-zero exit status.`,
	Example: `  nagplug solve rosenbrock.yaml
  nagplug solve quad.yaml --solver nag-global --param max-iterations=200 --param nag.seed=7`,
	Args: cobra.ExactArgs(1),
	RunE: runSolve,
}

func init() {
	solveCmd.Flags().StringVar(&solveSolver, "solver", "", "Solver name (overrides the problem file)")
	solveCmd.Flags().StringArrayVar(&solveParams, "param", nil, "Parameter assignment key=value; may be repeated")
	solveCmd.Flags().IntVar(&solveTraceEvery, "trace-every", 0, "Write every N-th evaluation to the run trace (0 = off)")
	solveCmd.Flags().BoolVar(&solveNoSave, "no-save", false, "Do not persist the run record")
	solveCmd.Flags().BoolVar(&solveJSON, "json", false, "Print the run record as JSON")
	rootCmd.AddCommand(solveCmd)
}

// parseParams turns repeated key=value flags into raw assignments. Later
// flags win.
func parseParams(assignments []string) (map[string]any, error) {
	params := make(map[string]any, len(assignments))
	for _, a := range assignments {
		key, value, err := param.ParseAssignment(a)
		if err != nil {
			return nil, err
		}
		params[key] = value
	}
	return params, nil
}

func runSolve(cmd *cobra.Command, args []string) error {
	problem, err := problemfile.Load(args[0])
	if err != nil {
		return err
	}
	params, err := parseParams(solveParams)
	if err != nil {
		return err
	}
	reg, err := newRegistry()
	if err != nil {
		return err
	}

	opts := run.Options{
		Registry:   reg,
		DataDir:    dataDir,
		TraceEvery: solveTraceEvery,
	}
	if !solveNoSave {
		fs, err := store.NewFSStore(dataDir)
		if err != nil {
			return fmt.Errorf("failed to create run store: %w", err)
		}
		opts.Store = fs
	} else {
		opts.TraceEvery = 0
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rec, err := run.Execute(ctx, run.Request{
		Problem: problem,
		Solver:  solveSolver,
		Params:  params,
	}, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if solveJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rec); err != nil {
			return err
		}
	} else {
		printRun(out, rec)
	}

	if rec.Outcome == store.OutcomeFailure {
		return fmt.Errorf("solve failed: %s", rec.Message)
	}
	return nil
}

// printRun writes a human-readable summary of rec.
func printRun(w io.Writer, rec *store.Run) {
	fmt.Fprintf(w, "Run: %s\n", rec.ID)
	fmt.Fprintf(w, "  Solver: %s\n", rec.Solver)
	fmt.Fprintf(w, "  Problem: %s (n = %d)\n", rec.Problem, rec.Dimension)
	fmt.Fprintf(w, "  Outcome: %s\n", rec.Outcome)
	if rec.Outcome == store.OutcomeSuccess {
		fmt.Fprintf(w, "  Minimum: %.12g\n", rec.Value[0])
		fmt.Fprintf(w, "  At: %v\n", rec.X)
	} else {
		fmt.Fprintf(w, "  Message: %s\n", rec.Message)
	}
	fmt.Fprintf(w, "  Evaluations: %d\n", rec.Evaluations)
	fmt.Fprintf(w, "  Elapsed: %s\n", rec.FinishedAt.Sub(rec.StartedAt).Round(time.Microsecond))
}
