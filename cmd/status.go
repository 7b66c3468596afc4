package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/nagplug/internal/server"
	"github.com/cwbudde/nagplug/internal/store"
)

var (
	serverURL string
)

var statusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Query server status or specific job",
	Long: `Queries the server for job status information.
If no job-id is provided, lists all jobs.
If job-id is provided, shows detailed status for that job.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	base := strings.TrimSuffix(serverURL, "/")
	if len(args) == 0 {
		return listJobs(cmd.OutOrStdout(), base+"/api/v1/jobs")
	}
	return getJobStatus(cmd.OutOrStdout(), base+"/api/v1/jobs/"+args[0], args[0])
}

// getJSON fetches url and decodes the body into v.
func getJSON(url string, v any) (int, error) {
	resp, err := http.Get(url)
	if err != nil {
		return 0, fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, fmt.Errorf("server returned error: %s", strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp.StatusCode, nil
}

func listJobs(w io.Writer, url string) error {
	var jobs []server.Job
	if _, err := getJSON(url, &jobs); err != nil {
		return err
	}

	if len(jobs) == 0 {
		fmt.Fprintln(w, "No jobs found")
		return nil
	}

	fmt.Fprintf(w, "Found %d job(s):\n\n", len(jobs))
	for _, job := range jobs {
		fmt.Fprintf(w, "Job ID: %s\n", job.ID)
		fmt.Fprintf(w, "  State: %s\n", job.State)
		fmt.Fprintf(w, "  Solver: %s\n", job.Solver)
		if job.Problem != nil {
			fmt.Fprintf(w, "  Problem: %s\n", job.Problem.Name)
		}
		if job.BestCost != nil {
			fmt.Fprintf(w, "  Best Cost: %.6g\n", *job.BestCost)
		}
		fmt.Fprintln(w)
	}

	return nil
}

func getJobStatus(w io.Writer, url, jobID string) error {
	var job server.Job
	code, err := getJSON(url, &job)
	if code == http.StatusNotFound {
		return fmt.Errorf("job not found: %s", jobID)
	}
	if err != nil {
		return err
	}

	// Display status
	fmt.Fprintf(w, "Job: %s\n", job.ID)
	fmt.Fprintf(w, "State: %s\n", job.State)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Problem:")
	fmt.Fprintf(w, "  Solver: %s\n", job.Solver)
	if job.Problem != nil {
		fmt.Fprintf(w, "  Name: %s\n", job.Problem.Name)
		fmt.Fprintf(w, "  Dimension: %d\n", job.Problem.Dimension)
		fmt.Fprintf(w, "  Objective: %s\n", job.Problem.Objective)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Progress:")
	fmt.Fprintf(w, "  Evaluations: %d\n", job.Evaluations)
	if job.BestCost != nil {
		fmt.Fprintf(w, "  Best Cost: %.6g\n", *job.BestCost)
	}

	end := time.Now()
	if job.EndTime != nil {
		end = *job.EndTime
	}
	fmt.Fprintf(w, "  Elapsed: %s\n", end.Sub(job.StartTime).Round(time.Millisecond))

	switch job.Outcome {
	case store.OutcomeSuccess:
		fmt.Fprintf(w, "\nMinimum: %.12g at %v\n", job.Value[0], job.X)
	case store.OutcomeFailure:
		fmt.Fprintf(w, "\nSolver failure: %s\n", job.Message)
	}

	if job.Error != "" {
		fmt.Fprintf(w, "\nError: %s\n", job.Error)
	}

	return nil
}
