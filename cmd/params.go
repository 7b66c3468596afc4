package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/nagplug/internal/run"
)

var paramsCmd = &cobra.Command{
	Use:   "params <solver>",
	Short: "List a solver's parameters and defaults",
	Args:  cobra.ExactArgs(1),
	RunE:  runParams,
}

var solversCmd = &cobra.Command{
	Use:   "solvers",
	Short: "List available solvers",
	Args:  cobra.NoArgs,
	RunE:  runSolvers,
}

func init() {
	rootCmd.AddCommand(paramsCmd)
	rootCmd.AddCommand(solversCmd)
}

func runParams(cmd *cobra.Command, args []string) error {
	reg, err := newRegistry()
	if err != nil {
		return err
	}
	info, err := run.Describe(reg, args[0])
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tKIND\tDEFAULT\tDESCRIPTION")
	fmt.Fprintln(w, "---\t----\t-------\t-----------")
	for _, p := range info.Parameters {
		def := p.Default
		if def == "" {
			def = `""`
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Key, p.Kind, def, p.Description)
	}
	return w.Flush()
}

func runSolvers(cmd *cobra.Command, args []string) error {
	reg, err := newRegistry()
	if err != nil {
		return err
	}
	for _, name := range reg.Names() {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}
