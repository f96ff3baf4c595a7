// Package cmd implements the roommapper CLI's subcommands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "roommapper",
	Short: "Reconstructs a hidden labelled room graph from oracle movement queries",
	Long: `roommapper issues bounded movement queries against a black-box
oracle, reconstructs the hidden room graph with a simulated-annealing base
solver and a DFS layer-completion solver, and submits the candidate map.`,
}

// Execute runs the root command, exiting the process with status 1 on
// error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "path to an optional .env file with oracle connection settings")
}
