// Package cmd is the Cobra CLI surface of spec.md §6.4, grounded on
// jhkimqd-chaos-utils/cmd/chaos-runner's root-command-plus-subcommand-files
// shape: a persistent root command carrying shared flags, one subcommand per
// file implementing its RunE.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "flepimop-inference",
	Short: "Dual-chain MCMC epidemic parameter inference core",
	Long: `flepimop-inference fits SEIR-style epidemic model parameters to observed
data via a dual-chain (global + chimeric) Metropolis algorithm, with an
optional EMCEE ensemble backend.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to the inference configuration file (required)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")
	rootCmd.AddCommand(inferCmd)
}

// Execute runs the root command, exiting the process with a non-zero status
// on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
