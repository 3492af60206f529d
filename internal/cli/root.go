// Package cli implements the lumen command-line interface using Cobra.
// Each subcommand maps to one daemon surface (serve, status, modes,
// policy, simulate).
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lumen",
	Short: "lumen — Display refresh rate selection daemon",
	Long: `lumen picks the refresh rate a display should run at, continuously
balancing application frame rate votes against device policy and
global signals such as touch interaction and display idle.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
