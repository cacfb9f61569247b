// Package cli provides the command-line interface for lunarcal.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zapponejosh/lunar-almanac/internal/cli/commands"
	"github.com/zapponejosh/lunar-almanac/internal/lunar"
)

// Version is set at build time.
var Version = "0.1.0"

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lunarcal",
		Short: "Chinese lunar calendar tools",
		Long: `lunarcal converts Gregorian dates to the Chinese lunisolar calendar,
lists the months of a lunar year, and prints the daily almanac card.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	conv := lunar.New()

	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewConvertCommand(conv))
	rootCmd.AddCommand(commands.NewYearCommand(conv))
	rootCmd.AddCommand(commands.NewAlmanacCommand(conv))

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
