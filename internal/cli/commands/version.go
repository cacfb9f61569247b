package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zapponejosh/lunar-almanac/internal/lunar"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display lunarcal version and the supported lunar year range.`,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "lunarcal v%s\n", version)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Lunar years %d-%d\n", lunar.MinYear, lunar.MaxYear)
		},
	}
}
