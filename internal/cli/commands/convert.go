// Package commands holds the lunarcal subcommands.
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/zapponejosh/lunar-almanac/internal/calendar"
	"github.com/zapponejosh/lunar-almanac/internal/lunar"
)

// convertResult is the --json shape of the convert command.
type convertResult struct {
	Date    string          `json:"date"`
	Weekday string          `json:"weekday"`
	Label   string          `json:"label"`
	Lunar   lunar.LunarDate `json:"lunar"`
}

// NewConvertCommand creates the convert command.
func NewConvertCommand(conv *lunar.Converter) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "convert <YYYY-MM-DD>",
		Short: "Convert a Gregorian date to the lunar calendar",
		Long: `Convert a Gregorian date to its Chinese lunar date.

Supported dates run from 1900-01-31 (lunar 1900, first month, first day)
through the last day of lunar year 2049.`,
		Example: `  # Lunar New Year 2024
  lunarcal convert 2024-02-10

  # Machine-readable output
  lunarcal convert 2023-03-22 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseDateArg(args[0])
			if err != nil {
				return err
			}

			ld, err := conv.FromTime(date)
			if err != nil {
				return err
			}

			res := convertResult{
				Date:    calendar.FormatDate(date),
				Weekday: calendar.WeekdayName(date),
				Label:   ld.String(),
				Lunar:   ld,
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			return printConvert(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	return cmd
}

func printConvert(w io.Writer, res convertResult) error {
	_, _ = fmt.Fprintf(w, "公历: %s %s\n", res.Date, res.Weekday)
	_, _ = fmt.Fprintf(w, "农历: %s\n", res.Label)
	_, _ = fmt.Fprintf(w, "生肖: %s\n", res.Lunar.Zodiac)
	if res.Lunar.SolarTerm != "" {
		_, _ = fmt.Fprintf(w, "节气: %s\n", res.Lunar.SolarTerm)
	}
	return nil
}

// parseDateArg parses a YYYY-MM-DD argument.
func parseDateArg(s string) (time.Time, error) {
	date, err := calendar.ParseDateString(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD", s)
	}
	return date, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
