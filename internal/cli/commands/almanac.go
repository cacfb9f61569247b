package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/zapponejosh/lunar-almanac/internal/calendar"
	"github.com/zapponejosh/lunar-almanac/internal/config"
	"github.com/zapponejosh/lunar-almanac/internal/lunar"
)

// NewAlmanacCommand creates the almanac command.
func NewAlmanacCommand(conv *lunar.Converter) *cobra.Command {
	var (
		asJSON bool
		tz     string
	)

	cmd := &cobra.Command{
		Use:   "almanac [YYYY-MM-DD]",
		Short: "Show the daily almanac card",
		Long: `Show the almanac card for a date: lunar date, solar term or zodiac,
the day's 宜 and 忌, and whether it is a 初一 or 十五 reminder day.

Without a date, today in --tz is used.`,
		Example: `  lunarcal almanac
  lunarcal almanac 2024-02-10 --json
  lunarcal almanac --tz America/New_York`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var date time.Time
			if len(args) == 1 {
				d, err := parseDateArg(args[0])
				if err != nil {
					return err
				}
				date = d
			} else {
				loc, err := time.LoadLocation(tz)
				if err != nil {
					return fmt.Errorf("unknown time zone %q: %w", tz, err)
				}
				date = time.Now().In(loc)
			}

			a, err := calendar.NewAlmanacBuilder(conv).Build(date)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), a)
			}
			return printAlmanac(cmd.OutOrStdout(), a)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&tz, "tz", config.DefaultTimezone, "Time zone that decides today's date")

	return cmd
}

func printAlmanac(w io.Writer, a *calendar.Almanac) error {
	_, _ = fmt.Fprintf(w, "%s %s\n", a.Date, a.Weekday)
	_, _ = fmt.Fprintf(w, "%s %s\n", a.YearLabel, a.DateLabel)
	_, _ = fmt.Fprintf(w, "%s\n", a.Highlight)
	_, _ = fmt.Fprintf(w, "宜: %s\n", a.Suit)
	_, _ = fmt.Fprintf(w, "忌: %s\n", a.Avoid)
	if a.Reminder {
		_, _ = fmt.Fprintf(w, "提醒: 今日%s\n", a.ReminderLabel)
	}
	return nil
}
