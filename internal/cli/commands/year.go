package commands

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zapponejosh/lunar-almanac/internal/calendar"
	"github.com/zapponejosh/lunar-almanac/internal/lunar"
)

type yearMonth struct {
	Label  string `json:"label"`
	Month  int    `json:"month"`
	IsLeap bool   `json:"is_leap"`
	Start  string `json:"start"`
	Days   int    `json:"days"`
}

// yearResult is the --json shape of the year command.
type yearResult struct {
	Year       int         `json:"year"`
	StemBranch string      `json:"stem_branch"`
	Zodiac     string      `json:"zodiac"`
	FirstDay   string      `json:"first_day"`
	TotalDays  int         `json:"total_days"`
	LeapMonth  int         `json:"leap_month"`
	Months     []yearMonth `json:"months"`
}

// NewYearCommand creates the year command.
func NewYearCommand(conv *lunar.Converter) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "year <YYYY>",
		Short: "Show the month layout of a lunar year",
		Long: `Show every month of a lunar year with its Gregorian start date and
length. A leap month, if any, follows the month it repeats.`,
		Example: `  lunarcal year 2023
  lunarcal year 2033 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			y, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid year %q", args[0])
			}

			res, err := buildYear(conv, y)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			return printYear(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	return cmd
}

func buildYear(conv *lunar.Converter, y int) (*yearResult, error) {
	enc, err := conv.Year(y)
	if err != nil {
		return nil, err
	}
	start, err := conv.FirstDay(y)
	if err != nil {
		return nil, err
	}

	res := &yearResult{
		Year:       y,
		StemBranch: lunar.StemBranchYear(y),
		Zodiac:     lunar.ZodiacAnimal(y),
		FirstDay:   calendar.FormatDate(start),
		TotalDays:  enc.TotalDays(),
		LeapMonth:  enc.LeapMonth,
	}

	for _, span := range enc.Months() {
		res.Months = append(res.Months, yearMonth{
			Label:  lunar.MonthLabel(span.Month, span.IsLeap),
			Month:  span.Month,
			IsLeap: span.IsLeap,
			Start:  calendar.FormatDate(start),
			Days:   span.Days,
		})
		start = start.AddDate(0, 0, span.Days)
	}

	return res, nil
}

func printYear(w io.Writer, res *yearResult) error {
	_, _ = fmt.Fprintf(w, "%d %s年 (%s) %d天\n", res.Year, res.StemBranch, res.Zodiac, res.TotalDays)
	for _, m := range res.Months {
		size := "小"
		if m.Days == 30 {
			size = "大"
		}
		_, _ = fmt.Fprintf(w, "  %s\t%s\t%d天 (%s)\n", m.Label, m.Start, m.Days, size)
	}
	return nil
}
