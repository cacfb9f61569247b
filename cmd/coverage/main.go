// Command coverage walks every day of a span of years through the almanac
// range endpoint and checks that the lunar calendar it returns never breaks:
// each day follows the previous one, months roll over after day 29 or 30,
// leap months follow their regular month, and lunar years turn over after
// the twelfth month.
//
// Usage:
//
//	go run ./cmd/coverage -url http://localhost:8080 -start 2020 -years 10
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/zapponejosh/lunar-almanac/internal/calendar"
	"github.com/zapponejosh/lunar-almanac/internal/lunar"
)

// APIResponse matches the API response structure
type APIResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorInfo      `json:"error,omitempty"`
}

type ErrorInfo struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type RangeResponse struct {
	Start string              `json:"start"`
	End   string              `json:"end"`
	Days  []*calendar.Almanac `json:"days"`
}

// TestResult holds the result for a single date
type TestResult struct {
	Date    string `json:"date"`
	Success bool   `json:"success"`
	Label   string `json:"label,omitempty"`
	Error   string `json:"error,omitempty"`
}

// YearStats tracks statistics per solar year
type YearStats struct {
	Year        string   `json:"year"`
	TotalDays   int      `json:"total_days"`
	SuccessDays int      `json:"success_days"`
	FailedDays  int      `json:"failed_days"`
	FailedDates []string `json:"failed_dates,omitempty"`
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Base URL of the API")
	startYear := flag.Int("start", 2024, "Start year")
	years := flag.Int("years", 4, "Number of years to test")
	verbose := flag.Bool("v", false, "Verbose output (show each date)")
	outputFile := flag.String("o", "", "Output results to JSON file")
	flag.Parse()

	endYear := *startYear + *years - 1

	fmt.Println("================================================================")
	fmt.Println("Lunar Almanac API - Calendar Continuity Test")
	fmt.Println("================================================================")
	fmt.Printf("Base URL:    %s\n", *baseURL)
	fmt.Printf("Date Range:  %d-01-01 to %d-12-31\n", *startYear, endYear)
	fmt.Printf("Total Years: %d\n", *years)
	fmt.Println()

	// Check if server is reachable
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(*baseURL + "/health")
	if err != nil {
		fmt.Printf("Error: Cannot connect to %s\n", *baseURL)
		fmt.Println("Make sure the API server is running.")
		os.Exit(1)
	}
	resp.Body.Close()

	start := time.Date(*startYear, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(endYear, 12, 31, 0, 0, 0, 0, time.UTC)

	results := testAllDates(client, *baseURL, start, end, *verbose)
	analysis := analyzeResults(results)

	printSummary(analysis)
	printFailures(analysis)

	if *outputFile != "" {
		saveResults(*outputFile, analysis)
	}

	if analysis.TotalFailed > 0 {
		os.Exit(1)
	}
}

// testAllDates fetches [start, end] in chunks of calendar.MaxRangeDays and
// checks each day against the one before it.
func testAllDates(client *http.Client, baseURL string, start, end time.Time, verbose bool) []TestResult {
	totalDays := lunar.DaysBetween(start, end) + 1
	fmt.Printf("Testing %d days...\n\n", totalDays)

	var (
		results      []TestResult
		prev         *calendar.Almanac
		lastProgress = -1
		failed       int
	)

	for chunkStart := start; !chunkStart.After(end); chunkStart = chunkStart.AddDate(0, 0, calendar.MaxRangeDays) {
		chunkEnd := chunkStart.AddDate(0, 0, calendar.MaxRangeDays-1)
		if chunkEnd.After(end) {
			chunkEnd = end
		}

		days, err := fetchRange(client, baseURL, chunkStart, chunkEnd)
		if err != nil {
			// Record every date in the failed chunk and restart the chain.
			for d := chunkStart; !d.After(chunkEnd); d = d.AddDate(0, 0, 1) {
				results = append(results, TestResult{Date: calendar.FormatDate(d), Error: err.Error()})
				failed++
			}
			prev = nil
			continue
		}

		for _, day := range days {
			result := TestResult{Date: day.Date, Label: day.Lunar.String(), Success: true}
			if err := checkDay(prev, day); err != nil {
				result.Success = false
				result.Error = err.Error()
				failed++
			}
			results = append(results, result)
			prev = day

			if verbose {
				status := "✓"
				if !result.Success {
					status = "✗"
				}
				fmt.Printf("  %s %s: %s %s\n", status, day.Date, result.Label, day.Highlight)
				if !result.Success {
					fmt.Printf("      Error: %s\n", result.Error)
				}
			}
		}

		// Show progress
		progress := (len(results) * 100) / totalDays
		if progress != lastProgress && progress%5 == 0 {
			fmt.Printf("  Progress: %d%% (%d/%d) - Failures: %d\n", progress, len(results), totalDays, failed)
			lastProgress = progress
		}
	}

	fmt.Println()
	return results
}

func fetchRange(client *http.Client, baseURL string, start, end time.Time) ([]*calendar.Almanac, error) {
	url := fmt.Sprintf("%s/api/v1/almanac/range?start=%s&end=%s",
		baseURL, calendar.FormatDate(start), calendar.FormatDate(end))
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("connection error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read error: %w", err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	if !apiResp.Success {
		errMsg := "unknown error"
		if apiResp.Error != nil {
			errMsg = apiResp.Error.Message
		}
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, errMsg)
	}

	var data RangeResponse
	if err := json.Unmarshal(apiResp.Data, &data); err != nil {
		return nil, fmt.Errorf("data parse error: %w", err)
	}

	want := lunar.DaysBetween(start, end) + 1
	if len(data.Days) != want {
		return nil, fmt.Errorf("expected %d days, got %d", want, len(data.Days))
	}
	return data.Days, nil
}

// checkDay verifies that cur is a valid successor of prev. A nil prev only
// checks cur on its own.
func checkDay(prev, cur *calendar.Almanac) error {
	c := cur.Lunar
	if c.Day < 1 || c.Day > 30 || c.Month < 1 || c.Month > 12 {
		return fmt.Errorf("impossible lunar date %d/%d", c.Month, c.Day)
	}
	if cur.Reminder != (c.Day == 1 || c.Day == 15) {
		return fmt.Errorf("reminder flag %v on lunar day %d", cur.Reminder, c.Day)
	}
	if cur.YearLabel != lunar.StemBranchYear(c.Year)+"年" {
		return fmt.Errorf("year label %s does not match lunar year %d", cur.YearLabel, c.Year)
	}
	if prev == nil {
		return nil
	}

	prevDate, err := calendar.ParseDateString(prev.Date)
	if err != nil {
		return err
	}
	curDate, err := calendar.ParseDateString(cur.Date)
	if err != nil {
		return err
	}
	if lunar.DaysBetween(prevDate, curDate) != 1 {
		return fmt.Errorf("gap after %s", prev.Date)
	}

	p := prev.Lunar
	if c.Day == p.Day+1 {
		if c.Year != p.Year || c.Month != p.Month || c.IsLeapMonth != p.IsLeapMonth {
			return fmt.Errorf("day advanced but month changed from %s", p.String())
		}
		return nil
	}

	if c.Day != 1 {
		return fmt.Errorf("day %d follows %s", c.Day, p.String())
	}
	if p.Day != 29 && p.Day != 30 {
		return fmt.Errorf("month ended after %d days at %s", p.Day, p.String())
	}

	switch {
	case c.Year == p.Year && c.Month == p.Month && c.IsLeapMonth && !p.IsLeapMonth:
		return nil // into the leap month
	case c.Year == p.Year && c.Month == p.Month+1 && !c.IsLeapMonth:
		return nil
	case c.Year == p.Year+1 && c.Month == 1 && !c.IsLeapMonth && p.Month == 12:
		return nil
	}
	return fmt.Errorf("%s does not follow %s", c.String(), p.String())
}

// Analysis holds the analyzed results
type Analysis struct {
	TotalDays    int
	TotalSuccess int
	TotalFailed  int
	ByYear       map[string]*YearStats
	AllFailures  []TestResult
}

func analyzeResults(results []TestResult) *Analysis {
	analysis := &Analysis{
		ByYear: make(map[string]*YearStats),
	}

	for _, r := range results {
		analysis.TotalDays++

		year := r.Date[:4]
		if _, ok := analysis.ByYear[year]; !ok {
			analysis.ByYear[year] = &YearStats{Year: year}
		}
		stats := analysis.ByYear[year]
		stats.TotalDays++

		if r.Success {
			analysis.TotalSuccess++
			stats.SuccessDays++
		} else {
			analysis.TotalFailed++
			stats.FailedDays++
			stats.FailedDates = append(stats.FailedDates, r.Date)
			analysis.AllFailures = append(analysis.AllFailures, r)
		}
	}

	return analysis
}

func (a *Analysis) successRate() float64 {
	if a.TotalDays == 0 {
		return 0
	}
	return float64(a.TotalSuccess) / float64(a.TotalDays) * 100
}

func printSummary(analysis *Analysis) {
	fmt.Println("================================================================")
	fmt.Println("SUMMARY")
	fmt.Println("================================================================")
	fmt.Printf("Total Days Tested: %d\n", analysis.TotalDays)
	fmt.Printf("Successful:        %d (%.1f%%)\n", analysis.TotalSuccess, analysis.successRate())
	fmt.Printf("Failed:            %d\n", analysis.TotalFailed)
	fmt.Println()

	years := make([]string, 0, len(analysis.ByYear))
	for y := range analysis.ByYear {
		years = append(years, y)
	}
	sort.Strings(years)

	fmt.Println("By Year:")
	for _, y := range years {
		stats := analysis.ByYear[y]
		status := "✓"
		if stats.FailedDays > 0 {
			status = "✗"
		}
		fmt.Printf("  %s %s: %d/%d days\n", status, y, stats.SuccessDays, stats.TotalDays)
	}
	fmt.Println()
}

func printFailures(analysis *Analysis) {
	if analysis.TotalFailed == 0 {
		fmt.Println("No failures! 🎉")
		return
	}

	fmt.Println("================================================================")
	fmt.Println("FAILURES (Date | Lunar | Error)")
	fmt.Println("================================================================")

	for i, f := range analysis.AllFailures {
		if i >= 50 {
			fmt.Printf("  ... and %d more\n", len(analysis.AllFailures)-50)
			break
		}
		fmt.Printf("  %s | %s | %s\n", f.Date, f.Label, f.Error)
	}
	fmt.Println()
}

func saveResults(filename string, analysis *Analysis) {
	output := struct {
		GeneratedAt string                `json:"generated_at"`
		Summary     map[string]any        `json:"summary"`
		ByYear      map[string]*YearStats `json:"by_year"`
		Failures    []TestResult          `json:"failures"`
	}{
		GeneratedAt: time.Now().Format(time.RFC3339),
		Summary: map[string]any{
			"total_days":    analysis.TotalDays,
			"total_success": analysis.TotalSuccess,
			"total_failed":  analysis.TotalFailed,
			"success_rate":  fmt.Sprintf("%.2f%%", analysis.successRate()),
		},
		ByYear:   analysis.ByYear,
		Failures: analysis.AllFailures,
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		fmt.Printf("Error marshaling results: %v\n", err)
		return
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		fmt.Printf("Error writing file: %v\n", err)
		return
	}

	fmt.Printf("Results saved to: %s\n", filename)
}
