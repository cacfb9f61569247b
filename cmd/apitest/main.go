// Command apitest runs a smoke test suite against a running almanac API.
//
// Usage:
//
//	go run ./cmd/apitest -url http://localhost:8080 -key $API_KEY
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// =============================================================================
// Response Types - Match the actual API response structure
// =============================================================================

type APIResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorInfo      `json:"error,omitempty"`
}

type ErrorInfo struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// HealthResponse is the response for /health
type HealthResponse struct {
	Status   string `json:"status"`
	Timezone string `json:"timezone"`
}

// LunarResponse is the response for /lunar/date/{date} and /lunar/today
type LunarResponse struct {
	Date    string `json:"date"`
	Weekday string `json:"weekday"`
	Label   string `json:"label"`
	Lunar   struct {
		Year        int    `json:"lunar_year"`
		Month       int    `json:"lunar_month"`
		Day         int    `json:"lunar_day"`
		IsLeapMonth bool   `json:"is_leap_month"`
		Zodiac      string `json:"zodiac"`
		SolarTerm   string `json:"solar_term"`
	} `json:"lunar"`
}

// AlmanacResponse is the response for /almanac/date/{date}
type AlmanacResponse struct {
	Date          string `json:"date"`
	YearLabel     string `json:"year_label"`
	DateLabel     string `json:"date_label"`
	Highlight     string `json:"highlight"`
	Suit          string `json:"suit"`
	Avoid         string `json:"avoid"`
	Reminder      bool   `json:"reminder"`
	ReminderLabel string `json:"reminder_label"`
}

// RangeResponse is the response for /almanac/range
type RangeResponse struct {
	Start string            `json:"start"`
	End   string            `json:"end"`
	Days  []AlmanacResponse `json:"days"`
}

// RecordResponse is a single prayer record
type RecordResponse struct {
	ID         string `json:"id"`
	SolarDate  string `json:"solar_date"`
	LunarLabel string `json:"lunar_label"`
	LotLevel   string `json:"lot_level"`
	LotColor   string `json:"lot_color"`
	Note       string `json:"note"`
}

// =============================================================================
// Test Runner
// =============================================================================

type TestRunner struct {
	baseURL      string
	apiKey       string
	client       *http.Client
	verbose      bool
	successCount int
	errorCount   int
	errors       []string
}

func NewTestRunner(baseURL, apiKey string, verbose bool) *TestRunner {
	return &TestRunner{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		verbose: verbose,
	}
}

func (tr *TestRunner) Run() {
	fmt.Println("==============================================")
	fmt.Println("Lunar Almanac API Test Suite")
	fmt.Println("==============================================")
	fmt.Printf("Base URL: %s\n", tr.baseURL)
	fmt.Println()

	// Run test groups
	tr.testHealth()
	tr.testKnownDates()
	tr.testConvert()
	tr.testAlmanac()
	tr.testEdgeCases()
	tr.testRecords()

	// Print summary
	tr.printSummary()
}

// =============================================================================
// Test Groups
// =============================================================================

func (tr *TestRunner) testHealth() {
	tr.printSection("Health Check")

	var health HealthResponse
	if err := tr.getData("/health", &health); err != nil {
		tr.recordError("Health", err.Error())
		return
	}

	if health.Status == "healthy" {
		tr.recordSuccess(fmt.Sprintf("Health check passed (timezone %s)", health.Timezone))
	} else {
		tr.recordError("Health", fmt.Sprintf("Unexpected status: %s", health.Status))
	}
}

func (tr *TestRunner) testKnownDates() {
	tr.printSection("Known Dates")

	testCases := []struct {
		date        string
		label       string
		description string
	}{
		{"1900-01-31", "庚子年正月初一", "First supported day"},
		{"1949-10-01", "己丑年八月初十", "Founding day 1949"},
		{"2000-02-05", "庚辰年正月初一", "Lunar New Year 2000"},
		{"2023-03-22", "癸卯年闰二月初一", "Leap second month"},
		{"2024-02-09", "癸卯年腊月三十", "New Year's Eve 2024"},
		{"2024-02-10", "甲辰年正月初一", "Lunar New Year 2024"},
		{"2025-01-29", "乙巳年正月初一", "Lunar New Year 2025"},
		{"2025-07-25", "乙巳年闰六月初一", "Leap sixth month"},
		{"2050-01-22", "己巳年腊月廿九", "Last supported day"},
	}

	for _, tc := range testCases {
		var data LunarResponse
		if err := tr.getData("/api/v1/lunar/date/"+tc.date, &data); err != nil {
			tr.recordError(tc.date, err.Error())
			continue
		}

		if data.Label == tc.label {
			tr.recordSuccess(fmt.Sprintf("%s: %s (%s)", tc.date, data.Label, tc.description))
		} else {
			tr.recordError(tc.date, fmt.Sprintf("Expected '%s', got '%s'", tc.label, data.Label))
		}
	}

	var today LunarResponse
	if err := tr.getData("/api/v1/lunar/today", &today); err != nil {
		tr.recordError("Today", err.Error())
	} else {
		tr.recordSuccess(fmt.Sprintf("Today (%s %s): %s", today.Date, today.Weekday, today.Label))
	}
}

func (tr *TestRunner) testConvert() {
	tr.printSection("Triple Conversion")

	var data LunarResponse
	if err := tr.getData("/api/v1/lunar/convert?year=2024&month=2&day=4", &data); err != nil {
		tr.recordError("Convert", err.Error())
		return
	}

	if data.Lunar.SolarTerm == "立春" {
		tr.recordSuccess("2024-02-04 is 立春")
	} else {
		tr.recordError("Convert", fmt.Sprintf("Expected 立春, got '%s'", data.Lunar.SolarTerm))
	}

	tr.expectStatus("February 30 rejected", "/api/v1/lunar/convert?year=2024&month=2&day=30", http.StatusBadRequest)
	tr.expectStatus("Year 1899 out of range", "/api/v1/lunar/convert?year=1899&month=6&day=1", http.StatusUnprocessableEntity)
}

func (tr *TestRunner) testAlmanac() {
	tr.printSection("Almanac")

	var a AlmanacResponse
	if err := tr.getData("/api/v1/almanac/date/2024-02-10", &a); err != nil {
		tr.recordError("Almanac", err.Error())
	} else if a.Suit == "纳采" && a.Avoid == "纳畜" && a.Reminder {
		tr.recordSuccess(fmt.Sprintf("2024-02-10: 宜%s 忌%s, reminder %s", a.Suit, a.Avoid, a.ReminderLabel))
	} else {
		tr.recordError("Almanac", fmt.Sprintf("Unexpected card: %+v", a))
	}

	var rangeData RangeResponse
	if err := tr.getData("/api/v1/almanac/range?start=2024-02-01&end=2024-02-29", &rangeData); err != nil {
		tr.recordError("Range (month)", err.Error())
	} else if len(rangeData.Days) == 29 {
		tr.recordSuccess(fmt.Sprintf("Month range returned %d days", len(rangeData.Days)))
		if tr.verbose {
			for _, d := range rangeData.Days {
				fmt.Printf("    %s %s %s 宜%s 忌%s\n", d.Date, d.DateLabel, d.Highlight, d.Suit, d.Avoid)
			}
		}
	} else {
		tr.recordError("Range (month)", fmt.Sprintf("Expected 29 days, got %d", len(rangeData.Days)))
	}

	tr.expectStatus("Range limit enforced (>90 days rejected)", "/api/v1/almanac/range?start=2025-01-01&end=2025-12-31", http.StatusBadRequest)
	tr.expectStatus("Invalid range rejected (end before start)", "/api/v1/almanac/range?start=2025-12-31&end=2025-01-01", http.StatusBadRequest)
}

func (tr *TestRunner) testEdgeCases() {
	tr.printSection("Edge Cases")

	tr.expectStatus("Invalid date format rejected", "/api/v1/lunar/date/invalid", http.StatusBadRequest)
	tr.expectStatus("Day before epoch out of range", "/api/v1/lunar/date/1900-01-30", http.StatusUnprocessableEntity)
	tr.expectStatus("Day after lunar 2049 out of range", "/api/v1/lunar/date/2050-01-23", http.StatusUnprocessableEntity)
	tr.expectStatus("Missing end parameter rejected", "/api/v1/almanac/range?start=2025-01-01", http.StatusBadRequest)
}

func (tr *TestRunner) testRecords() {
	tr.printSection("Prayer Records")

	body := map[string]string{
		"category_id": "apitest",
		"deity_id":    "guanyin",
		"lot_number":  "1",
		"lot_level":   "上上签",
		"wish":        "apitest smoke record",
	}

	resp, err := tr.send("POST", "/api/v1/records", body)
	if err != nil {
		tr.recordError("Create", err.Error())
		return
	}
	if resp.StatusCode != http.StatusCreated {
		tr.recordError("Create", fmt.Sprintf("HTTP %d (is -key set?)", resp.StatusCode))
		resp.Body.Close()
		return
	}

	var record RecordResponse
	err = tr.decode(resp, &record)
	if err != nil {
		tr.recordError("Create", err.Error())
		return
	}
	tr.recordSuccess(fmt.Sprintf("Created %s on %s (%s)", record.ID, record.SolarDate, record.LunarLabel))

	var fetched RecordResponse
	if err := tr.getData("/api/v1/records/"+record.ID, &fetched); err != nil {
		tr.recordError("Get", err.Error())
	} else {
		tr.recordSuccess(fmt.Sprintf("Fetched record, color %s", fetched.LotColor))
	}

	if resp, err := tr.send("PATCH", "/api/v1/records/"+record.ID, map[string]string{"note": "apitest note"}); err != nil {
		tr.recordError("Note", err.Error())
	} else {
		var noted RecordResponse
		if err := tr.decode(resp, &noted); err != nil {
			tr.recordError("Note", err.Error())
		} else if noted.Note != "apitest note" {
			tr.recordError("Note", fmt.Sprintf("note = %q", noted.Note))
		} else {
			tr.recordSuccess("Updated note")
		}
	}

	tr.expectStatus("Export", "/api/v1/records/export", http.StatusOK)

	if resp, err := tr.send("DELETE", "/api/v1/records/"+record.ID, nil); err != nil {
		tr.recordError("Delete", err.Error())
	} else {
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			tr.recordSuccess("Deleted smoke record")
		} else {
			tr.recordError("Delete", fmt.Sprintf("HTTP %d", resp.StatusCode))
		}
	}

	tr.expectStatus("Deleted record is gone", "/api/v1/records/"+record.ID, http.StatusNotFound)
}

// =============================================================================
// Helper Methods
// =============================================================================

// getData fetches path and decodes the envelope's data into target.
func (tr *TestRunner) getData(path string, target interface{}) error {
	resp, err := tr.client.Get(tr.baseURL + path)
	if err != nil {
		return err
	}
	return tr.decode(resp, target)
}

// decode reads an envelope, failing on success=false.
func (tr *TestRunner) decode(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read error: %w", err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return fmt.Errorf("parse error: %w", err)
	}

	if !apiResp.Success {
		errMsg := "unknown error"
		if apiResp.Error != nil {
			errMsg = apiResp.Error.Message
		}
		return fmt.Errorf("API error (HTTP %d): %s", resp.StatusCode, errMsg)
	}

	return json.Unmarshal(apiResp.Data, target)
}

// send issues an authenticated request with an optional JSON body.
func (tr *TestRunner) send(method, path string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, tr.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if tr.apiKey != "" {
		req.Header.Set("X-API-Key", tr.apiKey)
	}
	return tr.client.Do(req)
}

func (tr *TestRunner) expectStatus(name, path string, want int) {
	resp, err := tr.client.Get(tr.baseURL + path)
	if err != nil {
		tr.recordError(name, err.Error())
		return
	}
	resp.Body.Close()

	if resp.StatusCode == want {
		tr.recordSuccess(name)
	} else {
		tr.recordError(name, fmt.Sprintf("Expected HTTP %d, got %d", want, resp.StatusCode))
	}
}

func (tr *TestRunner) printSection(name string) {
	fmt.Println()
	fmt.Printf("--- %s ---\n", name)
	fmt.Println()
}

func (tr *TestRunner) recordSuccess(msg string) {
	tr.successCount++
	fmt.Printf("  ✓ %s\n", msg)
}

func (tr *TestRunner) recordError(context, msg string) {
	tr.errorCount++
	errStr := fmt.Sprintf("%s: %s", context, msg)
	tr.errors = append(tr.errors, errStr)
	fmt.Printf("  ✗ %s\n", errStr)
}

func (tr *TestRunner) printSummary() {
	fmt.Println()
	fmt.Println("==============================================")
	fmt.Println("Summary")
	fmt.Println("==============================================")
	fmt.Printf("  Passed: %d\n", tr.successCount)
	fmt.Printf("  Failed: %d\n", tr.errorCount)
	fmt.Println()

	if tr.errorCount > 0 {
		fmt.Println("Failures:")
		for _, err := range tr.errors {
			fmt.Printf("  • %s\n", err)
		}
		fmt.Println()
	}

	if tr.errorCount == 0 {
		fmt.Println("All tests passed! ✓")
	} else {
		fmt.Printf("Tests completed with %d failure(s)\n", tr.errorCount)
	}
}

// =============================================================================
// Main
// =============================================================================

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Base URL of the API")
	apiKey := flag.String("key", os.Getenv("API_KEY"), "API key for record mutations")
	verbose := flag.Bool("v", false, "Verbose output (show range details)")
	flag.Parse()

	// Check if server is reachable
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(*baseURL + "/health")
	if err != nil {
		fmt.Printf("Error: Cannot connect to %s\n", *baseURL)
		fmt.Println("Make sure the API server is running.")
		os.Exit(1)
	}
	resp.Body.Close()

	runner := NewTestRunner(*baseURL, *apiKey, *verbose)
	runner.Run()

	// Exit with error code if tests failed
	if runner.errorCount > 0 {
		os.Exit(1)
	}
}
