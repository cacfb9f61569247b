package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapponejosh/lunar-almanac/internal/calendar"
	"github.com/zapponejosh/lunar-almanac/internal/config"
	"github.com/zapponejosh/lunar-almanac/internal/database"
	"github.com/zapponejosh/lunar-almanac/internal/logger"
	"github.com/zapponejosh/lunar-almanac/internal/lunar"
)

// =============================================================================
// TEST SETUP HELPERS
// =============================================================================

const testAPIKey = "test-key-for-record-mutations"

// testEnv sets up a complete test environment with database, config, and router
type testEnv struct {
	db     *database.DB
	cfg    *config.Config
	router http.Handler
}

// setupTest creates a fresh test environment
func setupTest(t *testing.T) *testEnv {
	t.Helper()

	dbCfg := database.Config{
		Path:            ":memory:",
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
	}

	log := logger.Discard()

	db, err := database.Open(dbCfg, log)
	require.NoError(t, err, "open test database")

	_, err = db.Migrate(context.Background())
	require.NoError(t, err, "migrate test database")

	cfg := &config.Config{
		Port:         8080,
		Env:          config.EnvDevelopment,
		DatabasePath: ":memory:",
		APIKey:       testAPIKey,
		LogLevel:     "error",
		LogFormat:    "text",
		Timezone:     config.DefaultTimezone,
	}
	require.NoError(t, cfg.Validate())

	handlers := NewHandlers(db, lunar.New(), cfg, log)

	t.Cleanup(func() {
		db.Close()
	})

	return &testEnv{
		db:     db,
		cfg:    cfg,
		router: SetupRoutes(handlers, cfg, log),
	}
}

// do sends a request through the full router.
func (env *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	return rr
}

// makeRequest is a helper to make HTTP requests with optional API key
func makeRequest(method, path string, body interface{}, apiKey string) *http.Request {
	var bodyReader io.Reader
	if body != nil {
		jsonData, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(jsonData)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	req.Header.Set("Content-Type", "application/json")

	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	return req
}

// envelope mirrors Response with the payload left raw.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *ErrorInfo      `json:"error"`
}

// parseResponse decodes the envelope and, if v is non-nil, its data.
func parseResponse(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env), "decode response")
	if v != nil {
		require.NoError(t, json.Unmarshal(env.Data, v), "decode data: %s", env.Data)
	}
	return env
}

// requireError asserts the status and error code of a failed response.
func requireError(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) {
	t.Helper()

	require.Equal(t, status, rr.Code, "body: %s", rr.Body.String())
	resp := parseResponse(t, rr, nil)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, code, resp.Error.Code)
}

func (env *testEnv) createRecord(t *testing.T, body map[string]string) RecordView {
	t.Helper()

	rr := env.do(makeRequest("POST", "/api/v1/records", body, testAPIKey))
	require.Equal(t, http.StatusCreated, rr.Code, "body: %s", rr.Body.String())

	var view RecordView
	parseResponse(t, rr, &view)
	return view
}

// =============================================================================
// MIDDLEWARE TESTS
// =============================================================================

func TestAuthMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name   string
		cfg    *config.Config
		key    string
		status int
	}{
		{"valid key", &config.Config{Env: config.EnvProduction, APIKey: "secret"}, "secret", http.StatusOK},
		{"missing key", &config.Config{Env: config.EnvProduction, APIKey: "secret"}, "", http.StatusUnauthorized},
		{"wrong key", &config.Config{Env: config.EnvProduction, APIKey: "secret"}, "guess", http.StatusUnauthorized},
		{"development without key", &config.Config{Env: config.EnvDevelopment}, "", http.StatusOK},
		{"staging without key", &config.Config{Env: config.EnvStaging}, "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := AuthMiddleware(tt.cfg, logger.Discard())(ok)

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, makeRequest("POST", "/test", nil, tt.key))

			assert.Equal(t, tt.status, rr.Code)
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	env := setupTest(t)

	rr := env.do(makeRequest("GET", "/health", nil, ""))
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"), "generated request ID")

	req := makeRequest("GET", "/health", nil, "")
	req.Header.Set("X-Request-ID", "client-id-1")
	rr = env.do(req)
	assert.Equal(t, "client-id-1", rr.Header().Get("X-Request-ID"))
}

func TestCORSPreflight(t *testing.T) {
	env := setupTest(t)

	rr := env.do(makeRequest("OPTIONS", "/api/v1/records", nil, ""))
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := RecoveryMiddleware(logger.Discard())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}),
	)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, makeRequest("GET", "/", nil, ""))

	requireError(t, rr, http.StatusInternalServerError, "INTERNAL_ERROR")
}

func TestUnknownRoute(t *testing.T) {
	env := setupTest(t)

	rr := env.do(makeRequest("GET", "/api/v1/nope", nil, ""))
	requireError(t, rr, http.StatusNotFound, "NOT_FOUND")
}

// =============================================================================
// HEALTH
// =============================================================================

func TestHealthCheck(t *testing.T) {
	env := setupTest(t)

	env.createRecord(t, map[string]string{"deity_id": "guanyin", "lot_number": "1", "lot_level": "上签"})

	rr := env.do(makeRequest("GET", "/health", nil, ""))
	require.Equal(t, http.StatusOK, rr.Code)

	var data HealthView
	resp := parseResponse(t, rr, &data)
	assert.True(t, resp.Success)
	assert.Equal(t, "healthy", data.Status)
	assert.Equal(t, "Asia/Shanghai", data.Timezone)
	assert.Equal(t, 2, data.SchemaVersion)
	assert.Equal(t, 1, data.Records)
}

// =============================================================================
// LUNAR ENDPOINTS
// =============================================================================

func TestGetLunarDate(t *testing.T) {
	env := setupTest(t)

	rr := env.do(makeRequest("GET", "/api/v1/lunar/date/2024-02-10", nil, ""))
	require.Equal(t, http.StatusOK, rr.Code, "body: %s", rr.Body.String())

	var view LunarView
	parseResponse(t, rr, &view)
	assert.Equal(t, "2024-02-10", view.Date)
	assert.Equal(t, "星期六", view.Weekday)
	assert.Equal(t, "甲辰年正月初一", view.Label)
	assert.Equal(t, 2024, view.Lunar.Year)
	assert.Equal(t, 1, view.Lunar.Month)
	assert.Equal(t, 1, view.Lunar.Day)
	assert.Equal(t, "龙", view.Lunar.Zodiac)
}

func TestGetLunarDate_Errors(t *testing.T) {
	env := setupTest(t)

	tests := []struct {
		name   string
		path   string
		status int
		code   string
	}{
		{"malformed", "/api/v1/lunar/date/2024-2-10", http.StatusBadRequest, "BAD_REQUEST"},
		{"impossible date", "/api/v1/lunar/date/2024-13-01", http.StatusBadRequest, "BAD_REQUEST"},
		{"before epoch", "/api/v1/lunar/date/1900-01-30", http.StatusUnprocessableEntity, "OUT_OF_RANGE"},
		{"after last lunar year", "/api/v1/lunar/date/2050-01-23", http.StatusUnprocessableEntity, "OUT_OF_RANGE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(makeRequest("GET", tt.path, nil, ""))
			requireError(t, rr, tt.status, tt.code)
		})
	}
}

func TestGetLunarDate_LastSupportedDay(t *testing.T) {
	env := setupTest(t)

	rr := env.do(makeRequest("GET", "/api/v1/lunar/date/2050-01-22", nil, ""))
	require.Equal(t, http.StatusOK, rr.Code)

	var view LunarView
	parseResponse(t, rr, &view)
	assert.Equal(t, 2049, view.Lunar.Year)
	assert.Equal(t, 12, view.Lunar.Month)
	assert.Equal(t, 29, view.Lunar.Day)
}

func TestGetLunarToday(t *testing.T) {
	env := setupTest(t)

	rr := env.do(makeRequest("GET", "/api/v1/lunar/today", nil, ""))
	require.Equal(t, http.StatusOK, rr.Code, "body: %s", rr.Body.String())

	var view LunarView
	parseResponse(t, rr, &view)

	// The day may roll over between the request and this check.
	today := calendar.FormatDate(env.cfg.Now())
	yesterday := calendar.FormatDate(env.cfg.Now().AddDate(0, 0, -1))
	assert.Contains(t, []string{today, yesterday}, view.Date)
	assert.NotEmpty(t, view.Label)
}

func TestConvertLunar(t *testing.T) {
	env := setupTest(t)

	rr := env.do(makeRequest("GET", "/api/v1/lunar/convert?year=2023&month=3&day=22", nil, ""))
	require.Equal(t, http.StatusOK, rr.Code, "body: %s", rr.Body.String())

	var view LunarView
	parseResponse(t, rr, &view)
	assert.Equal(t, "2023-03-22", view.Date)
	assert.True(t, view.Lunar.IsLeapMonth)
	assert.Equal(t, "闰二月", view.Lunar.MonthLabel)
	assert.Equal(t, "初一", view.Lunar.DayLabel)
}

func TestConvertLunar_Errors(t *testing.T) {
	env := setupTest(t)

	tests := []struct {
		name   string
		query  string
		status int
		code   string
	}{
		{"missing day", "year=2024&month=2", http.StatusBadRequest, "BAD_REQUEST"},
		{"non-numeric", "year=2024&month=two&day=1", http.StatusBadRequest, "BAD_REQUEST"},
		{"february 30", "year=2024&month=2&day=30", http.StatusBadRequest, "BAD_REQUEST"},
		{"month 0", "year=2024&month=0&day=1", http.StatusBadRequest, "BAD_REQUEST"},
		{"year 1899", "year=1899&month=6&day=1", http.StatusUnprocessableEntity, "OUT_OF_RANGE"},
		{"year 2051", "year=2051&month=1&day=1", http.StatusUnprocessableEntity, "OUT_OF_RANGE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(makeRequest("GET", "/api/v1/lunar/convert?"+tt.query, nil, ""))
			requireError(t, rr, tt.status, tt.code)
		})
	}
}

// =============================================================================
// ALMANAC ENDPOINTS
// =============================================================================

func TestGetAlmanacDate(t *testing.T) {
	env := setupTest(t)

	rr := env.do(makeRequest("GET", "/api/v1/almanac/date/2024-02-10", nil, ""))
	require.Equal(t, http.StatusOK, rr.Code, "body: %s", rr.Body.String())

	var a calendar.Almanac
	parseResponse(t, rr, &a)
	assert.Equal(t, "2024-02-10", a.Date)
	assert.Equal(t, "甲辰年", a.YearLabel)
	assert.Equal(t, "正月初一", a.DateLabel)
	assert.Equal(t, "纳采", a.Suit)
	assert.Equal(t, "纳畜", a.Avoid)
	assert.True(t, a.Reminder)
	assert.Equal(t, "初一", a.ReminderLabel)
}

func TestGetAlmanacDate_SolarTermHighlight(t *testing.T) {
	env := setupTest(t)

	rr := env.do(makeRequest("GET", "/api/v1/almanac/date/2024-02-04", nil, ""))
	require.Equal(t, http.StatusOK, rr.Code)

	var a calendar.Almanac
	parseResponse(t, rr, &a)
	assert.Equal(t, "立春", a.Highlight)
	assert.False(t, a.Reminder)
}

func TestGetAlmanacToday(t *testing.T) {
	env := setupTest(t)

	rr := env.do(makeRequest("GET", "/api/v1/almanac/today", nil, ""))
	require.Equal(t, http.StatusOK, rr.Code, "body: %s", rr.Body.String())

	var a calendar.Almanac
	parseResponse(t, rr, &a)
	assert.NotEmpty(t, a.Suit)
	assert.NotEmpty(t, a.Avoid)
}

func TestGetAlmanacRange(t *testing.T) {
	env := setupTest(t)

	rr := env.do(makeRequest("GET", "/api/v1/almanac/range?start=2024-02-01&end=2024-02-10", nil, ""))
	require.Equal(t, http.StatusOK, rr.Code, "body: %s", rr.Body.String())

	var data struct {
		Start string              `json:"start"`
		End   string              `json:"end"`
		Days  []calendar.Almanac `json:"days"`
	}
	parseResponse(t, rr, &data)
	require.Len(t, data.Days, 10)
	assert.Equal(t, "2024-02-01", data.Days[0].Date)
	assert.Equal(t, "2024-02-10", data.Days[9].Date)
}

func TestGetAlmanacRange_Errors(t *testing.T) {
	env := setupTest(t)

	tests := []struct {
		name   string
		query  string
		status int
		code   string
	}{
		{"missing end", "start=2024-02-01", http.StatusBadRequest, "BAD_REQUEST"},
		{"bad start", "start=20240201&end=2024-02-10", http.StatusBadRequest, "BAD_REQUEST"},
		{"reversed", "start=2024-02-10&end=2024-02-01", http.StatusBadRequest, "BAD_REQUEST"},
		{"too long", "start=2024-01-01&end=2024-12-31", http.StatusBadRequest, "BAD_REQUEST"},
		{"runs past 2049", "start=2050-01-20&end=2050-01-25", http.StatusUnprocessableEntity, "OUT_OF_RANGE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(makeRequest("GET", "/api/v1/almanac/range?"+tt.query, nil, ""))
			requireError(t, rr, tt.status, tt.code)
		})
	}
}

// =============================================================================
// RECORD ENDPOINTS
// =============================================================================

func TestCreateRecord(t *testing.T) {
	env := setupTest(t)

	view := env.createRecord(t, map[string]string{
		"category_id": "health",
		"deity_id":    "guanyin",
		"lot_number":  "第一签",
		"lot_level":   "上上签",
		"wish":        "family health",
	})

	assert.NotEmpty(t, view.ID)
	assert.Equal(t, "guanyin", view.DeityID)
	assert.Equal(t, "#D4AF37", view.LotColor)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, view.SolarDate)
	assert.Contains(t, view.LunarLabel, "年")

	// The stamped label matches a fresh conversion of the stamped date.
	date, err := calendar.ParseDateString(view.SolarDate)
	require.NoError(t, err)
	ld, err := lunar.New().FromTime(date)
	require.NoError(t, err)
	assert.Equal(t, ld.String(), view.LunarLabel)
}

func TestCreateRecord_Errors(t *testing.T) {
	env := setupTest(t)

	valid := map[string]string{"deity_id": "guanyin", "lot_number": "1", "lot_level": "中签"}

	t.Run("no api key", func(t *testing.T) {
		rr := env.do(makeRequest("POST", "/api/v1/records", valid, ""))
		requireError(t, rr, http.StatusUnauthorized, "UNAUTHORIZED")
	})

	t.Run("missing fields", func(t *testing.T) {
		rr := env.do(makeRequest("POST", "/api/v1/records", map[string]string{"wish": "x"}, testAPIKey))
		requireError(t, rr, http.StatusBadRequest, "BAD_REQUEST")
	})

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/v1/records", strings.NewReader("{"))
		req.Header.Set("X-API-Key", testAPIKey)
		rr := env.do(req)
		requireError(t, rr, http.StatusBadRequest, "BAD_REQUEST")
	})
}

func TestListRecords(t *testing.T) {
	env := setupTest(t)

	first := env.createRecord(t, map[string]string{"category_id": "health", "deity_id": "guanyin", "deity_name": "观音菩萨", "lot_number": "1", "lot_level": "上签", "wish": "Recovery"})
	env.createRecord(t, map[string]string{"category_id": "career", "deity_id": "wenchang", "deity_name": "文昌帝君", "lot_number": "2", "lot_level": "下签", "wish": "exam"})

	rr := env.do(makeRequest("POST", "/api/v1/records/"+first.ID+"/favorite", nil, testAPIKey))
	require.Equal(t, http.StatusOK, rr.Code, "body: %s", rr.Body.String())

	today := env.cfg.Now()
	todayStr := today.Format("2006-01-02")
	tomorrowStr := today.AddDate(0, 0, 1).Format("2006-01-02")

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"all newest first", "", []string{"2", "1"}},
		{"by category", "?category=health", []string{"1"}},
		{"search", "?q=RECOVERY", []string{"1"}},
		{"limit", "?limit=1", []string{"2"}},
		{"offset", "?offset=1", []string{"1"}},
		{"by deity", "?deity=wenchang", []string{"2"}},
		{"search deity name", "?q=%E6%96%87%E6%98%8C", []string{"2"}}, // 文昌
		{"favorites", "?favorites=true", []string{"1"}},
		{"favorites off", "?favorites=false", []string{"2", "1"}},
		{"today inclusive", "?since=" + todayStr + "&until=" + todayStr, []string{"2", "1"}},
		{"since tomorrow", "?since=" + tomorrowStr, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(makeRequest("GET", "/api/v1/records"+tt.query, nil, ""))
			require.Equal(t, http.StatusOK, rr.Code, "body: %s", rr.Body.String())

			var data struct {
				Records []RecordView `json:"records"`
			}
			parseResponse(t, rr, &data)

			got := make([]string, 0, len(data.Records))
			for _, r := range data.Records {
				got = append(got, r.LotNumber)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestListRecords_Limit(t *testing.T) {
	env := setupTest(t)
	env.createRecord(t, map[string]string{"deity_id": "guanyin", "lot_number": "1", "lot_level": "上签"})

	tests := []struct {
		query string
		limit int
	}{
		{"", 50},
		{"?limit=10", 10},
		{"?limit=500", database.MaxRecords},
		{"?limit=0", 50},
		{"?limit=abc", 50},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rr := env.do(makeRequest("GET", "/api/v1/records"+tt.query, nil, ""))
			require.Equal(t, http.StatusOK, rr.Code, "body: %s", rr.Body.String())

			var data struct {
				Records []RecordView `json:"records"`
				Limit   int          `json:"limit"`
			}
			parseResponse(t, rr, &data)
			assert.Equal(t, tt.limit, data.Limit)
			assert.Len(t, data.Records, 1)
		})
	}
}

func TestListRecords_BadFilters(t *testing.T) {
	env := setupTest(t)

	for _, query := range []string{"?since=2024-13-01", "?until=yesterday", "?favorites=maybe"} {
		t.Run(query, func(t *testing.T) {
			rr := env.do(makeRequest("GET", "/api/v1/records"+query, nil, ""))
			requireError(t, rr, http.StatusBadRequest, "BAD_REQUEST")
		})
	}
}

func TestUpdateRecord(t *testing.T) {
	env := setupTest(t)

	created := env.createRecord(t, map[string]string{"deity_id": "guanyin", "lot_number": "3", "lot_level": "上签"})
	path := "/api/v1/records/" + created.ID
	assert.False(t, created.IsFavorite)
	assert.Nil(t, created.UpdatedAt)

	rr := env.do(makeRequest("PATCH", path, map[string]string{"note": "已还愿"}, ""))
	requireError(t, rr, http.StatusUnauthorized, "UNAUTHORIZED")

	rr = env.do(makeRequest("PATCH", path, map[string]string{"note": "已还愿"}, testAPIKey))
	require.Equal(t, http.StatusOK, rr.Code, "body: %s", rr.Body.String())
	var got RecordView
	parseResponse(t, rr, &got)
	assert.Equal(t, "已还愿", got.Note)
	assert.NotNil(t, got.UpdatedAt)
	assert.False(t, got.IsFavorite)

	rr = env.do(makeRequest("PATCH", path, map[string]bool{"is_favorite": true}, testAPIKey))
	require.Equal(t, http.StatusOK, rr.Code, "body: %s", rr.Body.String())
	got = RecordView{}
	parseResponse(t, rr, &got)
	assert.True(t, got.IsFavorite)
	assert.Equal(t, "已还愿", got.Note)

	rr = env.do(makeRequest("PATCH", path, map[string]string{}, testAPIKey))
	requireError(t, rr, http.StatusBadRequest, "BAD_REQUEST")

	rr = env.do(makeRequest("PATCH", "/api/v1/records/missing", map[string]string{"note": "x"}, testAPIKey))
	requireError(t, rr, http.StatusNotFound, "NOT_FOUND")
}

func TestToggleFavorite(t *testing.T) {
	env := setupTest(t)

	created := env.createRecord(t, map[string]string{"deity_id": "guanyin", "lot_number": "3", "lot_level": "上签"})
	path := "/api/v1/records/" + created.ID + "/favorite"

	for _, want := range []bool{true, false} {
		rr := env.do(makeRequest("POST", path, nil, testAPIKey))
		require.Equal(t, http.StatusOK, rr.Code, "body: %s", rr.Body.String())
		var got RecordView
		parseResponse(t, rr, &got)
		assert.Equal(t, want, got.IsFavorite)
		assert.Nil(t, got.UpdatedAt)
	}

	rr := env.do(makeRequest("POST", "/api/v1/records/missing/favorite", nil, testAPIKey))
	requireError(t, rr, http.StatusNotFound, "NOT_FOUND")
}

func TestExportRecords(t *testing.T) {
	env := setupTest(t)

	env.createRecord(t, map[string]string{
		"category_id": "health", "category_name": "健康",
		"deity_id": "guanyin", "deity_name": "观音菩萨",
		"lot_number": "1", "lot_level": "上上签", "lot_title": "第一签", "wish": "平安",
	})
	env.createRecord(t, map[string]string{"deity_id": "wenchang", "lot_number": "2", "lot_level": "中签"})

	rr := env.do(makeRequest("GET", "/api/v1/records/export", nil, ""))
	require.Equal(t, http.StatusOK, rr.Code, "body: %s", rr.Body.String())
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, rr.Header().Get("Content-Disposition"), ".json")

	var exported []database.ExportRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &exported), "export is a bare array")
	require.Len(t, exported, 2)

	assert.Equal(t, "wenchang", exported[0].DeityID, "newest first")
	got := exported[1]
	assert.Equal(t, "health", got.CategoryID)
	assert.Equal(t, "健康", got.CategoryName)
	assert.Equal(t, "观音菩萨", got.DeityName)
	assert.Equal(t, "平安", got.Wish)
	assert.Equal(t, "1", got.Fortune.Number)
	assert.Equal(t, "上上签", got.Fortune.Level)
	assert.Equal(t, "第一签", got.Fortune.Title)

	_, err := time.Parse(time.RFC3339, got.Timestamp)
	assert.NoError(t, err, "timestamp %q", got.Timestamp)
}

func TestGetAndDeleteRecord(t *testing.T) {
	env := setupTest(t)

	created := env.createRecord(t, map[string]string{"deity_id": "caishen", "lot_number": "8", "lot_level": "中签"})
	path := "/api/v1/records/" + created.ID

	rr := env.do(makeRequest("GET", path, nil, ""))
	require.Equal(t, http.StatusOK, rr.Code)
	var got RecordView
	parseResponse(t, rr, &got)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "#87CEEB", got.LotColor)

	rr = env.do(makeRequest("DELETE", path, nil, ""))
	requireError(t, rr, http.StatusUnauthorized, "UNAUTHORIZED")

	rr = env.do(makeRequest("DELETE", path, nil, testAPIKey))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(makeRequest("GET", path, nil, ""))
	requireError(t, rr, http.StatusNotFound, "NOT_FOUND")

	rr = env.do(makeRequest("DELETE", path, nil, testAPIKey))
	requireError(t, rr, http.StatusNotFound, "NOT_FOUND")
}

func TestRecordStatsAndClear(t *testing.T) {
	env := setupTest(t)

	for _, level := range []string{"上上签", "上签", "中签", "下签", "上签"} {
		env.createRecord(t, map[string]string{"deity_id": "guanyin", "lot_number": "1", "lot_level": level})
	}

	rr := env.do(makeRequest("GET", "/api/v1/records/stats", nil, ""))
	require.Equal(t, http.StatusOK, rr.Code)

	var stats database.RecordStats
	parseResponse(t, rr, &stats)
	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 3, stats.Top)
	assert.Equal(t, 2, stats.ByLevel["上签"])
	assert.Equal(t, map[string]int{"guanyin": 5}, stats.ByDeity)
	assert.Equal(t, map[string]int{database.UnknownCategory: 5}, stats.ByCategory)
	assert.Equal(t, "guanyin", stats.MostPrayedDeity)
	assert.NotNil(t, stats.LastPrayedAt)

	rr = env.do(makeRequest("DELETE", "/api/v1/records", nil, testAPIKey))
	require.Equal(t, http.StatusOK, rr.Code)
	var cleared struct {
		Deleted int `json:"deleted"`
	}
	parseResponse(t, rr, &cleared)
	assert.Equal(t, 5, cleared.Deleted)

	rr = env.do(makeRequest("GET", "/api/v1/records/stats", nil, ""))
	parseResponse(t, rr, &stats)
	assert.Equal(t, 0, stats.Total)
}
