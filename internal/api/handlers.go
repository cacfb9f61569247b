package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zapponejosh/lunar-almanac/internal/calendar"
	"github.com/zapponejosh/lunar-almanac/internal/config"
	"github.com/zapponejosh/lunar-almanac/internal/database"
	"github.com/zapponejosh/lunar-almanac/internal/logger"
	"github.com/zapponejosh/lunar-almanac/internal/lunar"
)

// Handlers contains all HTTP handlers and their dependencies.
type Handlers struct {
	db      *database.DB
	conv    *lunar.Converter
	almanac *calendar.AlmanacBuilder
	cfg     *config.Config
	logger  *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *database.DB, conv *lunar.Converter, cfg *config.Config, log *slog.Logger) *Handlers {
	return &Handlers{
		db:      db,
		conv:    conv,
		almanac: calendar.NewAlmanacBuilder(conv),
		cfg:     cfg,
		logger:  log,
	}
}

// LunarView is the payload of the lunar endpoints.
type LunarView struct {
	Date    string          `json:"date"` // YYYY-MM-DD
	Weekday string          `json:"weekday"`
	Label   string          `json:"label"` // e.g. "甲辰年正月初一"
	Lunar   lunar.LunarDate `json:"lunar"`
}

func newLunarView(t time.Time, ld lunar.LunarDate) LunarView {
	return LunarView{
		Date:    calendar.FormatDate(t),
		Weekday: calendar.WeekdayName(t),
		Label:   ld.String(),
		Lunar:   ld,
	}
}

// RecordView adds presentation fields to a stored record.
type RecordView struct {
	*database.PrayerRecord
	LotColor string `json:"lot_color"`
}

func newRecordView(r *database.PrayerRecord) RecordView {
	return RecordView{PrayerRecord: r, LotColor: r.LotLevel.Color()}
}

// HealthView is the /health payload.
type HealthView struct {
	Status        string `json:"status"`
	Timezone      string `json:"timezone"`
	SchemaVersion int    `json:"schema_version"`
	Records       int    `json:"records"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report, err := h.db.Health(r.Context())
	if err != nil {
		h.log(r.Context()).Warn("health check failed", slog.Any("error", err))
		WriteError(w, http.StatusServiceUnavailable, "Database unhealthy", "HEALTH_CHECK_FAILED")
		return
	}

	WriteSuccess(w, HealthView{
		Status:        "healthy",
		Timezone:      h.cfg.Timezone,
		SchemaVersion: report.SchemaVersion,
		Records:       report.Records,
	})
}

// =============================================================================
// Lunar Handlers
// =============================================================================

// GetLunarToday handles GET /api/v1/lunar/today
func (h *Handlers) GetLunarToday(w http.ResponseWriter, r *http.Request) {
	today := h.cfg.Now()

	ld, err := h.conv.FromTime(today)
	if err != nil {
		h.writeConvertError(w, r, err)
		return
	}

	WriteSuccess(w, newLunarView(today, ld))
}

// GetLunarDate handles GET /api/v1/lunar/date/{YYYY-MM-DD}
func (h *Handlers) GetLunarDate(w http.ResponseWriter, r *http.Request) {
	date, ok := h.pathDate(w, r)
	if !ok {
		return
	}

	ld, err := h.conv.FromTime(date)
	if err != nil {
		h.writeConvertError(w, r, err)
		return
	}

	WriteSuccess(w, newLunarView(date, ld))
}

// ConvertLunar handles GET /api/v1/lunar/convert?year=&month=&day=
func (h *Handlers) ConvertLunar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var parts [3]int
	for i, name := range []string{"year", "month", "day"} {
		raw := q.Get(name)
		if raw == "" {
			WriteBadRequest(w, fmt.Sprintf("%s parameter is required", name))
			return
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			WriteBadRequest(w, fmt.Sprintf("%s must be an integer, got %q", name, raw))
			return
		}
		parts[i] = n
	}

	ld, err := h.conv.SolarToLunar(parts[0], parts[1], parts[2])
	if err != nil {
		h.writeConvertError(w, r, err)
		return
	}

	date := time.Date(parts[0], time.Month(parts[1]), parts[2], 0, 0, 0, 0, time.UTC)
	WriteSuccess(w, newLunarView(date, ld))
}

// =============================================================================
// Almanac Handlers
// =============================================================================

// GetAlmanacToday handles GET /api/v1/almanac/today
func (h *Handlers) GetAlmanacToday(w http.ResponseWriter, r *http.Request) {
	a, err := h.almanac.Build(h.cfg.Now())
	if err != nil {
		h.writeConvertError(w, r, err)
		return
	}

	WriteSuccess(w, a)
}

// GetAlmanacDate handles GET /api/v1/almanac/date/{YYYY-MM-DD}
func (h *Handlers) GetAlmanacDate(w http.ResponseWriter, r *http.Request) {
	date, ok := h.pathDate(w, r)
	if !ok {
		return
	}

	a, err := h.almanac.Build(date)
	if err != nil {
		h.writeConvertError(w, r, err)
		return
	}

	WriteSuccess(w, a)
}

// GetAlmanacRange handles GET /api/v1/almanac/range?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *Handlers) GetAlmanacRange(w http.ResponseWriter, r *http.Request) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if startStr == "" || endStr == "" {
		WriteBadRequest(w, "Both start and end date parameters are required")
		return
	}

	startDate, err := calendar.ParseDateString(startStr)
	if err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid start date format: %s. Use YYYY-MM-DD", startStr))
		return
	}

	endDate, err := calendar.ParseDateString(endStr)
	if err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid end date format: %s. Use YYYY-MM-DD", endStr))
		return
	}

	if err := calendar.ValidateRange(startDate, endDate); err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	days, err := h.almanac.Range(startDate, endDate)
	if err != nil {
		h.writeConvertError(w, r, err)
		return
	}

	WriteSuccess(w, map[string]interface{}{
		"start": startStr,
		"end":   endStr,
		"days":  days,
	})
}

// =============================================================================
// Record Handlers
// =============================================================================

// defaultRecordLimit is the page size when ?limit is absent.
const defaultRecordLimit = 50

// ListRecords handles GET /api/v1/records
//
// Query parameters: category, deity, q, since and until (YYYY-MM-DD in the
// server time zone, both inclusive), favorites (bool), limit and offset.
// A limit above MaxRecords is clamped to it.
func (h *Handlers) ListRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := database.RecordFilter{
		CategoryID: q.Get("category"),
		DeityID:    q.Get("deity"),
		Query:      q.Get("q"),
		Limit:      defaultRecordLimit,
	}

	if limitStr := q.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			filter.Limit = min(l, database.MaxRecords)
		}
	}

	if offsetStr := q.Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			filter.Offset = o
		}
	}

	if since := q.Get("since"); since != "" {
		date, err := calendar.ParseDateIn(since, h.cfg.Location)
		if err != nil {
			WriteBadRequest(w, fmt.Sprintf("Invalid since date: %s. Use YYYY-MM-DD", since))
			return
		}
		filter.Since = date
	}

	if until := q.Get("until"); until != "" {
		date, err := calendar.ParseDateIn(until, h.cfg.Location)
		if err != nil {
			WriteBadRequest(w, fmt.Sprintf("Invalid until date: %s. Use YYYY-MM-DD", until))
			return
		}
		filter.Until = date.AddDate(0, 0, 1)
	}

	if fav := q.Get("favorites"); fav != "" {
		b, err := strconv.ParseBool(fav)
		if err != nil {
			WriteBadRequest(w, fmt.Sprintf("Invalid favorites value: %s", fav))
			return
		}
		filter.FavoritesOnly = b
	}

	records, err := h.db.ListRecords(r.Context(), filter)
	if err != nil {
		h.log(r.Context()).Error("failed to list records", slog.Any("error", err))
		WriteInternalError(w, "Failed to retrieve records")
		return
	}

	views := make([]RecordView, 0, len(records))
	for i := range records {
		views = append(views, newRecordView(&records[i]))
	}

	WriteSuccess(w, map[string]interface{}{
		"records": views,
		"limit":   filter.Limit,
		"offset":  filter.Offset,
	})
}

// ExportRecords handles GET /api/v1/records/export
//
// The body is a bare JSON array, not the usual envelope, so it can be saved
// and fed to cmd/import as is.
func (h *Handlers) ExportRecords(w http.ResponseWriter, r *http.Request) {
	exported, err := h.db.ExportRecords(r.Context())
	if err != nil {
		h.log(r.Context()).Error("failed to export records", slog.Any("error", err))
		WriteInternalError(w, "Failed to export records")
		return
	}

	filename := fmt.Sprintf("almanac_records_%s.json", calendar.FormatDate(h.cfg.Now()))
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(exported); err != nil {
		h.log(r.Context()).Warn("failed to write export", slog.Any("error", err))
	}
}

// GetRecordStats handles GET /api/v1/records/stats
func (h *Handlers) GetRecordStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.db.GetRecordStats(r.Context())
	if err != nil {
		h.log(r.Context()).Error("failed to get record stats", slog.Any("error", err))
		WriteInternalError(w, "Failed to retrieve statistics")
		return
	}

	WriteSuccess(w, stats)
}

// GetRecord handles GET /api/v1/records/{id}
func (h *Handlers) GetRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	record, err := h.db.GetRecord(r.Context(), id)
	if err != nil {
		if database.IsNotFound(err) {
			WriteNotFound(w, "Record not found")
			return
		}
		h.log(r.Context()).Error("failed to get record", slog.Any("error", err), slog.String("id", id))
		WriteInternalError(w, "Failed to retrieve record")
		return
	}

	WriteSuccess(w, newRecordView(record))
}

// createRecordRequest is the body of POST /api/v1/records.
type createRecordRequest struct {
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name,omitempty"`
	DeityID      string `json:"deity_id"`
	DeityName    string `json:"deity_name,omitempty"`
	LotNumber    string `json:"lot_number"`
	LotLevel     string `json:"lot_level"`
	LotTitle     string `json:"lot_title,omitempty"`
	Wish         string `json:"wish,omitempty"`
}

// CreateRecord handles POST /api/v1/records.
// The solar date and lunar label are stamped from the server clock.
func (h *Handlers) CreateRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createRecordRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	now := h.cfg.Now()
	ld, err := h.conv.FromTime(now)
	if err != nil {
		h.writeConvertError(w, r, err)
		return
	}

	record := &database.PrayerRecord{
		CategoryID:   req.CategoryID,
		CategoryName: req.CategoryName,
		DeityID:      req.DeityID,
		DeityName:    req.DeityName,
		LotNumber:    req.LotNumber,
		LotLevel:     database.LotLevel(req.LotLevel),
		LotTitle:     req.LotTitle,
		Wish:         req.Wish,
		SolarDate:    calendar.FormatDate(now),
		LunarLabel:   ld.String(),
		CreatedAt:    now,
	}

	if err := record.Validate(); err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	if err := h.db.CreateRecord(ctx, record); err != nil {
		h.log(ctx).Error("failed to create record", slog.Any("error", err))
		WriteInternalError(w, "Failed to save record")
		return
	}

	h.log(ctx).Info("record created",
		slog.String("id", record.ID),
		slog.String("lot_level", string(record.LotLevel)),
	)

	WriteCreated(w, newRecordView(record))
}

// UpdateRecord handles PATCH /api/v1/records/{id}
// Body: {"note": "...", "is_favorite": true}; at least one field is required.
func (h *Handlers) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var patch database.RecordPatch
	if err := decodeJSON(r, &patch); err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if patch.IsEmpty() {
		WriteBadRequest(w, "Nothing to update: provide note or is_favorite")
		return
	}

	record, err := h.db.UpdateRecord(r.Context(), id, patch)
	if err != nil {
		h.writeRecordError(w, r, err, id, "update")
		return
	}

	WriteSuccess(w, newRecordView(record))
}

// ToggleFavorite handles POST /api/v1/records/{id}/favorite
func (h *Handlers) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	record, err := h.db.ToggleFavorite(r.Context(), id)
	if err != nil {
		h.writeRecordError(w, r, err, id, "favorite")
		return
	}

	WriteSuccess(w, newRecordView(record))
}

// DeleteRecord handles DELETE /api/v1/records/{id}
func (h *Handlers) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.db.DeleteRecord(r.Context(), id); err != nil {
		if database.IsNotFound(err) {
			WriteNotFound(w, "Record not found")
			return
		}
		h.log(r.Context()).Error("failed to delete record", slog.Any("error", err), slog.String("id", id))
		WriteInternalError(w, "Failed to delete record")
		return
	}

	WriteSuccess(w, map[string]string{"message": "Record deleted"})
}

// ClearRecords handles DELETE /api/v1/records
func (h *Handlers) ClearRecords(w http.ResponseWriter, r *http.Request) {
	n, err := h.db.ClearRecords(r.Context())
	if err != nil {
		h.log(r.Context()).Error("failed to clear records", slog.Any("error", err))
		WriteInternalError(w, "Failed to clear records")
		return
	}

	WriteSuccess(w, map[string]interface{}{
		"message": "Records cleared",
		"deleted": n,
	})
}

// =============================================================================
// Helpers
// =============================================================================

// writeRecordError maps a store error for record id to a response.
func (h *Handlers) writeRecordError(w http.ResponseWriter, r *http.Request, err error, id, action string) {
	if database.IsNotFound(err) {
		WriteNotFound(w, "Record not found")
		return
	}
	h.log(r.Context()).Error("failed to "+action+" record", slog.Any("error", err), slog.String("id", id))
	WriteInternalError(w, "Failed to "+action+" record")
}

// log returns the handler logger tagged with the request ID.
func (h *Handlers) log(ctx context.Context) *slog.Logger {
	return logger.FromContext(ctx, h.logger)
}

// pathDate parses the {date} path parameter, writing a 400 on failure.
func (h *Handlers) pathDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	dateStr := chi.URLParam(r, "date")
	if dateStr == "" {
		WriteBadRequest(w, "Date parameter is required")
		return time.Time{}, false
	}

	date, err := calendar.ParseDateString(dateStr)
	if err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid date format: %s. Use YYYY-MM-DD", dateStr))
		return time.Time{}, false
	}

	return date, true
}

// writeConvertError maps lunar conversion errors to HTTP responses.
func (h *Handlers) writeConvertError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, lunar.ErrOutOfRange):
		WriteOutOfRange(w, fmt.Sprintf("Date must fall within lunar years %d-%d", lunar.MinYear, lunar.MaxYear))
	case errors.Is(err, lunar.ErrInvalidDate):
		WriteBadRequest(w, err.Error())
	default:
		h.log(r.Context()).Error("lunar conversion failed", slog.Any("error", err))
		WriteInternalError(w, "Failed to convert date")
	}
}

// decodeJSON decodes JSON request body.
func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return fmt.Errorf("request body is empty")
	}
	defer r.Body.Close()

	return json.NewDecoder(r.Body).Decode(v)
}
