package database

import (
	"context"
	"fmt"
	"time"
)

// exportTimestampLayout is millisecond ISO 8601 in UTC, e.g.
// "2024-02-09T16:30:00.000Z".
const exportTimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// ExportFortune is the drawn lot inside an exported record.
type ExportFortune struct {
	Number any    `json:"number"` // number or string depending on the export
	Level  string `json:"level"`
	Title  string `json:"title,omitempty"`
}

// ExportRecord is one entry of a records backup file: a JSON array of these,
// newest first. cmd/import reads the same shape back.
type ExportRecord struct {
	ID           string        `json:"id"`
	Timestamp    string        `json:"timestamp"`
	CategoryID   string        `json:"categoryId"`
	CategoryName string        `json:"categoryName,omitempty"`
	DeityID      string        `json:"deityId"`
	DeityName    string        `json:"deityName,omitempty"`
	Wish         string        `json:"wish"`
	Fortune      ExportFortune `json:"fortune"`
	IsFavorite   bool          `json:"isFavorite,omitempty"`
	Note         string        `json:"note,omitempty"`
	UpdatedAt    string        `json:"updatedAt,omitempty"`
}

// Export converts the record to its backup form.
func (r *PrayerRecord) Export() ExportRecord {
	e := ExportRecord{
		ID:           r.ID,
		Timestamp:    formatExportTimestamp(r.CreatedAt),
		CategoryID:   r.CategoryID,
		CategoryName: r.CategoryName,
		DeityID:      r.DeityID,
		DeityName:    r.DeityName,
		Wish:         r.Wish,
		Fortune: ExportFortune{
			Number: r.LotNumber,
			Level:  string(r.LotLevel),
			Title:  r.LotTitle,
		},
		IsFavorite: r.IsFavorite,
		Note:       r.Note,
	}
	if r.UpdatedAt != nil {
		e.UpdatedAt = formatExportTimestamp(*r.UpdatedAt)
	}
	return e
}

func formatExportTimestamp(t time.Time) string {
	return t.UTC().Format(exportTimestampLayout)
}

// ExportRecords returns every stored record in backup form, newest first.
func (db *DB) ExportRecords(ctx context.Context) ([]ExportRecord, error) {
	records, err := db.ListRecords(ctx, RecordFilter{Limit: MaxRecords})
	if err != nil {
		return nil, fmt.Errorf("export records: %w", err)
	}

	exported := make([]ExportRecord, 0, len(records))
	for i := range records {
		exported = append(exported, records[i].Export())
	}
	return exported, nil
}
