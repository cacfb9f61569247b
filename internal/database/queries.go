package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Helper Functions
// =============================================================================

// timestampLayout keeps fixed-width fractional seconds so that string
// comparison in SQLite orders rows by time.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// parseTimestamp parses a timestamp from SQLite TEXT format.
// Returns the zero time if parsing fails.
func parseTimestamp(s string) time.Time {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	// SQLite datetime('now') format
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

const recordColumns = `
	id, category_id, category_name, deity_id, deity_name,
	lot_number, lot_level, lot_title,
	wish, solar_date, lunar_label,
	is_favorite, note, created_at, updated_at
`

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*PrayerRecord, error) {
	var r PrayerRecord
	var level, createdAt, updatedAt string
	var favorite int
	err := s.Scan(
		&r.ID,
		&r.CategoryID,
		&r.CategoryName,
		&r.DeityID,
		&r.DeityName,
		&r.LotNumber,
		&level,
		&r.LotTitle,
		&r.Wish,
		&r.SolarDate,
		&r.LunarLabel,
		&favorite,
		&r.Note,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.LotLevel = LotLevel(level)
	r.IsFavorite = favorite != 0
	r.CreatedAt = parseTimestamp(createdAt)
	if updatedAt != "" {
		t := parseTimestamp(updatedAt)
		r.UpdatedAt = &t
	}
	return &r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// =============================================================================
// Prayer Record Queries
// =============================================================================

// CreateRecord inserts a record, assigning ID and CreatedAt when empty, then
// prunes the table so that at most MaxRecords remain. The newest records are
// kept.
func (db *DB) CreateRecord(ctx context.Context, r *PrayerRecord) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("invalid record: %w", err)
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	r.CreatedAt = r.CreatedAt.UTC()

	updatedAt := ""
	if r.UpdatedAt != nil {
		updatedAt = formatTimestamp(*r.UpdatedAt)
	}

	return db.WithTx(ctx, func(tx *Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO prayer_records (`+recordColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			r.ID,
			r.CategoryID,
			r.CategoryName,
			r.DeityID,
			r.DeityName,
			r.LotNumber,
			string(r.LotLevel),
			r.LotTitle,
			r.Wish,
			r.SolarDate,
			r.LunarLabel,
			boolToInt(r.IsFavorite),
			r.Note,
			formatTimestamp(r.CreatedAt),
			updatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert record: %w", err)
		}

		res, err := tx.ExecContext(ctx, `
			DELETE FROM prayer_records
			WHERE id NOT IN (
				SELECT id FROM prayer_records
				ORDER BY created_at DESC, rowid DESC
				LIMIT ?
			)
		`, MaxRecords)
		if err != nil {
			return fmt.Errorf("prune records: %w", err)
		}

		if n, _ := res.RowsAffected(); n > 0 {
			db.logger.Debug("pruned prayer records", "count", n)
		}
		return nil
	})
}

// GetRecord retrieves a single record by ID.
// Returns ErrNotFound if no record has that ID.
func (db *DB) GetRecord(ctx context.Context, id string) (*PrayerRecord, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM prayer_records WHERE id = ?`, id)

	r, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query record: %w", err)
	}
	return r, nil
}

// ListRecords returns records newest first, narrowed by filter.
func (db *DB) ListRecords(ctx context.Context, filter RecordFilter) ([]PrayerRecord, error) {
	var where []string
	var args []any

	if filter.CategoryID != "" {
		where = append(where, "category_id = ?")
		args = append(args, filter.CategoryID)
	}
	if filter.DeityID != "" {
		where = append(where, "deity_id = ?")
		args = append(args, filter.DeityID)
	}
	if !filter.Since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, formatTimestamp(filter.Since))
	}
	if !filter.Until.IsZero() {
		where = append(where, "created_at < ?")
		args = append(args, formatTimestamp(filter.Until))
	}
	if filter.FavoritesOnly {
		where = append(where, "is_favorite = 1")
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		// lower() only folds ASCII; CJK names match as typed.
		pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
		where = append(where, `(lower(wish) LIKE ? ESCAPE '\' OR lower(deity_name) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}

	query := `SELECT ` + recordColumns + ` FROM prayer_records`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?"

	limit := filter.Limit
	if limit <= 0 || limit > MaxRecords {
		limit = MaxRecords
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records := []PrayerRecord{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	return records, nil
}

// UpdateRecord applies patch to the record with id and returns the result.
// Changing the note stamps UpdatedAt; favoriting does not.
// Returns ErrNotFound if no record has that ID.
func (db *DB) UpdateRecord(ctx context.Context, id string, patch RecordPatch) (*PrayerRecord, error) {
	if patch.IsEmpty() {
		return nil, errors.New("empty patch")
	}

	var set []string
	var args []any
	if patch.Note != nil {
		set = append(set, "note = ?", "updated_at = ?")
		args = append(args, *patch.Note, formatTimestamp(time.Now()))
	}
	if patch.IsFavorite != nil {
		set = append(set, "is_favorite = ?")
		args = append(args, boolToInt(*patch.IsFavorite))
	}
	args = append(args, id)

	var updated *PrayerRecord
	err := db.WithTx(ctx, func(tx *Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE prayer_records SET "+strings.Join(set, ", ")+" WHERE id = ?", args...)
		if err != nil {
			return fmt.Errorf("update record: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("rows affected: %w", err)
		} else if n == 0 {
			return ErrNotFound
		}

		updated, err = scanRecord(tx.QueryRowContext(ctx,
			`SELECT `+recordColumns+` FROM prayer_records WHERE id = ?`, id))
		if err != nil {
			return fmt.Errorf("reload record: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateNote replaces the note on a record.
func (db *DB) UpdateNote(ctx context.Context, id, note string) (*PrayerRecord, error) {
	return db.UpdateRecord(ctx, id, RecordPatch{Note: &note})
}

// ToggleFavorite flips the favorite flag on a record.
// Returns ErrNotFound if no record has that ID.
func (db *DB) ToggleFavorite(ctx context.Context, id string) (*PrayerRecord, error) {
	var updated *PrayerRecord
	err := db.WithTx(ctx, func(tx *Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE prayer_records SET is_favorite = 1 - is_favorite WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("toggle favorite: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("rows affected: %w", err)
		} else if n == 0 {
			return ErrNotFound
		}

		updated, err = scanRecord(tx.QueryRowContext(ctx,
			`SELECT `+recordColumns+` FROM prayer_records WHERE id = ?`, id))
		if err != nil {
			return fmt.Errorf("reload record: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteRecord removes one record.
// Returns ErrNotFound if no record has that ID.
func (db *DB) DeleteRecord(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, "DELETE FROM prayer_records WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearRecords removes every record and returns how many were deleted.
func (db *DB) ClearRecords(ctx context.Context) (int64, error) {
	res, err := db.ExecContext(ctx, "DELETE FROM prayer_records")
	if err != nil {
		return 0, fmt.Errorf("clear records: %w", err)
	}
	return res.RowsAffected()
}

// GetRecordStats summarizes stored records by level, category and deity.
func (db *DB) GetRecordStats(ctx context.Context) (*RecordStats, error) {
	stats := &RecordStats{
		ByLevel:    make(map[string]int),
		ByCategory: make(map[string]int),
		ByDeity:    make(map[string]int),
	}

	err := db.groupCounts(ctx, "lot_level", func(level string, count int) {
		stats.ByLevel[level] = count
		stats.Total += count
		if LotLevel(level).IsTop() {
			stats.Top += count
		}
	})
	if err != nil {
		return nil, err
	}

	err = db.groupCounts(ctx, "category_id", func(category string, count int) {
		if category == "" {
			category = UnknownCategory
		}
		stats.ByCategory[category] += count
	})
	if err != nil {
		return nil, err
	}

	var lastPrayed string
	err = db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(is_favorite), 0), COALESCE(MAX(created_at), '')
		FROM prayer_records
	`).Scan(&stats.Favorites, &lastPrayed)
	if err != nil {
		return nil, fmt.Errorf("query record totals: %w", err)
	}
	if lastPrayed != "" {
		t := parseTimestamp(lastPrayed)
		stats.LastPrayedAt = &t
	}

	// With MAX() in the select list SQLite takes deity_name from the row
	// holding the latest created_at.
	rows, err := db.QueryContext(ctx, `
		SELECT deity_id, deity_name, COUNT(*), MAX(created_at)
		FROM prayer_records
		GROUP BY deity_id
	`)
	if err != nil {
		return nil, fmt.Errorf("query deity stats: %w", err)
	}
	defer rows.Close()

	var best struct {
		count int
		last  string
	}
	for rows.Next() {
		var id, name, last string
		var count int
		if err := rows.Scan(&id, &name, &count, &last); err != nil {
			return nil, fmt.Errorf("scan deity stats: %w", err)
		}
		stats.ByDeity[id] = count
		if count > best.count || (count == best.count && last > best.last) {
			best.count, best.last = count, last
			stats.MostPrayedDeity, stats.MostPrayedDeityName = id, name
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deity stats: %w", err)
	}

	return stats, nil
}

// groupCounts calls fn with each distinct value of column and its row count.
// column must be a trusted identifier.
func (db *DB) groupCounts(ctx context.Context, column string, fn func(value string, count int)) error {
	rows, err := db.QueryContext(ctx,
		"SELECT "+column+", COUNT(*) FROM prayer_records GROUP BY "+column)
	if err != nil {
		return fmt.Errorf("count records by %s: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var value string
		var count int
		if err := rows.Scan(&value, &count); err != nil {
			return fmt.Errorf("scan %s counts: %w", column, err)
		}
		fn(value, count)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate %s counts: %w", column, err)
	}
	return nil
}
