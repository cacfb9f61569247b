// Command import loads a prayer record backup (the JSON array served by
// GET /api/v1/records/export, or saved by the records page) into the SQLite
// database.
//
// Usage:
//
//	go run ./cmd/import -json records.json -db data/almanac.db
//
// This tool:
// 1. Parses the export file
// 2. Creates/opens the SQLite database and runs migrations
// 3. Stamps each record with its solar date and lunar label
// 4. Inserts records oldest first, skipping IDs already present
//
// Only the newest MaxRecords survive, the same as records created through
// the API.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/zapponejosh/lunar-almanac/internal/calendar"
	"github.com/zapponejosh/lunar-almanac/internal/config"
	"github.com/zapponejosh/lunar-almanac/internal/database"
	"github.com/zapponejosh/lunar-almanac/internal/lunar"
)

func main() {
	// Parse command line flags
	jsonPath := flag.String("json", "records.json", "Path to exported records JSON")
	dbPath := flag.String("db", "data/almanac.db", "Path to SQLite database")
	tz := flag.String("tz", config.DefaultTimezone, "Time zone used to date each record")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	// Setup logger
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))

	// Run import
	if err := run(*jsonPath, *dbPath, *tz, logger); err != nil {
		logger.Error("import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("import complete")
}

// ImportStats tracks import statistics.
type ImportStats struct {
	Read     int
	Imported int
	Skipped  int
}

func run(jsonPath, dbPath, tz string, logger *slog.Logger) error {
	ctx := context.Background()
	startTime := time.Now()

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("load time zone: %w", err)
	}

	// =========================================================================
	// Step 1: Read and parse JSON
	// =========================================================================
	logger.Info("reading JSON file", slog.String("path", jsonPath))

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("read JSON file: %w", err)
	}

	var exported []database.ExportRecord
	if err := json.Unmarshal(data, &exported); err != nil {
		return fmt.Errorf("parse JSON: %w", err)
	}

	logger.Info("parsed JSON", slog.Int("records", len(exported)))

	// =========================================================================
	// Step 2: Open database and run migrations
	// =========================================================================
	logger.Info("opening database", slog.String("path", dbPath))

	db, err := database.Open(database.DefaultConfig(dbPath), logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	migrated, err := db.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("migrations complete", slog.Int("applied", migrated))

	// =========================================================================
	// Step 3: Import records
	// =========================================================================
	stats, err := importRecords(ctx, db, lunar.New(), loc, exported, logger)
	if err != nil {
		return fmt.Errorf("import records: %w", err)
	}

	// =========================================================================
	// Step 4: Verify import
	// =========================================================================
	recordStats, err := db.GetRecordStats(ctx)
	if err != nil {
		return fmt.Errorf("record stats: %w", err)
	}

	elapsed := time.Since(startTime)

	logger.Info("import verified",
		slog.Int("stored", recordStats.Total),
		slog.Int("top", recordStats.Top),
		slog.Duration("elapsed", elapsed),
	)

	// Print summary
	fmt.Println()
	fmt.Println("=== Import Summary ===")
	fmt.Printf("Records read:        %d\n", stats.Read)
	fmt.Printf("Records imported:    %d\n", stats.Imported)
	fmt.Printf("Already present:     %d\n", stats.Skipped)
	fmt.Printf("Records stored:      %d (max %d)\n", recordStats.Total, database.MaxRecords)
	fmt.Printf("Time elapsed:        %v\n", elapsed.Round(time.Millisecond))

	return nil
}

// importRecords inserts exported records oldest first so pruning drops the
// oldest when the export holds more than MaxRecords.
func importRecords(ctx context.Context, db *database.DB, conv *lunar.Converter, loc *time.Location, exported []database.ExportRecord, logger *slog.Logger) (ImportStats, error) {
	stats := ImportStats{Read: len(exported)}

	records := make([]*database.PrayerRecord, 0, len(exported))
	for i, e := range exported {
		r, err := toPrayerRecord(conv, loc, e)
		if err != nil {
			return stats, fmt.Errorf("record %d (%s): %w", i+1, e.ID, err)
		}
		records = append(records, r)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})

	for _, r := range records {
		if r.ID != "" {
			if _, err := db.GetRecord(ctx, r.ID); err == nil {
				stats.Skipped++
				continue
			} else if !database.IsNotFound(err) {
				return stats, err
			}
		}

		if err := db.CreateRecord(ctx, r); err != nil {
			return stats, fmt.Errorf("create record %s: %w", r.ID, err)
		}
		stats.Imported++

		logger.Debug("imported record",
			slog.String("id", r.ID),
			slog.String("lunar", r.LunarLabel),
		)
	}

	return stats, nil
}

// toPrayerRecord converts an export entry, dating it in loc.
func toPrayerRecord(conv *lunar.Converter, loc *time.Location, e database.ExportRecord) (*database.PrayerRecord, error) {
	created, err := time.Parse(time.RFC3339, e.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("parse timestamp %q: %w", e.Timestamp, err)
	}
	local := created.In(loc)

	ld, err := conv.FromTime(local)
	if err != nil {
		return nil, err
	}

	var number string
	if e.Fortune.Number != nil {
		number = fmt.Sprint(e.Fortune.Number)
	}

	r := &database.PrayerRecord{
		ID:           e.ID,
		CategoryID:   e.CategoryID,
		CategoryName: e.CategoryName,
		DeityID:      e.DeityID,
		DeityName:    e.DeityName,
		LotNumber:    number,
		LotLevel:     database.LotLevel(e.Fortune.Level),
		LotTitle:     e.Fortune.Title,
		Wish:         e.Wish,
		SolarDate:    calendar.FormatDate(local),
		LunarLabel:   ld.String(),
		IsFavorite:   e.IsFavorite,
		Note:         e.Note,
		CreatedAt:    created,
	}
	if e.UpdatedAt != "" {
		updated, err := time.Parse(time.RFC3339, e.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("parse updatedAt %q: %w", e.UpdatedAt, err)
		}
		r.UpdatedAt = &updated
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}
