package database

// migrationsSQL contains all database migrations.
// Migrations are applied in order by version number.
var migrationsSQL = map[int]string{
	1: migrationV1PrayerRecords,
	2: migrationV2RecordDetails,
}

// migrationV1PrayerRecords creates the prayer record table.
//
// Timestamps are RFC 3339 strings in UTC so lexical order matches time order.
// solar_date and lunar_label are captured at draw time and never recomputed.
const migrationV1PrayerRecords = `
CREATE TABLE IF NOT EXISTS prayer_records (
    id TEXT PRIMARY KEY,

    -- Opaque ids from the content catalog
    category_id TEXT NOT NULL DEFAULT '',
    deity_id TEXT NOT NULL,

    -- The drawn lot
    lot_number TEXT NOT NULL,
    lot_level TEXT NOT NULL,
    lot_title TEXT NOT NULL DEFAULT '',

    -- Free-text wish entered before the draw
    wish TEXT NOT NULL DEFAULT '',

    -- Calendar stamp: YYYY-MM-DD and e.g. "甲辰年正月初一"
    solar_date TEXT NOT NULL,
    lunar_label TEXT NOT NULL DEFAULT '',

    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_prayer_records_created
    ON prayer_records(created_at);

CREATE INDEX IF NOT EXISTS idx_prayer_records_category
    ON prayer_records(category_id);
`

// migrationV2RecordDetails keeps display names alongside the catalog ids so
// records stay readable after the catalog changes, and adds the fields a
// user can edit after the draw. updated_at is empty until the note changes.
const migrationV2RecordDetails = `
ALTER TABLE prayer_records ADD COLUMN category_name TEXT NOT NULL DEFAULT '';
ALTER TABLE prayer_records ADD COLUMN deity_name TEXT NOT NULL DEFAULT '';
ALTER TABLE prayer_records ADD COLUMN is_favorite INTEGER NOT NULL DEFAULT 0;
ALTER TABLE prayer_records ADD COLUMN note TEXT NOT NULL DEFAULT '';
ALTER TABLE prayer_records ADD COLUMN updated_at TEXT NOT NULL DEFAULT '';

CREATE INDEX IF NOT EXISTS idx_prayer_records_deity
    ON prayer_records(deity_id);
`
