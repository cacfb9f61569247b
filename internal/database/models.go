package database

import (
	"errors"
	"strings"
	"time"
)

// MaxRecords is how many prayer records are retained. Older ones are
// pruned when a new record is created.
const MaxRecords = 100

// LotLevel is the fortune grade of a drawn lot. The catalog may use labels
// beyond the four common ones below, e.g. "大吉".
type LotLevel string

const (
	LotLevelBest   LotLevel = "上上签"
	LotLevelGood   LotLevel = "上签"
	LotLevelMiddle LotLevel = "中签"
	LotLevelLow    LotLevel = "下签"
)

// IsTop reports whether the level counts as an auspicious draw.
func (l LotLevel) IsTop() bool {
	return strings.Contains(string(l), "上") || strings.Contains(string(l), "吉")
}

// Color returns the display color for the level.
func (l LotLevel) Color() string {
	switch l {
	case LotLevelBest:
		return "#D4AF37"
	case LotLevelGood:
		return "#F4A460"
	case LotLevelMiddle:
		return "#87CEEB"
	case LotLevelLow:
		return "#B0C4DE"
	}
	return "#999999"
}

// PrayerRecord is one saved fortune draw.
type PrayerRecord struct {
	ID           string     `json:"id"`
	CategoryID   string     `json:"category_id"`
	CategoryName string     `json:"category_name,omitempty"`
	DeityID      string     `json:"deity_id"`
	DeityName    string     `json:"deity_name,omitempty"`
	LotNumber    string     `json:"lot_number"`
	LotLevel     LotLevel   `json:"lot_level"`
	LotTitle     string     `json:"lot_title,omitempty"`
	Wish         string     `json:"wish,omitempty"`
	SolarDate    string     `json:"solar_date"`  // YYYY-MM-DD
	LunarLabel   string     `json:"lunar_label"` // e.g. "甲辰年正月初一"
	IsFavorite   bool       `json:"is_favorite"`
	Note         string     `json:"note,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"` // last note edit
}

// Validate checks the fields a caller must supply.
func (r *PrayerRecord) Validate() error {
	var errs []error
	if r.DeityID == "" {
		errs = append(errs, errors.New("deity_id is required"))
	}
	if r.LotNumber == "" {
		errs = append(errs, errors.New("lot_number is required"))
	}
	if strings.TrimSpace(string(r.LotLevel)) == "" {
		errs = append(errs, errors.New("lot_level is required"))
	}
	if r.SolarDate == "" {
		errs = append(errs, errors.New("solar_date is required"))
	}
	return errors.Join(errs...)
}

// RecordFilter narrows ListRecords results. Zero fields match everything.
type RecordFilter struct {
	CategoryID    string
	DeityID       string
	Query         string    // substring of wish or deity name, case-insensitive
	Since         time.Time // created at or after
	Until         time.Time // created before
	FavoritesOnly bool
	Limit         int // 0 means MaxRecords
	Offset        int
}

// RecordPatch lists the user-editable fields of a record. Nil fields are
// left unchanged.
type RecordPatch struct {
	Note       *string `json:"note,omitempty"`
	IsFavorite *bool   `json:"is_favorite,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p RecordPatch) IsEmpty() bool {
	return p.Note == nil && p.IsFavorite == nil
}

// UnknownCategory is the ByCategory key for records saved without one.
const UnknownCategory = "unknown"

// RecordStats summarizes stored records.
type RecordStats struct {
	Total      int            `json:"total"`
	Top        int            `json:"top"` // draws graded 上 or 吉
	Favorites  int            `json:"favorites"`
	ByLevel    map[string]int `json:"by_level"`
	ByCategory map[string]int `json:"by_category"`
	ByDeity    map[string]int `json:"by_deity"`

	// MostPrayedDeity is the deity with the most records. Ties go to the
	// deity prayed to most recently. Empty when there are no records.
	MostPrayedDeity     string     `json:"most_prayed_deity,omitempty"`
	MostPrayedDeityName string     `json:"most_prayed_deity_name,omitempty"`
	LastPrayedAt        *time.Time `json:"last_prayed_at,omitempty"`
}
