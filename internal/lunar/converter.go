// Package lunar converts Gregorian dates to the Chinese lunisolar calendar.
//
// Conversion is table driven and covers lunar years 1900 through 2049.
// Day zero is 1900-01-31, which is the first day of the first month of
// lunar year 1900.
package lunar

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrOutOfRange is returned when a date falls outside lunar years 1900-2049.
	ErrOutOfRange = errors.New("date outside supported lunar range")

	// ErrInvalidDate is returned for a year/month/day triple that is not a
	// valid Gregorian date.
	ErrInvalidDate = errors.New("invalid calendar date")
)

// epoch is lunar 1900, month 1, day 1.
var epoch = time.Date(1900, time.January, 31, 0, 0, 0, 0, time.UTC)

// LunarDate is the lunisolar representation of one solar date.
type LunarDate struct {
	Year           int    `json:"lunar_year"`
	Month          int    `json:"lunar_month"`
	Day            int    `json:"lunar_day"`
	IsLeapMonth    bool   `json:"is_leap_month"`
	Zodiac         string `json:"zodiac"`
	MonthLabel     string `json:"month_label"`
	DayLabel       string `json:"day_label"`
	SolarTerm      string `json:"solar_term,omitempty"`
	StemBranchYear string `json:"stem_branch_year"`
}

// String formats the date as e.g. "甲辰年正月初一".
func (d LunarDate) String() string {
	return d.StemBranchYear + "年" + d.MonthLabel + d.DayLabel
}

// Converter performs solar to lunar conversion against an immutable year
// table. It is safe for concurrent use.
type Converter struct {
	years []YearEncoding
}

// New builds a Converter with the compiled-in year table.
func New() *Converter {
	return &Converter{years: buildTable()}
}

// Year returns the encoding for lunar year y.
func (c *Converter) Year(y int) (YearEncoding, error) {
	if y < MinYear || y > MaxYear {
		return YearEncoding{}, fmt.Errorf("lunar year %d: %w", y, ErrOutOfRange)
	}
	return c.years[y-MinYear], nil
}

// FirstDay returns the solar date of the first day of lunar year y.
func (c *Converter) FirstDay(y int) (time.Time, error) {
	if y < MinYear || y > MaxYear {
		return time.Time{}, fmt.Errorf("lunar year %d: %w", y, ErrOutOfRange)
	}
	days := 0
	for i := MinYear; i < y; i++ {
		days += c.years[i-MinYear].TotalDays()
	}
	return epoch.AddDate(0, 0, days), nil
}

// FromTime converts the calendar date of t, read in t's own location.
func (c *Converter) FromTime(t time.Time) (LunarDate, error) {
	y, m, d := t.Date()
	return c.SolarToLunar(y, int(m), d)
}

// SolarToLunar converts a Gregorian date to its lunar representation.
//
// It returns an error wrapping ErrInvalidDate if the triple is not a real
// date, and one wrapping ErrOutOfRange if the date precedes 1900-01-31 or
// falls after the last day of lunar year 2049.
func (c *Converter) SolarToLunar(year, month, day int) (LunarDate, error) {
	if !ValidDate(year, month, day) {
		return LunarDate{}, fmt.Errorf("%04d-%02d-%02d: %w", year, month, day, ErrInvalidDate)
	}

	solar := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	offset := DaysBetween(epoch, solar)
	if offset < 0 {
		return LunarDate{}, fmt.Errorf("%04d-%02d-%02d is before %s: %w",
			year, month, day, epoch.Format("2006-01-02"), ErrOutOfRange)
	}

	// Walk whole years.
	ly := MinYear
	for {
		if ly > MaxYear {
			return LunarDate{}, fmt.Errorf("%04d-%02d-%02d is after lunar year %d: %w",
				year, month, day, MaxYear, ErrOutOfRange)
		}
		total := c.years[ly-MinYear].TotalDays()
		if offset < total {
			break
		}
		offset -= total
		ly++
	}

	// Walk the months of the resolved year.
	enc := c.years[ly-MinYear]
	var lm int
	var leap bool
	for _, span := range enc.Months() {
		if offset < span.Days {
			lm, leap = span.Month, span.IsLeap
			break
		}
		offset -= span.Days
	}
	if lm == 0 {
		// Unreachable with a consistent table: offset < TotalDays above.
		return LunarDate{}, fmt.Errorf("lunar year %d: day index overflow", ly)
	}
	ld := offset + 1

	return LunarDate{
		Year:           ly,
		Month:          lm,
		Day:            ld,
		IsLeapMonth:    leap,
		Zodiac:         ZodiacAnimal(ly),
		MonthLabel:     MonthLabel(lm, leap),
		DayLabel:       DayLabel(ld),
		SolarTerm:      SolarTermOn(year, month, day),
		StemBranchYear: StemBranchYear(ly),
	}, nil
}

// ValidDate reports whether year/month/day is a valid proleptic Gregorian date.
func ValidDate(year, month, day int) bool {
	if month < 1 || month > 12 || day < 1 {
		return false
	}
	return day <= DaysInMonth(year, month)
}

// DaysInMonth returns the number of days in a Gregorian month.
func DaysInMonth(year, month int) int {
	switch month {
	case 4, 6, 9, 11:
		return 30
	case 2:
		if IsLeapYear(year) {
			return 29
		}
		return 28
	}
	return 31
}

// IsLeapYear reports whether year is a Gregorian leap year.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysBetween returns the number of calendar days from start to end.
// Time of day is ignored; both dates are read in their own location.
func DaysBetween(start, end time.Time) int {
	sy, sm, sd := start.Date()
	ey, em, ed := end.Date()
	s := time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC)
	e := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)
	return int(e.Sub(s).Hours() / 24)
}
