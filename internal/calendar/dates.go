// Package calendar builds daily almanac views on top of lunar conversion.
package calendar

import (
	"fmt"
	"time"

	"github.com/zapponejosh/lunar-almanac/internal/lunar"
)

// DateLayout is the wire format for dates (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// MaxRangeDays is the longest inclusive range Range will build.
const MaxRangeDays = 90

var weekdayNames = [7]string{"星期日", "星期一", "星期二", "星期三", "星期四", "星期五", "星期六"}

// WeekdayName returns the Chinese day-of-week name (星期日 through 星期六).
func WeekdayName(date time.Time) string {
	return weekdayNames[date.Weekday()]
}

// ParseDateString parses a date string in YYYY-MM-DD format.
func ParseDateString(dateStr string) (time.Time, error) {
	return time.Parse(DateLayout, dateStr)
}

// ParseDateIn parses a YYYY-MM-DD string as midnight in loc.
func ParseDateIn(dateStr string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(DateLayout, dateStr, loc)
}

// FormatDate formats a date as YYYY-MM-DD.
func FormatDate(date time.Time) string {
	return date.Format(DateLayout)
}

// ValidateRange checks that start <= end and that the inclusive span does
// not exceed MaxRangeDays.
func ValidateRange(start, end time.Time) error {
	days := lunar.DaysBetween(start, end)
	if days < 0 {
		return fmt.Errorf("start date %s is after end date %s", FormatDate(start), FormatDate(end))
	}
	if days+1 > MaxRangeDays {
		return fmt.Errorf("date range cannot exceed %d days", MaxRangeDays)
	}
	return nil
}
