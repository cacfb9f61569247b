package lunar

import "math"

// SolarTerms lists the 24 terms starting from 小寒 (early January).
// Terms 2k and 2k+1 fall in solar month k+1.
var SolarTerms = [24]string{
	"小寒", "大寒", "立春", "雨水", "惊蛰", "春分",
	"清明", "谷雨", "立夏", "小满", "芒种", "夏至",
	"小暑", "大暑", "立秋", "处暑", "白露", "秋分",
	"寒露", "霜降", "立冬", "小雪", "大雪", "冬至",
}

// termConstants are the empirical 1900-epoch day offsets for each term.
var termConstants = [24]float64{
	6.11, 20.84, 4.6295, 19.4599, 6.3826, 21.4155,
	5.59, 20.888, 6.318, 21.86, 6.5, 22.20,
	7.928, 23.65, 8.35, 23.95, 8.44, 23.822,
	9.098, 24.218, 8.218, 23.08, 7.9, 22.60,
}

const (
	tropicalDrift = 0.2422
	// centuryCorrectionYear marks where a flat one-day shift is applied.
	// This is a coarse fix, not an astronomical one; results can be a day off.
	centuryCorrectionYear = 2000
)

// SolarTermDay estimates the day of month on which term index i (0-23)
// falls in the given solar year.
func SolarTermDay(year, i int) int {
	if i < 0 || i >= len(termConstants) {
		return 0
	}
	y := year - MinYear
	day := int(math.Floor(float64(y)*tropicalDrift+termConstants[i])) - int(math.Floor(float64(y)/4))
	if year >= centuryCorrectionYear {
		day++
	}
	return day
}

// SolarTermOn returns the name of the term estimated to fall on the given
// solar date, or "" if none does.
func SolarTermOn(year, month, day int) string {
	if month < 1 || month > 12 {
		return ""
	}
	first := (month - 1) * 2
	for i := first; i <= first+1; i++ {
		if SolarTermDay(year, i) == day {
			return SolarTerms[i]
		}
	}
	return ""
}
