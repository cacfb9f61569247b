package lunar

import "fmt"

// Supported lunar year bounds (inclusive).
const (
	MinYear = 1900
	MaxYear = 2049
)

// packedYears holds one word per lunar year from 1900 to 2049.
//
// Layout of each word:
//
//	bits 0-3    leap month (0 = no leap month)
//	bits 4-15   long (30-day) flags for months 12..1; 0x8000 is month 1
//	bit  16     leap month is long
var packedYears = [MaxYear - MinYear + 1]uint32{
	0x04bd8, 0x04ae0, 0x0a570, 0x054d5, 0x0d260, 0x0d950, 0x16554, 0x056a0, 0x09ad0, 0x055d2, // 1900-1909
	0x04ae0, 0x0a5b6, 0x0a4d0, 0x0d250, 0x1d255, 0x0b540, 0x0d6a0, 0x0ada2, 0x095b0, 0x14977, // 1910-1919
	0x04970, 0x0a4b0, 0x0b4b5, 0x06a50, 0x06d40, 0x1ab54, 0x02b60, 0x09570, 0x052f2, 0x04970, // 1920-1929
	0x06566, 0x0d4a0, 0x0ea50, 0x16a95, 0x05ad0, 0x02b60, 0x186e3, 0x092e0, 0x1c8d7, 0x0c950, // 1930-1939
	0x0d4a0, 0x1d8a6, 0x0b550, 0x056a0, 0x1a5b4, 0x025d0, 0x092d0, 0x0d2b2, 0x0a950, 0x0b557, // 1940-1949
	0x06ca0, 0x0b550, 0x15355, 0x04da0, 0x0a5b0, 0x14573, 0x052b0, 0x0a9a8, 0x0e950, 0x06aa0, // 1950-1959
	0x0aea6, 0x0ab50, 0x04b60, 0x0aae4, 0x0a570, 0x05260, 0x0f263, 0x0d950, 0x05b57, 0x056a0, // 1960-1969
	0x096d0, 0x04dd5, 0x04ad0, 0x0a4d0, 0x0d4d4, 0x0d250, 0x0d558, 0x0b540, 0x0b6a0, 0x195a6, // 1970-1979
	0x095b0, 0x049b0, 0x0a974, 0x0a4b0, 0x0b27a, 0x06a50, 0x06d40, 0x0af46, 0x0ab60, 0x09570, // 1980-1989
	0x04af5, 0x04970, 0x064b0, 0x074a3, 0x0ea50, 0x06b58, 0x05ac0, 0x0ab60, 0x096d5, 0x092e0, // 1990-1999
	0x0c960, 0x0d954, 0x0d4a0, 0x0da50, 0x07552, 0x056a0, 0x0abb7, 0x025d0, 0x092d0, 0x0cab5, // 2000-2009
	0x0a950, 0x0b4a0, 0x0baa4, 0x0ad50, 0x055d9, 0x04ba0, 0x0a5b0, 0x15176, 0x052b0, 0x0a930, // 2010-2019
	0x07954, 0x06aa0, 0x0ad50, 0x05b52, 0x04b60, 0x0a6e6, 0x0a4e0, 0x0d260, 0x0ea65, 0x0d530, // 2020-2029
	0x05aa0, 0x076a3, 0x096d0, 0x04afb, 0x04ad0, 0x0a4d0, 0x1d0b6, 0x0d250, 0x0d520, 0x0dd45, // 2030-2039
	0x0b5a0, 0x056d0, 0x055b2, 0x049b0, 0x0a577, 0x0a4b0, 0x0aa50, 0x1b255, 0x06d20, 0x0ada0, // 2040-2049
}

// YearEncoding describes the month structure of one lunar year.
type YearEncoding struct {
	Year            int      `json:"year"`
	LeapMonth       int      `json:"leap_month"` // 0 when the year has no leap month
	MonthIsLong     [12]bool `json:"month_is_long"`
	LeapMonthIsLong bool     `json:"leap_month_is_long"`
}

// unpackYear decodes one packed word.
func unpackYear(year int, word uint32) YearEncoding {
	enc := YearEncoding{
		Year:      year,
		LeapMonth: int(word & 0xf),
	}
	for m := 1; m <= 12; m++ {
		enc.MonthIsLong[m-1] = word&(0x10000>>uint(m)) != 0
	}
	if enc.LeapMonth != 0 {
		enc.LeapMonthIsLong = word&0x10000 != 0
	}
	return enc
}

// buildTable unpacks the full year table. It panics if the compiled-in
// data is malformed, since nothing else can be trusted at that point.
func buildTable() []YearEncoding {
	table := make([]YearEncoding, len(packedYears))
	for i, word := range packedYears {
		enc := unpackYear(MinYear+i, word)
		if enc.LeapMonth > 12 {
			panic(fmt.Sprintf("lunar: invalid leap month %d for year %d", enc.LeapMonth, enc.Year))
		}
		table[i] = enc
	}
	return table
}

// MonthDays returns the length of ordinary month m (1-12).
func (e YearEncoding) MonthDays(m int) int {
	if m < 1 || m > 12 {
		return 0
	}
	if e.MonthIsLong[m-1] {
		return 30
	}
	return 29
}

// LeapDays returns the length of the leap month, or 0 if there is none.
func (e YearEncoding) LeapDays() int {
	if e.LeapMonth == 0 {
		return 0
	}
	if e.LeapMonthIsLong {
		return 30
	}
	return 29
}

// HasLeapMonth reports whether the year contains an intercalary month.
func (e YearEncoding) HasLeapMonth() bool {
	return e.LeapMonth != 0
}

// TotalDays returns the number of days in the lunar year.
func (e YearEncoding) TotalDays() int {
	total := 0
	for m := 1; m <= 12; m++ {
		total += e.MonthDays(m)
	}
	return total + e.LeapDays()
}

// MonthSpan is one entry in a year's month sequence.
type MonthSpan struct {
	Month  int  `json:"month"`
	IsLeap bool `json:"is_leap"`
	Days   int  `json:"days"`
}

// Months returns the year's months in calendar order, with the leap month
// placed immediately after the ordinary month it duplicates.
func (e YearEncoding) Months() []MonthSpan {
	spans := make([]MonthSpan, 0, 13)
	for m := 1; m <= 12; m++ {
		spans = append(spans, MonthSpan{Month: m, Days: e.MonthDays(m)})
		if m == e.LeapMonth {
			spans = append(spans, MonthSpan{Month: m, IsLeap: true, Days: e.LeapDays()})
		}
	}
	return spans
}
