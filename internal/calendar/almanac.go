package calendar

import (
	"fmt"
	"time"

	"github.com/zapponejosh/lunar-almanac/internal/lunar"
)

// Daily recommendation pools. Picks are deterministic per solar date.
var (
	suitItems  = []string{"祈福", "纳采", "祭祀", "开光", "求嗣", "出行", "安床", "修造", "入宅", "动土"}
	avoidItems = []string{"忧虑", "动土", "修造", "词讼", "安葬", "破土", "伐木", "行丧", "挂匾", "纳畜"}
)

// Reminder days: the new moon and full moon of each lunar month.
const (
	newMoonDay  = 1
	fullMoonDay = 15
)

// Almanac is the data behind one day of the calendar widget.
type Almanac struct {
	Date          string          `json:"date"` // YYYY-MM-DD
	Weekday       string          `json:"weekday"`
	Lunar         lunar.LunarDate `json:"lunar"`
	YearLabel     string          `json:"year_label"`      // e.g. "甲辰年"
	DateLabel     string          `json:"date_label"`      // e.g. "正月初一"
	Highlight     string          `json:"highlight"`       // solar term, or "生肖:龙"
	Suit          string          `json:"suit"`            // 宜
	Avoid         string          `json:"avoid"`           // 忌
	Reminder      bool            `json:"reminder"`        // lunar 初一 or 十五
	ReminderLabel string          `json:"reminder_label,omitempty"`
}

// Converter is the subset of lunar.Converter the almanac needs.
// This allows tests to substitute a fake.
type Converter interface {
	FromTime(t time.Time) (lunar.LunarDate, error)
}

// AlmanacBuilder assembles Almanac values.
type AlmanacBuilder struct {
	conv Converter
}

// NewAlmanacBuilder creates a builder backed by conv.
func NewAlmanacBuilder(conv Converter) *AlmanacBuilder {
	return &AlmanacBuilder{conv: conv}
}

// Build returns the almanac for the calendar date of t (in t's location).
func (b *AlmanacBuilder) Build(t time.Time) (*Almanac, error) {
	ld, err := b.conv.FromTime(t)
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", FormatDate(t), err)
	}

	y, m, d := t.Date()
	seed := y*10000 + int(m)*100 + d

	a := &Almanac{
		Date:      FormatDate(t),
		Weekday:   WeekdayName(t),
		Lunar:     ld,
		YearLabel: ld.StemBranchYear + "年",
		DateLabel: ld.MonthLabel + ld.DayLabel,
		Suit:      pick(suitItems, seed),
		Avoid:     pick(avoidItems, seed+1),
	}

	// Solar term takes precedence over the zodiac fallback.
	if ld.SolarTerm != "" {
		a.Highlight = ld.SolarTerm
	} else {
		a.Highlight = "生肖:" + ld.Zodiac
	}

	if ld.Day == newMoonDay || ld.Day == fullMoonDay {
		a.Reminder = true
		a.ReminderLabel = lunar.DayLabel(ld.Day)
	}

	return a, nil
}

// Range builds almanacs for every day from start to end inclusive.
func (b *AlmanacBuilder) Range(start, end time.Time) ([]*Almanac, error) {
	if err := ValidateRange(start, end); err != nil {
		return nil, err
	}

	days := lunar.DaysBetween(start, end)
	results := make([]*Almanac, 0, days+1)
	for i := 0; i <= days; i++ {
		a, err := b.Build(start.AddDate(0, 0, i))
		if err != nil {
			return nil, err
		}
		results = append(results, a)
	}
	return results, nil
}

// pick selects an item using three rounds of a small linear congruential
// generator seeded from the date.
func pick(items []string, seed int) string {
	s := int64(seed)
	for i := 0; i < 3; i++ {
		s = (s*9301 + 49297) % 233280
	}
	return items[s*int64(len(items))/233280]
}
