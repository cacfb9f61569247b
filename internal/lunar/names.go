package lunar

var (
	heavenlyStems   = [10]string{"甲", "乙", "丙", "丁", "戊", "己", "庚", "辛", "壬", "癸"}
	earthlyBranches = [12]string{"子", "丑", "寅", "卯", "辰", "巳", "午", "未", "申", "酉", "戌", "亥"}
	zodiacAnimals   = [12]string{"鼠", "牛", "虎", "兔", "龙", "蛇", "马", "羊", "猴", "鸡", "狗", "猪"}

	monthNames = [12]string{"正月", "二月", "三月", "四月", "五月", "六月", "七月", "八月", "九月", "十月", "冬月", "腊月"}

	dayDigits = [10]string{"日", "一", "二", "三", "四", "五", "六", "七", "八", "九"}
	dayTens   = [4]string{"初", "十", "廿", "卅"}
)

// LeapPrefix is prepended to the label of an intercalary month.
const LeapPrefix = "闰"

// mod returns the non-negative remainder of a / n.
func mod(a, n int) int {
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}

// ZodiacAnimal returns the zodiac animal for a lunar year.
func ZodiacAnimal(year int) string {
	return zodiacAnimals[mod(year-4, 12)]
}

// StemBranchYear returns the sexagenary name of a lunar year.
// 1900 is 庚子.
func StemBranchYear(year int) string {
	offset := year - MinYear
	return heavenlyStems[mod(offset+6, 10)] + earthlyBranches[mod(offset, 12)]
}

// MonthLabel returns the display name of a lunar month, e.g. "正月" or "闰二月".
func MonthLabel(month int, leap bool) string {
	if month < 1 || month > 12 {
		return ""
	}
	if leap {
		return LeapPrefix + monthNames[month-1]
	}
	return monthNames[month-1]
}

// DayLabel returns the display name of a lunar day, e.g. "初一", "廿三".
func DayLabel(day int) string {
	switch {
	case day < 1 || day > 30:
		return ""
	case day == 10:
		return "初十"
	case day == 20:
		return "二十"
	case day == 30:
		return "三十"
	}
	return dayTens[day/10] + dayDigits[day%10]
}
