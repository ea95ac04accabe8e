package domain

import (
	"fmt"
	"time"
)

// TimeRange は一覧表示の期間指定です
type TimeRange string

const (
	RangeToday      TimeRange = "today"
	RangeYesterday  TimeRange = "yesterday"
	RangeThisWeek   TimeRange = "this_week"
	RangePrevWeek   TimeRange = "prev_week"
	RangeThis2Weeks TimeRange = "this_2_weeks"
	RangePrev2Weeks TimeRange = "prev_2_weeks"
	RangeThisMonth  TimeRange = "this_month"
	RangePrevMonth  TimeRange = "prev_month"
)

var timeRangeLabels = map[TimeRange]string{
	RangeToday:      "Today",
	RangeYesterday:  "Yesterday",
	RangeThisWeek:   "This week",
	RangePrevWeek:   "Previous week",
	RangeThis2Weeks: "This 2 weeks",
	RangePrev2Weeks: "Previous 2 weeks",
	RangeThisMonth:  "This month",
	RangePrevMonth:  "Previous month",
}

// TimeRanges は選択肢の表示順です
func TimeRanges() []TimeRange {
	return []TimeRange{
		RangeToday, RangeYesterday, RangeThisWeek, RangePrevWeek,
		RangeThis2Weeks, RangePrev2Weeks, RangeThisMonth, RangePrevMonth,
	}
}

// ParseTimeRange は期間指定を解析します
func ParseTimeRange(s string) (TimeRange, error) {
	r := TimeRange(s)
	if _, ok := timeRangeLabels[r]; !ok {
		return "", fmt.Errorf("%w: 不明な期間指定です (%q)", ErrInvalid, s)
	}
	return r, nil
}

// Label は表示名を返します
func (r TimeRange) Label() string {
	return timeRangeLabels[r]
}

// Bounds は base 日を基準とした期間を返します。週は月曜始まり、終了日は base を超えません
func (r TimeRange) Bounds(base time.Time) DateRange {
	base = DateOf(base)
	weekday := (int(base.Weekday()) + 6) % 7
	monday := base.AddDate(0, 0, -weekday)

	var start, end time.Time
	switch r {
	case RangeYesterday:
		start = base.AddDate(0, 0, -1)
		end = start
	case RangeThisWeek:
		start = monday
		end = start.AddDate(0, 0, 6)
	case RangePrevWeek:
		start = monday.AddDate(0, 0, -7)
		end = start.AddDate(0, 0, 6)
	case RangeThis2Weeks:
		start = monday.AddDate(0, 0, -7)
		end = start.AddDate(0, 0, 13)
	case RangePrev2Weeks:
		start = monday.AddDate(0, 0, -14)
		end = start.AddDate(0, 0, 13)
	case RangeThisMonth:
		start = time.Date(base.Year(), base.Month(), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, -1)
	case RangePrevMonth:
		start = time.Date(base.Year(), base.Month()-1, 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, -1)
	default:
		start, end = base, base
	}

	if end.After(base) {
		end = base
	}
	return DateRange{Start: start, End: end}
}
