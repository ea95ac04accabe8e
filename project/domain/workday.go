package domain

import "time"

// StandardWorkday は1日の所定労働時間です
const StandardWorkday = 8 * time.Hour

// easter はグレゴリオ暦の復活祭の日付を返します（Meeus/Jones/Butcher 法）
func easter(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// IsHoliday はポーランドの祝日かどうかを返します
func IsHoliday(day time.Time) bool {
	day = DateOf(day)
	y := day.Year()
	fixed := []struct {
		m time.Month
		d int
	}{
		{time.January, 1}, {time.January, 6}, {time.May, 1}, {time.May, 3},
		{time.August, 15}, {time.November, 1}, {time.November, 11},
		{time.December, 25}, {time.December, 26},
	}
	for _, f := range fixed {
		if day.Month() == f.m && day.Day() == f.d {
			return true
		}
	}
	return day.Equal(easter(y).AddDate(0, 0, 1))
}

// IsNonWorkingDay は土日または祝日かどうかを返します
func IsNonWorkingDay(day time.Time) bool {
	wd := day.Weekday()
	return wd == time.Saturday || wd == time.Sunday || IsHoliday(day)
}

// WorkSummary は期間内の所定内・残業・不足時間の集計です
type WorkSummary struct {
	Total    time.Duration
	Basic    time.Duration
	Overtime time.Duration
	Deficit  time.Duration
}

// Summarize は期間内の作業時間を集計します。
// 平日かつ休暇でない日は8時間を所定とし、超過分は残業、不足分は不足として残業と相殺します
func Summarize(period DateRange, entries []TimeEntry, freeDays []DateRange) WorkSummary {
	perDay := map[time.Time]time.Duration{}
	for _, e := range entries {
		perDay[DateOf(e.ReportDate)] += e.Duration
	}

	var s WorkSummary
	var overtime, deficit time.Duration
	for day := period.Start; !day.After(period.End); day = day.AddDate(0, 0, 1) {
		reported := perDay[day]
		s.Total += reported

		var basic time.Duration
		if !IsNonWorkingDay(day) && !onFreeDay(day, freeDays) {
			basic = min(reported, StandardWorkday)
			deficit += StandardWorkday - basic
		}
		overtime += reported - basic
		s.Basic += basic
	}

	if overtime > deficit {
		s.Overtime = overtime - deficit
		s.Basic += deficit
	} else {
		s.Deficit = deficit - overtime
		s.Basic += overtime
	}
	return s
}

func onFreeDay(day time.Time, freeDays []DateRange) bool {
	for _, r := range freeDays {
		if r.Contains(day) {
			return true
		}
	}
	return false
}

// OnFreeDay は day がいずれかの休暇期間に含まれるかを返します
func OnFreeDay(day time.Time, freeDays []FreeDay) bool {
	for _, f := range freeDays {
		if f.Range.Contains(DateOf(day)) {
			return true
		}
	}
	return false
}
