package domain

import (
	"fmt"
	"strings"
	"time"
)

// ClockTime は時刻（時・分）です
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClock は "HH:MM" を解析します
func ParseClock(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return ClockTime{}, fmt.Errorf("%w: 時刻の形式が不正です (%q)", ErrInvalid, s)
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// on は ref 日の loc における時刻を返します
func (c ClockTime) on(ref time.Time, loc *time.Location) time.Time {
	y, m, d := ref.In(loc).Date()
	return time.Date(y, m, d, c.Hour, c.Minute, 0, 0, loc)
}

// toUTC は loc の時刻を ref 日の UTC 時刻に変換します
func (c ClockTime) toUTC(ref time.Time, loc *time.Location) ClockTime {
	t := c.on(ref, loc).UTC()
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}
}

// ReminderSchedule は曜日（time.Weekday 順）ごとのリマインド時刻（UTC）です。nil は通知なし
type ReminderSchedule [7]*ClockTime

var weekdayKeys = map[string]time.Weekday{
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
	"sun": time.Sunday,
}

var workdays = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}

// DisplayOrder は月曜始まりの表示順です
var DisplayOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday,
}

// DefaultReminderSchedule は平日の local 時刻（loc 基準）に通知するスケジュールを返します
func DefaultReminderSchedule(local ClockTime, loc *time.Location, ref time.Time) ReminderSchedule {
	var s ReminderSchedule
	utc := local.toUTC(ref, loc)
	for _, d := range workdays {
		t := utc
		s[d] = &t
	}
	return s
}

// ParseReminderConfig はリマインド設定文字列を解析し、current に適用した結果を返します。
// 受け付ける形式: "HH:MM"（平日）, "off"（平日）, "mon:HH:MM;tue:off;..."
func ParseReminderConfig(cfg string, current ReminderSchedule, loc *time.Location, ref time.Time) (ReminderSchedule, error) {
	cfg = strings.ToLower(strings.TrimSpace(cfg))
	invalid := NewValidationFailure("reminder",
		fmt.Sprintf("Incorrect reminder format %q. Use e.g. 16:00, off or mon:16:00;tue:off", cfg))
	if cfg == "" {
		return current, invalid
	}

	parse := func(v string) (*ClockTime, error) {
		if v == "off" {
			return nil, nil
		}
		c, err := ParseClock(v)
		if err != nil {
			return nil, err
		}
		utc := c.toUTC(ref, loc)
		return &utc, nil
	}

	next := current
	if !strings.Contains(cfg, ";") && len(cfg) >= 3 {
		if _, named := weekdayKeys[cfg[:3]]; !named {
			t, err := parse(cfg)
			if err != nil {
				return current, invalid
			}
			for _, d := range workdays {
				next[d] = t
			}
			return next, nil
		}
	}

	for _, part := range strings.Split(cfg, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, ":")
		day, known := weekdayKeys[key]
		if !ok || !known {
			return current, invalid
		}
		t, err := parse(value)
		if err != nil {
			return current, invalid
		}
		next[day] = t
	}
	return next, nil
}

// Describe は loc における曜日ごとの時刻を "Monday 16:00" / "Sunday OFF" 形式で返します
func (s ReminderSchedule) Describe(loc *time.Location, ref time.Time) []string {
	lines := make([]string, 0, len(DisplayOrder))
	for _, d := range DisplayOrder {
		if s[d] == nil {
			lines = append(lines, d.String()+" OFF")
			continue
		}
		local := s[d].localOn(ref, loc)
		lines = append(lines, fmt.Sprintf("%s %02d:%02d", d, local.Hour(), local.Minute()))
	}
	return lines
}

// DueIn は now の loc における曜日の通知時刻が (now-window, now] に含まれるかを返します。
// 曜日は loc 基準で保存されているため、UTC では前日になる時刻も正しく判定します
func (s ReminderSchedule) DueIn(now time.Time, loc *time.Location, window time.Duration) bool {
	local := now.In(loc)
	// 窓が loc の日付をまたぐ場合に備えて前日も確認する
	for _, day := range []time.Time{local, local.AddDate(0, 0, -1)} {
		t := s[day.Weekday()]
		if t == nil {
			continue
		}
		at := t.localOn(day, loc)
		if at.After(now.Add(-window)) && !at.After(now) {
			return true
		}
	}
	return false
}

// localOn は UTC で保存された時刻を loc の時刻に戻し、day の loc における日付に置きます
func (c ClockTime) localOn(day time.Time, loc *time.Location) time.Time {
	lc := c.on(day, time.UTC).In(loc)
	y, m, d := day.In(loc).Date()
	return time.Date(y, m, d, lc.Hour(), lc.Minute(), 0, 0, loc)
}
