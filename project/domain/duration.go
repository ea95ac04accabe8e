package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultDailyLimit は1日に登録できる作業時間の上限です（入力ミス検出用）
const DefaultDailyLimit = 20 * time.Hour

// MaxSubmissionHours は1回の登録で指定できる時間の上限です
const MaxSubmissionHours = 12

// CheckCap は既存の合計に toAdd を加えたときに limit を超えるかを判定します。
// 超える場合は超過分と false を返します。部分的な受け入れ（切り詰め）はしません
func CheckCap(already, toAdd, limit time.Duration) (exceedsBy time.Duration, ok bool) {
	total := already + toAdd
	if total > limit {
		return total - limit, false
	}
	return 0, true
}

// SumDurations は作業時間の合計を返します
func SumDurations(entries []TimeEntry) time.Duration {
	var total time.Duration
	for _, e := range entries {
		total += e.Duration
	}
	return total
}

// ParseHours は時間入力（0〜12の整数）を解析します
func ParseHours(s string) (int, error) {
	h, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || h < 0 || h > MaxSubmissionHours {
		return 0, fmt.Errorf("%w: Use integers, e.g. 2 up to %d", ErrInvalid, MaxSubmissionHours)
	}
	return h, nil
}

// ParseMinutes は分入力（0|15|30|45）を解析します
func ParseMinutes(s string) (int, error) {
	m, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || m < 0 || m >= 60 || m%15 != 0 {
		return 0, fmt.Errorf("%w: Use integers 0|15|30|45 only", ErrInvalid)
	}
	return m, nil
}

// FormatHours は作業時間を "1.5" のような時間表記にします
func FormatHours(d time.Duration) string {
	return strconv.FormatFloat(d.Hours(), 'f', -1, 64)
}
