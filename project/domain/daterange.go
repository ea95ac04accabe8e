package domain

import (
	"fmt"
	"time"
)

// DateLayout は日付入力の形式です
const DateLayout = "2006-01-02"

// DateRange は開始日・終了日を含む期間です（Start <= End）
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseDate は YYYY-MM-DD を UTC の 0 時として解析します
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: 日付の形式が不正です (%q)", ErrInvalid, s)
	}
	return t, nil
}

// DateOf は t の暦日を UTC の 0 時で返します
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Contains は d が期間内（両端を含む）にあるかを返します
func (r DateRange) Contains(d time.Time) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// Days は期間の日数を返します
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

func (r DateRange) String() string {
	return r.Start.Format(DateLayout) + " .. " + r.End.Format(DateLayout)
}

// Overlaps は candidate と衝突する既存期間を返します。
// 一方の端点がもう一方の期間内（境界を含む）にあれば衝突とみなします
func Overlaps(candidate DateRange, existing []DateRange) []DateRange {
	var conflicts []DateRange
	for _, e := range existing {
		if e.Contains(candidate.Start) || e.Contains(candidate.End) ||
			candidate.Contains(e.Start) || candidate.Contains(e.End) {
			conflicts = append(conflicts, e)
		}
	}
	return conflicts
}

// ValidateFreeDays は休暇申請の期間を検証します。
// 開始日が now より後であること、終了日が開始日以降であること、既存期間と衝突しないことを
// それぞれ独立に検査し、start_date / end_date に紐づいたエラーを返します
func ValidateFreeDays(candidate DateRange, existing []DateRange, now time.Time) error {
	vf := &ValidationFailure{}

	if !candidate.Start.After(now) {
		vf.Add("start_date", "Free days must start in the future")
	}
	if candidate.End.Before(candidate.Start) {
		vf.Add("end_date", "End date must not be lower than start date")
	}

	for _, e := range Overlaps(candidate, existing) {
		switch {
		case e.Contains(candidate.Start):
			vf.Add("start_date", fmt.Sprintf("Free days must not start within other free days. Conflicting: %s", e))
		case e.Contains(candidate.End):
			vf.Add("end_date", fmt.Sprintf("Free days must not end within other free days. Conflicting: %s", e))
		default:
			// candidate が既存期間を包含している
			vf.Add("start_date", fmt.Sprintf("Free days must not enclose other free days. Conflicting: %s", e))
		}
	}

	return vf.Err()
}
