package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role はユーザーの権限です
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// チームメンバー（Slackユーザーと1対1）
type User struct {
	// ID は内部ID（Snowflake）
	ID int64

	// SlackUserID はSlackのユーザーID
	SlackUserID string

	Email     string
	FirstName string
	LastName  string

	// Phone は立替精算（BLIK）の案内に表示する電話番号。空なら非表示
	Phone string

	Role Role

	// Reminders は曜日ごとのリマインド時刻（UTC）
	Reminders ReminderSchedule

	CreatedAt time.Time
}

// Name は表示名を返します
func (u User) Name() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// IsAdmin は管理者かどうかを返します
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// 作業時間を記録するプロジェクト
type Project struct {
	ID   int64
	Name string
}

// 1件の作業時間記録
type TimeEntry struct {
	ID          int64
	UserID      int64
	ProjectID   int64
	ProjectName string
	Duration    time.Duration
	Comment     string

	// ReportDate は作業日（UTC の 0 時）
	ReportDate time.Time

	CreatedAt time.Time
}

// FreeDayKind は休暇の種類です
type FreeDayKind string

const (
	KindVacation FreeDayKind = "vacation"
	KindDayOff   FreeDayKind = "dayoff"
)

// Valid は既知の種類かどうかを返します
func (k FreeDayKind) Valid() bool {
	return k == KindVacation || k == KindDayOff
}

// 休暇・休日の申請
type FreeDay struct {
	ID     int64
	UserID int64
	Kind   FreeDayKind
	Range  DateRange
	Reason string

	// EventID は共有カレンダーに登録したイベントのID。未登録なら空
	EventID string

	CreatedAt time.Time
}

// チャンネル単位・日単位の食事注文
type FoodOrder struct {
	ID             int64
	OrderingUserID int64
	OrderDate      time.Time
	Link           string
	ChannelID      string

	// CheckedOut は注文が締め切られたかどうか
	CheckedOut bool

	CreatedAt time.Time
}

// 注文の明細（誰が何をいくらで食べたか）
type LineItem struct {
	ID           int64
	OrderID      int64
	EatingUserID int64
	Description  string
	Cost         Money
	Paid         bool

	// Surrender は「今日は注文しない」を表す明細（金額 0）
	Surrender bool

	CreatedAt time.Time
}

// Validate はUserの必須項目を検証します
func (u User) Validate() error {
	if u.ID <= 0 {
		return fmt.Errorf("%w: IDは0より大きい必要があります", ErrInvalid)
	}
	if strings.TrimSpace(u.SlackUserID) == "" {
		return fmt.Errorf("%w: SlackUserIDは必須項目です", ErrInvalid)
	}
	if u.Role != RoleAdmin && u.Role != RoleUser {
		return fmt.Errorf("%w: Roleが不正です (%q)", ErrInvalid, u.Role)
	}
	return nil
}

// Validate はProjectの必須項目を検証します
func (p Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: Nameは必須項目です", ErrInvalid)
	}
	return nil
}

// Validate はTimeEntryの必須項目を検証します
func (e TimeEntry) Validate() error {
	if e.UserID <= 0 || e.ProjectID <= 0 {
		return fmt.Errorf("%w: UserIDとProjectIDは必須項目です", ErrInvalid)
	}
	if e.Duration <= 0 {
		return fmt.Errorf("%w: Durationは0より大きい必要があります", ErrInvalid)
	}
	if e.ReportDate.IsZero() {
		return fmt.Errorf("%w: ReportDateは必須項目です", ErrInvalid)
	}
	return nil
}

// Validate はFreeDayの必須項目を検証します
func (f FreeDay) Validate() error {
	if f.UserID <= 0 {
		return fmt.Errorf("%w: UserIDは必須項目です", ErrInvalid)
	}
	if !f.Kind.Valid() {
		return fmt.Errorf("%w: Kindが不正です (%q)", ErrInvalid, f.Kind)
	}
	if f.Range.End.Before(f.Range.Start) {
		return fmt.Errorf("%w: 終了日が開始日より前です", ErrInvalid)
	}
	return nil
}

// Validate はFoodOrderの必須項目を検証します
func (o FoodOrder) Validate() error {
	if o.OrderingUserID <= 0 {
		return fmt.Errorf("%w: OrderingUserIDは必須項目です", ErrInvalid)
	}
	if strings.TrimSpace(o.ChannelID) == "" {
		return fmt.Errorf("%w: ChannelIDは必須項目です", ErrInvalid)
	}
	if strings.TrimSpace(o.Link) == "" {
		return fmt.Errorf("%w: Linkは必須項目です", ErrInvalid)
	}
	return nil
}

// Validate はLineItemの必須項目を検証します
func (i LineItem) Validate() error {
	if i.OrderID <= 0 || i.EatingUserID <= 0 {
		return fmt.Errorf("%w: OrderIDとEatingUserIDは必須項目です", ErrInvalid)
	}
	if i.Cost < 0 {
		return fmt.Errorf("%w: Costは0以上である必要があります", ErrInvalid)
	}
	return nil
}
