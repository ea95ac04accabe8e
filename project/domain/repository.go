package domain

import (
	"context"
	"time"
)

// UserRepository はチームメンバーの永続化を担当します
type UserRepository interface {
	// GetBySlackID はSlackユーザーIDでメンバーを取得します
	// 存在しない場合は domain.ErrNotFound を返します
	GetBySlackID(ctx context.Context, slackUserID string) (*User, error)

	// GetByID は内部IDでメンバーを取得します
	// 存在しない場合は domain.ErrNotFound を返します
	GetByID(ctx context.Context, id int64) (*User, error)

	// Create はメンバーを登録します。同じSlackユーザーIDが既にある場合は何もしません
	// バリデーションエラー時は domain.ErrInvalid を返します
	Create(ctx context.Context, u *User) error

	// Lock はトランザクション内でメンバー行を排他ロックします。
	// 同一メンバーに対する検証と書き込みを直列化するために使用します
	Lock(ctx context.Context, id int64) error

	// List は全メンバーを返します
	List(ctx context.Context) ([]User, error)

	// UpdateReminders はリマインド時刻（UTC）を更新します
	UpdateReminders(ctx context.Context, id int64, s ReminderSchedule) error
}

// ProjectRepository はプロジェクトと担当割り当ての永続化を担当します
type ProjectRepository interface {
	// Create はプロジェクトを登録します。ID は呼び出し側で採番します
	Create(ctx context.Context, p *Project) error

	// Get はプロジェクトを取得します。存在しない場合は domain.ErrNotFound を返します
	Get(ctx context.Context, id int64) (*Project, error)

	// List は全プロジェクトを名前順で返します
	List(ctx context.Context) ([]Project, error)

	// ListForUser はメンバーに割り当てられたプロジェクトを返します
	ListForUser(ctx context.Context, userID int64) ([]Project, error)

	// Assign はメンバーをプロジェクトに割り当てます（冪等）
	Assign(ctx context.Context, userID, projectID int64) error

	// Unassign は割り当てを解除します（冪等）
	Unassign(ctx context.Context, userID, projectID int64) error
}

// TimeEntryRepository は作業時間記録の永続化を担当します
type TimeEntryRepository interface {
	// Create は記録を登録します。ID は呼び出し側で採番します
	Create(ctx context.Context, e *TimeEntry) error

	// Get は記録を取得します。存在しない場合は domain.ErrNotFound を返します
	Get(ctx context.Context, id int64) (*TimeEntry, error)

	// Delete は記録を削除します。存在しない場合は domain.ErrNotFound を返します
	Delete(ctx context.Context, id int64) error

	// SumForDate は指定日の作業時間合計を返します
	SumForDate(ctx context.Context, userID int64, date time.Time) (time.Duration, error)

	// List は期間内の記録を日付順で返します。
	// userID / projectID が 0 の場合は絞り込みません
	List(ctx context.Context, userID, projectID int64, r DateRange) ([]TimeEntry, error)

	// ListRecent はプロジェクトの直近の記録を新しい順に limit 件返します
	ListRecent(ctx context.Context, userID, projectID int64, limit int) ([]TimeEntry, error)

	// LastProjectID は最後に記録したプロジェクトのIDを返します。記録がなければ 0
	LastProjectID(ctx context.Context, userID int64) (int64, error)

	// ReportedUserIDs は指定日に記録のあるメンバーIDを返します
	ReportedUserIDs(ctx context.Context, date time.Time) ([]int64, error)
}

// FreeDayRepository は休暇・休日の永続化を担当します
type FreeDayRepository interface {
	// Create は申請を登録します。ID は呼び出し側で採番します
	Create(ctx context.Context, f *FreeDay) error

	// Get は申請を取得します。存在しない場合は domain.ErrNotFound を返します
	Get(ctx context.Context, id int64) (*FreeDay, error)

	// Delete は申請を削除します。存在しない場合は domain.ErrNotFound を返します
	Delete(ctx context.Context, id int64) error

	// SetEventID はカレンダーのイベントIDを保存します
	SetEventID(ctx context.Context, id int64, eventID string) error

	// ListEndingAfter は from 以降に終了する申請を開始日順で返します。kind が空なら全種類
	ListEndingAfter(ctx context.Context, userID int64, from time.Time, kind FreeDayKind) ([]FreeDay, error)

	// ListInRange は期間と重なる申請を返します
	ListInRange(ctx context.Context, userID int64, r DateRange) ([]FreeDay, error)

	// ListActiveOn は指定日が含まれる全メンバーの申請を返します
	ListActiveOn(ctx context.Context, date time.Time) ([]FreeDay, error)
}

// FoodRepository は食事注文と明細の永続化を担当します
type FoodRepository interface {
	// CreateOrder は注文を登録します。ID は呼び出し側で採番します
	CreateOrder(ctx context.Context, o *FoodOrder) error

	// GetOrder は注文を取得します。存在しない場合は domain.ErrNotFound を返します
	GetOrder(ctx context.Context, id int64) (*FoodOrder, error)

	// FindOpenOrder はチャンネルの指定日の未締切注文を返します
	// 存在しない場合は domain.ErrNotFound を返します
	FindOpenOrder(ctx context.Context, channelID string, date time.Time) (*FoodOrder, error)

	// Checkout は注文を締め切ります（冪等）
	Checkout(ctx context.Context, id int64) error

	// AddItem は明細を登録します。ID は呼び出し側で採番します
	AddItem(ctx context.Context, it *LineItem) error

	// ListItems は注文の明細を登録順で返します
	ListItems(ctx context.Context, orderID int64) ([]LineItem, error)

	// UnpaidItems は未払い明細と注文ID→注文者IDの対応を返します。
	// userID が 0 でなければ、そのメンバーが食べた人または注文者である明細に限定します。
	// トランザクション内では対象行をロックします
	UnpaidItems(ctx context.Context, userID int64) ([]LineItem, map[int64]int64, error)

	// MarkPaid は未払いの明細を支払い済みにし、更新件数を返します。支払い済みの行は変更しません
	MarkPaid(ctx context.Context, ids []int64) (int64, error)

	// OrderChannels は since 以降に注文があったチャンネルを返します
	OrderChannels(ctx context.Context, since time.Time) ([]string, error)
}

// OAuthToken はカレンダー連携のOAuthトークンです
type OAuthToken struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Expiry       time.Time
	UpdatedAt    time.Time
}

// TokenRepository はカレンダー連携のOAuthトークンの永続化を担当します
type TokenRepository interface {
	// Get はトークンを取得します。存在しない場合は domain.ErrNotFound を返します
	Get(ctx context.Context, key string) (*OAuthToken, error)

	// Save はトークンを保存します。既存レコードは上書きします
	Save(ctx context.Context, key string, t *OAuthToken) error
}
