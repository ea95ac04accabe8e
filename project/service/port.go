package service

import (
	"context"
	"io"
	"time"

	"timebot/project/domain"
	"timebot/project/interaction"
)

// SlackProfile は users.info から取得するメンバー情報です
type SlackProfile struct {
	SlackUserID string
	Email       string
	FirstName   string
	LastName    string
	Phone       string

	// Admin はワークスペースのオーナー・管理者かどうか
	Admin bool
}

// SlackPort は Slack API 呼び出しのポートです
type SlackPort interface {
	// OpenDialog はダイアログを開きます。triggerID は一度しか使えません
	OpenDialog(ctx context.Context, triggerID string, d interaction.Dialog) error

	// PostMessage はチャンネルにメッセージを投稿します
	PostMessage(ctx context.Context, channelID string, r *interaction.Reply) error

	// PostEphemeral はチャンネル内で指定ユーザーにだけ見えるメッセージを投稿します
	PostEphemeral(ctx context.Context, channelID, userID string, r *interaction.Reply) error

	// PostDM は指定されたユーザーにDMを送信します
	PostDM(ctx context.Context, userID string, r *interaction.Reply) error

	// UploadFile は指定ユーザーのDMにファイルをアップロードします
	UploadFile(ctx context.Context, userID, filename, title string, content io.Reader) error

	// GetUserProfile はメンバー情報を取得します
	GetUserProfile(ctx context.Context, userID string) (*SlackProfile, error)
}

// TaskPort は Cloud Tasks へのジョブ予約のポートです
type TaskPort interface {
	// EnqueueCheckout は指定時刻に注文締め忘れ通知を実行するジョブをキューに登録します
	EnqueueCheckout(ctx context.Context, runAt time.Time, payload *TaskPayload) error
}

// CalendarPort は共有カレンダーへの休暇登録のポートです
type CalendarPort interface {
	// InsertEvent は終日イベントを登録し、イベントIDを返します
	InsertEvent(ctx context.Context, title string, r domain.DateRange) (string, error)

	// DeleteEvent はイベントを削除します
	DeleteEvent(ctx context.Context, eventID string) error
}

// ReportSheet はレポートの1メンバー分のデータです
type ReportSheet struct {
	User     domain.User
	Entries  []domain.TimeEntry
	FreeDays []domain.FreeDay
	Summary  domain.WorkSummary
}

// ReportPort はレポートファイル生成のポートです
type ReportPort interface {
	// Render はレポートを書き出します
	Render(w io.Writer, period domain.DateRange, sheets []ReportSheet) error
}

// ProjectCache はプロジェクト一覧のキャッシュです
type ProjectCache interface {
	// Get はキャッシュされた一覧を返します。キャッシュがなければ ok=false
	Get(ctx context.Context) (projects []domain.Project, ok bool, err error)

	// Set は一覧をキャッシュします
	Set(ctx context.Context, projects []domain.Project) error

	// Invalidate はキャッシュを破棄します
	Invalidate(ctx context.Context) error
}

// Clock は現在時刻の取得元です
type Clock interface {
	Now() time.Time
}

// SystemClock は time.Now を返す Clock です
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Stores はトランザクションに束縛されたリポジトリ群です
type Stores interface {
	Users() domain.UserRepository
	Projects() domain.ProjectRepository
	TimeEntries() domain.TimeEntryRepository
	FreeDays() domain.FreeDayRepository
	Food() domain.FoodRepository
}

// TxRunner は関数をトランザクション内で実行し、そのトランザクションに束縛された Stores を渡します。
// 検証と書き込みを同じトランザクションで行う操作に使用します
type TxRunner interface {
	WithTx(ctx context.Context, fn func(s Stores) error) error
}
