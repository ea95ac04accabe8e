package interaction

import (
	"context"
	"time"

	"timebot/project/domain"
)

// 判別子（callback_id）。発行済みのUIとの互換のため変更しないこと
const (
	CallbackTimeSubmission = "time_reporting_form"
	CallbackReport         = "report_generate_form"
	CallbackList           = "list_command"
	CallbackDelete         = "delete_command"
	CallbackFreeDays       = "request_free_days"
	CallbackProject        = "project_admin"
	CallbackReminder       = "remind_time_report_btn"
	CallbackFoodOrder      = "food_order"
	CallbackFoodOrderForm  = "food_order_form"
	CallbackDebt           = "food_debt"
)

// Token の flow 名
const (
	FlowReport   = "report"
	FlowList     = "list"
	FlowDelete   = "delete"
	FlowFreeDays = "freedays"
	FlowProject  = "project"
	FlowRemind   = "remind"
	FlowFood     = "food"
	FlowDebt     = "debt"
)

// 確認ボタンの値
const (
	ValueRemove = "remove"
	ValueCancel = "cancel"
	ValueOrder  = "order"
	ValuePass   = "pass"
	ValuePaid   = "paid"
)

// Envelope は全ペイロード共通のフィールドです
type Envelope struct {
	Discriminator string
	Type          string
	TeamID        string
	UserID        string
	UserName      string
	ChannelID     string
	TriggerID     string
	ResponseURL   string
	ActionTS      string
	MessageTS     string
}

// Payload は Resolve が返す型付きペイロードです。
// Accept は対応する Handler のメソッドを呼び出します
type Payload interface {
	Meta() *Envelope
	Accept(ctx context.Context, h Handler) (*Reply, error)
}

// Handler は全ペイロードの処理を実装します。
// ペイロードを追加した場合はここにメソッドを追加し、実装漏れをコンパイル時に検出します
type Handler interface {
	HandleTimeSubmission(ctx context.Context, p *TimeSubmission) (*Reply, error)
	HandleReportRequest(ctx context.Context, p *ReportRequest) (*Reply, error)
	HandleListRequest(ctx context.Context, p *ListRequest) (*Reply, error)
	HandleDeleteRequest(ctx context.Context, p *DeleteRequest) (*Reply, error)
	HandleFreeDaysRequest(ctx context.Context, p *FreeDaysRequest) (*Reply, error)
	HandleProjectAction(ctx context.Context, p *ProjectAction) (*Reply, error)
	HandleReminderButton(ctx context.Context, p *ReminderButton) (*Reply, error)
	HandleFoodOrderPrompt(ctx context.Context, p *FoodOrderPrompt) (*Reply, error)
	HandleFoodOrderForm(ctx context.Context, p *FoodOrderForm) (*Reply, error)
	HandleDebtPayment(ctx context.Context, p *DebtPayment) (*Reply, error)
}

func (e *Envelope) Meta() *Envelope { return e }

// TimeSubmission は作業時間登録ダイアログの送信です
type TimeSubmission struct {
	Envelope
	ProjectID int64
	Day       time.Time
	Hours     int
	Minutes   int
	Comment   string
}

// Duration は登録する作業時間を返します
func (p *TimeSubmission) Duration() time.Duration {
	return time.Duration(p.Hours)*time.Hour + time.Duration(p.Minutes)*time.Minute
}

func (p *TimeSubmission) Accept(ctx context.Context, h Handler) (*Reply, error) {
	return h.HandleTimeSubmission(ctx, p)
}

// ReportRequest はレポート生成ダイアログの送信です
type ReportRequest struct {
	Envelope

	// ProjectID が 0 なら全プロジェクト
	ProjectID int64
	Period    domain.DateRange

	// TargetUserID は対象メンバーのSlackユーザーID。空なら全メンバー
	TargetUserID string
}

func (p *ReportRequest) Accept(ctx context.Context, h Handler) (*Reply, error) {
	return h.HandleReportRequest(ctx, p)
}

// ListRequest は一覧の期間選択です
type ListRequest struct {
	Envelope
	TargetUserID string
	Range        domain.TimeRange
}

func (p *ListRequest) Accept(ctx context.Context, h Handler) (*Reply, error) {
	return h.HandleListRequest(ctx, p)
}

// 削除フローのステップ
const (
	DeleteStepProject = 1
	DeleteStepEntry   = 2
	DeleteStepConfirm = 3
)

// DeleteRequest は作業時間削除フローの1ステップです
type DeleteRequest struct {
	Envelope
	Step      int
	ProjectID int64
	EntryID   int64
	Confirmed bool
}

func (p *DeleteRequest) Accept(ctx context.Context, h Handler) (*Reply, error) {
	return h.HandleDeleteRequest(ctx, p)
}

// 休暇フローのステップ
const (
	FreeDaysStepSubmit  = 0
	FreeDaysStepSelect  = 1
	FreeDaysStepConfirm = 2
)

// FreeDaysRequest は休暇申請ダイアログの送信、または休暇削除フローの1ステップです
type FreeDaysRequest struct {
	Envelope
	Step      int
	Kind      domain.FreeDayKind
	Range     domain.DateRange
	Reason    string
	FreeDayID int64
	Confirmed bool
}

func (p *FreeDaysRequest) Accept(ctx context.Context, h Handler) (*Reply, error) {
	return h.HandleFreeDaysRequest(ctx, p)
}

// プロジェクト管理の操作
const (
	ProjectCreate   = "create"
	ProjectAssign   = "assign"
	ProjectUnassign = "unassign"
)

// ProjectAction はプロジェクト作成ダイアログの送信、または割り当てフローの1ステップです
type ProjectAction struct {
	Envelope
	Op   string
	Step int

	// Name は作成するプロジェクト名
	Name string

	// MemberID は対象メンバーのSlackユーザーID
	MemberID  string
	ProjectID int64
}

func (p *ProjectAction) Accept(ctx context.Context, h Handler) (*Reply, error) {
	return h.HandleProjectAction(ctx, p)
}

// ReminderButton はリマインドDMの「Report」ボタンです
type ReminderButton struct {
	Envelope
	Day time.Time
}

func (p *ReminderButton) Accept(ctx context.Context, h Handler) (*Reply, error) {
	return h.HandleReminderButton(ctx, p)
}

// FoodOrderPrompt は注文案内の「order」/「pass」ボタンです
type FoodOrderPrompt struct {
	Envelope
	OrderID int64
	Order   bool
}

func (p *FoodOrderPrompt) Accept(ctx context.Context, h Handler) (*Reply, error) {
	return h.HandleFoodOrderPrompt(ctx, p)
}

// FoodOrderForm は注文内容ダイアログの送信です
type FoodOrderForm struct {
	Envelope
	OrderID     int64
	Description string
	Cost        domain.Money
}

func (p *FoodOrderForm) Accept(ctx context.Context, h Handler) (*Reply, error) {
	return h.HandleFoodOrderForm(ctx, p)
}

// DebtPayment は「I just paid」ボタンです
type DebtPayment struct {
	Envelope

	// CreditorID は支払い先メンバーの内部ID
	CreditorID int64
}

func (p *DebtPayment) Accept(ctx context.Context, h Handler) (*Reply, error) {
	return h.HandleDebtPayment(ctx, p)
}
