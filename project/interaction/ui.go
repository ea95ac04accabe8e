package interaction

import "timebot/project/domain"

// ResponseType はスラッシュコマンド応答の公開範囲です
type ResponseType string

const (
	Ephemeral ResponseType = "ephemeral"
	InChannel ResponseType = "in_channel"
)

// ActionType はメッセージ添付のアクション種別です
type ActionType string

const (
	ActionButton ActionType = "button"
	ActionSelect ActionType = "select"
)

// Reply はコマンド・インタラクションへの応答の記述です。
// Slack の形式への変換は infrastructure/slack が担当します。nil は空の 200 応答を表します
type Reply struct {
	ResponseType    ResponseType
	Text            string
	Attachments     []Attachment
	ReplaceOriginal bool
	DeleteOriginal  bool

	// ThreadTS が空でなければスレッドに投稿します（PostMessage のみ）
	ThreadTS string

	// Errors はダイアログのフィールド単位のエラー、またはコマンドの検証エラー
	Errors []domain.FieldError
}

// Attachment はメッセージ添付です
type Attachment struct {
	// CallbackID は次のインタラクションで Resolve に使われる識別子
	CallbackID string
	Text       string
	Fallback   string
	Color      string
	Footer     string
	Actions    []Action
	Fields     []Field
}

// Field は添付内の見出し付きテキストです
type Field struct {
	Title string
	Value string
	Short bool
}

// Action はボタンまたはセレクトです。Name / Value には Token を埋め込みます
type Action struct {
	Name       string
	Text       string
	Type       ActionType
	Value      string
	Style      string
	DataSource string
	Options    []Option

	// Selected は初期選択値
	Selected string

	// Confirm が空でなければ実行前に確認を表示します
	Confirm string
}

// Option はセレクトの選択肢です
type Option struct {
	Label string
	Value string
}

// ElementType はダイアログ入力要素の種別です
type ElementType string

const (
	ElementText     ElementType = "text"
	ElementTextArea ElementType = "textarea"
	ElementSelect   ElementType = "select"
)

// Dialog はモーダルダイアログの記述です
type Dialog struct {
	CallbackID  string
	Title       string
	SubmitLabel string

	// State は送信時にそのまま返される値。Token を埋め込みます
	State    string
	Elements []Element
}

// Element はダイアログの入力要素です
type Element struct {
	Type        ElementType
	Name        string
	Label       string
	Value       string
	Placeholder string
	Hint        string
	Optional    bool
	MaxLength   int
	DataSource  string
	Options     []Option
}

// EphemeralText は本人にだけ表示するテキスト応答を返します
func EphemeralText(text string) *Reply {
	return &Reply{ResponseType: Ephemeral, Text: text}
}

// FieldErrors は検証エラー応答を返します
func FieldErrors(errs []domain.FieldError) *Reply {
	return &Reply{ResponseType: Ephemeral, Errors: errs}
}
