package service

// Command はスラッシュコマンドの入力を表します
type Command struct {
	// Name はコマンド名（/tt など）
	Name string

	// Text はコマンド引数
	Text string

	// UserID は実行したユーザーのSlackユーザーID
	UserID   string
	UserName string

	// ChannelID はコマンドが実行されたチャンネルのID
	ChannelID   string
	ChannelName string

	TeamID string

	// TriggerID はダイアログを開くためのID（数秒で失効）
	TriggerID string

	// ResponseURL は遅延応答用のURL
	ResponseURL string
}

// TaskPayload はCloud Tasksのジョブペイロードを表します
type TaskPayload struct {
	// OrderID は締め忘れを確認する注文のID
	OrderID int64 `json:"order_id"`

	// ChannelID は注文が作成されたチャンネルのID
	ChannelID string `json:"channel_id"`
}
