package dto

// SlackCommandRequest はスラッシュコマンドのフォームのうち使用する項目です
type SlackCommandRequest struct {
	TeamID      string `form:"team_id"`
	ChannelID   string `form:"channel_id"`
	ChannelName string `form:"channel_name"`
	UserID      string `form:"user_id"`
	UserName    string `form:"user_name"`
	Command     string `form:"command"` // コマンド名 (/tt など)
	Text        string `form:"text"`    // コマンド引数
	ResponseURL string `form:"response_url"`
	TriggerID   string `form:"trigger_id"` // dialog.open 用、3秒で失効
}
