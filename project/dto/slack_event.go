package dto

// SlackEventRequest は Slack Events API のリクエストです
type SlackEventRequest struct {
	Type      string     `json:"type"` // "event_callback", "url_verification"
	TeamID    string     `json:"team_id"`
	Event     SlackEvent `json:"event"`
	EventID   string     `json:"event_id"`
	Challenge string     `json:"challenge,omitempty"` // URL検証時のみ
}

// SlackEvent は app_mention などのイベント本体です
type SlackEvent struct {
	Type      string `json:"type"`
	User      string `json:"user"`
	Text      string `json:"text"`
	Channel   string `json:"channel"`
	Timestamp string `json:"ts"`
	ThreadTs  string `json:"thread_ts,omitempty"` // スレッド内の場合
	BotID     string `json:"bot_id,omitempty"`
	SubType   string `json:"subtype,omitempty"`
}
