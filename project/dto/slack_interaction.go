package dto

// SlackInteractionPayload は interactive_message / dialog_submission の payload フィールドです
type SlackInteractionPayload struct {
	Type        string               `json:"type"` // "interactive_message", "dialog_submission"
	CallbackID  string               `json:"callback_id"`
	Token       string               `json:"token"`
	ActionTS    string               `json:"action_ts"`
	MessageTS   string               `json:"message_ts,omitempty"`
	Team        SlackTeam            `json:"team"`
	User        SlackInteractionUser `json:"user"`
	Channel     SlackInteractionChan `json:"channel"`
	ResponseURL string               `json:"response_url"`
	TriggerID   string               `json:"trigger_id,omitempty"`
	Actions     []SlackAction        `json:"actions,omitempty"`
	Submission  map[string]*string   `json:"submission,omitempty"` // ダイアログ送信時のみ。未入力の任意項目は null
	State       string               `json:"state,omitempty"`      // ダイアログ作成時に渡した値
}

// SlackInteractionUser は操作したユーザーです
type SlackInteractionUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SlackInteractionChan は操作が行われたチャンネルです
type SlackInteractionChan struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SlackAction は押されたボタン・選択されたセレクトです
type SlackAction struct {
	Name            string              `json:"name"`
	Type            string              `json:"type"` // "button", "select"
	Value           string              `json:"value,omitempty"`
	SelectedOptions []SlackActionOption `json:"selected_options,omitempty"`
}

// SlackActionOption はセレクトの選択値です
type SlackActionOption struct {
	Value string `json:"value"`
}

// SlackTeam は操作が行われたワークスペースです
type SlackTeam struct {
	ID     string `json:"id"`
	Domain string `json:"domain"`
}
