package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields は context 内の全ログに自動付与される項目です
type LogFields struct {
	RequestID     string // 受信リクエストごとのID
	SlackUserID   string // 操作したメンバー
	ChannelID     string
	Verb          string // スラッシュコマンドのサブコマンド
	Discriminator string // インタラクションの callback_id
	Component     string // "timebot.service.dispatcher" など
}

// WithLogFields は context にログ項目を追加します。
// 複数回呼ぶと項目がマージされ、空でない新しい値が優先されます
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	merged := mergeFields(GetLogFields(ctx), fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields は context のログ項目を返します。未設定なら空の LogFields
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, next LogFields) LogFields {
	result := existing
	if next.RequestID != "" {
		result.RequestID = next.RequestID
	}
	if next.SlackUserID != "" {
		result.SlackUserID = next.SlackUserID
	}
	if next.ChannelID != "" {
		result.ChannelID = next.ChannelID
	}
	if next.Verb != "" {
		result.Verb = next.Verb
	}
	if next.Discriminator != "" {
		result.Discriminator = next.Discriminator
	}
	if next.Component != "" {
		result.Component = next.Component
	}
	return result
}
