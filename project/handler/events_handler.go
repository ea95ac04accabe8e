package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"timebot/project/dto"
	"timebot/project/infrastructure/httpsec"
	"timebot/project/infrastructure/logger"
	"timebot/project/interaction"
	"timebot/project/service"
)

// MessagePoster はチャンネルへの投稿のポートです
type MessagePoster interface {
	PostMessage(ctx context.Context, channelID string, r *interaction.Reply) error
}

// EventsHandler は Slack Events API からのイベントを処理します
type EventsHandler struct {
	signingSecret string
	commandName   string
	poster        MessagePoster
}

// NewEventsHandler はイベントハンドラーを作成します。commandName はヘルプに表示するスラッシュコマンドです
func NewEventsHandler(signingSecret, commandName string, poster MessagePoster) *EventsHandler {
	return &EventsHandler{
		signingSecret: signingSecret,
		commandName:   commandName,
		poster:        poster,
	}
}

// ServeHTTP は Slack イベント受信エンドポイントです
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r, "timebot.handler.events", slackTimeout)
	defer cancel()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "リクエスト本体の読み込み失敗", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	// url_verification は署名検証の前に応答
	var preCheck struct {
		Type      string `json:"type"`
		Challenge string `json:"challenge"`
	}
	if err := json.Unmarshal(body, &preCheck); err == nil && preCheck.Type == "url_verification" {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(preCheck.Challenge))
		return
	}

	if err := httpsec.VerifySlackSignature(h.signingSecret,
		r.Header.Get("X-Slack-Signature"),
		r.Header.Get("X-Slack-Request-Timestamp"),
		string(body), now()); err != nil {
		slog.WarnContext(ctx, "slack signature verification failed", "error", err)
		http.Error(w, "署名検証失敗", http.StatusUnauthorized)
		return
	}

	// 再送は処理済みとして扱う
	if r.Header.Get("X-Slack-Retry-Num") != "" {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req dto.SlackEventRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "JSON パース失敗", http.StatusBadRequest)
		return
	}

	if req.Type == "event_callback" {
		if err := h.handleEvent(ctx, req.Event); err != nil {
			// Slack側への応答は成功にして、ログだけ記録
			slog.ErrorContext(ctx, "event failed", "event_type", req.Event.Type, "error", err)
		}
	}
	w.WriteHeader(http.StatusOK)
}

// handleEvent は app_mention にヘルプをスレッドで返信します
func (h *EventsHandler) handleEvent(ctx context.Context, ev dto.SlackEvent) error {
	if ev.Type != "app_mention" {
		return nil
	}
	// Bot 自身のメッセージや bot_message は無視
	if ev.BotID != "" || ev.SubType == "bot_message" {
		return nil
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{SlackUserID: ev.User, ChannelID: ev.Channel})
	reply := service.HelpReply(h.commandName, false)
	reply.ThreadTS = ev.ThreadTs
	if reply.ThreadTS == "" {
		reply.ThreadTS = ev.Timestamp
	}
	return h.poster.PostMessage(ctx, ev.Channel, reply)
}
