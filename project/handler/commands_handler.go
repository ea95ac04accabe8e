package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"timebot/project/dto"
	"timebot/project/infrastructure/httpsec"
	"timebot/project/infrastructure/logger"
	"timebot/project/interaction"
	"timebot/project/service"
)

// CommandRouter はスラッシュコマンドの振り分け先です
type CommandRouter interface {
	Route(ctx context.Context, cmd *service.Command) (*interaction.Reply, error)
}

// CommandsHandler は Slack スラッシュコマンドを処理します
type CommandsHandler struct {
	signingSecret string
	router        CommandRouter
}

// NewCommandsHandler はコマンドハンドラーを作成します
func NewCommandsHandler(signingSecret string, router CommandRouter) *CommandsHandler {
	return &CommandsHandler{
		signingSecret: signingSecret,
		router:        router,
	}
}

// ServeHTTP は Slack スラッシュコマンド受信エンドポイントです
func (h *CommandsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := requestContext(r, "timebot.handler.commands", slackTimeout)
	defer cancel()

	body, err := httpsec.VerifyRequest(r, h.signingSecret)
	if err != nil {
		slog.WarnContext(ctx, "slack signature verification failed", "error", err)
		http.Error(w, "署名検証失敗", http.StatusUnauthorized)
		return
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		http.Error(w, "form パース失敗", http.StatusBadRequest)
		return
	}
	req := commandRequest(values)
	ctx = logger.WithLogFields(ctx, logger.LogFields{SlackUserID: req.UserID, ChannelID: req.ChannelID})

	reply, err := h.router.Route(ctx, &service.Command{
		Name:        req.Command,
		Text:        req.Text,
		UserID:      req.UserID,
		UserName:    req.UserName,
		ChannelID:   req.ChannelID,
		ChannelName: req.ChannelName,
		TeamID:      req.TeamID,
		TriggerID:   req.TriggerID,
		ResponseURL: req.ResponseURL,
	})
	if err != nil {
		// Slack 側へは 200 で応答（エラー表示を避ける）
		slog.ErrorContext(ctx, "command failed", "command", req.Command, "text", req.Text, "error", err)
		writeReply(ctx, w, interaction.EphemeralText(GenericFailure))
		return
	}

	writeReply(ctx, w, reply)
}

func commandRequest(values url.Values) dto.SlackCommandRequest {
	return dto.SlackCommandRequest{
		TeamID:      values.Get("team_id"),
		ChannelID:   values.Get("channel_id"),
		ChannelName: values.Get("channel_name"),
		UserID:      values.Get("user_id"),
		UserName:    values.Get("user_name"),
		Command:     values.Get("command"),
		Text:        values.Get("text"),
		ResponseURL: values.Get("response_url"),
		TriggerID:   values.Get("trigger_id"),
	}
}
