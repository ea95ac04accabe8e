package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"timebot/project/infrastructure/httpsec"
	"timebot/project/infrastructure/logger"
	tbslack "timebot/project/infrastructure/slack"
	"timebot/project/interaction"
)

// InteractionDispatcher はインタラクションの振り分け先です
type InteractionDispatcher interface {
	Dispatch(ctx context.Context, body []byte) (*interaction.Envelope, *interaction.Reply, error)
}

// EphemeralPoster はダイアログ送信後の結果を本人に表示するためのポートです
type EphemeralPoster interface {
	PostEphemeral(ctx context.Context, channelID, userID string, r *interaction.Reply) error
}

// InteractionsHandler はボタン・セレクト・ダイアログ送信を処理します
type InteractionsHandler struct {
	signingSecret string
	dispatcher    InteractionDispatcher
	poster        EphemeralPoster
}

// NewInteractionsHandler はインタラクションハンドラーを作成します
func NewInteractionsHandler(signingSecret string, dispatcher InteractionDispatcher, poster EphemeralPoster) *InteractionsHandler {
	return &InteractionsHandler{
		signingSecret: signingSecret,
		dispatcher:    dispatcher,
		poster:        poster,
	}
}

// payloadHead はペイロードのうち応答形式の判定に使う部分です
type payloadHead struct {
	Type string `json:"type"`
	User struct {
		ID string `json:"id"`
	} `json:"user"`
	Channel struct {
		ID string `json:"id"`
	} `json:"channel"`
}

const dialogSubmission = "dialog_submission"

// ServeHTTP は Slack インタラクション受信エンドポイントです
func (h *InteractionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := requestContext(r, "timebot.handler.interactions", slackTimeout)
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
	payload := []byte(values.Get("payload"))

	var head payloadHead
	if err := json.Unmarshal(payload, &head); err != nil {
		http.Error(w, "JSON パース失敗", http.StatusBadRequest)
		return
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{SlackUserID: head.User.ID, ChannelID: head.Channel.ID})

	_, reply, err := h.dispatcher.Dispatch(ctx, payload)
	if err != nil {
		slog.ErrorContext(ctx, "interaction failed", "type", head.Type, "error", err)
		reply = interaction.EphemeralText(GenericFailure)
	}

	if head.Type != dialogSubmission {
		writeReply(ctx, w, reply)
		return
	}

	// ダイアログ送信への応答本文はフィールドエラーのみ有効
	switch {
	case reply == nil:
		w.WriteHeader(http.StatusOK)
	case len(reply.Errors) > 0:
		writeJSON(ctx, w, tbslack.ToValidationErrors(reply))
	default:
		if err := h.poster.PostEphemeral(ctx, head.Channel.ID, head.User.ID, reply); err != nil {
			slog.ErrorContext(ctx, "notification failed", "kind", "dialog_result", "error", err)
		}
		w.WriteHeader(http.StatusOK)
	}
}
