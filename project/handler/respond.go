package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"timebot/project/infrastructure/logger"
	tbslack "timebot/project/infrastructure/slack"
	"timebot/project/interaction"
)

// GenericFailure は内部エラー時にユーザーへ返す文言です
const GenericFailure = "Something went wrong, please try again later :disappointed:"

// slackTimeout は Slack からのリクエストの処理時間の上限です
const slackTimeout = 10 * time.Second

// now は署名検証の基準時刻です
var now = time.Now

// requestContext はリクエストIDとコンポーネントをログ項目に設定した context を返します
func requestContext(r *http.Request, component string, timeout time.Duration) (context.Context, context.CancelFunc) {
	requestID := r.Header.Get("X-Request-Id")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	ctx := logger.WithLogFields(r.Context(), logger.LogFields{
		RequestID: requestID,
		Component: component,
	})
	return context.WithTimeout(ctx, timeout)
}

// writeJSON は v を JSON で書き出します
func writeJSON(ctx context.Context, w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(ctx, "response encode failed", "error", err)
	}
}

// writeReply は応答をメッセージとして書き出します。nil は空の 200 です
func writeReply(ctx context.Context, w http.ResponseWriter, reply *interaction.Reply) {
	if reply == nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	if len(reply.Errors) > 0 && reply.Text == "" {
		reply = interaction.EphemeralText(errorText(reply))
	}
	writeJSON(ctx, w, tbslack.ToMsg(reply))
}

// errorText はフィールドエラーを1行ずつのテキストにします
func errorText(reply *interaction.Reply) string {
	lines := make([]string, 0, len(reply.Errors))
	for _, fe := range reply.Errors {
		lines = append(lines, fe.Message)
	}
	return strings.Join(lines, "\n")
}
