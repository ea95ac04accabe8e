package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"timebot/project/infrastructure/httpsec"
)

// stateTTL は OAuth の state の有効期間です
const stateTTL = 10 * time.Minute

// stateSubject は共有カレンダー連携の state の subject です
const stateSubject = "calendar"

// CalendarAuthorizer は共有カレンダーの OAuth 連携のポートです
type CalendarAuthorizer interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) error
}

// OAuthHandler は共有カレンダーの Google OAuth フローを処理します
type OAuthHandler struct {
	stateSecret string
	calendar    CalendarAuthorizer
}

// NewOAuthHandler は OAuth ハンドラーを作成します
func NewOAuthHandler(stateSecret string, calendar CalendarAuthorizer) *OAuthHandler {
	return &OAuthHandler{
		stateSecret: stateSecret,
		calendar:    calendar,
	}
}

// Authorize は Google の同意画面へリダイレクトします (/google/authorize)
func (h *OAuthHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r, "timebot.handler.oauth", slackTimeout)
	defer cancel()

	state, err := httpsec.SignState(h.stateSecret, stateSubject, now(), stateTTL)
	if err != nil {
		slog.ErrorContext(ctx, "oauth state signing failed", "error", err)
		http.Error(w, "state 発行失敗", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, h.calendar.AuthCodeURL(state), http.StatusFound)
}

// Callback は認可コードを受け取りトークンを保存します (/google/oauth_callback)
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r, "timebot.handler.oauth", slackTimeout)
	defer cancel()

	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		slog.WarnContext(ctx, "oauth consent denied", "error", e)
		http.Error(w, "認可が拒否されました: "+e, http.StatusBadRequest)
		return
	}

	sub, err := httpsec.VerifyState(h.stateSecret, q.Get("state"), now())
	if err != nil || sub != stateSubject {
		slog.WarnContext(ctx, "oauth state rejected", "error", err)
		http.Error(w, "state が不正です", http.StatusBadRequest)
		return
	}

	code := q.Get("code")
	if code == "" {
		http.Error(w, "code パラメータが不足しています", http.StatusBadRequest)
		return
	}

	if err := h.calendar.Exchange(ctx, code); err != nil {
		slog.ErrorContext(ctx, "oauth token exchange failed", "error", err)
		http.Error(w, "トークン交換失敗", http.StatusBadGateway)
		return
	}

	slog.InfoContext(ctx, "calendar connected")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
    <title>Calendar connected</title>
    <style>
        body { font-family: sans-serif; margin: 40px; }
        .success { color: green; font-size: 18px; font-weight: bold; }
    </style>
</head>
<body>
    <div class="success">Timebot is now connected to the shared calendar.</div>
    <p>Vacations reported with <code>/tt vacation</code> will show up in the calendar.</p>
</body>
</html>
`))
}
