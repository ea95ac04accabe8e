package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"timebot/project/service"
)

// ReminderRunner はリマインドジョブの処理です
type ReminderRunner interface {
	RunDue(ctx context.Context, now time.Time) (int, error)
}

// RemindHandler は Cloud Scheduler から呼ばれるリマインドジョブを処理します
type RemindHandler struct {
	reminders ReminderRunner
	clock     service.Clock
}

// NewRemindHandler はリマインドハンドラーを作成します
func NewRemindHandler(reminders ReminderRunner, clock service.Clock) *RemindHandler {
	return &RemindHandler{
		reminders: reminders,
		clock:     clock,
	}
}

// ServeHTTP は /jobs/remind エンドポイント
func (h *RemindHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := requestContext(r, "timebot.handler.remind", time.Minute)
	defer cancel()

	sent, err := h.reminders.RunDue(ctx, h.clock.Now())
	if err != nil {
		// スケジューラ側へは 200 で応答（次回の実行で再評価される）
		slog.ErrorContext(ctx, "reminder job failed", "error", err)
		writeJSON(ctx, w, map[string]any{"status": "error"})
		return
	}
	writeJSON(ctx, w, map[string]any{"status": "ok", "sent": sent})
}
