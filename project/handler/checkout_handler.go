package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"timebot/project/infrastructure/logger"
	"timebot/project/service"
)

// CheckoutReminder は注文締め忘れ通知の処理です
type CheckoutReminder interface {
	CheckoutReminder(ctx context.Context, p *service.TaskPayload) error
}

// CheckoutHandler は Cloud Tasks から呼ばれる注文締め忘れ通知を処理します
type CheckoutHandler struct {
	food CheckoutReminder
}

// NewCheckoutHandler は締め忘れ通知ハンドラーを作成します
func NewCheckoutHandler(food CheckoutReminder) *CheckoutHandler {
	return &CheckoutHandler{food: food}
}

// ServeHTTP は /tasks/food-checkout エンドポイント
func (h *CheckoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := requestContext(r, "timebot.handler.checkout", 30*time.Second)
	defer cancel()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "リクエスト本体の読み込み失敗", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var payload service.TaskPayload
	if err := json.Unmarshal(body, &payload); err != nil || payload.OrderID == 0 {
		http.Error(w, "JSON パース失敗", http.StatusBadRequest)
		return
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{ChannelID: payload.ChannelID})

	if err := h.food.CheckoutReminder(ctx, &payload); err != nil {
		// Cloud Tasks 側へは 200 で応答（再試行回避）
		slog.ErrorContext(ctx, "checkout reminder failed", "order_id", payload.OrderID, "error", err)
	}
	writeJSON(ctx, w, map[string]string{"status": "ok"})
}
