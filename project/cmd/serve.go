package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"timebot/project/handler"
	"timebot/project/infrastructure/calendar"
	"timebot/project/infrastructure/config"
	"timebot/project/infrastructure/scheduler"
	"timebot/project/infrastructure/tasks"
	"timebot/project/service"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd() *cobra.Command {
	var (
		commandName  string
		runScheduler bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server for Slack and job callbacks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, commandName, runScheduler)
		},
	}

	cmd.Flags().StringVar(&commandName, "command", "/tt", "slash command name shown in help texts")
	cmd.Flags().BoolVar(&runScheduler, "scheduler", true, "run the reminder and debtor jobs in-process")
	return cmd
}

func serve(ctx context.Context, commandName string, runScheduler bool) error {
	a, err := newApp(ctx, config.ServiceTypeServer)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	// 4. HTTP ハンドラーを設定
	mux := http.NewServeMux()

	// Slack スラッシュコマンド・インタラクション・イベント
	mux.Handle("POST /slack/commands", handler.NewCommandsHandler(a.cfg.SlackSigningSecret, service.NewRouter(a.registry)))
	mux.Handle("POST /slack/interactions", handler.NewInteractionsHandler(a.cfg.SlackSigningSecret, service.NewDispatcher(a.registry), a.slack))
	mux.Handle("POST /slack/events", handler.NewEventsHandler(a.cfg.SlackSigningSecret, commandName, a.slack))

	// 共有カレンダーの OAuth
	if a.calendar != nil {
		oauth := handler.NewOAuthHandler(a.cfg.OAuthStateSecret, a.calendar)
		mux.HandleFunc("GET /google/authorize", oauth.Authorize)
		mux.HandleFunc("GET "+calendar.CallbackPath, oauth.Callback)
	}

	// Cloud Scheduler と Cloud Tasks からのコールバック
	mux.Handle("POST /jobs/remind", handler.NewRemindHandler(a.reminders, service.SystemClock{}))
	mux.Handle("POST "+tasks.CheckoutPath, handler.NewCheckoutHandler(a.food))

	// ヘルスチェックとメトリクス
	mux.Handle("GET /health", handler.NewHealthHandler(a.db))
	mux.Handle("GET /metrics", promhttp.Handler())

	if runScheduler {
		sch, err := newScheduler(a)
		if err != nil {
			return err
		}
		go sch.Run(ctx)
	}

	// 5. サーバー起動
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", a.cfg.Port),
		Handler:           otelhttp.NewHandler(mux, "timebot"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "server started", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("サーバーエラー: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("サーバー停止失敗: %w", err)
	}
	return nil
}

// newScheduler はリマインドと未払い通知の定期ジョブを組み立てます
func newScheduler(a *app) (*scheduler.Scheduler, error) {
	return scheduler.New(a.cfg.Rules.UsersLocation,
		scheduler.Job{
			Name: "remind",
			Cron: a.cfg.Schedule.RemindCron,
			Run: func(ctx context.Context, now time.Time) error {
				_, err := a.reminders.RunDue(ctx, now)
				return err
			},
		},
		scheduler.Job{
			Name: "debtors",
			Cron: a.cfg.Schedule.DebtorsCron,
			Run: func(ctx context.Context, _ time.Time) error {
				return a.food.NudgeDebtors(ctx)
			},
		},
	)
}
