package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"timebot/project/infrastructure/cache"
	"timebot/project/infrastructure/calendar"
	"timebot/project/infrastructure/config"
	"timebot/project/infrastructure/id"
	"timebot/project/infrastructure/logger"
	"timebot/project/infrastructure/report"
	"timebot/project/infrastructure/slack"
	"timebot/project/infrastructure/store"
	"timebot/project/infrastructure/tasks"
	"timebot/project/infrastructure/telemetry"
	"timebot/project/service"
)

// app は起動時に組み立てた依存関係です
type app struct {
	cfg       *config.Config
	db        *store.DB
	slack     *slack.SlackClient
	calendar  *calendar.Client // 連携が無効なら nil
	registry  *service.Registry
	reminders service.ReminderService
	food      service.FoodService

	closers []func(context.Context) error
}

// newApp は設定を読み込み、インフラとサービス層を初期化します
func newApp(ctx context.Context, serviceType config.ServiceType) (*app, error) {
	// 1. 設定を読み込む
	cfg, err := config.NewConfig(ctx, serviceType)
	if err != nil {
		return nil, fmt.Errorf("設定読み込み失敗: %w", err)
	}
	logger.Setup(cfg)

	a := &app{cfg: cfg}

	tel, err := telemetry.Setup(ctx, cfg.OTel)
	if err != nil {
		return nil, fmt.Errorf("telemetry 初期化失敗: %w", err)
	}
	a.onClose(tel.Shutdown)

	if err := id.Init(cfg.SnowflakeNode); err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("snowflake 初期化失敗: %w", err)
	}

	// 2. 依存関係を初期化
	// PostgreSQL
	a.db, err = store.NewDB(ctx, cfg.Database)
	if err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("PostgreSQL 初期化失敗: %w", err)
	}
	a.onClose(func(context.Context) error {
		a.db.Close()
		return nil
	})

	// Slack API ポート実装
	a.slack = slack.NewSlackClient(cfg.SlackBotToken)

	// Redis のプロジェクト一覧キャッシュ（任意）
	var projectCache service.ProjectCache
	if cfg.Redis.Enabled() {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			a.close(ctx)
			return nil, fmt.Errorf("Redis 初期化失敗: %w", err)
		}
		a.onClose(func(context.Context) error { return rdb.Close() })
		projectCache = cache.NewProjectCache(rdb, cfg.Redis.ProjectTTL)
	}

	// Firestore のトークン保存と共有カレンダー（任意）
	var calendarPort service.CalendarPort
	if cfg.Firestore.Enabled() && cfg.Google.Enabled() {
		tokens, err := store.NewFirestoreRepo(ctx, cfg.Firestore)
		if err != nil {
			a.close(ctx)
			return nil, fmt.Errorf("Firestore 初期化失敗: %w", err)
		}
		a.onClose(func(context.Context) error { return tokens.Close() })
		a.calendar = calendar.New(calendar.NewOAuthConfig(cfg), tokens, cfg.Google.CalendarName)
		calendarPort = a.calendar
	}

	// Cloud Tasks ポート実装（任意）
	var taskPort service.TaskPort
	if cfg.Tasks.Enabled() {
		tasksClient, err := tasks.NewCloudTasksClient(ctx, cfg)
		if err != nil {
			a.close(ctx)
			return nil, fmt.Errorf("Cloud Tasks クライアント初期化失敗: %w", err)
		}
		a.onClose(func(context.Context) error { return tasksClient.Close() })
		taskPort = tasksClient
	}

	// 3. サービス層を初期化
	var (
		st    = a.db.Stores()
		tx    = service.NewTxRunner(a.db)
		clock = service.SystemClock{}
		rules = cfg.Rules
	)
	users := service.NewUserService(rules, st, a.slack, clock)
	projects := service.NewProjectService(st, users, a.slack, projectCache)
	timesheet := service.NewTimesheetService(rules, st, tx, users, projects, a.slack, clock)
	reports := service.NewReportService(rules, st, users, projects, a.slack, report.NewXLSXRenderer(), clock)
	freeDays := service.NewFreeDayService(rules, cfg.Google, st, tx, users, a.slack, calendarPort, clock)
	a.reminders = service.NewReminderService(rules, st, users, a.slack, clock)
	a.food = service.NewFoodService(rules, st, tx, users, a.slack, taskPort, clock)

	a.registry = service.NewRegistry(users, timesheet, reports, freeDays, projects, a.reminders, a.food)

	slog.InfoContext(ctx, "app initialized",
		"env", cfg.Env,
		"project_cache", projectCache != nil,
		"calendar", calendarPort != nil,
		"cloud_tasks", taskPort != nil,
	)
	return a, nil
}

func (a *app) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

// close は初期化と逆順にリソースを解放します
func (a *app) close(ctx context.Context) {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := errors.Join(errs...); err != nil {
		slog.ErrorContext(ctx, "shutdown failed", "error", err)
	}
}
