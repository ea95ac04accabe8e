package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/adhocore/gronx"

	"timebot/project/infrastructure/logger"
)

// Job は cron 式で起動される定期処理です
type Job struct {
	Name string
	Cron string
	Run  func(ctx context.Context, now time.Time) error // now は評価した分の先頭時刻
}

// Scheduler は分単位で cron 式を評価し、期限の来たジョブを実行します
type Scheduler struct {
	jobs []Job
	loc  *time.Location
}

// New はジョブを検証して Scheduler を作成します。cron 式は loc の時刻で評価します
func New(loc *time.Location, jobs ...Job) (*Scheduler, error) {
	for _, j := range jobs {
		if !gronx.IsValid(j.Cron) {
			return nil, fmt.Errorf("scheduler: cron 式が不正です (job=%s, cron=%s)", j.Name, j.Cron)
		}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{jobs: jobs, loc: loc}, nil
}

// Tick は now に期限の来たジョブを順に実行し、実行したジョブ名を返します。
// ジョブのエラーはログに記録し、他のジョブは続行します
func (s *Scheduler) Tick(ctx context.Context, now time.Time) []string {
	ref := now.In(s.loc).Truncate(time.Minute)
	var ran []string
	for _, j := range s.jobs {
		next, err := gronx.NextTickAfter(j.Cron, ref, true)
		if err != nil {
			slog.ErrorContext(ctx, "cron evaluation failed", "job", j.Name, "error", err)
			continue
		}
		if !next.Equal(ref) {
			continue
		}

		jctx := logger.WithLogFields(ctx, logger.LogFields{Component: "timebot.scheduler." + j.Name})
		if err := j.Run(jctx, ref); err != nil {
			slog.ErrorContext(jctx, "scheduled job failed", "job", j.Name, "error", err)
		}
		ran = append(ran, j.Name)
	}
	return ran
}

// Run は ctx がキャンセルされるまで毎分 Tick を呼び出します
func (s *Scheduler) Run(ctx context.Context) {
	slog.InfoContext(ctx, "scheduler started", "jobs", len(s.jobs))
	for {
		now := time.Now()
		next := now.Truncate(time.Minute).Add(time.Minute)

		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "scheduler stopping")
			return
		case <-time.After(next.Sub(now)):
			s.Tick(ctx, next)
		}
	}
}
