package service

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"timebot/project/domain"
	"timebot/project/infrastructure/metrics"
	"timebot/project/interaction"
)

// 添付の色
const (
	colorInfo   = "#3AA3E3"
	colorAlert  = "#D72B3F"
	colorDebtor = "#ec4444"
)

// Slack のメンション表記 <@U123> / <@U123|name>
var mentionPattern = regexp.MustCompile(`^<@([A-Z0-9]+)(\|[^>]*)?>$`)

// mentionedUserID はコマンド引数からSlackユーザーIDを取り出します
func mentionedUserID(arg string) (string, bool) {
	m := mentionPattern.FindStringSubmatch(arg)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// unwrapLink は Slack が整形したリンク <https://x|label> から URL を取り出します
func unwrapLink(arg string) string {
	s := strings.TrimSuffix(strings.TrimPrefix(arg, "<"), ">")
	if i := strings.IndexByte(s, '|'); i >= 0 {
		s = s[:i]
	}
	return s
}

// today はメンバーのタイムゾーンにおける今日の日付（UTC の 0 時）を返します
func today(clock Clock, loc *time.Location) time.Time {
	return domain.DateOf(clock.Now().In(loc))
}

// notify は書き込み確定後の通知を行います。失敗はログとメトリクスに残し、呼び出し元には返しません
func notify(ctx context.Context, kind string, fn func() error) {
	if err := fn(); err != nil {
		metrics.NotificationFailures.WithLabelValues(kind).Inc()
		slog.ErrorContext(ctx, "notification failed", "kind", kind, "error", err)
	}
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func projectOptions(projects []domain.Project) []interaction.Option {
	opts := make([]interaction.Option, 0, len(projects))
	for _, p := range projects {
		opts = append(opts, interaction.Option{Label: p.Name, Value: formatID(p.ID)})
	}
	return opts
}

func containsProject(projects []domain.Project, id int64) bool {
	for _, p := range projects {
		if p.ID == id {
			return true
		}
	}
	return false
}

func freeDayRanges(fds []domain.FreeDay) []domain.DateRange {
	out := make([]domain.DateRange, 0, len(fds))
	for _, f := range fds {
		out = append(out, f.Range)
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
