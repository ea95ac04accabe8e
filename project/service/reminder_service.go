package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"timebot/project/domain"
	"timebot/project/infrastructure/config"
	"timebot/project/infrastructure/metrics"
	"timebot/project/interaction"
)

// ReminderService はリマインド時刻の設定と、未報告メンバーへの通知を管理するサービスです
type ReminderService interface {
	// Command は reminder コマンド（show / set）を処理します
	Command(ctx context.Context, cmd *Command, args []string) (*interaction.Reply, error)

	// RunDue は now に通知時刻を迎えたメンバーのうち、今日まだ報告していない人にDMを送信します。
	// 送信した件数を返します
	RunDue(ctx context.Context, now time.Time) (int, error)
}

type reminderService struct {
	rules config.RulesConfig
	st    Stores
	users UserService
	sp    SlackPort
	clock Clock
}

// NewReminderService は ReminderService のインスタンスを作成します
func NewReminderService(rules config.RulesConfig, st Stores, users UserService, sp SlackPort, clock Clock) ReminderService {
	return &reminderService{
		rules: rules,
		st:    st,
		users: users,
		sp:    sp,
		clock: clock,
	}
}

func (rs *reminderService) Command(ctx context.Context, cmd *Command, args []string) (*interaction.Reply, error) {
	user, err := rs.users.Ensure(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	if len(args) == 0 || args[0] == "show" {
		return rs.show(cmd, user.Reminders, "Your reminder time is as follow:"), nil
	}
	if args[0] != "set" {
		return nil, domain.NewValidationFailure("reminder",
			fmt.Sprintf("Use `%[1]s reminder show` or `%[1]s reminder set mon:16:00;tue:off`", cmd.Name))
	}

	next, err := domain.ParseReminderConfig(strings.Join(args[1:], " "), user.Reminders, rs.rules.UsersLocation, rs.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := rs.st.Users().UpdateReminders(ctx, user.ID, next); err != nil {
		return nil, fmt.Errorf("Command: リマインド時刻更新失敗: %w", err)
	}

	slog.InfoContext(ctx, "reminder updated", "user_id", user.ID)
	return rs.show(cmd, next, "Remind times set:"), nil
}

func (rs *reminderService) show(cmd *Command, s domain.ReminderSchedule, title string) *interaction.Reply {
	reply := &interaction.Reply{ResponseType: interaction.Ephemeral, Text: title}
	for _, line := range s.Describe(rs.rules.UsersLocation, rs.clock.Now()) {
		color := colorInfo
		if strings.HasSuffix(line, "OFF") {
			color = colorAlert
		}
		reply.Attachments = append(reply.Attachments, interaction.Attachment{Text: line, Color: color})
	}
	reply.Attachments = append(reply.Attachments, interaction.Attachment{
		Footer: fmt.Sprintf("Change it with `%s reminder set HH:MM` or `%s reminder set mon:HH:MM;tue:off`", cmd.Name, cmd.Name),
	})
	return reply
}

func (rs *reminderService) RunDue(ctx context.Context, now time.Time) (int, error) {
	day := domain.DateOf(now.In(rs.rules.UsersLocation))
	if domain.IsHoliday(day) {
		slog.InfoContext(ctx, "reminder skipped on holiday", "day", day.Format(domain.DateLayout))
		return 0, nil
	}

	users, err := rs.st.Users().List(ctx)
	if err != nil {
		return 0, fmt.Errorf("RunDue: メンバー一覧取得失敗: %w", err)
	}
	reported, err := rs.st.TimeEntries().ReportedUserIDs(ctx, day)
	if err != nil {
		return 0, fmt.Errorf("RunDue: 報告済みメンバー取得失敗: %w", err)
	}
	away, err := rs.st.FreeDays().ListActiveOn(ctx, day)
	if err != nil {
		return 0, fmt.Errorf("RunDue: 休暇中メンバー取得失敗: %w", err)
	}

	skip := make(map[int64]bool, len(reported)+len(away))
	for _, id := range reported {
		skip[id] = true
	}
	for _, f := range away {
		skip[f.UserID] = true
	}

	msg := reminderMessage(day)
	sent := 0
	for _, u := range users {
		if skip[u.ID] || !u.Reminders.DueIn(now, rs.rules.UsersLocation, rs.rules.ReminderWindow) {
			continue
		}
		if err := rs.sp.PostDM(ctx, u.SlackUserID, msg); err != nil {
			// 1人の失敗で他のメンバーへの通知を止めない
			metrics.NotificationFailures.WithLabelValues("reminder").Inc()
			slog.ErrorContext(ctx, "reminder failed",
				"user_id", u.ID,
				"error", err,
			)
			continue
		}
		metrics.RemindersSent.Inc()
		sent++
	}

	slog.InfoContext(ctx, "reminder job finished", "sent", sent, "day", day.Format(domain.DateLayout))
	return sent, nil
}

func reminderMessage(day time.Time) *interaction.Reply {
	return &interaction.Reply{
		Text: "It looks like you didn't report work time for `Today`",
		Attachments: []interaction.Attachment{{
			CallbackID: interaction.CallbackReminder,
			Text:       "Click 'Report' or use the slash command:",
			Fallback:   "Report work time",
			Color:      colorInfo,
			Actions: []interaction.Action{{
				Name:  "report",
				Text:  "Report",
				Type:  interaction.ActionButton,
				Style: "success",
				Value: interaction.NewToken(interaction.FlowRemind, 0, day.Format(domain.DateLayout)).String(),
			}},
		}},
	}
}
