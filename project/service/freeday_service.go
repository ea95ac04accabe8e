package service

import (
	"context"
	"fmt"
	"log/slog"

	"timebot/project/domain"
	"timebot/project/infrastructure/config"
	"timebot/project/infrastructure/id"
	"timebot/project/interaction"
)

// FreeDayService は休暇・休日の申請と取り消しを管理するサービスです
type FreeDayService interface {
	// Vacation は vacation コマンドを処理します（引数 delete で取り消し）
	Vacation(ctx context.Context, cmd *Command, args []string) (*interaction.Reply, error)

	// DayOff は dayoff コマンドを処理します（引数 delete で取り消し）
	DayOff(ctx context.Context, cmd *Command, args []string) (*interaction.Reply, error)

	// Handle は申請ダイアログの送信と取り消しフローの各ステップを処理します
	Handle(ctx context.Context, p *interaction.FreeDaysRequest) (*interaction.Reply, error)
}

type freeDayService struct {
	rules    config.RulesConfig
	calendar config.GoogleConfig
	st       Stores
	tx       TxRunner
	users    UserService
	sp       SlackPort
	cp       CalendarPort
	clock    Clock
}

// NewFreeDayService は FreeDayService のインスタンスを作成します。cp は nil でも構いません
func NewFreeDayService(
	rules config.RulesConfig,
	calendar config.GoogleConfig,
	st Stores,
	tx TxRunner,
	users UserService,
	sp SlackPort,
	cp CalendarPort,
	clock Clock,
) FreeDayService {
	return &freeDayService{
		rules:    rules,
		calendar: calendar,
		st:       st,
		tx:       tx,
		users:    users,
		sp:       sp,
		cp:       cp,
		clock:    clock,
	}
}

func kindLabel(k domain.FreeDayKind) string {
	if k == domain.KindDayOff {
		return "day off"
	}
	return "vacation"
}

func (s *freeDayService) Vacation(ctx context.Context, cmd *Command, args []string) (*interaction.Reply, error) {
	return s.command(ctx, cmd, args, domain.KindVacation)
}

func (s *freeDayService) DayOff(ctx context.Context, cmd *Command, args []string) (*interaction.Reply, error) {
	return s.command(ctx, cmd, args, domain.KindDayOff)
}

func (s *freeDayService) command(ctx context.Context, cmd *Command, args []string, kind domain.FreeDayKind) (*interaction.Reply, error) {
	if len(args) > 0 && args[0] == "delete" {
		return s.selectForDeletion(ctx, cmd.UserID, kind)
	}
	if len(args) > 0 {
		return nil, domain.NewValidationFailure(string(kind),
			fmt.Sprintf("Use `%[1]s %[2]s` or `%[1]s %[2]s delete`", cmd.Name, kind))
	}

	tomorrow := today(s.clock, s.rules.UsersLocation).AddDate(0, 0, 1)
	title := "Request vacation"
	if kind == domain.KindDayOff {
		title = "Request day off"
	}
	d := interaction.Dialog{
		CallbackID:  interaction.CallbackFreeDays,
		Title:       title,
		SubmitLabel: "Submit",
		State:       interaction.NewToken(interaction.FlowFreeDays, interaction.FreeDaysStepSubmit, string(kind)).String(),
		Elements: []interaction.Element{
			{Type: interaction.ElementText, Name: "start_date", Label: "Start day", Placeholder: "specify date", Value: tomorrow.Format(domain.DateLayout)},
			{Type: interaction.ElementText, Name: "end_date", Label: "End day", Placeholder: "specify date", Value: tomorrow.Format(domain.DateLayout)},
			{Type: interaction.ElementTextArea, Name: "reason", Label: "Reason", Placeholder: "Reason", Optional: true, MaxLength: 500},
		},
	}
	if err := s.sp.OpenDialog(ctx, cmd.TriggerID, d); err != nil {
		return nil, fmt.Errorf("command: 休暇ダイアログ表示失敗: %w", err)
	}
	return nil, nil
}

func (s *freeDayService) selectForDeletion(ctx context.Context, slackUserID string, kind domain.FreeDayKind) (*interaction.Reply, error) {
	user, err := s.users.Ensure(ctx, slackUserID)
	if err != nil {
		return nil, err
	}
	upcoming, err := s.st.FreeDays().ListEndingAfter(ctx, user.ID, today(s.clock, s.rules.UsersLocation), kind)
	if err != nil {
		return nil, fmt.Errorf("selectForDeletion: 休暇取得失敗: %w", err)
	}
	if len(upcoming) == 0 {
		return interaction.EphemeralText(fmt.Sprintf("You have no upcoming %s", kindLabel(kind))), nil
	}

	opts := make([]interaction.Option, 0, len(upcoming))
	for _, f := range upcoming {
		label := f.Range.String()
		if f.Reason != "" {
			label += " (" + truncate(f.Reason, 30) + ")"
		}
		opts = append(opts, interaction.Option{Label: label, Value: formatID(f.ID)})
	}

	return &interaction.Reply{
		ResponseType: interaction.Ephemeral,
		Text:         fmt.Sprintf("I'm going to remove %s :wastebasket:...", kindLabel(kind)),
		Attachments: []interaction.Attachment{{
			CallbackID: interaction.CallbackFreeDays,
			Text:       "Select entry to remove",
			Fallback:   "Select entry",
			Color:      colorInfo,
			Actions: []interaction.Action{{
				Name:    interaction.NewToken(interaction.FlowFreeDays, interaction.FreeDaysStepSelect).String(),
				Text:    "Select dates...",
				Type:    interaction.ActionSelect,
				Options: opts,
			}},
		}},
	}, nil
}

func (s *freeDayService) Handle(ctx context.Context, p *interaction.FreeDaysRequest) (*interaction.Reply, error) {
	user, err := s.users.Ensure(ctx, p.UserID)
	if err != nil {
		return nil, err
	}

	switch p.Step {
	case interaction.FreeDaysStepSubmit:
		return s.submit(ctx, user, p)
	case interaction.FreeDaysStepSelect:
		f, err := s.ownFreeDay(ctx, user, p.FreeDayID)
		if err != nil {
			return nil, err
		}
		name := interaction.NewToken(interaction.FlowFreeDays, interaction.FreeDaysStepConfirm, formatID(f.ID)).String()
		return &interaction.Reply{
			ResponseType:    interaction.Ephemeral,
			Text:            fmt.Sprintf("Do you want to remove %s `%s`?", kindLabel(f.Kind), f.Range),
			ReplaceOriginal: true,
			Attachments: []interaction.Attachment{{
				CallbackID: interaction.CallbackFreeDays,
				Fallback:   "Confirm removal",
				Color:      colorAlert,
				Actions: []interaction.Action{
					{Name: name, Text: "Remove", Type: interaction.ActionButton, Value: interaction.ValueRemove, Style: "danger"},
					{Name: name, Text: "Cancel", Type: interaction.ActionButton, Value: interaction.ValueCancel},
				},
			}},
		}, nil
	default:
		return s.remove(ctx, user, p)
	}
}

func (s *freeDayService) submit(ctx context.Context, user *domain.User, p *interaction.FreeDaysRequest) (*interaction.Reply, error) {
	now := today(s.clock, s.rules.UsersLocation)
	f := &domain.FreeDay{
		ID:        id.New(),
		UserID:    user.ID,
		Kind:      p.Kind,
		Range:     p.Range,
		Reason:    p.Reason,
		CreatedAt: s.clock.Now(),
	}

	// 重複チェックと登録は同じトランザクションで行い、メンバー行のロックで直列化する
	err := s.tx.WithTx(ctx, func(tx Stores) error {
		if err := tx.Users().Lock(ctx, user.ID); err != nil {
			return fmt.Errorf("submit: メンバーロック失敗: %w", err)
		}
		existing, err := tx.FreeDays().ListEndingAfter(ctx, user.ID, now, "")
		if err != nil {
			return fmt.Errorf("submit: 休暇取得失敗: %w", err)
		}
		if err := domain.ValidateFreeDays(f.Range, freeDayRanges(existing), now); err != nil {
			return err
		}
		if err := f.Validate(); err != nil {
			return fmt.Errorf("submit: 休暇検証失敗: %w", err)
		}
		if err := tx.FreeDays().Create(ctx, f); err != nil {
			return fmt.Errorf("submit: 休暇登録失敗: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "free days requested",
		"free_day_id", f.ID,
		"kind", f.Kind,
		"range", f.Range.String(),
	)

	if f.Kind == domain.KindVacation && s.cp != nil {
		s.mirrorToCalendar(ctx, user, f)
	}

	text := fmt.Sprintf("Reported %s from `%s` to `%s`",
		kindLabel(f.Kind), f.Range.Start.Format("Monday, 02 January"), f.Range.End.Format("Monday, 02 January"))
	if f.Reason != "" {
		text += fmt.Sprintf(". Reason: `%s`", f.Reason)
	}
	notify(ctx, "free_days_submitted", func() error {
		return s.sp.PostDM(ctx, p.UserID, interaction.EphemeralText(text))
	})
	return nil, nil
}

func (s *freeDayService) mirrorToCalendar(ctx context.Context, user *domain.User, f *domain.FreeDay) {
	title := fmt.Sprintf(s.calendar.TitleFormat, user.Name())
	notify(ctx, "calendar_insert", func() error {
		eventID, err := s.cp.InsertEvent(ctx, title, f.Range)
		if err != nil {
			return err
		}
		return s.st.FreeDays().SetEventID(ctx, f.ID, eventID)
	})
}

func (s *freeDayService) remove(ctx context.Context, user *domain.User, p *interaction.FreeDaysRequest) (*interaction.Reply, error) {
	if !p.Confirmed {
		return &interaction.Reply{ResponseType: interaction.Ephemeral, Text: "Nothing was removed", ReplaceOriginal: true}, nil
	}
	f, err := s.ownFreeDay(ctx, user, p.FreeDayID)
	if err != nil {
		return nil, err
	}
	if err := s.st.FreeDays().Delete(ctx, f.ID); err != nil {
		return nil, fmt.Errorf("remove: 休暇削除失敗: %w", err)
	}
	slog.InfoContext(ctx, "free days removed", "free_day_id", f.ID)

	if f.EventID != "" && s.cp != nil {
		notify(ctx, "calendar_delete", func() error {
			return s.cp.DeleteEvent(ctx, f.EventID)
		})
	}

	return &interaction.Reply{
		ResponseType:    interaction.Ephemeral,
		Text:            fmt.Sprintf("Removed %s `%s` :wastebasket:", kindLabel(f.Kind), f.Range),
		ReplaceOriginal: true,
	}, nil
}

// ownFreeDay は操作者自身の申請を返します。他人の申請は存在しないものとして扱います
func (s *freeDayService) ownFreeDay(ctx context.Context, user *domain.User, freeDayID int64) (*domain.FreeDay, error) {
	f, err := s.st.FreeDays().Get(ctx, freeDayID)
	if err != nil {
		return nil, fmt.Errorf("ownFreeDay: 休暇取得失敗: %w", err)
	}
	if f.UserID != user.ID {
		return nil, fmt.Errorf("ownFreeDay: 申請 %d は操作者のものではありません: %w", freeDayID, domain.ErrNotFound)
	}
	return f, nil
}
