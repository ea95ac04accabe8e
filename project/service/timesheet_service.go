package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"timebot/project/domain"
	"timebot/project/infrastructure/config"
	"timebot/project/infrastructure/id"
	"timebot/project/interaction"
)

// deleteCandidates は削除フローで選択肢に出す直近の記録数
const deleteCandidates = 10

// TimesheetService は作業時間の登録・一覧・削除を管理するサービスです
type TimesheetService interface {
	// OpenSubmitDialog は作業時間登録ダイアログを開きます（引数なしのコマンド）
	OpenSubmitDialog(ctx context.Context, cmd *Command, args []string) (*interaction.Reply, error)

	// Submit は作業時間を登録します。1日の上限を超える場合は ValidationFailure を返します
	Submit(ctx context.Context, p *interaction.TimeSubmission) (*interaction.Reply, error)

	// ReminderButton はリマインドDMのボタンから、その日付で登録ダイアログを開きます
	ReminderButton(ctx context.Context, p *interaction.ReminderButton) (*interaction.Reply, error)

	// List は list コマンドを処理します
	List(ctx context.Context, cmd *Command, args []string) (*interaction.Reply, error)

	// HandleList は期間選択を処理します
	HandleList(ctx context.Context, p *interaction.ListRequest) (*interaction.Reply, error)

	// Delete は delete コマンドを処理し、プロジェクト選択を返します
	Delete(ctx context.Context, cmd *Command, args []string) (*interaction.Reply, error)

	// HandleDelete は削除フローの各ステップを処理します
	HandleDelete(ctx context.Context, p *interaction.DeleteRequest) (*interaction.Reply, error)
}

type timesheetService struct {
	rules    config.RulesConfig
	st       Stores
	tx       TxRunner
	users    UserService
	projects ProjectService
	sp       SlackPort
	clock    Clock
}

// NewTimesheetService は TimesheetService のインスタンスを作成します
func NewTimesheetService(
	rules config.RulesConfig,
	st Stores,
	tx TxRunner,
	users UserService,
	projects ProjectService,
	sp SlackPort,
	clock Clock,
) TimesheetService {
	return &timesheetService{
		rules:    rules,
		st:       st,
		tx:       tx,
		users:    users,
		projects: projects,
		sp:       sp,
		clock:    clock,
	}
}

func (s *timesheetService) OpenSubmitDialog(ctx context.Context, cmd *Command, _ []string) (*interaction.Reply, error) {
	return s.openDialog(ctx, cmd.TriggerID, cmd.UserID, today(s.clock, s.rules.UsersLocation))
}

func (s *timesheetService) ReminderButton(ctx context.Context, p *interaction.ReminderButton) (*interaction.Reply, error) {
	return s.openDialog(ctx, p.TriggerID, p.UserID, p.Day)
}

func (s *timesheetService) openDialog(ctx context.Context, triggerID, slackUserID string, day time.Time) (*interaction.Reply, error) {
	user, err := s.users.Ensure(ctx, slackUserID)
	if err != nil {
		return nil, err
	}

	projects, err := s.st.Projects().ListForUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("openDialog: 担当プロジェクト取得失敗: %w", err)
	}
	if len(projects) == 0 {
		// 未割り当てのメンバーは全プロジェクトから選ぶ（登録時に割り当てる）
		if projects, err = s.projects.List(ctx); err != nil {
			return nil, err
		}
	}
	if len(projects) == 0 {
		return interaction.EphemeralText("There are no projects yet. Ask an admin to create one."), nil
	}

	defaultProject := projects[0].ID
	last, err := s.st.TimeEntries().LastProjectID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("openDialog: 最終プロジェクト取得失敗: %w", err)
	}
	if containsProject(projects, last) {
		defaultProject = last
	}

	if err := s.sp.OpenDialog(ctx, triggerID, submitDialog(projects, defaultProject, day)); err != nil {
		return nil, fmt.Errorf("openDialog: 作業時間ダイアログ表示失敗: %w", err)
	}
	return nil, nil
}

func submitDialog(projects []domain.Project, defaultProject int64, day time.Time) interaction.Dialog {
	hours := make([]interaction.Option, 0, domain.MaxSubmissionHours+1)
	for h := 0; h <= domain.MaxSubmissionHours; h++ {
		v := strconv.Itoa(h)
		hours = append(hours, interaction.Option{Label: v, Value: v})
	}
	minutes := []interaction.Option{
		{Label: "0", Value: "0"},
		{Label: "15", Value: "15"},
		{Label: "30", Value: "30"},
		{Label: "45", Value: "45"},
	}

	return interaction.Dialog{
		CallbackID:  interaction.CallbackTimeSubmission,
		Title:       "Submitting time",
		SubmitLabel: "Submit",
		Elements: []interaction.Element{
			{Type: interaction.ElementSelect, Name: "project", Label: "Project", Value: formatID(defaultProject), Options: projectOptions(projects)},
			{Type: interaction.ElementText, Name: "day", Label: "Day", Value: day.Format(domain.DateLayout), Hint: "year-month-day e.g. " + day.Format(domain.DateLayout)},
			{Type: interaction.ElementSelect, Name: "hours", Label: "Duration hours", Value: "8", Options: hours},
			{Type: interaction.ElementSelect, Name: "minutes", Label: "Duration minutes", Value: "0", Options: minutes},
			{Type: interaction.ElementTextArea, Name: "comment", Label: "Note", Optional: true, MaxLength: 3000},
		},
	}
}

func (s *timesheetService) Submit(ctx context.Context, p *interaction.TimeSubmission) (*interaction.Reply, error) {
	user, err := s.users.Ensure(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	project, err := s.st.Projects().Get(ctx, p.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("Submit: プロジェクト取得失敗: %w", err)
	}

	entry := &domain.TimeEntry{
		ID:          id.New(),
		UserID:      user.ID,
		ProjectID:   project.ID,
		ProjectName: project.Name,
		Duration:    p.Duration(),
		Comment:     p.Comment,
		ReportDate:  domain.DateOf(p.Day),
		CreatedAt:   s.clock.Now(),
	}
	if err := entry.Validate(); err != nil {
		return nil, domain.NewValidationFailure("minutes", "Report at least 15 minutes")
	}

	// 上限の確認と登録は同じトランザクションで行い、メンバー行のロックで直列化する
	err = s.tx.WithTx(ctx, func(tx Stores) error {
		if err := tx.Users().Lock(ctx, user.ID); err != nil {
			return fmt.Errorf("Submit: メンバーロック失敗: %w", err)
		}
		already, err := tx.TimeEntries().SumForDate(ctx, user.ID, entry.ReportDate)
		if err != nil {
			return fmt.Errorf("Submit: 日別合計取得失敗: %w", err)
		}
		if exceedsBy, ok := domain.CheckCap(already, entry.Duration, s.rules.DailyHourLimit); !ok {
			return domain.NewValidationFailure("hours", fmt.Sprintf(
				"Sorry, but You can't submit more than %s hours for one day (%s hour(s) too many)",
				domain.FormatHours(s.rules.DailyHourLimit), domain.FormatHours(exceedsBy)))
		}

		assigned, err := tx.Projects().ListForUser(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("Submit: 担当プロジェクト取得失敗: %w", err)
		}
		if !containsProject(assigned, project.ID) {
			if err := tx.Projects().Assign(ctx, user.ID, project.ID); err != nil {
				return fmt.Errorf("Submit: 担当割り当て失敗: %w", err)
			}
		}

		if err := tx.TimeEntries().Create(ctx, entry); err != nil {
			return fmt.Errorf("Submit: 作業時間登録失敗: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "time entry submitted",
		"entry_id", entry.ID,
		"project_id", project.ID,
		"duration", entry.Duration.String(),
	)

	dayLabel := entry.ReportDate.Format(domain.DateLayout)
	if entry.ReportDate.Equal(today(s.clock, s.rules.UsersLocation)) {
		dayLabel = "Today"
	}
	text := fmt.Sprintf("Submitted *%s* hour(s) for *%s* in *%s*", domain.FormatHours(entry.Duration), dayLabel, project.Name)
	if entry.Comment != "" {
		text += fmt.Sprintf(" with comment: _%s_", entry.Comment)
	}
	notify(ctx, "time_submitted", func() error {
		return s.sp.PostDM(ctx, p.UserID, interaction.EphemeralText(text))
	})
	return nil, nil
}

func (s *timesheetService) List(ctx context.Context, cmd *Command, args []string) (*interaction.Reply, error) {
	if len(args) > 2 {
		return interaction.EphemeralText("You have too much for me :confused:. I can only handle one or two parameters at once"), nil
	}

	target := cmd.UserID
	var rangeArg string
	switch len(args) {
	case 1:
		if uid, ok := mentionedUserID(args[0]); ok {
			target = uid
		} else {
			rangeArg = args[0]
		}
	case 2:
		uid, ok := mentionedUserID(args[0])
		if !ok {
			return nil, domain.NewValidationFailure("user", fmt.Sprintf("I do not know this guy: %s", args[0]))
		}
		target, rangeArg = uid, args[1]
	}

	if rangeArg == "" {
		return listRangeSelect(target), nil
	}
	r, err := domain.ParseTimeRange(rangeArg)
	if err != nil {
		names := make([]string, 0, len(domain.TimeRanges()))
		for _, tr := range domain.TimeRanges() {
			names = append(names, string(tr))
		}
		return nil, domain.NewValidationFailure("range", fmt.Sprintf(
			"I am unable to understand `%s`. Seems like it is not any of following: `%s`",
			rangeArg, strings.Join(names, "`, `")))
	}
	return s.listEntries(ctx, cmd.UserID, target, r, false)
}

func listRangeSelect(target string) *interaction.Reply {
	opts := make([]interaction.Option, 0, len(domain.TimeRanges()))
	for _, tr := range domain.TimeRanges() {
		opts = append(opts, interaction.Option{Label: tr.Label(), Value: string(tr)})
	}
	return &interaction.Reply{
		ResponseType: interaction.Ephemeral,
		Text:         "I'm going to list saved time records...",
		Attachments: []interaction.Attachment{{
			CallbackID: interaction.CallbackList,
			Text:       "Show record for",
			Fallback:   "Select time range to list saved time records",
			Color:      colorInfo,
			Actions: []interaction.Action{{
				Name:    interaction.NewToken(interaction.FlowList, 0, target).String(),
				Text:    "Select time range...",
				Type:    interaction.ActionSelect,
				Options: opts,
			}},
		}},
	}
}

func (s *timesheetService) HandleList(ctx context.Context, p *interaction.ListRequest) (*interaction.Reply, error) {
	target := p.TargetUserID
	if target == "" {
		target = p.UserID
	}
	return s.listEntries(ctx, p.UserID, target, p.Range, true)
}

func (s *timesheetService) listEntries(ctx context.Context, invokerID, targetID string, r domain.TimeRange, replace bool) (*interaction.Reply, error) {
	invoker, err := s.users.Ensure(ctx, invokerID)
	if err != nil {
		return nil, err
	}
	target := invoker
	if targetID != invokerID {
		if !invoker.IsAdmin() {
			return interaction.EphemeralText("Sorry, but only admin user can see other users records :face_with_monocle:"), nil
		}
		if target, err = s.users.Ensure(ctx, targetID); err != nil {
			return nil, err
		}
	}

	who := "You"
	if target.ID != invoker.ID {
		who = target.Name()
	}

	period := r.Bounds(today(s.clock, s.rules.UsersLocation))
	entries, err := s.st.TimeEntries().List(ctx, target.ID, 0, period)
	if err != nil {
		return nil, fmt.Errorf("listEntries: 作業時間取得失敗: %w", err)
	}

	reply := &interaction.Reply{ResponseType: interaction.Ephemeral, ReplaceOriginal: replace}
	if len(entries) == 0 {
		reply.Text = fmt.Sprintf("*%s* have not reported anything for `%s`", who, r.Label())
		return reply, nil
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ReportDate.After(entries[j].ReportDate)
	})

	var order []string
	byProject := map[string][]string{}
	for _, e := range entries {
		if _, ok := byProject[e.ProjectName]; !ok {
			order = append(order, e.ProjectName)
		}
		byProject[e.ProjectName] = append(byProject[e.ProjectName], entryLine(e))
	}

	for _, name := range order {
		reply.Attachments = append(reply.Attachments, interaction.Attachment{
			Text:  "*" + name + "*\n" + strings.Join(byProject[name], "\n"),
			Color: colorInfo,
		})
	}
	reply.Attachments = append(reply.Attachments, interaction.Attachment{
		Text: fmt.Sprintf("*Total*\n*%s* reported *%s* hour(s) for `%s`",
			who, domain.FormatHours(domain.SumDurations(entries)), r.Label()),
		Color: colorAlert,
	})
	if target.ID == invoker.ID {
		reply.Attachments = append(reply.Attachments, interaction.Attachment{
			Footer: "Use delete to remove a wrong entry",
		})
	}
	reply.Text = fmt.Sprintf("These are hours submitted by *%s* for `%s`", who, r.Label())
	return reply, nil
}

func entryLine(e domain.TimeEntry) string {
	line := fmt.Sprintf("`%s` *%sh*", e.ReportDate.Format(domain.DateLayout), domain.FormatHours(e.Duration))
	if e.Comment != "" {
		line += " _" + e.Comment + "_"
	}
	return line
}

func (s *timesheetService) Delete(ctx context.Context, cmd *Command, _ []string) (*interaction.Reply, error) {
	user, err := s.users.Ensure(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}
	projects, err := s.st.Projects().ListForUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("Delete: 担当プロジェクト取得失敗: %w", err)
	}
	if len(projects) == 0 {
		return interaction.EphemeralText("You are not assigned to any project yet"), nil
	}

	return &interaction.Reply{
		ResponseType: interaction.Ephemeral,
		Text:         "I'm going to remove time entry :wastebasket:...",
		Attachments: []interaction.Attachment{{
			CallbackID: interaction.CallbackDelete,
			Text:       "Select project first",
			Fallback:   "Select project",
			Color:      colorInfo,
			Actions: []interaction.Action{{
				Name:    interaction.NewToken(interaction.FlowDelete, interaction.DeleteStepProject).String(),
				Text:    "Select project...",
				Type:    interaction.ActionSelect,
				Options: projectOptions(projects),
			}},
		}},
	}, nil
}

func (s *timesheetService) HandleDelete(ctx context.Context, p *interaction.DeleteRequest) (*interaction.Reply, error) {
	user, err := s.users.Ensure(ctx, p.UserID)
	if err != nil {
		return nil, err
	}

	switch p.Step {
	case interaction.DeleteStepProject:
		return s.selectEntry(ctx, user, p.ProjectID)
	case interaction.DeleteStepEntry:
		entry, err := s.ownEntry(ctx, user, p.EntryID)
		if err != nil {
			return nil, err
		}
		if entry.ProjectID != p.ProjectID {
			return nil, fmt.Errorf("HandleDelete: 記録 %d はプロジェクト %d のものではありません: %w", entry.ID, p.ProjectID, domain.ErrNotFound)
		}
		return confirmDelete(entry), nil
	default:
		if !p.Confirmed {
			return &interaction.Reply{ResponseType: interaction.Ephemeral, Text: "Nothing was removed", ReplaceOriginal: true}, nil
		}
		entry, err := s.ownEntry(ctx, user, p.EntryID)
		if err != nil {
			return nil, err
		}
		if err := s.st.TimeEntries().Delete(ctx, entry.ID); err != nil {
			return nil, fmt.Errorf("HandleDelete: 作業時間削除失敗: %w", err)
		}
		slog.InfoContext(ctx, "time entry deleted", "entry_id", entry.ID)
		return &interaction.Reply{
			ResponseType:    interaction.Ephemeral,
			Text:            fmt.Sprintf("Removed %s from *%s* :wastebasket:", entryLine(*entry), entry.ProjectName),
			ReplaceOriginal: true,
		}, nil
	}
}

func (s *timesheetService) selectEntry(ctx context.Context, user *domain.User, projectID int64) (*interaction.Reply, error) {
	project, err := s.st.Projects().Get(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("selectEntry: プロジェクト取得失敗: %w", err)
	}
	entries, err := s.st.TimeEntries().ListRecent(ctx, user.ID, project.ID, deleteCandidates)
	if err != nil {
		return nil, fmt.Errorf("selectEntry: 直近の記録取得失敗: %w", err)
	}
	if len(entries) == 0 {
		return &interaction.Reply{
			ResponseType:    interaction.Ephemeral,
			Text:            fmt.Sprintf("There is nothing to remove in *%s*", project.Name),
			ReplaceOriginal: true,
		}, nil
	}

	opts := make([]interaction.Option, 0, len(entries))
	for _, e := range entries {
		label := fmt.Sprintf("%s %sh", e.ReportDate.Format(domain.DateLayout), domain.FormatHours(e.Duration))
		if e.Comment != "" {
			label += " " + truncate(e.Comment, 40)
		}
		opts = append(opts, interaction.Option{Label: label, Value: formatID(e.ID)})
	}

	return &interaction.Reply{
		ResponseType:    interaction.Ephemeral,
		Text:            fmt.Sprintf("Project: *%s*", project.Name),
		ReplaceOriginal: true,
		Attachments: []interaction.Attachment{{
			CallbackID: interaction.CallbackDelete,
			Text:       "Select time entry to remove",
			Fallback:   "Select time entry",
			Color:      colorInfo,
			Actions: []interaction.Action{{
				Name:    interaction.NewToken(interaction.FlowDelete, interaction.DeleteStepEntry, formatID(project.ID)).String(),
				Text:    "Select time entry...",
				Type:    interaction.ActionSelect,
				Options: opts,
			}},
		}},
	}, nil
}

func confirmDelete(e *domain.TimeEntry) *interaction.Reply {
	name := interaction.NewToken(interaction.FlowDelete, interaction.DeleteStepConfirm, formatID(e.ID)).String()
	return &interaction.Reply{
		ResponseType:    interaction.Ephemeral,
		Text:            fmt.Sprintf("Do you want to remove this entry?\n%s in *%s*", entryLine(*e), e.ProjectName),
		ReplaceOriginal: true,
		Attachments: []interaction.Attachment{{
			CallbackID: interaction.CallbackDelete,
			Fallback:   "Confirm removal",
			Color:      colorAlert,
			Actions: []interaction.Action{
				{Name: name, Text: "Remove", Type: interaction.ActionButton, Value: interaction.ValueRemove, Style: "danger"},
				{Name: name, Text: "Cancel", Type: interaction.ActionButton, Value: interaction.ValueCancel},
			},
		}},
	}
}

// ownEntry は操作者自身の記録を返します。他人の記録は存在しないものとして扱います
func (s *timesheetService) ownEntry(ctx context.Context, user *domain.User, entryID int64) (*domain.TimeEntry, error) {
	entry, err := s.st.TimeEntries().Get(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("ownEntry: 作業時間取得失敗: %w", err)
	}
	if entry.UserID != user.ID {
		return nil, fmt.Errorf("ownEntry: 記録 %d は操作者のものではありません: %w", entryID, domain.ErrNotFound)
	}
	return entry, nil
}
