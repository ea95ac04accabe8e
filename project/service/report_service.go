package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"timebot/project/domain"
	"timebot/project/infrastructure/config"
	"timebot/project/interaction"
)

// ReportService は作業時間レポートの生成を管理するサービスです
type ReportService interface {
	// OpenDialog は report コマンドを処理し、期間とプロジェクトを選ぶダイアログを開きます
	OpenDialog(ctx context.Context, cmd *Command, args []string) (*interaction.Reply, error)

	// Generate はレポートファイルを生成し、依頼者のDMにアップロードします
	Generate(ctx context.Context, p *interaction.ReportRequest) (*interaction.Reply, error)
}

type reportService struct {
	rules    config.RulesConfig
	st       Stores
	users    UserService
	projects ProjectService
	sp       SlackPort
	rp       ReportPort
	clock    Clock
}

// NewReportService は ReportService のインスタンスを作成します
func NewReportService(
	rules config.RulesConfig,
	st Stores,
	users UserService,
	projects ProjectService,
	sp SlackPort,
	rp ReportPort,
	clock Clock,
) ReportService {
	return &reportService{
		rules:    rules,
		st:       st,
		users:    users,
		projects: projects,
		sp:       sp,
		rp:       rp,
		clock:    clock,
	}
}

const reportForbidden = "Sorry, but only admin user can generate reports for other users :face_with_monocle:"

func (s *reportService) OpenDialog(ctx context.Context, cmd *Command, args []string) (*interaction.Reply, error) {
	invoker, err := s.users.Ensure(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	// 管理者は対象なしで全メンバー、一般メンバーは自分のみ
	target := ""
	if !invoker.IsAdmin() {
		target = cmd.UserID
	}
	if len(args) > 0 {
		uid, ok := mentionedUserID(args[0])
		if !ok {
			return nil, domain.NewValidationFailure("user", fmt.Sprintf("I do not know this guy: %s", args[0]))
		}
		if uid != cmd.UserID && !invoker.IsAdmin() {
			return interaction.EphemeralText(reportForbidden), nil
		}
		target = uid
	}

	projects, err := s.projects.List(ctx)
	if err != nil {
		return nil, err
	}

	period := domain.RangeThisMonth.Bounds(today(s.clock, s.rules.UsersLocation))
	d := interaction.Dialog{
		CallbackID:  interaction.CallbackReport,
		Title:       "Generate report",
		SubmitLabel: "Generate",
		State:       interaction.NewToken(interaction.FlowReport, 0, target).String(),
		Elements: []interaction.Element{
			{Type: interaction.ElementText, Name: "day_from", Label: "Date from", Placeholder: "Specify date", Value: period.Start.Format(domain.DateLayout)},
			{Type: interaction.ElementText, Name: "day_to", Label: "Date to", Placeholder: "Specify date", Value: period.End.Format(domain.DateLayout)},
			{Type: interaction.ElementSelect, Name: "project", Label: "Project", Placeholder: "Select a project", Optional: true, Options: projectOptions(projects)},
		},
	}
	if err := s.sp.OpenDialog(ctx, cmd.TriggerID, d); err != nil {
		return nil, fmt.Errorf("OpenDialog: レポートダイアログ表示失敗: %w", err)
	}
	return nil, nil
}

func (s *reportService) Generate(ctx context.Context, p *interaction.ReportRequest) (*interaction.Reply, error) {
	invoker, err := s.users.Ensure(ctx, p.UserID)
	if err != nil {
		return nil, err
	}

	var members []domain.User
	switch {
	case p.TargetUserID == "" && invoker.IsAdmin():
		if members, err = s.st.Users().List(ctx); err != nil {
			return nil, fmt.Errorf("Generate: メンバー一覧取得失敗: %w", err)
		}
	case p.TargetUserID == "" || p.TargetUserID == p.UserID:
		members = []domain.User{*invoker}
	case invoker.IsAdmin():
		target, err := s.users.Ensure(ctx, p.TargetUserID)
		if err != nil {
			return nil, err
		}
		members = []domain.User{*target}
	default:
		return interaction.EphemeralText(reportForbidden), nil
	}

	sheets := make([]ReportSheet, 0, len(members))
	for _, m := range members {
		entries, err := s.st.TimeEntries().List(ctx, m.ID, p.ProjectID, p.Period)
		if err != nil {
			return nil, fmt.Errorf("Generate: 作業時間取得失敗: %w", err)
		}
		freeDays, err := s.st.FreeDays().ListInRange(ctx, m.ID, p.Period)
		if err != nil {
			return nil, fmt.Errorf("Generate: 休暇取得失敗: %w", err)
		}
		if len(members) > 1 && len(entries) == 0 && len(freeDays) == 0 {
			continue
		}
		sheets = append(sheets, ReportSheet{
			User:     m,
			Entries:  entries,
			FreeDays: freeDays,
			Summary:  domain.Summarize(p.Period, entries, freeDayRanges(freeDays)),
		})
	}
	if len(sheets) == 0 {
		return interaction.EphemeralText(fmt.Sprintf("Nothing was reported between `%s`", p.Period)), nil
	}

	var buf bytes.Buffer
	if err := s.rp.Render(&buf, p.Period, sheets); err != nil {
		return nil, fmt.Errorf("Generate: レポート生成失敗: %w", err)
	}

	filename := fmt.Sprintf("report-%s-%s.xlsx", p.Period.Start.Format(domain.DateLayout), p.Period.End.Format(domain.DateLayout))
	title := fmt.Sprintf("Report %s", p.Period)
	if err := s.sp.UploadFile(ctx, p.UserID, filename, title, &buf); err != nil {
		return nil, fmt.Errorf("Generate: レポートアップロード失敗: %w", err)
	}

	slog.InfoContext(ctx, "report generated",
		"sheets", len(sheets),
		"period", p.Period.String(),
	)
	return nil, nil
}
