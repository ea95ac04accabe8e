package service

import (
	"context"
	"fmt"
	"log/slog"

	"timebot/project/domain"
	"timebot/project/infrastructure/id"
	"timebot/project/interaction"
)

const insufficientPrivileges = "You have insufficient privileges... :neutral_face:"

// ProjectService はプロジェクトの作成と担当割り当てを管理するサービスです
type ProjectService interface {
	// List は全プロジェクトを返します（キャッシュ優先）
	List(ctx context.Context) ([]domain.Project, error)

	// Command は project コマンドを処理します（管理者のみ）
	Command(ctx context.Context, cmd *Command, args []string) (*interaction.Reply, error)

	// Handle は作成ダイアログの送信と割り当てフローの各ステップを処理します
	Handle(ctx context.Context, p *interaction.ProjectAction) (*interaction.Reply, error)
}

type projectService struct {
	st    Stores
	users UserService
	sp    SlackPort
	cache ProjectCache
}

// NewProjectService は ProjectService のインスタンスを作成します。cache は nil でも構いません
func NewProjectService(st Stores, users UserService, sp SlackPort, cache ProjectCache) ProjectService {
	return &projectService{
		st:    st,
		users: users,
		sp:    sp,
		cache: cache,
	}
}

func (s *projectService) List(ctx context.Context) ([]domain.Project, error) {
	if s.cache != nil {
		projects, ok, err := s.cache.Get(ctx)
		if err != nil {
			slog.WarnContext(ctx, "project cache read failed", "error", err)
		} else if ok {
			return projects, nil
		}
	}

	projects, err := s.st.Projects().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("List: プロジェクト一覧取得失敗: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, projects); err != nil {
			slog.WarnContext(ctx, "project cache write failed", "error", err)
		}
	}
	return projects, nil
}

func (s *projectService) Command(ctx context.Context, cmd *Command, args []string) (*interaction.Reply, error) {
	user, err := s.users.Ensure(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		return interaction.EphemeralText(insufficientPrivileges), nil
	}

	if len(args) == 0 {
		if err := s.sp.OpenDialog(ctx, cmd.TriggerID, createProjectDialog(cmd.UserID)); err != nil {
			return nil, fmt.Errorf("Command: プロジェクト作成ダイアログ表示失敗: %w", err)
		}
		return nil, nil
	}

	op := args[0]
	if op != interaction.ProjectAssign && op != interaction.ProjectUnassign {
		return nil, domain.NewValidationFailure("project",
			fmt.Sprintf("Use `%[1]s project`, `%[1]s project assign` or `%[1]s project unassign`", cmd.Name))
	}

	verb := "assign user to"
	if op == interaction.ProjectUnassign {
		verb = "unassign user from"
	}
	return &interaction.Reply{
		ResponseType: interaction.Ephemeral,
		Text:         fmt.Sprintf("I'm going to %s the project...", verb),
		Attachments: []interaction.Attachment{{
			CallbackID: interaction.CallbackProject,
			Text:       "Select user first",
			Fallback:   "Select user",
			Color:      colorInfo,
			Actions: []interaction.Action{{
				Name:       interaction.NewToken(interaction.FlowProject, 1, op).String(),
				Text:       "Select user...",
				Type:       interaction.ActionSelect,
				DataSource: "users",
			}},
		}},
	}, nil
}

func createProjectDialog(slackUserID string) interaction.Dialog {
	return interaction.Dialog{
		CallbackID:  interaction.CallbackProject,
		Title:       "Create new project",
		SubmitLabel: "Create",
		State:       interaction.NewToken(interaction.FlowProject, 0, interaction.ProjectCreate).String(),
		Elements: []interaction.Element{
			{Type: interaction.ElementText, Name: "name", Label: "Project name", Placeholder: "Specify project name"},
			{Type: interaction.ElementSelect, Name: "user", Label: "User", DataSource: "users", Value: slackUserID, Optional: true},
		},
	}
}

func (s *projectService) Handle(ctx context.Context, p *interaction.ProjectAction) (*interaction.Reply, error) {
	admin, err := s.users.Ensure(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if !admin.IsAdmin() {
		return interaction.EphemeralText(insufficientPrivileges), nil
	}

	switch {
	case p.Op == interaction.ProjectCreate:
		return s.create(ctx, p)
	case p.Step == 1:
		return s.selectProject(ctx, p)
	default:
		return s.apply(ctx, p)
	}
}

func (s *projectService) create(ctx context.Context, p *interaction.ProjectAction) (*interaction.Reply, error) {
	project := &domain.Project{ID: id.New(), Name: p.Name}
	if err := project.Validate(); err != nil {
		return nil, domain.NewValidationFailure("name", "Provide a project name")
	}
	if err := s.st.Projects().Create(ctx, project); err != nil {
		return nil, fmt.Errorf("create: プロジェクト登録失敗: %w", err)
	}

	if p.MemberID != "" {
		member, err := s.users.Ensure(ctx, p.MemberID)
		if err != nil {
			return nil, err
		}
		if err := s.st.Projects().Assign(ctx, member.ID, project.ID); err != nil {
			return nil, fmt.Errorf("create: 担当割り当て失敗: %w", err)
		}
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			slog.WarnContext(ctx, "project cache invalidate failed", "error", err)
		}
	}

	slog.InfoContext(ctx, "project created", "project_id", project.ID)
	notify(ctx, "project_created", func() error {
		return s.sp.PostDM(ctx, p.UserID, interaction.EphemeralText(
			fmt.Sprintf("New project *%s* has been successfully created!", project.Name)))
	})
	return nil, nil
}

func (s *projectService) selectProject(ctx context.Context, p *interaction.ProjectAction) (*interaction.Reply, error) {
	member, err := s.users.Ensure(ctx, p.MemberID)
	if err != nil {
		return nil, err
	}

	var projects []domain.Project
	if p.Op == interaction.ProjectAssign {
		projects, err = s.List(ctx)
	} else {
		projects, err = s.st.Projects().ListForUser(ctx, member.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("selectProject: プロジェクト一覧取得失敗: %w", err)
	}
	if len(projects) == 0 {
		return &interaction.Reply{
			ResponseType:    interaction.Ephemeral,
			Text:            fmt.Sprintf("There are no projects to choose for <@%s>", p.MemberID),
			ReplaceOriginal: true,
		}, nil
	}

	return &interaction.Reply{
		ResponseType:    interaction.Ephemeral,
		Text:            fmt.Sprintf("Selected user: <@%s>", p.MemberID),
		ReplaceOriginal: true,
		Attachments: []interaction.Attachment{{
			CallbackID: interaction.CallbackProject,
			Text:       "Select project",
			Fallback:   "Select project",
			Color:      colorInfo,
			Actions: []interaction.Action{{
				Name:    interaction.NewToken(interaction.FlowProject, 2, p.Op, p.MemberID).String(),
				Text:    "Select project...",
				Type:    interaction.ActionSelect,
				Options: projectOptions(projects),
			}},
		}},
	}, nil
}

func (s *projectService) apply(ctx context.Context, p *interaction.ProjectAction) (*interaction.Reply, error) {
	member, err := s.users.Ensure(ctx, p.MemberID)
	if err != nil {
		return nil, err
	}
	project, err := s.st.Projects().Get(ctx, p.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("apply: プロジェクト取得失敗: %w", err)
	}

	var text string
	if p.Op == interaction.ProjectAssign {
		err = s.st.Projects().Assign(ctx, member.ID, project.ID)
		text = fmt.Sprintf("User <@%s> has been assigned to *%s*", p.MemberID, project.Name)
	} else {
		err = s.st.Projects().Unassign(ctx, member.ID, project.ID)
		text = fmt.Sprintf("User <@%s> has been unassigned from *%s*", p.MemberID, project.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("apply: 割り当て更新失敗: %w", err)
	}

	return &interaction.Reply{ResponseType: interaction.Ephemeral, Text: text, ReplaceOriginal: true}, nil
}
