package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"timebot/project/domain"
	"timebot/project/infrastructure/config"
	"timebot/project/infrastructure/id"
)

// UserService はSlackユーザーとメンバーの対応を管理するサービスです
type UserService interface {
	// Ensure はメンバーを取得します。未登録なら Slack のプロフィールから登録します
	Ensure(ctx context.Context, slackUserID string) (*domain.User, error)
}

type userService struct {
	rules config.RulesConfig
	st    Stores
	sp    SlackPort
	clock Clock
}

// NewUserService は UserService のインスタンスを作成します
func NewUserService(rules config.RulesConfig, st Stores, sp SlackPort, clock Clock) UserService {
	return &userService{
		rules: rules,
		st:    st,
		sp:    sp,
		clock: clock,
	}
}

func (s *userService) Ensure(ctx context.Context, slackUserID string) (*domain.User, error) {
	u, err := s.st.Users().GetBySlackID(ctx, slackUserID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("Ensure: メンバー取得失敗: %w", err)
	}

	profile, err := s.sp.GetUserProfile(ctx, slackUserID)
	if err != nil {
		return nil, fmt.Errorf("Ensure: Slackプロフィール取得失敗: %w", err)
	}

	role := domain.RoleUser
	if profile.Admin {
		role = domain.RoleAdmin
	}
	now := s.clock.Now()
	u = &domain.User{
		ID:          id.New(),
		SlackUserID: slackUserID,
		Email:       profile.Email,
		FirstName:   profile.FirstName,
		LastName:    profile.LastName,
		Phone:       profile.Phone,
		Role:        role,
		Reminders:   domain.DefaultReminderSchedule(s.rules.DefaultRemindTime, s.rules.UsersLocation, now),
		CreatedAt:   now,
	}
	if err := u.Validate(); err != nil {
		return nil, fmt.Errorf("Ensure: メンバー検証失敗: %w", err)
	}
	if err := s.st.Users().Create(ctx, u); err != nil {
		return nil, fmt.Errorf("Ensure: メンバー登録失敗: %w", err)
	}

	// 同時に登録された場合は先に登録された行を使う
	stored, err := s.st.Users().GetBySlackID(ctx, slackUserID)
	if err != nil {
		return nil, fmt.Errorf("Ensure: 登録後のメンバー取得失敗: %w", err)
	}
	if stored.ID != u.ID {
		return stored, nil
	}

	if s.rules.DefaultProjectID > 0 {
		if err := s.st.Projects().Assign(ctx, stored.ID, s.rules.DefaultProjectID); err != nil {
			return nil, fmt.Errorf("Ensure: 既定プロジェクト割り当て失敗: %w", err)
		}
	}

	slog.InfoContext(ctx, "user registered",
		"user_id", stored.ID,
		"role", stored.Role,
	)
	return stored, nil
}
