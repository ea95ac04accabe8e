package store

import (
	"context"
	"fmt"

	"timebot/project/domain"
)

type userRepo struct {
	q querier
}

const userColumns = `id, slack_user_id, email, first_name, last_name, phone, role, reminders, created_at`

func scanUser(row interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var (
		u         domain.User
		role      string
		reminders []string
	)
	if err := row.Scan(&u.ID, &u.SlackUserID, &u.Email, &u.FirstName, &u.LastName, &u.Phone, &role, &reminders, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	s, err := scheduleFromColumn(reminders)
	if err != nil {
		return nil, err
	}
	u.Reminders = s
	return &u, nil
}

// scheduleToColumn は曜日順の "HH:MM"（通知なしは空文字）に変換します
func scheduleToColumn(s domain.ReminderSchedule) []string {
	out := make([]string, len(s))
	for i, t := range s {
		if t != nil {
			out[i] = t.String()
		}
	}
	return out
}

func scheduleFromColumn(col []string) (domain.ReminderSchedule, error) {
	var s domain.ReminderSchedule
	for i, v := range col {
		if i >= len(s) || v == "" {
			continue
		}
		t, err := domain.ParseClock(v)
		if err != nil {
			return s, fmt.Errorf("reminders[%d]: %w", i, err)
		}
		s[i] = &t
	}
	return s, nil
}

func (r *userRepo) GetBySlackID(ctx context.Context, slackUserID string) (*domain.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE slack_user_id = $1`, slackUserID))
	if err != nil {
		return nil, fmt.Errorf("postgres: メンバー取得失敗 (slack_user_id=%s): %w", slackUserID, notFound(err))
	}
	return u, nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("postgres: メンバー取得失敗 (id=%d): %w", id, notFound(err))
	}
	return u, nil
}

func (r *userRepo) Create(ctx context.Context, u *domain.User) error {
	if err := u.Validate(); err != nil {
		return fmt.Errorf("postgres: メンバー検証失敗: %w", err)
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO users (id, slack_user_id, email, first_name, last_name, phone, role, reminders, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (slack_user_id) DO NOTHING`,
		u.ID, u.SlackUserID, u.Email, u.FirstName, u.LastName, u.Phone, string(u.Role), scheduleToColumn(u.Reminders), u.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: メンバー登録失敗: %w", err)
	}
	return nil
}

func (r *userRepo) Lock(ctx context.Context, id int64) error {
	var locked int64
	if err := r.q.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&locked); err != nil {
		return fmt.Errorf("postgres: メンバーロック失敗 (id=%d): %w", id, notFound(err))
	}
	return nil
}

func (r *userRepo) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.q.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: メンバー一覧取得失敗: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: メンバー読み取り失敗: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *userRepo) UpdateReminders(ctx context.Context, id int64, s domain.ReminderSchedule) error {
	tag, err := r.q.Exec(ctx, `UPDATE users SET reminders = $2 WHERE id = $1`, id, scheduleToColumn(s))
	if err != nil {
		return fmt.Errorf("postgres: リマインド時刻更新失敗 (id=%d): %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
