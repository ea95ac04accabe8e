package store

import (
	"context"
	"fmt"

	"timebot/project/domain"
)

type projectRepo struct {
	q querier
}

func (r *projectRepo) Create(ctx context.Context, p *domain.Project) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("postgres: プロジェクト検証失敗: %w", err)
	}
	if _, err := r.q.Exec(ctx, `INSERT INTO projects (id, name) VALUES ($1, $2)`, p.ID, p.Name); err != nil {
		if isUniqueViolation(err) {
			return domain.NewValidationFailure("name", fmt.Sprintf("Project *%s* already exists", p.Name))
		}
		return fmt.Errorf("postgres: プロジェクト登録失敗: %w", err)
	}
	return nil
}

func (r *projectRepo) Get(ctx context.Context, id int64) (*domain.Project, error) {
	var p domain.Project
	if err := r.q.QueryRow(ctx, `SELECT id, name FROM projects WHERE id = $1`, id).Scan(&p.ID, &p.Name); err != nil {
		return nil, fmt.Errorf("postgres: プロジェクト取得失敗 (id=%d): %w", id, notFound(err))
	}
	return &p, nil
}

func (r *projectRepo) List(ctx context.Context) ([]domain.Project, error) {
	return r.list(ctx, `SELECT id, name FROM projects ORDER BY name`)
}

func (r *projectRepo) ListForUser(ctx context.Context, userID int64) ([]domain.Project, error) {
	return r.list(ctx, `
		SELECT p.id, p.name
		FROM projects p
		JOIN user_projects up ON up.project_id = p.id
		WHERE up.user_id = $1
		ORDER BY p.name`, userID)
}

func (r *projectRepo) list(ctx context.Context, sql string, args ...any) ([]domain.Project, error) {
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: プロジェクト一覧取得失敗: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("postgres: プロジェクト読み取り失敗: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *projectRepo) Assign(ctx context.Context, userID, projectID int64) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO user_projects (user_id, project_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, userID, projectID)
	if err != nil {
		return fmt.Errorf("postgres: 担当割り当て失敗: %w", err)
	}
	return nil
}

func (r *projectRepo) Unassign(ctx context.Context, userID, projectID int64) error {
	_, err := r.q.Exec(ctx, `DELETE FROM user_projects WHERE user_id = $1 AND project_id = $2`, userID, projectID)
	if err != nil {
		return fmt.Errorf("postgres: 担当解除失敗: %w", err)
	}
	return nil
}
