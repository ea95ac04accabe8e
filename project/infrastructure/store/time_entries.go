package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"timebot/project/domain"
)

type timeEntryRepo struct {
	q querier
}

const timeEntrySelect = `
	SELECT e.id, e.user_id, e.project_id, p.name, e.minutes, e.comment, e.report_date, e.created_at
	FROM time_entries e
	JOIN projects p ON p.id = e.project_id`

func scanTimeEntry(row interface{ Scan(dest ...any) error }) (*domain.TimeEntry, error) {
	var (
		e       domain.TimeEntry
		minutes int32
	)
	if err := row.Scan(&e.ID, &e.UserID, &e.ProjectID, &e.ProjectName, &minutes, &e.Comment, &e.ReportDate, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.Duration = time.Duration(minutes) * time.Minute
	e.ReportDate = domain.DateOf(e.ReportDate)
	return &e, nil
}

func (r *timeEntryRepo) Create(ctx context.Context, e *domain.TimeEntry) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("postgres: 作業時間検証失敗: %w", err)
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO time_entries (id, user_id, project_id, minutes, comment, report_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.UserID, e.ProjectID, int32(e.Duration/time.Minute), e.Comment, e.ReportDate, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: 作業時間登録失敗: %w", err)
	}
	return nil
}

func (r *timeEntryRepo) Get(ctx context.Context, id int64) (*domain.TimeEntry, error) {
	e, err := scanTimeEntry(r.q.QueryRow(ctx, timeEntrySelect+` WHERE e.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("postgres: 作業時間取得失敗 (id=%d): %w", id, notFound(err))
	}
	return e, nil
}

func (r *timeEntryRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM time_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: 作業時間削除失敗 (id=%d): %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *timeEntryRepo) SumForDate(ctx context.Context, userID int64, date time.Time) (time.Duration, error) {
	var minutes int64
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(minutes), 0) FROM time_entries
		WHERE user_id = $1 AND report_date = $2`, userID, date).Scan(&minutes)
	if err != nil {
		return 0, fmt.Errorf("postgres: 日別合計取得失敗: %w", err)
	}
	return time.Duration(minutes) * time.Minute, nil
}

func (r *timeEntryRepo) List(ctx context.Context, userID, projectID int64, dr domain.DateRange) ([]domain.TimeEntry, error) {
	return r.list(ctx, timeEntrySelect+`
		WHERE e.report_date BETWEEN $1 AND $2
		  AND ($3::bigint = 0 OR e.user_id = $3)
		  AND ($4::bigint = 0 OR e.project_id = $4)
		ORDER BY e.report_date, e.created_at`, dr.Start, dr.End, userID, projectID)
}

func (r *timeEntryRepo) ListRecent(ctx context.Context, userID, projectID int64, limit int) ([]domain.TimeEntry, error) {
	return r.list(ctx, timeEntrySelect+`
		WHERE e.user_id = $1 AND e.project_id = $2
		ORDER BY e.report_date DESC, e.created_at DESC
		LIMIT $3`, userID, projectID, limit)
}

func (r *timeEntryRepo) list(ctx context.Context, sql string, args ...any) ([]domain.TimeEntry, error) {
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: 作業時間一覧取得失敗: %w", err)
	}
	defer rows.Close()

	var entries []domain.TimeEntry
	for rows.Next() {
		e, err := scanTimeEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: 作業時間読み取り失敗: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func (r *timeEntryRepo) LastProjectID(ctx context.Context, userID int64) (int64, error) {
	var projectID int64
	err := r.q.QueryRow(ctx, `
		SELECT project_id FROM time_entries
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, userID).Scan(&projectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("postgres: 最終プロジェクト取得失敗: %w", err)
	}
	return projectID, nil
}

func (r *timeEntryRepo) ReportedUserIDs(ctx context.Context, date time.Time) ([]int64, error) {
	rows, err := r.q.Query(ctx, `SELECT DISTINCT user_id FROM time_entries WHERE report_date = $1`, date)
	if err != nil {
		return nil, fmt.Errorf("postgres: 報告済みメンバー取得失敗: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("postgres: 報告済みメンバー読み取り失敗: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
