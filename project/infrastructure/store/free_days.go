package store

import (
	"context"
	"fmt"
	"time"

	"timebot/project/domain"
)

type freeDayRepo struct {
	q querier
}

const freeDayColumns = `id, user_id, kind, start_date, end_date, reason, event_id, created_at`

func scanFreeDay(row interface{ Scan(dest ...any) error }) (*domain.FreeDay, error) {
	var (
		f    domain.FreeDay
		kind string
	)
	if err := row.Scan(&f.ID, &f.UserID, &kind, &f.Range.Start, &f.Range.End, &f.Reason, &f.EventID, &f.CreatedAt); err != nil {
		return nil, err
	}
	f.Kind = domain.FreeDayKind(kind)
	f.Range.Start = domain.DateOf(f.Range.Start)
	f.Range.End = domain.DateOf(f.Range.End)
	return &f, nil
}

func (r *freeDayRepo) Create(ctx context.Context, f *domain.FreeDay) error {
	if err := f.Validate(); err != nil {
		return fmt.Errorf("postgres: 休暇検証失敗: %w", err)
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO free_days (id, user_id, kind, start_date, end_date, reason, event_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		f.ID, f.UserID, string(f.Kind), f.Range.Start, f.Range.End, f.Reason, f.EventID, f.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: 休暇登録失敗: %w", err)
	}
	return nil
}

func (r *freeDayRepo) Get(ctx context.Context, id int64) (*domain.FreeDay, error) {
	f, err := scanFreeDay(r.q.QueryRow(ctx, `SELECT `+freeDayColumns+` FROM free_days WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("postgres: 休暇取得失敗 (id=%d): %w", id, notFound(err))
	}
	return f, nil
}

func (r *freeDayRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM free_days WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: 休暇削除失敗 (id=%d): %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *freeDayRepo) SetEventID(ctx context.Context, id int64, eventID string) error {
	tag, err := r.q.Exec(ctx, `UPDATE free_days SET event_id = $2 WHERE id = $1`, id, eventID)
	if err != nil {
		return fmt.Errorf("postgres: イベントID保存失敗 (id=%d): %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *freeDayRepo) ListEndingAfter(ctx context.Context, userID int64, from time.Time, kind domain.FreeDayKind) ([]domain.FreeDay, error) {
	return r.list(ctx, `SELECT `+freeDayColumns+` FROM free_days
		WHERE user_id = $1 AND end_date >= $2 AND ($3::text = '' OR kind = $3)
		ORDER BY start_date`, userID, from, string(kind))
}

func (r *freeDayRepo) ListInRange(ctx context.Context, userID int64, dr domain.DateRange) ([]domain.FreeDay, error) {
	return r.list(ctx, `SELECT `+freeDayColumns+` FROM free_days
		WHERE user_id = $1 AND start_date <= $3 AND end_date >= $2
		ORDER BY start_date`, userID, dr.Start, dr.End)
}

func (r *freeDayRepo) ListActiveOn(ctx context.Context, date time.Time) ([]domain.FreeDay, error) {
	return r.list(ctx, `SELECT `+freeDayColumns+` FROM free_days
		WHERE start_date <= $1 AND end_date >= $1
		ORDER BY user_id`, date)
}

func (r *freeDayRepo) list(ctx context.Context, sql string, args ...any) ([]domain.FreeDay, error) {
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: 休暇一覧取得失敗: %w", err)
	}
	defer rows.Close()

	var out []domain.FreeDay
	for rows.Next() {
		f, err := scanFreeDay(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: 休暇読み取り失敗: %w", err)
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}
