package store

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"timebot/project/domain"
)

// Stores は同じ接続（またはトランザクション）を共有するリポジトリ群です
type Stores struct {
	q querier
}

func (s *Stores) Users() domain.UserRepository { return &userRepo{q: s.q} }
func (s *Stores) Projects() domain.ProjectRepository { return &projectRepo{q: s.q} }
func (s *Stores) TimeEntries() domain.TimeEntryRepository { return &timeEntryRepo{q: s.q} }
func (s *Stores) FreeDays() domain.FreeDayRepository { return &freeDayRepo{q: s.q} }
func (s *Stores) Food() domain.FoodRepository { return &foodRepo{q: s.q} }

// uniqueViolation は PostgreSQL の一意制約違反のエラーコードです
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// notFound は pgx.ErrNoRows を domain.ErrNotFound に変換します
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}
