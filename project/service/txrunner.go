package service

import (
	"context"

	"timebot/project/infrastructure/store"
)

type dbTxRunner struct {
	db *store.DB
}

// NewTxRunner は PostgreSQL のトランザクションで動く TxRunner を作成します
func NewTxRunner(db *store.DB) TxRunner {
	return &dbTxRunner{db: db}
}

func (r *dbTxRunner) WithTx(ctx context.Context, fn func(s Stores) error) error {
	return r.db.WithTx(ctx, func(s *store.Stores) error {
		return fn(s)
	})
}
