package store

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"timebot/project/infrastructure/config"
)

//go:embed schema.sql
var schema string

// querier は *pgxpool.Pool と pgx.Tx の共通部分です
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB は PostgreSQL のコネクションプールです
type DB struct {
	pool *pgxpool.Pool
}

// NewDB はコネクションプールを作成し、疎通を確認します
func NewDB(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("postgres: 接続設定の解析失敗: %w", err)
	}

	poolCfg.MaxConns = 10
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.MinConns = 2
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: プール作成失敗: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: 疎通確認失敗: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close はプールを閉じます
func (db *DB) Close() {
	db.pool.Close()
}

// Ping は疎通を確認します（ヘルスチェック用）
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Migrate はスキーマを作成します（冪等）
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: マイグレーション失敗: %w", err)
	}
	return nil
}

// Stores はトランザクション外のリポジトリ群を返します
func (db *DB) Stores() *Stores {
	return &Stores{q: db.pool}
}

// WithTx は fn をトランザクション内で実行します。
// fn がエラーを返した場合はロールバックし、成功した場合はコミットします
func (db *DB) WithTx(ctx context.Context, fn func(s *Stores) error) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: トランザクション開始失敗: %w", err)
	}
	// コミット済みなら何もしない
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(&Stores{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: コミット失敗: %w", err)
	}
	return nil
}
