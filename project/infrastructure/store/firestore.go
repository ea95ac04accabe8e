package store

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"timebot/project/domain"
	"timebot/project/infrastructure/config"
)

// isNotFound は Firestore の NotFound エラーを判定するヘルパー関数です
func isNotFound(err error) bool {
	st, ok := status.FromError(err)
	return ok && st.Code() == codes.NotFound
}

// FirestoreRepo は domain.TokenRepository の Firestore 実装です
type FirestoreRepo struct {
	cli      *firestore.Client
	tokenCol string
}

// tokenDoc は OAuth トークンの保存形式です
type tokenDoc struct {
	AccessToken  string    `firestore:"access_token"`
	RefreshToken string    `firestore:"refresh_token"`
	TokenType    string    `firestore:"token_type"`
	Expiry       time.Time `firestore:"expiry"`
	UpdatedAt    time.Time `firestore:"updated_at"`
}

// NewFirestoreRepo は Firestore リポジトリを初期化します
func NewFirestoreRepo(ctx context.Context, cfg config.FirestoreConfig) (*FirestoreRepo, error) {
	client, err := firestore.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("firestore: クライアント初期化失敗: %w", err)
	}

	return &FirestoreRepo{
		cli:      client,
		tokenCol: cfg.CollectionOAuth,
	}, nil
}

// Get はトークンを取得します
func (repo *FirestoreRepo) Get(ctx context.Context, key string) (*domain.OAuthToken, error) {
	snapshot, err := repo.cli.Collection(repo.tokenCol).Doc(key).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("firestore: トークン取得失敗 (docID=%s): %w", key, err)
	}

	var d tokenDoc
	if err := snapshot.DataTo(&d); err != nil {
		return nil, fmt.Errorf("firestore: トークン構造体変換失敗: %w", err)
	}

	return &domain.OAuthToken{
		AccessToken:  d.AccessToken,
		RefreshToken: d.RefreshToken,
		TokenType:    d.TokenType,
		Expiry:       d.Expiry,
		UpdatedAt:    d.UpdatedAt,
	}, nil
}

// Save はトークンを保存します。
// リフレッシュトークンが空の場合は既存の値を残します
func (repo *FirestoreRepo) Save(ctx context.Context, key string, t *domain.OAuthToken) error {
	data := map[string]interface{}{
		"access_token": t.AccessToken,
		"token_type":   t.TokenType,
		"expiry":       t.Expiry,
		"updated_at":   t.UpdatedAt,
	}
	if t.RefreshToken != "" {
		data["refresh_token"] = t.RefreshToken
	}

	if _, err := repo.cli.Collection(repo.tokenCol).Doc(key).Set(ctx, data, firestore.MergeAll); err != nil {
		return fmt.Errorf("firestore: トークン保存失敗 (docID=%s): %w", key, err)
	}
	return nil
}

// Close は Firestore クライアントを閉じます
func (repo *FirestoreRepo) Close() error {
	if repo.cli != nil {
		return repo.cli.Close()
	}
	return nil
}
