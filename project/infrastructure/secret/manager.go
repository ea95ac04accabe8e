package secret

import (
	"context"
	"fmt"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
)

// versionAccessor は Secret Manager クライアントのうち使用する部分です
type versionAccessor interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
	Close() error
}

// Manager は Secret Manager から設定用のシークレットを読み込むクライアントです
type Manager struct {
	client    versionAccessor
	projectID string
}

// NewManager は Secret Manager のマネージャーを初期化します
func NewManager(ctx context.Context, projectID string) (*Manager, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("secret manager: クライアント初期化失敗: %w", err)
	}
	return &Manager{client: client, projectID: projectID}, nil
}

// versionName は最新版のリソース名 projects/{project}/secrets/{name}/versions/latest を返します
func (m *Manager) versionName(secretName string) string {
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", m.projectID, secretName)
}

// GetSecret は最新版のシークレット値を返します。空の値はエラーです
func (m *Manager) GetSecret(ctx context.Context, secretName string) (string, error) {
	res, err := m.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: m.versionName(secretName),
	})
	if err != nil {
		return "", fmt.Errorf("secret manager: シークレット取得失敗 (name=%s): %w", secretName, err)
	}

	v := string(res.GetPayload().GetData())
	if v == "" {
		return "", fmt.Errorf("secret manager: シークレット値が空です (name=%s)", secretName)
	}
	return v, nil
}

// Close は Secret Manager クライアントを閉じます
func (m *Manager) Close() error {
	if m.client != nil {
		return m.client.Close()
	}
	return nil
}
