package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"timebot/project/domain"
	"timebot/project/infrastructure/config"
)

const projectsKey = "timebot:projects"

// ProjectCache は service.ProjectCache の Redis 実装です
type ProjectCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisClient は URL から Redis クライアントを作成し、疎通を確認します
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis: URL 解析失敗: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis: 疎通確認失敗: %w", err)
	}
	return rdb, nil
}

func NewProjectCache(rdb *redis.Client, ttl time.Duration) *ProjectCache {
	return &ProjectCache{rdb: rdb, ttl: ttl}
}

type cachedProject struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Get はキャッシュされたプロジェクト一覧を返します
func (c *ProjectCache) Get(ctx context.Context) ([]domain.Project, bool, error) {
	raw, err := c.rdb.Get(ctx, projectsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis: プロジェクト一覧取得失敗: %w", err)
	}

	var cached []cachedProject
	if err := json.Unmarshal(raw, &cached); err != nil {
		// 壊れた値はキャッシュなしとして扱う
		return nil, false, nil
	}
	projects := make([]domain.Project, 0, len(cached))
	for _, p := range cached {
		projects = append(projects, domain.Project{ID: p.ID, Name: p.Name})
	}
	return projects, true, nil
}

// Set はプロジェクト一覧を TTL 付きで保存します
func (c *ProjectCache) Set(ctx context.Context, projects []domain.Project) error {
	cached := make([]cachedProject, 0, len(projects))
	for _, p := range projects {
		cached = append(cached, cachedProject{ID: p.ID, Name: p.Name})
	}
	raw, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("redis: プロジェクト一覧 JSON 化失敗: %w", err)
	}
	if err := c.rdb.Set(ctx, projectsKey, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis: プロジェクト一覧保存失敗: %w", err)
	}
	return nil
}

// Invalidate はキャッシュを破棄します
func (c *ProjectCache) Invalidate(ctx context.Context) error {
	if err := c.rdb.Del(ctx, projectsKey).Err(); err != nil {
		return fmt.Errorf("redis: プロジェクト一覧破棄失敗: %w", err)
	}
	return nil
}
