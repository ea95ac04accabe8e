package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"timebot/project/domain"
	"timebot/project/infrastructure/secret"
)

// Config は環境変数から読み込まれるアプリケーション設定を表します
type Config struct {
	// 基本設定
	Env        string
	Port       string
	AppBaseURL string
	GcpProject string
	Region     string

	Database  DatabaseConfig
	Redis     RedisConfig
	Firestore FirestoreConfig
	Tasks     TasksConfig
	Google    GoogleConfig
	OTel      OTelConfig
	Rules     RulesConfig
	Schedule  ScheduleConfig

	// Slack API設定
	SlackSigningSecret string // Secret Manager から読み込み
	SlackBotToken      string // Secret Manager から読み込み

	// OAuthStateSecret はカレンダー連携の state 署名鍵
	OAuthStateSecret string // Secret Manager から読み込み

	// SnowflakeNode はID生成のノード番号
	SnowflakeNode int64
}

// DatabaseConfig は PostgreSQL の接続設定です
type DatabaseConfig struct {
	URL      string
	MaxConns int32
	MinConns int32
}

// RedisConfig はプロジェクト一覧キャッシュの設定です
type RedisConfig struct {
	URL        string
	ProjectTTL time.Duration
}

// FirestoreConfig はOAuthトークン保存先の設定です
type FirestoreConfig struct {
	ProjectID       string
	CollectionOAuth string
}

// TasksConfig は Cloud Tasks の設定です
type TasksConfig struct {
	Queue          string
	Audience       string
	ServiceAccount string
}

// GoogleConfig は共有カレンダー連携の設定です
type GoogleConfig struct {
	ClientID     string
	ClientSecret string // Secret Manager から読み込み
	CalendarName string
	TitleFormat  string
}

// OTelConfig は OpenTelemetry の設定です
type OTelConfig struct {
	Endpoint    string
	ServiceName string
}

// RulesConfig は業務ルールの設定です
type RulesConfig struct {
	DailyHourLimit        time.Duration
	UsersLocation         *time.Location
	DefaultRemindTime     domain.ClockTime
	DefaultProjectID      int64
	CheckoutReminderAfter time.Duration
	ReminderWindow        time.Duration
	Currency              string
}

// ScheduleConfig は定期ジョブの cron 式です
type ScheduleConfig struct {
	RemindCron  string
	DebtorsCron string
}

// ServiceType は起動するプロセスの種類です（.env ファイルの選択に使用）
type ServiceType string

const (
	ServiceTypeServer ServiceType = "server"
	ServiceTypeJob    ServiceType = "job"
)

// NewConfig は環境変数から設定を読み込み、Config構造体を返します
// GCP_PROJECT が設定されている場合、センシティブな情報は Secret Manager から取得します
func NewConfig(ctx context.Context, serviceType ServiceType) (*Config, error) {
	if getEnv("TIMEBOT_ENV", "development") == "development" {
		// サービス別の .env を優先し、なければ .env
		if err := godotenv.Load(fmt.Sprintf(".env.%s", serviceType)); err != nil {
			_ = godotenv.Load(".env")
		}
	}

	loc, err := time.LoadLocation(getEnv("USERS_TIME_ZONE", "Europe/Warsaw"))
	if err != nil {
		return nil, fmt.Errorf("USERS_TIME_ZONE が不正です: %w", err)
	}
	remindAt, err := domain.ParseClock(getEnv("DEFAULT_REMIND_TIME", "16:00"))
	if err != nil {
		return nil, fmt.Errorf("DEFAULT_REMIND_TIME が不正です: %w", err)
	}

	var missing []string
	cfg := &Config{
		Env:        getEnv("TIMEBOT_ENV", "development"),
		Port:       getEnv("PORT", "8080"),
		AppBaseURL: getEnv("APP_BASE_URL", "http://localhost:8080"),
		GcpProject: getEnv("GCP_PROJECT", ""),
		Region:     getEnv("REGION", ""),

		Database: DatabaseConfig{
			URL:      mustGetEnv("DATABASE_URL", &missing),
			MaxConns: int32(getEnvInt("DB_MAX_CONNS", 10)),
			MinConns: int32(getEnvInt("DB_MIN_CONNS", 2)),
		},
		Redis: RedisConfig{
			URL:        getEnv("REDIS_URL", ""),
			ProjectTTL: getEnvDuration("PROJECT_CACHE_TTL", 5*time.Minute),
		},
		Firestore: FirestoreConfig{
			ProjectID:       getEnv("FIRESTORE_PROJECT_ID", ""),
			CollectionOAuth: getEnv("FS_COLLECTION_OAUTH", "oauth_tokens"),
		},
		Tasks: TasksConfig{
			Queue:          getEnv("TASKS_QUEUE", ""),
			Audience:       getEnv("TASKS_AUDIENCE", ""),
			ServiceAccount: getEnv("TASKS_SERVICE_ACCOUNT", ""),
		},
		Google: GoogleConfig{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			CalendarName: getEnv("GOOGLE_CALENDAR_NAME", "primary"),
			TitleFormat:  getEnv("CALENDAR_TITLE_FORMAT", "%s - vacation"),
		},
		OTel: OTelConfig{
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "timebot"),
		},
		Rules: RulesConfig{
			DailyHourLimit:        getEnvDuration("DAILY_HOUR_LIMIT", domain.DefaultDailyLimit),
			UsersLocation:         loc,
			DefaultRemindTime:     remindAt,
			DefaultProjectID:      int64(getEnvInt("DEFAULT_PROJECT_ID", 0)),
			CheckoutReminderAfter: getEnvDuration("CHECKOUT_REMINDER_AFTER", 15*time.Minute),
			ReminderWindow:        getEnvDuration("REMINDER_WINDOW", time.Minute),
			Currency:              getEnv("CURRENCY", "PLN"),
		},
		Schedule: ScheduleConfig{
			RemindCron:  getEnv("REMIND_CRON", "* * * * *"),
			DebtorsCron: getEnv("DEBTORS_CRON", "45 11 * * 1-5"),
		},
		SlackSigningSecret: getEnv("SLACK_SIGNING_SECRET", ""),
		SlackBotToken:      getEnv("SLACK_BOT_TOKEN", ""),
		OAuthStateSecret:   getEnv("OAUTH_STATE_SECRET", ""),
		SnowflakeNode:      int64(getEnvInt("SNOWFLAKE_NODE", 1)),
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("必須の環境変数が未設定です: %s", strings.Join(missing, ", "))
	}

	if cfg.GcpProject != "" {
		if err := cfg.loadSecrets(ctx); err != nil {
			return nil, err
		}
	}

	if cfg.SlackSigningSecret == "" || cfg.SlackBotToken == "" {
		return nil, fmt.Errorf("SLACK_SIGNING_SECRET と SLACK_BOT_TOKEN は必須です")
	}

	return cfg, nil
}

// loadSecrets は Secret Manager からセンシティブな設定を取得します
func (c *Config) loadSecrets(ctx context.Context) error {
	mgr, err := secret.NewManager(ctx, c.GcpProject)
	if err != nil {
		return fmt.Errorf("Secret Manager クライアント初期化失敗: %w", err)
	}
	defer mgr.Close()

	return c.applySecrets(ctx, mgr)
}

// SecretSource はシークレットの取得元です
type SecretSource interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

func (c *Config) applySecrets(ctx context.Context, src SecretSource) error {
	required := []struct {
		name string
		dst  *string
	}{
		{"slack-signing-secret", &c.SlackSigningSecret},
		{"slack-bot-token", &c.SlackBotToken},
		{"oauth-state-secret", &c.OAuthStateSecret},
	}
	for _, s := range required {
		v, err := src.GetSecret(ctx, s.name)
		if err != nil {
			return fmt.Errorf("%s 取得失敗: %w", s.name, err)
		}
		*s.dst = v
	}

	// カレンダー連携は任意
	if c.Google.ClientID != "" {
		v, err := src.GetSecret(ctx, "google-client-secret")
		if err != nil {
			return fmt.Errorf("google-client-secret 取得失敗: %w", err)
		}
		c.Google.ClientSecret = v
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c RedisConfig) Enabled() bool {
	return c.URL != ""
}

func (c FirestoreConfig) Enabled() bool {
	return c.ProjectID != ""
}

func (c TasksConfig) Enabled() bool {
	return c.Queue != "" && c.Audience != ""
}

func (c GoogleConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

// TasksQueuePath は Cloud Tasks のキューのリソース名を返します
func (c *Config) TasksQueuePath() string {
	return fmt.Sprintf("projects/%s/locations/%s/queues/%s", c.GcpProject, c.Region, c.Tasks.Queue)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// mustGetEnv は必須の環境変数を返します。未設定なら missing にキーを追加します
func mustGetEnv(key string, missing *[]string) string {
	v := os.Getenv(key)
	if v == "" {
		*missing = append(*missing, key)
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
