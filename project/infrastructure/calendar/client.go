package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"timebot/project/domain"
	"timebot/project/infrastructure/config"
)

// TokenKey は共有カレンダーのトークンを保存するキーです
const TokenKey = "google-calendar"

// CallbackPath は OAuth のリダイレクト先です
const CallbackPath = "/google/oauth_callback"

// ErrNotConnected はカレンダー連携が未認可であることを表します
var ErrNotConnected = errors.New("calendar is not connected")

// Client は service.CalendarPort の Google Calendar 実装です
type Client struct {
	oauth      *oauth2.Config
	tokens     domain.TokenRepository
	calendarID string
	opts       []option.ClientOption
}

// NewOAuthConfig は共有カレンダー用の OAuth 設定を作成します
func NewOAuthConfig(cfg *config.Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  strings.TrimSuffix(cfg.AppBaseURL, "/") + CallbackPath,
		Scopes:       []string{gcal.CalendarEventsScope},
	}
}

// New はカレンダークライアントを作成します。opts は API クライアントに追加で渡されます
func New(oauth *oauth2.Config, tokens domain.TokenRepository, calendarID string, opts ...option.ClientOption) *Client {
	return &Client{oauth: oauth, tokens: tokens, calendarID: calendarID, opts: opts}
}

// AuthCodeURL は同意画面のURLを返します。リフレッシュトークンを得るため常に同意を求めます
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange は認可コードをトークンに交換して保存します
func (c *Client) Exchange(ctx context.Context, code string) error {
	tok, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("calendar: 認可コード交換失敗: %w", err)
	}
	return c.tokens.Save(ctx, TokenKey, fromOAuth(tok, time.Now()))
}

// InsertEvent は期間の終日イベントを登録し、イベントIDを返します
func (c *Client) InsertEvent(ctx context.Context, title string, r domain.DateRange) (string, error) {
	svc, err := c.service(ctx)
	if err != nil {
		return "", err
	}

	// 終日イベントの終了日は翌日（排他的）
	event := &gcal.Event{
		Summary: title,
		Start:   &gcal.EventDateTime{Date: r.Start.Format(domain.DateLayout)},
		End:     &gcal.EventDateTime{Date: r.End.AddDate(0, 0, 1).Format(domain.DateLayout)},
	}
	created, err := svc.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("calendar: イベント登録失敗 (calendar=%s): %w", c.calendarID, err)
	}
	return created.Id, nil
}

// DeleteEvent はイベントを削除します。既に存在しない場合は成功とします
func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	svc, err := c.service(ctx)
	if err != nil {
		return err
	}

	err = svc.Events.Delete(c.calendarID, eventID).Context(ctx).Do()
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && (gerr.Code == http.StatusNotFound || gerr.Code == http.StatusGone) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("calendar: イベント削除失敗 (event=%s): %w", eventID, err)
	}
	return nil
}

func (c *Client) service(ctx context.Context) (*gcal.Service, error) {
	stored, err := c.tokens.Get(ctx, TokenKey)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrNotConnected
	}
	if err != nil {
		return nil, err
	}

	tok := toOAuth(stored)
	src := &savingSource{
		ctx:    ctx,
		base:   c.oauth.TokenSource(ctx, tok),
		tokens: c.tokens,
		last:   tok.AccessToken,
	}

	opts := append([]option.ClientOption{option.WithTokenSource(oauth2.ReuseTokenSource(tok, src))}, c.opts...)
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("calendar: クライアント初期化失敗: %w", err)
	}
	return svc, nil
}

// savingSource は更新されたアクセストークンを保存するトークンソースです
type savingSource struct {
	ctx    context.Context
	base   oauth2.TokenSource
	tokens domain.TokenRepository

	mu   sync.Mutex
	last string
}

func (s *savingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		if err := s.tokens.Save(s.ctx, TokenKey, fromOAuth(tok, time.Now())); err != nil {
			slog.WarnContext(s.ctx, "calendar token save failed", "error", err)
		}
	}
	return tok, nil
}

func toOAuth(t *domain.OAuthToken) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		Expiry:       t.Expiry,
	}
}

func fromOAuth(t *oauth2.Token, now time.Time) *domain.OAuthToken {
	return &domain.OAuthToken{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		Expiry:       t.Expiry,
		UpdatedAt:    now,
	}
}
