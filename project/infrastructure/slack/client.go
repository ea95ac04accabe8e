package slack

import (
	"context"
	"fmt"
	"io"

	"github.com/slack-go/slack"

	"timebot/project/interaction"
	"timebot/project/service"
)

// SlackClient は service.SlackPort の Slack SDK 実装です
type SlackClient struct {
	cli *slack.Client
}

// NewSlackClient は Bot トークンで Slack クライアントを初期化します
func NewSlackClient(botToken string, opts ...slack.Option) *SlackClient {
	return &SlackClient{cli: slack.New(botToken, opts...)}
}

// OpenDialog はダイアログを開きます
func (sc *SlackClient) OpenDialog(ctx context.Context, triggerID string, d interaction.Dialog) error {
	if err := sc.cli.OpenDialogContext(ctx, triggerID, ToDialog(triggerID, d)); err != nil {
		return fmt.Errorf("slack: ダイアログ表示失敗 (callback=%s): %w", d.CallbackID, err)
	}
	return nil
}

// PostMessage はチャンネルにメッセージを投稿します
func (sc *SlackClient) PostMessage(ctx context.Context, channelID string, r *interaction.Reply) error {
	if _, _, err := sc.cli.PostMessageContext(ctx, channelID, msgOptions(r)...); err != nil {
		return fmt.Errorf("slack: メッセージ投稿失敗 (channel=%s): %w", channelID, err)
	}
	return nil
}

// PostEphemeral はチャンネル内で指定ユーザーにだけ見えるメッセージを投稿します
func (sc *SlackClient) PostEphemeral(ctx context.Context, channelID, userID string, r *interaction.Reply) error {
	if _, err := sc.cli.PostEphemeralContext(ctx, channelID, userID, msgOptions(r)...); err != nil {
		return fmt.Errorf("slack: エフェメラル投稿失敗 (channel=%s, user=%s): %w", channelID, userID, err)
	}
	return nil
}

// PostDM はユーザーに DM を送信します
func (sc *SlackClient) PostDM(ctx context.Context, userID string, r *interaction.Reply) error {
	channelID, err := sc.openDM(ctx, userID)
	if err != nil {
		return err
	}
	if _, _, err := sc.cli.PostMessageContext(ctx, channelID, msgOptions(r)...); err != nil {
		return fmt.Errorf("slack: DM 送信失敗 (user=%s): %w", userID, err)
	}
	return nil
}

// UploadFile は指定ユーザーのDMにファイルをアップロードします
func (sc *SlackClient) UploadFile(ctx context.Context, userID, filename, title string, content io.Reader) error {
	channelID, err := sc.openDM(ctx, userID)
	if err != nil {
		return err
	}
	_, err = sc.cli.UploadFileContext(ctx, slack.FileUploadParameters{
		Reader:   content,
		Filename: filename,
		Title:    title,
		Channels: []string{channelID},
	})
	if err != nil {
		return fmt.Errorf("slack: ファイルアップロード失敗 (user=%s, file=%s): %w", userID, filename, err)
	}
	return nil
}

// GetUserProfile は users.info からメンバー情報を取得します
func (sc *SlackClient) GetUserProfile(ctx context.Context, userID string) (*service.SlackProfile, error) {
	u, err := sc.cli.GetUserInfoContext(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("slack: ユーザー情報取得失敗 (user=%s): %w", userID, err)
	}
	return &service.SlackProfile{
		SlackUserID: u.ID,
		Email:       u.Profile.Email,
		FirstName:   u.Profile.FirstName,
		LastName:    u.Profile.LastName,
		Phone:       u.Profile.Phone,
		Admin:       u.IsAdmin || u.IsOwner,
	}, nil
}

// openDM はユーザーとの DM チャンネルを開き、そのIDを返します
func (sc *SlackClient) openDM(ctx context.Context, userID string) (string, error) {
	ch, _, _, err := sc.cli.OpenConversationContext(ctx, &slack.OpenConversationParameters{
		Users: []string{userID},
	})
	if err != nil {
		return "", fmt.Errorf("slack: DM チャンネル作成失敗 (user=%s): %w", userID, err)
	}
	return ch.ID, nil
}

func msgOptions(r *interaction.Reply) []slack.MsgOption {
	opts := []slack.MsgOption{slack.MsgOptionText(r.Text, false)}
	if atts := ToAttachments(r.Attachments); len(atts) > 0 {
		opts = append(opts, slack.MsgOptionAttachments(atts...))
	}
	if r.ThreadTS != "" {
		opts = append(opts, slack.MsgOptionTS(r.ThreadTS))
	}
	return opts
}
