package httpsec

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// maxSkew はリクエストタイムスタンプの許容誤差です
const maxSkew = 5 * time.Minute

// maxBody は受け付けるリクエスト本体の上限です
const maxBody = 1 << 20

// ErrBadSignature は署名検証に失敗したことを表します
var ErrBadSignature = errors.New("slack signature mismatch")

// VerifySlackSignature は Slack からのリクエストの署名を検証します
// X-Slack-Signature と X-Slack-Request-Timestamp を確認し、改ざんとリプレイを拒否します
func VerifySlackSignature(signingSecret, signature, timestamp, body string, now time.Time) error {
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp format: %w", err)
	}

	if d := now.Sub(time.Unix(ts, 0)); d > maxSkew || d < -maxSkew {
		return fmt.Errorf("request timestamp too old: now=%d, ts=%d", now.Unix(), ts)
	}

	// hash = HMAC-SHA256("v0:<timestamp>:<body>", signingSecret)
	expected := ComputeSignature(signingSecret, timestamp, body)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrBadSignature
	}
	return nil
}

// ComputeSignature は "v0=<hex>" 形式の Slack 署名を計算します
func ComputeSignature(signingSecret, timestamp, body string) string {
	h := hmac.New(sha256.New, []byte(signingSecret))
	h.Write([]byte("v0:" + timestamp + ":" + body))
	return fmt.Sprintf("v0=%x", h.Sum(nil))
}

// VerifyRequest はリクエスト本体を読み込んで署名を検証し、本体を返します。
// 検証後も r.Body は再度読み込めます
func VerifyRequest(r *http.Request, signingSecret string) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))

	if err := VerifySlackSignature(signingSecret,
		r.Header.Get("X-Slack-Signature"),
		r.Header.Get("X-Slack-Request-Timestamp"),
		string(body), time.Now()); err != nil {
		return nil, err
	}
	return body, nil
}
