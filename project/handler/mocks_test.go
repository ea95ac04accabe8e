package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"time"

	"timebot/project/infrastructure/httpsec"
	"timebot/project/interaction"
	"timebot/project/service"
)

const signingSecret = "test-secret"

// signedRequest は Slack の署名付きリクエストを作成します
func signedRequest(method, path, contentType, body string) *http.Request {
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	r.Header.Set("Content-Type", contentType)
	r.Header.Set("X-Slack-Request-Timestamp", ts)
	r.Header.Set("X-Slack-Signature", httpsec.ComputeSignature(signingSecret, ts, body))
	return r
}

type mockRouter struct {
	got   *service.Command
	reply *interaction.Reply
	err   error
}

func (m *mockRouter) Route(_ context.Context, cmd *service.Command) (*interaction.Reply, error) {
	m.got = cmd
	return m.reply, m.err
}

type mockDispatcher struct {
	got   []byte
	reply *interaction.Reply
	err   error
}

func (m *mockDispatcher) Dispatch(_ context.Context, body []byte) (*interaction.Envelope, *interaction.Reply, error) {
	m.got = body
	return nil, m.reply, m.err
}

type posted struct {
	Channel string
	User    string
	Reply   *interaction.Reply
}

type mockPoster struct {
	messages   []posted
	ephemerals []posted
	err        error
}

func (m *mockPoster) PostMessage(_ context.Context, channelID string, r *interaction.Reply) error {
	m.messages = append(m.messages, posted{Channel: channelID, Reply: r})
	return m.err
}

func (m *mockPoster) PostEphemeral(_ context.Context, channelID, userID string, r *interaction.Reply) error {
	m.ephemerals = append(m.ephemerals, posted{Channel: channelID, User: userID, Reply: r})
	return m.err
}

type mockCalendar struct {
	code string
	err  error
}

func (m *mockCalendar) AuthCodeURL(state string) string {
	return "https://accounts.example/auth?state=" + state
}

func (m *mockCalendar) Exchange(_ context.Context, code string) error {
	m.code = code
	return m.err
}

type mockFood struct {
	got *service.TaskPayload
	err error
}

func (m *mockFood) CheckoutReminder(_ context.Context, p *service.TaskPayload) error {
	m.got = p
	return m.err
}

type mockReminders struct {
	at   time.Time
	sent int
	err  error
}

func (m *mockReminders) RunDue(_ context.Context, now time.Time) (int, error) {
	m.at = now
	return m.sent, m.err
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type mockPinger struct{ err error }

func (m mockPinger) Ping(context.Context) error { return m.err }
