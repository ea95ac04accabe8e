package handler_test

import (
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"timebot/project/handler"
)

var _ = Describe("EventsHandler", func() {
	var (
		poster *mockPoster
		h      *handler.EventsHandler
	)

	serve := func(r *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec
	}

	BeforeEach(func() {
		poster = &mockPoster{}
		h = handler.NewEventsHandler(signingSecret, "/tt", poster)
	})

	It("answers the url verification challenge", func() {
		r := httptest.NewRequest("POST", "/slack/events", strings.NewReader(`{"type":"url_verification","challenge":"abc"}`))
		rec := serve(r)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(Equal("abc"))
	})

	It("replies to mentions with help in the thread", func() {
		body := `{"type":"event_callback","event":{"type":"app_mention","user":"U1","text":"<@B1> hi","channel":"C1","ts":"1700.1"}}`
		rec := serve(signedRequest("POST", "/slack/events", "application/json", body))

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(poster.messages).To(HaveLen(1))
		Expect(poster.messages[0].Channel).To(Equal("C1"))
		Expect(poster.messages[0].Reply.ThreadTS).To(Equal("1700.1"))
		Expect(poster.messages[0].Reply.Attachments[0].Text).To(ContainSubstring("/tt"))
	})

	It("ignores bot messages and retries", func() {
		bot := `{"type":"event_callback","event":{"type":"app_mention","bot_id":"B1","channel":"C1","ts":"1"}}`
		Expect(serve(signedRequest("POST", "/slack/events", "application/json", bot)).Code).To(Equal(http.StatusOK))

		retry := signedRequest("POST", "/slack/events", "application/json",
			`{"type":"event_callback","event":{"type":"app_mention","user":"U1","channel":"C1","ts":"1"}}`)
		retry.Header.Set("X-Slack-Retry-Num", "1")
		Expect(serve(retry).Code).To(Equal(http.StatusOK))

		Expect(poster.messages).To(BeEmpty())
	})

	It("rejects unsigned events", func() {
		r := httptest.NewRequest("POST", "/slack/events", strings.NewReader(`{"type":"event_callback"}`))
		Expect(serve(r).Code).To(Equal(http.StatusUnauthorized))
	})
})
