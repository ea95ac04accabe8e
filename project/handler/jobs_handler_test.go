package handler_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"timebot/project/handler"
	"timebot/project/infrastructure/httpsec"
	"timebot/project/service"
)

var _ = Describe("job handlers", func() {
	Describe("CheckoutHandler", func() {
		It("runs the checkout reminder for the order", func() {
			food := &mockFood{}
			rec := httptest.NewRecorder()
			handler.NewCheckoutHandler(food).ServeHTTP(rec,
				httptest.NewRequest("POST", "/tasks/food-checkout", strings.NewReader(`{"order_id":7,"channel_id":"C1"}`)))

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(food.got).To(Equal(&service.TaskPayload{OrderID: 7, ChannelID: "C1"}))
		})

		It("acknowledges failures so the task is not retried", func() {
			food := &mockFood{err: errors.New("slack down")}
			rec := httptest.NewRecorder()
			handler.NewCheckoutHandler(food).ServeHTTP(rec,
				httptest.NewRequest("POST", "/tasks/food-checkout", strings.NewReader(`{"order_id":7}`)))
			Expect(rec.Code).To(Equal(http.StatusOK))
		})

		It("rejects malformed payloads", func() {
			rec := httptest.NewRecorder()
			handler.NewCheckoutHandler(&mockFood{}).ServeHTTP(rec,
				httptest.NewRequest("POST", "/tasks/food-checkout", strings.NewReader(`{`)))
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("RemindHandler", func() {
		It("runs the reminder job at the current time", func() {
			at := time.Date(2024, 3, 13, 16, 0, 0, 0, time.UTC)
			reminders := &mockReminders{sent: 3}
			rec := httptest.NewRecorder()
			handler.NewRemindHandler(reminders, fixedClock{now: at}).ServeHTTP(rec, httptest.NewRequest("POST", "/jobs/remind", nil))

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(reminders.at).To(Equal(at))
			Expect(rec.Body.String()).To(MatchJSON(`{"status":"ok","sent":3}`))
		})

		It("only accepts POST", func() {
			rec := httptest.NewRecorder()
			handler.NewRemindHandler(&mockReminders{}, fixedClock{}).ServeHTTP(rec, httptest.NewRequest("GET", "/jobs/remind", nil))
			Expect(rec.Code).To(Equal(http.StatusMethodNotAllowed))
		})
	})

	Describe("OAuthHandler", func() {
		var (
			cal *mockCalendar
			h   *handler.OAuthHandler
		)

		BeforeEach(func() {
			cal = &mockCalendar{}
			h = handler.NewOAuthHandler("state-secret", cal)
		})

		It("redirects to the consent screen with a signed state", func() {
			rec := httptest.NewRecorder()
			h.Authorize(rec, httptest.NewRequest("GET", "/google/authorize", nil))

			Expect(rec.Code).To(Equal(http.StatusFound))
			loc, err := url.Parse(rec.Header().Get("Location"))
			Expect(err).NotTo(HaveOccurred())
			sub, err := httpsec.VerifyState("state-secret", loc.Query().Get("state"), time.Now())
			Expect(err).NotTo(HaveOccurred())
			Expect(sub).To(Equal("calendar"))
		})

		It("exchanges the code when the state is valid", func() {
			state, err := httpsec.SignState("state-secret", "calendar", time.Now(), time.Minute)
			Expect(err).NotTo(HaveOccurred())

			rec := httptest.NewRecorder()
			h.Callback(rec, httptest.NewRequest("GET", "/google/oauth_callback?code=abc&state="+url.QueryEscape(state), nil))
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(cal.code).To(Equal("abc"))
		})

		It("refuses forged states", func() {
			state, err := httpsec.SignState("other-secret", "calendar", time.Now(), time.Minute)
			Expect(err).NotTo(HaveOccurred())

			rec := httptest.NewRecorder()
			h.Callback(rec, httptest.NewRequest("GET", "/google/oauth_callback?code=abc&state="+url.QueryEscape(state), nil))
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(cal.code).To(BeEmpty())
		})
	})

	Describe("HealthHandler", func() {
		It("reports the database state", func() {
			rec := httptest.NewRecorder()
			handler.NewHealthHandler(mockPinger{}).ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
			Expect(rec.Code).To(Equal(http.StatusOK))

			rec = httptest.NewRecorder()
			handler.NewHealthHandler(mockPinger{err: errors.New("down")}).ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
			Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
		})
	})
})
