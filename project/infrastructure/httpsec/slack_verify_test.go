package httpsec_test

import (
	"io"
	"net/http/httptest"
	"strconv"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"timebot/project/infrastructure/httpsec"
)

var _ = Describe("VerifySlackSignature", func() {
	const secret = "8f742231b10e8888abcd99yyyzzz85a5"
	now := time.Unix(1531420618, 0)
	ts := strconv.FormatInt(now.Unix(), 10)
	body := "token=xyz&command=%2Ftt&text=list"

	It("accepts a valid signature", func() {
		sig := httpsec.ComputeSignature(secret, ts, body)
		Expect(httpsec.VerifySlackSignature(secret, sig, ts, body, now)).To(Succeed())
	})

	It("rejects a tampered body", func() {
		sig := httpsec.ComputeSignature(secret, ts, body)
		err := httpsec.VerifySlackSignature(secret, sig, ts, body+"x", now)
		Expect(err).To(MatchError(httpsec.ErrBadSignature))
	})

	It("rejects replayed requests", func() {
		sig := httpsec.ComputeSignature(secret, ts, body)
		Expect(httpsec.VerifySlackSignature(secret, sig, ts, body, now.Add(6*time.Minute))).NotTo(Succeed())
	})

	It("rejects a malformed timestamp", func() {
		Expect(httpsec.VerifySlackSignature(secret, "v0=00", "abc", body, now)).NotTo(Succeed())
	})

	It("keeps the body readable after verification", func() {
		nowTS := strconv.FormatInt(time.Now().Unix(), 10)
		r := httptest.NewRequest("POST", "/slack/commands", strings.NewReader(body))
		r.Header.Set("X-Slack-Request-Timestamp", nowTS)
		r.Header.Set("X-Slack-Signature", httpsec.ComputeSignature(secret, nowTS, body))

		got, err := httpsec.VerifyRequest(r, secret)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(got)).To(Equal(body))

		again, err := io.ReadAll(r.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(again)).To(Equal(body))
	})
})
