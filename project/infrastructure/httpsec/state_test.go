package httpsec_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"timebot/project/infrastructure/httpsec"
)

var _ = Describe("OAuth state", func() {
	now := time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC)

	It("round-trips the subject", func() {
		state, err := httpsec.SignState("secret", "U1", now, 10*time.Minute)
		Expect(err).NotTo(HaveOccurred())

		sub, err := httpsec.VerifyState("secret", state, now.Add(time.Minute))
		Expect(err).NotTo(HaveOccurred())
		Expect(sub).To(Equal("U1"))
	})

	It("rejects expired states", func() {
		state, err := httpsec.SignState("secret", "U1", now, 10*time.Minute)
		Expect(err).NotTo(HaveOccurred())
		_, err = httpsec.VerifyState("secret", state, now.Add(11*time.Minute))
		Expect(err).To(HaveOccurred())
	})

	It("rejects states signed with another key", func() {
		state, err := httpsec.SignState("other", "U1", now, 10*time.Minute)
		Expect(err).NotTo(HaveOccurred())
		_, err = httpsec.VerifyState("secret", state, now)
		Expect(err).To(HaveOccurred())
	})
})
