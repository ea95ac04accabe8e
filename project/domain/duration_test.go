package domain_test

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"timebot/project/domain"
)

var _ = Describe("CheckCap", func() {
	It("rejects the whole addition when the cap is exceeded", func() {
		exceeds, ok := domain.CheckCap(8*time.Hour, 30*time.Minute, 8*time.Hour)
		Expect(ok).To(BeFalse())
		Expect(exceeds).To(Equal(30 * time.Minute))
	})

	It("accepts a total equal to the cap", func() {
		exceeds, ok := domain.CheckCap(12*time.Hour, 8*time.Hour, domain.DefaultDailyLimit)
		Expect(ok).To(BeTrue())
		Expect(exceeds).To(BeZero())
	})

	It("sums entries for the daily total", func() {
		entries := []domain.TimeEntry{{Duration: time.Hour}, {Duration: 90 * time.Minute}}
		Expect(domain.SumDurations(entries)).To(Equal(150 * time.Minute))
	})
})

var _ = Describe("time submission fields", func() {
	DescribeTable("ParseHours",
		func(in string, want int, valid bool) {
			h, err := domain.ParseHours(in)
			if !valid {
				Expect(errors.Is(err, domain.ErrInvalid)).To(BeTrue())
				return
			}
			Expect(err).NotTo(HaveOccurred())
			Expect(h).To(Equal(want))
		},
		Entry("zero", "0", 0, true),
		Entry("upper bound", "12", 12, true),
		Entry("above bound", "13", 0, false),
		Entry("negative", "-1", 0, false),
		Entry("not a number", "two", 0, false),
	)

	DescribeTable("ParseMinutes",
		func(in string, valid bool) {
			_, err := domain.ParseMinutes(in)
			Expect(err == nil).To(Equal(valid))
		},
		Entry("0", "0", true),
		Entry("45", "45", true),
		Entry("20", "20", false),
		Entry("60", "60", false),
	)

	It("formats hours without trailing zeros", func() {
		Expect(domain.FormatHours(90 * time.Minute)).To(Equal("1.5"))
		Expect(domain.FormatHours(8 * time.Hour)).To(Equal("8"))
	})
})
