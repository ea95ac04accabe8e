package domain_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"timebot/project/domain"
)

var _ = Describe("TimeRange", func() {
	// Thursday
	base := day("2018-12-13")

	DescribeTable("Bounds",
		func(r domain.TimeRange, from, to string) {
			Expect(r.Bounds(base)).To(Equal(span(from, to)))
		},
		Entry("today", domain.RangeToday, "2018-12-13", "2018-12-13"),
		Entry("yesterday", domain.RangeYesterday, "2018-12-12", "2018-12-12"),
		Entry("this week is clamped to today", domain.RangeThisWeek, "2018-12-10", "2018-12-13"),
		Entry("previous week", domain.RangePrevWeek, "2018-12-03", "2018-12-09"),
		Entry("this 2 weeks", domain.RangeThis2Weeks, "2018-12-03", "2018-12-13"),
		Entry("previous 2 weeks", domain.RangePrev2Weeks, "2018-11-26", "2018-12-09"),
		Entry("this month", domain.RangeThisMonth, "2018-12-01", "2018-12-13"),
		Entry("previous month", domain.RangePrevMonth, "2018-11-01", "2018-11-30"),
	)

	It("handles the January rollover for the previous month", func() {
		Expect(domain.RangePrevMonth.Bounds(day("2019-01-15"))).To(Equal(span("2018-12-01", "2018-12-31")))
	})

	It("treats Sunday as the end of the week", func() {
		Expect(domain.RangeThisWeek.Bounds(day("2018-12-16"))).To(Equal(span("2018-12-10", "2018-12-16")))
	})

	It("rejects unknown ranges", func() {
		_, err := domain.ParseTimeRange("fortnight")
		Expect(err).To(MatchError(domain.ErrInvalid))
		r, err := domain.ParseTimeRange("prev_week")
		Expect(err).NotTo(HaveOccurred())
		Expect(r.Label()).To(Equal("Previous week"))
	})
})
