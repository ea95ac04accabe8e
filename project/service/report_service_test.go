package service_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"timebot/project/domain"
	"timebot/project/interaction"
)

var _ = Describe("ReportService", func() {
	var (
		f      *fixture
		ctx    context.Context
		period domain.DateRange
	)

	BeforeEach(func() {
		f = newFixture(alice, bob)
		ctx = context.Background()
		period = domain.DateRange{Start: date("2024-03-01"), End: date("2024-03-31")}
		f.stores.entries.listFn = func(_ context.Context, userID, projectID int64, r domain.DateRange) ([]domain.TimeEntry, error) {
			Expect(r).To(Equal(period))
			if userID != bob.ID {
				return nil, nil
			}
			return []domain.TimeEntry{{UserID: bob.ID, ProjectID: 10, Duration: 9 * time.Hour, ReportDate: date("2024-03-04")}}, nil
		}
	})

	request := func(userID, target string) *interaction.ReportRequest {
		return &interaction.ReportRequest{
			Envelope:     interaction.Envelope{UserID: userID},
			Period:       period,
			TargetUserID: target,
		}
	}

	It("prefills this month in the dialog", func() {
		_, err := f.reports.OpenDialog(ctx, command("U2", "report"), nil)
		Expect(err).NotTo(HaveOccurred())
		d := f.slack.dialogs[0].Dialog
		Expect(d.State).To(Equal("report:0:U2"))
		Expect(d.Elements[0].Value).To(Equal("2024-03-01"))
		Expect(d.Elements[1].Value).To(Equal("2024-03-13"))
	})

	It("refuses reports on other members for regular members", func() {
		reply, err := f.reports.OpenDialog(ctx, command("U2", "report <@U1>"), []string{"<@U1>"})
		Expect(err).NotTo(HaveOccurred())
		Expect(reply.Text).To(ContainSubstring("only admin user"))
		Expect(f.slack.dialogs).To(BeEmpty())

		reply, err = f.reports.Generate(ctx, request("U2", "U1"))
		Expect(err).NotTo(HaveOccurred())
		Expect(reply.Text).To(ContainSubstring("only admin user"))
		Expect(f.slack.uploads).To(BeEmpty())
	})

	It("uploads one sheet per member with records", func() {
		reply, err := f.reports.Generate(ctx, request("U1", ""))
		Expect(err).NotTo(HaveOccurred())
		Expect(reply).To(BeNil())
		Expect(f.report.sheets).To(HaveLen(1))
		Expect(f.report.sheets[0].User.ID).To(Equal(bob.ID))
		Expect(f.report.sheets[0].Summary.Total).To(Equal(9 * time.Hour))
		Expect(f.slack.uploads).To(Equal([]string{"report-2024-03-01-2024-03-31.xlsx"}))
	})

	It("tells when nobody reported anything", func() {
		f.stores.entries.listFn = func(context.Context, int64, int64, domain.DateRange) ([]domain.TimeEntry, error) {
			return nil, nil
		}
		reply, err := f.reports.Generate(ctx, request("U1", ""))
		Expect(err).NotTo(HaveOccurred())
		Expect(reply.Text).To(Equal("Nothing was reported between `2024-03-01 .. 2024-03-31`"))
		Expect(f.slack.uploads).To(BeEmpty())
	})

	It("still uploads a single member report without records", func() {
		reply, err := f.reports.Generate(ctx, request("U1", "U1"))
		Expect(err).NotTo(HaveOccurred())
		Expect(reply).To(BeNil())
		Expect(f.report.sheets[0].Entries).To(BeEmpty())
		Expect(f.slack.uploads).To(HaveLen(1))
	})
})
