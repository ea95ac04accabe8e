package service_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"timebot/project/domain"
	"timebot/project/infrastructure/metrics"
	"timebot/project/infrastructure/scheduler"
	"timebot/project/interaction"
)

var _ = Describe("ReminderService", func() {
	var (
		f   *fixture
		ctx context.Context
	)

	withSchedule := func(u domain.User) domain.User {
		u.Reminders = domain.DefaultReminderSchedule(domain.ClockTime{Hour: 16}, time.UTC, now)
		return u
	}

	BeforeEach(func() {
		dave := domain.User{ID: 4, SlackUserID: "U4", FirstName: "Dave", Role: domain.RoleUser}
		f = newFixture(withSchedule(alice), withSchedule(bob), withSchedule(carol), dave)
		ctx = context.Background()
	})

	Describe("Command", func() {
		It("shows the current schedule", func() {
			reply, err := f.reminders.Command(ctx, command("U2", "reminder"), nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(reply.Text).To(Equal("Your reminder time is as follow:"))
			Expect(reply.Attachments[0].Text).To(Equal("Monday 16:00"))
			Expect(reply.Attachments[6].Text).To(Equal("Sunday OFF"))
			Expect(reply.Attachments[6].Color).NotTo(Equal(reply.Attachments[0].Color))
		})

		It("updates the schedule", func() {
			var saved domain.ReminderSchedule
			f.stores.users.updateRemindersFn = func(_ context.Context, id int64, s domain.ReminderSchedule) error {
				Expect(id).To(Equal(bob.ID))
				saved = s
				return nil
			}

			reply, err := f.reminders.Command(ctx, command("U2", "reminder set mon:10:30;fri:off"), []string{"set", "mon:10:30;fri:off"})
			Expect(err).NotTo(HaveOccurred())
			Expect(reply.Text).To(Equal("Remind times set:"))
			Expect(*saved[time.Monday]).To(Equal(domain.ClockTime{Hour: 10, Minute: 30}))
			Expect(saved[time.Friday]).To(BeNil())
			Expect(*saved[time.Tuesday]).To(Equal(domain.ClockTime{Hour: 16}))
		})

		It("rejects a broken configuration", func() {
			_, err := f.reminders.Command(ctx, command("U2", "reminder set xyz:10"), []string{"set", "xyz:10"})
			Expect(failedFields(err)).To(Equal([]string{"reminder"}))
		})
	})

	Describe("RunDue", func() {
		at := time.Date(2024, 3, 13, 16, 0, 0, 0, time.UTC)

		BeforeEach(func() {
			f.stores.entries.reportedUserIDsFn = func(_ context.Context, day time.Time) ([]int64, error) {
				Expect(day).To(Equal(date("2024-03-13")))
				return []int64{alice.ID}, nil
			}
			f.stores.freeDays.listActiveOnFn = func(context.Context, time.Time) ([]domain.FreeDay, error) {
				return []domain.FreeDay{{UserID: carol.ID, Kind: domain.KindVacation}}, nil
			}
		})

		It("reminds only members who are due and have not reported", func() {
			before := testutil.ToFloat64(metrics.RemindersSent)

			sent, err := f.reminders.RunDue(ctx, at)
			Expect(err).NotTo(HaveOccurred())
			Expect(sent).To(Equal(1))
			Expect(f.slack.dms).To(HaveLen(1))
			Expect(f.slack.dms[0].To).To(Equal("U2"))

			att := f.slack.dms[0].Reply.Attachments[0]
			Expect(att.CallbackID).To(Equal(interaction.CallbackReminder))
			Expect(att.Actions[0].Value).To(Equal("remind:0:2024-03-13"))
			Expect(testutil.ToFloat64(metrics.RemindersSent)).To(Equal(before + 1))
		})

		It("reminds once when the job runs every minute", func() {
			sch, err := scheduler.New(time.UTC, scheduler.Job{
				Name: "remind",
				Cron: "* * * * *",
				Run: func(ctx context.Context, now time.Time) error {
					_, err := f.reminders.RunDue(ctx, now)
					return err
				},
			})
			Expect(err).NotTo(HaveOccurred())

			for t := at.Add(-5 * time.Minute); !t.After(at.Add(9 * time.Minute)); t = t.Add(time.Minute) {
				sch.Tick(ctx, t.Add(700*time.Millisecond))
			}
			Expect(f.slack.dms).To(HaveLen(1))
			Expect(f.slack.dms[0].To).To(Equal("U2"))
		})

		It("sends nothing outside the window", func() {
			sent, err := f.reminders.RunDue(ctx, at.Add(10*time.Minute))
			Expect(err).NotTo(HaveOccurred())
			Expect(sent).To(BeZero())
		})

		It("sends nothing on public holidays", func() {
			sent, err := f.reminders.RunDue(ctx, time.Date(2024, 5, 1, 16, 2, 0, 0, time.UTC))
			Expect(err).NotTo(HaveOccurred())
			Expect(sent).To(BeZero())
			Expect(f.slack.dms).To(BeEmpty())
		})

		It("counts delivery failures and carries on", func() {
			f.slack.postDMErr = errors.New("channel_not_found")
			before := testutil.ToFloat64(metrics.NotificationFailures.WithLabelValues("reminder"))

			sent, err := f.reminders.RunDue(ctx, at)
			Expect(err).NotTo(HaveOccurred())
			Expect(sent).To(BeZero())
			Expect(testutil.ToFloat64(metrics.NotificationFailures.WithLabelValues("reminder"))).To(Equal(before + 1))
		})
	})
})
