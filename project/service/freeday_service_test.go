package service_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"timebot/project/domain"
	"timebot/project/interaction"
)

var _ = Describe("FreeDayService", func() {
	var (
		f        *fixture
		ctx      context.Context
		existing []domain.FreeDay
	)

	BeforeEach(func() {
		f = newFixture(alice, bob)
		ctx = context.Background()
		existing = []domain.FreeDay{{
			ID: 40, UserID: bob.ID, Kind: domain.KindVacation,
			Range: domain.DateRange{Start: date("2024-03-20"), End: date("2024-03-22")},
		}}
		f.stores.freeDays.listEndingAfterFn = func(_ context.Context, userID int64, from time.Time, _ domain.FreeDayKind) ([]domain.FreeDay, error) {
			Expect(userID).To(Equal(bob.ID))
			Expect(from).To(Equal(date("2024-03-13")))
			return existing, nil
		}
	})

	request := func(kind domain.FreeDayKind, start, end string) *interaction.FreeDaysRequest {
		return &interaction.FreeDaysRequest{
			Envelope: interaction.Envelope{UserID: "U2", ChannelID: "C1"},
			Step:     interaction.FreeDaysStepSubmit,
			Kind:     kind,
			Range:    domain.DateRange{Start: date(start), End: date(end)},
		}
	}

	It("opens the request dialog with tomorrow as default", func() {
		reply, err := f.freeDays.Vacation(ctx, command("U2", "vacation"), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(reply).To(BeNil())
		d := f.slack.dialogs[0].Dialog
		Expect(d.State).To(Equal("freedays:0:vacation"))
		Expect(d.Elements[0].Value).To(Equal("2024-03-14"))
	})

	It("rejects unknown arguments", func() {
		_, err := f.freeDays.DayOff(ctx, command("U2", "dayoff later"), []string{"later"})
		Expect(failedFields(err)).To(Equal([]string{"dayoff"}))
	})

	It("rejects ranges starting inside other free days", func() {
		_, err := f.freeDays.Handle(ctx, request(domain.KindDayOff, "2024-03-21", "2024-03-25"))
		Expect(failedFields(err)).To(Equal([]string{"start_date"}))
		Expect(f.stores.freeDays.created).To(BeEmpty())
		Expect(f.stores.users.lockCalls).To(Equal(1))
	})

	It("reports every broken field at once", func() {
		_, err := f.freeDays.Handle(ctx, request(domain.KindVacation, "2024-03-13", "2024-03-12"))
		Expect(failedFields(err)).To(ConsistOf("start_date", "end_date"))
	})

	It("stores a vacation and mirrors it to the calendar", func() {
		reply, err := f.freeDays.Handle(ctx, request(domain.KindVacation, "2024-03-14", "2024-03-15"))
		Expect(err).NotTo(HaveOccurred())
		Expect(reply).To(BeNil())

		Expect(f.stores.freeDays.created).To(HaveLen(1))
		created := f.stores.freeDays.created[0]
		Expect(created.UserID).To(Equal(bob.ID))
		Expect(f.calendar.inserted).To(Equal([]string{"Bob - vacation"}))
		Expect(f.stores.freeDays.eventIDs).To(HaveKeyWithValue(created.ID, "evt-1"))
		Expect(f.slack.dms[0].Reply.Text).To(Equal("Reported vacation from `Thursday, 14 March` to `Friday, 15 March`"))
	})

	It("keeps the request when the calendar is unavailable", func() {
		f.calendar.err = errors.New("quota")
		_, err := f.freeDays.Handle(ctx, request(domain.KindVacation, "2024-03-14", "2024-03-14"))
		Expect(err).NotTo(HaveOccurred())
		Expect(f.stores.freeDays.created).To(HaveLen(1))
		Expect(f.stores.freeDays.eventIDs).To(BeEmpty())
		Expect(f.slack.dms).To(HaveLen(1))
	})

	It("does not mirror days off", func() {
		_, err := f.freeDays.Handle(ctx, request(domain.KindDayOff, "2024-03-14", "2024-03-14"))
		Expect(err).NotTo(HaveOccurred())
		Expect(f.calendar.inserted).To(BeEmpty())
	})

	Describe("removal", func() {
		BeforeEach(func() {
			f.stores.freeDays.getFn = func(_ context.Context, id int64) (*domain.FreeDay, error) {
				fd := existing[0]
				fd.EventID = "evt-9"
				return &fd, nil
			}
		})

		It("lists upcoming entries of the kind", func() {
			reply, err := f.freeDays.Vacation(ctx, command("U2", "vacation delete"), []string{"delete"})
			Expect(err).NotTo(HaveOccurred())
			Expect(reply.Attachments[0].Actions[0].Name).To(Equal("freedays:1"))
			Expect(reply.Attachments[0].Actions[0].Options).To(ConsistOf(
				interaction.Option{Label: "2024-03-20 .. 2024-03-22", Value: "40"},
			))
		})

		It("deletes the entry and its calendar event after confirmation", func() {
			reply, err := f.freeDays.Handle(ctx, &interaction.FreeDaysRequest{
				Envelope:  interaction.Envelope{UserID: "U2"},
				Step:      interaction.FreeDaysStepConfirm,
				FreeDayID: 40,
				Confirmed: true,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(reply.Text).To(HavePrefix("Removed vacation"))
			Expect(f.stores.freeDays.deleted).To(Equal([]int64{40}))
			Expect(f.calendar.deleted).To(Equal([]string{"evt-9"}))
		})

		It("treats entries of other members as missing", func() {
			_, err := f.freeDays.Handle(ctx, &interaction.FreeDaysRequest{
				Envelope:  interaction.Envelope{UserID: "U1"},
				Step:      interaction.FreeDaysStepSelect,
				FreeDayID: 40,
			})
			Expect(err).To(MatchError(domain.ErrNotFound))
		})
	})
})
