package service_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"timebot/project/domain"
	"timebot/project/infrastructure/metrics"
	"timebot/project/interaction"
	"timebot/project/service"
)

var _ = Describe("ParseCommand", func() {
	It("splits the verb from its arguments", func() {
		verb, args := service.ParseCommand("  LIST <@U2>   today ")
		Expect(verb).To(Equal("list"))
		Expect(args).To(Equal([]string{"<@U2>", "today"}))
	})

	It("returns an empty verb for an empty command", func() {
		verb, args := service.ParseCommand("")
		Expect(verb).To(BeEmpty())
		Expect(args).To(BeEmpty())
	})
})

var _ = Describe("Router", func() {
	var (
		f   *fixture
		ctx context.Context
	)

	BeforeEach(func() {
		f = newFixture(alice, bob)
		ctx = context.Background()
	})

	It("registers every verb", func() {
		Expect(f.registry.Verbs()).To(ConsistOf(
			"", "list", "delete", "report", "help", "reminder", "vacation", "dayoff", "project", "food", "order", "debt",
		))
		spec, ok := f.registry.Lookup("report")
		Expect(ok).To(BeTrue())
		Expect(spec.Verb).To(Equal("report"))
	})

	It("opens the report dialog for report without arguments", func() {
		before := testutil.ToFloat64(metrics.Commands.WithLabelValues("report", metrics.OutcomeOK))

		reply, err := f.router.Route(ctx, command("U1", "report"))
		Expect(err).NotTo(HaveOccurred())
		Expect(reply).To(BeNil())
		Expect(f.slack.dialogs).To(HaveLen(1))
		Expect(f.slack.dialogs[0].TriggerID).To(Equal("trigger"))
		Expect(f.slack.dialogs[0].Dialog.CallbackID).To(Equal(interaction.CallbackReport))
		Expect(f.slack.dialogs[0].Dialog.State).To(Equal("report:0:"))

		Expect(testutil.ToFloat64(metrics.Commands.WithLabelValues("report", metrics.OutcomeOK))).To(Equal(before + 1))
	})

	It("answers unknown verbs with a hint", func() {
		reply, err := f.router.Route(ctx, command("U1", "xyz"))
		Expect(err).NotTo(HaveOccurred())
		Expect(reply.ResponseType).To(Equal(interaction.Ephemeral))
		Expect(reply.Text).To(Equal("I don't understand `xyz`. Try `/tt help`"))
		Expect(f.slack.dialogs).To(BeEmpty())
	})

	It("turns validation failures into field errors", func() {
		before := testutil.ToFloat64(metrics.Commands.WithLabelValues("list", metrics.OutcomeValidation))

		reply, err := f.router.Route(ctx, command("U1", "list yesterday-ish"))
		Expect(err).NotTo(HaveOccurred())
		Expect(errorFields(reply)).To(Equal([]string{"range"}))
		Expect(reply.Errors[0].Message).To(ContainSubstring("`yesterday-ish`"))

		Expect(testutil.ToFloat64(metrics.Commands.WithLabelValues("list", metrics.OutcomeValidation))).To(Equal(before + 1))
	})

	It("wraps internal errors", func() {
		boom := errors.New("slack down")
		f.slack.openDialogErr = boom

		reply, err := f.router.Route(ctx, command("U1", "report"))
		Expect(reply).To(BeNil())
		Expect(errors.Is(err, boom)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring(`"report"`))
	})

	It("opens the submit dialog for an empty command", func() {
		f.stores.projects.listForUserFn = func(context.Context, int64) ([]domain.Project, error) {
			return []domain.Project{{ID: 10, Name: "Apollo"}, {ID: 11, Name: "Gemini"}}, nil
		}

		reply, err := f.router.Route(ctx, command("U2", ""))
		Expect(err).NotTo(HaveOccurred())
		Expect(reply).To(BeNil())
		Expect(f.slack.dialogs).To(HaveLen(1))

		d := f.slack.dialogs[0].Dialog
		Expect(d.CallbackID).To(Equal(interaction.CallbackTimeSubmission))
		Expect(d.Elements[0].Name).To(Equal("project"))
		Expect(d.Elements[0].Value).To(Equal("10"))
		Expect(d.Elements[1].Value).To(Equal("2024-03-13"))
	})

	It("refuses project administration for regular members", func() {
		reply, err := f.router.Route(ctx, command("U2", "project"))
		Expect(err).NotTo(HaveOccurred())
		Expect(reply.Text).To(ContainSubstring("insufficient privileges"))
		Expect(f.slack.dialogs).To(BeEmpty())
	})

	Describe("help", func() {
		texts := func(r *interaction.Reply) []string {
			var out []string
			for _, a := range r.Attachments {
				out = append(out, a.Text)
			}
			return out
		}

		It("hides admin commands from regular members", func() {
			reply, err := f.router.Route(ctx, command("U2", "help"))
			Expect(err).NotTo(HaveOccurred())
			Expect(texts(reply)).To(ContainElement(ContainSubstring("*/tt report [@user]*")))
			Expect(texts(reply)).NotTo(ContainElement(ContainSubstring("project assign")))
		})

		It("shows admin commands to admins", func() {
			reply, err := f.router.Route(ctx, command("U1", "help"))
			Expect(err).NotTo(HaveOccurred())
			Expect(texts(reply)).To(ContainElement(ContainSubstring("*/tt project assign*")))
		})
	})
})
