package service_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"timebot/project/domain"
	"timebot/project/interaction"
)

var _ = Describe("ProjectService", func() {
	var (
		f   *fixture
		ctx context.Context
	)

	BeforeEach(func() {
		f = newFixture(alice, bob)
		ctx = context.Background()
		f.stores.projects.getFn = func(_ context.Context, id int64) (*domain.Project, error) {
			return &domain.Project{ID: id, Name: "Apollo"}, nil
		}
		f.stores.projects.listFn = func(context.Context) ([]domain.Project, error) {
			return []domain.Project{{ID: 10, Name: "Apollo"}}, nil
		}
	})

	admin := func(p *interaction.ProjectAction) *interaction.ProjectAction {
		p.UserID = "U1"
		return p
	}

	It("creates a project and assigns the selected member", func() {
		var created domain.Project
		f.stores.projects.createFn = func(_ context.Context, p *domain.Project) error {
			created = *p
			return nil
		}

		reply, err := f.projects.Handle(ctx, admin(&interaction.ProjectAction{
			Op: interaction.ProjectCreate, Name: "Apollo", MemberID: "U2",
		}))
		Expect(err).NotTo(HaveOccurred())
		Expect(reply).To(BeNil())
		Expect(created.ID).To(BeNumerically(">", 0))
		Expect(f.stores.projects.assigned).To(Equal([][2]int64{{bob.ID, created.ID}}))
		Expect(f.slack.dms[0].Reply.Text).To(Equal("New project *Apollo* has been successfully created!"))
	})

	It("walks through the assignment flow", func() {
		reply, err := f.projects.Command(ctx, command("U1", "project assign"), []string{"assign"})
		Expect(err).NotTo(HaveOccurred())
		Expect(reply.Attachments[0].Actions[0].Name).To(Equal("project:1:assign"))
		Expect(reply.Attachments[0].Actions[0].DataSource).To(Equal("users"))

		reply, err = f.projects.Handle(ctx, admin(&interaction.ProjectAction{
			Op: interaction.ProjectAssign, Step: 1, MemberID: "U2",
		}))
		Expect(err).NotTo(HaveOccurred())
		Expect(reply.Attachments[0].Actions[0].Name).To(Equal("project:2:assign:U2"))
		Expect(reply.Attachments[0].Actions[0].Options).To(ConsistOf(interaction.Option{Label: "Apollo", Value: "10"}))

		reply, err = f.projects.Handle(ctx, admin(&interaction.ProjectAction{
			Op: interaction.ProjectAssign, Step: 2, MemberID: "U2", ProjectID: 10,
		}))
		Expect(err).NotTo(HaveOccurred())
		Expect(reply.Text).To(Equal("User <@U2> has been assigned to *Apollo*"))
		Expect(f.stores.projects.assigned).To(Equal([][2]int64{{bob.ID, 10}}))
	})

	It("unassigns members", func() {
		reply, err := f.projects.Handle(ctx, admin(&interaction.ProjectAction{
			Op: interaction.ProjectUnassign, Step: 2, MemberID: "U2", ProjectID: 10,
		}))
		Expect(err).NotTo(HaveOccurred())
		Expect(reply.Text).To(Equal("User <@U2> has been unassigned from *Apollo*"))
		Expect(f.stores.projects.unassigned).To(Equal([][2]int64{{bob.ID, 10}}))
	})

	It("rejects unknown sub-commands", func() {
		_, err := f.projects.Command(ctx, command("U1", "project rename"), []string{"rename"})
		Expect(failedFields(err)).To(Equal([]string{"project"}))
	})

	It("ignores forged actions from regular members", func() {
		reply, err := f.projects.Handle(ctx, &interaction.ProjectAction{
			Envelope: interaction.Envelope{UserID: "U2"},
			Op:       interaction.ProjectAssign, Step: 2, MemberID: "U2", ProjectID: 10,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(reply.Text).To(ContainSubstring("insufficient privileges"))
		Expect(f.stores.projects.assigned).To(BeEmpty())
	})
})
