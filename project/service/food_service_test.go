package service_test

import (
	"context"
	"strconv"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"timebot/project/domain"
	"timebot/project/interaction"
	"timebot/project/service"
)

var _ = Describe("FoodService", func() {
	var (
		f     *fixture
		ctx   context.Context
		order *domain.FoodOrder
	)

	BeforeEach(func() {
		f = newFixture(alice, bob, carol)
		ctx = context.Background()
		order = &domain.FoodOrder{
			ID: 500, OrderingUserID: alice.ID, OrderDate: date("2024-03-13"),
			Link: "https://pizza.example", ChannelID: "C1",
		}
	})

	addItem := func(id, eater int64, cost domain.Money) {
		f.stores.food.items = append(f.stores.food.items, domain.LineItem{
			ID: id, OrderID: order.ID, EatingUserID: eater, Description: "pizza", Cost: cost,
		})
	}

	Describe("StartOrder", func() {
		It("opens the order and schedules the checkout reminder", func() {
			reply, err := f.food.StartOrder(ctx, command("U1", "food <https://pizza.example|pizza>"), []string{"<https://pizza.example|pizza>"})
			Expect(err).NotTo(HaveOccurred())
			Expect(reply.ResponseType).To(Equal(interaction.InChannel))

			Expect(f.stores.food.orders).To(HaveLen(1))
			var created *domain.FoodOrder
			for _, o := range f.stores.food.orders {
				created = o
			}
			Expect(created.Link).To(Equal("https://pizza.example"))
			Expect(created.OrderingUserID).To(Equal(alice.ID))

			Expect(f.tasks.enqueued).To(ConsistOf(service.TaskPayload{OrderID: created.ID, ChannelID: "C1"}))
			Expect(f.tasks.runAt).To(ConsistOf(now.Add(15 * time.Minute)))

			actions := reply.Attachments[0].Actions
			Expect(actions).To(HaveLen(2))
			Expect(actions[0].Name).To(Equal(interaction.NewToken(interaction.FlowFood, 0, strconv.FormatInt(created.ID, 10)).String()))
			Expect(actions[0].Value).To(Equal(interaction.ValueOrder))
			Expect(actions[1].Value).To(Equal(interaction.ValuePass))
		})

		It("allows one open order per channel", func() {
			Expect(f.stores.food.CreateOrder(ctx, order)).To(Succeed())
			reply, err := f.food.StartOrder(ctx, command("U2", "food x"), []string{"x"})
			Expect(err).NotTo(HaveOccurred())
			Expect(reply.Text).To(ContainSubstring("already an open order"))
			Expect(f.stores.food.orders).To(HaveLen(1))
		})
	})

	Describe("ordering", func() {
		BeforeEach(func() {
			Expect(f.stores.food.CreateOrder(ctx, order)).To(Succeed())
		})

		It("records a pass as a surrender item", func() {
			reply, err := f.food.HandlePrompt(ctx, &interaction.FoodOrderPrompt{
				Envelope: interaction.Envelope{UserID: "U2", ChannelID: "C1"},
				OrderID:  order.ID,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(reply).To(BeNil())
			Expect(f.stores.food.items).To(HaveLen(1))
			Expect(f.stores.food.items[0].Surrender).To(BeTrue())
			Expect(f.slack.messages[0].Reply.Text).To(Equal("Bob is not ordering today."))
		})

		It("records an order from the dialog", func() {
			_, err := f.food.HandleOrderForm(ctx, &interaction.FoodOrderForm{
				Envelope:    interaction.Envelope{UserID: "U2", ChannelID: "C1"},
				OrderID:     order.ID,
				Description: "margherita",
				Cost:        1250,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(f.stores.food.items[0].Cost).To(Equal(domain.Money(1250)))
			Expect(f.slack.messages[0].Reply.Text).To(Equal("Bob ordered: margherita for 12.50 PLN :knife_fork_plate:"))
		})

		It("closes ordering after checkout", func() {
			order.CheckedOut = true
			Expect(f.stores.food.CreateOrder(ctx, order)).To(Succeed())
			reply, err := f.food.HandlePrompt(ctx, &interaction.FoodOrderPrompt{
				Envelope: interaction.Envelope{UserID: "U2"},
				OrderID:  order.ID,
				Order:    true,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(reply.Text).To(HavePrefix("Ordering is closed"))
			Expect(f.slack.dialogs).To(BeEmpty())
		})
	})

	Describe("Checkout", func() {
		BeforeEach(func() {
			Expect(f.stores.food.CreateOrder(ctx, order)).To(Succeed())
			addItem(1, bob.ID, 1250)
			addItem(2, carol.ID, 0)
			f.stores.food.items[1].Surrender = true
		})

		It("is reserved for the order owner", func() {
			reply, err := f.food.Checkout(ctx, command("U2", "order"), nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(reply.Text).To(Equal("You can't check out order for this channel. Are you order owner?"))
			Expect(f.stores.food.checkedOut).To(BeEmpty())
		})

		It("lists the orders and the total", func() {
			reply, err := f.food.Checkout(ctx, command("U1", "order"), nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(f.stores.food.checkedOut).To(Equal([]int64{order.ID}))
			Expect(reply.ResponseType).To(Equal(interaction.InChannel))
			Expect(reply.Attachments[0].Text).To(Equal(
				"*Alice checked out order:*\nBob - pizza (12.50 PLN)\n\nTotal cost: 12.50 PLN"))
		})
	})

	Describe("CheckoutReminder", func() {
		It("nudges the owner of a forgotten order", func() {
			Expect(f.stores.food.CreateOrder(ctx, order)).To(Succeed())
			Expect(f.food.CheckoutReminder(ctx, &service.TaskPayload{OrderID: order.ID, ChannelID: "C1"})).To(Succeed())
			Expect(f.slack.messages).To(HaveLen(1))
			Expect(f.slack.messages[0].To).To(Equal("C1"))
			Expect(f.slack.messages[0].Reply.Text).To(HavePrefix("<@U1> Looks like you forgot to order"))
		})

		It("ignores orders that were checked out or removed", func() {
			order.CheckedOut = true
			Expect(f.stores.food.CreateOrder(ctx, order)).To(Succeed())
			Expect(f.food.CheckoutReminder(ctx, &service.TaskPayload{OrderID: order.ID})).To(Succeed())
			Expect(f.food.CheckoutReminder(ctx, &service.TaskPayload{OrderID: 999})).To(Succeed())
			Expect(f.slack.messages).To(BeEmpty())
		})
	})

	Describe("debts", func() {
		BeforeEach(func() {
			Expect(f.stores.food.CreateOrder(ctx, order)).To(Succeed())
			addItem(1, bob.ID, 1250)
			addItem(2, bob.ID, 750)
			addItem(3, alice.ID, 900)
		})

		It("shows what the member owes with a pay button", func() {
			reply, err := f.food.Debt(ctx, command("U2", "debt"), nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(reply.Attachments).To(HaveLen(1))
			att := reply.Attachments[0]
			Expect(att.Text).To(Equal("You owe 20.00 PLN for Alice\nPay with BLIK using phone number: *600100200*"))
			Expect(att.CallbackID).To(Equal(interaction.CallbackDebt))
			Expect(att.Actions[0].Name).To(Equal("debt:0:1"))
		})

		It("shows what others owe the member", func() {
			reply, err := f.food.Debt(ctx, command("U1", "debt"), nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(reply.Attachments[0].Text).To(Equal("Bob owes you 20.00 PLN"))
			Expect(reply.Attachments[0].Actions).To(BeEmpty())
		})

		It("settles once and is idempotent", func() {
			pay := &interaction.DebtPayment{
				Envelope:   interaction.Envelope{UserID: "U2", ChannelID: "C1"},
				CreditorID: alice.ID,
			}

			reply, err := f.food.Pay(ctx, pay)
			Expect(err).NotTo(HaveOccurred())
			Expect(reply.Attachments[0].Text).To(HavePrefix("Lannisters always pay their debts"))
			Expect(f.stores.food.markPaidIDs).To(Equal([][]int64{{1, 2}}))
			Expect(f.slack.ephemerals).To(HaveLen(1))
			Expect(f.slack.ephemerals[0].User).To(Equal("U1"))

			reply, err = f.food.Pay(ctx, pay)
			Expect(err).NotTo(HaveOccurred())
			Expect(reply.Text).To(Equal("Nothing to settle with Alice, you are even :ok_hand:"))
			Expect(f.stores.food.markPaidIDs).To(HaveLen(1))
			Expect(f.slack.ephemerals).To(HaveLen(1))

			debt, err := f.food.Debt(ctx, command("U2", "debt"), nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(debt.Attachments[0].Text).To(HavePrefix("You have no debts"))
		})

		It("posts top debtors to channels with orders", func() {
			Expect(f.food.NudgeDebtors(ctx)).To(Succeed())
			Expect(f.slack.messages).To(HaveLen(1))
			Expect(f.slack.messages[0].To).To(Equal("C1"))
			Expect(f.slack.messages[0].Reply.Attachments[0].Text).To(ContainSubstring("Bob has total debt 20.00 PLN"))
		})

		It("skips the nudge when nobody owes anything", func() {
			for i := range f.stores.food.items {
				f.stores.food.items[i].Paid = true
			}
			Expect(f.food.NudgeDebtors(ctx)).To(Succeed())
			Expect(f.slack.messages).To(BeEmpty())
		})
	})
})
