package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"timebot/project/domain"
	"timebot/project/infrastructure/config"
	"timebot/project/infrastructure/id"
	"timebot/project/interaction"
)

const (
	// topDebtorsLimit は定期通知に載せる債務者の人数
	topDebtorsLimit = 5

	// foodChannelsLookback はこの期間内に注文のあったチャンネルへ定期通知します
	foodChannelsLookback = 30 * 24 * time.Hour
)

// FoodService は食事の共同注文と立替精算を管理するサービスです
type FoodService interface {
	// StartOrder は food コマンドを処理し、チャンネルの今日の注文を開始します
	StartOrder(ctx context.Context, cmd *Command, args []string) (*interaction.Reply, error)

	// Checkout は order コマンドを処理し、注文を締め切って明細を投稿します（注文者のみ）
	Checkout(ctx context.Context, cmd *Command, args []string) (*interaction.Reply, error)

	// Debt は debt コマンドを処理し、相手ごとの残高を返します
	Debt(ctx context.Context, cmd *Command, args []string) (*interaction.Reply, error)

	// HandlePrompt は注文案内の order / pass ボタンを処理します
	HandlePrompt(ctx context.Context, p *interaction.FoodOrderPrompt) (*interaction.Reply, error)

	// HandleOrderForm は注文内容ダイアログの送信を処理します
	HandleOrderForm(ctx context.Context, p *interaction.FoodOrderForm) (*interaction.Reply, error)

	// Pay は「I just paid」ボタンを処理し、2人の間の未払い明細を精算します（冪等）
	Pay(ctx context.Context, p *interaction.DebtPayment) (*interaction.Reply, error)

	// CheckoutReminder は締め忘れの注文があれば注文者に通知します（Cloud Tasks から呼ばれる）
	CheckoutReminder(ctx context.Context, p *TaskPayload) error

	// NudgeDebtors は未払い総額の上位メンバーを注文のあったチャンネルに投稿します
	NudgeDebtors(ctx context.Context) error
}

type foodService struct {
	rules config.RulesConfig
	st    Stores
	tx    TxRunner
	users UserService
	sp    SlackPort
	tp    TaskPort
	clock Clock
}

// NewFoodService は FoodService のインスタンスを作成します。tp は nil でも構いません
func NewFoodService(
	rules config.RulesConfig,
	st Stores,
	tx TxRunner,
	users UserService,
	sp SlackPort,
	tp TaskPort,
	clock Clock,
) FoodService {
	return &foodService{
		rules: rules,
		st:    st,
		tx:    tx,
		users: users,
		sp:    sp,
		tp:    tp,
		clock: clock,
	}
}

const orderingClosed = "Ordering is closed for today. Try tomorrow :relieved:"

func (s *foodService) money(m domain.Money) string {
	return m.String() + " " + s.rules.Currency
}

func (s *foodService) StartOrder(ctx context.Context, cmd *Command, args []string) (*interaction.Reply, error) {
	if len(args) == 0 {
		return interaction.EphemeralText(fmt.Sprintf("Use format: *%s food _URL_*", cmd.Name)), nil
	}
	user, err := s.users.Ensure(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	day := today(s.clock, s.rules.UsersLocation)
	if _, err := s.st.Food().FindOpenOrder(ctx, cmd.ChannelID, day); err == nil {
		return interaction.EphemeralText(fmt.Sprintf(
			"There is already an open order in this channel. Check it out with *%s order* first", cmd.Name)), nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("StartOrder: 注文取得失敗: %w", err)
	}

	order := &domain.FoodOrder{
		ID:             id.New(),
		OrderingUserID: user.ID,
		OrderDate:      day,
		Link:           unwrapLink(args[0]),
		ChannelID:      cmd.ChannelID,
		CreatedAt:      s.clock.Now(),
	}
	if err := order.Validate(); err != nil {
		return nil, fmt.Errorf("StartOrder: 注文検証失敗: %w", err)
	}
	if err := s.st.Food().CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("StartOrder: 注文登録失敗: %w", err)
	}
	slog.InfoContext(ctx, "food order started", "order_id", order.ID)

	if s.tp != nil {
		runAt := s.clock.Now().Add(s.rules.CheckoutReminderAfter)
		notify(ctx, "checkout_task", func() error {
			return s.tp.EnqueueCheckout(ctx, runAt, &TaskPayload{OrderID: order.ID, ChannelID: order.ChannelID})
		})
	}

	name := interaction.NewToken(interaction.FlowFood, 0, formatID(order.ID)).String()
	return &interaction.Reply{
		ResponseType: interaction.InChannel,
		Attachments: []interaction.Attachment{{
			CallbackID: interaction.CallbackFoodOrder,
			Text:       fmt.Sprintf("%s orders from %s", user.Name(), order.Link),
			Fallback:   "Food order",
			Color:      colorInfo,
			Actions: []interaction.Action{
				{Name: name, Text: "I'm ordering right now", Type: interaction.ActionButton, Value: interaction.ValueOrder},
				{Name: name, Text: "Not today", Type: interaction.ActionButton, Value: interaction.ValuePass},
			},
		}},
	}, nil
}

func (s *foodService) HandlePrompt(ctx context.Context, p *interaction.FoodOrderPrompt) (*interaction.Reply, error) {
	order, err := s.st.Food().GetOrder(ctx, p.OrderID)
	if err != nil {
		return nil, fmt.Errorf("HandlePrompt: 注文取得失敗: %w", err)
	}
	if order.CheckedOut {
		return interaction.EphemeralText(orderingClosed), nil
	}

	if p.Order {
		d := interaction.Dialog{
			CallbackID:  interaction.CallbackFoodOrderForm,
			Title:       "Place an order",
			SubmitLabel: "Order",
			State:       interaction.NewToken(interaction.FlowFood, 1, formatID(order.ID)).String(),
			Elements: []interaction.Element{
				{Type: interaction.ElementText, Name: "description", Label: "Order", Placeholder: "What do you order?"},
				{Type: interaction.ElementText, Name: "cost", Label: "Price", Placeholder: "Price", Value: "0.00"},
			},
		}
		if err := s.sp.OpenDialog(ctx, p.TriggerID, d); err != nil {
			return nil, fmt.Errorf("HandlePrompt: 注文ダイアログ表示失敗: %w", err)
		}
		return nil, nil
	}

	user, err := s.users.Ensure(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	item := &domain.LineItem{
		ID:           id.New(),
		OrderID:      order.ID,
		EatingUserID: user.ID,
		Surrender:    true,
		CreatedAt:    s.clock.Now(),
	}
	if err := s.st.Food().AddItem(ctx, item); err != nil {
		return nil, fmt.Errorf("HandlePrompt: 明細登録失敗: %w", err)
	}

	notify(ctx, "food_pass", func() error {
		return s.sp.PostMessage(ctx, order.ChannelID, &interaction.Reply{
			Text: fmt.Sprintf("%s is not ordering today.", user.Name()),
		})
	})
	return nil, nil
}

func (s *foodService) HandleOrderForm(ctx context.Context, p *interaction.FoodOrderForm) (*interaction.Reply, error) {
	order, err := s.st.Food().GetOrder(ctx, p.OrderID)
	if err != nil {
		return nil, fmt.Errorf("HandleOrderForm: 注文取得失敗: %w", err)
	}
	if order.CheckedOut {
		return interaction.EphemeralText(orderingClosed), nil
	}
	user, err := s.users.Ensure(ctx, p.UserID)
	if err != nil {
		return nil, err
	}

	item := &domain.LineItem{
		ID:           id.New(),
		OrderID:      order.ID,
		EatingUserID: user.ID,
		Description:  p.Description,
		Cost:         p.Cost,
		CreatedAt:    s.clock.Now(),
	}
	if err := item.Validate(); err != nil {
		return nil, domain.NewValidationFailure("cost", "Use a number e.g. 12.50")
	}
	if err := s.st.Food().AddItem(ctx, item); err != nil {
		return nil, fmt.Errorf("HandleOrderForm: 明細登録失敗: %w", err)
	}

	notify(ctx, "food_ordered", func() error {
		return s.sp.PostMessage(ctx, order.ChannelID, &interaction.Reply{
			Text: fmt.Sprintf("%s ordered: %s for %s :knife_fork_plate:", user.Name(), item.Description, s.money(item.Cost)),
		})
	})
	return nil, nil
}

func (s *foodService) Checkout(ctx context.Context, cmd *Command, _ []string) (*interaction.Reply, error) {
	user, err := s.users.Ensure(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	order, err := s.st.Food().FindOpenOrder(ctx, cmd.ChannelID, today(s.clock, s.rules.UsersLocation))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("Checkout: 注文取得失敗: %w", err)
	}
	if order == nil || order.OrderingUserID != user.ID {
		slog.WarnContext(ctx, "checkout rejected", "user_id", user.ID)
		return interaction.EphemeralText("You can't check out order for this channel. Are you order owner?"), nil
	}

	if err := s.st.Food().Checkout(ctx, order.ID); err != nil {
		return nil, fmt.Errorf("Checkout: 注文締切失敗: %w", err)
	}
	items, err := s.st.Food().ListItems(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("Checkout: 明細取得失敗: %w", err)
	}

	var lines []string
	var total domain.Money
	names := map[int64]string{}
	for _, it := range items {
		if it.Surrender {
			continue
		}
		name, ok := names[it.EatingUserID]
		if !ok {
			eater, err := s.st.Users().GetByID(ctx, it.EatingUserID)
			if err != nil {
				return nil, fmt.Errorf("Checkout: メンバー取得失敗: %w", err)
			}
			name = eater.Name()
			names[it.EatingUserID] = name
		}
		lines = append(lines, fmt.Sprintf("%s - %s (%s)", name, it.Description, s.money(it.Cost)))
		total += it.Cost
	}

	slog.InfoContext(ctx, "food order checked out", "order_id", order.ID, "items", len(lines))

	text := fmt.Sprintf("*%s checked out order. No orders for today.*", user.Name())
	if len(lines) > 0 {
		text = fmt.Sprintf("*%s checked out order:*\n%s\n\nTotal cost: %s", user.Name(), strings.Join(lines, "\n"), s.money(total))
	}
	return &interaction.Reply{
		ResponseType: interaction.InChannel,
		Attachments:  []interaction.Attachment{{Text: text, Color: colorInfo}},
	}, nil
}

func (s *foodService) CheckoutReminder(ctx context.Context, p *TaskPayload) error {
	order, err := s.st.Food().GetOrder(ctx, p.OrderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// 古いタスクなのでスキップ
			return nil
		}
		return fmt.Errorf("CheckoutReminder: 注文取得失敗: %w", err)
	}
	if order.CheckedOut {
		return nil
	}

	owner, err := s.st.Users().GetByID(ctx, order.OrderingUserID)
	if err != nil {
		return fmt.Errorf("CheckoutReminder: 注文者取得失敗: %w", err)
	}

	text := fmt.Sprintf("<@%s> Looks like you forgot to order from %s.\nUrge your friends to place an order and call *order*",
		owner.SlackUserID, order.Link)
	if err := s.sp.PostMessage(ctx, order.ChannelID, &interaction.Reply{Text: text}); err != nil {
		return fmt.Errorf("CheckoutReminder: 締め忘れ通知失敗: %w", err)
	}
	return nil
}

func (s *foodService) Debt(ctx context.Context, cmd *Command, _ []string) (*interaction.Reply, error) {
	user, err := s.users.Ensure(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}
	items, orders, err := s.st.Food().UnpaidItems(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("Debt: 未払い明細取得失敗: %w", err)
	}

	var balances []domain.Balance
	for _, b := range domain.BalancesFor(user.ID, items, orders) {
		if b.Amount != 0 {
			balances = append(balances, b)
		}
	}
	if len(balances) == 0 {
		return &interaction.Reply{
			ResponseType: interaction.Ephemeral,
			Attachments:  []interaction.Attachment{{Text: "You have no debts. Good for you :raised_hands:", Color: colorInfo}},
		}, nil
	}

	reply := &interaction.Reply{ResponseType: interaction.Ephemeral}
	for _, b := range balances {
		other, err := s.st.Users().GetByID(ctx, b.CounterpartID)
		if err != nil {
			return nil, fmt.Errorf("Debt: メンバー取得失敗: %w", err)
		}

		att := interaction.Attachment{CallbackID: interaction.CallbackDebt, Color: colorInfo}
		if b.Amount < 0 {
			att.Text = fmt.Sprintf("You owe %s for %s", s.money(b.Amount.Abs()), other.Name())
			if other.Phone != "" {
				att.Text += fmt.Sprintf("\nPay with BLIK using phone number: *%s*", other.Phone)
			}
			att.Actions = []interaction.Action{{
				Name:  interaction.NewToken(interaction.FlowDebt, 0, formatID(other.ID)).String(),
				Text:  "I just paid " + s.money(b.Amount.Abs()),
				Type:  interaction.ActionButton,
				Value: interaction.ValuePaid,
			}}
		} else {
			att.Text = fmt.Sprintf("%s owes you %s", other.Name(), s.money(b.Amount))
		}
		reply.Attachments = append(reply.Attachments, att)
	}
	return reply, nil
}

func (s *foodService) Pay(ctx context.Context, p *interaction.DebtPayment) (*interaction.Reply, error) {
	payer, err := s.users.Ensure(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	payee, err := s.st.Users().GetByID(ctx, p.CreditorID)
	if err != nil {
		return nil, fmt.Errorf("Pay: 支払い先取得失敗: %w", err)
	}

	// 未払い明細は行ロックした上で読み、同じトランザクションで支払い済みにする
	var settled int64
	err = s.tx.WithTx(ctx, func(tx Stores) error {
		items, orders, err := tx.Food().UnpaidItems(ctx, payer.ID)
		if err != nil {
			return fmt.Errorf("Pay: 未払い明細取得失敗: %w", err)
		}
		ids := domain.Settle(payer.ID, payee.ID, items, orders)
		if len(ids) == 0 {
			return nil
		}
		if settled, err = tx.Food().MarkPaid(ctx, ids); err != nil {
			return fmt.Errorf("Pay: 支払い済み更新失敗: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if settled == 0 {
		return interaction.EphemeralText(fmt.Sprintf("Nothing to settle with %s, you are even :ok_hand:", payee.Name())), nil
	}

	slog.InfoContext(ctx, "debts settled",
		"payer_id", payer.ID,
		"payee_id", payee.ID,
		"items", settled,
	)
	notify(ctx, "debt_paid", func() error {
		return s.sp.PostEphemeral(ctx, p.ChannelID, payee.SlackUserID, &interaction.Reply{
			Attachments: []interaction.Attachment{{
				Text:  fmt.Sprintf("%s paid for you for food :heavy_dollar_sign:", payer.Name()),
				Color: colorInfo,
			}},
		})
	})

	return &interaction.Reply{
		ResponseType:    interaction.Ephemeral,
		ReplaceOriginal: true,
		Attachments: []interaction.Attachment{{
			Text:  fmt.Sprintf("Lannisters always pay their debts. Glad that you settled up with %s :tada:", payee.Name()),
			Color: colorInfo,
		}},
	}, nil
}

func (s *foodService) NudgeDebtors(ctx context.Context) error {
	items, orders, err := s.st.Food().UnpaidItems(ctx, 0)
	if err != nil {
		return fmt.Errorf("NudgeDebtors: 未払い明細取得失敗: %w", err)
	}
	debtors := domain.TopDebtors(items, orders, topDebtorsLimit)
	if len(debtors) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("It's time for a dinner.\nTop debtors are:\n")
	for _, d := range debtors {
		u, err := s.st.Users().GetByID(ctx, d.UserID)
		if err != nil {
			return fmt.Errorf("NudgeDebtors: メンバー取得失敗: %w", err)
		}
		fmt.Fprintf(&b, "%s has total debt %s\n", u.Name(), s.money(d.Amount))
	}

	channels, err := s.st.Food().OrderChannels(ctx, s.clock.Now().Add(-foodChannelsLookback))
	if err != nil {
		return fmt.Errorf("NudgeDebtors: チャンネル取得失敗: %w", err)
	}
	msg := &interaction.Reply{Attachments: []interaction.Attachment{{Text: b.String(), Color: colorDebtor}}}
	for _, ch := range channels {
		notify(ctx, "debtors", func() error {
			return s.sp.PostMessage(ctx, ch, msg)
		})
	}
	return nil
}
