package service

import (
	"context"

	"timebot/project/interaction"
)

// CommandFunc はコマンド動詞の処理です
type CommandFunc func(ctx context.Context, cmd *Command, args []string) (*interaction.Reply, error)

// CommandSpec はコマンド表の1行です
type CommandSpec struct {
	// Verb はサブコマンド名。空文字は引数なしの既定コマンド
	Verb string
	Run  CommandFunc
}

// Registry は動詞→処理、ペイロード→処理の対応表です。
// ペイロード側は interaction.Handler を実装することで網羅性をコンパイル時に保証します
type Registry struct {
	commands map[string]*CommandSpec

	users     UserService
	timesheet TimesheetService
	reports   ReportService
	freeDays  FreeDayService
	projects  ProjectService
	reminders ReminderService
	food      FoodService
}

var _ interaction.Handler = (*Registry)(nil)

// NewRegistry は Registry を作成します
func NewRegistry(
	users UserService,
	timesheet TimesheetService,
	reports ReportService,
	freeDays FreeDayService,
	projects ProjectService,
	reminders ReminderService,
	food FoodService,
) *Registry {
	r := &Registry{
		users:     users,
		timesheet: timesheet,
		reports:   reports,
		freeDays:  freeDays,
		projects:  projects,
		reminders: reminders,
		food:      food,
	}

	r.commands = map[string]*CommandSpec{}
	for _, c := range []*CommandSpec{
		{Verb: "", Run: timesheet.OpenSubmitDialog},
		{Verb: "list", Run: timesheet.List},
		{Verb: "delete", Run: timesheet.Delete},
		{Verb: "report", Run: reports.OpenDialog},
		{Verb: "help", Run: r.help},
		{Verb: "reminder", Run: reminders.Command},
		{Verb: "vacation", Run: freeDays.Vacation},
		{Verb: "dayoff", Run: freeDays.DayOff},
		{Verb: "project", Run: projects.Command},
		{Verb: "food", Run: food.StartOrder},
		{Verb: "order", Run: food.Checkout},
		{Verb: "debt", Run: food.Debt},
	} {
		r.commands[c.Verb] = c
	}
	return r
}

// Lookup は動詞に対応するコマンドを返します
func (r *Registry) Lookup(verb string) (*CommandSpec, bool) {
	c, ok := r.commands[verb]
	return c, ok
}

// Verbs は登録済みの動詞を返します
func (r *Registry) Verbs() []string {
	out := make([]string, 0, len(r.commands))
	for v := range r.commands {
		out = append(out, v)
	}
	return out
}

func (r *Registry) help(ctx context.Context, cmd *Command, _ []string) (*interaction.Reply, error) {
	user, err := r.users.Ensure(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}
	return HelpReply(cmd.Name, user.IsAdmin()), nil
}

func (r *Registry) HandleTimeSubmission(ctx context.Context, p *interaction.TimeSubmission) (*interaction.Reply, error) {
	return r.timesheet.Submit(ctx, p)
}

func (r *Registry) HandleReportRequest(ctx context.Context, p *interaction.ReportRequest) (*interaction.Reply, error) {
	return r.reports.Generate(ctx, p)
}

func (r *Registry) HandleListRequest(ctx context.Context, p *interaction.ListRequest) (*interaction.Reply, error) {
	return r.timesheet.HandleList(ctx, p)
}

func (r *Registry) HandleDeleteRequest(ctx context.Context, p *interaction.DeleteRequest) (*interaction.Reply, error) {
	return r.timesheet.HandleDelete(ctx, p)
}

func (r *Registry) HandleFreeDaysRequest(ctx context.Context, p *interaction.FreeDaysRequest) (*interaction.Reply, error) {
	return r.freeDays.Handle(ctx, p)
}

func (r *Registry) HandleProjectAction(ctx context.Context, p *interaction.ProjectAction) (*interaction.Reply, error) {
	return r.projects.Handle(ctx, p)
}

func (r *Registry) HandleReminderButton(ctx context.Context, p *interaction.ReminderButton) (*interaction.Reply, error) {
	return r.timesheet.ReminderButton(ctx, p)
}

func (r *Registry) HandleFoodOrderPrompt(ctx context.Context, p *interaction.FoodOrderPrompt) (*interaction.Reply, error) {
	return r.food.HandlePrompt(ctx, p)
}

func (r *Registry) HandleFoodOrderForm(ctx context.Context, p *interaction.FoodOrderForm) (*interaction.Reply, error) {
	return r.food.HandleOrderForm(ctx, p)
}

func (r *Registry) HandleDebtPayment(ctx context.Context, p *interaction.DebtPayment) (*interaction.Reply, error) {
	return r.food.Pay(ctx, p)
}
