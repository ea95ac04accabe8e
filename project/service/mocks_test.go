package service_test

import (
	"context"
	"io"
	"time"

	"timebot/project/domain"
	"timebot/project/interaction"
	"timebot/project/service"
)

type mockUserRepo struct {
	getBySlackIDFn    func(ctx context.Context, slackUserID string) (*domain.User, error)
	getByIDFn         func(ctx context.Context, id int64) (*domain.User, error)
	createFn          func(ctx context.Context, u *domain.User) error
	listFn            func(ctx context.Context) ([]domain.User, error)
	updateRemindersFn func(ctx context.Context, id int64, s domain.ReminderSchedule) error
	lockCalls         int
}

func (m *mockUserRepo) GetBySlackID(ctx context.Context, slackUserID string) (*domain.User, error) {
	if m.getBySlackIDFn != nil {
		return m.getBySlackIDFn(ctx, slackUserID)
	}
	return nil, domain.ErrNotFound
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, u)
	}
	return nil
}

func (m *mockUserRepo) Lock(_ context.Context, _ int64) error {
	m.lockCalls++
	return nil
}

func (m *mockUserRepo) List(ctx context.Context) ([]domain.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockUserRepo) UpdateReminders(ctx context.Context, id int64, s domain.ReminderSchedule) error {
	if m.updateRemindersFn != nil {
		return m.updateRemindersFn(ctx, id, s)
	}
	return nil
}

// withUsers は GetBySlackID / GetByID / List を固定のメンバーで応答させます
func (m *mockUserRepo) withUsers(users ...domain.User) *mockUserRepo {
	m.getBySlackIDFn = func(_ context.Context, slackUserID string) (*domain.User, error) {
		for i := range users {
			if users[i].SlackUserID == slackUserID {
				u := users[i]
				return &u, nil
			}
		}
		return nil, domain.ErrNotFound
	}
	m.getByIDFn = func(_ context.Context, id int64) (*domain.User, error) {
		for i := range users {
			if users[i].ID == id {
				u := users[i]
				return &u, nil
			}
		}
		return nil, domain.ErrNotFound
	}
	m.listFn = func(context.Context) ([]domain.User, error) {
		return users, nil
	}
	return m
}

type mockProjectRepo struct {
	createFn      func(ctx context.Context, p *domain.Project) error
	getFn         func(ctx context.Context, id int64) (*domain.Project, error)
	listFn        func(ctx context.Context) ([]domain.Project, error)
	listForUserFn func(ctx context.Context, userID int64) ([]domain.Project, error)
	assigned      [][2]int64
	unassigned    [][2]int64
}

func (m *mockProjectRepo) Create(ctx context.Context, p *domain.Project) error {
	if m.createFn != nil {
		return m.createFn(ctx, p)
	}
	return nil
}

func (m *mockProjectRepo) Get(ctx context.Context, id int64) (*domain.Project, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockProjectRepo) List(ctx context.Context) ([]domain.Project, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockProjectRepo) ListForUser(ctx context.Context, userID int64) ([]domain.Project, error) {
	if m.listForUserFn != nil {
		return m.listForUserFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockProjectRepo) Assign(_ context.Context, userID, projectID int64) error {
	m.assigned = append(m.assigned, [2]int64{userID, projectID})
	return nil
}

func (m *mockProjectRepo) Unassign(_ context.Context, userID, projectID int64) error {
	m.unassigned = append(m.unassigned, [2]int64{userID, projectID})
	return nil
}

type mockTimeEntryRepo struct {
	getFn             func(ctx context.Context, id int64) (*domain.TimeEntry, error)
	sumForDateFn      func(ctx context.Context, userID int64, date time.Time) (time.Duration, error)
	listFn            func(ctx context.Context, userID, projectID int64, r domain.DateRange) ([]domain.TimeEntry, error)
	listRecentFn      func(ctx context.Context, userID, projectID int64, limit int) ([]domain.TimeEntry, error)
	reportedUserIDsFn func(ctx context.Context, date time.Time) ([]int64, error)
	created           []domain.TimeEntry
	deleted           []int64
}

func (m *mockTimeEntryRepo) Create(_ context.Context, e *domain.TimeEntry) error {
	m.created = append(m.created, *e)
	return nil
}

func (m *mockTimeEntryRepo) Get(ctx context.Context, id int64) (*domain.TimeEntry, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockTimeEntryRepo) Delete(_ context.Context, id int64) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockTimeEntryRepo) SumForDate(ctx context.Context, userID int64, date time.Time) (time.Duration, error) {
	if m.sumForDateFn != nil {
		return m.sumForDateFn(ctx, userID, date)
	}
	return 0, nil
}

func (m *mockTimeEntryRepo) List(ctx context.Context, userID, projectID int64, r domain.DateRange) ([]domain.TimeEntry, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, projectID, r)
	}
	return nil, nil
}

func (m *mockTimeEntryRepo) ListRecent(ctx context.Context, userID, projectID int64, limit int) ([]domain.TimeEntry, error) {
	if m.listRecentFn != nil {
		return m.listRecentFn(ctx, userID, projectID, limit)
	}
	return nil, nil
}

func (m *mockTimeEntryRepo) LastProjectID(_ context.Context, _ int64) (int64, error) {
	return 0, nil
}

func (m *mockTimeEntryRepo) ReportedUserIDs(ctx context.Context, date time.Time) ([]int64, error) {
	if m.reportedUserIDsFn != nil {
		return m.reportedUserIDsFn(ctx, date)
	}
	return nil, nil
}

type mockFreeDayRepo struct {
	getFn             func(ctx context.Context, id int64) (*domain.FreeDay, error)
	listEndingAfterFn func(ctx context.Context, userID int64, from time.Time, kind domain.FreeDayKind) ([]domain.FreeDay, error)
	listActiveOnFn    func(ctx context.Context, date time.Time) ([]domain.FreeDay, error)
	created           []domain.FreeDay
	deleted           []int64
	eventIDs          map[int64]string
}

func (m *mockFreeDayRepo) Create(_ context.Context, f *domain.FreeDay) error {
	m.created = append(m.created, *f)
	return nil
}

func (m *mockFreeDayRepo) Get(ctx context.Context, id int64) (*domain.FreeDay, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockFreeDayRepo) Delete(_ context.Context, id int64) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockFreeDayRepo) SetEventID(_ context.Context, id int64, eventID string) error {
	if m.eventIDs == nil {
		m.eventIDs = map[int64]string{}
	}
	m.eventIDs[id] = eventID
	return nil
}

func (m *mockFreeDayRepo) ListEndingAfter(ctx context.Context, userID int64, from time.Time, kind domain.FreeDayKind) ([]domain.FreeDay, error) {
	if m.listEndingAfterFn != nil {
		return m.listEndingAfterFn(ctx, userID, from, kind)
	}
	return nil, nil
}

func (m *mockFreeDayRepo) ListInRange(_ context.Context, _ int64, _ domain.DateRange) ([]domain.FreeDay, error) {
	return nil, nil
}

func (m *mockFreeDayRepo) ListActiveOn(ctx context.Context, date time.Time) ([]domain.FreeDay, error) {
	if m.listActiveOnFn != nil {
		return m.listActiveOnFn(ctx, date)
	}
	return nil, nil
}

// mockFoodRepo は明細をメモリ上に保持します。MarkPaid は未払いの行だけを更新します
type mockFoodRepo struct {
	orders      map[int64]*domain.FoodOrder
	items       []domain.LineItem
	checkedOut  []int64
	markPaidIDs [][]int64
}

func newMockFoodRepo() *mockFoodRepo {
	return &mockFoodRepo{orders: map[int64]*domain.FoodOrder{}}
}

func (m *mockFoodRepo) CreateOrder(_ context.Context, o *domain.FoodOrder) error {
	c := *o
	m.orders[o.ID] = &c
	return nil
}

func (m *mockFoodRepo) GetOrder(_ context.Context, id int64) (*domain.FoodOrder, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *o
	return &c, nil
}

func (m *mockFoodRepo) FindOpenOrder(_ context.Context, channelID string, date time.Time) (*domain.FoodOrder, error) {
	for _, o := range m.orders {
		if o.ChannelID == channelID && o.OrderDate.Equal(date) && !o.CheckedOut {
			c := *o
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockFoodRepo) Checkout(_ context.Context, id int64) error {
	m.checkedOut = append(m.checkedOut, id)
	if o, ok := m.orders[id]; ok {
		o.CheckedOut = true
	}
	return nil
}

func (m *mockFoodRepo) AddItem(_ context.Context, it *domain.LineItem) error {
	m.items = append(m.items, *it)
	return nil
}

func (m *mockFoodRepo) ListItems(_ context.Context, orderID int64) ([]domain.LineItem, error) {
	var out []domain.LineItem
	for _, it := range m.items {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *mockFoodRepo) UnpaidItems(_ context.Context, userID int64) ([]domain.LineItem, map[int64]int64, error) {
	orderers := map[int64]int64{}
	for id, o := range m.orders {
		orderers[id] = o.OrderingUserID
	}
	var out []domain.LineItem
	for _, it := range m.items {
		if it.Paid {
			continue
		}
		if userID == 0 || it.EatingUserID == userID || orderers[it.OrderID] == userID {
			out = append(out, it)
		}
	}
	return out, orderers, nil
}

func (m *mockFoodRepo) MarkPaid(_ context.Context, ids []int64) (int64, error) {
	m.markPaidIDs = append(m.markPaidIDs, ids)
	var n int64
	for _, id := range ids {
		for i := range m.items {
			if m.items[i].ID == id && !m.items[i].Paid {
				m.items[i].Paid = true
				n++
			}
		}
	}
	return n, nil
}

func (m *mockFoodRepo) OrderChannels(_ context.Context, _ time.Time) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, o := range m.orders {
		if !seen[o.ChannelID] {
			seen[o.ChannelID] = true
			out = append(out, o.ChannelID)
		}
	}
	return out, nil
}

type mockStores struct {
	users    *mockUserRepo
	projects *mockProjectRepo
	entries  *mockTimeEntryRepo
	freeDays *mockFreeDayRepo
	food     *mockFoodRepo
}

func (m *mockStores) Users() domain.UserRepository { return m.users }
func (m *mockStores) Projects() domain.ProjectRepository { return m.projects }
func (m *mockStores) TimeEntries() domain.TimeEntryRepository { return m.entries }
func (m *mockStores) FreeDays() domain.FreeDayRepository { return m.freeDays }
func (m *mockStores) Food() domain.FoodRepository { return m.food }

type mockTxRunner struct {
	stores *mockStores
	calls  int
}

func (m *mockTxRunner) WithTx(_ context.Context, fn func(s service.Stores) error) error {
	m.calls++
	return fn(m.stores)
}

type sentMessage struct {
	To    string
	User  string
	Reply *interaction.Reply
}

type openedDialog struct {
	TriggerID string
	Dialog    interaction.Dialog
}

type mockSlack struct {
	profileFn     func(ctx context.Context, userID string) (*service.SlackProfile, error)
	openDialogErr error
	postDMErr     error

	dialogs    []openedDialog
	messages   []sentMessage
	ephemerals []sentMessage
	dms        []sentMessage
	uploads    []string
}

func (m *mockSlack) OpenDialog(_ context.Context, triggerID string, d interaction.Dialog) error {
	if m.openDialogErr != nil {
		return m.openDialogErr
	}
	m.dialogs = append(m.dialogs, openedDialog{TriggerID: triggerID, Dialog: d})
	return nil
}

func (m *mockSlack) PostMessage(_ context.Context, channelID string, r *interaction.Reply) error {
	m.messages = append(m.messages, sentMessage{To: channelID, Reply: r})
	return nil
}

func (m *mockSlack) PostEphemeral(_ context.Context, channelID, userID string, r *interaction.Reply) error {
	m.ephemerals = append(m.ephemerals, sentMessage{To: channelID, User: userID, Reply: r})
	return nil
}

func (m *mockSlack) PostDM(_ context.Context, userID string, r *interaction.Reply) error {
	if m.postDMErr != nil {
		return m.postDMErr
	}
	m.dms = append(m.dms, sentMessage{To: userID, Reply: r})
	return nil
}

func (m *mockSlack) UploadFile(_ context.Context, _ string, filename, _ string, content io.Reader) error {
	if _, err := io.Copy(io.Discard, content); err != nil {
		return err
	}
	m.uploads = append(m.uploads, filename)
	return nil
}

func (m *mockSlack) GetUserProfile(ctx context.Context, userID string) (*service.SlackProfile, error) {
	if m.profileFn != nil {
		return m.profileFn(ctx, userID)
	}
	return &service.SlackProfile{SlackUserID: userID, Email: userID + "@example.com", FirstName: userID}, nil
}

type mockCalendar struct {
	inserted []string
	deleted  []string
	err      error
}

func (m *mockCalendar) InsertEvent(_ context.Context, title string, _ domain.DateRange) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.inserted = append(m.inserted, title)
	return "evt-1", nil
}

func (m *mockCalendar) DeleteEvent(_ context.Context, eventID string) error {
	m.deleted = append(m.deleted, eventID)
	return m.err
}

type mockTasks struct {
	enqueued []service.TaskPayload
	runAt    []time.Time
}

func (m *mockTasks) EnqueueCheckout(_ context.Context, runAt time.Time, p *service.TaskPayload) error {
	m.enqueued = append(m.enqueued, *p)
	m.runAt = append(m.runAt, runAt)
	return nil
}

type mockReport struct {
	sheets []service.ReportSheet
}

func (m *mockReport) Render(w io.Writer, _ domain.DateRange, sheets []service.ReportSheet) error {
	m.sheets = sheets
	_, err := w.Write([]byte("xlsx"))
	return err
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }
