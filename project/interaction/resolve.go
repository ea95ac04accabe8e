package interaction

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"timebot/project/domain"
	"timebot/project/dto"
)

// ErrUnknownDiscriminator は callback_id に対応するペイロードが存在しない場合のエラーです
var ErrUnknownDiscriminator = errors.New("interaction: 不明な callback_id です")

const typeDialogSubmission = "dialog_submission"

// decoder は生のペイロードを型付きペイロードに変換します。
// 入力値の誤りは vf に追加し、トークンの不整合は ErrMalformedToken を返します
type decoder func(raw *dto.SlackInteractionPayload, env Envelope, vf *domain.ValidationFailure) (Payload, error)

var variants = map[string]decoder{
	CallbackTimeSubmission: decodeTimeSubmission,
	CallbackReport:         decodeReportRequest,
	CallbackList:           decodeListRequest,
	CallbackDelete:         decodeDeleteRequest,
	CallbackFreeDays:       decodeFreeDaysRequest,
	CallbackProject:        decodeProjectAction,
	CallbackReminder:       decodeReminderButton,
	CallbackFoodOrder:      decodeFoodOrderPrompt,
	CallbackFoodOrderForm:  decodeFoodOrderForm,
	CallbackDebt:           decodeDebtPayment,
}

// Discriminators は登録済みの callback_id を返します
func Discriminators() []string {
	out := make([]string, 0, len(variants))
	for k := range variants {
		out = append(out, k)
	}
	return out
}

// Resolve は payload JSON を callback_id に応じた型付きペイロードに変換します。
// 入力値の誤りはフィールド単位でまとめて *domain.ValidationFailure として返します
func Resolve(body []byte) (Payload, error) {
	var raw dto.SlackInteractionPayload
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("interaction: payload 解析失敗: %w", err)
	}

	dec, ok := variants[raw.CallbackID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDiscriminator, raw.CallbackID)
	}

	vf := &domain.ValidationFailure{}
	p, err := dec(&raw, envelopeOf(&raw), vf)
	if err != nil {
		return nil, err
	}
	if err := vf.Err(); err != nil {
		return nil, err
	}
	return p, nil
}

func envelopeOf(raw *dto.SlackInteractionPayload) Envelope {
	return Envelope{
		Discriminator: raw.CallbackID,
		Type:          raw.Type,
		TeamID:        raw.Team.ID,
		UserID:        raw.User.ID,
		UserName:      raw.User.Name,
		ChannelID:     raw.Channel.ID,
		TriggerID:     raw.TriggerID,
		ResponseURL:   raw.ResponseURL,
		ActionTS:      raw.ActionTS,
		MessageTS:     raw.MessageTS,
	}
}

func submission(raw *dto.SlackInteractionPayload, name string) string {
	if v, ok := raw.Submission[name]; ok && v != nil {
		return strings.TrimSpace(*v)
	}
	return ""
}

func firstAction(raw *dto.SlackInteractionPayload) (*dto.SlackAction, error) {
	if len(raw.Actions) == 0 {
		return nil, fmt.Errorf("%w: アクションがありません (%s)", ErrMalformedToken, raw.CallbackID)
	}
	return &raw.Actions[0], nil
}

// selected はセレクトの選択値、なければボタンの値を返します
func selected(a *dto.SlackAction) string {
	if len(a.SelectedOptions) > 0 {
		return a.SelectedOptions[0].Value
	}
	return a.Value
}

func decodeFlow(s, flow string) (Token, error) {
	t, err := Decode(s)
	if err != nil {
		return Token{}, err
	}
	if t.Flow != flow {
		return Token{}, fmt.Errorf("%w: flow %q != %q", ErrMalformedToken, t.Flow, flow)
	}
	return t, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: ID が不正です (%q)", ErrMalformedToken, s)
	}
	return id, nil
}

func dateHint() string {
	return "Provide date in format year-month-day e.g. " + time.Now().Format(domain.DateLayout)
}

func parseDateField(raw *dto.SlackInteractionPayload, name string, vf *domain.ValidationFailure) time.Time {
	d, err := domain.ParseDate(submission(raw, name))
	if err != nil {
		vf.Add(name, dateHint())
	}
	return d
}

func decodeTimeSubmission(raw *dto.SlackInteractionPayload, env Envelope, vf *domain.ValidationFailure) (Payload, error) {
	p := &TimeSubmission{Envelope: env, Comment: submission(raw, "comment")}

	if id, err := strconv.ParseInt(submission(raw, "project"), 10, 64); err != nil || id <= 0 {
		vf.Add("project", "Select a project")
	} else {
		p.ProjectID = id
	}

	p.Day = parseDateField(raw, "day", vf)

	hours, herr := domain.ParseHours(submission(raw, "hours"))
	if herr != nil {
		vf.Add("hours", fmt.Sprintf("Use integers, e.g. 2 up to %d", domain.MaxSubmissionHours))
	}
	minutes, merr := domain.ParseMinutes(submission(raw, "minutes"))
	if merr != nil {
		vf.Add("minutes", "Use integers 0|15|30|45 only")
	}
	if herr == nil && merr == nil && hours == 0 && minutes == 0 {
		vf.Add("minutes", "Report at least 15 minutes")
	}
	p.Hours, p.Minutes = hours, minutes

	return p, nil
}

func decodeReportRequest(raw *dto.SlackInteractionPayload, env Envelope, vf *domain.ValidationFailure) (Payload, error) {
	t, err := decodeFlow(raw.State, FlowReport)
	if err != nil {
		return nil, err
	}
	p := &ReportRequest{Envelope: env, TargetUserID: t.Arg(0)}

	if s := submission(raw, "project"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			vf.Add("project", "Select a project")
		}
		p.ProjectID = id
	}

	from := parseDateField(raw, "day_from", vf)
	to := parseDateField(raw, "day_to", vf)
	if !vf.Has("day_from") && !vf.Has("day_to") && to.Before(from) {
		vf.Add("day_to", "End date must not be lower than start date")
	}
	p.Period = domain.DateRange{Start: from, End: to}

	return p, nil
}

func decodeListRequest(raw *dto.SlackInteractionPayload, env Envelope, _ *domain.ValidationFailure) (Payload, error) {
	a, err := firstAction(raw)
	if err != nil {
		return nil, err
	}
	t, err := decodeFlow(a.Name, FlowList)
	if err != nil {
		return nil, err
	}
	r, err := domain.ParseTimeRange(selected(a))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return &ListRequest{Envelope: env, TargetUserID: t.Arg(0), Range: r}, nil
}

func decodeDeleteRequest(raw *dto.SlackInteractionPayload, env Envelope, _ *domain.ValidationFailure) (Payload, error) {
	a, err := firstAction(raw)
	if err != nil {
		return nil, err
	}
	t, err := decodeFlow(a.Name, FlowDelete)
	if err != nil {
		return nil, err
	}

	p := &DeleteRequest{Envelope: env, Step: t.Step}
	switch t.Step {
	case DeleteStepProject:
		p.ProjectID, err = parseID(selected(a))
	case DeleteStepEntry:
		if p.ProjectID, err = t.Int64(0); err != nil {
			return nil, err
		}
		p.EntryID, err = parseID(selected(a))
	case DeleteStepConfirm:
		p.EntryID, err = t.Int64(0)
		p.Confirmed = selected(a) == ValueRemove
	default:
		err = fmt.Errorf("%w: 不明なステップ %d", ErrMalformedToken, t.Step)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func decodeFreeDaysRequest(raw *dto.SlackInteractionPayload, env Envelope, vf *domain.ValidationFailure) (Payload, error) {
	if raw.Type == typeDialogSubmission {
		t, err := decodeFlow(raw.State, FlowFreeDays)
		if err != nil {
			return nil, err
		}
		kind := domain.FreeDayKind(t.Arg(0))
		if t.Step != FreeDaysStepSubmit || !kind.Valid() {
			return nil, fmt.Errorf("%w: 休暇ダイアログの state が不正です (%q)", ErrMalformedToken, raw.State)
		}
		p := &FreeDaysRequest{Envelope: env, Step: FreeDaysStepSubmit, Kind: kind, Reason: submission(raw, "reason")}
		p.Range.Start = parseDateField(raw, "start_date", vf)
		p.Range.End = parseDateField(raw, "end_date", vf)
		return p, nil
	}

	a, err := firstAction(raw)
	if err != nil {
		return nil, err
	}
	t, err := decodeFlow(a.Name, FlowFreeDays)
	if err != nil {
		return nil, err
	}
	p := &FreeDaysRequest{Envelope: env, Step: t.Step}
	switch t.Step {
	case FreeDaysStepSelect:
		p.FreeDayID, err = parseID(selected(a))
	case FreeDaysStepConfirm:
		p.FreeDayID, err = t.Int64(0)
		p.Confirmed = selected(a) == ValueRemove
	default:
		err = fmt.Errorf("%w: 不明なステップ %d", ErrMalformedToken, t.Step)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func decodeProjectAction(raw *dto.SlackInteractionPayload, env Envelope, vf *domain.ValidationFailure) (Payload, error) {
	if raw.Type == typeDialogSubmission {
		t, err := decodeFlow(raw.State, FlowProject)
		if err != nil {
			return nil, err
		}
		if t.Arg(0) != ProjectCreate {
			return nil, fmt.Errorf("%w: プロジェクトダイアログの state が不正です (%q)", ErrMalformedToken, raw.State)
		}
		p := &ProjectAction{Envelope: env, Op: ProjectCreate, Name: submission(raw, "name"), MemberID: submission(raw, "user")}
		if p.Name == "" {
			vf.Add("name", "Provide a project name")
		}
		return p, nil
	}

	a, err := firstAction(raw)
	if err != nil {
		return nil, err
	}
	t, err := decodeFlow(a.Name, FlowProject)
	if err != nil {
		return nil, err
	}
	op := t.Arg(0)
	if op != ProjectAssign && op != ProjectUnassign {
		return nil, fmt.Errorf("%w: 不明な操作 %q", ErrMalformedToken, op)
	}

	p := &ProjectAction{Envelope: env, Op: op, Step: t.Step}
	switch t.Step {
	case 1:
		p.MemberID = selected(a)
		if p.MemberID == "" {
			err = fmt.Errorf("%w: メンバー未選択", ErrMalformedToken)
		}
	case 2:
		p.MemberID = t.Arg(1)
		if p.MemberID == "" {
			return nil, fmt.Errorf("%w: メンバーがありません", ErrMalformedToken)
		}
		p.ProjectID, err = parseID(selected(a))
	default:
		err = fmt.Errorf("%w: 不明なステップ %d", ErrMalformedToken, t.Step)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func decodeReminderButton(raw *dto.SlackInteractionPayload, env Envelope, _ *domain.ValidationFailure) (Payload, error) {
	a, err := firstAction(raw)
	if err != nil {
		return nil, err
	}
	t, err := decodeFlow(a.Value, FlowRemind)
	if err != nil {
		return nil, err
	}
	d, err := domain.ParseDate(t.Arg(0))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return &ReminderButton{Envelope: env, Day: d}, nil
}

func decodeFoodOrderPrompt(raw *dto.SlackInteractionPayload, env Envelope, _ *domain.ValidationFailure) (Payload, error) {
	a, err := firstAction(raw)
	if err != nil {
		return nil, err
	}
	t, err := decodeFlow(a.Name, FlowFood)
	if err != nil {
		return nil, err
	}
	orderID, err := t.Int64(0)
	if err != nil {
		return nil, err
	}
	switch a.Value {
	case ValueOrder, ValuePass:
	default:
		return nil, fmt.Errorf("%w: 不明な値 %q", ErrMalformedToken, a.Value)
	}
	return &FoodOrderPrompt{Envelope: env, OrderID: orderID, Order: a.Value == ValueOrder}, nil
}

func decodeFoodOrderForm(raw *dto.SlackInteractionPayload, env Envelope, vf *domain.ValidationFailure) (Payload, error) {
	t, err := decodeFlow(raw.State, FlowFood)
	if err != nil {
		return nil, err
	}
	orderID, err := t.Int64(0)
	if err != nil {
		return nil, err
	}

	p := &FoodOrderForm{Envelope: env, OrderID: orderID, Description: submission(raw, "description")}
	if p.Description == "" {
		vf.Add("description", "Tell what you ordered")
	}
	cost, err := domain.ParseMoney(submission(raw, "cost"))
	if err != nil {
		vf.Add("cost", "Use a number e.g. 12.50")
	}
	p.Cost = cost
	return p, nil
}

func decodeDebtPayment(raw *dto.SlackInteractionPayload, env Envelope, _ *domain.ValidationFailure) (Payload, error) {
	a, err := firstAction(raw)
	if err != nil {
		return nil, err
	}
	t, err := decodeFlow(a.Name, FlowDebt)
	if err != nil {
		return nil, err
	}
	creditor, err := t.Int64(0)
	if err != nil {
		return nil, err
	}
	return &DebtPayment{Envelope: env, CreditorID: creditor}, nil
}
