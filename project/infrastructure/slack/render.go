package slack

import (
	"github.com/slack-go/slack"

	"timebot/project/interaction"
)

// ToMsg は応答を Slack のメッセージ形式に変換します
func ToMsg(r *interaction.Reply) slack.Msg {
	return slack.Msg{
		ResponseType:    string(r.ResponseType),
		Text:            r.Text,
		Attachments:     ToAttachments(r.Attachments),
		ReplaceOriginal: r.ReplaceOriginal,
		DeleteOriginal:  r.DeleteOriginal,
	}
}

// ToValidationErrors はダイアログのフィールドエラー応答に変換します
func ToValidationErrors(r *interaction.Reply) slack.DialogInputValidationErrors {
	out := slack.DialogInputValidationErrors{Errors: make([]slack.DialogInputValidationError, 0, len(r.Errors))}
	for _, fe := range r.Errors {
		out.Errors = append(out.Errors, slack.DialogInputValidationError{Name: fe.Field, Error: fe.Message})
	}
	return out
}

// ToAttachments は添付を変換します
func ToAttachments(in []interaction.Attachment) []slack.Attachment {
	if len(in) == 0 {
		return nil
	}
	out := make([]slack.Attachment, 0, len(in))
	for _, a := range in {
		att := slack.Attachment{
			CallbackID: a.CallbackID,
			Text:       a.Text,
			Fallback:   a.Fallback,
			Color:      a.Color,
			Footer:     a.Footer,
			MarkdownIn: []string{"text", "fields"},
		}
		if att.Fallback == "" {
			att.Fallback = a.Text
		}
		for _, f := range a.Fields {
			att.Fields = append(att.Fields, slack.AttachmentField{Title: f.Title, Value: f.Value, Short: f.Short})
		}
		for _, act := range a.Actions {
			att.Actions = append(att.Actions, toAction(act))
		}
		out = append(out, att)
	}
	return out
}

func toAction(a interaction.Action) slack.AttachmentAction {
	out := slack.AttachmentAction{
		Name:       a.Name,
		Text:       a.Text,
		Type:       slack.ActionType(a.Type),
		Value:      a.Value,
		Style:      a.Style,
		DataSource: a.DataSource,
	}
	for _, o := range a.Options {
		opt := slack.AttachmentActionOption{Text: o.Label, Value: o.Value}
		out.Options = append(out.Options, opt)
		if o.Value == a.Selected {
			out.SelectedOptions = []slack.AttachmentActionOption{opt}
		}
	}
	if a.Confirm != "" {
		out.Confirm = &slack.ConfirmationField{
			Title:       "Are you sure?",
			Text:        a.Confirm,
			OkText:      "Yes",
			DismissText: "No",
		}
	}
	return out
}

// ToDialog はダイアログを変換します
func ToDialog(triggerID string, d interaction.Dialog) slack.Dialog {
	out := slack.Dialog{
		TriggerID:   triggerID,
		CallbackID:  d.CallbackID,
		Title:       d.Title,
		SubmitLabel: d.SubmitLabel,
		State:       d.State,
	}
	for _, e := range d.Elements {
		out.Elements = append(out.Elements, toElement(e))
	}
	return out
}

func toElement(e interaction.Element) slack.DialogElement {
	input := slack.DialogInput{
		Label:       e.Label,
		Name:        e.Name,
		Placeholder: e.Placeholder,
		Optional:    e.Optional,
		Hint:        e.Hint,
	}

	switch e.Type {
	case interaction.ElementSelect:
		input.Type = slack.InputTypeSelect
		sel := slack.DialogInputSelect{
			DialogInput: input,
			Value:       e.Value,
			DataSource:  slack.SelectDataSource(e.DataSource),
		}
		for _, o := range e.Options {
			sel.Options = append(sel.Options, slack.DialogSelectOption{Label: o.Label, Value: o.Value})
		}
		return sel
	case interaction.ElementTextArea:
		input.Type = slack.InputTypeTextArea
	default:
		input.Type = slack.InputTypeText
	}
	return slack.TextInputElement{
		DialogInput: input,
		Value:       e.Value,
		MaxLength:   e.MaxLength,
	}
}
