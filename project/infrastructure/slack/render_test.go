package slack_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/slack-go/slack"

	"timebot/project/domain"
	"timebot/project/interaction"
	tbslack "timebot/project/infrastructure/slack"
)

var _ = Describe("render", func() {
	It("converts replies with buttons and selects", func() {
		msg := tbslack.ToMsg(&interaction.Reply{
			ResponseType:    interaction.InChannel,
			Text:            "hello",
			ReplaceOriginal: true,
			Attachments: []interaction.Attachment{{
				CallbackID: "list",
				Text:       "entry",
				Actions: []interaction.Action{
					{Name: "list:1:", Text: "Remove", Type: interaction.ActionButton, Value: "42", Style: "danger", Confirm: "Remove it?"},
					{Name: "list:0:", Type: interaction.ActionSelect, Selected: "b", Options: []interaction.Option{{Label: "A", Value: "a"}, {Label: "B", Value: "b"}}},
				},
			}},
		})

		Expect(msg.ResponseType).To(Equal("in_channel"))
		Expect(msg.ReplaceOriginal).To(BeTrue())
		Expect(msg.Attachments).To(HaveLen(1))
		att := msg.Attachments[0]
		Expect(att.Fallback).To(Equal("entry"))
		Expect(att.Actions[0].Type).To(Equal(slack.ActionType("button")))
		Expect(att.Actions[0].Confirm.Text).To(Equal("Remove it?"))
		Expect(att.Actions[1].Options).To(HaveLen(2))
		Expect(att.Actions[1].SelectedOptions).To(ConsistOf(slack.AttachmentActionOption{Text: "B", Value: "b"}))
	})

	It("omits attachments when there are none", func() {
		Expect(tbslack.ToMsg(interaction.EphemeralText("x")).Attachments).To(BeNil())
	})

	It("converts dialogs element by element", func() {
		d := tbslack.ToDialog("trigger", interaction.Dialog{
			CallbackID: "report",
			Title:      "Report",
			State:      "report:0:",
			Elements: []interaction.Element{
				{Type: interaction.ElementText, Name: "start_date", Label: "Start", Value: "2024-03-01"},
				{Type: interaction.ElementTextArea, Name: "comment", Label: "Comment", Optional: true},
				{Type: interaction.ElementSelect, Name: "project", Label: "Project", Options: []interaction.Option{{Label: "Apollo", Value: "10"}}},
			},
		})

		Expect(d.TriggerID).To(Equal("trigger"))
		Expect(d.State).To(Equal("report:0:"))
		Expect(d.Elements).To(HaveLen(3))

		text, ok := d.Elements[0].(slack.TextInputElement)
		Expect(ok).To(BeTrue())
		Expect(text.Type).To(Equal(slack.InputTypeText))
		Expect(text.Value).To(Equal("2024-03-01"))

		area := d.Elements[1].(slack.TextInputElement)
		Expect(area.Type).To(Equal(slack.InputTypeTextArea))
		Expect(area.Optional).To(BeTrue())

		sel, ok := d.Elements[2].(slack.DialogInputSelect)
		Expect(ok).To(BeTrue())
		Expect(sel.Options).To(ConsistOf(slack.DialogSelectOption{Label: "Apollo", Value: "10"}))
	})

	It("maps field errors to dialog validation errors", func() {
		out := tbslack.ToValidationErrors(interaction.FieldErrors([]domain.FieldError{{Field: "hours", Message: "too many"}}))
		Expect(out.Errors).To(ConsistOf(slack.DialogInputValidationError{Name: "hours", Error: "too many"}))
	})
})
