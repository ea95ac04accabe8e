package service

import (
	"fmt"

	"timebot/project/interaction"
)

type helpLine struct {
	usage string
	text  string
	admin bool
}

var helpLines = []helpLine{
	{"", "Submit working time", false},
	{"list [@user] [range]", "See reported time", false},
	{"delete", "Remove reported time", false},
	{"report [@user]", "Generate report file", false},
	{"reminder", "See reminder settings", false},
	{"reminder set [_mon:HH:MM;tue:off..._]", "Configure reminder time for particular day, or several days at once", false},
	{"vacation", "Submit free time within range", false},
	{"vacation delete", "Remove free time entry", false},
	{"dayoff", "Submit a day off", false},
	{"dayoff delete", "Remove a day off", false},
	{"food _URL_", "Start today's food order in this channel", false},
	{"order", "Check out the food order you started", false},
	{"debt", "See who you owe for food", false},
	{"project", "Create new project", true},
	{"project assign", "Assign user for project", true},
	{"project unassign", "Unassign user from project", true},
}

// HelpReply はコマンドの使い方を返します。admin が true なら管理者向けのコマンドも含めます
func HelpReply(command string, admin bool) *interaction.Reply {
	reply := &interaction.Reply{
		ResponseType: interaction.Ephemeral,
		Text:         "*Timebot* is used for reporting working time. Following commands are available:",
	}
	for _, l := range helpLines {
		if l.admin && !admin {
			continue
		}
		text := fmt.Sprintf("*%s %s*: %s", command, l.usage, l.text)
		if l.usage == "" {
			text = fmt.Sprintf("*%s* _(without any arguments)_: %s", command, l.text)
		}
		reply.Attachments = append(reply.Attachments, interaction.Attachment{Text: text})
	}
	return reply
}
