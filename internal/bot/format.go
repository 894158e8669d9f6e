package bot

import (
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aleksandr-bogdanov/whendoist/internal/model"
)

const (
	btnSkip   = "⏭️ Skip"
	btnCancel = "⏪ Cancel"

	iconTask      = "🟢"
	iconRecurring = "♻️"
	iconDone      = "✅"
	iconSub       = "▫️"

	menuLabelNewTask = "➕ New task"
	menuLabelAgenda  = "🗓 Agenda"
	menuLabelTasks   = "📋 Tasks"
	menuLabelHelp    = "ℹ️ Help"
)

func escape(s string) string {
	return html.EscapeString(s)
}

// shortTitle compresses a title for button labels.
func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

// formatTaskLine renders one dashboard task with its subtasks indented
// underneath.
func formatTaskLine(t model.Task, domains map[uint]string) string {
	var b strings.Builder

	icon := iconTask
	if t.IsRecurring {
		icon = iconRecurring
	}
	fmt.Fprintf(&b, "%s <b>#%d</b> %s", icon, t.ID, escape(strings.TrimSpace(t.Title)))
	if t.DomainID != nil {
		if name := strings.TrimSpace(domains[*t.DomainID]); name != "" {
			fmt.Fprintf(&b, " <i>(%s)</i>", escape(name))
		}
	}
	if t.ScheduledTime != nil {
		fmt.Fprintf(&b, " · 🕒 %s", escape(*t.ScheduledTime))
	}
	if t.DurationMin > 0 {
		fmt.Fprintf(&b, " · ~%dm", t.DurationMin)
	}
	if t.Recurs() {
		fmt.Fprintf(&b, "\n   🔄 %s", escape(t.RecurrenceRule.Describe()))
	}
	b.WriteByte('\n')

	for _, s := range t.Subtasks {
		mark := iconSub
		if s.Status == model.StatusCompleted {
			mark = iconDone
		}
		fmt.Fprintf(&b, "   %s %s\n", mark, escape(strings.TrimSpace(s.Title)))
	}
	return b.String()
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelNewTask),
			tgbotapi.NewKeyboardButton(menuLabelAgenda),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelTasks),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func repeatKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("daily"),
			tgbotapi.NewKeyboardButton("weekdays"),
			tgbotapi.NewKeyboardButton("weekly"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("monthly"),
			tgbotapi.NewKeyboardButton("none"),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func isSkipInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == "-" || value == "skip" || value == strings.ToLower(btnSkip)
}

func isCancelInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == "cancel" || value == strings.ToLower(btnCancel)
}
