package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aleksandr-bogdanov/whendoist/internal/model"
	"github.com/aleksandr-bogdanov/whendoist/internal/schedule"
)

func (b *Bot) handleAgenda(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	return b.handleAgendaFor(ctx, msg.Chat.ID, user)
}

func (b *Bot) handleAgendaFor(ctx context.Context, chatID int64, user *model.User) error {
	agenda, err := b.agendaSvc.Agenda(ctx, user, time.Now())
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not build the agenda: %s", escape(err.Error())))
	}
	domains, err := b.domainSvc.Names(ctx, user)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not fetch domains: %s", escape(err.Error())))
	}
	return b.sendText(chatID, renderAgenda(agenda, domains))
}

// handleTasks lists the full dashboard with complete/skip/delete buttons
// per top-level task.
func (b *Bot) handleTasks(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	tasks, err := b.agendaSvc.Tasks(ctx, user)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not fetch tasks: %s", escape(err.Error())))
	}
	if len(tasks) == 0 {
		return b.sendText(msg.Chat.ID, "No tasks yet. Add one with /newtask.")
	}
	domains, err := b.domainSvc.Names(ctx, user)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not fetch domains: %s", escape(err.Error())))
	}

	var builder strings.Builder
	builder.WriteString("📋 <b>Your tasks</b>\n\n")
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, t := range tasks {
		builder.WriteString(formatTaskLine(t, domains))
		row := []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("✅ #%d · %s", t.ID, shortTitle(t.Title, 18)),
				fmt.Sprintf("%s%d", cbComplete, t.ID),
			),
		}
		if t.IsRecurring {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData("⏭️ Skip", fmt.Sprintf("%s%d", cbSkip, t.ID)))
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("🗑", fmt.Sprintf("%s%d", cbDelete, t.ID)))
		rows = append(rows, row)
	}
	return b.sendWithInline(msg.Chat.ID, strings.TrimSpace(builder.String()), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

// SendAgendas broadcasts the daily agenda to every known user; users with
// an empty board are left alone.
func (b *Bot) SendAgendas(ctx context.Context) error {
	users, err := b.userRepo.ListAll(ctx)
	if err != nil {
		return err
	}
	now := time.Now()
	for _, user := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		agenda, err := b.agendaSvc.Agenda(ctx, &user, now)
		if err != nil {
			log.Printf("build agenda for user %d: %v", user.TelegramID, err)
			continue
		}
		if agenda.Empty() {
			continue
		}
		domains, err := b.domainSvc.Names(ctx, &user)
		if err != nil {
			log.Printf("fetch domains for user %d: %v", user.TelegramID, err)
			continue
		}
		if err := b.sendText(user.TelegramID, renderAgenda(agenda, domains)); err != nil {
			log.Printf("send agenda to %d: %v", user.TelegramID, err)
		}
	}
	return nil
}

// renderAgenda writes the overdue and upcoming sections; an empty section
// is suppressed entirely rather than rendered with a bare header.
func renderAgenda(a schedule.Agenda, domains map[uint]string) string {
	if a.Empty() {
		return "🗓 Nothing scheduled. Add a task with /newtask."
	}

	var b strings.Builder
	if len(a.Overdue) > 0 {
		fmt.Fprintf(&b, "⚠️ <b>Overdue</b> · %d\n", a.OverdueCount)
		for _, g := range a.Overdue {
			writeGroup(&b, g, domains)
		}
		b.WriteByte('\n')
	}
	if len(a.Upcoming) > 0 {
		b.WriteString("📅 <b>Upcoming</b>\n")
		for _, g := range a.Upcoming {
			writeGroup(&b, g, domains)
		}
	}
	return strings.TrimSpace(b.String())
}

func writeGroup(b *strings.Builder, g schedule.Group, domains map[uint]string) {
	fmt.Fprintf(b, "\n<b>%s</b> · %s\n", escape(g.Label), g.Date.Format("Jan 2"))
	for _, t := range g.Tasks {
		b.WriteString(formatTaskLine(t, domains))
	}
}
