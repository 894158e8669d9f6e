package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aleksandr-bogdanov/whendoist/internal/recurrence"
	"github.com/aleksandr-bogdanov/whendoist/internal/service"
)

// The /newtask dialog walks one stage per message: title, domain, date,
// time, repeat preset. Skip moves on, cancel drops the whole dialog.
type conversationStage int

const (
	stageTitle conversationStage = iota
	stageDomain
	stageDate
	stageTime
	stageRepeat
)

type conversationState struct {
	stage conversationStage
	input service.TaskInput
}

func (b *Bot) startNewTaskConversation(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}
	log.Printf("[info] start new task conversation user=%d", msg.From.ID)
	b.setConversation(msg.From.ID, &conversationState{stage: stageTitle})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 New task.\n<b>Step 1:</b> what should it be called?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageTitle:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "The title can't be empty. What should the task be called?", cancelKeyboard())
		}
		state.input.Title = text
		state.stage = stageDomain
		return b.sendWithReplyMarkup(msg.Chat.ID, "🏷 Which domain is it in? Send a name like <code>work</code>, or skip.", skipKeyboard())
	case stageDomain:
		if !isSkipInput(text) {
			state.input.Domain = text
		}
		state.stage = stageDate
		return b.sendWithReplyMarkup(msg.Chat.ID, "🗓 When is it scheduled? Use <code>2026-09-01</code>, or skip.", skipKeyboard())
	case stageDate:
		if !isSkipInput(text) {
			parsed, err := time.Parse("2006-01-02", text)
			if err != nil {
				return b.sendWithReplyMarkup(msg.Chat.ID, "I can't read that date. Use <code>2026-09-01</code>, or skip.", skipKeyboard())
			}
			state.input.ScheduledDate = &parsed
		}
		state.stage = stageTime
		return b.sendWithReplyMarkup(msg.Chat.ID, "🕒 At what time? Use <code>14:30</code>, or skip.", skipKeyboard())
	case stageTime:
		if !isSkipInput(text) {
			if _, err := time.Parse("15:04", text); err != nil {
				return b.sendWithReplyMarkup(msg.Chat.ID, "I can't read that time. Use <code>14:30</code>, or skip.", skipKeyboard())
			}
			at := text
			state.input.ScheduledTime = &at
		}
		state.stage = stageRepeat
		return b.sendWithReplyMarkup(msg.Chat.ID, "🔁 Should it repeat?", repeatKeyboard())
	case stageRepeat:
		preset := recurrence.PresetNone
		if !isSkipInput(text) {
			parsed, ok := recurrence.ParsePreset(text)
			if !ok {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Pick one of the buttons, or send <code>none</code>.", repeatKeyboard())
			}
			preset = parsed
		}
		state.input.Recurrence = recurrence.PresetRule(preset)
		err := b.finishTaskCreation(ctx, msg.From, state.input, msg.Chat.ID)
		b.clearConversation(msg.From.ID)
		return err
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Dialog reset. Start over with /newtask.")
	}
}

func (b *Bot) finishTaskCreation(ctx context.Context, from *tgbotapi.User, input service.TaskInput, chatID int64) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	task, err := b.taskSvc.CreateTask(ctx, user, input)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not save the task: %s", escape(err.Error())))
	}
	b.invalidateView(user)

	log.Printf("[info] task created id=%d user=%d recurring=%t", task.ID, user.ID, task.IsRecurring)

	var summary strings.Builder
	summary.WriteString("✅ <b>Task saved</b>\n")
	summary.WriteString(fmt.Sprintf("• <b>ID:</b> %d\n", task.ID))
	summary.WriteString(fmt.Sprintf("• <b>Title:</b> %s\n", escape(task.Title)))
	if input.Domain != "" {
		summary.WriteString(fmt.Sprintf("• <b>Domain:</b> %s\n", escape(strings.TrimSpace(input.Domain))))
	}
	if task.ScheduledDate != nil {
		when := task.ScheduledDate.Format("2006-01-02")
		if task.ScheduledTime != nil {
			when += " " + *task.ScheduledTime
		}
		summary.WriteString(fmt.Sprintf("• <b>Scheduled:</b> %s\n", when))
	}
	if task.Recurs() {
		summary.WriteString(fmt.Sprintf("• <b>Repeats:</b> %s\n", escape(task.RecurrenceRule.Describe())))
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(summary.String()))
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err != nil {
		return err
	}
	return b.handleAgendaFor(ctx, chatID, user)
}
