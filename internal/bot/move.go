package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/aleksandr-bogdanov/whendoist/internal/hierarchy"
	"github.com/aleksandr-bogdanov/whendoist/internal/model"
	"github.com/aleksandr-bogdanov/whendoist/internal/service"
)

// An undo button carries a uuid token instead of the action itself:
// callback data is capped at 64 bytes and a stale button must not replay
// an old action. One pending undo per user; a new undoable action replaces
// the previous one.
type undoKind int

const (
	undoMove undoKind = iota
	undoDelete
)

type undoEntry struct {
	token      string
	kind       undoKind
	taskID     uint
	prevParent *uint
}

func (b *Bot) setUndo(userID int64, entry undoEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.undos[userID] = entry
}

// takeUndo pops the user's pending undo when the token matches. A consumed
// or replaced entry leaves stale buttons pointing at nothing.
func (b *Bot) takeUndo(userID int64, token string) (undoEntry, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entry, ok := b.undos[userID]
	if !ok || entry.token != token {
		return undoEntry{}, false
	}
	delete(b.undos, userID)
	return entry, true
}

// handleMove starts the /move flow: pick a task, then pick where it goes.
func (b *Bot) handleMove(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	tasks, err := b.agendaSvc.Tasks(ctx, user)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not fetch tasks: %s", escape(err.Error())))
	}
	if len(tasks) == 0 {
		return b.sendText(msg.Chat.ID, "Nothing to move. Add a task with /newtask first.")
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, t := range tasks {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("#%d %s", t.ID, shortTitle(t.Title, 28)),
				fmt.Sprintf("%s%d", cbMoveTask, t.ID),
			),
		))
		for _, s := range t.Subtasks {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(
					fmt.Sprintf("↳ #%d %s", s.ID, shortTitle(s.Title, 26)),
					fmt.Sprintf("%s%d", cbMoveTask, s.ID),
				),
			))
		}
	}
	return b.sendWithInline(msg.Chat.ID, "↔️ Which task do you want to move?", tgbotapi.NewInlineKeyboardMarkup(rows...))
}

// handleMovePick shows the destination picker for the chosen task: the top
// level, or any other top-level task as the new parent.
func (b *Bot) handleMovePick(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	tasks, err := b.agendaSvc.Tasks(ctx, user)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not fetch tasks: %s", escape(err.Error())))
	}

	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬆️ Top level", fmt.Sprintf("%s%d:top", cbMoveDest, taskID)),
		),
	}
	for _, t := range tasks {
		if t.ID == taskID {
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("#%d %s", t.ID, shortTitle(t.Title, 28)),
				fmt.Sprintf("%s%d:%d", cbMoveDest, taskID, t.ID),
			),
		))
	}
	return b.sendWithInline(chatID, "Where should it go?", tgbotapi.NewInlineKeyboardMarkup(rows...))
}

// handleMoveDest runs the optimistic reparent for "mvdest:<task>:<dest>".
func (b *Bot) handleMoveDest(ctx context.Context, chatID int64, from *tgbotapi.User, payload string) error {
	idStr, destStr, ok := strings.Cut(payload, ":")
	if !ok {
		return nil
	}
	taskID, err := parseTaskID(idStr)
	if err != nil {
		return nil
	}
	var newParent *uint
	if destStr != "top" {
		pid, err := parseTaskID(destStr)
		if err != nil {
			return nil
		}
		newParent = &pid
	}

	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	res := b.coordinatorFor(user).Reparent(ctx, taskID, newParent)
	switch res.Outcome {
	case hierarchy.OutcomeNoop:
		return b.sendText(chatID, "The task is already there.")
	case hierarchy.OutcomeRejected:
		switch {
		case errors.Is(res.Err, hierarchy.ErrWouldCycle):
			return b.sendText(chatID, "⚠️ That would nest the task under its own subtask.")
		case errors.Is(res.Err, hierarchy.ErrTaskNotFound), errors.Is(res.Err, hierarchy.ErrParentNotFound):
			return b.sendText(chatID, "⚠️ That task is gone. Run /move again.")
		default:
			return b.sendText(chatID, fmt.Sprintf("⚠️ Could not move the task: %s", escape(res.Err.Error())))
		}
	case hierarchy.OutcomeReverted:
		return b.sendText(chatID, fmt.Sprintf("⚠️ The move was not accepted: %s. Your view is unchanged.", escape(res.Err.Error())))
	}

	log.Printf("[info] task moved id=%d user=%d", taskID, user.ID)
	token := uuid.NewString()
	b.setUndo(from.ID, undoEntry{token: token, kind: undoMove, taskID: taskID, prevParent: res.Previous})

	text := fmt.Sprintf("✅ Moved %s %s.", b.taskRef(ctx, user, taskID), describeDest(newParent))
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("↩️ Undo", cbUndo+token),
		),
	)
	return b.sendWithInline(chatID, text, markup)
}

// handleDeleteCommand soft-deletes a task; the toast carries an undo button
// backed by the store's restore call.
func (b *Bot) handleDeleteCommand(ctx context.Context, msg *tgbotapi.Message) error {
	taskID, ok := taskIDArg(msg)
	if !ok {
		return b.sendText(msg.Chat.ID, "Give me a task id: /delete 12")
	}
	return b.deleteTask(ctx, msg.Chat.ID, msg.From, taskID)
}

func (b *Bot) deleteTask(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	task, err := b.taskSvc.GetTask(ctx, user, taskID)
	if err != nil {
		if service.IsNotFound(err) {
			return b.sendText(chatID, "Task not found or already deleted.")
		}
		return err
	}

	if err := b.taskSvc.DeleteTask(ctx, user, taskID); err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not delete the task: %s", escape(err.Error())))
	}
	b.invalidateView(user)
	log.Printf("[info] task deleted id=%d user=%d", taskID, user.ID)

	token := uuid.NewString()
	b.setUndo(from.ID, undoEntry{token: token, kind: undoDelete, taskID: taskID})

	text := fmt.Sprintf("🗑 Deleted “%s”.", escape(strings.TrimSpace(task.Title)))
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("↩️ Undo", cbUndo+token),
		),
	)
	return b.sendWithInline(chatID, text, markup)
}

// handleUndo reverses the user's last undoable action. An undo is its own
// mutation: when it fails the earlier change stands, and the user hears
// about it explicitly.
func (b *Bot) handleUndo(ctx context.Context, chatID int64, from *tgbotapi.User, token string) error {
	entry, ok := b.takeUndo(from.ID, token)
	if !ok {
		return b.sendText(chatID, "Nothing to undo anymore.")
	}

	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	switch entry.kind {
	case undoMove:
		res := b.coordinatorFor(user).Undo(ctx, entry.taskID, entry.prevParent)
		if res.Err != nil {
			return b.sendText(chatID, fmt.Sprintf("⚠️ The undo did not take effect: %s. The earlier move stands.", escape(res.Err.Error())))
		}
		log.Printf("[info] move undone id=%d user=%d", entry.taskID, user.ID)
		return b.sendText(chatID, "↩️ Move undone.")
	case undoDelete:
		if err := b.taskSvc.RestoreTask(ctx, user, entry.taskID); err != nil {
			return b.sendText(chatID, fmt.Sprintf("⚠️ The undo did not take effect: %s. The task stays deleted.", escape(err.Error())))
		}
		b.invalidateView(user)
		log.Printf("[info] task restored id=%d user=%d", entry.taskID, user.ID)
		return b.sendText(chatID, "↩️ Task restored.")
	}
	return nil
}

// taskRef names a task for a toast, falling back to the bare id when the
// row cannot be fetched anymore.
func (b *Bot) taskRef(ctx context.Context, user *model.User, taskID uint) string {
	task, err := b.taskSvc.GetTask(ctx, user, taskID)
	if err != nil {
		return fmt.Sprintf("#%d", taskID)
	}
	return fmt.Sprintf("“%s”", escape(strings.TrimSpace(task.Title)))
}

func describeDest(newParent *uint) string {
	if newParent == nil {
		return "to the top level"
	}
	return fmt.Sprintf("under #%d", *newParent)
}
