// Package bot is the Telegram surface: it turns chat commands and button
// presses into service calls and renders the results as HTML messages.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aleksandr-bogdanov/whendoist/internal/config"
	"github.com/aleksandr-bogdanov/whendoist/internal/hierarchy"
	"github.com/aleksandr-bogdanov/whendoist/internal/model"
	"github.com/aleksandr-bogdanov/whendoist/internal/recurrence"
	"github.com/aleksandr-bogdanov/whendoist/internal/repository"
	"github.com/aleksandr-bogdanov/whendoist/internal/service"
	"github.com/aleksandr-bogdanov/whendoist/internal/taskcache"
)

// Callback-data prefixes. Telegram limits callback data to 64 bytes, so
// everything an action needs is packed into "<prefix><ids>".
const (
	cbComplete   = "complete:"
	cbSkip       = "skipcur:"
	cbDelete     = "delete:"
	cbAllOverdue = "allover:"
	cbMoveTask   = "mvtask:"
	cbMoveDest   = "mvdest:"
	cbUndo       = "undo:"
	cbPreset     = "preset:"
)

// Bot aggregates the Telegram API with the services behind it. Per-user
// state (conversations, cached views, pending undos) lives in maps behind
// one mutex; updates themselves are handled sequentially off the polling
// channel.
type Bot struct {
	api       *tgbotapi.BotAPI
	userRepo  *repository.UserRepository
	domainSvc *service.DomainService
	taskSvc   *service.TaskService
	agendaSvc *service.AgendaService
	config    *config.Config

	mu            sync.Mutex
	conversations map[int64]*conversationState
	caches        map[uint]*taskcache.Cache
	undos         map[int64]undoEntry
}

func New(token string, userRepo *repository.UserRepository, domainSvc *service.DomainService, taskSvc *service.TaskService, agendaSvc *service.AgendaService, cfg *config.Config) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	return &Bot{
		api:           api,
		userRepo:      userRepo,
		domainSvc:     domainSvc,
		taskSvc:       taskSvc,
		agendaSvc:     agendaSvc,
		config:        cfg,
		conversations: make(map[int64]*conversationState),
		caches:        make(map[uint]*taskcache.Cache),
		undos:         make(map[int64]undoEntry),
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				log.Printf("handle callback: %v", err)
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				log.Printf("handle message: %v", err)
			}
		}
	}

	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if !msg.IsCommand() && isCancelInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Cancelled. I'm here when you want to start over.")
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		log.Printf("[info] command from %d: /%s %s", msg.From.ID, msg.Command(), msg.CommandArguments())
		return b.handleCommand(ctx, msg)
	}

	if b.hasConversation(msg.From.ID) {
		return b.handleConversation(ctx, msg)
	}

	return b.sendText(msg.Chat.ID, "I didn't catch that. Try /newtask to add a task, or /help for the command list.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "agenda":
		return b.handleAgenda(ctx, msg)
	case "tasks":
		return b.handleTasks(ctx, msg)
	case "newtask":
		return b.startNewTaskConversation(ctx, msg)
	case "move":
		return b.handleMove(ctx, msg)
	case "complete":
		return b.handleComplete(ctx, msg)
	case "skip":
		return b.handleSkip(ctx, msg)
	case "delete":
		return b.handleDeleteCommand(ctx, msg)
	case "schedule":
		return b.handleSchedule(ctx, msg)
	case "repeat":
		return b.handleRepeat(ctx, msg)
	case "domains":
		return b.handleDomains(ctx, msg)
	case "cancel":
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Cancelled.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}

	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}

	text := fmt.Sprintf(
		"👋 Hi, %s!\n<b>I keep your tasks on a date-grouped agenda.</b>\n\nCommands:\n"+
			"• /newtask — add a task step by step\n"+
			"• /agenda — today's view: overdue and upcoming\n"+
			"• /tasks — the full task list\n"+
			"• /move — nest a task under another, or promote it\n"+
			"• /complete &lt;id&gt; — mark a task (or its current occurrence) done\n"+
			"• /help — more\n\n"+
			"I'll also send your agenda every day at %s.",
		escape(name), escape(b.config.AgendaTime),
	)

	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := "ℹ️ <b>Commands</b>\n" +
		"• /newtask — add a task step by step\n" +
		"• /agenda — overdue and upcoming tasks, grouped by date\n" +
		"• /tasks — the full task list with buttons\n" +
		"• /move — move a task under another task or to the top level\n" +
		"• /complete &lt;id&gt; — mark a task done; recurring tasks complete today's occurrence\n" +
		"• /skip &lt;id&gt; — skip a recurring task's current occurrence\n" +
		"• /delete &lt;id&gt; — delete a task (undoable)\n" +
		"• /schedule &lt;id&gt; &lt;yyyy-mm-dd&gt; [hh:mm] — set a date, <code>-</code> clears it\n" +
		"• /repeat &lt;id&gt; — pick how a task repeats\n" +
		"• /domains — your life areas\n" +
		"• /cancel — abort the current dialog"
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	switch strings.TrimSpace(strings.ToLower(msg.Text)) {
	case strings.ToLower(menuLabelNewTask):
		return true, b.startNewTaskConversation(ctx, msg)
	case strings.ToLower(menuLabelAgenda):
		return true, b.handleAgenda(ctx, msg)
	case strings.ToLower(menuLabelTasks):
		return true, b.handleTasks(ctx, msg)
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("callback ack: %v", err)
	}

	data := cb.Data
	chatID := cb.Message.Chat.ID

	switch {
	case strings.HasPrefix(data, cbMoveTask):
		taskID, err := parseID(data, cbMoveTask)
		if err != nil {
			return nil
		}
		return b.handleMovePick(ctx, chatID, cb.From, taskID)
	case strings.HasPrefix(data, cbMoveDest):
		return b.handleMoveDest(ctx, chatID, cb.From, strings.TrimPrefix(data, cbMoveDest))
	case strings.HasPrefix(data, cbUndo):
		return b.handleUndo(ctx, chatID, cb.From, strings.TrimPrefix(data, cbUndo))
	case strings.HasPrefix(data, cbComplete):
		taskID, err := parseID(data, cbComplete)
		if err != nil {
			return nil
		}
		return b.completeTask(ctx, chatID, cb.From, taskID)
	case strings.HasPrefix(data, cbSkip):
		taskID, err := parseID(data, cbSkip)
		if err != nil {
			return nil
		}
		return b.skipTask(ctx, chatID, cb.From, taskID)
	case strings.HasPrefix(data, cbDelete):
		taskID, err := parseID(data, cbDelete)
		if err != nil {
			return nil
		}
		return b.deleteTask(ctx, chatID, cb.From, taskID)
	case strings.HasPrefix(data, cbAllOverdue):
		taskID, err := parseID(data, cbAllOverdue)
		if err != nil {
			return nil
		}
		return b.completeAllOverdue(ctx, chatID, cb.From, taskID)
	case strings.HasPrefix(data, cbPreset):
		return b.applyPreset(ctx, chatID, cb.From, strings.TrimPrefix(data, cbPreset))
	default:
		return nil
	}
}

func (b *Bot) handleComplete(ctx context.Context, msg *tgbotapi.Message) error {
	taskID, ok := taskIDArg(msg)
	if !ok {
		return b.sendText(msg.Chat.ID, "Give me a task id: /complete 12")
	}
	return b.completeTask(ctx, msg.Chat.ID, msg.From, taskID)
}

func (b *Bot) completeTask(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	task, err := b.taskSvc.CompleteTask(ctx, user, taskID, time.Now())
	switch {
	case service.IsNotFound(err):
		return b.sendText(chatID, "Task not found.")
	case errors.Is(err, service.ErrNothingPending):
		return b.sendText(chatID, "That series has no pending occurrence in the current window.")
	case err != nil:
		return b.sendText(chatID, fmt.Sprintf("Could not complete the task: %s", escape(err.Error())))
	}
	b.invalidateView(user)
	log.Printf("[info] task completed id=%d user=%d recurring=%t", task.ID, user.ID, task.IsRecurring)

	if task.IsRecurring {
		text := fmt.Sprintf("♻️ Done for now: “%s”. The series continues.", escape(strings.TrimSpace(task.Title)))
		markup := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✅ Complete all overdue", fmt.Sprintf("%s%d", cbAllOverdue, task.ID)),
			),
		)
		return b.sendWithInline(chatID, text, markup)
	}
	return b.sendText(chatID, fmt.Sprintf("✅ Task “%s” completed.", escape(strings.TrimSpace(task.Title))))
}

func (b *Bot) completeAllOverdue(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	count, err := b.taskSvc.CompleteAllOverdue(ctx, user, taskID, time.Now())
	switch {
	case service.IsNotFound(err):
		return b.sendText(chatID, "Task not found.")
	case err != nil:
		return b.sendText(chatID, fmt.Sprintf("Could not complete the backlog: %s", escape(err.Error())))
	}
	b.invalidateView(user)
	if count == 0 {
		return b.sendText(chatID, "No overdue occurrences left.")
	}
	return b.sendText(chatID, fmt.Sprintf("✅ Completed %d overdue occurrence(s).", count))
}

func (b *Bot) handleSkip(ctx context.Context, msg *tgbotapi.Message) error {
	taskID, ok := taskIDArg(msg)
	if !ok {
		return b.sendText(msg.Chat.ID, "Give me a task id: /skip 12")
	}
	return b.skipTask(ctx, msg.Chat.ID, msg.From, taskID)
}

func (b *Bot) skipTask(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	err = b.taskSvc.SkipCurrent(ctx, user, taskID, time.Now())
	switch {
	case service.IsNotFound(err):
		return b.sendText(chatID, "Task not found.")
	case errors.Is(err, service.ErrNothingPending):
		return b.sendText(chatID, "That series has no pending occurrence in the current window.")
	case err != nil:
		return b.sendText(chatID, fmt.Sprintf("Could not skip: %s", escape(err.Error())))
	}
	b.invalidateView(user)
	return b.sendText(chatID, "⏭️ Skipped the current occurrence.")
}

func (b *Bot) handleSchedule(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.Fields(msg.CommandArguments())
	if len(args) < 2 {
		return b.sendText(msg.Chat.ID, "Usage: /schedule &lt;id&gt; &lt;yyyy-mm-dd&gt; [hh:mm], or /schedule &lt;id&gt; - to clear.")
	}

	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	taskID, err := parseTaskID(args[0])
	if err != nil {
		return b.sendText(msg.Chat.ID, "The task id must be a number.")
	}

	// Re-fetch first: the task may have been deleted since the user last
	// saw the list.
	if _, err := b.taskSvc.GetTask(ctx, user, taskID); err != nil {
		if service.IsNotFound(err) {
			return b.sendText(msg.Chat.ID, "That task no longer exists.")
		}
		return err
	}

	var date *time.Time
	var at *string
	if args[1] != "-" {
		parsed, err := time.Parse("2006-01-02", args[1])
		if err != nil {
			return b.sendText(msg.Chat.ID, "I can't read that date. Use <code>2026-09-01</code>, or <code>-</code> to clear.")
		}
		date = &parsed
		if len(args) > 2 {
			if _, err := time.Parse("15:04", args[2]); err != nil {
				return b.sendText(msg.Chat.ID, "I can't read that time. Use <code>14:30</code>.")
			}
			at = &args[2]
		}
	}

	if err := b.taskSvc.SetSchedule(ctx, user, taskID, date, at); err != nil {
		if service.IsNotFound(err) {
			return b.sendText(msg.Chat.ID, "That task no longer exists.")
		}
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not reschedule: %s", escape(err.Error())))
	}
	b.invalidateView(user)
	if date == nil {
		return b.sendText(msg.Chat.ID, "🗓 Schedule cleared.")
	}
	when := date.Format("2006-01-02")
	if at != nil {
		when += " " + *at
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🗓 Scheduled for %s.", when))
}

func (b *Bot) handleRepeat(ctx context.Context, msg *tgbotapi.Message) error {
	taskID, ok := taskIDArg(msg)
	if !ok {
		return b.sendText(msg.Chat.ID, "Give me a task id: /repeat 12")
	}

	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	task, err := b.taskSvc.GetTask(ctx, user, taskID)
	if err != nil {
		if service.IsNotFound(err) {
			return b.sendText(msg.Chat.ID, "That task no longer exists.")
		}
		return err
	}

	current := recurrence.DetectPreset(task.RecurrenceRule)
	if !task.IsRecurring {
		current = recurrence.PresetNone
	}
	text := fmt.Sprintf("How should “%s” repeat? Now: <b>%s</b>.", escape(strings.TrimSpace(task.Title)), current)

	row := func(p recurrence.Preset, label string) tgbotapi.InlineKeyboardButton {
		return tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("%s%d:%s", cbPreset, task.ID, p))
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			row(recurrence.PresetDaily, "Daily"),
			row(recurrence.PresetWeekdays, "Weekdays"),
			row(recurrence.PresetWeekly, "Weekly"),
		),
		tgbotapi.NewInlineKeyboardRow(
			row(recurrence.PresetMonthly, "Monthly"),
			row(recurrence.PresetCustom, "Custom"),
			row(recurrence.PresetNone, "Off"),
		),
	)
	return b.sendWithInline(msg.Chat.ID, text, markup)
}

// applyPreset handles a "preset:<taskID>:<preset>" callback.
func (b *Bot) applyPreset(ctx context.Context, chatID int64, from *tgbotapi.User, payload string) error {
	idStr, presetStr, ok := strings.Cut(payload, ":")
	if !ok {
		return nil
	}
	taskID, err := parseTaskID(idStr)
	if err != nil {
		return nil
	}
	preset, ok := recurrence.ParsePreset(presetStr)
	if !ok {
		return nil
	}

	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	task, err := b.taskSvc.GetTask(ctx, user, taskID)
	if err != nil {
		if service.IsNotFound(err) {
			return b.sendText(chatID, "That task no longer exists.")
		}
		return err
	}

	rule := recurrence.PresetRule(preset)
	if preset == recurrence.PresetCustom && task.RecurrenceRule != nil {
		// keep the rule the user already shaped; the preset button only
		// switches the series back on
		rule = task.RecurrenceRule
	}

	if err := b.taskSvc.SetRecurrence(ctx, user, taskID, rule); err != nil {
		if service.IsNotFound(err) {
			return b.sendText(chatID, "That task no longer exists.")
		}
		return b.sendText(chatID, fmt.Sprintf("Could not change the repeat: %s", escape(err.Error())))
	}
	b.invalidateView(user)
	if rule == nil {
		return b.sendText(chatID, fmt.Sprintf("🔁 “%s” no longer repeats.", escape(strings.TrimSpace(task.Title))))
	}
	return b.sendText(chatID, fmt.Sprintf("🔁 “%s” repeats %s.", escape(strings.TrimSpace(task.Title)), escape(rule.Describe())))
}

func (b *Bot) handleDomains(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	domains, err := b.domainSvc.List(ctx, user)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not fetch domains: %s", escape(err.Error())))
	}
	if len(domains) == 0 {
		return b.sendText(msg.Chat.ID, "No domains yet. Name one while creating a task.")
	}
	var builder strings.Builder
	builder.WriteString("📂 <b>Domains</b>\n")
	for _, d := range domains {
		builder.WriteString(fmt.Sprintf("• %s\n", escape(strings.TrimSpace(d.Name))))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*model.User, error) {
	return b.userRepo.UpsertFromTelegram(ctx, from.ID, from.FirstName, from.LastName, from.UserName)
}

// viewCache returns the user's dashboard cache, creating it on first use.
func (b *Bot) viewCache(user *model.User) *taskcache.Cache {
	b.mu.Lock()
	defer b.mu.Unlock()
	cache, ok := b.caches[user.ID]
	if !ok {
		cache = taskcache.New()
		b.caches[user.ID] = cache
	}
	return cache
}

// invalidateView drops the user's cached dashboard after any mutation that
// bypassed the coordinator, so the next move starts from fresh store data.
func (b *Bot) invalidateView(user *model.User) {
	b.viewCache(user).Invalidate()
}

// coordinatorFor builds the optimistic-move coordinator over the user's
// cache and the authoritative store.
func (b *Bot) coordinatorFor(user *model.User) *hierarchy.Coordinator {
	return hierarchy.NewCoordinator(userStore{svc: b.taskSvc, user: user}, b.viewCache(user))
}

// userStore binds TaskService to one user behind the coordinator's Store
// contract.
type userStore struct {
	svc  *service.TaskService
	user *model.User
}

func (s userStore) Tasks(ctx context.Context) ([]model.Task, error) {
	return s.svc.Dashboard(ctx, s.user)
}

func (s userStore) SetParent(ctx context.Context, taskID uint, parentID *uint) error {
	return s.svc.SetParent(ctx, s.user, taskID, parentID)
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithInline(chatID int64, text string, markup tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) hasConversation(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conversations[userID]
	return ok
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}

func taskIDArg(msg *tgbotapi.Message) (uint, bool) {
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		return 0, false
	}
	id, err := parseTaskID(strings.Fields(args)[0])
	if err != nil {
		return 0, false
	}
	return id, true
}

func parseTaskID(raw string) (uint, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(value), nil
}

func parseID(data, prefix string) (uint, error) {
	return parseTaskID(strings.TrimPrefix(data, prefix))
}
