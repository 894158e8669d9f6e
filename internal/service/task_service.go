package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/aleksandr-bogdanov/whendoist/internal/model"
	"github.com/aleksandr-bogdanov/whendoist/internal/recurrence"
	"github.com/aleksandr-bogdanov/whendoist/internal/repository"
	"github.com/aleksandr-bogdanov/whendoist/internal/schedule"
)

var (
	// ErrTitleRequired rejects task input before anything reaches the store.
	ErrTitleRequired = errors.New("title is required")
	// ErrCycle rejects a parent change that would make a task its own ancestor.
	ErrCycle = errors.New("task cannot be nested under itself or its subtasks")
	// ErrNothingPending means a recurring task has no occurrence to act on.
	ErrNothingPending = errors.New("no pending occurrence")
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	Title         string
	Description   string
	Domain        string
	ParentID      *uint
	ScheduledDate *time.Time
	ScheduledTime *string
	DurationMin   int
	Impact        int
	Clarity       int
	Recurrence    *recurrence.Rule
}

// TaskService wraps task-related business logic: validation first, then the
// store. The cached view is the bot's concern; everything here talks to the
// authoritative side.
type TaskService struct {
	taskRepo     *repository.TaskRepository
	domainRepo   *repository.DomainRepository
	instanceRepo *repository.InstanceRepository
}

func NewTaskService(taskRepo *repository.TaskRepository, domainRepo *repository.DomainRepository, instanceRepo *repository.InstanceRepository) *TaskService {
	return &TaskService{taskRepo: taskRepo, domainRepo: domainRepo, instanceRepo: instanceRepo}
}

func (s *TaskService) CreateTask(ctx context.Context, user *model.User, input TaskInput) (*model.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	var domainID *uint
	if input.Domain != "" {
		domain, err := s.domainRepo.GetOrCreate(ctx, user.ID, strings.TrimSpace(input.Domain))
		if err != nil {
			return nil, err
		}
		if domain != nil {
			domainID = &domain.ID
		}
	}

	task := model.Task{
		UserID:        user.ID,
		ParentID:      input.ParentID,
		DomainID:      domainID,
		Title:         title,
		Description:   strings.TrimSpace(input.Description),
		ScheduledDate: input.ScheduledDate,
		ScheduledTime: input.ScheduledTime,
		DurationMin:   input.DurationMin,
		Impact:        input.Impact,
		Clarity:       input.Clarity,
		Status:        model.StatusPending,
	}

	if input.Recurrence != nil {
		task.IsRecurring = true
		task.RecurrenceRule = input.Recurrence
		start := dateOnly(time.Now().UTC())
		if input.ScheduledDate != nil {
			start = dateOnly(*input.ScheduledDate)
		}
		task.RecurrenceStart = &start
	}

	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// Dashboard returns the user's current view: top-level pending or recurring
// tasks with denormalized subtasks.
func (s *TaskService) Dashboard(ctx context.Context, user *model.User) ([]model.Task, error) {
	return s.taskRepo.ListForUser(ctx, user.ID)
}

func (s *TaskService) GetTask(ctx context.Context, user *model.User, taskID uint) (*model.Task, error) {
	return s.taskRepo.FindByID(ctx, user.ID, taskID)
}

// SetParent re-validates a hierarchy change against the store and records
// it. The cached view has its own optimistic check; this one decides.
func (s *TaskService) SetParent(ctx context.Context, user *model.User, taskID uint, parentID *uint) error {
	if _, err := s.taskRepo.FindByID(ctx, user.ID, taskID); err != nil {
		return err
	}
	if parentID != nil {
		if err := s.checkAncestry(ctx, user, taskID, *parentID); err != nil {
			return err
		}
	}
	return s.taskRepo.SetParent(ctx, user.ID, taskID, parentID)
}

// checkAncestry walks the proposed parent's chain up to the root and fails
// when the task shows up in it.
func (s *TaskService) checkAncestry(ctx context.Context, user *model.User, taskID, parentID uint) error {
	seen := make(map[uint]bool)
	for cur := &parentID; cur != nil; {
		if *cur == taskID || seen[*cur] {
			return ErrCycle
		}
		seen[*cur] = true
		parent, err := s.taskRepo.FindByID(ctx, user.ID, *cur)
		if err != nil {
			return err
		}
		cur = parent.ParentID
	}
	return nil
}

// CompleteTask marks a task done. A non-recurring task closes for good; a
// recurring one completes its current occurrence and keeps the series open.
func (s *TaskService) CompleteTask(ctx context.Context, user *model.User, taskID uint, now time.Time) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, user.ID, taskID)
	if err != nil {
		return nil, err
	}

	if !task.IsRecurring {
		completedAt := now
		if err := s.taskRepo.SetStatus(ctx, user.ID, taskID, model.StatusCompleted, &completedAt); err != nil {
			return nil, err
		}
		task.Status = model.StatusCompleted
		task.CompletedAt = &completedAt
		return task, nil
	}

	inst, err := s.currentOccurrence(ctx, user, task, now)
	if err != nil {
		return nil, err
	}
	if err := s.instanceRepo.SetStatus(ctx, inst.ID, model.InstanceCompleted); err != nil {
		return nil, err
	}
	return task, nil
}

// SkipCurrent skips a recurring task's current occurrence without marking
// it done.
func (s *TaskService) SkipCurrent(ctx context.Context, user *model.User, taskID uint, now time.Time) error {
	task, err := s.taskRepo.FindByID(ctx, user.ID, taskID)
	if err != nil {
		return err
	}
	if !task.IsRecurring {
		return fmt.Errorf("task %d does not recur", taskID)
	}
	inst, err := s.currentOccurrence(ctx, user, task, now)
	if err != nil {
		return err
	}
	return s.instanceRepo.SetStatus(ctx, inst.ID, model.InstanceSkipped)
}

// CompleteAllOverdue closes every pending occurrence before today and
// reports how many there were.
func (s *TaskService) CompleteAllOverdue(ctx context.Context, user *model.User, taskID uint, now time.Time) (int64, error) {
	if _, err := s.taskRepo.FindByID(ctx, user.ID, taskID); err != nil {
		return 0, err
	}
	return s.instanceRepo.CompleteBefore(ctx, taskID, dateOnly(now))
}

// currentOccurrence resolves the task's earliest pending occurrence inside
// the dashboard window.
func (s *TaskService) currentOccurrence(ctx context.Context, user *model.User, task *model.Task, now time.Time) (model.Instance, error) {
	today := dateOnly(now)
	win, ok := schedule.InstanceWindow([]model.Task{*task}, today)
	if !ok {
		return model.Instance{}, ErrNothingPending
	}
	instances, err := s.instanceRepo.ListWindow(ctx, user.ID, win.Start, win.End)
	if err != nil {
		return model.Instance{}, err
	}
	res := schedule.Resolve(instances, today)
	inst, ok := res.Current[task.ID]
	if !ok {
		return model.Instance{}, ErrNothingPending
	}
	return inst, nil
}

// SetSchedule rewrites the task's nominal date and wall-clock time; nil
// clears a field.
func (s *TaskService) SetSchedule(ctx context.Context, user *model.User, taskID uint, date *time.Time, at *string) error {
	return s.taskRepo.UpdateFields(ctx, user.ID, taskID, map[string]any{
		"scheduled_date": date,
		"scheduled_time": at,
	})
}

// SetRecurrence switches the task's series on or off. A nil rule clears
// every recurrence field; a rule starts the series at the task's scheduled
// date, falling back to today.
func (s *TaskService) SetRecurrence(ctx context.Context, user *model.User, taskID uint, rule *recurrence.Rule) error {
	task, err := s.taskRepo.FindByID(ctx, user.ID, taskID)
	if err != nil {
		return err
	}

	if rule == nil {
		return s.taskRepo.UpdateFields(ctx, user.ID, taskID, map[string]any{
			"is_recurring":     false,
			"recurrence_rule":  nil,
			"recurrence_start": nil,
			"recurrence_end":   nil,
		})
	}

	start := dateOnly(time.Now().UTC())
	if task.ScheduledDate != nil {
		start = dateOnly(*task.ScheduledDate)
	}
	return s.taskRepo.UpdateFields(ctx, user.ID, taskID, map[string]any{
		"is_recurring":     true,
		"recurrence_rule":  rule,
		"recurrence_start": start,
	})
}

// EndRecurrence caps the series: occurrences stop materializing past the
// date, already-materialized ones stay.
func (s *TaskService) EndRecurrence(ctx context.Context, user *model.User, taskID uint, end time.Time) error {
	return s.taskRepo.UpdateFields(ctx, user.ID, taskID, map[string]any{
		"recurrence_end": dateOnly(end),
	})
}

func (s *TaskService) DeleteTask(ctx context.Context, user *model.User, taskID uint) error {
	return s.taskRepo.Delete(ctx, user.ID, taskID)
}

func (s *TaskService) RestoreTask(ctx context.Context, user *model.User, taskID uint) error {
	return s.taskRepo.Restore(ctx, user.ID, taskID)
}

// IsNotFound tells a vanished record apart from real failures, for flows
// that must close quietly when their task is gone.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
