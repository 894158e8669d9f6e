package service

import (
	"context"
	"log"
	"time"

	"github.com/aleksandr-bogdanov/whendoist/internal/model"
	"github.com/aleksandr-bogdanov/whendoist/internal/recurrence"
	"github.com/aleksandr-bogdanov/whendoist/internal/repository"
	"github.com/aleksandr-bogdanov/whendoist/internal/schedule"
)

// MaterializeService turns recurrence rules into concrete occurrence rows.
// It inserts missing pending instances from each series' start through a
// lookahead horizon and never rewrites rows a user has completed or
// skipped; the scheduling core only ever reads what is materialized here.
type MaterializeService struct {
	taskRepo     *repository.TaskRepository
	instanceRepo *repository.InstanceRepository
	horizonDays  int
}

func NewMaterializeService(taskRepo *repository.TaskRepository, instanceRepo *repository.InstanceRepository, horizonDays int) *MaterializeService {
	if horizonDays <= 0 {
		horizonDays = schedule.WindowDays
	}
	return &MaterializeService{taskRepo: taskRepo, instanceRepo: instanceRepo, horizonDays: horizonDays}
}

// Run materializes every recurring task across all users and reports how
// many occurrences were created. A failing task is logged and skipped so
// one broken rule cannot starve the rest.
func (s *MaterializeService) Run(ctx context.Context, now time.Time) (int, error) {
	tasks, err := s.taskRepo.ListRecurring(ctx)
	if err != nil {
		return 0, err
	}

	today := dateOnly(now)
	created := 0
	for _, task := range tasks {
		select {
		case <-ctx.Done():
			return created, ctx.Err()
		default:
		}
		n, err := s.materializeTask(ctx, task, today)
		created += n
		if err != nil {
			log.Printf("materialize task %d: %v", task.ID, err)
		}
	}
	if created > 0 {
		log.Printf("[info] materialized %d occurrences", created)
	}
	return created, nil
}

func (s *MaterializeService) materializeTask(ctx context.Context, task model.Task, today time.Time) (int, error) {
	if task.RecurrenceRule == nil {
		return 0, nil
	}

	anchor := today
	switch {
	case task.RecurrenceStart != nil:
		anchor = dateOnly(*task.RecurrenceStart)
	case task.ScheduledDate != nil:
		anchor = dateOnly(*task.ScheduledDate)
	}

	// Reach back to the series start so an already-overdue series still
	// gets its past occurrences; resolution treats them as the backlog.
	start := anchor
	if today.Before(start) {
		start = today
	}
	end := today.AddDate(0, 0, s.horizonDays)
	if task.RecurrenceEnd != nil {
		if capped := dateOnly(*task.RecurrenceEnd); capped.Before(end) {
			end = capped
		}
	}

	created := 0
	for _, d := range recurrence.DatesBetween(*task.RecurrenceRule, anchor, start, end) {
		ok, err := s.instanceRepo.Ensure(ctx, task.ID, d)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	return created, nil
}
