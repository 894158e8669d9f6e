package service

import (
	"context"
	"time"

	"github.com/aleksandr-bogdanov/whendoist/internal/model"
	"github.com/aleksandr-bogdanov/whendoist/internal/repository"
	"github.com/aleksandr-bogdanov/whendoist/internal/schedule"
)

// AgendaService assembles the date-grouped dashboard: fetch the task view,
// fetch the occurrence window when anything recurs, resolve each recurring
// task's current occurrence, then group by effective date.
type AgendaService struct {
	taskRepo     *repository.TaskRepository
	instanceRepo *repository.InstanceRepository
}

func NewAgendaService(taskRepo *repository.TaskRepository, instanceRepo *repository.InstanceRepository) *AgendaService {
	return &AgendaService{taskRepo: taskRepo, instanceRepo: instanceRepo}
}

// Agenda builds the user's overdue/upcoming view for the given moment.
// The occurrence fetch is skipped entirely when no task in the view
// recurs.
func (s *AgendaService) Agenda(ctx context.Context, user *model.User, now time.Time) (schedule.Agenda, error) {
	tasks, err := s.taskRepo.ListForUser(ctx, user.ID)
	if err != nil {
		return schedule.Agenda{}, err
	}
	today := dateOnly(now)

	var instances []model.Instance
	if win, ok := schedule.InstanceWindow(tasks, today); ok {
		if instances, err = s.instanceRepo.ListWindow(ctx, user.ID, win.Start, win.End); err != nil {
			return schedule.Agenda{}, err
		}
	}
	res := schedule.Resolve(instances, today)
	return schedule.BuildAgenda(tasks, res, today), nil
}

// Tasks returns the raw dashboard list for listings that are not grouped
// by date.
func (s *AgendaService) Tasks(ctx context.Context, user *model.User) ([]model.Task, error) {
	return s.taskRepo.ListForUser(ctx, user.ID)
}
