package service

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// SchedulerService wraps cron-based background jobs.
type SchedulerService struct {
	cron *cron.Cron
}

func NewSchedulerService(loc *time.Location) *SchedulerService {
	return &SchedulerService{
		cron: cron.New(cron.WithLocation(loc), cron.WithSeconds()),
	}
}

// ScheduleDaily registers a named job at the given HH:MM wall-clock time.
func (s *SchedulerService) ScheduleDaily(name, at string, job func()) (cron.EntryID, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(at))
	if err != nil {
		return 0, fmt.Errorf("daily time %q: expected HH:MM", at)
	}
	// cron format: second minute hour dom month dow
	spec := fmt.Sprintf("0 %d %d * * *", t.Minute(), t.Hour())
	return s.add(name, spec, job)
}

// ScheduleEvery registers a named job repeating at the given interval.
func (s *SchedulerService) ScheduleEvery(name string, every time.Duration, job func()) (cron.EntryID, error) {
	if every <= 0 {
		return 0, fmt.Errorf("interval must be positive")
	}
	seconds := int(every.Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	return s.add(name, fmt.Sprintf("@every %ds", seconds), job)
}

func (s *SchedulerService) add(name, spec string, job func()) (cron.EntryID, error) {
	id, err := s.cron.AddFunc(spec, job)
	if err != nil {
		return 0, fmt.Errorf("schedule %s: %w", name, err)
	}
	log.Printf("[info] scheduled job %q (%s)", name, spec)
	return id, nil
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
