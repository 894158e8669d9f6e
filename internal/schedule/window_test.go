package schedule

import (
	"testing"
	"time"

	"github.com/aleksandr-bogdanov/whendoist/internal/model"
	"github.com/aleksandr-bogdanov/whendoist/internal/recurrence"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func dailyRule() *recurrence.Rule {
	return &recurrence.Rule{Frequency: recurrence.Daily}
}

func TestInstanceWindowSkipsWhenNothingRecurs(t *testing.T) {
	tasks := []model.Task{
		{ID: 1, Title: "pay rent", ScheduledDate: datePtr(2024, 2, 1)},
		{ID: 2, Title: "no date at all"},
	}
	if _, ok := InstanceWindow(tasks, date(2024, 3, 10)); ok {
		t.Error("window offered although no task recurs")
	}
	if _, ok := InstanceWindow(nil, date(2024, 3, 10)); ok {
		t.Error("window offered for an empty task list")
	}
}

func TestInstanceWindowBounds(t *testing.T) {
	today := date(2024, 3, 10)

	cases := []struct {
		name      string
		tasks     []model.Task
		wantStart time.Time
	}{
		{
			name:      "starts today by default",
			tasks:     []model.Task{{ID: 1, IsRecurring: true, RecurrenceRule: dailyRule()}},
			wantStart: today,
		},
		{
			name: "reaches back to the earliest nominal date",
			tasks: []model.Task{
				{ID: 1, IsRecurring: true, RecurrenceRule: dailyRule(), ScheduledDate: datePtr(2024, 2, 20)},
				{ID: 2, ScheduledDate: datePtr(2024, 1, 15)},
			},
			wantStart: date(2024, 1, 15),
		},
		{
			name: "future nominal dates do not move the start",
			tasks: []model.Task{
				{ID: 1, IsRecurring: true, RecurrenceRule: dailyRule()},
				{ID: 2, ScheduledDate: datePtr(2024, 4, 1)},
			},
			wantStart: today,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, ok := InstanceWindow(tc.tasks, today)
			if !ok {
				t.Fatal("window unexpectedly skipped")
			}
			if !w.Start.Equal(tc.wantStart) {
				t.Errorf("start = %s, want %s", w.Start.Format("2006-01-02"), tc.wantStart.Format("2006-01-02"))
			}
			if want := date(2024, 4, 9); !w.End.Equal(want) {
				t.Errorf("end = %s, want %s", w.End.Format("2006-01-02"), want.Format("2006-01-02"))
			}
		})
	}
}

func TestInstanceWindowIgnoresRuleLessRecurringFlag(t *testing.T) {
	tasks := []model.Task{{ID: 1, IsRecurring: true}}
	if _, ok := InstanceWindow(tasks, date(2024, 3, 10)); ok {
		t.Error("a recurring flag without a rule should not trigger a fetch")
	}
}
