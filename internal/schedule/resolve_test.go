package schedule

import (
	"testing"

	"github.com/aleksandr-bogdanov/whendoist/internal/model"
)

func TestResolvePicksEarliestPending(t *testing.T) {
	today := date(2024, 3, 10)
	instances := []model.Instance{
		{ID: 4, TaskID: 7, Date: date(2024, 3, 12), Status: model.InstancePending},
		{ID: 3, TaskID: 7, Date: date(2024, 3, 9), Status: model.InstanceCompleted},
		{ID: 2, TaskID: 7, Date: date(2024, 3, 11), Status: model.InstancePending},
		{ID: 9, TaskID: 8, Date: date(2024, 3, 8), Status: model.InstanceSkipped},
	}

	res := Resolve(instances, today)

	cur, ok := res.Current[7]
	if !ok {
		t.Fatal("task 7 did not resolve")
	}
	if cur.ID != 2 || !cur.Date.Equal(date(2024, 3, 11)) {
		t.Errorf("task 7 resolved to instance %d on %s, want 2 on 2024-03-11", cur.ID, cur.Date.Format("2006-01-02"))
	}
	if _, ok := res.Current[8]; ok {
		t.Error("a task with only a skipped occurrence resolved")
	}
	if len(res.PastPending) != 0 {
		t.Errorf("PastPending = %v, want empty", res.PastPending)
	}
}

func TestResolveTieBreaksOnLowerID(t *testing.T) {
	today := date(2024, 3, 10)
	day := date(2024, 3, 11)

	orders := [][]model.Instance{
		{
			{ID: 12, TaskID: 7, Date: day, Status: model.InstancePending},
			{ID: 5, TaskID: 7, Date: day, Status: model.InstancePending},
		},
		{
			{ID: 5, TaskID: 7, Date: day, Status: model.InstancePending},
			{ID: 12, TaskID: 7, Date: day, Status: model.InstancePending},
		},
	}
	for i, instances := range orders {
		res := Resolve(instances, today)
		if cur := res.Current[7]; cur.ID != 5 {
			t.Errorf("input order %d: resolved to instance %d, want 5", i, cur.ID)
		}
	}
}

func TestResolveMarksPastPending(t *testing.T) {
	today := date(2024, 3, 10)
	instances := []model.Instance{
		{ID: 1, TaskID: 7, Date: date(2024, 3, 8), Status: model.InstancePending},
		{ID: 2, TaskID: 7, Date: date(2024, 3, 10), Status: model.InstancePending},
		{ID: 3, TaskID: 8, Date: date(2024, 3, 9), Status: model.InstanceCompleted},
		{ID: 4, TaskID: 8, Date: date(2024, 3, 10), Status: model.InstancePending},
		{ID: 5, TaskID: 9, Date: date(2024, 3, 10), Status: model.InstancePending},
	}

	res := Resolve(instances, today)

	if !res.PastPending[7] {
		t.Error("task 7 has a pending occurrence before today but is not marked")
	}
	if res.PastPending[8] {
		t.Error("task 8's past occurrence is completed; it must not be marked")
	}
	if res.PastPending[9] {
		t.Error("an occurrence dated today is not past")
	}
	if cur := res.Current[7]; !cur.Date.Equal(date(2024, 3, 8)) {
		t.Errorf("task 7 resolved to %s, want the older pending 2024-03-08", cur.Date.Format("2006-01-02"))
	}
}

func TestEffectiveDate(t *testing.T) {
	res := Resolution{
		Current: map[uint]model.Instance{
			5: {ID: 1, TaskID: 5, Date: date(2024, 3, 12), Status: model.InstancePending},
		},
		PastPending: map[uint]bool{},
	}

	recurring := model.Task{ID: 5, IsRecurring: true, RecurrenceRule: dailyRule(), ScheduledDate: datePtr(2024, 1, 1)}
	if d, ok := res.EffectiveDate(recurring); !ok || !d.Equal(date(2024, 3, 12)) {
		t.Errorf("recurring task: got %v, %t; want resolved 2024-03-12", d, ok)
	}

	unresolved := model.Task{ID: 6, IsRecurring: true, RecurrenceRule: dailyRule(), ScheduledDate: datePtr(2024, 1, 1)}
	if _, ok := res.EffectiveDate(unresolved); ok {
		t.Error("recurring task without a resolved occurrence fell back to its nominal date")
	}

	plain := model.Task{ID: 7, ScheduledDate: datePtr(2024, 3, 20)}
	if d, ok := res.EffectiveDate(plain); !ok || !d.Equal(date(2024, 3, 20)) {
		t.Errorf("plain task: got %v, %t; want nominal 2024-03-20", d, ok)
	}

	undated := model.Task{ID: 8}
	if _, ok := res.EffectiveDate(undated); ok {
		t.Error("undated task produced an effective date")
	}
}
