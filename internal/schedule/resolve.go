package schedule

import (
	"time"

	"github.com/aleksandr-bogdanov/whendoist/internal/model"
)

// Resolution is the per-task occurrence state inside a fetched window.
type Resolution struct {
	// Current holds each task's earliest pending occurrence.
	Current map[uint]model.Instance
	// PastPending marks tasks with at least one pending occurrence
	// strictly before today.
	PastPending map[uint]bool
}

// Resolve picks each task's current occurrence from a windowed instance
// slice: the earliest pending one by date, ties broken by the lower id so
// the pick is deterministic regardless of fetch order. Completed and
// skipped rows never participate. A task with no pending occurrence in the
// window is absent from Current and resolves to no effective date.
func Resolve(instances []model.Instance, today time.Time) Resolution {
	res := Resolution{
		Current:     make(map[uint]model.Instance),
		PastPending: make(map[uint]bool),
	}
	today = dateOnly(today)

	for _, inst := range instances {
		if inst.Status != model.InstancePending {
			continue
		}
		inst.Date = dateOnly(inst.Date)
		if inst.Date.Before(today) {
			res.PastPending[inst.TaskID] = true
		}
		cur, ok := res.Current[inst.TaskID]
		if !ok || inst.Date.Before(cur.Date) || (inst.Date.Equal(cur.Date) && inst.ID < cur.ID) {
			res.Current[inst.TaskID] = inst
		}
	}
	return res
}

// EffectiveDate returns the date a task occupies on the dashboard: the
// resolved current occurrence for recurring tasks, the nominal scheduled
// date otherwise. ok is false when the task has no date — unscheduled, or
// recurring with nothing pending in the window. A recurring task never
// falls back to its nominal date; that date only marks where the series
// began.
func (r Resolution) EffectiveDate(t model.Task) (time.Time, bool) {
	if t.IsRecurring {
		inst, ok := r.Current[t.ID]
		if !ok {
			return time.Time{}, false
		}
		return inst.Date, true
	}
	if t.ScheduledDate == nil {
		return time.Time{}, false
	}
	return dateOnly(*t.ScheduledDate), true
}
