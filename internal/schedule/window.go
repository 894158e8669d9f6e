// Package schedule turns a task list and its materialized occurrences into
// the date-grouped dashboard view. Everything here is pure: the bot fetches,
// this package decides.
package schedule

import (
	"time"

	"github.com/aleksandr-bogdanov/whendoist/internal/model"
)

// WindowDays is how far past today occurrences are resolved.
const WindowDays = 30

// Window is the inclusive date range of an occurrence fetch.
type Window struct {
	Start time.Time
	End   time.Time
}

// InstanceWindow returns the occurrence range the dashboard needs for the
// given tasks. ok is false when no task recurs: the fetch can be skipped
// entirely and resolution is empty. Start reaches back to the earliest
// nominal scheduled date so old pending occurrences stay visible; End is
// today plus WindowDays. Both edges are inclusive, and resolution is only
// correct for occurrences inside the fetched range — anything outside it
// is invisible, not an error.
func InstanceWindow(tasks []model.Task, today time.Time) (Window, bool) {
	recurs := false
	start := dateOnly(today)
	for _, t := range tasks {
		if t.Recurs() {
			recurs = true
		}
		if t.ScheduledDate != nil {
			if d := dateOnly(*t.ScheduledDate); d.Before(start) {
				start = d
			}
		}
	}
	if !recurs {
		return Window{}, false
	}
	return Window{Start: start, End: dateOnly(today).AddDate(0, 0, WindowDays)}, true
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from) / (24 * time.Hour))
}
