package schedule

import (
	"sort"
	"time"

	"github.com/aleksandr-bogdanov/whendoist/internal/model"
)

// Group is one dated section of the agenda.
type Group struct {
	Date  time.Time
	Label string
	Tasks []model.Task
}

// Agenda is the date-grouped dashboard view.
type Agenda struct {
	Overdue      []Group
	Upcoming     []Group
	OverdueCount int
}

// Empty reports whether there is nothing to render.
func (a Agenda) Empty() bool {
	return len(a.Overdue) == 0 && len(a.Upcoming) == 0
}

// BuildAgenda buckets every task with an effective date into date groups
// and splits them into overdue and upcoming. Groups come out ascending by
// date; within a group tasks keep their input order. Today's group belongs
// to upcoming and is labeled "Today".
//
// Overdue means: a non-recurring task dated before today, or a recurring
// task whose pending backlog reaches before today. A recurring task whose
// series simply moved past its nominal start never shows up as overdue.
func BuildAgenda(tasks []model.Task, res Resolution, today time.Time) Agenda {
	today = dateOnly(today)
	var overdue, upcoming grouping

	for _, t := range tasks {
		date, ok := res.EffectiveDate(t)
		if !ok {
			continue
		}
		switch {
		case !date.Before(today):
			upcoming.add(date, t)
		case !t.IsRecurring || res.PastPending[t.ID]:
			overdue.add(date, t)
		default:
			// recurring with a past date but no pending backlog:
			// nothing actionable, leave it off the board
		}
	}

	a := Agenda{
		Overdue:  overdue.groups(today),
		Upcoming: upcoming.groups(today),
	}
	for _, g := range a.Overdue {
		a.OverdueCount += len(g.Tasks)
	}
	return a
}

// GroupLabel names an agenda date relative to today: "Today", "Tomorrow",
// "Yesterday", the bare weekday for the rest of the coming week, otherwise
// "Mon, Jan 2".
func GroupLabel(date, today time.Time) string {
	date = dateOnly(date)
	today = dateOnly(today)
	switch days := daysBetween(today, date); {
	case days == 0:
		return "Today"
	case days == 1:
		return "Tomorrow"
	case days == -1:
		return "Yesterday"
	case days > 1 && days < 7:
		return date.Weekday().String()
	}
	return date.Format("Mon, Jan 2")
}

type grouping struct {
	index map[time.Time]int
	list  []Group
}

func (g *grouping) add(date time.Time, t model.Task) {
	if g.index == nil {
		g.index = make(map[time.Time]int)
	}
	if i, ok := g.index[date]; ok {
		g.list[i].Tasks = append(g.list[i].Tasks, t)
		return
	}
	g.index[date] = len(g.list)
	g.list = append(g.list, Group{Date: date, Tasks: []model.Task{t}})
}

func (g *grouping) groups(today time.Time) []Group {
	if len(g.list) == 0 {
		return nil
	}
	sort.Slice(g.list, func(i, j int) bool { return g.list[i].Date.Before(g.list[j].Date) })
	for i := range g.list {
		g.list[i].Label = GroupLabel(g.list[i].Date, today)
	}
	return g.list
}
