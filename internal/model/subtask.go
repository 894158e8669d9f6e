package model

import "time"

// Subtask is the denormalized child view a parent task carries on the
// dashboard. It is a summary, not a stored row; the store keeps children as
// ordinary tasks with a ParentID.
type Subtask struct {
	ID            uint
	Title         string
	DurationMin   int
	Impact        int
	Clarity       int
	ScheduledDate *time.Time
	ScheduledTime *string
	Status        TaskStatus
	CompletedAt   *time.Time
	Position      int
}

// SummaryOf collapses a task into the child summary its parent displays.
func SummaryOf(t Task) Subtask {
	return Subtask{
		ID:            t.ID,
		Title:         t.Title,
		DurationMin:   t.DurationMin,
		Impact:        t.Impact,
		Clarity:       t.Clarity,
		ScheduledDate: copyTimePtr(t.ScheduledDate),
		ScheduledTime: copyStringPtr(t.ScheduledTime),
		Status:        t.Status,
		CompletedAt:   copyTimePtr(t.CompletedAt),
		Position:      t.Position,
	}
}

// AsTask expands the summary back into a top-level task for the view, e.g.
// after a promotion. Fields the summary does not carry stay zero; a refresh
// from the store fills them in.
func (s Subtask) AsTask(userID uint) Task {
	return Task{
		ID:            s.ID,
		UserID:        userID,
		Title:         s.Title,
		DurationMin:   s.DurationMin,
		Impact:        s.Impact,
		Clarity:       s.Clarity,
		ScheduledDate: copyTimePtr(s.ScheduledDate),
		ScheduledTime: copyStringPtr(s.ScheduledTime),
		Status:        s.Status,
		CompletedAt:   copyTimePtr(s.CompletedAt),
		Position:      s.Position,
	}
}

func (s Subtask) clone() Subtask {
	s.ScheduledDate = copyTimePtr(s.ScheduledDate)
	s.ScheduledTime = copyStringPtr(s.ScheduledTime)
	s.CompletedAt = copyTimePtr(s.CompletedAt)
	return s
}
