package model

import (
	"time"

	"gorm.io/gorm"

	"github.com/aleksandr-bogdanov/whendoist/internal/recurrence"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusCompleted TaskStatus = "completed"
)

// TrailingPosition sorts a task past any server-assigned sibling position,
// so a freshly moved subtask lands at the end of its new parent's list.
const TrailingPosition = 1 << 30

// Task represents a single item in the planner. The same struct serves as
// the stored row and as a node of the cached dashboard view; Subtasks is
// view-only and assembled by the repository.
type Task struct {
	ID              uint  `gorm:"primaryKey"`
	UserID          uint  `gorm:"index"`
	ParentID        *uint `gorm:"index"`
	DomainID        *uint `gorm:"index"`
	Title           string
	Description     string
	ScheduledDate   *time.Time
	ScheduledTime   *string
	DurationMin     int
	Impact          int
	Clarity         int
	Position        int
	Status          TaskStatus `gorm:"default:pending;index"`
	CompletedAt     *time.Time
	IsRecurring     bool             `gorm:"default:false"`
	RecurrenceRule  *recurrence.Rule `gorm:"type:text"`
	RecurrenceStart *time.Time
	RecurrenceEnd   *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       gorm.DeletedAt `gorm:"index"`
	Subtasks        []Subtask      `gorm:"-"`
}

// Recurs reports whether the task carries a usable recurrence series.
func (t Task) Recurs() bool {
	return t.IsRecurring && t.RecurrenceRule != nil
}

// Clone returns a deep copy: every pointer field and the subtask slice are
// duplicated, so mutating the copy never reaches the original.
func (t Task) Clone() Task {
	t.ParentID = copyUintPtr(t.ParentID)
	t.DomainID = copyUintPtr(t.DomainID)
	t.ScheduledDate = copyTimePtr(t.ScheduledDate)
	t.ScheduledTime = copyStringPtr(t.ScheduledTime)
	t.CompletedAt = copyTimePtr(t.CompletedAt)
	t.RecurrenceStart = copyTimePtr(t.RecurrenceStart)
	t.RecurrenceEnd = copyTimePtr(t.RecurrenceEnd)
	if t.RecurrenceRule != nil {
		r := *t.RecurrenceRule
		r.DaysOfWeek = append([]recurrence.Weekday(nil), r.DaysOfWeek...)
		t.RecurrenceRule = &r
	}
	if t.Subtasks != nil {
		subs := make([]Subtask, len(t.Subtasks))
		for i, s := range t.Subtasks {
			subs[i] = s.clone()
		}
		t.Subtasks = subs
	}
	return t
}

// CloneTasks deep-copies a whole view slice.
func CloneTasks(tasks []Task) []Task {
	if tasks == nil {
		return nil
	}
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}

func copyUintPtr(p *uint) *uint {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyTimePtr(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
