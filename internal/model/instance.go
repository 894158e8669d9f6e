package model

import "time"

// InstanceStatus is the lifecycle state of one occurrence.
type InstanceStatus string

const (
	InstancePending   InstanceStatus = "pending"
	InstanceCompleted InstanceStatus = "completed"
	InstanceSkipped   InstanceStatus = "skipped"
)

// Instance is one materialized occurrence of a recurring task's series.
// The (task, date) pair is unique; the materializer inserts missing pending
// rows and never rewrites rows a user has completed or skipped.
type Instance struct {
	ID        uint           `gorm:"primaryKey"`
	TaskID    uint           `gorm:"index:idx_instance_task_date,unique"`
	Date      time.Time      `gorm:"index:idx_instance_task_date,unique"`
	Status    InstanceStatus `gorm:"default:pending;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
