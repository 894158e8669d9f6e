package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/aleksandr-bogdanov/whendoist/internal/model"
)

// InstanceRepository manages materialized occurrences of recurring tasks.
type InstanceRepository struct {
	db *gorm.DB
}

func NewInstanceRepository(db *gorm.DB) *InstanceRepository {
	return &InstanceRepository{db: db}
}

// ListWindow returns the user's occurrences dated inside [start, end],
// both edges inclusive, ordered by date then id. Occurrences of
// soft-deleted tasks stay out of the result.
func (r *InstanceRepository) ListWindow(ctx context.Context, userID uint, start, end time.Time) ([]model.Instance, error) {
	var instances []model.Instance
	if err := r.db.WithContext(ctx).
		Joins("JOIN tasks ON tasks.id = instances.task_id").
		Where("tasks.user_id = ? AND tasks.deleted_at IS NULL AND instances.date >= ? AND instances.date <= ?",
			userID, start, end).
		Order("instances.date ASC, instances.id ASC").
		Find(&instances).Error; err != nil {
		return nil, err
	}
	return instances, nil
}

// Ensure fills the (task, date) slot with a pending occurrence unless a
// row is already there; existing rows keep whatever status they have.
// created reports whether a new row was inserted.
func (r *InstanceRepository) Ensure(ctx context.Context, taskID uint, date time.Time) (created bool, err error) {
	var existing model.Instance
	db := r.db.WithContext(ctx)
	err = db.Where("task_id = ? AND date = ?", taskID, date).First(&existing).Error
	switch {
	case err == nil:
		return false, nil
	case err == gorm.ErrRecordNotFound:
		inst := model.Instance{TaskID: taskID, Date: date, Status: model.InstancePending}
		if err := db.Create(&inst).Error; err != nil {
			return false, fmt.Errorf("create instance: %w", err)
		}
		return true, nil
	default:
		return false, fmt.Errorf("find instance: %w", err)
	}
}

// SetStatus updates one occurrence; a vanished row surfaces as
// gorm.ErrRecordNotFound.
func (r *InstanceRepository) SetStatus(ctx context.Context, instanceID uint, status model.InstanceStatus) error {
	res := r.db.WithContext(ctx).Model(&model.Instance{}).
		Where("id = ?", instanceID).
		Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("update instance: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CompleteBefore marks the task's pending occurrences strictly before the
// date as completed and reports how many changed. Completed and skipped
// rows are left alone.
func (r *InstanceRepository) CompleteBefore(ctx context.Context, taskID uint, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Instance{}).
		Where("task_id = ? AND status = ? AND date < ?", taskID, model.InstancePending, before).
		Update("status", model.InstanceCompleted)
	if res.Error != nil {
		return 0, fmt.Errorf("complete instances: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// LatestDate returns the newest materialized date for the task; ok is
// false when the series has no occurrences yet.
func (r *InstanceRepository) LatestDate(ctx context.Context, taskID uint) (time.Time, bool, error) {
	var inst model.Instance
	err := r.db.WithContext(ctx).Where("task_id = ?", taskID).Order("date DESC").First(&inst).Error
	switch {
	case err == nil:
		return inst.Date, true, nil
	case err == gorm.ErrRecordNotFound:
		return time.Time{}, false, nil
	default:
		return time.Time{}, false, fmt.Errorf("find latest instance: %w", err)
	}
}
