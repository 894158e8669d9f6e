package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/aleksandr-bogdanov/whendoist/internal/model"
)

// TaskRepository handles CRUD for tasks and assembles the dashboard view.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// ListForUser returns the user's dashboard view: top-level pending or
// recurring tasks ordered by position then id, each carrying its children
// denormalized as subtask summaries in the same order. Soft-deleted rows
// never appear.
func (r *TaskRepository) ListForUser(ctx context.Context, userID uint) ([]model.Task, error) {
	var rows []model.Task
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND (status = ? OR is_recurring = ?)", userID, model.StatusPending, true).
		Order("position ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	children := make(map[uint][]model.Subtask)
	var roots []model.Task
	for _, task := range rows {
		if task.ParentID != nil {
			children[*task.ParentID] = append(children[*task.ParentID], model.SummaryOf(task))
			continue
		}
		roots = append(roots, task)
	}
	for i := range roots {
		roots[i].Subtasks = children[roots[i].ID]
	}
	return roots, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, userID, taskID uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateFields applies a partial update. A vanished task surfaces as
// gorm.ErrRecordNotFound so callers can close stale flows.
func (r *TaskRepository) UpdateFields(ctx context.Context, userID, taskID uint, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("user_id = ? AND id = ?", userID, taskID).
		Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetParent records a confirmed hierarchy change; nil promotes the task to
// top level.
func (r *TaskRepository) SetParent(ctx context.Context, userID, taskID uint, parentID *uint) error {
	return r.UpdateFields(ctx, userID, taskID, map[string]any{"parent_id": parentID})
}

func (r *TaskRepository) SetStatus(ctx context.Context, userID, taskID uint, status model.TaskStatus, completedAt *time.Time) error {
	return r.UpdateFields(ctx, userID, taskID, map[string]any{
		"status":       status,
		"completed_at": completedAt,
	})
}

// Delete soft-deletes a task for the given user; Restore brings it back.
func (r *TaskRepository) Delete(ctx context.Context, userID, taskID uint) error {
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).
		Delete(&model.Task{}).Error; err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

func (r *TaskRepository) Restore(ctx context.Context, userID, taskID uint) error {
	res := r.db.WithContext(ctx).Unscoped().Model(&model.Task{}).
		Where("user_id = ? AND id = ?", userID, taskID).
		Update("deleted_at", nil)
	if res.Error != nil {
		return fmt.Errorf("restore task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListRecurring returns every task that still materializes occurrences,
// across all users, for the background materializer.
func (r *TaskRepository) ListRecurring(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Where("is_recurring = ? AND recurrence_rule IS NOT NULL", true).
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}
